package main

import (
	"fmt"

	"github.com/rshade/finfocus-energy-engine/internal/carbon"
	"github.com/spf13/cobra"
)

// instanceView is the JSON shape of a catalog record.
type instanceView struct {
	Name          string             `json:"name"`
	VCPUs         int                `json:"vcpus"`
	MaxVCPUs      int                `json:"max_vcpus"`
	Architectures []string           `json:"architectures"`
	Consumption   string             `json:"consumption"`
	Watts         map[string]float64 `json:"watts"`
	EmbodiedKg    float64            `json:"embodied_kg"`
}

func newListInstancesCmd(root *rootOptions) *cobra.Command {
	var vendor, dataDir string
	cmd := &cobra.Command{
		Use:   "list-instances",
		Short: "Print the instance catalog of a vendor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := root.newLogger(cmd.ErrOrStderr(), envLevel("warn")); err != nil {
				return err
			}
			v, err := carbon.ParseVendor(vendor)
			if err != nil {
				return err
			}
			var tables carbon.RawTables
			if dataDir != "" {
				tables, err = carbon.LoadTablesDir(dataDir, v)
			} else {
				tables, err = carbon.LoadTables(v)
			}
			if err != nil {
				return err
			}
			cat, err := carbon.BuildCatalog(tables)
			if err != nil {
				return err
			}

			views := make([]instanceView, 0, cat.Len())
			for _, name := range cat.Names() {
				rec, err := cat.Lookup(name)
				if err != nil {
					continue
				}
				views = append(views, newInstanceView(rec))
			}
			return writeJSON(cmd.OutOrStdout(), views)
		},
	}
	cmd.Flags().StringVar(&vendor, "vendor", string(carbon.VendorAWS), "cloud vendor (aws|gcp|azure)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory of refreshed reference sheets")
	return cmd
}

func newInstanceView(rec carbon.InstanceRecord) instanceView {
	v := instanceView{
		Name:          rec.Name,
		VCPUs:         rec.VCPUs,
		MaxVCPUs:      rec.MaxVCPUs,
		Architectures: rec.Architectures,
		EmbodiedKg:    rec.EmbodiedKg,
	}
	switch c := rec.Consumption.(type) {
	case carbon.Curve:
		v.Consumption = "curve"
		v.Watts = make(map[string]float64, len(carbon.CurveUtilizations))
		for i, w := range c.Points() {
			v.Watts[fmt.Sprintf("%g%%", carbon.CurveUtilizations[i])] = w
		}
	case carbon.Envelope:
		v.Consumption = "envelope"
		v.Watts = map[string]float64{"min": c.MinWatts, "max": c.MaxWatts}
	}
	return v
}
