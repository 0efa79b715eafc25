// Package main refreshes the Cloud Carbon Footprint (CCF) reference tables
// embedded by internal/carbon.
//
// For every vendor the tool downloads the architecture usage, instance and
// embodied coefficient sheets from the cloud-carbon-coefficients repository,
// keeps the columns the catalog builder reads and writes them to
// internal/carbon/data/<vendor>-{use,instances,embodied}.csv.
//
// The AWS instance-to-architecture mapping (aws-instance-architectures.json)
// is maintained by hand and is not touched.
//
// Usage:
//
//	go run ./tools/generate-carbon-data [--out-dir DIR] [--vendor aws,gcp,azure] [--validate]
package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ccfBaseURL is the raw GitHub root of the coefficient sheets.
// Source: https://github.com/cloud-carbon-footprint/cloud-carbon-coefficients
// License: Apache 2.0
const ccfBaseURL = "https://raw.githubusercontent.com/cloud-carbon-footprint/cloud-carbon-coefficients/main"

// sheet describes one generated file: where it comes from and which source
// columns (by header name) it keeps, in output order.
type sheet struct {
	source  string
	output  string
	columns []string
	minRows int
}

var usageColumns = []string{"Architecture", "Min Watts", "Max Watts", "GB/Chip"}

var embodiedColumns = []string{"type", "total"}

func vendorSheets(vendor string) ([]sheet, error) {
	var instanceColumns []string
	switch vendor {
	case "aws":
		instanceColumns = []string{
			"Instance type", "Instance vCPU", "Platform Total Number of vCPU",
			"Instance @ Idle", "Instance @ 10%", "Instance @ 50%", "Instance @ 100%",
		}
	case "gcp":
		instanceColumns = []string{
			"Machine type", "Microarchitecture", "Instance vCPUs", "Platform vCPUs (highest vCPU possible)",
		}
	case "azure":
		instanceColumns = []string{
			"Virtual Machine", "Microarchitecture", "Instance vCPUs", "Platform vCPUs (highest vCPU possible)",
		}
	default:
		return nil, fmt.Errorf("unknown vendor %q (expected aws, gcp or azure)", vendor)
	}
	return []sheet{
		{
			source:  ccfBaseURL + "/output/coefficients-" + vendor + "-use.csv",
			output:  vendor + "-use.csv",
			columns: usageColumns,
			minRows: 3,
		},
		{
			source:  ccfBaseURL + "/data/" + vendor + "-instances.csv",
			output:  vendor + "-instances.csv",
			columns: instanceColumns,
			minRows: 10,
		},
		{
			source:  ccfBaseURL + "/output/coefficients-" + vendor + "-embodied.csv",
			output:  vendor + "-embodied.csv",
			columns: embodiedColumns,
			minRows: 10,
		},
	}, nil
}

func main() {
	outDir := flag.String("out-dir", "./internal/carbon/data", "Output directory for the CSV files")
	vendors := flag.String("vendor", "aws,gcp,azure", "Comma-separated vendors to refresh")
	validate := flag.Bool("validate", true, "Fail when a sheet has fewer rows than expected")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	for _, vendor := range strings.Split(*vendors, ",") {
		sheets, err := vendorSheets(strings.TrimSpace(vendor))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, s := range sheets {
			if err := refresh(client, s, *outDir, *validate); err != nil {
				fmt.Fprintf(os.Stderr, "Error refreshing %s: %v\n", s.output, err)
				os.Exit(1)
			}
		}
	}
}

func refresh(client *http.Client, s sheet, outDir string, validate bool) error {
	fmt.Printf("Fetching %s\n", s.source)
	data, err := fetch(client, s.source)
	if err != nil {
		return err
	}
	projected, rows, err := project(bytes.NewReader(data), s.columns)
	if err != nil {
		return err
	}
	if validate && rows < s.minRows {
		return fmt.Errorf("only %d rows found, expected at least %d", rows, s.minRows)
	}
	outPath := filepath.Join(outDir, s.output)
	if err := os.WriteFile(outPath, projected, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Printf("Successfully wrote %s (%d rows)\n", outPath, rows)
	return nil
}

func fetch(client *http.Client, url string) ([]byte, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// project keeps the named columns of a CSV, in the given order. Rows with an
// empty first kept column are dropped. It returns the new CSV and its row
// count (header excluded).
func project(r io.Reader, columns []string) ([]byte, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	positions := make([]int, len(columns))
	for i, c := range columns {
		pos, ok := index[c]
		if !ok {
			return nil, 0, fmt.Errorf("column %q not found in header", c)
		}
		positions[i] = pos
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, 0, err
	}

	rows := 0
	out := make([]string, len(columns))
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		for i, pos := range positions {
			out[i] = ""
			if pos < len(record) {
				out[i] = strings.TrimSpace(record[pos])
			}
		}
		if out[0] == "" {
			continue
		}
		if err := w.Write(out); err != nil {
			return nil, 0, err
		}
		rows++
	}
	w.Flush()
	return buf.Bytes(), rows, w.Error()
}
