package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rshade/finfocus-energy-engine/internal/carbon"
	"github.com/rshade/finfocus-energy-engine/internal/config"
	"github.com/rshade/finfocus-energy-engine/internal/estimation"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Output formats of the run command.
const (
	formatJSON      = "json"
	formatProtoJSON = "protojson"
)

type runOptions struct {
	manifest     string
	strategy     string
	inputs       string
	dataDir      string
	output       string
	outputFormat string
	metricsFile  string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Estimate the inputs of a manifest",
		Long:  "Loads a YAML manifest, applies ENERGY_ENGINE_* environment overrides, runs its inputs through the selected strategy and prints the output rows as JSON.",
		Example: `  energy-estimator run -f manifest.yaml
  ENERGY_ENGINE_INTERPOLATION=linear energy-estimator run -f manifest.yaml -o out.json
  energy-estimator run -f manifest.yaml --inputs rows.json --data-dir ./ccf-sheets`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runManifest(cmd, root, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.manifest, "file", "f", "", "manifest file (required)")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "override the manifest strategy (ccf|aws-curve|tdp-curve)")
	cmd.Flags().StringVar(&opts.inputs, "inputs", "", "JSON array of input rows replacing the manifest inputs (- for stdin)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "directory of refreshed reference sheets; overrides the manifest data-dir")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write JSON rows to this file instead of stdout")
	cmd.Flags().StringVar(&opts.outputFormat, "output-format", formatJSON, "output encoding (json|protojson)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus text metrics to this file after the run")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runManifest(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	if opts.outputFormat != formatJSON && opts.outputFormat != formatProtoJSON {
		return carbon.ConfigValidationError("output-format",
			fmt.Sprintf("unknown output format %q (expected json|protojson)", opts.outputFormat))
	}
	m, err := config.Load(opts.manifest)
	if err != nil {
		return err
	}

	// Bootstrap logger for override warnings; rebuilt once the level is known.
	logger, err := root.newLogger(cmd.ErrOrStderr(), envLevel(config.DefaultLogLevel))
	if err != nil {
		return err
	}
	m.ApplyEnv(os.LookupEnv, logger)
	if opts.strategy != "" {
		m.Strategy = opts.strategy
	}
	if opts.dataDir != "" {
		m.DataDir = opts.dataDir
	}
	lvl, err := m.Level()
	if err != nil {
		return err
	}
	if logger, err = root.newLogger(cmd.ErrOrStderr(), lvl.String()); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	strategy, err := config.NewStrategy(m, config.Deps{
		Logger:  logger,
		Metrics: estimation.NewMetrics(registry),
	})
	if err != nil {
		return err
	}

	inputs := m.Rows()
	if opts.inputs != "" {
		if inputs, err = readInputs(cmd.InOrStdin(), opts.inputs); err != nil {
			return err
		}
	}

	rows, err := strategy.Execute(cmd.Context(), inputs)
	if err != nil {
		return fmt.Errorf("%s: %w", strategy.Name(), err)
	}

	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	if opts.outputFormat == formatProtoJSON {
		return writeProtoJSON(out, rows)
	}
	return writeJSON(out, rows)
}

// readInputs decodes a JSON array of row objects from path, or from stdin
// when path is "-".
func readInputs(stdin io.Reader, path string) ([]estimation.Row, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}

	var list structpb.ListValue
	if err := protojson.Unmarshal(data, &list); err != nil {
		return nil, carbon.ConfigValidationError("inputs", fmt.Sprintf("inputs must be a JSON array of objects: %v", err))
	}
	rows := make([]estimation.Row, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, carbon.ConfigValidationError("inputs", fmt.Sprintf("input %d is not an object", i))
		}
		rows = append(rows, estimation.RowFromStruct(s))
	}
	return rows, nil
}

func writeProtoJSON(w io.Writer, rows []estimation.Row) error {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(rows))}
	for _, r := range rows {
		s, err := r.ToStruct()
		if err != nil {
			return err
		}
		list.Values = append(list.Values, structpb.NewStructValue(s))
	}
	data, err := protojson.MarshalOptions{Multiline: true}.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
