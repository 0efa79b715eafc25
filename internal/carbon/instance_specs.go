package carbon

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Reference data derived from the CCF cloud-carbon-coefficients sheets.
// Source: https://github.com/cloud-carbon-footprint/cloud-carbon-coefficients
//
//go:embed data
var dataFS embed.FS

// usage CSV columns (<vendor>-use.csv)
const (
	colUsageArchitecture = 0 // Architecture
	colUsageMinWatts     = 1 // Min Watts
	colUsageMaxWatts     = 2 // Max Watts
)

// AWS instances CSV columns (aws-instances.csv)
const (
	colAWSInstanceType = 0 // Instance type
	colAWSVCPU         = 1 // Instance vCPU
	colAWSPlatformVCPU = 2 // Platform Total Number of vCPU
	colAWSIdle         = 3 // Instance @ Idle
	colAWSTen          = 4 // Instance @ 10%
	colAWSFifty        = 5 // Instance @ 50%
	colAWSHundred      = 6 // Instance @ 100%
)

// GCP and Azure instances CSV columns (<vendor>-instances.csv)
const (
	colInstanceName         = 0 // Machine type / Virtual Machine
	colInstanceMicroarch    = 1 // Microarchitecture
	colInstanceVCPU         = 2 // Instance vCPUs
	colInstancePlatformVCPU = 3 // Platform vCPUs (highest vCPU possible)
)

// embodied CSV columns (<vendor>-embodied.csv)
const (
	colEmbodiedType  = 0 // type
	colEmbodiedTotal = 1 // total (kgCO2e)
)

// LoadTables parses the embedded reference data for vendor. Malformed rows are
// logged and skipped; a missing or unreadable file is an error.
func LoadTables(vendor Vendor) (RawTables, error) {
	return LoadTablesFS(embeddedData(), vendor)
}

// LoadTablesDir parses reference data from dir, laid out like the output of
// tools/generate-carbon-data (<vendor>-use.csv, <vendor>-instances.csv, ...).
// Files missing from dir are read from the embedded data.
func LoadTablesDir(dir string, vendor Vendor) (RawTables, error) {
	return LoadTablesFS(overlayFS{upper: os.DirFS(dir), lower: embeddedData()}, vendor)
}

// LoadTablesFS parses the reference data files of vendor found at the root
// of fsys.
func LoadTablesFS(fsys fs.FS, vendor Vendor) (RawTables, error) {
	if _, err := ParseVendor(string(vendor)); err != nil {
		return RawTables{}, err
	}
	tables := RawTables{Vendor: vendor}

	var err error
	if tables.Usage, err = readUsage(fsys, dataPath(vendor, "use.csv")); err != nil {
		return RawTables{}, err
	}
	if vendor == VendorAWS {
		tables.Instances, err = readAWSInstances(fsys, dataPath(vendor, "instances.csv"))
	} else {
		tables.Instances, err = readInstances(fsys, dataPath(vendor, "instances.csv"))
	}
	if err != nil {
		return RawTables{}, err
	}
	if vendor.HasArchitectureMapping() {
		if tables.Architectures, err = readArchitectures(fsys, dataPath(vendor, "instance-architectures.json")); err != nil {
			return RawTables{}, err
		}
	}
	if tables.Embodied, err = readEmbodied(fsys, dataPath(vendor, "embodied.csv")); err != nil {
		return RawTables{}, err
	}
	return tables, nil
}

func embeddedData() fs.FS {
	sub, err := fs.Sub(dataFS, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

func dataPath(vendor Vendor, name string) string {
	return string(vendor) + "-" + name
}

// overlayFS serves files from upper, falling back to lower for files upper
// does not have.
type overlayFS struct {
	upper, lower fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.upper.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return o.lower.Open(name)
	}
	return f, err
}

// readCSV opens a reference CSV, skips its header and hands every well-formed
// record with at least minCols columns to fn.
func readCSV(fsys fs.FS, path string, minCols int, fn func(record []string)) error {
	f, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("open reference data %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	// Skip header row
	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("read header of %s: %w", path, err)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("skipping malformed reference data row")
			continue
		}
		if len(record) < minCols {
			logger.Warn().Str("file", path).Int("columns", len(record)).Msg("skipping short reference data row")
			continue
		}
		fn(record)
	}
}

func readUsage(fsys fs.FS, path string) ([]UsageRow, error) {
	var rows []UsageRow
	err := readCSV(fsys, path, colUsageMaxWatts+1, func(record []string) {
		arch := strings.TrimSpace(record[colUsageArchitecture])
		minWatts, errMin := parseEuropeanFloat(record[colUsageMinWatts])
		maxWatts, errMax := parseEuropeanFloat(record[colUsageMaxWatts])
		if arch == "" || errMin != nil || errMax != nil || minWatts < 0 || maxWatts < minWatts {
			logger.Warn().Str("file", path).Str("architecture", arch).Msg("skipping invalid usage row")
			return
		}
		rows = append(rows, UsageRow{Architecture: arch, MinWatts: minWatts, MaxWatts: maxWatts})
	})
	return rows, err
}

func readAWSInstances(fsys fs.FS, path string) ([]InstanceRow, error) {
	var rows []InstanceRow
	err := readCSV(fsys, path, colAWSPlatformVCPU+1, func(record []string) {
		row, ok := parseInstanceRow(path, record[colAWSInstanceType], record[colAWSVCPU], record[colAWSPlatformVCPU])
		if !ok {
			return
		}
		if len(record) > colAWSHundred {
			row.Measured = parseMeasuredCurve(path, row.Name, record[colAWSIdle:colAWSHundred+1])
		}
		rows = append(rows, row)
	})
	return rows, err
}

func readInstances(fsys fs.FS, path string) ([]InstanceRow, error) {
	var rows []InstanceRow
	err := readCSV(fsys, path, colInstancePlatformVCPU+1, func(record []string) {
		row, ok := parseInstanceRow(path, record[colInstanceName], record[colInstanceVCPU], record[colInstancePlatformVCPU])
		if !ok {
			return
		}
		row.Microarchitecture = strings.TrimSpace(record[colInstanceMicroarch])
		rows = append(rows, row)
	})
	return rows, err
}

// parseInstanceRow validates the name and vCPU columns shared by every vendor.
// Rows must satisfy maxVCPUs >= vCPUs >= 1.
func parseInstanceRow(path, name, vcpu, platformVCPU string) (InstanceRow, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return InstanceRow{}, false
	}
	vcpus, err := strconv.Atoi(strings.TrimSpace(vcpu))
	if err != nil || vcpus < 1 {
		logger.Warn().Str("file", path).Str("instance_type", name).Str("vcpu", vcpu).Msg("skipping instance with invalid vCPU count")
		return InstanceRow{}, false
	}
	maxVCPUs, err := strconv.Atoi(strings.TrimSpace(platformVCPU))
	if err != nil || maxVCPUs < vcpus {
		logger.Warn().Str("file", path).Str("instance_type", name).Str("platform_vcpu", platformVCPU).
			Msg("skipping instance with invalid platform vCPU count")
		return InstanceRow{}, false
	}
	return InstanceRow{Name: name, VCPUs: vcpus, MaxVCPUs: maxVCPUs}, true
}

// parseMeasuredCurve reads the idle/10%/50%/100% columns. All-empty columns
// mean the instance was never measured; anything unparsable drops the curve.
func parseMeasuredCurve(path, name string, cols []string) *Curve {
	empty := true
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			empty = false
		}
	}
	if empty {
		return nil
	}
	var points [4]float64
	for i, c := range cols {
		w, err := parseEuropeanFloat(c)
		if err != nil || w < 0 {
			logger.Warn().Str("file", path).Str("instance_type", name).Str("value", c).
				Msg("ignoring unparsable measured curve")
			return nil
		}
		points[i] = w
	}
	return &Curve{Idle: points[0], Ten: points[1], Fifty: points[2], Hundred: points[3]}
}

func readArchitectures(fsys fs.FS, path string) (map[string][]string, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("open reference data %s: %w", path, err)
	}
	mapping := make(map[string][]string)
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("parse reference data %s: %w", path, err)
	}
	return mapping, nil
}

func readEmbodied(fsys fs.FS, path string) ([]EmbodiedRow, error) {
	var rows []EmbodiedRow
	err := readCSV(fsys, path, colEmbodiedTotal+1, func(record []string) {
		name := strings.TrimSpace(record[colEmbodiedType])
		total, err := parseEuropeanFloat(record[colEmbodiedTotal])
		if name == "" || err != nil || total < 0 {
			logger.Warn().Str("file", path).Str("instance_type", name).Msg("skipping invalid embodied row")
			return
		}
		rows = append(rows, EmbodiedRow{InstanceType: name, TotalKg: total})
	})
	return rows, err
}
