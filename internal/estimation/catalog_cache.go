package estimation

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rshade/finfocus-energy-engine/internal/carbon"
)

// TableLoader returns the raw reference tables of a vendor.
type TableLoader func(vendor carbon.Vendor) (carbon.RawTables, error)

// DirTableLoader reads reference tables from dir, falling back to the
// embedded data for files dir does not hold.
func DirTableLoader(dir string) TableLoader {
	return func(vendor carbon.Vendor) (carbon.RawTables, error) {
		return carbon.LoadTablesDir(dir, vendor)
	}
}

// lazyCatalog builds a vendor catalog on first use. The result, including a
// failure, is kept for the lifetime of the owning strategy configuration.
type lazyCatalog struct {
	once    sync.Once
	vendor  carbon.Vendor
	load    TableLoader
	catalog *carbon.Catalog
	err     error
}

func newLazyCatalog(vendor carbon.Vendor, load TableLoader) *lazyCatalog {
	if load == nil {
		load = carbon.LoadTables
	}
	return &lazyCatalog{vendor: vendor, load: load}
}

func (l *lazyCatalog) get(logger zerolog.Logger, metrics *Metrics) (*carbon.Catalog, error) {
	l.once.Do(func() {
		start := time.Now()
		tables, err := l.load(l.vendor)
		if err != nil {
			l.err = fmt.Errorf("load %s reference tables: %w", l.vendor, err)
			return
		}
		if tables.Vendor == "" {
			tables.Vendor = l.vendor
		}
		l.catalog, l.err = carbon.BuildCatalog(tables)
		if l.err != nil {
			l.err = fmt.Errorf("build %s catalog: %w", l.vendor, l.err)
			return
		}
		elapsed := time.Since(start)
		metrics.catalogBuilt(l.vendor, elapsed)
		logger.Debug().
			Str("vendor", string(l.vendor)).
			Int("instances", l.catalog.Len()).
			Dur("elapsed", elapsed).
			Msg("instance catalog built")
	})
	return l.catalog, l.err
}

// requireKnownInstance builds the catalog and rejects an instance type it does
// not list. Instances listed but unusable are reported per row.
func (l *lazyCatalog) requireKnownInstance(instanceType string, logger zerolog.Logger, metrics *Metrics) error {
	cat, err := l.get(logger, metrics)
	if err != nil {
		return err
	}
	if !cat.Has(instanceType) {
		return carbon.UnsupportedValueError(FieldInstanceType, instanceType,
			fmt.Sprintf("instance type is not supported by vendor %s", l.vendor), cat.Names())
	}
	return nil
}
