// Package estimation runs time-series rows through the energy and embodied
// carbon strategies.
//
// Every strategy starts unconfigured. Configure validates its options and may
// be called again to reconfigure; Execute processes a batch in order and
// aborts on the first failing row without returning partial output.
package estimation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rshade/finfocus-energy-engine/internal/carbon"
)

// Strategy names.
const (
	StrategyCatalog  = "ccf"
	StrategyAWSCurve = "aws-curve"
	StrategyTDP      = "tdp-curve"
)

// Strategies lists the strategy names in a stable order.
func Strategies() []string {
	return []string{StrategyCatalog, StrategyAWSCurve, StrategyTDP}
}

// Strategy estimates energy and embodied emissions for a batch of rows.
type Strategy interface {
	Name() string
	Execute(ctx context.Context, rows []Row) ([]Row, error)
}

var (
	_ Strategy = (*CatalogStrategy)(nil)
	_ Strategy = (*AWSCurveStrategy)(nil)
	_ Strategy = (*TDPStrategy)(nil)
)

func errNotConfigured(name string) error {
	return carbon.ConfigValidationError("strategy", name+" strategy is not configured")
}

// batch carries what every strategy shares while executing rows.
type batch struct {
	strategy string
	logger   zerolog.Logger
	metrics  *Metrics
}

// run applies fn to every row in order. The first error aborts the batch.
func (b batch) run(ctx context.Context, rows []Row, fn func(row Row) (Row, error)) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	batchID := uuid.New().String()
	logger := b.logger.With().Str("batch_id", batchID).Str("strategy", b.strategy).Logger()
	start := time.Now()

	logger.Debug().Int("rows", len(rows)).Msg("estimation batch started")

	out := make([]Row, 0, len(rows))
	for i, row := range rows {
		res, err := fn(row)
		if err != nil {
			logger.Error().
				Err(err).
				Int("row", i).
				Str("kind", carbon.KindOf(err).String()).
				Msg("estimation batch aborted")
			b.metrics.batchFailed(b.strategy, err)
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, res)
	}

	b.metrics.rowsProcessed(b.strategy, len(out))
	logger.Info().
		Int("rows", len(out)).
		Dur("elapsed", time.Since(start)).
		Msg("estimation batch finished")
	return out, nil
}
