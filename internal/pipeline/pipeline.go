package pipeline

import (
	"context"

	"orderpulse/internal/observability"
	"orderpulse/pkg/errors"
	"orderpulse/pkg/models"
)

// Store is the warehouse session the pipeline mutates. Stages never touch
// an ambient handle; the one store is passed in explicitly.
type Store interface {
	DuplicateOrderIDs(ctx context.Context) ([]string, error)
	LoadOrders(ctx context.Context) ([]*models.Order, error)
	SaveDerived(ctx context.Context, orders []*models.Order) error
	CreateProjection(ctx context.Context) error
}

// Options control a single run.
type Options struct {
	// DryRun executes every stage in memory but writes nothing back.
	DryRun bool
	// SkipProjection leaves the analytics projection untouched.
	SkipProjection bool
}

// Result summarizes one pipeline run.
type Result struct {
	Processed       int
	DatesParsed     int
	DurationsParsed int
	SLAFlagsSet     int
	PeakFlagsSet    int
	Imputed         ImputedValues
	WeatherImputed  int
	TrafficImputed  int
	FestivalImputed int
	Failures        []ParseFailure
	Quality         QualityReport
}

// Pipeline runs the cleaning stages in their required order against one
// store. Every stage targets only rows whose derived field is still unset,
// so running the whole pipeline again over a cleaned table is a no-op.
type Pipeline struct {
	store  Store
	rules  Rules
	logger *observability.Logger
}

// New creates a Pipeline over the given store.
func New(store Store, rules Rules, logger *observability.Logger) *Pipeline {
	if logger == nil {
		logger = observability.NewLogger(observability.LoggerConfig{Service: "orderpulse"})
	}
	return &Pipeline{store: store, rules: rules, logger: logger}
}

// Run executes the full cleaning and feature pipeline: uniqueness gate,
// parsing and imputation stages, flag derivation, write-back, quality
// check, and finally the analytics projection.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	duplicates, err := p.store.DuplicateOrderIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(duplicates) > 0 {
		return nil, errors.ConstraintError(duplicates)
	}

	orders, err := p.store.LoadOrders(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{Processed: len(orders)}
	log := p.logger.WithField("records", len(orders))
	log.Info("starting cleaning pipeline")

	var failures []ParseFailure

	result.DatesParsed, failures = normalizeDates(orders)
	result.Failures = append(result.Failures, failures...)
	log.WithField("converted", result.DatesParsed).Info("date normalization complete")

	result.DurationsParsed, failures = extractDurations(orders)
	result.Failures = append(result.Failures, failures...)
	log.WithField("converted", result.DurationsParsed).Info("duration extraction complete")

	result.Imputed = imputeNumeric(orders)
	result.WeatherImputed, result.TrafficImputed, result.FestivalImputed = imputeCategorical(orders)
	log.WithFields(map[string]interface{}{
		"ages_imputed":    result.Imputed.AgeRows,
		"ratings_imputed": result.Imputed.RatingRows,
	}).Info("imputation complete")

	// Flags read delivery_duration and time_ordered, so they run last
	// among the mutating stages.
	var flagFailures []ParseFailure
	result.SLAFlagsSet, result.PeakFlagsSet, flagFailures = deriveFlags(orders, p.rules)
	result.Failures = append(result.Failures, flagFailures...)

	if !opts.DryRun {
		if err := p.store.SaveDerived(ctx, orders); err != nil {
			return nil, err
		}
	}

	result.Quality = CheckQuality(orders)
	if !result.Quality.Clean() {
		log.WithFields(map[string]interface{}{
			"null_clean_date": result.Quality.NullCleanDate,
			"null_duration":   result.Quality.NullDuration,
			"null_sla_flag":   result.Quality.NullSLAFlag,
			"null_peak_flag":  result.Quality.NullPeakFlag,
		}).Warn("data-quality gate found residual nulls")
	}

	if !opts.DryRun && !opts.SkipProjection {
		if err := p.store.CreateProjection(ctx); err != nil {
			return nil, err
		}
		log.Info("analytics projection materialized")
	}

	return result, nil
}
