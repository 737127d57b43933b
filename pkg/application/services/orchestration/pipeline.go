package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vsinha/bakery-forecast/pkg/application/dto"
	"github.com/vsinha/bakery-forecast/pkg/application/services/emit"
	"github.com/vsinha/bakery-forecast/pkg/application/services/forecast"
	"github.com/vsinha/bakery-forecast/pkg/application/services/reconcile"
	"github.com/vsinha/bakery-forecast/pkg/domain/dates"
	"github.com/vsinha/bakery-forecast/pkg/domain/repositories"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/config"
)

// Pipeline coordinates one forecast run: reconcile the sources, project, emit
type Pipeline struct {
	reconciler *reconcile.Reconciler
	engine     *forecast.Engine
	emitter    *emit.Emitter
	clock      dates.Clock
	horizon    int
	log        logrus.FieldLogger
}

// NewPipeline creates a pipeline over a table store. A nil clock uses the system clock.
func NewPipeline(store repositories.TableStore, cfg *config.Config, clock dates.Clock, log logrus.FieldLogger) (*Pipeline, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	if cfg.Forecast.HorizonDays <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %d days", config.ErrInvalidConfig, cfg.Forecast.HorizonDays)
	}

	reconciler := reconcile.NewReconciler(store, reconcile.Options{
		Tables: reconcile.Tables{
			Inventory:  cfg.Tables.Inventory,
			WIP:        cfg.Tables.WIP,
			BOM:        cfg.Tables.BOM,
			Production: cfg.Tables.Production,
			Assembly:   cfg.Tables.Assembly,
			Index:      cfg.Tables.Index,
		},
		LeadTimeDays:       cfg.Forecast.LeadTimeDays,
		Policy:             policy,
		TrailingWindowDays: cfg.Forecast.TrailingWindowDays,
	}, log)

	if clock == nil {
		clock = dates.SystemClock{}
	}

	return &Pipeline{
		reconciler: reconciler,
		engine:     forecast.NewEngine(log),
		emitter:    emit.NewEmitter(store, emit.Tables{Detail: cfg.Tables.Detail, Shortage: cfg.Tables.Shortage}, log),
		clock:      clock,
		horizon:    cfg.Forecast.HorizonDays,
		log:        log,
	}, nil
}

// Run executes the forecast. The run date is read from the clock once. Output tables
// are written only after every source has been read and projected.
func (p *Pipeline) Run(ctx context.Context) (*dto.RunSummary, error) {
	started := time.Now()
	summary := &dto.RunSummary{
		RunID:       uuid.NewString(),
		Today:       dates.Today(p.clock),
		HorizonDays: p.horizon,
		Policy:      p.reconciler.Policy().String(),
	}
	log := p.log.WithFields(logrus.Fields{"run_id": summary.RunID, "today": dates.Format(summary.Today)})
	log.WithFields(logrus.Fields{"horizon_days": p.horizon, "policy": summary.Policy}).Info("starting forecast run")

	input, err := p.readInputs(ctx, summary.Today)
	if err != nil {
		summary.Duration = time.Since(started)
		return summary, err
	}

	result, err := p.engine.Project(*input)
	if err != nil {
		summary.Duration = time.Since(started)
		return summary, fmt.Errorf("failed to project inventory: %w", err)
	}

	if err := p.emitter.WriteResults(ctx, result); err != nil {
		summary.Duration = time.Since(started)
		return summary, err
	}

	summary.ItemCount = len(result.Items)
	summary.DetailRows = len(result.Rows)
	summary.ShortageRows = len(result.Shortages())
	summary.Success = true
	summary.Duration = time.Since(started)

	log.WithFields(logrus.Fields{
		"items":     summary.ItemCount,
		"rows":      summary.DetailRows,
		"shortages": summary.ShortageRows,
		"duration":  summary.Duration.String(),
	}).Info("forecast run complete")
	return summary, nil
}

func (p *Pipeline) readInputs(ctx context.Context, today time.Time) (*dto.ForecastInput, error) {
	opening, err := p.reconciler.ReadOpeningInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read opening inventory: %w", err)
	}

	names, err := p.reconciler.ReadItemNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read item names: %w", err)
	}

	bom, err := p.reconciler.ReadBOM(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read BOM: %w", err)
	}

	completions, err := p.reconciler.ReadCompletionSchedule(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to read completion schedule: %w", err)
	}

	consumption, err := p.reconciler.ReadConsumptionSchedule(ctx, bom)
	if err != nil {
		return nil, fmt.Errorf("failed to read consumption schedule: %w", err)
	}

	return &dto.ForecastInput{
		Today:       today,
		HorizonDays: p.horizon,
		Opening:     opening,
		Completions: completions,
		Consumption: consumption,
		ItemNames:   names,
	}, nil
}
