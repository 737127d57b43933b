package commands

import (
	"context"
	"fmt"

	"github.com/vsinha/bakery-forecast/pkg/application/services/orchestration"
	"github.com/vsinha/bakery-forecast/pkg/domain/dates"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/logging"
)

// RunCommand runs the inventory forecast
type RunCommand struct {
	config Config
}

// NewRunCommand creates a new forecast run command
func NewRunCommand(config Config) *RunCommand {
	return &RunCommand{config: config}
}

// Execute runs the forecast and prints the run summary
func (c *RunCommand) Execute(ctx context.Context) error {
	if c.config.Horizon < 0 {
		return fmt.Errorf("invalid -horizon: must be positive, got %d", c.config.Horizon)
	}

	var clock dates.Clock = dates.SystemClock{}
	if c.config.Today != "" {
		today, err := dates.Parse(c.config.Today)
		if err != nil {
			return fmt.Errorf("invalid -today: %w", err)
		}
		clock = dates.FixedClock(today)
	}

	env, err := setup(ctx, c.config)
	if err != nil {
		return err
	}
	defer env.Close()

	if c.config.Horizon > 0 {
		env.cfg.Forecast.HorizonDays = c.config.Horizon
	}

	pipeline, err := orchestration.NewPipeline(env.store, env.cfg, clock, env.log)
	if err != nil {
		return err
	}

	summary, err := pipeline.Run(ctx)
	if err != nil {
		logging.LogError(env.log, "commands", "RunCommand.Execute", "forecast run failed", summary, err)
		return err
	}
	return writeSummary(c.config, summary)
}
