package commands

import (
	"context"

	"github.com/vsinha/bakery-forecast/pkg/application/services/tables"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/logging"
)

// InitCommand creates the configured tables
type InitCommand struct {
	config Config
}

// NewInitCommand creates a new table initialization command
func NewInitCommand(config Config) *InitCommand {
	return &InitCommand{config: config}
}

// Execute creates missing tables and repairs header rows
func (c *InitCommand) Execute(ctx context.Context) error {
	env, err := setup(ctx, c.config)
	if err != nil {
		return err
	}
	defer env.Close()

	summary, err := tables.NewInitializer(env.store, tables.FromConfig(env.cfg.Tables), env.log).Init(ctx)
	if err != nil {
		logging.LogError(env.log, "commands", "InitCommand.Execute", "initialize tables", summary, err)
		return err
	}
	return writeSummary(c.config, summary)
}
