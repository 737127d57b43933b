package commands

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bakery-forecast/pkg/application/services/production"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/erp"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/logging"
)

// PrepareCommand rewrites the production plan with derived columns
type PrepareCommand struct {
	config Config
}

// NewPrepareCommand creates a new production preparation command
func NewPrepareCommand(config Config) *PrepareCommand {
	return &PrepareCommand{config: config}
}

// Execute prepares the production table. ERP names are used when an ERP is configured
// and reachable.
func (c *PrepareCommand) Execute(ctx context.Context) error {
	env, err := setup(ctx, c.config)
	if err != nil {
		return err
	}
	defer env.Close()

	var names production.NameSource
	if env.cfg.ERP.Driver != "" {
		client, err := erp.Open(ctx, env.cfg.ERP)
		if err != nil {
			env.log.WithError(err).Warn("erp unavailable, using item reference names")
		} else {
			defer func() { _ = client.Close() }()
			names = client
		}
	}

	preparer := production.NewPreparer(env.store, names, production.Options{
		Production:            env.cfg.Tables.Production,
		Index:                 env.cfg.Tables.Index,
		DefaultCompletionDays: env.cfg.Production.DefaultCompletionDays,
		DoughPerBatchGrams:    decimal.NewFromFloat(env.cfg.Production.DoughPerBatchGrams),
		YieldRate:             decimal.NewFromFloat(env.cfg.Production.YieldRate),
	}, env.log)

	summary, err := preparer.Prepare(ctx)
	if err != nil {
		logging.LogError(env.log, "commands", "PrepareCommand.Execute", "prepare production plan", summary, err)
		return err
	}
	return writeSummary(c.config, summary)
}
