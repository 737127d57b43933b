package commands

import (
	"context"

	"github.com/vsinha/bakery-forecast/pkg/application/dto"
	"github.com/vsinha/bakery-forecast/pkg/application/services/erpsync"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/erp"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/logging"
)

// SyncTarget selects the table refreshed from the ERP
type SyncTarget int

const (
	SyncInventory SyncTarget = iota
	SyncWIP
	SyncIndex
	SyncReceipt
)

// String method for SyncTarget enum
func (t SyncTarget) String() string {
	switch t {
	case SyncInventory:
		return "inventory"
	case SyncWIP:
		return "wip"
	case SyncIndex:
		return "index"
	case SyncReceipt:
		return "receipt"
	default:
		return "unknown"
	}
}

// SyncCommand refreshes one table from the ERP
type SyncCommand struct {
	config Config
	target SyncTarget
}

// NewSyncCommand creates a new ERP sync command
func NewSyncCommand(config Config, target SyncTarget) *SyncCommand {
	return &SyncCommand{config: config, target: target}
}

// Execute connects to the ERP and syncs the target table
func (c *SyncCommand) Execute(ctx context.Context) error {
	env, err := setup(ctx, c.config)
	if err != nil {
		return err
	}
	defer env.Close()

	client, err := erp.Open(ctx, env.cfg.ERP)
	if err != nil {
		logging.LogError(env.log, "commands", "SyncCommand.Execute", "connect to erp", env.cfg.ERP.Driver, err)
		return err
	}
	defer func() { _ = client.Close() }()

	return c.sync(ctx, env, client)
}

func (c *SyncCommand) sync(ctx context.Context, env *environment, source erpsync.Source) error {
	syncer := erpsync.NewSyncer(env.store, source, erpsync.Tables{
		Inventory: env.cfg.Tables.Inventory,
		WIP:       env.cfg.Tables.WIP,
		Index:     env.cfg.Tables.Index,
		Receipt:   env.cfg.Tables.Receipt,
	}, nil, env.log)

	var (
		summary *dto.SyncSummary
		err     error
	)
	switch c.target {
	case SyncInventory:
		summary, err = syncer.SyncInventory(ctx)
	case SyncWIP:
		summary, err = syncer.SyncWIP(ctx)
	case SyncReceipt:
		summary, err = syncer.SyncReceipts(ctx, c.config.DaysBack)
	default:
		summary, err = syncer.SyncIndex(ctx)
	}
	if err != nil {
		logging.LogError(env.log, "commands", "SyncCommand.Execute", "sync "+c.target.String(), summary, err)
		return err
	}
	return writeSummary(c.config, summary)
}
