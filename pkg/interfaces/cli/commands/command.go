package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"

	domain "github.com/vsinha/bakery-forecast/pkg/domain/repositories"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/config"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/logging"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/repositories"
	"github.com/vsinha/bakery-forecast/pkg/interfaces/cli/output"
)

// Config holds the command line options shared by every subcommand
type Config struct {
	ConfigPath string
	Verbose    bool
	Format     string
	// Today overrides the run date (run only)
	Today string
	// Horizon overrides the configured horizon when positive; negative is rejected (run only)
	Horizon int
	// DaysBack is the receipt window counted back from today (sync-receipt only)
	DaysBack int
	// Out receives the summary, LogOut the log; both default to the standard streams
	Out    io.Writer
	LogOut io.Writer
}

// Command is one subcommand
type Command interface {
	Execute(ctx context.Context) error
}

var registry = map[string]func(Config) Command{
	"run":                func(c Config) Command { return NewRunCommand(c) },
	"sync-inventory":     func(c Config) Command { return NewSyncCommand(c, SyncInventory) },
	"sync-wip":           func(c Config) Command { return NewSyncCommand(c, SyncWIP) },
	"sync-index":         func(c Config) Command { return NewSyncCommand(c, SyncIndex) },
	"sync-receipt":       func(c Config) Command { return NewSyncCommand(c, SyncReceipt) },
	"prepare-production": func(c Config) Command { return NewPrepareCommand(c) },
	"init-tables":        func(c Config) Command { return NewInitCommand(c) },
}

// Names lists the subcommands in order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the named subcommand
func New(name string, cfg Config) (Command, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", name)
	}
	return factory(cfg), nil
}

// environment is what every subcommand needs: configuration, a logger and an open store
type environment struct {
	cfg    *config.Config
	log    *logrus.Logger
	store  domain.TableStore
	closer io.Closer
}

func setup(ctx context.Context, c Config) (*environment, error) {
	if c.Format != "text" && c.Format != "json" {
		return nil, fmt.Errorf("unsupported output format: %s", c.Format)
	}

	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	if c.Verbose {
		cfg.Logging.Level = "debug"
	}

	log, err := logging.New(cfg.Logging, c.LogOut)
	if err != nil {
		return nil, err
	}

	store, closer, err := repositories.Open(ctx, cfg.Store)
	if err != nil {
		logging.LogError(log, "commands", "setup", "open table store", cfg.Store.Backend, err)
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	log.WithFields(logrus.Fields{"backend": cfg.Store.Backend, "path": cfg.Store.Path}).Debug("opened table store")

	return &environment{cfg: cfg, log: log, store: store, closer: closer}, nil
}

func (e *environment) Close() {
	if err := e.closer.Close(); err != nil {
		e.log.WithError(err).Warn("failed to close table store")
	}
}

func writeSummary(c Config, summary any) error {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	return output.Generate(out, c.Format, summary)
}
