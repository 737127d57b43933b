package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/vsinha/bakery-forecast/pkg/interfaces/cli/commands"
)

// shutdownSignals cancel the running command
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: forecast <command> [flags]\n\nCommands:\n  %s\n\n", strings.Join(commands.Names(), "\n  "))
	fmt.Fprintf(os.Stderr, "Run 'forecast <command> -help' for the flags of a command.\n")
}

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-help" || os.Args[1] == "--help" {
		usage()
		os.Exit(2)
	}
	name := os.Args[1]

	// Command line flags
	flags := flag.NewFlagSet(name, flag.ExitOnError)
	var (
		configPath = flags.String("config", "", "Path to YAML configuration file (optional)")
		verbose    = flags.Bool("verbose", false, "Enable debug logging")
		format     = flags.String("format", "text", "Summary format: text, json")
		today      = flags.String("today", "", "Run date override, YYYY/MM/DD (run only)")
		horizon    = flags.Int("horizon", 0, "Horizon override in days (run only)")
		days       = flags.Int("days", 5, "Days of receipts to sync, counted back from today (sync-receipt only)")
	)
	_ = flags.Parse(os.Args[2:])

	// Create command configuration
	config := commands.Config{
		ConfigPath: *configPath,
		Verbose:    *verbose,
		Format:     *format,
		Today:      *today,
		Horizon:    *horizon,
		DaysBack:   *days,
	}

	cmd, err := commands.New(name, config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
