// Package tables creates the tables the forecast reads and writes.
package tables

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vsinha/bakery-forecast/pkg/application/dto"
	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
	"github.com/vsinha/bakery-forecast/pkg/domain/repositories"
	"github.com/vsinha/bakery-forecast/pkg/domain/schema"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/config"
)

// Known pairs a configured table name with its schema
type Known struct {
	Name   string
	Schema schema.Schema
}

// FromConfig lists the configured tables. Optional tables left unnamed are omitted.
func FromConfig(cfg config.TablesConfig) []Known {
	known := []Known{
		{cfg.Index, schema.Index},
		{cfg.Inventory, schema.Inventory},
		{cfg.WIP, schema.WIP},
		{cfg.BOM, schema.BOM},
		{cfg.Production, schema.Production},
		{cfg.Assembly, schema.Assembly},
		{cfg.Detail, schema.Detail},
		{cfg.Shortage, schema.Shortage},
		{cfg.Receipt, schema.Receipt},
	}
	out := known[:0]
	for _, k := range known {
		if k.Name != "" {
			out = append(out, k)
		}
	}
	return out
}

// Initializer creates missing tables and repairs unreadable header rows
type Initializer struct {
	store repositories.TableStore
	known []Known
	log   logrus.FieldLogger
}

// NewInitializer creates a new table initializer
func NewInitializer(store repositories.TableStore, known []Known, log logrus.FieldLogger) *Initializer {
	return &Initializer{store: store, known: known, log: log}
}

// Init creates each missing table with its canonical header. A table whose header
// cannot locate every column gets the canonical header; its data rows are kept.
func (i *Initializer) Init(ctx context.Context) (*dto.InitSummary, error) {
	summary := &dto.InitSummary{}

	for _, k := range i.known {
		table, err := i.store.ReadTable(ctx, k.Name)
		switch {
		case errors.Is(err, repositories.ErrTableNotFound):
			if err := i.store.WriteTable(ctx, k.Name, k.Schema.NewTable()); err != nil {
				return summary, fmt.Errorf("failed to create %s: %w", k.Name, err)
			}
			summary.Created = append(summary.Created, k.Name)
			i.log.WithField("table", k.Name).Info("created table")
		case err != nil:
			return summary, fmt.Errorf("failed to read %s: %w", k.Name, err)
		case !k.Schema.Locates(table.Header):
			repaired := &entities.Table{Header: k.Schema.Header, Rows: table.Rows}
			if err := i.store.WriteTable(ctx, k.Name, repaired); err != nil {
				return summary, fmt.Errorf("failed to repair %s: %w", k.Name, err)
			}
			summary.Repaired = append(summary.Repaired, k.Name)
			i.log.WithFields(logrus.Fields{"table": k.Name, "header": table.Header}).Warn("replaced header row")
		}
	}
	return summary, nil
}
