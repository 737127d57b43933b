// Package reconcile turns the raw tables into the canonical maps the forecast
// engine consumes. Malformed rows are logged and skipped; a required table that
// cannot be read aborts the run.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vsinha/bakery-forecast/pkg/domain/dates"
	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
	"github.com/vsinha/bakery-forecast/pkg/domain/repositories"
	"github.com/vsinha/bakery-forecast/pkg/domain/schema"
	"github.com/vsinha/bakery-forecast/pkg/domain/units"
)

// ErrSourceUnavailable is returned when a required table cannot be read
var ErrSourceUnavailable = errors.New("source table unavailable")

// Tables names the source tables. An empty WIP name means no work-in-progress source.
type Tables struct {
	Inventory  string
	WIP        string
	BOM        string
	Production string
	Assembly   string
	Index      string
}

// Options configures how production batches become completions
type Options struct {
	Tables             Tables
	LeadTimeDays       int
	Policy             entities.InclusionPolicy
	TrailingWindowDays int
}

// Reconciler reads source tables from a store
type Reconciler struct {
	store repositories.TableStore
	opts  Options
	log   logrus.FieldLogger
}

// NewReconciler creates a reconciler. An AutoPolicy is resolved against the WIP table setting.
func NewReconciler(store repositories.TableStore, opts Options, log logrus.FieldLogger) *Reconciler {
	opts.Policy = opts.Policy.Resolve(opts.Tables.WIP != "")
	return &Reconciler{store: store, opts: opts, log: log}
}

// Policy returns the resolved inclusion policy
func (r *Reconciler) Policy() entities.InclusionPolicy {
	return r.opts.Policy
}

func (r *Reconciler) readRequired(ctx context.Context, name string) (*entities.Table, error) {
	table, err := r.store.ReadTable(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, name, err)
	}
	return table, nil
}

func rowFields(table string, i int) logrus.Fields {
	// i is the data row index; +2 gives the sheet row number under the header
	return logrus.Fields{"table": table, "row": i + 2}
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ReadOpeningInventory sums on-hand stock across locations, plus work in progress when configured
func (r *Reconciler) ReadOpeningInventory(ctx context.Context) (entities.Inventory, error) {
	inv := make(entities.Inventory)

	table, err := r.readRequired(ctx, r.opts.Tables.Inventory)
	if err != nil {
		return nil, err
	}
	r.accumulate(inv, r.opts.Tables.Inventory, table, schema.InventoryCode, schema.InventoryQty)

	if r.opts.Tables.WIP != "" {
		wip, err := r.readRequired(ctx, r.opts.Tables.WIP)
		if err != nil {
			return nil, err
		}
		r.accumulate(inv, r.opts.Tables.WIP, wip, schema.WIPCode, schema.WIPQty)
	}

	r.log.WithFields(logrus.Fields{"items": len(inv), "wip": r.opts.Tables.WIP != ""}).Info("read opening inventory")
	return inv, nil
}

func (r *Reconciler) accumulate(inv entities.Inventory, name string, table *entities.Table, codeCol, qtyCol entities.Column) {
	codeIdx, qtyIdx := codeCol.Index(table), qtyCol.Index(table)
	for i, row := range table.Rows {
		code := entities.Cell(row, codeIdx)
		if code == "" {
			continue
		}
		qty := units.QuantityOrZero(r.log, entities.Cell(row, qtyIdx), rowFields(name, i))
		inv.Add(units.Normalize(code, qty))
	}
}

// ReadBOM reads the gift-box recipes in base units
func (r *Reconciler) ReadBOM(ctx context.Context) (entities.BOM, error) {
	name := r.opts.Tables.BOM
	table, err := r.readRequired(ctx, name)
	if err != nil {
		return nil, err
	}

	boxIdx, itemIdx, qtyIdx := schema.BOMBox.Index(table), schema.BOMItem.Index(table), schema.BOMQty.Index(table)
	bom := make(entities.BOM)
	for i, row := range table.Rows {
		if blank(row) {
			continue
		}
		fields := rowFields(name, i)

		qty, err := units.ParseQuantity(entities.Cell(row, qtyIdx))
		if err != nil {
			r.log.WithFields(fields).WithField("value", entities.Cell(row, qtyIdx)).Warn("skipping BOM row: unparsable quantity per box")
			continue
		}
		code, baseQty := units.Normalize(entities.Cell(row, itemIdx), qty)
		box := entities.BoxCode(units.CanonicalCode(entities.Cell(row, boxIdx)))

		entry, err := entities.NewBOMEntry(box, code, baseQty)
		if err != nil {
			r.log.WithFields(fields).Warnf("skipping BOM row: %v", err)
			continue
		}
		bom.Add(*entry)
	}

	r.log.WithField("boxes", len(bom)).Info("read BOM")
	return bom, nil
}

// includes reports whether a batch starting on start contributes completions
func (r *Reconciler) includes(start, today time.Time) bool {
	switch r.opts.Policy {
	case entities.ExcludeToday:
		return !start.Equal(today)
	case entities.TrailingWindow:
		return !start.Before(dates.AddDays(today, -r.opts.TrailingWindowDays))
	default:
		return true
	}
}

// ReadCompletionSchedule maps production batches to completion dates
func (r *Reconciler) ReadCompletionSchedule(ctx context.Context, today time.Time) (entities.Schedule, error) {
	name := r.opts.Tables.Production
	table, err := r.readRequired(ctx, name)
	if err != nil {
		return nil, err
	}
	today = dates.Normalize(today)

	startIdx := schema.ProductionStart.Index(table)
	codeIdx := schema.ProductionCode.Index(table)
	qtyIdx := schema.ProductionPieces.Index(table)
	completionIdx := schema.ProductionCompletion.Index(table)

	schedule := make(entities.Schedule)
	excluded := 0
	for i, row := range table.Rows {
		if blank(row) {
			continue
		}
		fields := rowFields(name, i)

		start, ok := dates.ParseOrWarn(r.log, entities.Cell(row, startIdx), fields)
		if !ok {
			continue
		}
		if !r.includes(start, today) {
			excluded++
			continue
		}

		code := entities.Cell(row, codeIdx)
		if code == "" {
			r.log.WithFields(fields).Warn("skipping production row: empty item code")
			continue
		}
		qty, err := units.ParseQuantity(entities.Cell(row, qtyIdx))
		if err != nil {
			r.log.WithFields(fields).WithField("value", entities.Cell(row, qtyIdx)).Warn("skipping production row: unparsable quantity")
			continue
		}
		if !qty.IsPositive() {
			continue
		}

		completion := dates.AddDays(start, r.opts.LeadTimeDays)
		if raw := entities.Cell(row, completionIdx); raw != "" {
			if explicit, ok := dates.ParseOrWarn(r.log, raw, fields); ok {
				completion = explicit
			}
		}

		itemCode, baseQty := units.Normalize(code, qty)
		schedule.Add(completion, itemCode, baseQty)
	}

	r.log.WithFields(logrus.Fields{
		"dates":    len(schedule),
		"excluded": excluded,
		"policy":   r.opts.Policy.String(),
	}).Info("read completion schedule")
	return schedule, nil
}

// ReadConsumptionSchedule expands planned box assemblies into item requirements
func (r *Reconciler) ReadConsumptionSchedule(ctx context.Context, bom entities.BOM) (entities.Schedule, error) {
	name := r.opts.Tables.Assembly
	table, err := r.readRequired(ctx, name)
	if err != nil {
		return nil, err
	}

	dateIdx, boxIdx, qtyIdx := schema.AssemblyDate.Index(table), schema.AssemblyBox.Index(table), schema.AssemblyQty.Index(table)
	schedule := make(entities.Schedule)
	for i, row := range table.Rows {
		if blank(row) {
			continue
		}
		fields := rowFields(name, i)

		date, ok := dates.ParseOrWarn(r.log, entities.Cell(row, dateIdx), fields)
		if !ok {
			continue
		}
		planned, err := units.ParseQuantity(entities.Cell(row, qtyIdx))
		if err != nil {
			r.log.WithFields(fields).WithField("value", entities.Cell(row, qtyIdx)).Warn("skipping assembly row: unparsable planned quantity")
			continue
		}
		if !planned.IsPositive() {
			continue
		}

		box := entities.BoxCode(units.CanonicalCode(entities.Cell(row, boxIdx)))
		components, ok := bom.Components(box)
		if !ok {
			r.log.WithFields(fields).WithField("box_code", string(box)).Warn("box not found in BOM, no requirement recorded")
			continue
		}
		for _, component := range components {
			schedule.Add(date, component.ItemCode, planned.Mul(component.QtyPerBox))
		}
	}

	r.log.WithField("dates", len(schedule)).Info("read consumption schedule")
	return schedule, nil
}
