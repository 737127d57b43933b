// Package production rewrites the production-batch table into the standard column
// order and fills the derived columns: item name, pieces from dough balls, and a
// default completion date.
package production

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/vsinha/bakery-forecast/pkg/application/dto"
	"github.com/vsinha/bakery-forecast/pkg/application/services/reconcile"
	"github.com/vsinha/bakery-forecast/pkg/domain/dates"
	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
	"github.com/vsinha/bakery-forecast/pkg/domain/repositories"
	"github.com/vsinha/bakery-forecast/pkg/domain/schema"
	"github.com/vsinha/bakery-forecast/pkg/domain/units"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/erp"
)

var (
	// ErrMissingColumns is returned when the production table lacks a required header
	ErrMissingColumns = errors.New("production table is missing required columns")
	// ErrNoRawWeights is returned when no finished item has a raw weight
	ErrNoRawWeights = errors.New("no raw weights in item reference")
)

// NameSource looks up item names in the ERP
type NameSource interface {
	ItemInfo(ctx context.Context, codes []string) (map[string]erp.ItemInfo, error)
}

// Options configures the pieces formula and the table names
type Options struct {
	Production            string
	Index                 string
	DefaultCompletionDays int
	DoughPerBatchGrams    decimal.Decimal
	YieldRate             decimal.Decimal
}

// Preparer rewrites the production table
type Preparer struct {
	store repositories.TableStore
	names NameSource
	index *reconcile.Reconciler
	opts  Options
	log   logrus.FieldLogger
}

// NewPreparer creates a preparer. names may be nil, in which case names come from
// the item reference table.
func NewPreparer(store repositories.TableStore, names NameSource, opts Options, log logrus.FieldLogger) *Preparer {
	return &Preparer{
		store: store,
		names: names,
		index: reconcile.NewReconciler(store, reconcile.Options{Tables: reconcile.Tables{Index: opts.Index}}, log),
		opts:  opts,
		log:   log,
	}
}

// Pieces converts dough balls to pieces for an item of the given raw weight in grams,
// rounded to two decimals
func (p *Preparer) Pieces(balls, rawWeight decimal.Decimal) decimal.Decimal {
	return balls.Mul(p.opts.DoughPerBatchGrams).Div(rawWeight).Mul(p.opts.YieldRate).Round(2)
}

type reference struct {
	rawWeights map[string]decimal.Decimal
	names      map[string]string
}

func (p *Preparer) readReference(ctx context.Context) (*reference, error) {
	items, err := p.index.ReadItemIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read item reference: %w", err)
	}

	ref := &reference{rawWeights: make(map[string]decimal.Decimal), names: make(map[string]string)}
	for _, item := range items {
		if item.Type != entities.FinishedItem {
			continue
		}
		code := string(item.Code)
		ref.names[code] = item.Name
		if weight, err := decimal.NewFromString(item.RawWeight); err == nil && weight.IsPositive() {
			ref.rawWeights[code] = weight
		}
	}
	if len(ref.rawWeights) == 0 {
		return nil, ErrNoRawWeights
	}
	return ref, nil
}

// lookupNames prefers ERP names and falls back to the reference table when the ERP is
// unavailable
func (p *Preparer) lookupNames(ctx context.Context, codes []string, ref *reference) map[string]string {
	if p.names == nil || len(codes) == 0 {
		return ref.names
	}
	info, err := p.names.ItemInfo(ctx, codes)
	if err != nil {
		p.log.WithError(err).Warn("erp name lookup failed, using item reference names")
		return ref.names
	}
	names := make(map[string]string, len(info))
	for code, item := range info {
		names[units.CanonicalCode(code)] = item.Name
	}
	return names
}

func requireColumns(table *entities.Table, cols ...entities.Column) error {
	var missing []string
	for _, col := range cols {
		if table.ColumnIndex(col.Names...) < 0 {
			missing = append(missing, col.Names[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

// Prepare rewrites the production table in one write
func (p *Preparer) Prepare(ctx context.Context) (*dto.PrepareSummary, error) {
	name := p.opts.Production
	summary := &dto.PrepareSummary{Table: name}

	ref, err := p.readReference(ctx)
	if err != nil {
		return summary, err
	}

	table, err := p.store.ReadTable(ctx, name)
	if err != nil {
		return summary, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := requireColumns(table, schema.ProductionStart, schema.ProductionLine, schema.ProductionCode, schema.ProductionBalls, schema.ProductionPieces); err != nil {
		return summary, err
	}

	cols := schema.Production.Columns
	idx := make([]int, len(cols))
	for i, col := range cols {
		idx[i] = col.Index(table)
	}

	var codes []string
	seen := make(map[string]bool)
	for _, row := range table.Rows {
		code := units.CanonicalCode(entities.Cell(row, idx[2]))
		if code != "" && !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	names := p.lookupNames(ctx, codes, ref)

	out := schema.Production.NewTable()
	for i, row := range table.Rows {
		record := make([]string, len(cols))
		empty := true
		for j := range cols {
			record[j] = entities.Cell(row, idx[j])
			if record[j] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		p.fill(record, names, ref, logrus.Fields{"table": name, "row": i + 2}, summary)
		out.Append(record...)
	}
	summary.Rows = len(out.Rows)

	if err := p.store.WriteTable(ctx, name, out); err != nil {
		return summary, fmt.Errorf("failed to write %s: %w", name, err)
	}
	p.log.WithFields(logrus.Fields{
		"table":   name,
		"rows":    summary.Rows,
		"pieces":  summary.PiecesComputed,
		"names":   summary.NamesFilled,
		"skipped": summary.Skipped,
		"errors":  summary.Errors,
	}).Info("prepared production plan")
	return summary, nil
}

// fill derives name, pieces and completion date of one record in standard column order
func (p *Preparer) fill(record []string, names map[string]string, ref *reference, fields logrus.Fields, summary *dto.PrepareSummary) {
	const (
		start = iota
		_
		code
		itemName
		balls
		pieces
		completion
	)

	itemCode := units.CanonicalCode(record[code])
	if n, ok := names[itemCode]; ok && itemCode != "" {
		record[itemName] = n
		summary.NamesFilled++
	}

	if record[completion] == "" && record[start] != "" {
		if startDate, err := dates.Parse(record[start]); err == nil {
			record[completion] = dates.Format(dates.AddDays(startDate, p.opts.DefaultCompletionDays))
		}
	}

	if itemCode == "" || record[balls] == "" {
		return
	}
	ballQty, err := units.ParseQuantity(record[balls])
	if err != nil {
		summary.Errors++
		p.log.WithFields(fields).WithField("value", record[balls]).Warn("unparsable ball count")
		return
	}
	if !ballQty.IsPositive() {
		return
	}
	weight, ok := ref.rawWeights[itemCode]
	if !ok {
		summary.Skipped++
		p.log.WithFields(fields).WithField("item_code", itemCode).Debug("no raw weight, keeping pieces")
		return
	}
	record[pieces] = p.Pieces(ballQty, weight).String()
	summary.PiecesComputed++
}
