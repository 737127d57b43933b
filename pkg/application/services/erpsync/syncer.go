// Package erpsync refreshes the inventory, work-in-progress, item reference and
// completed-receipt tables from the ERP. Inventory and work in progress are limited to
// finished items listed in the reference table.
package erpsync

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// StampLayout formats the last-update column
const StampLayout = "2006-01-02 15:04:05"

// ErrNothingToSync is returned when the reference table or the ERP yields no rows to write
var ErrNothingToSync = errors.New("nothing to sync")

// Source is the ERP extract used by the syncer
type Source interface {
	InventoryBalances(ctx context.Context) ([]erp.InventoryBalance, error)
	WorkInProgress(ctx context.Context) ([]erp.WIPBalance, error)
	ItemInfo(ctx context.Context, codes []string) (map[string]erp.ItemInfo, error)
	Receipts(ctx context.Context, since time.Time) ([]erp.Receipt, error)
}

var _ Source = (*erp.Client)(nil)

// Tables names the synced tables
type Tables struct {
	Inventory string
	WIP       string
	Index     string
	Receipt   string
}

// Syncer copies ERP extracts into the table store
type Syncer struct {
	store  repositories.TableStore
	source Source
	tables Tables
	index  *reconcile.Reconciler
	clock  dates.Clock
	log    logrus.FieldLogger
}

// NewSyncer creates a syncer. A nil clock uses the system clock.
func NewSyncer(store repositories.TableStore, source Source, tables Tables, clock dates.Clock, log logrus.FieldLogger) *Syncer {
	if clock == nil {
		clock = dates.SystemClock{}
	}
	return &Syncer{
		store:  store,
		source: source,
		tables: tables,
		index:  reconcile.NewReconciler(store, reconcile.Options{Tables: reconcile.Tables{Index: tables.Index}}, log),
		clock:  clock,
		log:    log,
	}
}

func (s *Syncer) finishedCodes(ctx context.Context) (map[string]bool, error) {
	items, err := s.index.ReadItemIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read item reference: %w", err)
	}
	codes := reconcile.FinishedItemCodes(items)
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: no finished items in %s", ErrNothingToSync, s.tables.Index)
	}
	return codes, nil
}

// readExisting returns nil when the table does not exist yet
func (s *Syncer) readExisting(ctx context.Context, name string) (*entities.Table, error) {
	table, err := s.store.ReadTable(ctx, name)
	if errors.Is(err, repositories.ErrTableNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return table, nil
}

func (s *Syncer) write(ctx context.Context, name string, kt *keyedTable, summary *dto.SyncSummary) error {
	if err := s.store.WriteTable(ctx, name, kt.table()); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	s.log.WithFields(logrus.Fields{
		"table":   name,
		"updated": summary.Updated,
		"added":   summary.Added,
		"skipped": summary.Skipped,
	}).Info("synced table from erp")
	return nil
}

// SyncInventory upserts on-hand balances keyed by item code and location.
// Existing rows the ERP no longer reports are kept.
func (s *Syncer) SyncInventory(ctx context.Context) (*dto.SyncSummary, error) {
	name := s.tables.Inventory
	summary := &dto.SyncSummary{Table: name}

	codes, err := s.finishedCodes(ctx)
	if err != nil {
		return summary, err
	}
	balances, err := s.source.InventoryBalances(ctx)
	if err != nil {
		return summary, err
	}

	existing, err := s.readExisting(ctx, name)
	if err != nil {
		return summary, err
	}
	kt := newKeyedTable(existing, schema.Inventory, func(r []string) string { return joinKey(r[0], r[2]) })

	stamp := s.clock.Now().Format(StampLayout)
	synced := 0
	for _, b := range balances {
		code := units.CanonicalCode(b.ItemCode)
		if !codes[code] {
			summary.Skipped++
			continue
		}
		synced++
		if kt.upsert([]string{code, b.Qty.String(), b.Location, b.Unit, stamp}) {
			summary.Updated++
		} else {
			summary.Added++
		}
	}
	if synced == 0 {
		return summary, fmt.Errorf("%w: no erp balances for items in %s", ErrNothingToSync, s.tables.Index)
	}

	return summary, s.write(ctx, name, kt, summary)
}

// SyncWIP upserts open manufacturing orders keyed by item code, order type and order
// number, then sorts the table by that key
func (s *Syncer) SyncWIP(ctx context.Context) (*dto.SyncSummary, error) {
	name := s.tables.WIP
	summary := &dto.SyncSummary{Table: name}
	if name == "" {
		return summary, fmt.Errorf("%w: no work-in-progress table configured", ErrNothingToSync)
	}

	codes, err := s.finishedCodes(ctx)
	if err != nil {
		return summary, err
	}
	orders, err := s.source.WorkInProgress(ctx)
	if err != nil {
		return summary, err
	}

	existing, err := s.readExisting(ctx, name)
	if err != nil {
		return summary, err
	}
	kt := newKeyedTable(existing, schema.WIP, func(r []string) string { return joinKey(r[0], r[1], r[2]) })

	stamp := s.clock.Now().Format(StampLayout)
	synced := 0
	for _, o := range orders {
		code := units.CanonicalCode(o.ItemCode)
		if !codes[code] {
			summary.Skipped++
			continue
		}
		synced++
		if kt.upsert([]string{code, o.OrderType, o.OrderNumber, o.Qty.String(), o.Unit, stamp}) {
			summary.Updated++
		} else {
			summary.Added++
		}
	}
	if synced == 0 {
		return summary, fmt.Errorf("%w: no erp orders for items in %s", ErrNothingToSync, s.tables.Index)
	}

	kt.sortBy(func(a, b []string) bool {
		for i := 0; i < 3; i++ {
			if a[i] != b[i] {
				return a[i] < b[i]
			}
		}
		return false
	})
	return summary, s.write(ctx, name, kt, summary)
}

// SyncIndex refreshes names and weights of every coded reference row. Rows the ERP
// does not know are kept unchanged.
func (s *Syncer) SyncIndex(ctx context.Context) (*dto.SyncSummary, error) {
	name := s.tables.Index
	summary := &dto.SyncSummary{Table: name}

	existing, err := s.store.ReadTable(ctx, name)
	if err != nil {
		return summary, fmt.Errorf("failed to read %s: %w", name, err)
	}
	kt := newKeyedTable(existing, schema.Index, func(r []string) string { return joinKey(r[1]) })

	var codes []string
	for _, record := range kt.records {
		if record[1] != "" {
			codes = append(codes, record[1])
		}
	}
	if len(codes) == 0 {
		return summary, fmt.Errorf("%w: no codes in %s", ErrNothingToSync, name)
	}

	info, err := s.source.ItemInfo(ctx, codes)
	if err != nil {
		return summary, err
	}
	if len(info) == 0 {
		return summary, fmt.Errorf("%w: erp returned no item info", ErrNothingToSync)
	}

	for _, record := range kt.records {
		item, ok := info[record[1]]
		if !ok {
			if record[1] != "" {
				summary.Skipped++
			}
			continue
		}
		record[2] = item.Name
		record[3] = positiveOrBlank(item.RawWeight)
		record[4] = positiveOrBlank(item.CookedWeight)
		summary.Updated++
	}

	return summary, s.write(ctx, name, kt, summary)
}

func positiveOrBlank(weight string) string {
	d, err := decimal.NewFromString(weight)
	if err != nil || !d.IsPositive() {
		return ""
	}
	return d.String()
}

// SyncReceipts upserts completed-production receipts from the last daysBack days,
// keyed by receipt date and item code. ERP lines for the same day and item are summed.
// The table is ordered newest day first, then by item code.
func (s *Syncer) SyncReceipts(ctx context.Context, daysBack int) (*dto.SyncSummary, error) {
	name := s.tables.Receipt
	summary := &dto.SyncSummary{Table: name}
	if name == "" {
		return summary, fmt.Errorf("%w: no receipt table configured", ErrNothingToSync)
	}
	if daysBack < 0 {
		return summary, fmt.Errorf("receipt window cannot be negative, got %d days", daysBack)
	}

	since := dates.AddDays(dates.Today(s.clock), -daysBack)
	receipts, err := s.source.Receipts(ctx, since)
	if err != nil {
		return summary, err
	}

	stamp := s.clock.Now().Format(StampLayout)
	merged := make(map[string][]string)
	totals := make(map[string]decimal.Decimal)
	var keys []string
	for _, r := range receipts {
		code := units.CanonicalCode(r.ItemCode)
		if code == "" {
			summary.Skipped++
			continue
		}
		day := dates.Format(r.Date)
		key := joinKey(code, day)
		if _, ok := merged[key]; !ok {
			merged[key] = []string{day, code, r.Name, "", r.Unit, r.Spec, stamp}
			keys = append(keys, key)
		}
		totals[key] = totals[key].Add(r.Qty)
	}
	if len(keys) == 0 {
		return summary, fmt.Errorf("%w: no erp receipts since %s", ErrNothingToSync, dates.Format(since))
	}

	existing, err := s.readExisting(ctx, name)
	if err != nil {
		return summary, err
	}
	kt := newKeyedTable(existing, schema.Receipt, func(r []string) string { return joinKey(r[1], receiptDay(r[0])) })

	for _, key := range keys {
		record := merged[key]
		record[3] = totals[key].String()
		if kt.upsert(record) {
			summary.Updated++
		} else {
			summary.Added++
		}
	}

	kt.sortBy(func(a, b []string) bool {
		if da, db := receiptDay(a[0]), receiptDay(b[0]); da != db {
			return da > db
		}
		return a[1] < b[1]
	})
	return summary, s.write(ctx, name, kt, summary)
}

// receiptDay renders a stored receipt date as YYYY/MM/DD so keys and ordering ignore
// padding differences. Unparsable text is returned unchanged.
func receiptDay(raw string) string {
	day, err := dates.Parse(raw)
	if err != nil {
		return raw
	}
	return dates.Format(day)
}
