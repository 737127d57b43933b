// Package erp reads stock balances, work in progress and item master data from
// the ERP database.
//
// The SQL comes from configuration. Each query must alias its result columns:
//
//	inventory: cookie_code, qty, warehouse_code, unit
//	wip:       cookie_code, mo_number_type, mo_number, wip_qty, unit
//	item_info: cookie_code, cookie_name, raw_weight, cooked_weight
//	receipt:   receipt_date, cookie_code, cookie_name, spec, unit, receipt_qty
//
// Missing optional columns read as empty strings.
package erp

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bakery-forecast/pkg/domain/dates"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/config"
)

// DefaultUnit is reported when a query leaves the unit column empty
const DefaultUnit = "片"

// InventoryBalance is the on-hand quantity of an item at one warehouse
type InventoryBalance struct {
	ItemCode string
	Qty      decimal.Decimal
	Location string
	Unit     string
}

// WIPBalance is the in-progress quantity of one manufacturing order
type WIPBalance struct {
	ItemCode    string
	OrderType   string
	OrderNumber string
	Qty         decimal.Decimal
	Unit        string
}

// ItemInfo is the master data of an item
type ItemInfo struct {
	Code         string
	Name         string
	RawWeight    string
	CookedWeight string
}

// Receipt is one completed-production receipt line
type Receipt struct {
	Date     time.Time
	ItemCode string
	Name     string
	Spec     string
	Unit     string
	Qty      decimal.Decimal
}

// Client runs the configured extracts against an ERP connection
type Client struct {
	db      *sql.DB
	queries config.ERPQueries
}

// NewClient wraps an open database
func NewClient(db *sql.DB, queries config.ERPQueries) *Client {
	return &Client{db: db, queries: queries}
}

// Open connects to the ERP database using a registered driver and checks the connection
func Open(ctx context.Context, cfg config.ERPConfig) (*Client, error) {
	if cfg.Driver == "" {
		return nil, fmt.Errorf("erp driver is not configured")
	}
	if err := checkDSN(cfg.Driver, cfg.DSN); err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("unable to open erp database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to ping erp database: %w", err)
	}
	return NewClient(db, cfg.Queries), nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.db.Close()
}

// InventoryBalances returns on-hand stock per item and warehouse
func (c *Client) InventoryBalances(ctx context.Context) ([]InventoryBalance, error) {
	records, err := c.query(ctx, "inventory", c.queries.Inventory)
	if err != nil {
		return nil, err
	}

	balances := make([]InventoryBalance, 0, len(records))
	for i, r := range records {
		qty, err := parseDecimal(r["qty"])
		if err != nil {
			return nil, fmt.Errorf("inventory row %d: %w", i+1, err)
		}
		balances = append(balances, InventoryBalance{
			ItemCode: r["cookie_code"],
			Qty:      qty,
			Location: r["warehouse_code"],
			Unit:     unitOrDefault(r["unit"]),
		})
	}
	return balances, nil
}

// WorkInProgress returns the open manufacturing orders
func (c *Client) WorkInProgress(ctx context.Context) ([]WIPBalance, error) {
	records, err := c.query(ctx, "wip", c.queries.WIP)
	if err != nil {
		return nil, err
	}

	balances := make([]WIPBalance, 0, len(records))
	for i, r := range records {
		qty, err := parseDecimal(r["wip_qty"])
		if err != nil {
			return nil, fmt.Errorf("wip row %d: %w", i+1, err)
		}
		balances = append(balances, WIPBalance{
			ItemCode:    r["cookie_code"],
			OrderType:   r["mo_number_type"],
			OrderNumber: r["mo_number"],
			Qty:         qty,
			Unit:        unitOrDefault(r["unit"]),
		})
	}
	return balances, nil
}

// ItemInfo returns master data keyed by item code. When codes is non-empty only
// those codes are returned.
func (c *Client) ItemInfo(ctx context.Context, codes []string) (map[string]ItemInfo, error) {
	records, err := c.query(ctx, "item_info", c.queries.ItemInfo)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(codes))
	for _, code := range codes {
		wanted[strings.TrimSpace(code)] = true
	}

	info := make(map[string]ItemInfo, len(records))
	for _, r := range records {
		code := r["cookie_code"]
		if code == "" || (len(wanted) > 0 && !wanted[code]) {
			continue
		}
		info[code] = ItemInfo{
			Code:         code,
			Name:         r["cookie_name"],
			RawWeight:    r["raw_weight"],
			CookedWeight: r["cooked_weight"],
		}
	}
	return info, nil
}

// Receipts returns completed-production receipt lines dated on or after since.
// The query may already restrict the period; lines before since are dropped either way.
func (c *Client) Receipts(ctx context.Context, since time.Time) ([]Receipt, error) {
	records, err := c.query(ctx, "receipt", c.queries.Receipt)
	if err != nil {
		return nil, err
	}

	since = dates.Normalize(since)
	receipts := make([]Receipt, 0, len(records))
	for i, r := range records {
		day, err := parseReceiptDate(r["receipt_date"])
		if err != nil {
			return nil, fmt.Errorf("receipt row %d: %w", i+1, err)
		}
		if day.Before(since) {
			continue
		}
		qty, err := parseDecimal(r["receipt_qty"])
		if err != nil {
			return nil, fmt.Errorf("receipt row %d: %w", i+1, err)
		}
		receipts = append(receipts, Receipt{
			Date:     day,
			ItemCode: r["cookie_code"],
			Name:     r["cookie_name"],
			Spec:     r["spec"],
			Unit:     r["unit"],
			Qty:      qty,
		})
	}
	return receipts, nil
}

// parseReceiptDate accepts the ERP's compact YYYYMMDD form as well as delimited dates
func parseReceiptDate(s string) (time.Time, error) {
	if len(s) == 8 {
		if t, err := time.Parse("20060102", s); err == nil {
			return dates.Normalize(t), nil
		}
	}
	t, err := dates.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid receipt date %q", s)
	}
	return t, nil
}

// query runs a statement and returns each row keyed by lower-cased column name with trimmed values
func (c *Client) query(ctx context.Context, name, statement string) ([]map[string]string, error) {
	if strings.TrimSpace(statement) == "" {
		return nil, fmt.Errorf("erp query %q is not configured", name)
	}

	rows, err := c.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("erp query %q failed: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []map[string]string
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("erp query %q: %w", name, err)
		}

		record := make(map[string]string, len(columns))
		for i, col := range columns {
			record[strings.ToLower(col)] = strings.TrimSpace(values[i].String)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erp query %q: %w", name, err)
	}
	return records, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity %q", s)
	}
	return d, nil
}

func unitOrDefault(unit string) string {
	if unit == "" {
		return DefaultUnit
	}
	return unit
}
