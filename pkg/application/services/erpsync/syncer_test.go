package erpsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/bakery-forecast/pkg/domain/dates"
	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
	"github.com/vsinha/bakery-forecast/pkg/domain/schema"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/erp"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/vsinha/bakery-forecast/pkg/infrastructure/testing"
)

const stamp = "2026-01-05 07:30:00"

type fakeSource struct {
	balances []erp.InventoryBalance
	orders   []erp.WIPBalance
	info     map[string]erp.ItemInfo
	receipts []erp.Receipt
	err      error
	asked    []string
	since    time.Time
}

func (f *fakeSource) InventoryBalances(context.Context) ([]erp.InventoryBalance, error) {
	return f.balances, f.err
}

func (f *fakeSource) WorkInProgress(context.Context) ([]erp.WIPBalance, error) {
	return f.orders, f.err
}

func (f *fakeSource) ItemInfo(_ context.Context, codes []string) (map[string]erp.ItemInfo, error) {
	f.asked = codes
	return f.info, f.err
}

func (f *fakeSource) Receipts(_ context.Context, since time.Time) ([]erp.Receipt, error) {
	f.since = since
	return f.receipts, f.err
}

func newScenarioSyncer(store *memory.TableStore, source Source) *Syncer {
	log, _ := test.NewNullLogger()
	clock := dates.FixedClock(time.Date(2026, 1, 5, 7, 30, 0, 0, time.UTC))
	return NewSyncer(store, source, Tables{
		Inventory: testhelpers.InventoryTable,
		WIP:       testhelpers.WIPTable,
		Index:     testhelpers.IndexTable,
		Receipt:   testhelpers.ReceiptTable,
	}, clock, log)
}

func qty(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func TestSyncInventory(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.BuildBakeryTestStore()
	source := &fakeSource{balances: []erp.InventoryBalance{
		{ItemCode: "12345C", Qty: qty(120), Location: "SP40", Unit: "片"},
		{ItemCode: "12345C", Qty: qty(7), Location: "SP60", Unit: "片"},
		{ItemCode: "99999C", Qty: qty(5), Location: "SP40", Unit: "片"},
		{ItemCode: "67890c", Qty: qty(3), Location: "SP40", Unit: "片"},
	}}

	summary, err := newScenarioSyncer(store, source).SyncInventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 1, summary.Skipped)

	table, err := store.ReadTable(ctx, testhelpers.InventoryTable)
	require.NoError(t, err)
	assert.Equal(t, []string{"餅乾代號", "目前庫存數量", "庫別代號", "單位", "最後更新日期"}, table.Header)
	assert.Equal(t, [][]string{
		{"12345C", "120", "SP40", "片", stamp},
		{"12345C", "50", "SP50", "片", "2026-01-04 18:00:00"},
		{"12345D", "10", "SP40", "盒", "2026-01-04 18:00:00"},
		{"67890C", "3", "SP40", "片", stamp},
		{"12345C", "7", "SP60", "片", stamp},
	}, table.Rows)
}

func TestSyncInventory_CreatesMissingTable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTableStore()
	full := testhelpers.BuildBakeryTestStore()
	index, _ := full.ReadTable(ctx, testhelpers.IndexTable)
	require.NoError(t, store.WriteTable(ctx, testhelpers.IndexTable, index))

	source := &fakeSource{balances: []erp.InventoryBalance{
		{ItemCode: "12345C", Qty: decimal.RequireFromString("12.5"), Location: "SP40", Unit: "片"},
	}}

	summary, err := newScenarioSyncer(store, source).SyncInventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Added)

	table, err := store.ReadTable(ctx, testhelpers.InventoryTable)
	require.NoError(t, err)
	assert.Equal(t, schema.Inventory.Header, table.Header)
	assert.Equal(t, [][]string{{"12345C", "12.5", "SP40", "片", stamp}}, table.Rows)
}

func TestSyncInventory_NothingToSync(t *testing.T) {
	testCases := []struct {
		name     string
		balances []erp.InventoryBalance
		index    [][]string
	}{
		{
			name:     "no erp rows",
			balances: nil,
		},
		{
			name:     "all rows filtered",
			balances: []erp.InventoryBalance{{ItemCode: "99999C", Qty: qty(1), Location: "SP40"}},
		},
		{
			name:     "no finished items",
			balances: []erp.InventoryBalance{{ItemCode: "12345C", Qty: qty(1), Location: "SP40"}},
			index:    [][]string{{"類型", "代號", "名稱"}, {"禮盒", "BOX1", "綜合禮盒"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store := testhelpers.BuildBakeryTestStore()
			if tc.index != nil {
				store.LoadTable(testhelpers.IndexTable, tc.index)
			}
			before, _ := store.ReadTable(ctx, testhelpers.InventoryTable)

			_, err := newScenarioSyncer(store, &fakeSource{balances: tc.balances}).SyncInventory(ctx)
			assert.ErrorIs(t, err, ErrNothingToSync)

			after, _ := store.ReadTable(ctx, testhelpers.InventoryTable)
			assert.Equal(t, before, after)
		})
	}
}

func TestSyncInventory_SourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("connection reset")}

	_, err := newScenarioSyncer(testhelpers.BuildBakeryTestStore(), source).SyncInventory(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestSyncWIP(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.BuildBakeryTestStore()
	source := &fakeSource{orders: []erp.WIPBalance{
		{ItemCode: "67890C", OrderType: "5101", OrderNumber: "20260105001", Qty: qty(25), Unit: "片"},
		{ItemCode: "12345C", OrderType: "5101", OrderNumber: "20260105002", Qty: qty(60), Unit: "片"},
		{ItemCode: "55555C", OrderType: "5101", OrderNumber: "20260105003", Qty: qty(10), Unit: "片"},
	}}

	summary, err := newScenarioSyncer(store, source).SyncWIP(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 1, summary.Skipped)

	table, err := store.ReadTable(ctx, testhelpers.WIPTable)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"12345C", "5101", "20260105002", "60", "片", stamp},
		{"67890C", "5101", "20260105001", "25", "片", stamp},
	}, table.Rows)
}

func TestSyncWIP_NoTableConfigured(t *testing.T) {
	log, _ := test.NewNullLogger()
	syncer := NewSyncer(testhelpers.BuildBakeryTestStore(), &fakeSource{}, Tables{
		Inventory: testhelpers.InventoryTable,
		Index:     testhelpers.IndexTable,
	}, nil, log)

	_, err := syncer.SyncWIP(context.Background())
	assert.ErrorIs(t, err, ErrNothingToSync)
}

func TestSyncIndex(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.BuildBakeryTestStore()
	source := &fakeSource{info: map[string]erp.ItemInfo{
		"12345C": {Code: "12345C", Name: "奶油曲奇(新)", RawWeight: "13.0", CookedWeight: "0"},
		"67890C": {Code: "67890C", Name: "巧克力餅", RawWeight: "abc", CookedWeight: "9.5"},
	}}

	summary, err := newScenarioSyncer(store, source).SyncIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, []string{"12345C", "67890C", "BOX1", "L1"}, source.asked)

	table, err := store.ReadTable(ctx, testhelpers.IndexTable)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"餅乾", "12345C", "奶油曲奇(新)", "13", "", ""},
		{"餅乾", "67890C", "巧克力餅", "", "9.5", ""},
		{"禮盒", "BOX1", "綜合禮盒", "", "", ""},
		{"產線", "L1", "一號線", "", "", ""},
	}, table.Rows)
}

func TestSyncIndex_MissingTable(t *testing.T) {
	_, err := newScenarioSyncer(memory.NewTableStore(), &fakeSource{}).SyncIndex(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNothingToSync)
}

func TestSyncIndex_NoInfo(t *testing.T) {
	_, err := newScenarioSyncer(testhelpers.BuildBakeryTestStore(), &fakeSource{}).SyncIndex(context.Background())
	assert.ErrorIs(t, err, ErrNothingToSync)
}

func TestKeyedTable_RewritesUnlocatableHeader(t *testing.T) {
	existing := &entities.Table{
		Header: []string{"code", "amount"},
		Rows:   [][]string{{"12345C", "10"}, {"", ""}},
	}

	kt := newKeyedTable(existing, schema.Inventory, func(r []string) string { return joinKey(r[0], r[2]) })

	out := kt.table()
	assert.Equal(t, schema.Inventory.Header, out.Header)
	assert.Equal(t, [][]string{{"12345C", "", "", "", ""}}, out.Rows)
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSyncReceipts(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.BuildBakeryTestStore()
	existing := entities.NewTable("入庫日期", "餅乾代號", "品名", "驗收數量", "單位", "規格", "最後更新日期")
	existing.Append("2026/1/2", "12345C", "奶油曲奇", "80", "片", "12g", "2026-01-02 18:00:00")
	existing.Append("2025/12/20", "67890C", "巧克力餅", "30", "片", "", "2025-12-20 18:00:00")
	require.NoError(t, store.WriteTable(ctx, testhelpers.ReceiptTable, existing))

	source := &fakeSource{receipts: []erp.Receipt{
		{Date: utcDay(2026, 1, 2), ItemCode: "12345C", Name: "奶油曲奇", Spec: "12g", Unit: "片", Qty: qty(50)},
		{Date: utcDay(2026, 1, 4), ItemCode: "67890C", Name: "巧克力餅", Unit: "片", Qty: qty(40)},
		{Date: utcDay(2026, 1, 2), ItemCode: "12345c", Name: "奶油曲奇", Spec: "12g", Unit: "片", Qty: qty(25)},
		{Date: utcDay(2026, 1, 3), ItemCode: " ", Qty: qty(9)},
	}}

	summary, err := newScenarioSyncer(store, source).SyncReceipts(ctx, 5)
	require.NoError(t, err)
	assert.True(t, source.since.Equal(utcDay(2025, 12, 31)), "unexpected window start %v", source.since)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 1, summary.Skipped)

	table, err := store.ReadTable(ctx, testhelpers.ReceiptTable)
	require.NoError(t, err)
	assert.Equal(t, existing.Header, table.Header)
	assert.Equal(t, [][]string{
		{"2026/01/04", "67890C", "巧克力餅", "40", "片", "", stamp},
		{"2026/01/02", "12345C", "奶油曲奇", "75", "片", "12g", stamp},
		{"2025/12/20", "67890C", "巧克力餅", "30", "片", "", "2025-12-20 18:00:00"},
	}, table.Rows)
}

func TestSyncReceipts_CreatesMissingTable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTableStore()
	source := &fakeSource{receipts: []erp.Receipt{
		{Date: utcDay(2026, 1, 5), ItemCode: "12345C", Name: "奶油曲奇", Qty: decimal.RequireFromString("12.5")},
	}}

	summary, err := newScenarioSyncer(store, source).SyncReceipts(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Added)
	assert.True(t, source.since.Equal(utcDay(2026, 1, 5)))

	table, err := store.ReadTable(ctx, testhelpers.ReceiptTable)
	require.NoError(t, err)
	assert.Equal(t, schema.Receipt.Header, table.Header)
	assert.Equal(t, [][]string{{"2026/01/05", "12345C", "奶油曲奇", "12.5", "", "", stamp}}, table.Rows)
}

func TestSyncReceipts_Errors(t *testing.T) {
	ctx := context.Background()
	log, _ := test.NewNullLogger()

	_, err := newScenarioSyncer(memory.NewTableStore(), &fakeSource{}).SyncReceipts(ctx, 5)
	assert.ErrorIs(t, err, ErrNothingToSync)

	_, err = newScenarioSyncer(memory.NewTableStore(), &fakeSource{}).SyncReceipts(ctx, -1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNothingToSync)

	boom := errors.New("erp offline")
	_, err = newScenarioSyncer(memory.NewTableStore(), &fakeSource{err: boom}).SyncReceipts(ctx, 5)
	assert.ErrorIs(t, err, boom)

	unconfigured := NewSyncer(memory.NewTableStore(), &fakeSource{}, Tables{Index: testhelpers.IndexTable}, nil, log)
	_, err = unconfigured.SyncReceipts(ctx, 5)
	assert.ErrorIs(t, err, ErrNothingToSync)
}
