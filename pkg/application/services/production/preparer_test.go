package production

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/bakery-forecast/pkg/domain/schema"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/erp"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/vsinha/bakery-forecast/pkg/infrastructure/testing"
)

type fakeNames struct {
	info map[string]erp.ItemInfo
	err  error
}

func (f fakeNames) ItemInfo(context.Context, []string) (map[string]erp.ItemInfo, error) {
	return f.info, f.err
}

func scenarioStore() *memory.TableStore {
	store := testhelpers.BuildBakeryTestStore()
	store.LoadTable(testhelpers.ProductionTable, [][]string{
		{"日期", "產線代號", "餅乾代號", "名稱", "生產顆數", "生產片數", "預計完成日期", "狀態", "備註"},
		{"2026/01/05", "L1", "12345C", "", "10", "", "", "", "first"},
		{"2026/01/06", "L1", "67890C", "old", "1", "5", "2026/01/09", "done", ""},
		{"2026/01/06", "L1", "99999C", "keep", "3", "77", "", "", ""},
		{"", "", "", "", "", "", "", "", ""},
		{"bad", "L1", "12345C", "", "x", "", "", "", ""},
	})
	return store
}

func newScenarioPreparer(store *memory.TableStore, names NameSource) *Preparer {
	log, _ := test.NewNullLogger()
	return NewPreparer(store, names, Options{
		Production:            testhelpers.ProductionTable,
		Index:                 testhelpers.IndexTable,
		DefaultCompletionDays: 2,
		DoughPerBatchGrams:    decimal.NewFromInt(160000),
		YieldRate:             decimal.RequireFromString("0.95"),
	}, log)
}

func TestPieces(t *testing.T) {
	p := newScenarioPreparer(memory.NewTableStore(), nil)

	testCases := []struct {
		balls, weight, expected string
	}{
		{"10", "12.5", "121600"},
		{"1", "10", "15200"},
		{"1", "13", "11692.31"},
		{"2.5", "12", "31666.67"},
	}

	for _, tc := range testCases {
		got := p.Pieces(decimal.RequireFromString(tc.balls), decimal.RequireFromString(tc.weight))
		assert.Equal(t, tc.expected, got.String(), "balls=%s weight=%s", tc.balls, tc.weight)
	}
}

func TestPrepare(t *testing.T) {
	ctx := context.Background()
	store := scenarioStore()

	summary, err := newScenarioPreparer(store, nil).Prepare(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Rows)
	assert.Equal(t, 2, summary.PiecesComputed)
	assert.Equal(t, 3, summary.NamesFilled)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Errors)

	table, err := store.ReadTable(ctx, testhelpers.ProductionTable)
	require.NoError(t, err)
	assert.Equal(t, schema.Production.Header, table.Header)
	assert.Equal(t, [][]string{
		{"2026/01/05", "L1", "12345C", "奶油曲奇", "10", "121600", "2026/01/07", "", "first"},
		{"2026/01/06", "L1", "67890C", "巧克力餅", "1", "15200", "2026/01/09", "done", ""},
		{"2026/01/06", "L1", "99999C", "keep", "3", "77", "2026/01/08", "", ""},
		{"bad", "L1", "12345C", "奶油曲奇", "x", "", "", "", ""},
	}, table.Rows)
}

func TestPrepare_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := scenarioStore()
	preparer := newScenarioPreparer(store, nil)

	_, err := preparer.Prepare(ctx)
	require.NoError(t, err)
	first, _ := store.ReadTable(ctx, testhelpers.ProductionTable)

	_, err = preparer.Prepare(ctx)
	require.NoError(t, err)
	second, _ := store.ReadTable(ctx, testhelpers.ProductionTable)

	assert.Equal(t, first, second)
}

func TestPrepare_ERPNames(t *testing.T) {
	ctx := context.Background()
	store := scenarioStore()
	names := fakeNames{info: map[string]erp.ItemInfo{"12345C": {Code: "12345C", Name: "ERP 奶油"}}}

	summary, err := newScenarioPreparer(store, names).Prepare(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.NamesFilled)

	table, _ := store.ReadTable(ctx, testhelpers.ProductionTable)
	assert.Equal(t, "ERP 奶油", table.Rows[0][3])
	assert.Equal(t, "old", table.Rows[1][3])
}

func TestPrepare_ERPFailureFallsBackToIndex(t *testing.T) {
	ctx := context.Background()
	store := scenarioStore()
	log, hook := test.NewNullLogger()
	preparer := NewPreparer(store, fakeNames{err: errors.New("timeout")}, Options{
		Production:         testhelpers.ProductionTable,
		Index:              testhelpers.IndexTable,
		DoughPerBatchGrams: decimal.NewFromInt(160000),
		YieldRate:          decimal.RequireFromString("0.95"),
	}, log)

	_, err := preparer.Prepare(ctx)
	require.NoError(t, err)

	table, _ := store.ReadTable(ctx, testhelpers.ProductionTable)
	assert.Equal(t, "巧克力餅", table.Rows[1][3])

	found := false
	for _, entry := range hook.AllEntries() {
		if entry.Message == "erp name lookup failed, using item reference names" {
			found = true
		}
	}
	assert.True(t, found, "expected a warning for the failed lookup")
}

func TestPrepare_MissingColumns(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.BuildBakeryTestStore()
	store.LoadTable(testhelpers.ProductionTable, [][]string{
		{"日期", "餅乾代號", "生產片數"},
		{"2026/01/05", "12345C", "10"},
	})

	_, err := newScenarioPreparer(store, nil).Prepare(ctx)
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "line_code")
	assert.Contains(t, err.Error(), "balls")
}

func TestPrepare_NoRawWeights(t *testing.T) {
	store := scenarioStore()
	store.LoadTable(testhelpers.IndexTable, [][]string{
		{"類型", "代號", "名稱", "生重", "熟重", "備註"},
		{"餅乾", "12345C", "奶油曲奇", "", "", ""},
	})

	_, err := newScenarioPreparer(store, nil).Prepare(context.Background())
	assert.ErrorIs(t, err, ErrNoRawWeights)
}
