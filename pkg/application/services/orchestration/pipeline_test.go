package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/vsinha/bakery-forecast/pkg/application/services/reconcile"
	"github.com/vsinha/bakery-forecast/pkg/domain/dates"
	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
	"github.com/vsinha/bakery-forecast/pkg/domain/repositories"
	"github.com/vsinha/bakery-forecast/pkg/domain/schema"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/config"
	"github.com/vsinha/bakery-forecast/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/vsinha/bakery-forecast/pkg/infrastructure/testing"
)

func scenarioConfig(withWIP bool) *config.Config {
	cfg := config.Default()
	if !withWIP {
		cfg.Tables.WIP = ""
	}
	return cfg
}

func runScenario(t *testing.T, store repositories.TableStore, cfg *config.Config) map[entities.ItemCode][]entities.ForecastRow {
	t.Helper()
	log, _ := test.NewNullLogger()

	pipeline, err := NewPipeline(store, cfg, dates.FixedClock(testhelpers.ScenarioToday), log)
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	summary, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !summary.Success {
		t.Fatal("Expected successful run")
	}
	if summary.RunID == "" {
		t.Error("Expected a run id")
	}

	detail, err := store.ReadTable(context.Background(), cfg.Tables.Detail)
	if err != nil {
		t.Fatalf("Failed to read detail table: %v", err)
	}
	if len(detail.Rows) != summary.DetailRows {
		t.Errorf("Expected %d detail rows, got %d", summary.DetailRows, len(detail.Rows))
	}

	rows := make(map[entities.ItemCode][]entities.ForecastRow)
	for _, record := range detail.Rows {
		date, err := dates.Parse(record[0])
		if err != nil {
			t.Fatalf("Bad date in detail row %v: %v", record, err)
		}
		row := entities.NewForecastRow(date, entities.ItemCode(record[1]), record[2],
			decimal.RequireFromString(record[3]), decimal.RequireFromString(record[5]), decimal.RequireFromString(record[4]))
		if row.Ending.String() != record[6] {
			t.Errorf("Row %v: ending does not match opening + incoming - required", record)
		}
		rows[row.ItemCode] = append(rows[row.ItemCode], row)
	}
	return rows
}

func endings(rows []entities.ForecastRow) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.Ending.String()
	}
	return out
}

func TestPipeline_Run_ExcludeTodayWithWIP(t *testing.T) {
	store := testhelpers.BuildBakeryTestStore()
	rows := runScenario(t, store, scenarioConfig(true))

	if len(rows) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(rows))
	}

	butter := rows["12345C"]
	if len(butter) != 14 {
		t.Fatalf("Expected 14 days for 12345C, got %d", len(butter))
	}
	// 170 - 60, +30 -30, flat, +100 on 01/08
	expected := []string{"110", "110", "110", "210"}
	for i, want := range expected {
		if butter[i].Ending.String() != want {
			t.Errorf("12345C day %d: expected ending %s, got %s", i, want, butter[i].Ending)
		}
	}
	if butter[0].ItemName != "奶油曲奇" {
		t.Errorf("Expected name 奶油曲奇, got %q", butter[0].ItemName)
	}

	chocolate := rows["67890C"]
	if !chocolate[0].Opening.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Expected 67890C opening 40 from WIP, got %s", chocolate[0].Opening)
	}
	if got := endings(chocolate); got[0] != "0" || got[1] != "-20" || got[13] != "-20" {
		t.Errorf("Unexpected 67890C endings: %v", got)
	}

	shortage, err := store.ReadTable(context.Background(), testhelpers.ShortageTable)
	if err != nil {
		t.Fatalf("Failed to read shortage table: %v", err)
	}
	if len(shortage.Rows) != 13 {
		t.Errorf("Expected 13 shortage rows, got %d", len(shortage.Rows))
	}
	if !schema.Shortage.Matches(shortage.Header) {
		t.Errorf("Unexpected shortage header: %v", shortage.Header)
	}
}

func TestPipeline_Run_TrailingWindowWithoutWIP(t *testing.T) {
	store := testhelpers.BuildBakeryTestStore()
	rows := runScenario(t, store, scenarioConfig(false))

	chocolate := rows["67890C"]
	if !chocolate[0].Opening.IsZero() {
		t.Errorf("Expected 67890C opening 0 without WIP, got %s", chocolate[0].Opening)
	}
	// The batch started today completes after the lead time instead
	if !chocolate[5].Incoming.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Expected 40 incoming on 01/10, got %s", chocolate[5].Incoming)
	}
	if got := endings(chocolate); got[0] != "-40" || got[4] != "-60" || got[5] != "-20" {
		t.Errorf("Unexpected 67890C endings: %v", got)
	}
}

func TestPipeline_Run_BatchCountedOnce(t *testing.T) {
	policies := []bool{true, false}
	for _, withWIP := range policies {
		rows := runScenario(t, testhelpers.BuildBakeryTestStore(), scenarioConfig(withWIP))

		chocolate := rows["67890C"]
		supplied := chocolate[0].Opening
		for _, row := range chocolate {
			supplied = supplied.Add(row.Incoming)
		}
		if !supplied.Equal(decimal.NewFromInt(40)) {
			t.Errorf("WIP=%v: expected 67890C opening plus incoming of 40, got %s", withWIP, supplied)
		}
	}
}

func TestPipeline_Run_Idempotent(t *testing.T) {
	store := testhelpers.BuildBakeryTestStore()
	cfg := scenarioConfig(true)

	runScenario(t, store, cfg)
	first, _ := store.ReadTable(context.Background(), cfg.Tables.Detail)
	runScenario(t, store, cfg)
	second, _ := store.ReadTable(context.Background(), cfg.Tables.Detail)

	if len(first.Rows) != len(second.Rows) {
		t.Fatalf("Expected %d rows after rerun, got %d", len(first.Rows), len(second.Rows))
	}
	for i := range first.Rows {
		for j := range first.Rows[i] {
			if first.Rows[i][j] != second.Rows[i][j] {
				t.Errorf("Row %d differs after rerun: %v vs %v", i, first.Rows[i], second.Rows[i])
				break
			}
		}
	}
}

func TestPipeline_Run_MissingSourceWritesNothing(t *testing.T) {
	store := memory.NewTableStore()
	full := testhelpers.BuildBakeryTestStore()
	ctx := context.Background()
	for _, name := range []string{testhelpers.InventoryTable, testhelpers.WIPTable, testhelpers.BOMTable, testhelpers.IndexTable} {
		table, _ := full.ReadTable(ctx, name)
		_ = store.WriteTable(ctx, name, table)
	}

	log, _ := test.NewNullLogger()
	pipeline, err := NewPipeline(store, scenarioConfig(true), dates.FixedClock(testhelpers.ScenarioToday), log)
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	summary, err := pipeline.Run(ctx)
	if err == nil {
		t.Fatal("Expected error for missing production table")
	}
	if !errors.Is(err, reconcile.ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable, got %v", err)
	}
	if !errors.Is(err, repositories.ErrTableNotFound) {
		t.Errorf("Expected ErrTableNotFound in chain, got %v", err)
	}
	if summary.Success {
		t.Error("Expected unsuccessful summary")
	}

	if _, err := store.ReadTable(ctx, testhelpers.DetailTable); !errors.Is(err, repositories.ErrTableNotFound) {
		t.Errorf("Expected no detail table to be written, got %v", err)
	}
}

func TestPipeline_Run_SummaryUsesClock(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := scenarioConfig(true)
	cfg.Forecast.HorizonDays = 3

	pipeline, err := NewPipeline(testhelpers.BuildBakeryTestStore(), cfg, dates.FixedClock(testhelpers.ScenarioToday), log)
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}
	summary, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !summary.Today.Equal(testhelpers.ScenarioToday) {
		t.Errorf("Expected today %v, got %v", testhelpers.ScenarioToday, summary.Today)
	}
	if summary.ItemCount != 2 || summary.DetailRows != 6 {
		t.Errorf("Expected 2 items and 6 rows, got %d and %d", summary.ItemCount, summary.DetailRows)
	}
	if summary.Policy != entities.ExcludeToday.String() {
		t.Errorf("Expected policy exclude-today, got %s", summary.Policy)
	}
}

func TestNewPipeline_RejectsInvalidPolicy(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := scenarioConfig(true)
	cfg.Forecast.InclusionPolicy = "trailing-window"

	if _, err := NewPipeline(memory.NewTableStore(), cfg, nil, log); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
