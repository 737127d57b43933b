package testing

import (
	"time"

	"github.com/vsinha/bakery-forecast/pkg/infrastructure/repositories/memory"
)

// Table names used by the bakery scenario, matching the shared workbook
const (
	InventoryTable  = "庫存狀態"
	WIPTable        = "在製品庫存"
	BOMTable        = "BOM"
	ProductionTable = "生產排程"
	AssemblyTable   = "組裝計劃"
	IndexTable      = "Index"
	DetailTable     = "庫存預估明細"
	ShortageTable   = "負庫存警示"
	ReceiptTable    = "完工入庫"
)

// ScenarioToday is the run date the bakery scenario is built around
var ScenarioToday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

// BuildBakeryTestStore builds the bakery scenario with legacy sheet headers.
//
// Opening stock: 12345C = 100 + 50 + 10 boxes of 12345D (x2) = 170; 67890C = 0 on hand
// plus 40 in WIP. Production starts today (67890C, 40), on 01/03 (12345C, 100, lead time)
// and on 01/01 (12345C, 30, explicit completion 01/06). BOX1 holds 6 x 12345C and
// 2 x 67890D (4 x 67890C); 10 BOX1 are assembled on 01/05 and 5 on 01/06.
func BuildBakeryTestStore() *memory.TableStore {
	store := memory.NewTableStore()

	store.LoadTable(IndexTable, [][]string{
		{"類型", "代號", "名稱", "生重", "熟重", "備註"},
		{"餅乾", "12345C", "奶油曲奇", "12.5", "11", ""},
		{"餅乾", "67890C", "巧克力餅", "10", "9", ""},
		{"禮盒", "BOX1", "綜合禮盒", "", "", ""},
		{"產線", "L1", "一號線", "", "", ""},
	})

	store.LoadTable(InventoryTable, [][]string{
		{"餅乾代號", "目前庫存數量", "庫別代號", "單位", "最後更新日期"},
		{"12345C", "100", "SP40", "片", "2026-01-04 18:00:00"},
		{"12345C", "50", "SP50", "片", "2026-01-04 18:00:00"},
		{"12345D", "10", "SP40", "盒", "2026-01-04 18:00:00"},
		{"67890C", "0", "SP40", "片", "2026-01-04 18:00:00"},
	})

	store.LoadTable(WIPTable, [][]string{
		{"餅乾代號", "製令單別", "製令單號", "在製品數量", "單位", "最後更新日期"},
		{"67890C", "5101", "20260105001", "40", "片", "2026-01-05 08:00:00"},
	})

	store.LoadTable(BOMTable, [][]string{
		{"禮盒代號", "餅乾代號", "每盒片數", "備註"},
		{"BOX1", "12345C", "6", ""},
		{"BOX1", "67890D", "2", "two-piece packs"},
		{"BOX2", "12345C", "0", "retired"},
	})

	store.LoadTable(ProductionTable, [][]string{
		{"日期", "產線代號", "餅乾代號", "名稱", "生產顆數", "生產片數", "預計完成日期", "狀態", "備註"},
		{"2026/01/05", "L1", "67890C", "巧克力餅", "", "40", "", "", ""},
		{"2026/01/03", "L1", "12345C", "奶油曲奇", "", "100", "", "", ""},
		{"2026/01/01", "L1", "12345C", "奶油曲奇", "", "30", "2026/01/06", "", ""},
		{"someday", "L1", "12345C", "", "", "999", "", "", ""},
	})

	store.LoadTable(AssemblyTable, [][]string{
		{"日期", "禮盒代號", "計畫組裝數量"},
		{"2026/01/05", "BOX1", "10"},
		{"2026/1/6", "BOX1", "5"},
		{"2026/01/07", "BOX9", "3"},
	})

	return store
}
