// Package schema describes the columns of every table the forecast reads or writes.
//
// Each column is located by its canonical header, by a legacy alias of the shared
// sheets, or by its historical position when the header row carries neither.
package schema

import "github.com/vsinha/bakery-forecast/pkg/domain/entities"

// Schema groups the canonical header of a table with its column locators.
// Columns is in header order; output tables carry no locators.
type Schema struct {
	Header  []string
	Columns []entities.Column
}

func col(fallback int, names ...string) entities.Column {
	return entities.Column{Names: names, Fallback: fallback}
}

// Opening inventory: one row per item and warehouse location
var (
	Inventory = Schema{
		Header:  []string{"item_code", "qty", "location", "unit", "updated_at"},
		Columns: []entities.Column{InventoryCode, InventoryQty, InventoryLocation, InventoryUnit, InventoryUpdatedAt},
	}

	InventoryCode      = col(0, "item_code", "餅乾代號")
	InventoryQty       = col(2, "qty", "目前庫存數量")
	InventoryLocation  = col(-1, "location", "庫別代號")
	InventoryUnit      = col(-1, "unit", "單位")
	InventoryUpdatedAt = col(-1, "updated_at", "最後更新日期")
)

// Work in progress: one row per manufacturing order and item
var (
	WIP = Schema{
		Header:  []string{"item_code", "order_type", "order_number", "wip_qty", "unit", "updated_at"},
		Columns: []entities.Column{WIPCode, WIPOrderType, WIPOrderNumber, WIPQty, WIPUnit, WIPUpdatedAt},
	}

	WIPCode        = col(0, "item_code", "餅乾代號")
	WIPOrderType   = col(1, "order_type", "製令單別")
	WIPOrderNumber = col(2, "order_number", "製令單號")
	WIPQty         = col(4, "wip_qty", "在製品數量")
	WIPUnit        = col(-1, "unit", "單位")
	WIPUpdatedAt   = col(-1, "updated_at", "最後更新日期")
)

// Bill of materials: items per gift box
var (
	BOM = Schema{
		Header:  []string{"box_code", "item_code", "qty_per_box", "note"},
		Columns: []entities.Column{BOMBox, BOMItem, BOMQty, BOMNote},
	}

	BOMBox  = col(0, "box_code", "禮盒代號")
	BOMItem = col(1, "item_code", "餅乾代號")
	BOMQty  = col(2, "qty_per_box", "每盒片數")
	BOMNote = col(-1, "note", "備註")
)

// Production batches
var (
	Production = Schema{
		Header: []string{
			"start_date", "line_code", "item_code", "item_name", "balls", "pieces", "completion_date", "status", "note",
		},
		Columns: []entities.Column{
			ProductionStart, ProductionLine, ProductionCode, ProductionName, ProductionBalls,
			ProductionPieces, ProductionCompletion, ProductionStatus, ProductionNote,
		},
	}

	ProductionStart      = col(0, "start_date", "日期")
	ProductionLine       = col(1, "line_code", "產線代號")
	ProductionCode       = col(2, "item_code", "餅乾代號")
	ProductionName       = col(-1, "item_name", "名稱")
	ProductionBalls      = col(-1, "balls", "生產顆數")
	ProductionPieces     = col(3, "pieces", "生產片數", "建議生產數量_片")
	ProductionCompletion = col(-1, "completion_date", "預計完成日期")
	ProductionStatus     = col(-1, "status", "狀態")
	ProductionNote       = col(-1, "note", "備註")
)

// Assembly plan: gift boxes planned per day
var (
	Assembly = Schema{
		Header:  []string{"date", "box_code", "planned_boxes"},
		Columns: []entities.Column{AssemblyDate, AssemblyBox, AssemblyQty},
	}

	AssemblyDate = col(0, "date", "日期")
	AssemblyBox  = col(1, "box_code", "禮盒代號")
	AssemblyQty  = col(2, "planned_boxes", "計畫組裝數量")
)

// Item reference table
var (
	Index = Schema{
		Header:  []string{"type", "code", "name", "raw_weight", "cooked_weight", "note"},
		Columns: []entities.Column{IndexType, IndexCode, IndexName, IndexRawWeight, IndexCookedWeight, IndexNote},
	}

	IndexType         = col(0, "type", "類型")
	IndexCode         = col(1, "code", "代號")
	IndexName         = col(2, "name", "名稱")
	IndexRawWeight    = col(3, "raw_weight", "生重")
	IndexCookedWeight = col(4, "cooked_weight", "熟重")
	IndexNote         = col(5, "note", "備註")
)

// Completed production receipts: one row per receipt day and item
var (
	Receipt = Schema{
		Header:  []string{"receipt_date", "item_code", "item_name", "receipt_qty", "unit", "spec", "updated_at"},
		Columns: []entities.Column{ReceiptDate, ReceiptCode, ReceiptName, ReceiptQty, ReceiptUnit, ReceiptSpec, ReceiptUpdatedAt},
	}

	ReceiptDate      = col(0, "receipt_date", "入庫日期")
	ReceiptCode      = col(1, "item_code", "餅乾代號")
	ReceiptName      = col(2, "item_name", "品名")
	ReceiptQty       = col(3, "receipt_qty", "驗收數量")
	ReceiptUnit      = col(4, "unit", "單位")
	ReceiptSpec      = col(5, "spec", "規格")
	ReceiptUpdatedAt = col(6, "updated_at", "最後更新日期")
)

// Forecast outputs
var (
	Detail = Schema{Header: []string{
		"date", "item_code", "item_name", "opening_qty", "required_qty", "incoming_qty", "ending_qty", "shortage", "shortage_qty",
	}}

	Shortage = Schema{Header: []string{
		"date", "item_code", "item_name", "shortage_qty", "required_qty", "opening_qty", "incoming_qty",
	}}
)

// Matches reports whether a header row equals the canonical header exactly
func (s Schema) Matches(header []string) bool {
	if len(header) != len(s.Header) {
		return false
	}
	for i := range header {
		if header[i] != s.Header[i] {
			return false
		}
	}
	return true
}

// Locates reports whether every column can be found in the header by name.
// Schemas without locators require an exact match.
func (s Schema) Locates(header []string) bool {
	if len(s.Columns) == 0 {
		return s.Matches(header)
	}
	t := &entities.Table{Header: header}
	for _, col := range s.Columns {
		if t.ColumnIndex(col.Names...) < 0 {
			return false
		}
	}
	return true
}

// NewTable returns an empty table carrying the canonical header
func (s Schema) NewTable() *entities.Table {
	return entities.NewTable(s.Header...)
}
