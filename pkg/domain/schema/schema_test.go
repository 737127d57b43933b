package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
)

func TestColumnsResolveCanonicalHeaders(t *testing.T) {
	testCases := []struct {
		name     string
		schema   Schema
		column   entities.Column
		expected int
	}{
		{"inventory qty", Inventory, InventoryQty, 1},
		{"inventory location", Inventory, InventoryLocation, 2},
		{"wip qty", WIP, WIPQty, 3},
		{"bom qty", BOM, BOMQty, 2},
		{"production pieces", Production, ProductionPieces, 5},
		{"production completion", Production, ProductionCompletion, 6},
		{"assembly box", Assembly, AssemblyBox, 1},
		{"index name", Index, IndexName, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.column.Index(tc.schema.NewTable()))
		})
	}
}

func TestColumnsResolveLegacyHeaders(t *testing.T) {
	legacy := entities.NewTable("日期", "產線代號", "餅乾代號", "名稱", "生產顆數", "建議生產數量_片")
	assert.Equal(t, 5, ProductionPieces.Index(legacy))
	assert.Equal(t, 2, ProductionCode.Index(legacy))
	assert.Equal(t, -1, ProductionCompletion.Index(legacy))

	unlabeled := entities.NewTable("a", "b", "c", "d")
	assert.Equal(t, 3, ProductionPieces.Index(unlabeled))
	assert.Equal(t, 2, InventoryQty.Index(unlabeled))
}

func TestSchemaMatches(t *testing.T) {
	assert.True(t, BOM.Matches([]string{"box_code", "item_code", "qty_per_box", "note"}))
	assert.False(t, BOM.Matches([]string{"box_code", "item_code", "qty_per_box"}))
	assert.False(t, BOM.Matches([]string{"禮盒代號", "餅乾代號", "每盒片數", "備註"}))
}

func TestSchemaLocates(t *testing.T) {
	assert.True(t, BOM.Locates([]string{"禮盒代號", "餅乾代號", "每盒片數", "備註"}))
	assert.True(t, BOM.Locates([]string{"note", "qty_per_box", "item_code", "box_code"}))
	assert.False(t, BOM.Locates([]string{"禮盒代號", "餅乾代號", "每盒片數"}))

	assert.True(t, Detail.Locates(Detail.Header))
	assert.False(t, Detail.Locates([]string{"date", "item_code"}))
}

func TestSchemaColumnsFollowHeader(t *testing.T) {
	for _, s := range []Schema{Inventory, WIP, BOM, Production, Assembly, Index, Receipt} {
		assert.Len(t, s.Columns, len(s.Header))
		table := s.NewTable()
		for i, col := range s.Columns {
			assert.Equal(t, i, col.Index(table), "column %s", s.Header[i])
		}
	}
}
