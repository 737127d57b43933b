// Package storetest holds the behavior every TableStore backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
	"github.com/vsinha/bakery-forecast/pkg/domain/repositories"
)

// Run exercises a backend. newStore must return an empty store for each call.
func Run(t *testing.T, newStore func(t *testing.T) repositories.TableStore) {
	t.Run("missing table", func(t *testing.T) {
		store := newStore(t)
		_, err := store.ReadTable(context.Background(), "nope")
		assert.ErrorIs(t, err, repositories.ErrTableNotFound)
	})

	t.Run("write then read", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		table := entities.NewTable("item_code", "item_name", "qty")
		table.Append("12345C", "奶油曲奇", "1,250")
		table.Append("67890C", "", "-3.5")
		require.NoError(t, store.WriteTable(ctx, "inventory", table))

		got, err := store.ReadTable(ctx, "inventory")
		require.NoError(t, err)
		assert.Equal(t, table.Header, got.Header)
		require.Len(t, got.Rows, 2)
		assert.Equal(t, "12345C", entities.Cell(got.Rows[0], 0))
		assert.Equal(t, "奶油曲奇", entities.Cell(got.Rows[0], 1))
		assert.Equal(t, "1,250", entities.Cell(got.Rows[0], 2))
		assert.Equal(t, "", entities.Cell(got.Rows[1], 1))
		assert.Equal(t, "-3.5", entities.Cell(got.Rows[1], 2))
	})

	t.Run("write replaces", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		first := entities.NewTable("a", "b")
		first.Append("1", "2")
		first.Append("3", "4")
		require.NoError(t, store.WriteTable(ctx, "t", first))

		second := entities.NewTable("x")
		second.Append("9")
		require.NoError(t, store.WriteTable(ctx, "t", second))

		got, err := store.ReadTable(ctx, "t")
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, got.Header)
		require.Len(t, got.Rows, 1)
		assert.Equal(t, "9", entities.Cell(got.Rows[0], 0))
	})

	t.Run("header only", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.WriteTable(ctx, "empty", entities.NewTable("date", "box_code")))
		got, err := store.ReadTable(ctx, "empty")
		require.NoError(t, err)
		assert.Equal(t, []string{"date", "box_code"}, got.Header)
		assert.Empty(t, got.Rows)
	})

	t.Run("list tables", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		for _, name := range []string{"bom", "assembly", "index"} {
			require.NoError(t, store.WriteTable(ctx, name, entities.NewTable("c")))
		}
		names, err := store.ListTables(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"assembly", "bom", "index"}, names)
	})
}
