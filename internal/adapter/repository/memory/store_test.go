package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneyney/moneyney-backend/internal/domain"
)

func TestStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	_, ok, err := store.Get(ctx, "moneyney-funds")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`[]`)
	require.NoError(t, store.Set(ctx, "moneyney-funds", value))
	value[0] = 'x'

	got, ok, err := store.Get(ctx, "moneyney-funds")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(got))

	got[0] = 'y'
	again, _, _ := store.Get(ctx, "moneyney-funds")
	assert.Equal(t, `[]`, string(again))

	require.NoError(t, store.Delete(ctx, "moneyney-funds"))
	require.NoError(t, store.Delete(ctx, "moneyney-funds"))
	_, ok, err = store.Get(ctx, "moneyney-funds")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_WriteBatch(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Set(ctx, "moneyney-last-update-date", []byte(`"2026-01-22"`)))

	value := []byte(`[]`)
	err := store.WriteBatch(ctx, []domain.SlotWrite{
		{Key: "moneyney-funds", Value: value},
		{Key: "moneyney-last-update-date"},
	})
	require.NoError(t, err)
	value[0] = 'x'

	got, ok, err := store.Get(ctx, "moneyney-funds")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(got))

	_, ok, err = store.Get(ctx, "moneyney-last-update-date")
	require.NoError(t, err)
	assert.False(t, ok)
}
