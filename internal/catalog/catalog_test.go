package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeded_ChestXRayAtPrimaryCenter(t *testing.T) {
	cat := NewSeeded()
	ctx := context.Background()

	test, err := cat.GetTest(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, "Chest X-Ray", test.Name)
	assert.Equal(t, "X-Ray", test.Category)
	assert.True(t, test.Price.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, 15, test.DurationMinutes)
	assert.Equal(t, "1", test.CenterID)

	other, err := cat.GetTest(ctx, "2-9")
	require.NoError(t, err)
	assert.Equal(t, "Chest X-Ray", other.Name)
	assert.Equal(t, "2", other.CenterID)
}

func TestSeeded_Listings(t *testing.T) {
	cat := NewSeeded()
	ctx := context.Background()

	centers, err := cat.ListCenters(ctx)
	require.NoError(t, err)
	require.Len(t, centers, 8)
	assert.Equal(t, "Apollo Diagnostics", centers[0].Name)

	tests, err := cat.ListTestsForCenter(ctx, "3")
	require.NoError(t, err)
	require.Len(t, tests, 36)
	assert.Equal(t, "3-1", tests[0].ID)
	assert.Equal(t, "3-36", tests[35].ID)
	for _, tt := range tests {
		assert.Equal(t, "3", tt.CenterID)
	}

	none, err := cat.ListTestsForCenter(ctx, "99")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemory_UnknownIDs(t *testing.T) {
	cat := NewSeeded()
	ctx := context.Background()

	_, err := cat.GetCenter(ctx, "42")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = cat.GetTest(ctx, "1-9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	cat := NewSeeded()
	ctx := context.Background()

	c, err := cat.GetCenter(ctx, "1")
	require.NoError(t, err)
	c.Name = "mutated"

	again, err := cat.GetCenter(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Apollo Diagnostics", again.Name)
}
