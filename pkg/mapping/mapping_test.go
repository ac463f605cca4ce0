package mapping

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/chris/tin/pkg/api"
	"github.com/chris/tin/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToApiCard(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	card := &models.Card{
		ID:           "card-1",
		Amount:       decimal.RequireFromString("-0.5"),
		LockedAmount: decimal.NewNullDecimal(decimal.RequireFromString("20")),
		Archived:     true,
		ArchivedAt:   &at,
		CreatedAt:    at,
		UpdatedAt:    at,
	}

	got := ToApiCard(card)

	assert.Equal(t, "-0.500000", got.Amount)
	assert.Equal(t, "20.000000", *got.LockedAmount)
	assert.Nil(t, got.Title)
	assert.Equal(t, "2024-03-01T12:00:00.123Z", got.CreatedAt)
	assert.Equal(t, "2024-03-01T12:00:00.123Z", *got.ArchivedAt)
}

func TestNilSlicesEncodeAsArrays(t *testing.T) {
	card := &models.Card{ID: "card-1"}

	body, err := json.Marshal(ToApiCardWithTodos(card))
	require.NoError(t, err)
	assert.Contains(t, string(body), `"todos":[]`)

	body, err = json.Marshal(ToApiChanges(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))

	body, err = json.Marshal(ToApiChanges([]models.ChangeLog{{ID: "x"}}))
	require.NoError(t, err)
	assert.Contains(t, string(body), `"payload":{}`)
}

func TestToAddTodoRequest(t *testing.T) {
	t.Run("Defaults To Current Time", func(t *testing.T) {
		req := ToAddTodoRequest("card-1", &api.NewTodo{Title: "Milk"})

		assert.True(t, req.UseCurrentTime)
		assert.Equal(t, "card-1", req.CardID)
	})

	t.Run("Explicit Schedule", func(t *testing.T) {
		no := false
		at := "2024-05-01T08:00:00Z"

		req := ToAddTodoRequest("card-1", &api.NewTodo{Title: "Rent", UseCurrentTime: &no, ScheduledAt: &at})

		assert.False(t, req.UseCurrentTime)
		assert.Equal(t, &at, req.ScheduledAt)
	})
}

func TestToSearchQuery(t *testing.T) {
	q := "Milk before:2024-03-01"
	yes := true

	got := ToSearchQuery(api.SearchParams{Q: &q, IncludeArchived: &yes})

	assert.Equal(t, []string{"milk"}, got.Terms)
	assert.True(t, got.IncludeArchived)
	require.NotNil(t, got.Before)
	assert.True(t, ToSearchQuery(api.SearchParams{}).Empty())
}
