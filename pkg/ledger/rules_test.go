package ledger

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/chris/tin/pkg/amount"
	"github.com/chris/tin/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func newCard(t *testing.T, amt string) *models.Card {
	t.Helper()
	card, _, err := NewCard(CreateCardRequest{Title: strPtr("Groceries"), Amount: amt}, now)
	require.NoError(t, err)
	return card
}

func TestNewCard(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		card, change, err := NewCard(CreateCardRequest{Title: strPtr("Groceries"), Amount: "500.00"}, now)
		require.NoError(t, err)

		assert.NotEmpty(t, card.ID)
		assert.Equal(t, "500.000000", amount.Format(card.Amount))
		assert.False(t, card.Archived)
		assert.Nil(t, card.ArchivedAt)
		assert.Equal(t, now, card.CreatedAt)

		assert.Equal(t, card.ID, change.CardID)
		assert.Equal(t, models.KindCreated, change.Kind)
		assert.Equal(t, "Groceries", change.Payload["title"])
		assert.Equal(t, "500.000000", change.Payload["amount"])
	})

	t.Run("Invalid Amount", func(t *testing.T) {
		for _, in := range []string{"abc", "100.00$", ""} {
			_, _, err := NewCard(CreateCardRequest{Amount: in}, now)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr, in)
			assert.Equal(t, "amount", verr.Field)
			assert.ErrorIs(t, err, ErrValidation)
		}
	})
}

func TestUpdateCard(t *testing.T) {
	t.Run("Amount Change Records Transition", func(t *testing.T) {
		card := newCard(t, "100")
		later := now.Add(time.Hour)

		change, err := UpdateCard(card, UpdateCardRequest{CardID: card.ID, Amount: Set("80.5")}, later)
		require.NoError(t, err)

		assert.Equal(t, "80.500000", amount.Format(card.Amount))
		assert.Equal(t, later, card.UpdatedAt)
		assert.Equal(t, models.KindUpdated, change.Kind)
		assert.Equal(t, "100.000000 -> 80.500000", change.Payload["amount_change"])
		assert.NotContains(t, change.Payload, "title")
	})

	t.Run("Title Clear Versus Unchanged", func(t *testing.T) {
		card := newCard(t, "1")

		_, err := UpdateCard(card, UpdateCardRequest{CardID: card.ID}, now)
		require.NoError(t, err)
		require.NotNil(t, card.Title)

		change, err := UpdateCard(card, UpdateCardRequest{CardID: card.ID, Title: Clear[string]()}, now)
		require.NoError(t, err)
		assert.Nil(t, card.Title)
		assert.Contains(t, change.Payload, "title")
		assert.Nil(t, change.Payload["title"])
	})

	t.Run("Unchanged Values Are Not Recorded", func(t *testing.T) {
		card := newCard(t, "100")

		change, err := UpdateCard(card, UpdateCardRequest{
			CardID:       card.ID,
			Title:        Set("Groceries"),
			Amount:       Set("100.00"),
			LockedAmount: Clear[string](),
		}, now)
		require.NoError(t, err)
		assert.Empty(t, change.Payload)

		change, err = UpdateCard(card, UpdateCardRequest{CardID: card.ID, Title: Set("Food"), Amount: Set("100")}, now)
		require.NoError(t, err)
		assert.Equal(t, models.Payload{"title": "Food"}, change.Payload)
	})

	t.Run("Null Amount Rejected", func(t *testing.T) {
		card := newCard(t, "1")
		_, err := UpdateCard(card, UpdateCardRequest{CardID: card.ID, Amount: Clear[string]()}, now)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("Locked Amount", func(t *testing.T) {
		card := newCard(t, "100")
		_, err := UpdateCard(card, UpdateCardRequest{CardID: card.ID, LockedAmount: Set("40")}, now)
		require.NoError(t, err)
		assert.Equal(t, "40.000000", *amount.FormatNull(card.LockedAmount))

		_, err = UpdateCard(card, UpdateCardRequest{CardID: card.ID, LockedAmount: Clear[string]()}, now)
		require.NoError(t, err)
		assert.False(t, card.LockedAmount.Valid)
	})
}

func TestAddTodo(t *testing.T) {
	t.Run("Deducts From Card", func(t *testing.T) {
		card := newCard(t, "500.00")
		todo, change, err := AddTodo(card, AddTodoRequest{CardID: card.ID, Title: "Milk", Amount: strPtr("12.50"), UseCurrentTime: true}, 1, now)
		require.NoError(t, err)

		assert.Equal(t, "487.500000", amount.Format(card.Amount))
		assert.Equal(t, 1, todo.OrderIndex)
		require.NotNil(t, todo.ScheduledAt)
		assert.Equal(t, now, *todo.ScheduledAt)
		assert.Equal(t, models.KindTodoAdded, change.Kind)
		assert.Equal(t, "500.000000 -> 487.500000", change.Payload["card_amount_change"])
		assert.Equal(t, todo.ID, change.Payload["todo_id"])
	})

	t.Run("No Amount Leaves Balance", func(t *testing.T) {
		card := newCard(t, "10")
		todo, change, err := AddTodo(card, AddTodoRequest{CardID: card.ID, Title: "Call bank", UseCurrentTime: true}, 1, now)
		require.NoError(t, err)
		assert.False(t, todo.Amount.Valid)
		assert.Equal(t, "10.000000", amount.Format(card.Amount))
		assert.Nil(t, change.Payload["amount"])
	})

	t.Run("Scheduled Time", func(t *testing.T) {
		card := newCard(t, "10")
		todo, _, err := AddTodo(card, AddTodoRequest{CardID: card.ID, Title: "Rent", ScheduledAt: strPtr("2024-04-01T09:30:00.000Z")}, 3, now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC), *todo.ScheduledAt)
	})

	t.Run("Validation", func(t *testing.T) {
		card := newCard(t, "10")
		cases := map[string]AddTodoRequest{
			"title":        {CardID: card.ID, Title: "  ", UseCurrentTime: true},
			"amount":       {CardID: card.ID, Title: "x", Amount: strPtr("1,5"), UseCurrentTime: true},
			"scheduled_at": {CardID: card.ID, Title: "x"},
		}
		for field, req := range cases {
			_, _, err := AddTodo(card, req, 1, now)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr, field)
			assert.Equal(t, field, verr.Field)
		}
		assert.Equal(t, "10.000000", amount.Format(card.Amount))
	})
}

func TestUpdateTodo(t *testing.T) {
	setup := func(t *testing.T) (*models.Card, *models.Todo) {
		card := newCard(t, "100")
		todo, _, err := AddTodo(card, AddTodoRequest{CardID: card.ID, Title: "Fuel", Amount: strPtr("30"), UseCurrentTime: true}, 1, now)
		require.NoError(t, err)
		return card, todo
	}

	t.Run("Amount Delta", func(t *testing.T) {
		card, todo := setup(t)
		before := card.Amount

		change, moved, err := UpdateTodo(card, todo, UpdateTodoRequest{TodoID: todo.ID, Amount: Set("45")}, now)
		require.NoError(t, err)
		assert.True(t, moved)
		// after == before + old - new
		assert.True(t, card.Amount.Equal(before.Add(amountOf(t, "30")).Sub(amountOf(t, "45"))))
		assert.Equal(t, "55.000000", amount.Format(card.Amount))
		assert.Equal(t, "70.000000 -> 55.000000", change.Payload["card_amount_change"])
	})

	t.Run("Cleared Amount Restores", func(t *testing.T) {
		card, todo := setup(t)
		_, moved, err := UpdateTodo(card, todo, UpdateTodoRequest{TodoID: todo.ID, Amount: Clear[string]()}, now)
		require.NoError(t, err)
		assert.True(t, moved)
		assert.False(t, todo.Amount.Valid)
		assert.Equal(t, "100.000000", amount.Format(card.Amount))
	})

	t.Run("Same Amount Does Not Move", func(t *testing.T) {
		card, todo := setup(t)
		change, moved, err := UpdateTodo(card, todo, UpdateTodoRequest{TodoID: todo.ID, Amount: Set("30.000")}, now)
		require.NoError(t, err)
		assert.False(t, moved)
		assert.NotContains(t, change.Payload, "card_amount_change")
	})

	t.Run("Done And Order", func(t *testing.T) {
		card, todo := setup(t)
		done := true
		order := 7
		change, moved, err := UpdateTodo(card, todo, UpdateTodoRequest{TodoID: todo.ID, Done: &done, OrderIndex: &order}, now)
		require.NoError(t, err)
		assert.False(t, moved)
		assert.True(t, todo.Done)
		assert.Equal(t, 7, todo.OrderIndex)
		assert.Equal(t, true, change.Payload["done"])
		assert.Equal(t, "Fuel", change.Payload["title"])
	})

	t.Run("Title Cannot Be Cleared", func(t *testing.T) {
		card, todo := setup(t)
		_, _, err := UpdateTodo(card, todo, UpdateTodoRequest{TodoID: todo.ID, Title: Clear[string]()}, now)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("Negative Order Rejected", func(t *testing.T) {
		card, todo := setup(t)
		order := -1
		_, _, err := UpdateTodo(card, todo, UpdateTodoRequest{TodoID: todo.ID, OrderIndex: &order}, now)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func amountOf(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := amount.Parse(s)
	require.NoError(t, err)
	return d
}

func TestDeleteTodo(t *testing.T) {
	card := newCard(t, "100.00")
	todo := &models.Todo{ID: "t1", CardID: card.ID, Title: "Refund"}
	todo.Amount.Valid = true
	todo.Amount.Decimal = amountOf(t, "25.00")

	change, moved := DeleteTodo(card, todo, now)
	assert.True(t, moved)
	assert.Equal(t, "125.000000", amount.Format(card.Amount))
	assert.Equal(t, models.KindTodoDeleted, change.Kind)
	assert.Equal(t, "25.000000", change.Payload["amount"])
}

func TestArchive(t *testing.T) {
	card := newCard(t, "1")
	first := now.Add(time.Hour)

	change := Archive(card, UserArchivePayload(), first)
	assert.True(t, card.Archived)
	require.NotNil(t, card.ArchivedAt)
	assert.Equal(t, first, *card.ArchivedAt)
	assert.Equal(t, models.KindArchived, change.Kind)

	Archive(card, UserArchivePayload(), first.Add(time.Hour))
	assert.Equal(t, first, *card.ArchivedAt)

	change = Unarchive(card, first.Add(2*time.Hour))
	assert.False(t, card.Archived)
	assert.Nil(t, card.ArchivedAt)
	assert.Equal(t, models.KindUnarchived, change.Kind)
}

func TestChangeIDsSortByInsertion(t *testing.T) {
	changes := make([]models.ChangeLog, 0, 50)
	for i := 0; i < 50; i++ {
		changes = append(changes, *NewChange("c", models.KindUpdated, nil, now))
	}
	SortChanges(changes)
	for i := 1; i < len(changes); i++ {
		assert.Greater(t, changes[i-1].ID, changes[i].ID)
	}
}

func TestOptionalJSON(t *testing.T) {
	var req UpdateCardRequest
	require.NoError(t, json.Unmarshal([]byte(`{"cardId":"c1","title":null,"amount":"5"}`), &req))
	assert.True(t, req.Title.IsClear())
	assert.True(t, req.Amount.IsSet())
	assert.Equal(t, "5", req.Amount.Value())
	assert.True(t, req.LockedAmount.IsUnchanged())
}

func TestChangesLimit(t *testing.T) {
	assert.Equal(t, DefaultChangesLimit, ChangesLimit(0))
	assert.Equal(t, 3, ChangesLimit(3))
	assert.Equal(t, MaxChangesLimit, ChangesLimit(10_000))
}

func TestCardLocks(t *testing.T) {
	var locks CardLocks
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("card")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.Held())
}

func TestPolicy(t *testing.T) {
	card := newCard(t, "1")
	Archive(card, UserArchivePayload(), now)

	assert.NoError(t, Policy{}.CheckEditable(card))
	assert.ErrorIs(t, Policy{LockArchived: true}.CheckEditable(card), ErrConstraint)
}
