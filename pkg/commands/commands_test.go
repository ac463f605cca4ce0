package commands

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/chris/tin/pkg/api"
	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
	"github.com/chris/tin/pkg/search"
	"github.com/chris/tin/pkg/storage"
	"github.com/chris/tin/pkg/storage/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestInvoke(t *testing.T) {
	ctx := context.Background()
	title := "Groceries"
	card := &models.Card{ID: "c1", Title: &title, Amount: decimal.RequireFromString("500"), CreatedAt: now, UpdatedAt: now}

	t.Run("Unknown Command", func(t *testing.T) {
		d := New(mocks.NewStorage(t), time.Hour)

		_, err := d.Invoke(ctx, "drop_tables", nil)

		assert.ErrorIs(t, err, ErrUnknownCommand)
	})

	t.Run("Create Card", func(t *testing.T) {
		mockStorage := mocks.NewStorage(t)
		mockStorage.On("CreateCard", mock.Anything, ledger.CreateCardRequest{Title: &title, Amount: "500.00"}).Return(card, nil)

		d := New(mockStorage, time.Hour)
		out, err := d.Invoke(ctx, "create_card", raw(`{"title":"Groceries","amount":"500.00"}`))

		require.NoError(t, err)
		assert.Equal(t, "500.000000", out.(*api.Card).Amount)
	})

	t.Run("Update Card Keeps Tri-State", func(t *testing.T) {
		mockStorage := mocks.NewStorage(t)
		mockStorage.On("UpdateCard", mock.Anything, mock.MatchedBy(func(req ledger.UpdateCardRequest) bool {
			return req.CardID == "c1" && req.Title.IsClear() && req.Amount.IsUnchanged() && req.LockedAmount.Value() == "20"
		})).Return(card, nil)

		d := New(mockStorage, time.Hour)
		_, err := d.Invoke(ctx, "update_card", raw(`{"cardId":"c1","title":null,"lockedAmount":"20"}`))

		assert.NoError(t, err)
	})

	t.Run("Add Todo Defaults To Current Time", func(t *testing.T) {
		todo := &models.Todo{ID: "t1", CardID: "c1", Title: "Milk", CreatedAt: now, UpdatedAt: now}
		mockStorage := mocks.NewStorage(t)
		mockStorage.On("AddTodo", mock.Anything, mock.MatchedBy(func(req ledger.AddTodoRequest) bool {
			return req.CardID == "c1" && req.UseCurrentTime && *req.Amount == "12.50"
		})).Return(todo, card, nil)

		d := New(mockStorage, time.Hour)
		out, err := d.Invoke(ctx, "add_todo", raw(`{"cardId":"c1","title":"Milk","amount":"12.50"}`))

		require.NoError(t, err)
		result := out.(*api.AddTodoResult)
		assert.Equal(t, "t1", result.Todo.Id)
		assert.Equal(t, "c1", result.UpdatedCard.Id)
	})

	t.Run("Missing Card Id", func(t *testing.T) {
		d := New(mocks.NewStorage(t), time.Hour)

		_, err := d.Invoke(ctx, "get_card", raw(`{}`))

		var ve *storage.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "card_id", ve.Field)
	})

	t.Run("Malformed Params", func(t *testing.T) {
		d := New(mocks.NewStorage(t), time.Hour)

		_, err := d.Invoke(ctx, "create_card", raw(`{"amount": 12}`))

		assert.ErrorIs(t, err, storage.ErrValidation)
	})

	t.Run("Delete Todo", func(t *testing.T) {
		mockStorage := mocks.NewStorage(t)
		mockStorage.On("DeleteTodo", mock.Anything, "t1").Return(nil)

		d := New(mockStorage, time.Hour)
		out, err := d.Invoke(ctx, "delete_todo", raw(`{"todoId":"t1"}`))

		require.NoError(t, err)
		assert.Equal(t, api.OkResponse{Ok: true}, out)
	})

	t.Run("Recent Changes", func(t *testing.T) {
		mockStorage := mocks.NewStorage(t)
		mockStorage.On("RecentChanges", mock.Anything, 5).Return([]models.ChangeLog{}, nil)

		d := New(mockStorage, time.Hour)
		out, err := d.Invoke(ctx, "recent_changes", raw(`{"limit":5}`))

		require.NoError(t, err)
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})

	t.Run("Recent Changes Without Params", func(t *testing.T) {
		mockStorage := mocks.NewStorage(t)
		mockStorage.On("RecentChanges", mock.Anything, 0).Return([]models.ChangeLog{}, nil)

		d := New(mockStorage, time.Hour)
		_, err := d.Invoke(ctx, "recent_changes", nil)

		assert.NoError(t, err)
	})

	t.Run("Search", func(t *testing.T) {
		mockStorage := mocks.NewStorage(t)
		mockStorage.On("Search", mock.Anything, mock.MatchedBy(func(q search.Query) bool {
			return len(q.Terms) == 1 && q.IncludeArchived && q.After != nil
		})).Return([]models.SearchResult{{CardID: "c1", Snippet: "<b>Groc</b>eries"}}, nil)

		d := New(mockStorage, time.Hour)
		out, err := d.Invoke(ctx, "search", raw(`{"query":"groc after:2024-01-01","includeArchived":true}`))

		require.NoError(t, err)
		results := out.([]api.SearchResult)
		require.Len(t, results, 1)
		assert.Equal(t, "<b>Groc</b>eries", results[0].Snippet)
	})

	t.Run("Archive Old Cards", func(t *testing.T) {
		mockStorage := mocks.NewStorage(t)
		mockStorage.On("ArchiveOldCards", mock.Anything, 72*time.Hour).Return(2, nil)

		d := New(mockStorage, 72*time.Hour)
		out, err := d.Invoke(ctx, "archive_old_cards", nil)

		require.NoError(t, err)
		assert.Equal(t, api.ArchiveResult{ArchivedCount: 2}, out)
	})
}

func TestNames(t *testing.T) {
	d := New(nil, 0)

	names := d.Names()

	assert.Len(t, names, 14)
	assert.Equal(t, "add_todo", names[0])
	assert.Contains(t, names, "archive_old_cards")
}
