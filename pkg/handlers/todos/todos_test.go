package todos_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chris/tin/pkg/api"
	"github.com/chris/tin/pkg/handlers/todos"
	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
	"github.com/chris/tin/pkg/storage/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestAddTodo(t *testing.T) {
	todo := &models.Todo{
		ID: "todo-1", CardID: "card-1", Title: "Milk",
		Amount:      decimal.NewNullDecimal(decimal.RequireFromString("12.50")),
		ScheduledAt: &now, OrderIndex: 1,
		CreatedAt: now, UpdatedAt: now,
	}
	card := &models.Card{ID: "card-1", Amount: decimal.RequireFromString("487.5"), CreatedAt: now, UpdatedAt: now}

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockStorage := new(mocks.Storage)
		mockStorage.On("AddTodo", mock.Anything, mock.MatchedBy(func(req ledger.AddTodoRequest) bool {
			return req.CardID == "card-1" && req.Title == "Milk" && req.UseCurrentTime
		})).Return(todo, card, nil)

		h := todos.NewTodosHandler(mockStorage)

		req := httptest.NewRequest(http.MethodPost, "/cards/card-1/todos", strings.NewReader(`{"title":"Milk","amount":"12.50"}`))
		rr := httptest.NewRecorder()

		// Act
		h.AddTodo(rr, req, "card-1")

		// Assert
		assert.Equal(t, http.StatusCreated, rr.Code)

		var result api.AddTodoResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, "12.500000", *result.Todo.Amount)
		assert.Equal(t, "2024-03-01T12:00:00.000Z", *result.Todo.ScheduledAt)
		assert.Equal(t, "487.500000", result.UpdatedCard.Amount)

		mockStorage.AssertExpectations(t)
	})

	t.Run("Scheduled Time Required", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("AddTodo", mock.Anything, mock.MatchedBy(func(req ledger.AddTodoRequest) bool {
			return !req.UseCurrentTime && req.ScheduledAt == nil
		})).Return(nil, nil, &ledger.ValidationError{Field: "scheduled_at", Message: "is required when the current time is not used"})

		h := todos.NewTodosHandler(mockStorage)

		req := httptest.NewRequest(http.MethodPost, "/cards/card-1/todos", strings.NewReader(`{"title":"Milk","useCurrentTime":false}`))
		rr := httptest.NewRecorder()

		h.AddTodo(rr, req, "card-1")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), `"field":"scheduled_at"`)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Card Not Found", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("AddTodo", mock.Anything, mock.Anything).Return(nil, nil, ledger.CardNotFound("card-9"))

		h := todos.NewTodosHandler(mockStorage)

		req := httptest.NewRequest(http.MethodPost, "/cards/card-9/todos", strings.NewReader(`{"title":"Milk"}`))
		rr := httptest.NewRecorder()

		h.AddTodo(rr, req, "card-9")

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockStorage.AssertExpectations(t)
	})
}

func TestUpdateTodo(t *testing.T) {
	t.Run("Clear Amount", func(t *testing.T) {
		done := true
		updated := &models.Todo{ID: "todo-1", CardID: "card-1", Title: "Milk", Done: done, CreatedAt: now, UpdatedAt: now}
		mockStorage := new(mocks.Storage)
		mockStorage.On("UpdateTodo", mock.Anything, mock.MatchedBy(func(req ledger.UpdateTodoRequest) bool {
			return req.TodoID == "todo-1" && req.Amount.IsClear() && *req.Done && req.Title.IsUnchanged()
		})).Return(updated, nil)

		h := todos.NewTodosHandler(mockStorage)

		req := httptest.NewRequest(http.MethodPatch, "/todos/todo-1", strings.NewReader(`{"amount":null,"done":true}`))
		rr := httptest.NewRecorder()

		h.UpdateTodo(rr, req, "todo-1")

		assert.Equal(t, http.StatusOK, rr.Code)
		var returned api.Todo
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &returned))
		assert.Nil(t, returned.Amount)
		assert.True(t, returned.Done)
		mockStorage.AssertExpectations(t)
	})
}

func TestDeleteTodo(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("DeleteTodo", mock.Anything, "todo-1").Return(nil)

		h := todos.NewTodosHandler(mockStorage)

		req := httptest.NewRequest(http.MethodDelete, "/todos/todo-1", nil)
		rr := httptest.NewRecorder()

		h.DeleteTodo(rr, req, "todo-1")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
		mockStorage.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("DeleteTodo", mock.Anything, "todo-1").Return(ledger.TodoNotFound("todo-1"))

		h := todos.NewTodosHandler(mockStorage)

		req := httptest.NewRequest(http.MethodDelete, "/todos/todo-1", nil)
		rr := httptest.NewRecorder()

		h.DeleteTodo(rr, req, "todo-1")

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockStorage.AssertExpectations(t)
	})
}
