package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chris/tin/pkg/api"
	"github.com/chris/tin/pkg/config"
	"github.com/chris/tin/pkg/handlers/respond"
	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
	"github.com/chris/tin/pkg/storage/mocks"
	"github.com/chris/tin/pkg/storage/sqlstore"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRouter(h *ApiHandler) http.Handler {
	return api.HandlerWithOptions(h, api.ChiServerOptions{
		BaseRouter:       chi.NewRouter(),
		ErrorHandlerFunc: respond.ParamError,
	})
}

func TestRouting(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	card := &models.Card{ID: "card-1", Amount: decimal.RequireFromString("1"), CreatedAt: now, UpdatedAt: now}

	t.Run("Health", func(t *testing.T) {
		router := newRouter(NewApiHandler(new(mocks.Storage), time.Hour))

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	})

	t.Run("Archived Route Is Not A Card Id", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("ListArchivedCards", mock.Anything).Return([]models.Card{}, nil)

		router := newRouter(NewApiHandler(mockStorage, time.Hour))

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cards/archived", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		mockStorage.AssertExpectations(t)
		mockStorage.AssertNotCalled(t, "GetCard", mock.Anything, mock.Anything)
	})

	t.Run("Path Parameter", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("UnarchiveCard", mock.Anything, "card-1").Return(card, nil)

		router := newRouter(NewApiHandler(mockStorage, time.Hour))

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/cards/card-1/unarchive", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		mockStorage.AssertExpectations(t)
	})

	t.Run("Invalid Query Parameter", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		router := newRouter(NewApiHandler(mockStorage, time.Hour))

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/changes?limit=ten", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockStorage.AssertNotCalled(t, "RecentChanges", mock.Anything, mock.Anything)
	})
}

func TestInvokeCommand(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("DeleteCard", mock.Anything, "card-1").Return(nil)

		router := newRouter(NewApiHandler(mockStorage, time.Hour))

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/commands/delete_card", strings.NewReader(`{"cardId":"card-1"}`)))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
		mockStorage.AssertExpectations(t)
	})

	t.Run("Unknown Command", func(t *testing.T) {
		router := newRouter(NewApiHandler(new(mocks.Storage), time.Hour))

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/commands/format_disk", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Bad Request - Invalid JSON", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		router := newRouter(NewApiHandler(mockStorage, time.Hour))

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/commands/create_card", strings.NewReader("not-json")))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockStorage.AssertNotCalled(t, "CreateCard", mock.Anything, mock.Anything)
	})
}

// TestLedgerOverHTTP drives a SQLite-backed store through the router.
func TestLedgerOverHTTP(t *testing.T) {
	db, err := sqlstore.Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "tin.db"),
	})
	require.NoError(t, err)
	store := sqlstore.New(db, nil, ledger.Policy{})
	t.Cleanup(func() { _ = store.Close() })

	router := newRouter(NewApiHandler(store, 30*24*time.Hour))

	do := func(method, path, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(method, path, bytes.NewBufferString(body)))
		return rr
	}

	rr := do(http.MethodPost, "/cards", `{"title":"Groceries","amount":"500.00"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var card api.Card
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &card))

	rr = do(http.MethodPost, "/commands/add_todo", `{"cardId":"`+card.Id+`","title":"Milk","amount":"12.50","useCurrentTime":true}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var added api.AddTodoResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.Equal(t, "487.500000", added.UpdatedCard.Amount)

	rr = do(http.MethodGet, "/cards/"+card.Id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var full api.CardWithTodos
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &full))
	assert.Equal(t, "487.500000", full.Amount)
	require.Len(t, full.Todos, 1)
	assert.Equal(t, 1, full.Todos[0].OrderIndex)

	rr = do(http.MethodDelete, "/todos/"+added.Todo.Id, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(http.MethodGet, "/changes?limit=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var changes []api.ChangeLogEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &changes))
	require.Len(t, changes, 1)
	assert.Equal(t, "todo_deleted", changes[0].Kind)
	assert.Equal(t, "487.500000 -> 500.000000", changes[0].Payload["card_amount_change"])

	rr = do(http.MethodGet, "/search?q=groc", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var results []api.SearchResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "<b>Groc</b>eries", results[0].Snippet)

	rr = do(http.MethodPost, "/cards", `{"amount":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(http.MethodDelete, "/cards/"+card.Id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	rr = do(http.MethodDelete, "/cards/"+card.Id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
