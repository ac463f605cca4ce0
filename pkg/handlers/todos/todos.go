package todos

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/chris/tin/pkg/api"
	"github.com/chris/tin/pkg/handlers/respond"
	"github.com/chris/tin/pkg/mapping"
	"github.com/chris/tin/pkg/storage"
)

// TodosHandler holds the dependencies for todo-related handlers.
type TodosHandler struct {
	Store storage.TodoStore
}

// NewTodosHandler creates a new TodosHandler.
func NewTodosHandler(store storage.TodoStore) *TodosHandler {
	return &TodosHandler{Store: store}
}

// AddTodo creates a todo on a card and returns it with the card after the
// deduction.
func (h *TodosHandler) AddTodo(w http.ResponseWriter, r *http.Request, cardId string) {
	var newTodo api.NewTodo
	if err := json.NewDecoder(r.Body).Decode(&newTodo); err != nil {
		respond.BadRequest(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	todo, card, err := h.Store.AddTodo(r.Context(), mapping.ToAddTodoRequest(cardId, &newTodo))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	slog.DebugContext(r.Context(), "todo added", "card_id", card.ID, "todo_id", todo.ID)
	respond.JSON(w, http.StatusCreated, mapping.ToAddTodoResult(todo, card))
}

// UpdateTodo handles a partial update of a todo.
func (h *TodosHandler) UpdateTodo(w http.ResponseWriter, r *http.Request, todoId string) {
	var patch api.TodoPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.BadRequest(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	todo, err := h.Store.UpdateTodo(r.Context(), mapping.ToUpdateTodoRequest(todoId, &patch))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiTodo(todo))
}

// DeleteTodo removes a todo, restoring its amount to the card.
func (h *TodosHandler) DeleteTodo(w http.ResponseWriter, r *http.Request, todoId string) {
	if err := h.Store.DeleteTodo(r.Context(), todoId); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, api.OkResponse{Ok: true})
}
