package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chris/tin/pkg/api"
	"github.com/chris/tin/pkg/commands"
	"github.com/chris/tin/pkg/handlers/activity"
	"github.com/chris/tin/pkg/handlers/cards"
	"github.com/chris/tin/pkg/handlers/respond"
	"github.com/chris/tin/pkg/handlers/todos"
	"github.com/chris/tin/pkg/storage"
)

// Request bodies larger than this are rejected by InvokeCommand.
const maxCommandBody = 1 << 20

// ApiHandler implements the generated server interface.
// It composes the per-resource handlers and the command dispatcher.
type ApiHandler struct {
	*cards.CardsHandler
	*todos.TodosHandler
	*activity.ActivityHandler

	Commands *commands.Dispatcher
}

// NewApiHandler creates a new ApiHandler with a storage dependency. maxAge is
// the staleness threshold used by the on-demand archive sweep.
func NewApiHandler(store storage.Storage, maxAge time.Duration) *ApiHandler {
	return &ApiHandler{
		CardsHandler:    cards.NewCardsHandler(store, maxAge),
		TodosHandler:    todos.NewTodosHandler(store),
		ActivityHandler: activity.NewActivityHandler(store),
		Commands:        commands.New(store, maxAge),
	}
}

// Make sure we conform to the interface
var _ api.ServerInterface = (*ApiHandler)(nil)

// InvokeCommand runs a named command with the request body as its
// parameters and responds with the command's result.
func (h *ApiHandler) InvokeCommand(w http.ResponseWriter, r *http.Request, name string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBody))
	if err != nil {
		respond.BadRequest(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		respond.BadRequest(w, "Invalid request body: not a JSON document")
		return
	}

	result, err := h.Commands.Invoke(r.Context(), name, body)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

// Health reports that the server is up.
func (h *ApiHandler) Health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, api.Health{Status: "ok"})
}
