package activity

import (
	"net/http"

	"github.com/chris/tin/pkg/api"
	"github.com/chris/tin/pkg/handlers/respond"
	"github.com/chris/tin/pkg/mapping"
	"github.com/chris/tin/pkg/storage"
)

// Store is the read side used by the activity handlers.
type Store interface {
	storage.ChangeLogReader
	storage.Searcher
}

// ActivityHandler serves the recent-changes feed and search.
type ActivityHandler struct {
	Store Store
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(store Store) *ActivityHandler {
	return &ActivityHandler{Store: store}
}

func (h *ActivityHandler) RecentChanges(w http.ResponseWriter, r *http.Request, params api.RecentChangesParams) {
	limit := 0
	if params.Limit != nil {
		limit = *params.Limit
	}

	changes, err := h.Store.RecentChanges(r.Context(), limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiChanges(changes))
}

func (h *ActivityHandler) Search(w http.ResponseWriter, r *http.Request, params api.SearchParams) {
	results, err := h.Store.Search(r.Context(), mapping.ToSearchQuery(params))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiSearchResults(results))
}
