package cards

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chris/tin/pkg/api"
	"github.com/chris/tin/pkg/handlers/respond"
	"github.com/chris/tin/pkg/mapping"
	"github.com/chris/tin/pkg/storage"
)

// Store is the subset of the storage layer used by the card handlers.
type Store interface {
	storage.CardStore
	storage.ArchiveStore
	storage.Sweeper
}

// CardsHandler holds the dependencies for card-related handlers.
type CardsHandler struct {
	Store Store
	// MaxAge is the staleness threshold of the archive sweep.
	MaxAge time.Duration
}

// NewCardsHandler creates a new CardsHandler.
func NewCardsHandler(store Store, maxAge time.Duration) *CardsHandler {
	return &CardsHandler{Store: store, MaxAge: maxAge}
}

// ListCards handles the logic for retrieving all active cards.
func (h *CardsHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.Store.ListCards(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiCards(cards))
}

// ListArchivedCards handles the logic for retrieving all archived cards.
func (h *CardsHandler) ListArchivedCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.Store.ListArchivedCards(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiCards(cards))
}

// GetCard handles the logic for retrieving a card with its todos.
func (h *CardsHandler) GetCard(w http.ResponseWriter, r *http.Request, cardId string) {
	card, err := h.Store.GetCard(r.Context(), cardId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiCardWithTodos(card))
}

// CreateCard handles the logic for creating a new card.
func (h *CardsHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var newCard api.NewCard
	if err := json.NewDecoder(r.Body).Decode(&newCard); err != nil {
		respond.BadRequest(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	card, err := h.Store.CreateCard(r.Context(), mapping.ToCreateCardRequest(&newCard))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, mapping.ToApiCard(card))
}

// UpdateCard handles a partial update of a card.
func (h *CardsHandler) UpdateCard(w http.ResponseWriter, r *http.Request, cardId string) {
	var patch api.CardPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.BadRequest(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	card, err := h.Store.UpdateCard(r.Context(), mapping.ToUpdateCardRequest(cardId, &patch))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiCard(card))
}

// DeleteCard handles the logic for deleting a card and its todos.
func (h *CardsHandler) DeleteCard(w http.ResponseWriter, r *http.Request, cardId string) {
	if err := h.Store.DeleteCard(r.Context(), cardId); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, api.OkResponse{Ok: true})
}

func (h *CardsHandler) ArchiveCard(w http.ResponseWriter, r *http.Request, cardId string) {
	card, err := h.Store.ArchiveCard(r.Context(), cardId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiCard(card))
}

func (h *CardsHandler) UnarchiveCard(w http.ResponseWriter, r *http.Request, cardId string) {
	card, err := h.Store.UnarchiveCard(r.Context(), cardId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiCard(card))
}

// ArchiveOldCards runs the archive sweep on demand.
func (h *CardsHandler) ArchiveOldCards(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.ArchiveOldCards(r.Context(), h.MaxAge)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, api.ArchiveResult{ArchivedCount: n})
}
