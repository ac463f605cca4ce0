package storage

import (
	"context"

	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
)

// CardReader defines the interface for reading cards.
type CardReader interface {
	// ListCards retrieves active cards, newest first.
	ListCards(ctx context.Context) ([]models.Card, error)

	// ListArchivedCards retrieves archived cards, most recently archived first.
	ListArchivedCards(ctx context.Context) ([]models.Card, error)

	// GetCard retrieves a card together with its ordered todos.
	GetCard(ctx context.Context, cardID string) (*models.Card, error)
}

// CardManager defines the interface for creating, editing and deleting cards.
type CardManager interface {
	CreateCard(ctx context.Context, req ledger.CreateCardRequest) (*models.Card, error)
	UpdateCard(ctx context.Context, req ledger.UpdateCardRequest) (*models.Card, error)

	// DeleteCard removes the card and all of its todos.
	DeleteCard(ctx context.Context, cardID string) error
}

// CardStore combines the reader and manager interfaces.
type CardStore interface {
	CardReader
	CardManager
}
