package storage

import (
	"context"
	"time"

	"github.com/chris/tin/pkg/models"
)

// ArchiveStore defines the interface for moving single cards in and out of
// the archive.
type ArchiveStore interface {
	ArchiveCard(ctx context.Context, cardID string) (*models.Card, error)
	UnarchiveCard(ctx context.Context, cardID string) (*models.Card, error)
}

// Sweeper archives cards that have not been touched for maxAge.
// It is used by the background archiver and the scheduled lambda.
type Sweeper interface {
	ArchiveOldCards(ctx context.Context, maxAge time.Duration) (int, error)
}
