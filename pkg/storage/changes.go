package storage

import (
	"context"

	"github.com/chris/tin/pkg/models"
	"github.com/chris/tin/pkg/search"
)

// ChangeLogReader defines the interface for reading the audit trail.
type ChangeLogReader interface {
	// RecentChanges retrieves the newest change-log entries. A limit of zero
	// or less uses the default.
	RecentChanges(ctx context.Context, limit int) ([]models.ChangeLog, error)
}

// Searcher defines the interface for searching cards and todos.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]models.SearchResult, error)
}
