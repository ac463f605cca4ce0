package sqlstore

import (
	"context"
	"fmt"

	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
	"github.com/chris/tin/pkg/search"
)

// RecentChanges retrieves the newest change-log entries. Entries written in
// the same millisecond keep their insertion order through the time-ordered
// ids.
func (s *Store) RecentChanges(ctx context.Context, limit int) ([]models.ChangeLog, error) {
	var changes []models.ChangeLog
	err := s.DB.WithContext(ctx).
		Order("created_at desc, id desc").
		Limit(ledger.ChangesLimit(limit)).
		Find(&changes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent changes: %w", err)
	}
	return changes, nil
}

// Search evaluates q over cards and todos.
func (s *Store) Search(ctx context.Context, q search.Query) ([]models.SearchResult, error) {
	if q.Empty() {
		return []models.SearchResult{}, nil
	}

	db := s.DB.WithContext(ctx).Preload("Todos", orderedTodos)
	if !q.IncludeArchived {
		db = db.Where("archived = ?", false)
	}
	var cards []models.Card
	if err := db.Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("failed to load cards for search: %w", err)
	}
	return search.Run(q, cards), nil
}
