package ledger

import (
	"sort"

	"github.com/chris/tin/pkg/models"
)

// Policy holds the configurable rules applied by stores.
type Policy struct {
	// LockArchived forbids balance, title and todo edits on archived cards.
	LockArchived bool
}

// CheckEditable returns a ConstraintError when policy forbids editing card.
func (p Policy) CheckEditable(card *models.Card) error {
	if p.LockArchived && card.Archived {
		return &ConstraintError{Message: "card " + card.ID + " is archived and cannot be edited"}
	}
	return nil
}

// SortActive orders active cards newest first by creation time.
func SortActive(cards []models.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		if !cards[i].CreatedAt.Equal(cards[j].CreatedAt) {
			return cards[i].CreatedAt.After(cards[j].CreatedAt)
		}
		return cards[i].ID > cards[j].ID
	})
}

// SortArchived orders archived cards by most recently archived first.
func SortArchived(cards []models.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		a, b := cards[i].ArchivedAt, cards[j].ArchivedAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return cards[i].ID > cards[j].ID
	})
}

// SortTodos orders todos by order index, then creation time, then id.
func SortTodos(todos []models.Todo) {
	sort.SliceStable(todos, func(i, j int) bool {
		if todos[i].OrderIndex != todos[j].OrderIndex {
			return todos[i].OrderIndex < todos[j].OrderIndex
		}
		if !todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].CreatedAt.Before(todos[j].CreatedAt)
		}
		return todos[i].ID < todos[j].ID
	})
}

// SortChanges orders change-log entries newest first, ties broken by
// insertion order.
func SortChanges(changes []models.ChangeLog) {
	sort.SliceStable(changes, func(i, j int) bool {
		if !changes[i].CreatedAt.Equal(changes[j].CreatedAt) {
			return changes[i].CreatedAt.After(changes[j].CreatedAt)
		}
		return changes[i].ID > changes[j].ID
	})
}

const (
	DefaultChangesLimit = 10
	MaxChangesLimit     = 200
)

// ChangesLimit normalises the limit of a recent_changes request.
func ChangesLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultChangesLimit
	case limit > MaxChangesLimit:
		return MaxChangesLimit
	}
	return limit
}
