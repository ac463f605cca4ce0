package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArchiveCard moves a card out of the active set.
func (s *Store) ArchiveCard(ctx context.Context, cardID string) (*models.Card, error) {
	var archived *models.Card
	err := s.withCard(ctx, cardID, func(tx *gorm.DB, card *models.Card) (*models.ChangeLog, error) {
		change := ledger.Archive(card, ledger.UserArchivePayload(), s.now())
		if err := saveCard(tx, card); err != nil {
			return nil, err
		}
		archived = card
		return change, nil
	})
	if err != nil {
		return nil, err
	}
	return archived, nil
}

// UnarchiveCard returns a card to the active set.
func (s *Store) UnarchiveCard(ctx context.Context, cardID string) (*models.Card, error) {
	var restored *models.Card
	err := s.withCard(ctx, cardID, func(tx *gorm.DB, card *models.Card) (*models.ChangeLog, error) {
		change := ledger.Unarchive(card, s.now())
		if err := saveCard(tx, card); err != nil {
			return nil, err
		}
		restored = card
		return change, nil
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// ArchiveOldCards archives every active card whose last update is at or
// before now - maxAge. The sweep runs in a single transaction.
func (s *Store) ArchiveOldCards(ctx context.Context, maxAge time.Duration) (int, error) {
	now := s.now()
	cutoff := now.Add(-maxAge)

	var changes []models.ChangeLog
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("archived = ? AND updated_at <= ?", false, cutoff)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var stale []models.Card
		if err := q.Find(&stale).Error; err != nil {
			return fmt.Errorf("failed to query stale cards: %w", err)
		}

		for i := range stale {
			change := ledger.Archive(&stale[i], ledger.AutoArchivePayload(maxAge), now)
			if err := saveCard(tx, &stale[i]); err != nil {
				return err
			}
			if err := insertChange(tx, change); err != nil {
				return err
			}
			changes = append(changes, *change)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.DebugContext(ctx, "archive sweep finished", "archived", len(changes), "cutoff", cutoff)
	s.publish(ctx, changes...)
	return len(changes), nil
}
