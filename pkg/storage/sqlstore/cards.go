package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func orderedTodos(db *gorm.DB) *gorm.DB {
	return db.Order("order_index asc, created_at asc, id asc")
}

// ListCards retrieves active cards, newest first.
func (s *Store) ListCards(ctx context.Context) ([]models.Card, error) {
	var cards []models.Card
	err := s.DB.WithContext(ctx).
		Where("archived = ?", false).
		Order("created_at desc, id desc").
		Find(&cards).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

// ListArchivedCards retrieves archived cards, most recently archived first.
func (s *Store) ListArchivedCards(ctx context.Context) ([]models.Card, error) {
	var cards []models.Card
	err := s.DB.WithContext(ctx).
		Where("archived = ?", true).
		Order("archived_at desc, id desc").
		Find(&cards).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list archived cards: %w", err)
	}
	return cards, nil
}

// GetCard retrieves a card with its todos in display order.
func (s *Store) GetCard(ctx context.Context, cardID string) (*models.Card, error) {
	var card models.Card
	err := s.DB.WithContext(ctx).
		Preload("Todos", orderedTodos).
		First(&card, "id = ?", cardID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.CardNotFound(cardID)
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	if card.Todos == nil {
		card.Todos = []models.Todo{}
	}
	return &card, nil
}

// CreateCard inserts a new card and its creation entry.
func (s *Store) CreateCard(ctx context.Context, req ledger.CreateCardRequest) (*models.Card, error) {
	card, change, err := ledger.NewCard(req, s.now())
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(card).Error; err != nil {
			return fmt.Errorf("failed to create card: %w", err)
		}
		return insertChange(tx, change)
	})
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "card created", "card_id", card.ID, "amount", card.Amount.String())
	s.publish(ctx, *change)
	return card, nil
}

// UpdateCard applies a partial update to a card.
func (s *Store) UpdateCard(ctx context.Context, req ledger.UpdateCardRequest) (*models.Card, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *models.Card
	err := s.withCard(ctx, req.CardID, func(tx *gorm.DB, card *models.Card) (*models.ChangeLog, error) {
		if !req.Title.IsUnchanged() || !req.Amount.IsUnchanged() {
			if err := s.Policy.CheckEditable(card); err != nil {
				return nil, err
			}
		}
		change, err := ledger.UpdateCard(card, req, s.now())
		if err != nil {
			return nil, err
		}
		if err := saveCard(tx, card); err != nil {
			return nil, err
		}
		updated = card
		return change, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCard removes a card together with its todos.
func (s *Store) DeleteCard(ctx context.Context, cardID string) error {
	return s.withCard(ctx, cardID, func(tx *gorm.DB, card *models.Card) (*models.ChangeLog, error) {
		res := tx.Where("card_id = ?", cardID).Delete(&models.Todo{})
		if res.Error != nil {
			return nil, fmt.Errorf("failed to delete todos: %w", res.Error)
		}
		if err := tx.Delete(&models.Card{}, "id = ?", cardID).Error; err != nil {
			return nil, fmt.Errorf("failed to delete card: %w", err)
		}
		slog.DebugContext(tx.Statement.Context, "card deleted", "card_id", cardID, "todos", res.RowsAffected)
		return ledger.DeleteCard(card, int(res.RowsAffected), s.now()), nil
	})
}
