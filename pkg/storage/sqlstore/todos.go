package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
	"gorm.io/gorm"
)

// AddTodo creates a todo and deducts its amount from the card in one
// transaction.
func (s *Store) AddTodo(ctx context.Context, req ledger.AddTodoRequest) (*models.Todo, *models.Card, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	var (
		todo *models.Todo
		card *models.Card
	)
	err := s.withCard(ctx, req.CardID, func(tx *gorm.DB, c *models.Card) (*models.ChangeLog, error) {
		if err := s.Policy.CheckEditable(c); err != nil {
			return nil, err
		}

		var maxOrder int
		err := tx.Model(&models.Todo{}).
			Where("card_id = ?", c.ID).
			Select("COALESCE(MAX(order_index), 0)").
			Scan(&maxOrder).Error
		if err != nil {
			return nil, fmt.Errorf("failed to read todo order: %w", err)
		}

		t, change, err := ledger.AddTodo(c, req, maxOrder+1, s.now())
		if err != nil {
			return nil, err
		}
		if err := tx.Create(t).Error; err != nil {
			return nil, fmt.Errorf("failed to create todo: %w", err)
		}
		if err := saveCard(tx, c); err != nil {
			return nil, err
		}
		todo, card = t, c
		return change, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return todo, card, nil
}

// UpdateTodo applies a partial update to a todo, moving the card balance by
// the difference between the old and new amounts.
func (s *Store) UpdateTodo(ctx context.Context, req ledger.UpdateTodoRequest) (*models.Todo, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cardID, err := s.todoOwner(ctx, req.TodoID)
	if err != nil {
		return nil, err
	}

	var todo *models.Todo
	err = s.withCard(ctx, cardID, func(tx *gorm.DB, card *models.Card) (*models.ChangeLog, error) {
		if err := s.Policy.CheckEditable(card); err != nil {
			return nil, err
		}
		t, err := loadTodo(tx, req.TodoID, card.ID)
		if err != nil {
			return nil, err
		}

		change, moved, err := ledger.UpdateTodo(card, t, req, s.now())
		if err != nil {
			return nil, err
		}
		if err := tx.Save(t).Error; err != nil {
			return nil, fmt.Errorf("failed to save todo: %w", err)
		}
		if moved {
			if err := saveCard(tx, card); err != nil {
				return nil, err
			}
		}
		todo = t
		return change, nil
	})
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// DeleteTodo removes a todo and restores its amount to the card.
func (s *Store) DeleteTodo(ctx context.Context, todoID string) error {
	cardID, err := s.todoOwner(ctx, todoID)
	if err != nil {
		return err
	}

	return s.withCard(ctx, cardID, func(tx *gorm.DB, card *models.Card) (*models.ChangeLog, error) {
		if err := s.Policy.CheckEditable(card); err != nil {
			return nil, err
		}
		t, err := loadTodo(tx, todoID, card.ID)
		if err != nil {
			return nil, err
		}

		change, moved := ledger.DeleteTodo(card, t, s.now())
		if err := tx.Delete(t).Error; err != nil {
			return nil, fmt.Errorf("failed to delete todo: %w", err)
		}
		if moved {
			if err := saveCard(tx, card); err != nil {
				return nil, err
			}
		}
		return change, nil
	})
}

// todoOwner returns the id of the card a todo belongs to.
func (s *Store) todoOwner(ctx context.Context, todoID string) (string, error) {
	var todo models.Todo
	err := s.DB.WithContext(ctx).Select("id", "card_id").First(&todo, "id = ?", todoID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ledger.TodoNotFound(todoID)
		}
		return "", fmt.Errorf("failed to get todo: %w", err)
	}
	return todo.CardID, nil
}

// loadTodo re-reads a todo inside the card transaction; it may have been
// deleted since its owner was looked up.
func loadTodo(tx *gorm.DB, todoID, cardID string) (*models.Todo, error) {
	var todo models.Todo
	err := tx.First(&todo, "id = ? AND card_id = ?", todoID, cardID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.TodoNotFound(todoID)
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return &todo, nil
}
