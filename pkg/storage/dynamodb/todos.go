package dynamodb

import (
	"context"

	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
)

// AddTodo creates a todo and deducts its amount from the card in one
// transaction.
func (s *Store) AddTodo(ctx context.Context, req ledger.AddTodoRequest) (*models.Todo, *models.Card, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	var todo *models.Todo
	m, err := s.mutate(ctx, req.CardID, func(card *models.Card, st cardState) (*mutation, error) {
		if err := s.Policy.CheckEditable(card); err != nil {
			return nil, err
		}
		// max_order is guarded by the card version like the balance.
		t, change, err := ledger.AddTodo(card, req, st.maxOrder+1, s.now())
		if err != nil {
			return nil, err
		}
		todo = t
		return &mutation{
			card:      card,
			putTodos:  []models.Todo{*t},
			change:    change,
			maxOrder:  t.OrderIndex,
			todoDelta: 1,
		}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return todo, m.card, nil
}

// UpdateTodo applies a partial update to a todo, moving the card balance by
// the difference between the old and new amounts.
func (s *Store) UpdateTodo(ctx context.Context, req ledger.UpdateTodoRequest) (*models.Todo, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	owner, err := s.loadTodo(ctx, req.TodoID)
	if err != nil {
		return nil, err
	}

	var todo *models.Todo
	_, err = s.mutate(ctx, owner.CardID, func(card *models.Card, _ cardState) (*mutation, error) {
		if err := s.Policy.CheckEditable(card); err != nil {
			return nil, err
		}
		t, err := s.loadTodo(ctx, req.TodoID)
		if err != nil {
			return nil, err
		}
		// The card version guards the todo as well: the balance is always
		// written back, even when it did not move.
		change, _, err := ledger.UpdateTodo(card, t, req, s.now())
		if err != nil {
			return nil, err
		}
		todo = t
		return &mutation{card: card, putTodos: []models.Todo{*t}, change: change, maxOrder: t.OrderIndex}, nil
	})
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// DeleteTodo removes a todo and restores its amount to the card.
func (s *Store) DeleteTodo(ctx context.Context, todoID string) error {
	owner, err := s.loadTodo(ctx, todoID)
	if err != nil {
		return err
	}

	_, err = s.mutate(ctx, owner.CardID, func(card *models.Card, _ cardState) (*mutation, error) {
		if err := s.Policy.CheckEditable(card); err != nil {
			return nil, err
		}
		t, err := s.loadTodo(ctx, todoID)
		if err != nil {
			return nil, err
		}
		change, _ := ledger.DeleteTodo(card, t, s.now())
		return &mutation{card: card, deleteTodos: []string{t.ID}, change: change, todoDelta: -1}, nil
	})
	return err
}
