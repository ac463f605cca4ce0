package storage

import (
	"context"

	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
)

// TodoStore defines the interface for managing todos. Every operation keeps
// the owning card's balance consistent with the todo amounts.
type TodoStore interface {
	// AddTodo creates a todo and returns it along with the card after the
	// deduction.
	AddTodo(ctx context.Context, req ledger.AddTodoRequest) (*models.Todo, *models.Card, error)

	UpdateTodo(ctx context.Context, req ledger.UpdateTodoRequest) (*models.Todo, error)

	// DeleteTodo removes a todo and restores its amount to the card.
	DeleteTodo(ctx context.Context, todoID string) error
}
