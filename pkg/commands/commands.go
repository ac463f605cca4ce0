// Package commands dispatches named ledger commands with a JSON object of
// camelCase parameters, the way a desktop client invokes its backend.
package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/chris/tin/pkg/api"
	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/mapping"
	"github.com/chris/tin/pkg/storage"
)

// ErrUnknownCommand is returned for a command name that is not registered.
var ErrUnknownCommand = errors.New("unknown command")

type handlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Dispatcher routes command invocations to the store.
type Dispatcher struct {
	Store storage.Storage
	// MaxAge is the staleness threshold used by archive_old_cards.
	MaxAge time.Duration

	handlers map[string]handlerFunc
}

// New creates a new Dispatcher.
func New(store storage.Storage, maxAge time.Duration) *Dispatcher {
	d := &Dispatcher{Store: store, MaxAge: maxAge}
	d.handlers = map[string]handlerFunc{
		"list_cards":          d.listCards,
		"list_archived_cards": d.listArchivedCards,
		"get_card":            d.getCard,
		"create_card":         d.createCard,
		"update_card":         d.updateCard,
		"delete_card":         d.deleteCard,
		"add_todo":            d.addTodo,
		"update_todo":         d.updateTodo,
		"delete_todo":         d.deleteTodo,
		"search":              d.search,
		"recent_changes":      d.recentChanges,
		"archive_card":        d.archiveCard,
		"unarchive_card":      d.unarchiveCard,
		"archive_old_cards":   d.archiveOldCards,
	}
	return d
}

// Names returns the registered command names in sorted order.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named command. params may be empty or null for commands
// without parameters. The result is the API model of the command's output.
func (d *Dispatcher) Invoke(ctx context.Context, name string, params json.RawMessage) (any, error) {
	h, ok := d.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return h(ctx, params)
}

func decode(params json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return &ledger.ValidationError{Field: "params", Message: err.Error()}
	}
	return nil
}

func required(field, value string) error {
	if value == "" {
		return &ledger.ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

type cardParams struct {
	CardID string `json:"cardId"`
}

func (p *cardParams) load(params json.RawMessage) error {
	if err := decode(params, p); err != nil {
		return err
	}
	return required("card_id", p.CardID)
}

type todoParams struct {
	TodoID string `json:"todoId"`
}

func (d *Dispatcher) listCards(ctx context.Context, _ json.RawMessage) (any, error) {
	cards, err := d.Store.ListCards(ctx)
	if err != nil {
		return nil, err
	}
	return mapping.ToApiCards(cards), nil
}

func (d *Dispatcher) listArchivedCards(ctx context.Context, _ json.RawMessage) (any, error) {
	cards, err := d.Store.ListArchivedCards(ctx)
	if err != nil {
		return nil, err
	}
	return mapping.ToApiCards(cards), nil
}

func (d *Dispatcher) getCard(ctx context.Context, params json.RawMessage) (any, error) {
	var p cardParams
	if err := p.load(params); err != nil {
		return nil, err
	}
	card, err := d.Store.GetCard(ctx, p.CardID)
	if err != nil {
		return nil, err
	}
	return mapping.ToApiCardWithTodos(card), nil
}

func (d *Dispatcher) createCard(ctx context.Context, params json.RawMessage) (any, error) {
	var p api.NewCard
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	card, err := d.Store.CreateCard(ctx, mapping.ToCreateCardRequest(&p))
	if err != nil {
		return nil, err
	}
	return mapping.ToApiCard(card), nil
}

func (d *Dispatcher) updateCard(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		CardID string `json:"cardId"`
		api.CardPatch
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := required("card_id", p.CardID); err != nil {
		return nil, err
	}
	card, err := d.Store.UpdateCard(ctx, mapping.ToUpdateCardRequest(p.CardID, &p.CardPatch))
	if err != nil {
		return nil, err
	}
	return mapping.ToApiCard(card), nil
}

func (d *Dispatcher) deleteCard(ctx context.Context, params json.RawMessage) (any, error) {
	var p cardParams
	if err := p.load(params); err != nil {
		return nil, err
	}
	if err := d.Store.DeleteCard(ctx, p.CardID); err != nil {
		return nil, err
	}
	return api.OkResponse{Ok: true}, nil
}

func (d *Dispatcher) addTodo(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		CardID string `json:"cardId"`
		api.NewTodo
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	todo, card, err := d.Store.AddTodo(ctx, mapping.ToAddTodoRequest(p.CardID, &p.NewTodo))
	if err != nil {
		return nil, err
	}
	return mapping.ToAddTodoResult(todo, card), nil
}

func (d *Dispatcher) updateTodo(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		TodoID string `json:"todoId"`
		api.TodoPatch
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	todo, err := d.Store.UpdateTodo(ctx, mapping.ToUpdateTodoRequest(p.TodoID, &p.TodoPatch))
	if err != nil {
		return nil, err
	}
	return mapping.ToApiTodo(todo), nil
}

func (d *Dispatcher) deleteTodo(ctx context.Context, params json.RawMessage) (any, error) {
	var p todoParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if err := required("todo_id", p.TodoID); err != nil {
		return nil, err
	}
	if err := d.Store.DeleteTodo(ctx, p.TodoID); err != nil {
		return nil, err
	}
	return api.OkResponse{Ok: true}, nil
}

func (d *Dispatcher) search(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Query           string `json:"query"`
		IncludeArchived *bool  `json:"includeArchived"`
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	q := mapping.ToSearchQuery(api.SearchParams{Q: &p.Query, IncludeArchived: p.IncludeArchived})
	results, err := d.Store.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return mapping.ToApiSearchResults(results), nil
}

func (d *Dispatcher) recentChanges(ctx context.Context, params json.RawMessage) (any, error) {
	var p api.RecentChangesParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	limit := 0
	if p.Limit != nil {
		limit = *p.Limit
	}
	changes, err := d.Store.RecentChanges(ctx, limit)
	if err != nil {
		return nil, err
	}
	return mapping.ToApiChanges(changes), nil
}

func (d *Dispatcher) archiveCard(ctx context.Context, params json.RawMessage) (any, error) {
	var p cardParams
	if err := p.load(params); err != nil {
		return nil, err
	}
	card, err := d.Store.ArchiveCard(ctx, p.CardID)
	if err != nil {
		return nil, err
	}
	return mapping.ToApiCard(card), nil
}

func (d *Dispatcher) unarchiveCard(ctx context.Context, params json.RawMessage) (any, error) {
	var p cardParams
	if err := p.load(params); err != nil {
		return nil, err
	}
	card, err := d.Store.UnarchiveCard(ctx, p.CardID)
	if err != nil {
		return nil, err
	}
	return mapping.ToApiCard(card), nil
}

func (d *Dispatcher) archiveOldCards(ctx context.Context, _ json.RawMessage) (any, error) {
	n, err := d.Store.ArchiveOldCards(ctx, d.MaxAge)
	if err != nil {
		return nil, err
	}
	return api.ArchiveResult{ArchivedCount: n}, nil
}
