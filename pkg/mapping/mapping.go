package mapping

import (
	"time"

	"github.com/chris/tin/pkg/amount"
	"github.com/chris/tin/pkg/api"
	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
	"github.com/chris/tin/pkg/search"
)

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := ledger.FormatTimestamp(*t)
	return &s
}

// ToApiCard converts a domain Card model to an API Card model.
func ToApiCard(card *models.Card) *api.Card {
	return &api.Card{
		Id:           card.ID,
		Title:        card.Title,
		Amount:       amount.Format(card.Amount),
		LockedAmount: amount.FormatNull(card.LockedAmount),
		Archived:     card.Archived,
		CreatedAt:    ledger.FormatTimestamp(card.CreatedAt),
		UpdatedAt:    ledger.FormatTimestamp(card.UpdatedAt),
		ArchivedAt:   formatTime(card.ArchivedAt),
	}
}

// ToApiCards converts a list of cards. The result is never nil so it encodes
// as an empty JSON array.
func ToApiCards(cards []models.Card) []api.Card {
	out := make([]api.Card, len(cards))
	for i := range cards {
		out[i] = *ToApiCard(&cards[i])
	}
	return out
}

// ToApiCardWithTodos converts a card and its loaded todos.
func ToApiCardWithTodos(card *models.Card) *api.CardWithTodos {
	todos := make([]api.Todo, len(card.Todos))
	for i := range card.Todos {
		todos[i] = *ToApiTodo(&card.Todos[i])
	}
	return &api.CardWithTodos{
		Card:  *ToApiCard(card),
		Todos: todos,
	}
}

// ToApiTodo converts a domain Todo model to an API Todo model.
func ToApiTodo(todo *models.Todo) *api.Todo {
	return &api.Todo{
		Id:          todo.ID,
		CardId:      todo.CardID,
		Title:       todo.Title,
		Amount:      amount.FormatNull(todo.Amount),
		Done:        todo.Done,
		ScheduledAt: formatTime(todo.ScheduledAt),
		OrderIndex:  todo.OrderIndex,
		CreatedAt:   ledger.FormatTimestamp(todo.CreatedAt),
		UpdatedAt:   ledger.FormatTimestamp(todo.UpdatedAt),
	}
}

// ToApiChanges converts change-log entries, keeping their order.
func ToApiChanges(changes []models.ChangeLog) []api.ChangeLogEntry {
	out := make([]api.ChangeLogEntry, len(changes))
	for i, c := range changes {
		payload := map[string]any(c.Payload)
		if payload == nil {
			payload = map[string]any{}
		}
		out[i] = api.ChangeLogEntry{
			Id:        c.ID,
			CardId:    c.CardID,
			Kind:      string(c.Kind),
			Payload:   payload,
			CreatedAt: ledger.FormatTimestamp(c.CreatedAt),
		}
	}
	return out
}

// ToApiSearchResults converts search results, keeping their rank order.
func ToApiSearchResults(results []models.SearchResult) []api.SearchResult {
	out := make([]api.SearchResult, len(results))
	for i, r := range results {
		out[i] = api.SearchResult{
			CardId:    r.CardID,
			TodoId:    r.TodoID,
			CardTitle: r.CardTitle,
			TodoTitle: r.TodoTitle,
			Snippet:   r.Snippet,
		}
	}
	return out
}

// ToAddTodoResult pairs the created todo with the card after the deduction.
func ToAddTodoResult(todo *models.Todo, card *models.Card) *api.AddTodoResult {
	return &api.AddTodoResult{
		Todo:        *ToApiTodo(todo),
		UpdatedCard: *ToApiCard(card),
	}
}

// ToCreateCardRequest converts an API NewCard into a ledger request.
func ToCreateCardRequest(newCard *api.NewCard) ledger.CreateCardRequest {
	return ledger.CreateCardRequest{
		Title:  newCard.Title,
		Amount: newCard.Amount,
	}
}

// ToUpdateCardRequest converts an API CardPatch into a ledger request.
func ToUpdateCardRequest(cardId string, patch *api.CardPatch) ledger.UpdateCardRequest {
	return ledger.UpdateCardRequest{
		CardID:       cardId,
		Title:        patch.Title,
		Amount:       patch.Amount,
		LockedAmount: patch.LockedAmount,
	}
}

// ToAddTodoRequest converts an API NewTodo into a ledger request. An omitted
// useCurrentTime means the todo is scheduled now.
func ToAddTodoRequest(cardId string, newTodo *api.NewTodo) ledger.AddTodoRequest {
	useCurrentTime := true
	if newTodo.UseCurrentTime != nil {
		useCurrentTime = *newTodo.UseCurrentTime
	}
	return ledger.AddTodoRequest{
		CardID:         cardId,
		Title:          newTodo.Title,
		Amount:         newTodo.Amount,
		UseCurrentTime: useCurrentTime,
		ScheduledAt:    newTodo.ScheduledAt,
	}
}

// ToUpdateTodoRequest converts an API TodoPatch into a ledger request.
func ToUpdateTodoRequest(todoId string, patch *api.TodoPatch) ledger.UpdateTodoRequest {
	return ledger.UpdateTodoRequest{
		TodoID:      todoId,
		Title:       patch.Title,
		Amount:      patch.Amount,
		Done:        patch.Done,
		ScheduledAt: patch.ScheduledAt,
		OrderIndex:  patch.OrderIndex,
	}
}

// ToSearchQuery parses the raw query string of a search request.
func ToSearchQuery(params api.SearchParams) search.Query {
	var raw string
	if params.Q != nil {
		raw = *params.Q
	}
	q := search.Parse(raw)
	q.IncludeArchived = params.IncludeArchived != nil && *params.IncludeArchived
	return q
}
