// Package api defines the HTTP surface of the ledger: wire models, the server
// interface implemented by the handlers, and the chi router that binds
// request parameters onto it.
package api

import "github.com/chris/tin/pkg/ledger"

// Card is the wire form of a card. Amounts are decimal strings and
// timestamps are ISO-8601 UTC with millisecond precision.
type Card struct {
	Id           string  `json:"id"`
	Title        *string `json:"title"`
	Amount       string  `json:"amount"`
	LockedAmount *string `json:"locked_amount"`
	Archived     bool    `json:"archived"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
	ArchivedAt   *string `json:"archived_at"`
}

// CardWithTodos is a card together with its todos in display order.
type CardWithTodos struct {
	Card
	Todos []Todo `json:"todos"`
}

// Todo is the wire form of a todo.
type Todo struct {
	Id          string  `json:"id"`
	CardId      string  `json:"card_id"`
	Title       string  `json:"title"`
	Amount      *string `json:"amount"`
	Done        bool    `json:"done"`
	ScheduledAt *string `json:"scheduled_at"`
	OrderIndex  int     `json:"order_index"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// ChangeLogEntry is the wire form of an audit record.
type ChangeLogEntry struct {
	Id        string         `json:"id"`
	CardId    string         `json:"card_id"`
	Kind      string         `json:"kind"`
	Payload   map[string]any `json:"payload"`
	CreatedAt string         `json:"created_at"`
}

type SearchResult struct {
	CardId    string  `json:"card_id"`
	TodoId    *string `json:"todo_id"`
	CardTitle *string `json:"card_title"`
	TodoTitle *string `json:"todo_title"`
	Snippet   string  `json:"snippet"`
}

// AddTodoResult is returned by add_todo: the new todo and the card after the
// deduction.
type AddTodoResult struct {
	Todo        Todo `json:"todo"`
	UpdatedCard Card `json:"updated_card"`
}

type OkResponse struct {
	Ok bool `json:"ok"`
}

type ArchiveResult struct {
	ArchivedCount int `json:"archived_count"`
}

type Health struct {
	Status string `json:"status"`
}

// NewCard is the request body of create_card.
type NewCard struct {
	Title  *string `json:"title"`
	Amount string  `json:"amount"`
}

// CardPatch is the request body of update_card. An omitted key leaves the
// field unchanged, null clears it.
type CardPatch struct {
	Title        ledger.Optional[string] `json:"title"`
	Amount       ledger.Optional[string] `json:"amount"`
	LockedAmount ledger.Optional[string] `json:"lockedAmount"`
}

// NewTodo is the request body of add_todo. UseCurrentTime defaults to true.
type NewTodo struct {
	Title          string  `json:"title"`
	Amount         *string `json:"amount"`
	UseCurrentTime *bool   `json:"useCurrentTime"`
	ScheduledAt    *string `json:"scheduledAt"`
}

// TodoPatch is the request body of update_todo.
type TodoPatch struct {
	Title       ledger.Optional[string] `json:"title"`
	Amount      ledger.Optional[string] `json:"amount"`
	Done        *bool                   `json:"done"`
	ScheduledAt ledger.Optional[string] `json:"scheduledAt"`
	OrderIndex  *int                    `json:"orderIndex"`
}

// SearchParams defines parameters for Search.
type SearchParams struct {
	Q               *string `form:"q" json:"q"`
	IncludeArchived *bool   `form:"include_archived" json:"include_archived"`
}

// RecentChangesParams defines parameters for RecentChanges.
type RecentChangesParams struct {
	Limit *int `form:"limit" json:"limit"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Kind    string  `json:"kind"`
	Field   *string `json:"field,omitempty"`
	Message string  `json:"message"`
}
