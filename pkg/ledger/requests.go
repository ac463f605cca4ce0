package ledger

import (
	"strings"
	"time"

	"github.com/chris/tin/pkg/amount"
	"github.com/shopspring/decimal"
)

// CreateCardRequest carries the parameters of create_card.
type CreateCardRequest struct {
	Title  *string `json:"title"`
	Amount string  `json:"amount"`
}

// Validate checks the request before any state is touched.
func (r CreateCardRequest) Validate() error {
	_, err := parseAmount("amount", r.Amount)
	return err
}

// UpdateCardRequest carries the parameters of update_card.
type UpdateCardRequest struct {
	CardID       string           `json:"cardId"`
	Title        Optional[string] `json:"title"`
	Amount       Optional[string] `json:"amount"`
	LockedAmount Optional[string] `json:"lockedAmount"`
}

func (r UpdateCardRequest) Validate() error {
	if r.CardID == "" {
		return invalid("card_id", "is required")
	}
	if r.Amount.IsClear() {
		return invalid("amount", "cannot be null")
	}
	if r.Amount.IsSet() {
		if _, err := parseAmount("amount", r.Amount.Value()); err != nil {
			return err
		}
	}
	if r.LockedAmount.IsSet() {
		if _, err := parseAmount("locked_amount", r.LockedAmount.Value()); err != nil {
			return err
		}
	}
	return nil
}

// AddTodoRequest carries the parameters of add_todo.
type AddTodoRequest struct {
	CardID         string  `json:"cardId"`
	Title          string  `json:"title"`
	Amount         *string `json:"amount"`
	UseCurrentTime bool    `json:"useCurrentTime"`
	ScheduledAt    *string `json:"scheduledAt"`
}

func (r AddTodoRequest) Validate() error {
	if r.CardID == "" {
		return invalid("card_id", "is required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return invalid("title", "is required")
	}
	if r.Amount != nil {
		if _, err := parseAmount("amount", *r.Amount); err != nil {
			return err
		}
	}
	if r.UseCurrentTime {
		return nil
	}
	if r.ScheduledAt == nil {
		return invalid("scheduled_at", "is required when the current time is not used")
	}
	_, err := parseTimestamp("scheduled_at", *r.ScheduledAt)
	return err
}

// UpdateTodoRequest carries the parameters of update_todo.
type UpdateTodoRequest struct {
	TodoID      string           `json:"todoId"`
	Title       Optional[string] `json:"title"`
	Amount      Optional[string] `json:"amount"`
	Done        *bool            `json:"done"`
	ScheduledAt Optional[string] `json:"scheduledAt"`
	OrderIndex  *int             `json:"orderIndex"`
}

func (r UpdateTodoRequest) Validate() error {
	if r.TodoID == "" {
		return invalid("todo_id", "is required")
	}
	if r.Title.IsClear() || (r.Title.IsSet() && strings.TrimSpace(r.Title.Value()) == "") {
		return invalid("title", "is required")
	}
	if r.Amount.IsSet() {
		if _, err := parseAmount("amount", r.Amount.Value()); err != nil {
			return err
		}
	}
	if r.ScheduledAt.IsSet() {
		if _, err := parseTimestamp("scheduled_at", r.ScheduledAt.Value()); err != nil {
			return err
		}
	}
	if r.OrderIndex != nil && *r.OrderIndex < 0 {
		return invalid("order_index", "must not be negative")
	}
	return nil
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	d, err := amount.Parse(s)
	if err != nil {
		return decimal.Zero, invalid(field, "%q is not a decimal number", s)
	}
	return d, nil
}

func parseNullAmount(field string, s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := parseAmount(field, *s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp accepts ISO-8601 timestamps, with or without a zone.
// Values without a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	return parseTimestamp("timestamp", s)
}

func parseTimestamp(field, s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, invalid(field, "%q is not an ISO-8601 timestamp", s)
}

// FormatTimestamp renders t the way timestamps cross the wire.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
