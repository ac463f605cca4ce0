// Package ledger holds the balance-consistency rules shared by every store:
// request validation, exact decimal deductions and the change-log entry that
// describes each mutation.
//
// Functions in this package only mutate values in memory. Stores load the
// current state, apply one of these functions and persist the result together
// with the returned change-log entry in a single transaction.
package ledger

import (
	"time"

	"github.com/chris/tin/pkg/amount"
	"github.com/chris/tin/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reasons recorded in archival change-log entries.
const (
	ReasonUserArchive   = "user_archive"
	ReasonUserUnarchive = "user_unarchive"
	ReasonAutoArchive   = "auto_archive"
)

// NewID returns an identifier for a card or todo.
func NewID() string {
	return uuid.New().String()
}

// NewChange builds a change-log entry. Its id is a UUIDv7, so ids sort in
// insertion order.
func NewChange(cardID string, kind models.ChangeKind, payload models.Payload, now time.Time) *models.ChangeLog {
	return &models.ChangeLog{
		ID:        uuid.Must(uuid.NewV7()).String(),
		CardID:    cardID,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: now,
	}
}

// NewCard creates a card from a create_card request.
func NewCard(req CreateCardRequest, now time.Time) (*models.Card, *models.ChangeLog, error) {
	amt, err := parseAmount("amount", req.Amount)
	if err != nil {
		return nil, nil, err
	}
	card := &models.Card{
		ID:        NewID(),
		Title:     req.Title,
		Amount:    amt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	change := NewChange(card.ID, models.KindCreated, models.Payload{
		"title":  stringOrNil(req.Title),
		"amount": amount.Format(amt),
	}, now)
	return card, change, nil
}

// UpdateCard applies the provided fields of req to card.
func UpdateCard(card *models.Card, req UpdateCardRequest, now time.Time) (*models.ChangeLog, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	payload := models.Payload{}

	// The payload only lists fields whose value actually changed.
	if !req.Title.IsUnchanged() {
		next := req.Title.Ptr()
		if !sameString(card.Title, next) {
			payload["title"] = stringOrNil(next)
		}
		card.Title = next
	}
	if req.Amount.IsSet() {
		next, err := parseAmount("amount", req.Amount.Value())
		if err != nil {
			return nil, err
		}
		if !next.Equal(card.Amount) {
			payload["amount"] = amount.Format(next)
			payload["amount_change"] = amount.Transition(card.Amount, next)
		}
		card.Amount = next
	}
	if !req.LockedAmount.IsUnchanged() {
		locked, err := parseNullAmount("locked_amount", req.LockedAmount.Ptr())
		if err != nil {
			return nil, err
		}
		if !sameAmount(card.LockedAmount, locked) {
			payload["locked_amount"] = stringOrNil(amount.FormatNull(locked))
		}
		card.LockedAmount = locked
	}

	card.UpdatedAt = now
	return NewChange(card.ID, models.KindUpdated, payload, now), nil
}

// DeleteCard describes the removal of card and its todoCount todos.
func DeleteCard(card *models.Card, todoCount int, now time.Time) *models.ChangeLog {
	return NewChange(card.ID, models.KindDeleted, models.Payload{
		"title":      stringOrNil(card.Title),
		"amount":     amount.Format(card.Amount),
		"todo_count": todoCount,
	}, now)
}

// AddTodo creates a todo on card and deducts its amount from the card's
// balance. nextOrder is the order index assigned to the new todo.
func AddTodo(card *models.Card, req AddTodoRequest, nextOrder int, now time.Time) (*models.Todo, *models.ChangeLog, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	amt, err := parseNullAmount("amount", req.Amount)
	if err != nil {
		return nil, nil, err
	}

	scheduled := now
	if !req.UseCurrentTime {
		if scheduled, err = parseTimestamp("scheduled_at", *req.ScheduledAt); err != nil {
			return nil, nil, err
		}
	}

	todo := &models.Todo{
		ID:          NewID(),
		CardID:      card.ID,
		Title:       req.Title,
		Amount:      amt,
		ScheduledAt: &scheduled,
		OrderIndex:  nextOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	before := card.Amount
	card.Amount = Deduct(card.Amount, amt)
	card.UpdatedAt = now

	change := NewChange(card.ID, models.KindTodoAdded, models.Payload{
		"todo_id":            todo.ID,
		"title":              todo.Title,
		"amount":             stringOrNil(amount.FormatNull(amt)),
		"card_amount_change": amount.Transition(before, card.Amount),
	}, now)
	return todo, change, nil
}

// UpdateTodo applies req to todo. When the amount changes, the previous
// amount is restored to card and the new one deducted. It reports whether the
// card balance moved.
func UpdateTodo(card *models.Card, todo *models.Todo, req UpdateTodoRequest, now time.Time) (*models.ChangeLog, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}
	payload := models.Payload{"todo_id": todo.ID}

	if req.Title.IsSet() {
		todo.Title = req.Title.Value()
	}
	if req.Done != nil {
		todo.Done = *req.Done
	}
	if req.OrderIndex != nil {
		todo.OrderIndex = *req.OrderIndex
		payload["order_index"] = todo.OrderIndex
	}
	if !req.ScheduledAt.IsUnchanged() {
		todo.ScheduledAt = nil
		payload["scheduled_at"] = nil
		if req.ScheduledAt.IsSet() {
			t, err := parseTimestamp("scheduled_at", req.ScheduledAt.Value())
			if err != nil {
				return nil, false, err
			}
			todo.ScheduledAt = &t
			payload["scheduled_at"] = FormatTimestamp(t)
		}
	}

	moved := false
	if !req.Amount.IsUnchanged() {
		next, err := parseNullAmount("amount", req.Amount.Ptr())
		if err != nil {
			return nil, false, err
		}
		if !sameAmount(todo.Amount, next) {
			before := card.Amount
			card.Amount = Deduct(Restore(card.Amount, todo.Amount), next)
			card.UpdatedAt = now
			moved = true
			payload["card_amount_change"] = amount.Transition(before, card.Amount)
		}
		todo.Amount = next
		payload["amount"] = stringOrNil(amount.FormatNull(next))
	}

	todo.UpdatedAt = now
	payload["title"] = todo.Title
	payload["done"] = todo.Done
	return NewChange(card.ID, models.KindTodoUpdated, payload, now), moved, nil
}

// DeleteTodo restores the todo's amount to card and describes the removal.
// It reports whether the card balance moved.
func DeleteTodo(card *models.Card, todo *models.Todo, now time.Time) (*models.ChangeLog, bool) {
	payload := models.Payload{
		"todo_id": todo.ID,
		"title":   todo.Title,
		"amount":  stringOrNil(amount.FormatNull(todo.Amount)),
	}
	moved := todo.Amount.Valid
	if moved {
		before := card.Amount
		card.Amount = Restore(card.Amount, todo.Amount)
		card.UpdatedAt = now
		payload["card_amount_change"] = amount.Transition(before, card.Amount)
	}
	return NewChange(card.ID, models.KindTodoDeleted, payload, now), moved
}

// Archive moves card out of the active set. An already archived card keeps
// its original archived_at.
func Archive(card *models.Card, payload models.Payload, now time.Time) *models.ChangeLog {
	if !card.Archived || card.ArchivedAt == nil {
		at := now
		card.ArchivedAt = &at
	}
	card.Archived = true
	card.UpdatedAt = now
	return NewChange(card.ID, models.KindArchived, payload, now)
}

// Unarchive returns card to the active set.
func Unarchive(card *models.Card, now time.Time) *models.ChangeLog {
	card.Archived = false
	card.ArchivedAt = nil
	card.UpdatedAt = now
	return NewChange(card.ID, models.KindUnarchived, models.Payload{"reason": ReasonUserUnarchive}, now)
}

// UserArchivePayload is recorded when a user archives a card.
func UserArchivePayload() models.Payload {
	return models.Payload{"reason": ReasonUserArchive}
}

// AutoArchivePayload is recorded when the age-based sweep archives a card.
func AutoArchivePayload(maxAge time.Duration) models.Payload {
	return models.Payload{
		"reason":         ReasonAutoArchive,
		"threshold_days": int(maxAge / (24 * time.Hour)),
	}
}

// Deduct subtracts a todo amount from a balance. A null amount has no effect.
func Deduct(balance decimal.Decimal, amt decimal.NullDecimal) decimal.Decimal {
	if !amt.Valid {
		return balance
	}
	return balance.Sub(amt.Decimal)
}

// Restore reverses Deduct.
func Restore(balance decimal.Decimal, amt decimal.NullDecimal) decimal.Decimal {
	if !amt.Valid {
		return balance
	}
	return balance.Add(amt.Decimal)
}

func sameAmount(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
