// Package events publishes committed change-log entries to subscribers.
package events

import (
	"context"

	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
)

// Publisher defines the interface for a component that fans out committed
// change-log entries.
type Publisher interface {
	// Publish is called after the entry's transaction has committed.
	Publish(ctx context.Context, change models.ChangeLog) error
}

// Event is the wire form of a published change-log entry.
type Event struct {
	ID        string         `json:"id"`
	CardID    string         `json:"card_id"`
	Kind      string         `json:"kind"`
	Payload   models.Payload `json:"payload"`
	CreatedAt string         `json:"created_at"`
}

// NewEvent converts a change-log entry into its wire form.
func NewEvent(change models.ChangeLog) Event {
	return Event{
		ID:        change.ID,
		CardID:    change.CardID,
		Kind:      string(change.Kind),
		Payload:   change.Payload,
		CreatedAt: ledger.FormatTimestamp(change.CreatedAt),
	}
}

// NoOpPublisher is a publisher that does nothing.
type NoOpPublisher struct{}

// Publish does nothing.
func (p *NoOpPublisher) Publish(ctx context.Context, change models.ChangeLog) error {
	return nil
}
