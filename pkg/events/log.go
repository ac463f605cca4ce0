package events

import (
	"context"
	"log/slog"

	"github.com/chris/tin/pkg/models"
)

// LogPublisher writes every change-log entry to a structured logger.
type LogPublisher struct {
	Logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher. A nil logger uses slog.Default.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{Logger: logger}
}

var _ Publisher = (*LogPublisher)(nil)

func (p *LogPublisher) Publish(ctx context.Context, change models.ChangeLog) error {
	e := NewEvent(change)
	p.Logger.LogAttrs(ctx, slog.LevelInfo, "ledger change",
		slog.String("id", e.ID),
		slog.String("card_id", e.CardID),
		slog.String("kind", e.Kind),
		slog.Any("payload", e.Payload),
		slog.String("created_at", e.CreatedAt),
	)
	return nil
}
