package dynamodb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
	"github.com/chris/tin/pkg/storage"
)

// ArchiveCard moves a card out of the active set.
func (s *Store) ArchiveCard(ctx context.Context, cardID string) (*models.Card, error) {
	m, err := s.mutate(ctx, cardID, func(card *models.Card, _ cardState) (*mutation, error) {
		change := ledger.Archive(card, ledger.UserArchivePayload(), s.now())
		return &mutation{card: card, change: change}, nil
	})
	if err != nil {
		return nil, err
	}
	return m.card, nil
}

// UnarchiveCard returns a card to the active set.
func (s *Store) UnarchiveCard(ctx context.Context, cardID string) (*models.Card, error) {
	m, err := s.mutate(ctx, cardID, func(card *models.Card, _ cardState) (*mutation, error) {
		return &mutation{card: card, change: ledger.Unarchive(card, s.now())}, nil
	})
	if err != nil {
		return nil, err
	}
	return m.card, nil
}

// errFresh aborts the archival of a card that was touched after the scan.
var errFresh = errors.New("card no longer stale")

// ArchiveOldCards archives every active card whose last update is at or
// before now - maxAge. Each card is archived in its own transaction; a card
// that fails is logged and skipped so one bad item cannot stall the sweep.
func (s *Store) ArchiveOldCards(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := s.now().Add(-maxAge)

	stale, err := s.scanCards(ctx, "archived = :archived AND updated_at <= :cutoff", map[string]types.AttributeValue{
		":archived": &types.AttributeValueMemberBOOL{Value: false},
		":cutoff":   &types.AttributeValueMemberS{Value: ledger.FormatTimestamp(cutoff)},
	})
	if err != nil {
		return 0, err
	}

	archived := 0
	for _, candidate := range stale {
		_, err := s.mutate(ctx, candidate.ID, func(card *models.Card, _ cardState) (*mutation, error) {
			if card.Archived || card.UpdatedAt.After(cutoff) {
				return nil, errFresh
			}
			change := ledger.Archive(card, ledger.AutoArchivePayload(maxAge), s.now())
			return &mutation{card: card, change: change}, nil
		})
		switch {
		case err == nil:
			archived++
		case errors.Is(err, errFresh), errors.Is(err, storage.ErrNotFound):
		default:
			slog.ErrorContext(ctx, "failed to archive stale card", "card_id", candidate.ID, "error", err)
		}
	}
	return archived, nil
}
