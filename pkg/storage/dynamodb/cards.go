package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
)

// ListCards retrieves active cards, newest first.
func (s *Store) ListCards(ctx context.Context) ([]models.Card, error) {
	cards, err := s.scanCards(ctx, "archived = :archived", map[string]types.AttributeValue{
		":archived": &types.AttributeValueMemberBOOL{Value: false},
	})
	if err != nil {
		return nil, err
	}
	ledger.SortActive(cards)
	return cards, nil
}

// ListArchivedCards retrieves archived cards, most recently archived first.
func (s *Store) ListArchivedCards(ctx context.Context) ([]models.Card, error) {
	cards, err := s.scanCards(ctx, "archived = :archived", map[string]types.AttributeValue{
		":archived": &types.AttributeValueMemberBOOL{Value: true},
	})
	if err != nil {
		return nil, err
	}
	ledger.SortArchived(cards)
	return cards, nil
}

// GetCard retrieves a card with its todos in display order.
func (s *Store) GetCard(ctx context.Context, cardID string) (*models.Card, error) {
	card, _, err := s.loadCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.Todos, err = s.cardTodos(ctx, cardID); err != nil {
		return nil, err
	}
	return card, nil
}

// CreateCard writes a new card and its creation entry.
func (s *Store) CreateCard(ctx context.Context, req ledger.CreateCardRequest) (*models.Card, error) {
	card, change, err := ledger.NewCard(req, s.now())
	if err != nil {
		return nil, err
	}

	m := &mutation{card: card, change: change}
	if err := s.commit(ctx, m, cardState{}); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	s.publish(ctx, *change)
	return card, nil
}

// UpdateCard applies a partial update to a card.
func (s *Store) UpdateCard(ctx context.Context, req ledger.UpdateCardRequest) (*models.Card, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m, err := s.mutate(ctx, req.CardID, func(card *models.Card, _ cardState) (*mutation, error) {
		if !req.Title.IsUnchanged() || !req.Amount.IsUnchanged() {
			if err := s.Policy.CheckEditable(card); err != nil {
				return nil, err
			}
		}
		change, err := ledger.UpdateCard(card, req, s.now())
		if err != nil {
			return nil, err
		}
		return &mutation{card: card, change: change}, nil
	})
	if err != nil {
		return nil, err
	}
	return m.card, nil
}

// DeleteCard removes a card together with its todos. The card and its
// deletion entry are written in one transaction; the todos are removed
// afterwards in batches. Todos whose card is gone are never returned.
func (s *Store) DeleteCard(ctx context.Context, cardID string) error {
	_, err := s.mutate(ctx, cardID, func(card *models.Card, st cardState) (*mutation, error) {
		return &mutation{
			card:       card,
			deleteCard: true,
			change:     ledger.DeleteCard(card, st.todoCount, s.now()),
		}, nil
	})
	if err != nil {
		return err
	}

	if err := s.purgeTodos(ctx, cardID); err != nil {
		return fmt.Errorf("card %s deleted but its todos were not: %w", cardID, err)
	}
	return nil
}
