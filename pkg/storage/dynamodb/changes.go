package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
	"github.com/chris/tin/pkg/search"
)

// RecentChanges retrieves the newest change-log entries.
func (s *Store) RecentChanges(ctx context.Context, limit int) ([]models.ChangeLog, error) {
	n := int32(ledger.ChangesLimit(limit))
	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.ChangesTableName),
		IndexName:              aws.String(changesIndex),
		KeyConditionExpression: aws.String("gsi1pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: changesPK},
		},
		ScanIndexForward: aws.Bool(false), // newest first
		Limit:            &n,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query change log: %w", err)
	}

	var items []changeItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal changes: %w", err)
	}
	changes := make([]models.ChangeLog, 0, len(items))
	for _, it := range items {
		change, err := it.model()
		if err != nil {
			return nil, err
		}
		changes = append(changes, *change)
	}
	return changes, nil
}

// Search evaluates q over cards and todos. Todos are read with a scan and
// joined to their cards in memory.
func (s *Store) Search(ctx context.Context, q search.Query) ([]models.SearchResult, error) {
	if q.Empty() {
		return []models.SearchResult{}, nil
	}

	var (
		cards []models.Card
		err   error
	)
	if q.IncludeArchived {
		cards, err = s.scanCards(ctx, "", nil)
	} else {
		cards, err = s.scanCards(ctx, "archived = :archived", map[string]types.AttributeValue{
			":archived": &types.AttributeValueMemberBOOL{Value: false},
		})
	}
	if err != nil {
		return nil, err
	}

	if !q.DateOnly() {
		byCard, err := s.scanTodos(ctx)
		if err != nil {
			return nil, err
		}
		for i := range cards {
			cards[i].Todos = byCard[cards[i].ID]
		}
	}
	return search.Run(q, cards), nil
}

func (s *Store) scanTodos(ctx context.Context) (map[string][]models.Todo, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.TodosTableName)}
	byCard := make(map[string][]models.Todo)
	for {
		result, err := s.Client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todos table: %w", err)
		}
		var items []todoItem
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal todos: %w", err)
		}
		for _, it := range items {
			todo, err := it.model()
			if err != nil {
				return nil, err
			}
			byCard[todo.CardID] = append(byCard[todo.CardID], *todo)
		}
		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return byCard, nil
}
