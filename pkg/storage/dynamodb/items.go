package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/tin/pkg/amount"
	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
	"github.com/shopspring/decimal"
)

// Amounts and timestamps are stored as strings. Timestamps use a fixed-width
// UTC layout so they sort lexically.

type cardItem struct {
	ID           string  `dynamodbav:"id"`
	Title        *string `dynamodbav:"title,omitempty"`
	Amount       string  `dynamodbav:"amount"`
	LockedAmount *string `dynamodbav:"locked_amount,omitempty"`
	Archived     bool    `dynamodbav:"archived"`
	ArchivedAt   *string `dynamodbav:"archived_at,omitempty"`
	CreatedAt    string  `dynamodbav:"created_at"`
	UpdatedAt    string  `dynamodbav:"updated_at"`
	Version      int64   `dynamodbav:"version"`
	MaxOrder     int     `dynamodbav:"max_order"`
	TodoCount    int     `dynamodbav:"todo_count"`
}

type todoItem struct {
	ID          string  `dynamodbav:"id"`
	CardID      string  `dynamodbav:"card_id"`
	Title       string  `dynamodbav:"title"`
	Amount      *string `dynamodbav:"amount,omitempty"`
	Done        bool    `dynamodbav:"done"`
	ScheduledAt *string `dynamodbav:"scheduled_at,omitempty"`
	OrderIndex  int     `dynamodbav:"order_index"`
	CreatedAt   string  `dynamodbav:"created_at"`
	UpdatedAt   string  `dynamodbav:"updated_at"`
}

type changeItem struct {
	ID        string `dynamodbav:"id"`
	CardID    string `dynamodbav:"card_id"`
	Kind      string `dynamodbav:"kind"`
	Payload   string `dynamodbav:"payload"`
	CreatedAt string `dynamodbav:"created_at"`
	GSI1PK    string `dynamodbav:"gsi1pk"`
	GSI1SK    string `dynamodbav:"gsi1sk"`
}

func newCardItem(c *models.Card, st cardState) cardItem {
	it := cardItem{
		ID:           c.ID,
		Title:        c.Title,
		Amount:       amount.Format(c.Amount),
		LockedAmount: amount.FormatNull(c.LockedAmount),
		Archived:     c.Archived,
		CreatedAt:    ledger.FormatTimestamp(c.CreatedAt),
		UpdatedAt:    ledger.FormatTimestamp(c.UpdatedAt),
		Version:      st.version,
		MaxOrder:     st.maxOrder,
		TodoCount:    st.todoCount,
	}
	if c.ArchivedAt != nil {
		at := ledger.FormatTimestamp(*c.ArchivedAt)
		it.ArchivedAt = &at
	}
	return it
}

func (it cardItem) state() cardState {
	return cardState{version: it.Version, maxOrder: it.MaxOrder, todoCount: it.TodoCount}
}

func (it cardItem) model() (*models.Card, error) {
	amt, err := amount.Parse(it.Amount)
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", it.ID, err)
	}
	locked, err := parseNullAmount(it.LockedAmount)
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", it.ID, err)
	}
	card := &models.Card{
		ID:           it.ID,
		Title:        it.Title,
		Amount:       amt,
		LockedAmount: locked,
		Archived:     it.Archived,
	}
	if card.ArchivedAt, err = parseTimePtr(it.ArchivedAt); err != nil {
		return nil, err
	}
	if card.CreatedAt, err = ledger.ParseTimestamp(it.CreatedAt); err != nil {
		return nil, err
	}
	if card.UpdatedAt, err = ledger.ParseTimestamp(it.UpdatedAt); err != nil {
		return nil, err
	}
	return card, nil
}

func newTodoItem(t *models.Todo) todoItem {
	it := todoItem{
		ID:         t.ID,
		CardID:     t.CardID,
		Title:      t.Title,
		Amount:     amount.FormatNull(t.Amount),
		Done:       t.Done,
		OrderIndex: t.OrderIndex,
		CreatedAt:  ledger.FormatTimestamp(t.CreatedAt),
		UpdatedAt:  ledger.FormatTimestamp(t.UpdatedAt),
	}
	if t.ScheduledAt != nil {
		at := ledger.FormatTimestamp(*t.ScheduledAt)
		it.ScheduledAt = &at
	}
	return it
}

func (it todoItem) model() (*models.Todo, error) {
	amt, err := parseNullAmount(it.Amount)
	if err != nil {
		return nil, fmt.Errorf("todo %s: %w", it.ID, err)
	}
	todo := &models.Todo{
		ID:         it.ID,
		CardID:     it.CardID,
		Title:      it.Title,
		Amount:     amt,
		Done:       it.Done,
		OrderIndex: it.OrderIndex,
	}
	if todo.ScheduledAt, err = parseTimePtr(it.ScheduledAt); err != nil {
		return nil, err
	}
	if todo.CreatedAt, err = ledger.ParseTimestamp(it.CreatedAt); err != nil {
		return nil, err
	}
	if todo.UpdatedAt, err = ledger.ParseTimestamp(it.UpdatedAt); err != nil {
		return nil, err
	}
	return todo, nil
}

func newChangeItem(c *models.ChangeLog) (changeItem, error) {
	payload, err := json.Marshal(c.Payload)
	if err != nil {
		return changeItem{}, fmt.Errorf("failed to marshal change payload: %w", err)
	}
	created := ledger.FormatTimestamp(c.CreatedAt)
	return changeItem{
		ID:        c.ID,
		CardID:    c.CardID,
		Kind:      string(c.Kind),
		Payload:   string(payload),
		CreatedAt: created,
		GSI1PK:    changesPK,
		GSI1SK:    created + "#" + c.ID,
	}, nil
}

func (it changeItem) model() (*models.ChangeLog, error) {
	var payload models.Payload
	if err := json.Unmarshal([]byte(it.Payload), &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal change payload: %w", err)
	}
	created, err := ledger.ParseTimestamp(it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &models.ChangeLog{
		ID:        it.ID,
		CardID:    it.CardID,
		Kind:      models.ChangeKind(it.Kind),
		Payload:   payload,
		CreatedAt: created,
	}, nil
}

func parseNullAmount(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := amount.Parse(*s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func parseTimePtr(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := ledger.ParseTimestamp(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}}
}

func versionAV(v int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

// putCardItem writes the card in state st. Version 1 means the card must not
// exist yet, any later version requires the previous one to be stored.
func (s *Store) putCardItem(c *models.Card, st cardState) (*types.Put, error) {
	item, err := attributevalue.MarshalMap(newCardItem(c, st))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal card: %w", err)
	}
	put := &types.Put{
		TableName: aws.String(s.CardsTableName),
		Item:      item,
	}
	if st.version <= 1 {
		put.ConditionExpression = aws.String("attribute_not_exists(id)")
	} else {
		put.ConditionExpression = aws.String("version = :version")
		put.ExpressionAttributeValues = map[string]types.AttributeValue{":version": versionAV(st.version - 1)}
	}
	return put, nil
}

func (s *Store) deleteCardItem(id string, version int64) *types.Delete {
	return &types.Delete{
		TableName:                 aws.String(s.CardsTableName),
		Key:                       idKey(id),
		ConditionExpression:       aws.String("version = :version"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":version": versionAV(version)},
	}
}

func (s *Store) putTodoItem(t *models.Todo) (*types.Put, error) {
	item, err := attributevalue.MarshalMap(newTodoItem(t))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal todo: %w", err)
	}
	return &types.Put{TableName: aws.String(s.TodosTableName), Item: item}, nil
}

func (s *Store) deleteTodoItem(id string) *types.Delete {
	return &types.Delete{TableName: aws.String(s.TodosTableName), Key: idKey(id)}
}

func (s *Store) putChangeItem(c *models.ChangeLog) (*types.Put, error) {
	it, err := newChangeItem(c)
	if err != nil {
		return nil, err
	}
	item, err := attributevalue.MarshalMap(it)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal change: %w", err)
	}
	return &types.Put{
		TableName:           aws.String(s.ChangesTableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	}, nil
}

// loadCard reads a card and its state with a strongly consistent read.
func (s *Store) loadCard(ctx context.Context, cardID string) (*models.Card, cardState, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.CardsTableName),
		Key:            idKey(cardID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, cardState{}, fmt.Errorf("failed to get card from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, cardState{}, ledger.CardNotFound(cardID)
	}

	var it cardItem
	if err := attributevalue.UnmarshalMap(result.Item, &it); err != nil {
		return nil, cardState{}, fmt.Errorf("failed to unmarshal card: %w", err)
	}
	card, err := it.model()
	if err != nil {
		return nil, cardState{}, err
	}
	return card, it.state(), nil
}

// loadTodo reads a single todo with a strongly consistent read.
func (s *Store) loadTodo(ctx context.Context, todoID string) (*models.Todo, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.TodosTableName),
		Key:            idKey(todoID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get todo from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, ledger.TodoNotFound(todoID)
	}

	var it todoItem
	if err := attributevalue.UnmarshalMap(result.Item, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal todo: %w", err)
	}
	return it.model()
}

// cardTodos lists the todos of a card in display order.
func (s *Store) cardTodos(ctx context.Context, cardID string) ([]models.Todo, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.TodosTableName),
		IndexName:              aws.String(todosByCardIndex),
		KeyConditionExpression: aws.String("card_id = :card_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":card_id": &types.AttributeValueMemberS{Value: cardID},
		},
	}

	todos := []models.Todo{}
	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query todos: %w", err)
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
			todos = append(todos, *todo)
		}
		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	ledger.SortTodos(todos)
	return todos, nil
}

// scanCards reads every card matching filter, which may be empty.
func (s *Store) scanCards(ctx context.Context, filter string, values map[string]types.AttributeValue) ([]models.Card, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.CardsTableName)}
	if filter != "" {
		input.FilterExpression = aws.String(filter)
		input.ExpressionAttributeValues = values
	}

	cards := []models.Card{}
	for {
		result, err := s.Client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cards table: %w", err)
		}
		var items []cardItem
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cards: %w", err)
		}
		for _, it := range items {
			card, err := it.model()
			if err != nil {
				return nil, err
			}
			cards = append(cards, *card)
		}
		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return cards, nil
}
