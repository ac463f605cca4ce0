// Package dynamodb implements the storage interfaces on AWS DynamoDB.
//
// Cards, todos and change-log entries live in three tables. Every mutation is
// a single TransactWriteItems call conditioned on the card's version
// attribute, so concurrent writers of the same card cannot interleave.
// Deleting a card is the exception: its todos are removed in batches after
// the card itself is gone.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/tin/pkg/events"
	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
	"github.com/chris/tin/pkg/storage"
)

const (
	// Global secondary index on the todos table keyed by card_id.
	todosByCardIndex = "card_id-index"
	// Global secondary index on the change-log table keyed by gsi1pk and
	// sorted by gsi1sk.
	changesIndex = "gsi1pk-gsi1sk-index"
	changesPK    = "CHANGES"

	// maxAttempts bounds the optimistic-lock retries of a mutation and the
	// retries of unprocessed batch writes.
	maxAttempts = 3
	// DynamoDB accepts at most this many requests per BatchWriteItem call.
	maxBatchWrite = 25
	// maxPurgePasses bounds how often the todo index is re-read after a card
	// was deleted.
	maxPurgePasses = 5
)

// DynamoDBAPI is the subset of the DynamoDB client used by Store.
type DynamoDBAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store implements the Storage interface using AWS DynamoDB.
type Store struct {
	Client           DynamoDBAPI
	Publisher        events.Publisher
	Policy           ledger.Policy
	Now              func() time.Time
	CardsTableName   string
	TodosTableName   string
	ChangesTableName string
	// PurgeBackoff is the pause before the todo index is read again while
	// removing the todos of a deleted card.
	PurgeBackoff time.Duration
}

// New creates a new Store.
func New(client DynamoDBAPI, publisher events.Publisher, policy ledger.Policy, cardsTable, todosTable, changesTable string) *Store {
	return &Store{
		Client:           client,
		Publisher:        publisher,
		Policy:           policy,
		Now:              time.Now,
		CardsTableName:   cardsTable,
		TodosTableName:   todosTable,
		ChangesTableName: changesTable,
		PurgeBackoff:     200 * time.Millisecond,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

func (s *Store) now() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().UTC().Truncate(time.Millisecond)
}

// cardState holds the bookkeeping attributes of a card item that are not part
// of the domain model.
type cardState struct {
	version int64
	// maxOrder is the highest order_index ever given to a todo of the card.
	maxOrder  int
	todoCount int
}

// mutation is the set of writes produced by one ledger operation.
type mutation struct {
	// card is written back with the next version unless deleteCard is set.
	card        *models.Card
	deleteCard  bool
	putTodos    []models.Todo
	deleteTodos []string
	change      *models.ChangeLog
	// maxOrder raises the card's max_order when it is larger.
	maxOrder  int
	todoDelta int
}

// mutate loads cardID, lets fn compute the writes and commits them in one
// transaction conditioned on the version that was read. Conflicting writers
// cause a reload and another attempt.
func (s *Store) mutate(ctx context.Context, cardID string, fn func(card *models.Card, st cardState) (*mutation, error)) (*mutation, error) {
	for attempt := 1; ; attempt++ {
		card, st, err := s.loadCard(ctx, cardID)
		if err != nil {
			return nil, err
		}
		m, err := fn(card, st)
		if err != nil {
			return nil, err
		}

		err = s.commit(ctx, m, st)
		if err == nil {
			s.publish(ctx, *m.change)
			return m, nil
		}
		if !errors.Is(err, storage.ErrConflict) || attempt == maxAttempts {
			return nil, err
		}
		slog.DebugContext(ctx, "card changed concurrently, retrying", "card_id", cardID, "attempt", attempt)
	}
}

// commit writes m in one transaction. st is the state the card was read in;
// the zero state means the card is new.
func (s *Store) commit(ctx context.Context, m *mutation, st cardState) error {
	items := make([]types.TransactWriteItem, 0, 2+len(m.putTodos)+len(m.deleteTodos))

	if m.deleteCard {
		items = append(items, types.TransactWriteItem{Delete: s.deleteCardItem(m.card.ID, st.version)})
	} else {
		next := cardState{
			version:   st.version + 1,
			maxOrder:  max(st.maxOrder, m.maxOrder),
			todoCount: max(st.todoCount+m.todoDelta, 0),
		}
		put, err := s.putCardItem(m.card, next)
		if err != nil {
			return err
		}
		items = append(items, types.TransactWriteItem{Put: put})
	}
	for i := range m.putTodos {
		put, err := s.putTodoItem(&m.putTodos[i])
		if err != nil {
			return err
		}
		items = append(items, types.TransactWriteItem{Put: put})
	}
	for _, id := range m.deleteTodos {
		items = append(items, types.TransactWriteItem{Delete: s.deleteTodoItem(id)})
	}
	put, err := s.putChangeItem(m.change)
	if err != nil {
		return err
	}
	items = append(items, types.TransactWriteItem{Put: put})

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		if isConditionFailure(err) {
			return fmt.Errorf("card %s: %w", m.card.ID, storage.ErrConflict)
		}
		return fmt.Errorf("failed to execute transaction: %w", err)
	}
	return nil
}

// purgeTodos removes the todos of a card that no longer exists. The card_id
// index is eventually consistent, so it is read again after every pass until
// it comes back empty.
func (s *Store) purgeTodos(ctx context.Context, cardID string) error {
	deleted := make(map[string]bool)
	for pass := 1; pass <= maxPurgePasses; pass++ {
		todos, err := s.cardTodos(ctx, cardID)
		if err != nil {
			return err
		}
		if len(todos) == 0 {
			return nil
		}

		var ids []string
		for _, t := range todos {
			if !deleted[t.ID] {
				ids = append(ids, t.ID)
			}
		}
		if err := s.deleteTodoItems(ctx, ids); err != nil {
			return err
		}
		for _, id := range ids {
			deleted[id] = true
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.PurgeBackoff):
		}
	}
	slog.WarnContext(ctx, "todo index still lists todos of deleted card", "card_id", cardID, "deleted", len(deleted))
	return nil
}

// deleteTodoItems deletes todos in batches, resending unprocessed requests.
func (s *Store) deleteTodoItems(ctx context.Context, ids []string) error {
	for start := 0; start < len(ids); start += maxBatchWrite {
		end := min(start+maxBatchWrite, len(ids))
		requests := make([]types.WriteRequest, 0, end-start)
		for _, id := range ids[start:end] {
			requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: idKey(id)}})
		}

		pending := map[string][]types.WriteRequest{s.TodosTableName: requests}
		for attempt := 1; len(pending) > 0; attempt++ {
			if attempt > maxAttempts {
				return fmt.Errorf("failed to delete todos: %d requests left unprocessed", len(pending[s.TodosTableName]))
			}
			out, err := s.Client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return fmt.Errorf("failed to delete todos: %w", err)
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
}

func isConditionFailure(err error) bool {
	var txc *types.TransactionCanceledException
	if errors.As(err, &txc) {
		for _, reason := range txc.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func (s *Store) publish(ctx context.Context, changes ...models.ChangeLog) {
	if s.Publisher == nil {
		return
	}
	for _, change := range changes {
		if err := s.Publisher.Publish(ctx, change); err != nil {
			slog.ErrorContext(ctx, "change committed but failed to publish",
				"change_id", change.ID, "card_id", change.CardID, "kind", change.Kind, "error", err)
		}
	}
}
