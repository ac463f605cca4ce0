package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/tin/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSQS struct {
	mock.Mock
}

func (m *mockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*sqs.SendMessageOutput)
	return out, args.Error(1)
}

var change = models.ChangeLog{
	ID:        "0190c4b2-0000-7000-8000-000000000001",
	CardID:    "card-1",
	Kind:      models.KindTodoAdded,
	Payload:   models.Payload{"title": "Milk", "card_amount_change": "500.000000 -> 487.500000"},
	CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 250_000_000, time.UTC),
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(change)
	assert.Equal(t, "todo_added", e.Kind)
	assert.Equal(t, "2024-03-01T12:00:00.250Z", e.CreatedAt)
}

func TestSQSPublisher(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := new(mockSQS)
		client.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
			var e Event
			if err := json.Unmarshal([]byte(*in.MessageBody), &e); err != nil {
				return false
			}
			return *in.QueueUrl == "https://queue" &&
				e.CardID == "card-1" &&
				*in.MessageAttributes["kind"].StringValue == "todo_added"
		})).Return(&sqs.SendMessageOutput{}, nil)

		err := NewSQSPublisher(client, "https://queue").Publish(context.Background(), change)

		assert.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("Send Error", func(t *testing.T) {
		client := new(mockSQS)
		client.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

		err := NewSQSPublisher(client, "https://queue").Publish(context.Background(), change)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send message to SQS")
		client.AssertExpectations(t)
	})
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, p.Publish(context.Background(), change))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ledger change", record["msg"])
	assert.Equal(t, "card-1", record["card_id"])
	assert.Equal(t, "todo_added", record["kind"])
}

func TestNoOpPublisher(t *testing.T) {
	assert.NoError(t, (&NoOpPublisher{}).Publish(context.Background(), change))
}
