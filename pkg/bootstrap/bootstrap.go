// Package bootstrap builds the logger, event publisher and store selected by
// the configuration. It is shared by the binaries under cmd/.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/tin/pkg/config"
	"github.com/chris/tin/pkg/events"
	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/storage"
	dydbstore "github.com/chris/tin/pkg/storage/dynamodb"
	"github.com/chris/tin/pkg/storage/sqlstore"
)

// NewLogger builds a slog logger writing to w in the configured format.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// awsConfig is loaded lazily: only the DynamoDB backend and the SQS
// publisher need it.
type awsConfig struct {
	cfg    *aws.Config
	loaded bool
}

func (a *awsConfig) get(ctx context.Context) (aws.Config, error) {
	if !a.loaded {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
		}
		a.cfg, a.loaded = &cfg, true
	}
	return *a.cfg, nil
}

// Components are the long-lived dependencies of a binary.
type Components struct {
	Store     storage.Storage
	Publisher events.Publisher
	// Close releases the database connection, if any.
	Close func() error
}

// Build creates the publisher and store described by cfg.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	var sdk awsConfig

	publisher, err := newPublisher(ctx, cfg.Events, logger, &sdk)
	if err != nil {
		return nil, err
	}
	policy := ledger.Policy{LockArchived: cfg.Ledger.LockArchived}

	switch cfg.Storage.Backend {
	case config.BackendDynamoDB:
		awsCfg, err := sdk.get(ctx)
		if err != nil {
			return nil, err
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoDB.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoDB.Endpoint)
			}
		})
		store := dydbstore.New(client, publisher, policy,
			cfg.DynamoDB.CardsTable, cfg.DynamoDB.TodosTable, cfg.DynamoDB.ChangesTable)
		logger.Info("using dynamodb storage", "cards_table", cfg.DynamoDB.CardsTable)
		return &Components{Store: store, Publisher: publisher, Close: func() error { return nil }}, nil

	default:
		db, err := sqlstore.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		store := sqlstore.New(db, publisher, policy)
		logger.Info("using sql storage", "driver", cfg.Database.Driver, "path", cfg.Database.Path)
		return &Components{Store: store, Publisher: publisher, Close: store.Close}, nil
	}
}

func newPublisher(ctx context.Context, cfg config.EventsConfig, logger *slog.Logger, sdk *awsConfig) (events.Publisher, error) {
	switch cfg.Publisher {
	case config.PublisherLog:
		return events.NewLogPublisher(logger), nil
	case config.PublisherSQS:
		awsCfg, err := sdk.get(ctx)
		if err != nil {
			return nil, err
		}
		return events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.QueueURL), nil
	default:
		return &events.NoOpPublisher{}, nil
	}
}
