// Package sqlstore implements the storage interfaces on top of gorm. SQLite is
// the default embedded database; Postgres is supported for shared
// deployments.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chris/tin/pkg/config"
	"github.com/chris/tin/pkg/events"
	"github.com/chris/tin/pkg/ledger"
	"github.com/chris/tin/pkg/models"
	"github.com/chris/tin/pkg/storage"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store implements the Storage interface using gorm.
type Store struct {
	DB        *gorm.DB
	Publisher events.Publisher
	Policy    ledger.Policy
	// Now is the clock used for every timestamp the store writes.
	Now func() time.Time

	locks ledger.CardLocks
}

// New creates a new Store. A nil publisher discards events.
func New(db *gorm.DB, publisher events.Publisher, policy ledger.Policy) *Store {
	if publisher == nil {
		publisher = &events.NoOpPublisher{}
	}
	return &Store{
		DB:        db,
		Publisher: publisher,
		Policy:    policy,
		Now:       time.Now,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// Open creates a database connection for cfg and migrates the schema.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormLogger := logger.Default
	if !cfg.LogMode {
		gormLogger = gormLogger.LogMode(logger.Silent)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case config.DriverSQLite, "":
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dialector = sqlite.Open(sqliteDSN(cfg))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if cfg.Driver != config.DriverPostgres {
		_, _ = sqlDB.Exec("PRAGMA synchronous = NORMAL;")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// sqliteDSN enables WAL, foreign keys and a busy timeout on every pooled
// connection. Transactions start with BEGIN IMMEDIATE so writers queue on the
// database lock instead of failing on upgrade.
func sqliteDSN(cfg config.DatabaseConfig) string {
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	q := url.Values{}
	q.Set("_busy_timeout", fmt.Sprint(busy.Milliseconds()))
	q.Set("_foreign_keys", "on")
	q.Set("_journal_mode", "WAL")
	q.Set("_txlock", "immediate")
	return "file:" + cfg.Path + "?" + q.Encode()
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Card{}, &models.Todo{}, &models.ChangeLog{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// now returns the store clock in UTC with millisecond precision, the
// resolution timestamps have on the wire.
func (s *Store) now() time.Time {
	return s.Now().UTC().Truncate(time.Millisecond)
}

// withCard serialises writers of cardID, loads the card inside a transaction
// and runs fn. The change-log entry returned by fn is written in the same
// transaction and published once it has committed. fn may return a nil entry
// when it leaves the card untouched.
func (s *Store) withCard(ctx context.Context, cardID string, fn func(tx *gorm.DB, card *models.Card) (*models.ChangeLog, error)) error {
	unlock := s.locks.Lock(cardID)
	defer unlock()

	var change *models.ChangeLog
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		card, err := lockCard(tx, cardID)
		if err != nil {
			return err
		}
		if change, err = fn(tx, card); err != nil {
			return err
		}
		if change == nil {
			return nil
		}
		return insertChange(tx, change)
	})
	if err != nil {
		return err
	}

	if change != nil {
		s.publish(ctx, *change)
	}
	return nil
}

// lockCard loads a card for modification. Postgres additionally holds a row
// lock until the transaction ends.
func lockCard(tx *gorm.DB, cardID string) (*models.Card, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var card models.Card
	if err := q.First(&card, "id = ?", cardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.CardNotFound(cardID)
		}
		return nil, fmt.Errorf("failed to load card: %w", err)
	}
	return &card, nil
}

func saveCard(tx *gorm.DB, card *models.Card) error {
	if err := tx.Omit(clause.Associations).Save(card).Error; err != nil {
		return fmt.Errorf("failed to save card: %w", err)
	}
	return nil
}

func insertChange(tx *gorm.DB, change *models.ChangeLog) error {
	if err := tx.Create(change).Error; err != nil {
		return fmt.Errorf("failed to write change log: %w", err)
	}
	return nil
}

func (s *Store) publish(ctx context.Context, changes ...models.ChangeLog) {
	for _, change := range changes {
		if err := s.Publisher.Publish(ctx, change); err != nil {
			slog.ErrorContext(ctx, "change committed but failed to publish",
				"change_id", change.ID, "card_id", change.CardID, "kind", change.Kind, "error", err)
		}
	}
}
