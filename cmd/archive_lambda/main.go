package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chris/tin/pkg/bootstrap"
	"github.com/chris/tin/pkg/config"
	"github.com/chris/tin/pkg/storage"
	"github.com/joho/godotenv"
)

var store storage.Sweeper
var maxAge time.Duration

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

	cfg, err := config.Load(os.Getenv("TIN_CONFIG"))
	if err != nil {
		log.Fatalf("unable to load config, %v", err)
	}
	// The Lambda always runs against the DynamoDB tables.
	cfg.Storage.Backend = config.BackendDynamoDB
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config, %v", err)
	}

	components, err := bootstrap.Build(context.TODO(), cfg, bootstrap.NewLogger(cfg.Log, os.Stderr))
	if err != nil {
		log.Fatalf("unable to build storage, %v", err)
	}

	store = components.Store
	maxAge = cfg.Archive.MaxAge
}

// HandleRequest is triggered by an EventBridge Schedule.
func HandleRequest(ctx context.Context) error {
	log.Printf("Starting archive sweep for cards untouched for %s...", maxAge)

	n, err := store.ArchiveOldCards(ctx, maxAge)
	if err != nil {
		log.Printf("ERROR: failed to archive old cards: %v", err)
		return err
	}

	if n == 0 {
		log.Println("No stale cards found.")
		return nil
	}

	log.Printf("Archive sweep finished, archived %d card(s).", n)
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
