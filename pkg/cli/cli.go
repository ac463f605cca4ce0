// Package cli implements the tin command line. Every subcommand opens the
// configured store, runs one ledger command through the dispatcher and
// prints the result.
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/chris/tin/pkg/bootstrap"
	"github.com/chris/tin/pkg/commands"
	"github.com/chris/tin/pkg/config"
	"github.com/google/subcommands"
)

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&cardsCmd{}, "cards")
	c.Register(&showCmd{}, "cards")
	c.Register(&newCardCmd{}, "cards")
	c.Register(&archiveOldCmd{}, "cards")

	c.Register(&addTodoCmd{}, "todos")
	c.Register(&doneCmd{}, "todos")

	c.Register(&searchCmd{}, "activity")
	c.Register(&recentCmd{}, "activity")

	c.Register(&invokeCmd{}, "commands")
}

var configPath = flag.String("config", "", "Path to the tin.yaml configuration file")
var verbose = flag.Bool("v", false, "Log storage activity to stderr")

// stdout is where command output goes.
var stdout io.Writer = os.Stdout

// invoke opens the configured store, runs the named command with params
// encoded as its JSON parameters and closes the store again.
func invoke(ctx context.Context, name string, params any) (any, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Log
	if !*verbose {
		logCfg.Level = "warn"
	}
	logger := bootstrap.NewLogger(logCfg, os.Stderr)

	c, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	return commands.New(c.Store, cfg.Archive.MaxAge).Invoke(ctx, name, raw)
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMarkdown(md string) error {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdout, out)
	return err
}

// fail reports err on stderr and returns the failure status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}
