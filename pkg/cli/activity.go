package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/chris/tin/pkg/api"
	"github.com/google/subcommands"
)

type searchCmd struct {
	all bool
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search card and todo titles" }
func (*searchCmd) Usage() string {
	return `tin search [-all] <query>

  Matches every word of the query against card and todo titles. The query
  may contain after:YYYY-MM-DD and before:YYYY-MM-DD filters.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "Include archived cards.")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	query := strings.Join(f.Args(), " ")

	result, err := invoke(ctx, "search", map[string]any{"query": query, "includeArchived": c.all})
	if err != nil {
		return fail(err)
	}
	hits, _ := result.([]api.SearchResult)
	if err := printMarkdown(searchMarkdown(query, hits)); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type recentCmd struct {
	limit  int
	selExp string
}

func (*recentCmd) Name() string     { return "recent" }
func (*recentCmd) Synopsis() string { return "print the most recent change log entries" }
func (*recentCmd) Usage() string {
	return `tin recent [-n <limit>] [-select <jsonpath>]

  Prints change log entries as JSON lines, newest first. With -select, only
  the value at the JSONPath expression is printed for each entry, for
  example -select '$.payload.card_amount_change'.
`
}

func (c *recentCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 10, "Number of entries to print.")
	f.StringVar(&c.selExp, "select", "", "JSONPath expression applied to each entry.")
}

func (c *recentCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	result, err := invoke(ctx, "recent_changes", map[string]any{"limit": c.limit})
	if err != nil {
		return fail(err)
	}
	entries, _ := result.([]api.ChangeLogEntry)

	for _, e := range entries {
		line, err := c.line(e)
		if err != nil {
			return fail(err)
		}
		if line == "" {
			continue
		}
		fmt.Fprintln(stdout, line)
	}
	return subcommands.ExitSuccess
}

// line formats one entry, or the value selected from it. Entries the
// expression does not match yield an empty line.
func (c *recentCmd) line(e api.ChangeLogEntry) (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	if c.selExp == "" {
		return string(raw), nil
	}

	var jobj any
	if err := json.Unmarshal(raw, &jobj); err != nil {
		return "", err
	}
	jval, err := jsonpath.Get(c.selExp, jobj)
	if err != nil {
		if strings.Contains(err.Error(), "unknown key") {
			return "", nil
		}
		return "", fmt.Errorf("error evaluating %q: %w", c.selExp, err)
	}
	// a list of one answer is printed as that answer
	if jlist, ok := jval.([]any); ok && len(jlist) == 1 {
		jval = jlist[0]
	}
	if s, ok := jval.(string); ok {
		return s, nil
	}
	out, err := json.Marshal(jval)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

type invokeCmd struct{}

func (*invokeCmd) Name() string     { return "invoke" }
func (*invokeCmd) Synopsis() string { return "run a named ledger command with JSON parameters" }
func (*invokeCmd) Usage() string {
	return `tin invoke <command> [<params_json>]

  Runs any ledger command, e.g.
    tin invoke update_card '{"cardId":"...","lockedAmount":"20"}'
  and prints the result as JSON.
`
}
func (*invokeCmd) SetFlags(*flag.FlagSet) {}

func (*invokeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 || f.NArg() > 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	var params json.RawMessage
	if f.NArg() == 2 {
		params = json.RawMessage(f.Arg(1))
		if !json.Valid(params) {
			return fail(fmt.Errorf("params are not a JSON document: %s", f.Arg(1)))
		}
	}

	result, err := invoke(ctx, f.Arg(0), params)
	if err != nil {
		return fail(err)
	}
	if err := printJSON(result); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
