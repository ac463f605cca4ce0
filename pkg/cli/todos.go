package cli

import (
	"context"
	"flag"

	"github.com/chris/tin/pkg/api"
	"github.com/google/subcommands"
)

type addTodoCmd struct {
	amount string
	at     string
}

func (*addTodoCmd) Name() string     { return "add" }
func (*addTodoCmd) Synopsis() string { return "add a todo to a card, deducting its amount" }
func (*addTodoCmd) Usage() string {
	return `tin add [-a <amount>] [-at <timestamp>] <card_id> <title>

  Adds a todo to the card. The amount, if any, is deducted from the card's
  balance. Without -at the todo is scheduled now.
`
}

func (c *addTodoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "a", "", "Amount of the todo.")
	f.StringVar(&c.at, "at", "", "ISO-8601 time the todo is scheduled at.")
}

func (c *addTodoCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	params := struct {
		CardID string `json:"cardId"`
		api.NewTodo
	}{CardID: f.Arg(0), NewTodo: api.NewTodo{Title: f.Arg(1)}}
	if c.amount != "" {
		params.Amount = &c.amount
	}
	if c.at != "" {
		now := false
		params.UseCurrentTime = &now
		params.ScheduledAt = &c.at
	}

	result, err := invoke(ctx, "add_todo", params)
	if err != nil {
		return fail(err)
	}
	if err := printJSON(result); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type doneCmd struct {
	undo bool
}

func (*doneCmd) Name() string     { return "done" }
func (*doneCmd) Synopsis() string { return "mark a todo as done" }
func (*doneCmd) Usage() string {
	return `tin done [-undo] <todo_id>
`
}

func (c *doneCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.undo, "undo", false, "Mark the todo as not done.")
}

func (c *doneCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	result, err := invoke(ctx, "update_todo", map[string]any{"todoId": f.Arg(0), "done": !c.undo})
	if err != nil {
		return fail(err)
	}
	if err := printJSON(result); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
