package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/chris/tin/pkg/api"
	"github.com/google/subcommands"
)

type cardsCmd struct {
	archived bool
}

func (*cardsCmd) Name() string     { return "cards" }
func (*cardsCmd) Synopsis() string { return "list cards with their remaining balance" }
func (*cardsCmd) Usage() string {
	return `tin cards [-archived]

  Lists active cards, most recently updated first. With -archived, lists
  archived cards, most recently archived first.
`
}

func (c *cardsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.archived, "archived", false, "List archived cards instead of active ones.")
}

func (c *cardsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name, heading := "list_cards", "Cards"
	if c.archived {
		name, heading = "list_archived_cards", "Archived cards"
	}

	result, err := invoke(ctx, name, nil)
	if err != nil {
		return fail(err)
	}
	cards, _ := result.([]api.Card)
	if err := printMarkdown(cardsMarkdown(heading, cards)); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type showCmd struct{}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "show a card and its todos" }
func (*showCmd) Usage() string {
	return `tin show <card_id>
`
}
func (*showCmd) SetFlags(*flag.FlagSet) {}

func (*showCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	result, err := invoke(ctx, "get_card", map[string]any{"cardId": f.Arg(0)})
	if err != nil {
		return fail(err)
	}
	card, ok := result.(*api.CardWithTodos)
	if !ok {
		return fail(fmt.Errorf("unexpected result %T", result))
	}
	if err := printMarkdown(cardMarkdown(card)); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type newCardCmd struct {
	title string
}

func (*newCardCmd) Name() string     { return "new" }
func (*newCardCmd) Synopsis() string { return "create a card with a starting amount" }
func (*newCardCmd) Usage() string {
	return `tin new [-t <title>] <amount>

  Creates a card and prints it as JSON.
`
}

func (c *newCardCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.title, "t", "", "Title of the card.")
}

func (c *newCardCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	params := api.NewCard{Amount: f.Arg(0)}
	if c.title != "" {
		params.Title = &c.title
	}
	result, err := invoke(ctx, "create_card", params)
	if err != nil {
		return fail(err)
	}
	if err := printJSON(result); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type archiveOldCmd struct{}

func (*archiveOldCmd) Name() string { return "archive-old" }
func (*archiveOldCmd) Synopsis() string {
	return "archive cards that have not been updated within archive.max_age"
}
func (*archiveOldCmd) Usage() string {
	return `tin archive-old
`
}
func (*archiveOldCmd) SetFlags(*flag.FlagSet) {}

func (*archiveOldCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	result, err := invoke(ctx, "archive_old_cards", nil)
	if err != nil {
		return fail(err)
	}
	if r, ok := result.(api.ArchiveResult); ok {
		fmt.Fprintf(stdout, "archived %d card(s)\n", r.ArchivedCount)
	}
	return subcommands.ExitSuccess
}
