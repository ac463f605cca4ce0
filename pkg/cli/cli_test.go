package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"path/filepath"
	"testing"

	"github.com/chris/tin/pkg/api"
	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, cmd subcommands.Command, args ...string) (string, subcommands.ExitStatus) {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })

	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	require.NoError(t, f.Parse(args))

	status := cmd.Execute(context.Background(), f)
	return buf.String(), status
}

func TestCommandsAgainstSQLite(t *testing.T) {
	t.Setenv("TIN_DATABASE_PATH", filepath.Join(t.TempDir(), "tin.db"))

	out, status := run(t, &newCardCmd{}, "-t", "Groceries", "500")
	require.Equal(t, subcommands.ExitSuccess, status)
	var card api.Card
	require.NoError(t, json.Unmarshal([]byte(out), &card))
	assert.Equal(t, "500.000000", card.Amount)

	out, status = run(t, &addTodoCmd{}, "-a", "12.5", card.Id, "Milk")
	require.Equal(t, subcommands.ExitSuccess, status)
	var added api.AddTodoResult
	require.NoError(t, json.Unmarshal([]byte(out), &added))
	assert.Equal(t, "487.500000", added.UpdatedCard.Amount)

	t.Run("Recent With Select", func(t *testing.T) {
		out, status := run(t, &recentCmd{}, "-select", "$.payload.card_amount_change")

		assert.Equal(t, subcommands.ExitSuccess, status)
		assert.Equal(t, "500.000000 -> 487.500000\n", out)
	})

	t.Run("Invoke", func(t *testing.T) {
		out, status := run(t, &invokeCmd{}, "update_card", `{"cardId":"`+card.Id+`","lockedAmount":"20"}`)

		require.Equal(t, subcommands.ExitSuccess, status)
		var updated api.Card
		require.NoError(t, json.Unmarshal([]byte(out), &updated))
		assert.Equal(t, "20.000000", *updated.LockedAmount)
	})

	t.Run("Invoke Unknown Command", func(t *testing.T) {
		_, status := run(t, &invokeCmd{}, "bogus")

		assert.Equal(t, subcommands.ExitFailure, status)
	})

	t.Run("Invoke Invalid Params", func(t *testing.T) {
		_, status := run(t, &invokeCmd{}, "get_card", "{nope")

		assert.Equal(t, subcommands.ExitFailure, status)
	})

	t.Run("Usage Error", func(t *testing.T) {
		_, status := run(t, &showCmd{})

		assert.Equal(t, subcommands.ExitUsageError, status)
	})
}

func TestCardsMarkdown(t *testing.T) {
	locked := "20.000000"
	title := "Groceries"

	md := cardsMarkdown("Cards", []api.Card{
		{Id: "c1", Title: &title, Amount: "487.500000", LockedAmount: &locked, UpdatedAt: "2024-03-01T12:00:00.000Z"},
		{Id: "c2", Amount: "10.000000", UpdatedAt: "2024-02-01T12:00:00.000Z"},
	})

	assert.Contains(t, md, "| Groceries | 487.500000 | 20.000000 | 2024-03-01T12:00:00.000Z | `c1` |")
	assert.Contains(t, md, "| Untitled | 10.000000 | - |")
	assert.Contains(t, cardsMarkdown("Cards", nil), "_No cards._")
}

func TestCardMarkdown(t *testing.T) {
	amt := "12.500000"
	md := cardMarkdown(&api.CardWithTodos{
		Card: api.Card{Id: "c1", Amount: "487.500000"},
		Todos: []api.Todo{
			{Id: "t1", Title: "Milk", Amount: &amt, Done: true},
			{Id: "t2", Title: "Call"},
		},
	})

	assert.Contains(t, md, "**Amount:** 487.500000")
	assert.Contains(t, md, "- [x] Milk (12.500000) `t1`")
	assert.Contains(t, md, "- [ ] Call `t2`")
	assert.NotContains(t, md, "Locked")
}

func TestSearchMarkdown(t *testing.T) {
	card := "Groceries"
	todo := "Milk"

	md := searchMarkdown("milk", []api.SearchResult{
		{CardId: "c1", CardTitle: &card, TodoTitle: &todo, Snippet: "<b>Milk</b>"},
	})

	assert.Contains(t, md, "- Groceries / Milk: **Milk**")
	assert.Contains(t, searchMarkdown("x", nil), "_No matches._")
}
