package cli

import (
	"fmt"
	"strings"

	"github.com/chris/tin/pkg/api"
)

func titleOf(title *string) string {
	if title == nil || *title == "" {
		return "Untitled"
	}
	return *title
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

// cardsMarkdown renders a list of cards as a markdown table.
func cardsMarkdown(heading string, cards []api.Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", heading)
	if len(cards) == 0 {
		b.WriteString("_No cards._\n")
		return b.String()
	}

	b.WriteString("| Card | Amount | Locked | Updated | ID |\n")
	b.WriteString("|---|---:|---:|---|---|\n")
	for _, c := range cards {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | `%s` |\n",
			titleOf(c.Title), c.Amount, orDash(c.LockedAmount), c.UpdatedAt, c.Id)
	}
	return b.String()
}

// cardMarkdown renders one card and its todos as a task list.
func cardMarkdown(card *api.CardWithTodos) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", titleOf(card.Title))
	fmt.Fprintf(&b, "**Amount:** %s  \n", card.Amount)
	if card.LockedAmount != nil {
		fmt.Fprintf(&b, "**Locked:** %s  \n", *card.LockedAmount)
	}
	if card.Archived {
		fmt.Fprintf(&b, "**Archived:** %s  \n", orDash(card.ArchivedAt))
	}
	fmt.Fprintf(&b, "**ID:** `%s`\n\n", card.Id)

	if len(card.Todos) == 0 {
		b.WriteString("_No todos._\n")
		return b.String()
	}
	for _, t := range card.Todos {
		box := " "
		if t.Done {
			box = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s", box, t.Title)
		if t.Amount != nil {
			fmt.Fprintf(&b, " (%s)", *t.Amount)
		}
		if t.ScheduledAt != nil {
			fmt.Fprintf(&b, " at %s", *t.ScheduledAt)
		}
		fmt.Fprintf(&b, " `%s`\n", t.Id)
	}
	return b.String()
}

var highlight = strings.NewReplacer("<b>", "**", "</b>", "**")

// searchMarkdown renders search hits, turning snippet highlights into bold.
func searchMarkdown(query string, results []api.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Search: %s\n\n", query)
	if len(results) == 0 {
		b.WriteString("_No matches._\n")
		return b.String()
	}
	for _, r := range results {
		where := titleOf(r.CardTitle)
		if r.TodoTitle != nil {
			where += " / " + *r.TodoTitle
		}
		fmt.Fprintf(&b, "- %s: %s\n", where, highlight.Replace(r.Snippet))
	}
	return b.String()
}
