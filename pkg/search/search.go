// Package search implements the card and todo search used by every store.
//
// A query is a list of whitespace separated tokens. Tokens of the form
// after:YYYY-MM-DD and before:YYYY-MM-DD restrict results by creation date;
// every other token must appear, case-insensitively, in the matched title.
package search

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/chris/tin/pkg/models"
)

// MaxResults caps the number of results returned by Run.
const MaxResults = 50

// Runes of context kept on each side of the first match.
const contextRunes = 16

const dateLayout = "2006-01-02"

// Query is a parsed search request.
type Query struct {
	// Terms are lower-cased text tokens that must all match.
	Terms []string
	// After keeps entities created at or after this instant.
	After *time.Time
	// Before keeps entities created strictly before this instant.
	Before *time.Time
	// IncludeArchived also searches archived cards and their todos.
	IncludeArchived bool
}

// Parse splits raw into text terms and date filters. A malformed date or an
// unknown prefix is kept as literal text.
func Parse(raw string) Query {
	var q Query
	for _, tok := range strings.Fields(raw) {
		if value, ok := strings.CutPrefix(tok, "after:"); ok {
			if d, err := time.Parse(dateLayout, value); err == nil {
				d = d.UTC()
				q.After = &d
				continue
			}
		}
		if value, ok := strings.CutPrefix(tok, "before:"); ok {
			if d, err := time.Parse(dateLayout, value); err == nil {
				end := d.UTC().AddDate(0, 0, 1)
				q.Before = &end
				continue
			}
		}
		q.Terms = append(q.Terms, fold(tok))
	}
	return q
}

// Empty reports whether q carries neither text nor a date filter.
func (q Query) Empty() bool {
	return len(q.Terms) == 0 && q.After == nil && q.Before == nil
}

// DateOnly reports whether q lists cards by date without any text.
func (q Query) DateOnly() bool {
	return len(q.Terms) == 0 && !q.Empty()
}

// InRange reports whether t satisfies the date filters of q.
func (q Query) InRange(t time.Time) bool {
	if q.After != nil && t.Before(*q.After) {
		return false
	}
	if q.Before != nil && !t.Before(*q.Before) {
		return false
	}
	return true
}

type hit struct {
	result  models.SearchResult
	onCard  bool
	prefix  bool
	created time.Time
	id      string
}

// Run evaluates q over cards, which must carry their todos.
func Run(q Query, cards []models.Card) []models.SearchResult {
	if q.Empty() {
		return []models.SearchResult{}
	}

	var hits []hit
	for i := range cards {
		card := &cards[i]
		if card.Archived && !q.IncludeArchived {
			continue
		}
		cardTitle := copyPtr(card.Title)

		if q.DateOnly() {
			if q.InRange(card.CreatedAt) {
				hits = append(hits, hit{
					result:  models.SearchResult{CardID: card.ID, CardTitle: cardTitle, Snippet: deref(card.Title)},
					onCard:  true,
					created: card.CreatedAt,
					id:      card.ID,
				})
			}
			continue
		}

		if card.Title != nil && q.InRange(card.CreatedAt) {
			if snippet, prefix, ok := match(*card.Title, q.Terms); ok {
				hits = append(hits, hit{
					result:  models.SearchResult{CardID: card.ID, CardTitle: cardTitle, Snippet: snippet},
					onCard:  true,
					prefix:  prefix,
					created: card.CreatedAt,
					id:      card.ID,
				})
			}
		}
		for j := range card.Todos {
			todo := &card.Todos[j]
			if !q.InRange(todo.CreatedAt) {
				continue
			}
			snippet, prefix, ok := match(todo.Title, q.Terms)
			if !ok {
				continue
			}
			todoID, todoTitle := todo.ID, todo.Title
			hits = append(hits, hit{
				result: models.SearchResult{
					CardID:    card.ID,
					TodoID:    &todoID,
					CardTitle: cardTitle,
					TodoTitle: &todoTitle,
					Snippet:   snippet,
				},
				prefix:  prefix,
				created: todo.CreatedAt,
				id:      todo.ID,
			})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.onCard != b.onCard {
			return a.onCard
		}
		if a.prefix != b.prefix {
			return a.prefix
		}
		if !a.created.Equal(b.created) {
			return a.created.After(b.created)
		}
		return a.id < b.id
	})

	if len(hits) > MaxResults {
		hits = hits[:MaxResults]
	}
	results := make([]models.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = h.result
	}
	return results
}

// match reports whether every term occurs in text. It returns the highlighted
// snippet and whether text starts with one of the terms.
func match(text string, terms []string) (string, bool, bool) {
	runes := []rune(text)
	folded := []rune(fold(text))

	var spans [][2]int
	prefix := false
	for _, term := range terms {
		needle := []rune(term)
		first := indexRunes(folded, needle, 0)
		if first < 0 {
			return "", false, false
		}
		if first == 0 {
			prefix = true
		}
		for at := first; at >= 0; at = indexRunes(folded, needle, at+len(needle)) {
			spans = append(spans, [2]int{at, at + len(needle)})
		}
	}
	return snippet(runes, mergeSpans(spans)), prefix, true
}

// snippet cuts runes around the first span and wraps every visible span in
// <b> tags.
func snippet(runes []rune, spans [][2]int) string {
	start := max(spans[0][0]-contextRunes, 0)
	end := min(spans[0][1]+contextRunes, len(runes))

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	pos := start
	for _, s := range spans {
		if s[0] >= end {
			break
		}
		from, to := max(s[0], start), min(s[1], end)
		b.WriteString(string(runes[pos:from]))
		b.WriteString("<b>")
		b.WriteString(string(runes[from:to]))
		b.WriteString("</b>")
		pos = to
	}
	b.WriteString(string(runes[pos:end]))
	if end < len(runes) {
		b.WriteString("...")
	}
	return b.String()
}

func mergeSpans(spans [][2]int) [][2]int {
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })
	merged := [][2]int{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s[0] <= last[1] {
			last[1] = max(last[1], s[1])
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

func indexRunes(haystack, needle []rune, from int) int {
	if len(needle) == 0 {
		return -1
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		found := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				found = false
				break
			}
		}
		if found {
			return i
		}
	}
	return -1
}

// fold lower-cases s rune by rune so that rune offsets are preserved.
func fold(s string) string {
	return strings.Map(unicode.ToLower, s)
}

func copyPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
