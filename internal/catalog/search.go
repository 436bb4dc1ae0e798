package catalog

import (
	"sort"
	"strings"

	"github.com/flowsmith/flowsmith/pkg/domain"
)

// Ranking weights. Alias hits outrank exact names, which outrank substring
// hits in names, which outrank substring hits in descriptions/identifiers.
const (
	scoreAlias          = 100
	scoreExactName      = 80
	scoreNameSubstring  = 50
	scoreOtherSubstring = 20
)

// Search ranks node types against the query and returns up to limit compact
// summaries. An empty corpus or a query with no hits yields an empty list.
func (idx *Index) Search(query string, limit int) []domain.NodeSummary {
	if limit <= 0 {
		limit = 20
	}

	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return []domain.NodeSummary{}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	type scored struct {
		summary domain.NodeSummary
		score   int
		order   int
	}

	aliasTarget := idx.aliases[query]

	results := []scored{}

	for position, typeID := range idx.order {
		entry := idx.entries[typeID]

		score := 0
		name := strings.ToLower(entry.Name)
		displayName := strings.ToLower(entry.DisplayName)

		switch {
		case typeID == aliasTarget:
			score = scoreAlias
		case name == query || displayName == query:
			score = scoreExactName
		case strings.Contains(name, query) || strings.Contains(displayName, query):
			score = scoreNameSubstring
		case strings.Contains(strings.ToLower(entry.Description), query) ||
			strings.Contains(strings.ToLower(entry.TypeIdentifier), query):
			score = scoreOtherSubstring
		}

		if score > 0 {
			results = append(results, scored{summary: entry.Summary(), score: score, order: position})
		}
	}

	// Ties keep original corpus order.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].order < results[j].order
	})

	if len(results) > limit {
		results = results[:limit]
	}

	summaries := make([]domain.NodeSummary, 0, len(results))
	for _, r := range results {
		summaries = append(summaries, r.summary)
	}

	return summaries
}
