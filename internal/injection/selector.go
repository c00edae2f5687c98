package injection

import (
	"strings"

	"github.com/fyrsmithlabs/recalld/internal/retrieval"
)

// Select greedily fills the token budget from results already sorted by
// score descending. Results whose id is in excluded or whose content is
// blank are skipped. A result that does not fit the remaining budget is
// skipped rather than ending the walk, because a later, smaller result may
// still fit; no result is ever partially included.
//
// Returns the selected results in score order and the exact tokens used.
func Select(results []retrieval.Result, budget int, excluded map[string]bool, counter retrieval.Counter) ([]retrieval.Result, int) {
	var selected []retrieval.Result
	tokensUsed := 0

	for _, r := range results {
		if excluded[r.ID] {
			continue
		}
		if strings.TrimSpace(r.Content) == "" {
			continue
		}

		tokens := counter.Count(r.Content)
		if tokensUsed+tokens > budget {
			continue
		}

		selected = append(selected, r)
		tokensUsed += tokens
	}

	return selected, tokensUsed
}
