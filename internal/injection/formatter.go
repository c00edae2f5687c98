package injection

import (
	"fmt"
	"math"
	"strings"

	"github.com/fyrsmithlabs/recalld/internal/retrieval"
)

// Delimiter tags wrapping every injected block, so the host assistant and
// any tooling can unambiguously locate injected material inside the
// conversation.
const (
	openTagFormat = `<recalled-context tier="%d">`
	closeTag      = `</recalled-context>`
)

// untypedCategory labels results whose stored item carries no category tag.
const untypedCategory = "note"

// Format renders the selection into a single delimited text block. An
// empty selection yields an empty string: callers omit the injection
// entirely rather than emit empty wrapper text.
func Format(selected []retrieval.Result, tier int) string {
	if len(selected) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, openTagFormat, tier)
	b.WriteString("\n")

	for _, r := range selected {
		category := r.Type
		if category == "" {
			category = untypedCategory
		}
		fmt.Fprintf(&b, "[%s | %s | %d%%]\n", category, r.Collection, int(math.Round(r.Score*100)))
		b.WriteString(r.Content)
		b.WriteString("\n\n")
	}

	b.WriteString(closeTag)
	return b.String()
}
