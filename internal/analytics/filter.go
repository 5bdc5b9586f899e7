package analytics

import (
	"strings"

	"finova/internal/core"
)

// All is the sentinel that disables a filter axis.
const All = "all"

// Filter narrows a snapshot by a case-insensitive search over title
// and category, an exact kind filter and an exact category filter.
// The three axes combine with AND; "all" (or empty search) passes
// everything on that axis.
func Filter(list []core.Transaction, search, kind, category string) []core.Transaction {
	search = strings.ToLower(search)
	out := make([]core.Transaction, 0, len(list))
	for _, t := range list {
		matchSearch := search == "" ||
			strings.Contains(strings.ToLower(t.Title), search) ||
			strings.Contains(strings.ToLower(string(t.Category)), search)
		matchKind := kind == All || kind == "" || string(t.Kind) == kind
		matchCategory := category == All || category == "" || string(t.Category) == category
		if matchSearch && matchKind && matchCategory {
			out = append(out, t)
		}
	}
	return out
}
