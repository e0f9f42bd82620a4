package filter

import (
	"strings"

	"github.com/amishk599/jobsync/internal/model"
)

// KeywordFilter matches raw items whose title contains any of the include
// keywords and none of the exclude keywords. Matching is case-insensitive.
// An empty include list is treated as "match all".
type KeywordFilter struct {
	include []string
	exclude []string
}

// NewKeywordFilter returns a filter over item titles (case-insensitive
// substring). Keywords are lowercased once here.
func NewKeywordFilter(include, exclude []string) *KeywordFilter {
	return &KeywordFilter{
		include: lowerAll(include),
		exclude: lowerAll(exclude),
	}
}

// Match returns true if the item's title contains an include keyword (or no
// include keywords are configured) and contains no exclude keyword.
func (f *KeywordFilter) Match(item model.RawItem) bool {
	titleLower := strings.ToLower(item.Title)

	if len(f.include) > 0 && !containsAny(titleLower, f.include) {
		return false
	}

	return !containsAny(titleLower, f.exclude)
}

// MatchAll is a filter that passes every item.
type MatchAll struct{}

func (MatchAll) Match(model.RawItem) bool { return true }

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
