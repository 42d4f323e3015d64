package cli

import (
	"fmt"

	"github.com/sahilm/fuzzy"
)

// unknownError reports an id that is not in candidates, with the closest
// fuzzy match when there is one.
func unknownError(kind, id string, candidates []string) error {
	if s := suggest(id, candidates); s != "" {
		return fmt.Errorf("unknown %s %q, did you mean %q?", kind, id, s)
	}
	return fmt.Errorf("unknown %s %q", kind, id)
}

func suggest(query string, candidates []string) string {
	if query == "" {
		return ""
	}
	matches := fuzzy.Find(query, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
