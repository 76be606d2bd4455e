// Package tag extracts marker tag references from event text.
package tag

import (
	"github.com/kagof/trello-link-github-action/internal/logging"
	"github.com/kagof/trello-link-github-action/internal/marker"
)

// Reference is a tag found in the text of an event, together with the URL
// and title of the thing that text belongs to.
type Reference struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Extract finds the distinct tags in text. url and title are called once per
// distinct match. A nil text yields no references.
func Extract(rule *marker.Rule, text *string, url, title func() string) []Reference {
	if text == nil {
		return nil
	}

	var refs []Reference
	seen := make(map[string]bool)
	for _, match := range rule.FindAll(*text) {
		if seen[match] {
			continue
		}
		seen[match] = true
		logging.Debug("found potential tag", "match", match)

		id := rule.Strip(match)
		if id == "" {
			continue
		}
		refs = append(refs, Reference{ID: id, URL: url(), Title: title()})
	}
	return refs
}

// Dedupe drops references equal to an earlier one on all fields, keeping order.
func Dedupe(refs []Reference) []Reference {
	out := make([]Reference, 0, len(refs))
	seen := make(map[Reference]bool, len(refs))
	for _, r := range refs {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
