// Package event decodes GitHub webhook payloads and pulls tag references
// out of the commits, pull request and issue they carry.
package event

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kagof/trello-link-github-action/internal/logging"
	"github.com/kagof/trello-link-github-action/internal/marker"
	"github.com/kagof/trello-link-github-action/internal/tag"
)

// Payload is the subset of a GitHub event payload that can reference cards.
// Every field is optional.
type Payload struct {
	Commits     []*Commit `json:"commits"`
	HeadCommit  *Commit   `json:"head_commit"`
	PullRequest *Item     `json:"pull_request"`
	Issue       *Item     `json:"issue"`
}

// Commit is a pushed commit.
type Commit struct {
	Message *string `json:"message"`
	URL     string  `json:"url"`
}

// Item is a pull request or issue.
type Item struct {
	Title   *string `json:"title"`
	Body    *string `json:"body"`
	HTMLURL string  `json:"html_url"`
}

// Load reads the payload file written by the Actions runner. An empty path
// means there is no payload.
func Load(path string) (*Payload, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event payload: %w", err)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode event payload %s: %w", path, err)
	}
	return &p, nil
}

// Extract runs every source adapter over p and removes references found
// more than once for the same URL and title.
func Extract(rule *marker.Rule, p *Payload) []tag.Reference {
	var refs []tag.Reference
	refs = append(refs, FromCommits(rule, p)...)
	refs = append(refs, FromPullRequest(rule, p)...)
	refs = append(refs, FromIssue(rule, p)...)
	return tag.Dedupe(refs)
}

// FromCommits extracts references from each commit message, falling back to
// the head commit when the payload lists no commits.
func FromCommits(rule *marker.Rule, p *Payload) []tag.Reference {
	if p == nil {
		return nil
	}

	commits := p.Commits
	if len(commits) == 0 {
		commits = []*Commit{p.HeadCommit}
	}

	var refs []tag.Reference
	for _, c := range commits {
		if c == nil || c.Message == nil || *c.Message == "" {
			continue
		}
		logging.Debug("commit message", "message", *c.Message)
		refs = append(refs, tag.Extract(rule, c.Message,
			func() string { return c.URL },
			func() string { return *c.Message },
		)...)
	}
	return refs
}

// FromPullRequest extracts references from the pull request title and body.
func FromPullRequest(rule *marker.Rule, p *Payload) []tag.Reference {
	if p == nil {
		return nil
	}
	return fromItem(rule, "pull request", p.PullRequest)
}

// FromIssue extracts references from the issue title and body.
func FromIssue(rule *marker.Rule, p *Payload) []tag.Reference {
	if p == nil {
		return nil
	}
	return fromItem(rule, "issue", p.Issue)
}

func fromItem(rule *marker.Rule, kind string, item *Item) []tag.Reference {
	if item == nil {
		return nil
	}

	url := func() string { return item.HTMLURL }
	title := func() string { return deref(item.Title) }

	logging.Debug(kind+" title", "title", deref(item.Title))
	logging.Debug(kind+" body", "body", deref(item.Body))

	refs := tag.Extract(rule, nonEmpty(item.Title), url, title)
	return append(refs, tag.Extract(rule, nonEmpty(item.Body), url, title)...)
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
