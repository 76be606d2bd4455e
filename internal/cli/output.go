package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/kagof/trello-link-github-action/internal/linker"
	"github.com/kagof/trello-link-github-action/internal/store"
	"github.com/kagof/trello-link-github-action/internal/tag"
)

// PrintSummary writes one line per tag followed by the totals.
func PrintSummary(w io.Writer, res linker.Result) {
	s := res.Summary
	if res.Kind == linker.KindNothingToDo {
		fmt.Fprintln(w, render("no tags found", ColorMuted, false))
		return
	}

	if s.Board != nil {
		fmt.Fprintf(w, "%s %s\n", render("board", ColorMuted, false), render(s.Board.Name, ColorAccent, true))
	}
	for _, t := range s.Tags {
		outcome := string(t.Outcome)
		line := fmt.Sprintf("%s %-6s %-10s %s", OutcomeIcon(outcome), t.Ref.ID, outcome, t.Ref.URL)
		if t.Card != nil {
			line += " → " + t.Card.Name
		}
		if t.Err != nil {
			line += ": " + t.Err.Error()
		}
		fmt.Fprintln(w, render(line, OutcomeColor(outcome), false))
	}

	counts := []string{}
	for _, o := range []linker.Outcome{linker.OutcomeAttached, linker.OutcomeNotFound, linker.OutcomeErrored, linker.OutcomeSkipped} {
		if n := s.Count(o); n > 0 {
			counts = append(counts, fmt.Sprintf("%d %s", n, o))
		}
	}
	if len(counts) > 0 {
		fmt.Fprintln(w, render(strings.Join(counts, ", "), ColorMuted, true))
	}
}

// PrintReferences lists extracted tag references.
func PrintReferences(w io.Writer, refs []tag.Reference) {
	if len(refs) == 0 {
		fmt.Fprintln(w, render("no tags found", ColorMuted, false))
		return
	}
	for _, r := range refs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", render(r.ID, ColorAccent, true), r.URL, firstLine(r.Title))
	}
}

// PrintRuns lists ledger runs, newest first.
func PrintRuns(w io.Writer, runs []*store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, render("no runs recorded", ColorMuted, false))
		return
	}
	for _, r := range runs {
		color := ColorAttached
		switch r.Status {
		case store.RunStatusFailed:
			color = ColorErrored
		case store.RunStatusNoTags, store.RunStatusRunning:
			color = ColorMuted
		}
		line := fmt.Sprintf("%s  %-8s %-14s %s %s", r.StartedAt.Format("2006-01-02 15:04:05"), r.Status, r.EventName, r.Repository, shortSHA(r.SHA))
		if r.Error != "" {
			line += ": " + r.Error
		}
		fmt.Fprintln(w, render(line, color, false))
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
