package linker

import (
	"errors"
	"fmt"

	"github.com/kagof/trello-link-github-action/internal/marker"
	"github.com/kagof/trello-link-github-action/internal/tag"
	"github.com/kagof/trello-link-github-action/internal/trello"
)

// State is a step of the pipeline.
type State string

const (
	StateCompiling              State = "compiling"
	StateExtracting             State = "extracting"
	StateDeduplicating          State = "deduplicating"
	StateResolvingBoard         State = "resolving_board"
	StateResolvingAndPublishing State = "resolving_and_publishing"
	StateDone                   State = "done"
	StateFailed                 State = "failed"
)

// Kind classifies how a run ended.
type Kind string

const (
	KindOK          Kind = "ok"
	KindNothingToDo Kind = "nothing_to_do"
	KindConfigError Kind = "config_error"
	KindBoardError  Kind = "board_error"
	KindRemoteError Kind = "remote_error"
)

// Outcome is what happened to a single tag reference.
type Outcome string

const (
	OutcomeAttached Outcome = "attached"
	OutcomeNotFound Outcome = "not_found"
	OutcomeErrored  Outcome = "errored"
	OutcomeSkipped  Outcome = "skipped" // dry run
)

// BoardResolutionError reports a board identifier that matched no accessible
// board while a board is required.
type BoardResolutionError struct {
	Identifier string
}

func (e *BoardResolutionError) Error() string {
	if e.Identifier == "" {
		return "board could not be resolved, and missing board not allowed"
	}
	return fmt.Sprintf("board %q could not be resolved, and missing board not allowed", e.Identifier)
}

// TagResult is the outcome for one tag reference.
type TagResult struct {
	Ref     tag.Reference
	Card    *trello.Card
	Outcome Outcome
	Err     error
}

// Summary describes the work a run did.
type Summary struct {
	RunID string
	Board *trello.Board
	Tags  []TagResult
}

// Count returns the number of tags with the given outcome.
func (s Summary) Count(o Outcome) int {
	n := 0
	for _, t := range s.Tags {
		if t.Outcome == o {
			n++
		}
	}
	return n
}

// Result is the tagged outcome of a run. Err is set for every failing Kind.
type Result struct {
	Kind    Kind
	State   State // last state entered
	Summary Summary
	Err     error
}

// Failed reports whether the run must be surfaced as a failure.
func (r Result) Failed() bool {
	return r.Err != nil
}

func classify(err error) Kind {
	var cfgErr *marker.ConfigurationError
	var boardErr *BoardResolutionError
	switch {
	case errors.As(err, &cfgErr):
		return KindConfigError
	case errors.As(err, &boardErr):
		return KindBoardError
	default:
		return KindRemoteError
	}
}
