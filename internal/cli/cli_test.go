package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kagof/trello-link-github-action/internal/linker"
	"github.com/kagof/trello-link-github-action/internal/tag"
	"github.com/kagof/trello-link-github-action/internal/trello"
)

func init() {
	ForceColors(false)
}

func TestFailEscapesMessage(t *testing.T) {
	var buf bytes.Buffer
	Fail(&buf, "100% broken\nsecond line")
	assert.Equal(t, "::error::100%25 broken%0Asecond line\n", buf.String())
}

func TestExitCode(t *testing.T) {
	var buf bytes.Buffer

	assert.Equal(t, ExitOK, ExitCode(&buf, linker.Result{Kind: linker.KindNothingToDo}))
	assert.Empty(t, buf.String())

	code := ExitCode(&buf, linker.Result{Kind: linker.KindBoardError, Err: &linker.BoardResolutionError{Identifier: "Nope"}})
	assert.Equal(t, ExitFailed, code)
	assert.Contains(t, buf.String(), "::error::board \"Nope\" could not be resolved")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, linker.Result{
		Kind: linker.KindOK,
		Summary: linker.Summary{
			Board: &trello.Board{Name: "Engineering"},
			Tags: []linker.TagResult{
				{Ref: tag.Reference{ID: "12", URL: "https://example.test/pr/1"}, Card: &trello.Card{Name: "Login"}, Outcome: linker.OutcomeAttached},
				{Ref: tag.Reference{ID: "99", URL: "https://example.test/pr/1"}, Outcome: linker.OutcomeNotFound},
				{Ref: tag.Reference{ID: "13", URL: "https://example.test/pr/1"}, Outcome: linker.OutcomeErrored, Err: errors.New("boom")},
			},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "board Engineering")
	assert.Contains(t, out, "→ Login")
	assert.Contains(t, out, ": boom")
	assert.Contains(t, out, "1 attached, 1 not_found, 1 errored")
}

func TestPrintSummaryFailedBeforeFanOutPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	res := linker.Result{Kind: linker.KindBoardError, Err: &linker.BoardResolutionError{Identifier: "Nope"}}

	PrintSummary(&buf, res)
	assert.Empty(t, buf.String())

	ExitCode(&buf, res)
	assert.True(t, strings.HasPrefix(buf.String(), "::error::"), "stdout %q", buf.String())
}

func TestPrintReferences(t *testing.T) {
	var buf bytes.Buffer
	PrintReferences(&buf, []tag.Reference{{ID: "7", URL: "u", Title: "first\nsecond"}})
	assert.Equal(t, "7\tu\tfirst\n", buf.String())

	buf.Reset()
	PrintReferences(&buf, nil)
	assert.Equal(t, "no tags found\n", buf.String())
}
