package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/kagof/trello-link-github-action/internal/linker"
)

// Exit codes.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitPanic  = 2
)

// Fail reports a fatal message to the Actions runner as an error annotation.
func Fail(w io.Writer, msg string) {
	fmt.Fprintf(w, "::error::%s\n", escapeData(msg))
}

// ExitCode maps a run result to the process exit code, reporting failures
// through Fail.
func ExitCode(w io.Writer, res linker.Result) int {
	if !res.Failed() {
		return ExitOK
	}
	Fail(w, res.Err.Error())
	return ExitFailed
}

// escapeData escapes a workflow command message.
func escapeData(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(s)
}
