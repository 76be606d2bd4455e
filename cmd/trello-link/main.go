// Command trello-link attaches links to GitHub commits, pull requests and
// issues to the Trello cards their text references.
package main

import (
	"fmt"
	"os"

	"github.com/kagof/trello-link-github-action/internal/cli"
	"github.com/kagof/trello-link-github-action/internal/logging"
)

// Version is set at build time
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			logging.CapturePanic(r, "component", "main")
			cli.Fail(os.Stdout, fmt.Sprintf("unrecovered panic: %v", r))
			exitCode = cli.ExitPanic
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		cli.Fail(os.Stdout, err.Error())
		return cli.ExitFailed
	}
	return status
}
