package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kagof/trello-link-github-action/internal/cli"
	"github.com/kagof/trello-link-github-action/internal/config"
	"github.com/kagof/trello-link-github-action/internal/event"
	"github.com/kagof/trello-link-github-action/internal/linker"
	"github.com/kagof/trello-link-github-action/internal/logging"
	"github.com/kagof/trello-link-github-action/internal/marker"
	"github.com/kagof/trello-link-github-action/internal/metrics"
	"github.com/kagof/trello-link-github-action/internal/store"
	"github.com/kagof/trello-link-github-action/internal/trello"
)

// status is the exit code chosen by the command that ran.
var status = cli.ExitOK

var rootCmd = &cobra.Command{
	Use:   "trello-link",
	Short: "Attach GitHub events to the Trello cards they reference",
	Long: `trello-link scans the commit messages, pull request and issue of a GitHub
event for marker tags such as "#12" or "ABC-12", finds card 12 on the
configured Trello board and attaches the event's URL to it.

Inputs come from the GitHub Actions environment (INPUT_TRELLO-TOKEN,
INPUT_BOARD-IDENTIFIER, INPUT_MARKER, ...), an optional YAML config file, and
the flags below, in increasing order of precedence.

Examples:
  trello-link                                   # run as a GitHub Action
  trello-link --event push.json --board Eng --marker "#" --token $TOKEN
  trello-link extract --event push.json --marker ABC-
  trello-link history --ledger ~/.local/share/trello-link/ledger.db`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer logging.Flush(2 * time.Second)

		status = runLink(cmd.Context(), cfg)
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Print the tag references found in an event without contacting Trello",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		rule, err := marker.Compile(cfg.Marker)
		if err != nil {
			return err
		}
		p, err := event.Load(cfg.EventPath)
		if err != nil {
			return err
		}
		cli.PrintReferences(cmd.OutOrStdout(), event.Extract(rule, p))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs recorded in the ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Ledger.Path == "" {
			return fmt.Errorf("no ledger configured (set --ledger or ledger.path)")
		}

		st, err := store.New(cfg.Ledger.Path)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer st.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := st.ListRuns(limit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		cli.PrintRuns(cmd.OutOrStdout(), runs)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), Version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "YAML config file (default $TRELLO_LINK_CONFIG)")
	pf.String("event", "", "event payload JSON file (default $GITHUB_EVENT_PATH)")
	pf.String("marker", "", "tag marker: letters, letters followed by '-', or one of "+marker.Symbols)
	pf.String("ledger", "", "SQLite ledger of runs and attachments")
	pf.String("log-level", "", "log level: debug, info, warn, error")

	f := rootCmd.Flags()
	f.String("board", "", "board name, short link or id")
	f.String("token", "", "Trello member token")
	f.Bool("allow-missing-board", false, "search all boards when the board cannot be resolved")
	f.Bool("isolate-failures", false, "report per-tag remote failures instead of failing the run")
	f.Bool("dry-run", false, "extract tags without contacting Trello")
	f.String("metrics-textfile", "", "write Prometheus metrics to this file")

	historyCmd.Flags().Int("limit", 20, "number of runs to show")

	rootCmd.AddCommand(extractCmd, historyCmd, versionCmd)
}

// loadConfig builds the config from file and environment, applies flags set
// on the command line and initializes logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultConfigPath(os.Getenv)
	}

	cfg, err := config.Load(path, os.Getenv)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	strFlags := map[string]*string{
		"event":            &cfg.EventPath,
		"marker":           &cfg.Marker,
		"ledger":           &cfg.Ledger.Path,
		"log-level":        &cfg.Log.Level,
		"board":            &cfg.BoardIdentifier,
		"token":            &cfg.Trello.Token,
		"metrics-textfile": &cfg.Metrics.Textfile,
	}
	for name, dst := range strFlags {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	boolFlags := map[string]*bool{
		"allow-missing-board": &cfg.AllowMissingBoard,
		"isolate-failures":    &cfg.IsolateFailures,
		"dry-run":             &cfg.DryRun,
	}
	for name, dst := range boolFlags {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetBool(name)
		}
	}

	env := "development"
	if cfg.Run.Actions {
		env = "actions"
	}
	if err := logging.Init(logging.Config{
		Level:     logging.ParseLevel(cfg.Log.Level),
		SentryDSN: cfg.Log.SentryDSN,
		Env:       env,
		Version:   Version,
		LogFile:   cfg.Log.File,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}

	return cfg, nil
}

func runLink(ctx context.Context, cfg *config.Config) int {
	if ctx == nil {
		ctx = context.Background()
	}
	out := os.Stdout

	if err := cfg.Validate(); err != nil {
		cli.Fail(out, err.Error())
		return cli.ExitFailed
	}

	p, err := event.Load(cfg.EventPath)
	if err != nil {
		logging.Error("load event", "event_path", cfg.EventPath, "error", err)
		cli.Fail(out, err.Error())
		return cli.ExitFailed
	}

	m := metrics.New()
	client := trello.NewClient(trello.NewHTTPTransport(cfg.Trello.BaseURL, cfg.Trello.Timeout), trello.ClientOptions{
		APIKey:  cfg.Trello.APIKey,
		Token:   cfg.Trello.Token,
		Observe: m.ObserveRemoteCall,
	})

	opts := linker.Options{Metrics: m}
	if cfg.Ledger.Path != "" {
		st, err := store.New(cfg.Ledger.Path)
		if err != nil {
			logging.Warn("ledger disabled", "path", cfg.Ledger.Path, "error", err)
		} else {
			defer st.Close()
			opts.Ledger = st
		}
	}

	res := linker.New(cfg, client, opts).Run(ctx, p)

	cli.PrintSummary(out, res)
	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logging.Warn("write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
		}
	}
	return cli.ExitCode(out, res)
}
