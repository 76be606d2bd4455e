// Package linker runs the tag linking pipeline: compile the marker, extract
// tag references from an event, resolve the board, then resolve each tag to
// a card and attach the event's URL to it.
package linker

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kagof/trello-link-github-action/internal/config"
	"github.com/kagof/trello-link-github-action/internal/event"
	"github.com/kagof/trello-link-github-action/internal/logging"
	"github.com/kagof/trello-link-github-action/internal/marker"
	"github.com/kagof/trello-link-github-action/internal/metrics"
	"github.com/kagof/trello-link-github-action/internal/store"
	"github.com/kagof/trello-link-github-action/internal/tag"
	"github.com/kagof/trello-link-github-action/internal/trello"
)

// API is the subset of the Trello client the pipeline uses.
type API interface {
	ResolveBoard(ctx context.Context, identifier string) (*trello.Board, error)
	ResolveCard(ctx context.Context, board *trello.Board, idShort string) (*trello.Card, error)
	Attach(ctx context.Context, card *trello.Card, url, title string) error
}

// Ledger records runs and per-tag outcomes. *store.Store implements it.
type Ledger interface {
	CreateRun(run *store.Run) error
	FinishRun(id string, status store.RunStatus, boardID string, runErr error) error
	RecordAttachment(a *store.Attachment) error
}

// Options holds the optional collaborators of a Linker.
type Options struct {
	Ledger  Ledger
	Metrics *metrics.Metrics
}

// Linker runs the pipeline for one configuration.
type Linker struct {
	cfg     *config.Config
	api     API
	ledger  Ledger
	metrics *metrics.Metrics
}

// New creates a Linker. cfg is shared read-only with every step.
func New(cfg *config.Config, api API, opts Options) *Linker {
	return &Linker{
		cfg:     cfg,
		api:     api,
		ledger:  opts.Ledger,
		metrics: opts.Metrics,
	}
}

// Run links every tag referenced by p. It never panics on a nil payload; an
// event without tags ends as KindNothingToDo.
//
// Unless isolate_failures is set, a remote failure for any tag fails the
// whole run once all tags have been processed, even though other tags may
// already have been attached.
func (l *Linker) Run(ctx context.Context, p *event.Payload) Result {
	runID := uuid.NewString()
	log := logging.With("run_id", runID)
	res := Result{Summary: Summary{RunID: runID}}

	l.startRun(log, runID)

	res.State = StateCompiling
	rule, err := marker.Compile(l.cfg.Marker)
	if err != nil {
		return l.fail(log, res, err)
	}

	res.State = StateExtracting
	var refs []tag.Reference
	refs = append(refs, event.FromCommits(rule, p)...)
	refs = append(refs, event.FromPullRequest(rule, p)...)
	refs = append(refs, event.FromIssue(rule, p)...)

	res.State = StateDeduplicating
	refs = tag.Dedupe(refs)
	l.metrics.AddTagsFound(len(refs))

	if len(refs) == 0 {
		log.Info("no tags found")
		res.State = StateDone
		res.Kind = KindNothingToDo
		return l.finish(log, res)
	}

	if l.cfg.DryRun {
		for _, ref := range refs {
			log.Info("dry run: would link tag", "tag", ref.ID, "url", ref.URL)
			res.Summary.Tags = append(res.Summary.Tags, TagResult{Ref: ref, Outcome: OutcomeSkipped})
			l.metrics.IncrementOutcome(string(OutcomeSkipped))
		}
		l.recordAll(log, res.Summary)
		res.State = StateDone
		res.Kind = KindOK
		return l.finish(log, res)
	}

	res.State = StateResolvingBoard
	board, err := l.api.ResolveBoard(ctx, l.cfg.BoardIdentifier)
	if err != nil {
		return l.fail(log, res, err)
	}
	if board == nil {
		if !l.cfg.AllowMissingBoard {
			return l.fail(log, res, &BoardResolutionError{Identifier: l.cfg.BoardIdentifier})
		}
		log.Info("no board resolved, searching across all available boards")
	}
	res.Summary.Board = board

	res.State = StateResolvingAndPublishing
	tags, err := l.linkAll(ctx, log, board, refs)
	res.Summary.Tags = tags
	l.recordAll(log, res.Summary)
	if err != nil {
		return l.fail(log, res, err)
	}

	if n := res.Summary.Count(OutcomeErrored); n > 0 {
		log.Warn("some tags could not be linked", "errored", n, "attached", res.Summary.Count(OutcomeAttached))
	}

	res.State = StateDone
	res.Kind = KindOK
	return l.finish(log, res)
}

// linkAll resolves and attaches every reference concurrently. The returned
// error is the first task failure, reported after all tasks finished.
func (l *Linker) linkAll(ctx context.Context, log *slog.Logger, board *trello.Board, refs []tag.Reference) ([]TagResult, error) {
	results := make([]TagResult, len(refs))

	var g errgroup.Group
	for i, ref := range refs {
		g.Go(func() error {
			results[i] = l.link(ctx, log, board, ref)
			l.metrics.IncrementOutcome(string(results[i].Outcome))
			if results[i].Err != nil && !l.cfg.IsolateFailures {
				return results[i].Err
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

func (l *Linker) link(ctx context.Context, log *slog.Logger, board *trello.Board, ref tag.Reference) TagResult {
	res := TagResult{Ref: ref}

	card, err := l.api.ResolveCard(ctx, board, ref.ID)
	if err != nil {
		log.Warn("card lookup failed", "tag", ref.ID, "error", err)
		res.Outcome = OutcomeErrored
		res.Err = err
		return res
	}
	if card == nil {
		res.Outcome = OutcomeNotFound
		return res
	}
	res.Card = card

	log.Info("attaching url to card", "url", ref.URL, "card", ref.ID, "card_name", card.Name)
	if err := l.api.Attach(ctx, card, ref.URL, ref.Title); err != nil {
		log.Warn("attach failed", "tag", ref.ID, "card_id", card.ID, "error", err)
		res.Outcome = OutcomeErrored
		res.Err = err
		return res
	}

	log.Info("attached url to card", "url", ref.URL, "card", ref.ID)
	res.Outcome = OutcomeAttached
	return res
}

func (l *Linker) fail(log *slog.Logger, res Result, err error) Result {
	res.Kind = classify(err)
	res.Err = err
	log.Error("run failed", "state", res.State, "kind", res.Kind, "error", err)
	res.State = StateFailed
	return l.finish(log, res)
}

func (l *Linker) finish(log *slog.Logger, res Result) Result {
	l.metrics.IncrementRun(string(res.Kind))

	if l.ledger == nil {
		return res
	}

	status := store.RunStatusDone
	switch {
	case res.Err != nil:
		status = store.RunStatusFailed
	case res.Kind == KindNothingToDo:
		status = store.RunStatusNoTags
	}
	var boardID string
	if res.Summary.Board != nil {
		boardID = res.Summary.Board.ID
	}
	if err := l.ledger.FinishRun(res.Summary.RunID, status, boardID, res.Err); err != nil {
		log.Warn("ledger: finish run", "error", err)
	}
	return res
}

func (l *Linker) startRun(log *slog.Logger, runID string) {
	if l.ledger == nil {
		return
	}
	run := &store.Run{
		ID:         runID,
		EventName:  l.cfg.Run.EventName,
		Repository: l.cfg.Run.Repository,
		SHA:        l.cfg.Run.SHA,
		Marker:     l.cfg.Marker,
	}
	if err := l.ledger.CreateRun(run); err != nil {
		log.Warn("ledger: create run", "error", err)
	}
}

func (l *Linker) recordAll(log *slog.Logger, s Summary) {
	if l.ledger == nil {
		return
	}
	for _, t := range s.Tags {
		a := &store.Attachment{
			RunID:   s.RunID,
			TagID:   t.Ref.ID,
			URL:     t.Ref.URL,
			Title:   t.Ref.Title,
			Outcome: string(t.Outcome),
		}
		if t.Card != nil {
			a.CardID = t.Card.ID
		}
		if t.Err != nil {
			a.Error = t.Err.Error()
		}
		if err := l.ledger.RecordAttachment(a); err != nil {
			log.Warn("ledger: record attachment", "tag", t.Ref.ID, "error", err)
		}
	}
}
