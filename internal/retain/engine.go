package retain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshsymonds/mailreap/internal/imap"
	"github.com/joshsymonds/mailreap/internal/rate"
)

// Client is the slice of the IMAP surface the retention pass drives.
type Client interface {
	Search(ctx context.Context, query string) ([]imap.UID, error)
	FetchInfo(ctx context.Context, uid imap.UID) (imap.MessageInfo, error)
	MarkDeleted(ctx context.Context, uid imap.UID) error
}

// LabelStore performs the move emulation for expired messages.
type LabelStore interface {
	Move(ctx context.Context, uid imap.UID, dest string) error
}

// Engine evaluates retention states in configured order. States are
// independent: overlapping selection queries re-evaluate the same message,
// which is a configuration precondition, not something the engine enforces.
type Engine struct {
	Client  Client
	Labels  LabelStore
	Limiter rate.Limiter
	Log     *slog.Logger
	Clock   func() time.Time
	// DryRun forces dry-run for every state regardless of its own flag.
	DryRun bool
}

// NewEngine constructs an Engine with sane defaults.
func NewEngine(client Client, labels LabelStore, limiter rate.Limiter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Client: client, Labels: labels, Limiter: limiter, Log: logger, Clock: time.Now}
}

// Report summarizes one retention pass.
type Report struct {
	Candidates int
	Protected  int
	Expired    int
	Moved      int
	Deleted    int
	Errors     int
	BadQueries int
}

// Run evaluates every state. A query that fails validation disables only
// that state; per-message mutation failures are logged and skipped. The
// returned error is reserved for context cancellation.
func (e *Engine) Run(ctx context.Context, states []State) (Report, error) {
	rep := Report{}
	now := e.Clock()
	for _, state := range states {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := e.runState(ctx, state, now, &rep); err != nil {
			return rep, err
		}
	}
	e.Log.Info("finished retention pass",
		"candidates", rep.Candidates,
		"protected", rep.Protected,
		"expired", rep.Expired,
		"moved", rep.Moved,
		"deleted", rep.Deleted,
		"errors", rep.Errors,
		"bad_queries", rep.BadQueries,
	)
	return rep, nil
}

func (e *Engine) runState(ctx context.Context, state State, now time.Time, rep *Report) error {
	log := e.Log.With("state", state.Name)

	if err := imap.ValidateQuery(state.Query); err != nil {
		rep.BadQueries++
		log.Error("invalid selection query, skipping state", "error", err)
		return nil
	}
	if state.TTL.Kind == TTLKeep {
		log.Debug("state keeps messages indefinitely, nothing to evaluate")
		return nil
	}

	if err := e.wait(ctx); err != nil {
		return err
	}
	uids, err := e.Client.Search(ctx, state.Query)
	if err != nil {
		rep.Errors++
		log.Error("selection query failed", "query", state.Query, "error", err)
		return nil
	}
	log.Info("evaluating state", "query", state.Query, "candidates", len(uids))
	rep.Candidates += len(uids)

	for _, uid := range uids {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.evaluate(ctx, state, uid, now, rep, log)
	}
	return nil
}

// evaluate resolves one candidate: protection, TTL, age, then the terminal
// action. All failures are per-message and recovered.
func (e *Engine) evaluate(
	ctx context.Context,
	state State,
	uid imap.UID,
	now time.Time,
	rep *Report,
	log *slog.Logger,
) {
	if err := e.wait(ctx); err != nil {
		rep.Errors++
		log.Error("rate limit fetch", "uid", uint32(uid), "error", err)
		return
	}
	info, err := e.Client.FetchInfo(ctx, uid)
	if err != nil {
		rep.Errors++
		log.Error("fetch message attributes", "uid", uint32(uid), "error", err)
		return
	}

	// Starred or flagged messages are exempt from every retention state,
	// regardless of age.
	if info.HasLabel(imap.Starred) || info.Flagged {
		rep.Protected++
		log.Debug("protected message, skipping",
			"uid", uint32(uid), "subject", info.Subject)
		return
	}

	required, expires := state.TTL.Resolve(info.Seen)
	if !expires {
		return
	}
	age := now.Sub(info.ReceivedAt)
	if age < required {
		log.Debug("not yet expired",
			"uid", uint32(uid), "age", age, "required", required)
		return
	}
	rep.Expired++

	if state.DryRun || e.DryRun {
		log.Info("would apply retention action",
			"action", state.Action.String(),
			"uid", uint32(uid), "subject", info.Subject,
			"age", age, "required", required, "nerf", true)
		return
	}

	switch state.Action.Kind {
	case ActionDelete:
		if err := e.wait(ctx); err != nil {
			rep.Errors++
			log.Error("rate limit delete", "uid", uint32(uid), "error", err)
			return
		}
		if err := e.Client.MarkDeleted(ctx, uid); err != nil {
			rep.Errors++
			log.Error("delete failed",
				"uid", uint32(uid), "subject", info.Subject, "error", err)
			return
		}
		rep.Deleted++
		log.Info("marked deleted", "uid", uint32(uid), "subject", info.Subject, "age", age)
	case ActionMove:
		if err := e.Labels.Move(ctx, uid, state.Action.Label); err != nil {
			rep.Errors++
			log.Error("move failed",
				"uid", uint32(uid), "subject", info.Subject,
				"dest", state.Action.Label, "error", err)
			return
		}
		rep.Moved++
		log.Info("moved expired message",
			"uid", uint32(uid), "subject", info.Subject,
			"dest", state.Action.Label, "age", age)
	default:
		rep.Errors++
		log.Error("unknown state action", "action", fmt.Sprintf("%d", int(state.Action.Kind)))
	}
}

func (e *Engine) wait(ctx context.Context) error {
	if e.Limiter == nil {
		return nil
	}
	if err := e.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit retention: %w", err)
	}
	return nil
}
