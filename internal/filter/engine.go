package filter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joshsymonds/mailreap/internal/imap"
	"github.com/joshsymonds/mailreap/internal/message"
	"github.com/joshsymonds/mailreap/internal/rate"
)

// Flagger is the slice of the IMAP surface the engine needs directly; label
// mutations go through the LabelStore.
type Flagger interface {
	AddFlags(ctx context.Context, uid imap.UID, flags []string) error
}

// LabelStore is the label mutation surface used for Star and Move actions.
type LabelStore interface {
	Set(ctx context.Context, uid imap.UID, label string) error
	Move(ctx context.Context, uid imap.UID, dest string) error
}

// Engine applies an ordered filter list to the working message set.
type Engine struct {
	Client  Flagger
	Labels  LabelStore
	Limiter rate.Limiter
	Log     *slog.Logger
	DryRun  bool
}

// NewEngine constructs an Engine with a usable logger.
func NewEngine(client Flagger, labels LabelStore, limiter rate.Limiter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Client: client, Labels: labels, Limiter: limiter, Log: logger}
}

// Report summarizes one filter pass.
type Report struct {
	Matched      map[string]int
	Actions      int
	ActionErrors int
	Unmatched    int
}

// Run evaluates filters strictly in configured order. Each filter partitions
// the currently remaining messages; matched ones receive every action in
// order (failures logged, never fatal) and drop out of consideration, so no
// message matches more than one filter. Messages matching nothing are left
// untouched.
func (e *Engine) Run(ctx context.Context, filters []*MessageFilter, msgs []message.Message) (Report, error) {
	rep := Report{Matched: map[string]int{}}
	remaining := msgs
	e.Log.Info("applying filters", "filters", len(filters), "messages", len(msgs))

	for _, f := range filters {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		var matched, unmatched []message.Message
		for _, msg := range remaining {
			if f.Compare(msg).Match() {
				matched = append(matched, msg)
			} else {
				unmatched = append(unmatched, msg)
			}
		}
		remaining = unmatched
		rep.Matched[f.Name] = len(matched)
		if len(matched) == 0 {
			e.Log.Debug("no messages matched filter", "filter", f.Name)
			continue
		}
		for _, msg := range matched {
			e.Log.Info("matched filter",
				"filter", f.Name,
				"uid", uint32(msg.UID),
				"subject", msg.Subject,
				"from", message.Addresses(msg.From),
			)
			e.dispatch(ctx, f, msg, &rep)
		}
	}

	rep.Unmatched = len(remaining)
	e.Log.Info("finished applying filters",
		"matched", len(msgs)-rep.Unmatched,
		"unmatched", rep.Unmatched,
		"action_errors", rep.ActionErrors,
	)
	return rep, nil
}

// dispatch applies every action of a matched filter in order. A failed
// action is logged with full context and does not stop the remaining
// actions or messages.
func (e *Engine) dispatch(ctx context.Context, f *MessageFilter, msg message.Message, rep *Report) {
	for _, action := range f.Actions {
		if e.DryRun {
			e.Log.Info("would apply action",
				"filter", f.Name, "action", action.String(),
				"uid", uint32(msg.UID), "subject", msg.Subject, "nerf", true)
			continue
		}
		rep.Actions++
		if err := e.apply(ctx, action, msg); err != nil {
			rep.ActionErrors++
			e.Log.Error("action failed",
				"filter", f.Name, "action", action.String(),
				"uid", uint32(msg.UID), "subject", msg.Subject, "error", err)
			continue
		}
		e.Log.Info("applied action",
			"filter", f.Name, "action", action.String(), "uid", uint32(msg.UID))
	}
}

func (e *Engine) apply(ctx context.Context, action Action, msg message.Message) error {
	switch action.Kind {
	case ActionStar:
		return e.Labels.Set(ctx, msg.UID, imap.Starred)
	case ActionFlag:
		if err := e.wait(ctx); err != nil {
			return err
		}
		return e.Client.AddFlags(ctx, msg.UID, []string{imap.Flagged})
	case ActionMove:
		return e.Labels.Move(ctx, msg.UID, action.Label)
	default:
		return fmt.Errorf("unknown action kind %d", int(action.Kind))
	}
}

func (e *Engine) wait(ctx context.Context) error {
	if e.Limiter == nil {
		return nil
	}
	if err := e.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit filter action: %w", err)
	}
	return nil
}
