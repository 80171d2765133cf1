package filter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/joshsymonds/mailreap/internal/imap"
	"github.com/joshsymonds/mailreap/internal/message"
)

type fakeFlagger struct {
	calls []string
	fail  bool
}

func (f *fakeFlagger) AddFlags(ctx context.Context, uid imap.UID, flags []string) error {
	_ = ctx
	f.calls = append(f.calls, fmt.Sprintf("flag:%d:%v", uid, flags))
	if f.fail {
		return errors.New("flag store rejected")
	}
	return nil
}

type fakeLabels struct {
	calls   []string
	failSet bool
}

func (f *fakeLabels) Set(ctx context.Context, uid imap.UID, label string) error {
	_ = ctx
	f.calls = append(f.calls, fmt.Sprintf("set:%d:%s", uid, label))
	if f.failSet {
		return errors.New("set rejected")
	}
	return nil
}

func (f *fakeLabels) Move(ctx context.Context, uid imap.UID, dest string) error {
	_ = ctx
	f.calls = append(f.calls, fmt.Sprintf("move:%d:%s", uid, dest))
	return nil
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func starFilter(t *testing.T, name, toPattern string) *MessageFilter {
	t.Helper()
	return mustMessageFilter(t, name,
		mustAddressFilter(t, []string{toPattern}), nil, nil, nil,
		[]Action{{Kind: ActionStar}})
}

func TestRunFirstMatchWins(t *testing.T) {
	flagger := &fakeFlagger{}
	labels := &fakeLabels{}
	e := NewEngine(flagger, labels, nil, slogDiscard())

	// Both filters match the same message; only the first may act.
	filters := []*MessageFilter{
		starFilter(t, "first", "*@example.org"),
		mustMessageFilter(t, "second",
			mustAddressFilter(t, []string{"*@example.org"}), nil, nil, nil,
			[]Action{{Kind: ActionMove, Label: "Elsewhere"}}),
	}
	msg := msgWith([]string{"alice@example.org"}, nil, nil, "hi")

	rep, err := e.Run(context.Background(), filters, []message.Message{msg})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if rep.Matched["first"] != 1 || rep.Matched["second"] != 0 {
		t.Fatalf("unexpected match counts: %+v", rep.Matched)
	}
	if len(labels.calls) != 1 || labels.calls[0] != "set:1:\\Starred" {
		t.Fatalf("unexpected label calls: %v", labels.calls)
	}
}

func TestRunAppliesAllActionsInOrder(t *testing.T) {
	flagger := &fakeFlagger{}
	labels := &fakeLabels{}
	e := NewEngine(flagger, labels, nil, slogDiscard())

	f := mustMessageFilter(t, "multi",
		mustAddressFilter(t, []string{"*@example.org"}), nil, nil, nil,
		[]Action{
			{Kind: ActionStar},
			{Kind: ActionFlag},
			{Kind: ActionMove, Label: "Archive"},
		})
	msg := msgWith([]string{"alice@example.org"}, nil, nil, "hi")

	rep, err := e.Run(context.Background(), []*MessageFilter{f}, []message.Message{msg})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if rep.Actions != 3 || rep.ActionErrors != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	wantLabels := []string{"set:1:\\Starred", "move:1:Archive"}
	if len(labels.calls) != 2 || labels.calls[0] != wantLabels[0] || labels.calls[1] != wantLabels[1] {
		t.Fatalf("unexpected label calls: %v", labels.calls)
	}
	if len(flagger.calls) != 1 {
		t.Fatalf("unexpected flag calls: %v", flagger.calls)
	}
}

func TestRunActionFailureIsIsolated(t *testing.T) {
	flagger := &fakeFlagger{}
	labels := &fakeLabels{failSet: true}
	e := NewEngine(flagger, labels, nil, slogDiscard())

	f := mustMessageFilter(t, "multi",
		mustAddressFilter(t, []string{"*@example.org"}), nil, nil, nil,
		[]Action{
			{Kind: ActionStar}, // fails
			{Kind: ActionFlag}, // must still run
		})
	msgs := []message.Message{
		msgWith([]string{"alice@example.org"}, nil, nil, "one"),
		msgWith([]string{"bob@example.org"}, nil, nil, "two"),
	}
	msgs[1].UID = 2

	rep, err := e.Run(context.Background(), []*MessageFilter{f}, msgs)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if rep.ActionErrors != 2 {
		t.Fatalf("expected 2 action errors, got %d", rep.ActionErrors)
	}
	// Flag ran for both messages despite the Set failures.
	if len(flagger.calls) != 2 {
		t.Fatalf("expected flag calls for both messages, got %v", flagger.calls)
	}
}

func TestRunUnmatchedLeftUntouched(t *testing.T) {
	flagger := &fakeFlagger{}
	labels := &fakeLabels{}
	e := NewEngine(flagger, labels, nil, slogDiscard())

	f := starFilter(t, "corp", "*@corp.example")
	msg := msgWith([]string{"outsider@example.com"}, nil, nil, "hi")

	rep, err := e.Run(context.Background(), []*MessageFilter{f}, []message.Message{msg})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if rep.Unmatched != 1 {
		t.Fatalf("expected 1 unmatched, got %d", rep.Unmatched)
	}
	if len(labels.calls) != 0 || len(flagger.calls) != 0 {
		t.Fatalf("expected no mutations, got labels=%v flags=%v", labels.calls, flagger.calls)
	}
}

func TestRunDryRunSkipsMutations(t *testing.T) {
	flagger := &fakeFlagger{}
	labels := &fakeLabels{}
	e := NewEngine(flagger, labels, nil, slogDiscard())
	e.DryRun = true

	f := mustMessageFilter(t, "multi",
		mustAddressFilter(t, []string{"*@example.org"}), nil, nil, nil,
		[]Action{{Kind: ActionStar}, {Kind: ActionMove, Label: "Archive"}})
	msg := msgWith([]string{"alice@example.org"}, nil, nil, "hi")

	rep, err := e.Run(context.Background(), []*MessageFilter{f}, []message.Message{msg})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if rep.Matched["multi"] != 1 {
		t.Fatalf("expected the filter to match: %+v", rep.Matched)
	}
	if len(labels.calls) != 0 || len(flagger.calls) != 0 {
		t.Fatalf("dry-run must not mutate: labels=%v flags=%v", labels.calls, flagger.calls)
	}
}
