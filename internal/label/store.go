// Package label provides the idempotent label primitives both engines use
// to emulate atomic moves on a server that only exposes additive and
// subtractive label edits.
package label

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joshsymonds/mailreap/internal/imap"
	"github.com/joshsymonds/mailreap/internal/rate"
)

// Client is the slice of the IMAP surface the store drives.
type Client interface {
	FetchInfo(ctx context.Context, uid imap.UID) (imap.MessageInfo, error)
	StoreLabels(ctx context.Context, uid imap.UID, op imap.LabelOp, labels []string) error
	ListMailboxes(ctx context.Context) ([]string, error)
	CreateMailbox(ctx context.Context, name string) error
}

// Store caches label state for the duration of one pass. The cache is
// updated immediately after every mutation on a UID, so protection and
// membership checks never act on stale state. A Store must not outlive
// the pass that created it.
type Store struct {
	Client  Client
	Limiter rate.Limiter
	Log     *slog.Logger

	mailboxes map[string]struct{}
	byUID     map[imap.UID]map[string]struct{}
}

// NewStore builds a Store for one pass.
func NewStore(client Client, limiter rate.Limiter, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		Client:  client,
		Limiter: limiter,
		Log:     logger,
		byUID:   map[imap.UID]map[string]struct{}{},
	}
}

// EnsureExists creates the label's mailbox if it is absent. The mailbox
// list is fetched once per pass and tracked across creates, so each
// distinct missing label costs at most one CREATE. System labels (leading
// backslash) are never created.
func (s *Store) EnsureExists(ctx context.Context, label string) error {
	if strings.HasPrefix(label, `\`) {
		return nil
	}
	if s.mailboxes == nil {
		if err := s.wait(ctx); err != nil {
			return err
		}
		names, err := s.Client.ListMailboxes(ctx)
		if err != nil {
			return fmt.Errorf("list mailboxes: %w", err)
		}
		s.mailboxes = make(map[string]struct{}, len(names))
		for _, name := range names {
			s.mailboxes[name] = struct{}{}
		}
	}
	if _, ok := s.mailboxes[label]; ok {
		return nil
	}
	s.Log.Info("creating missing label", "label", label)
	if err := s.wait(ctx); err != nil {
		return err
	}
	if err := s.Client.CreateMailbox(ctx, label); err != nil {
		return fmt.Errorf("create label %q: %w", label, err)
	}
	s.mailboxes[label] = struct{}{}
	return nil
}

// Labels returns the label set for a UID, reading the server on first use
// and serving the pass-local cache afterwards.
func (s *Store) Labels(ctx context.Context, uid imap.UID) (map[string]struct{}, error) {
	if cached, ok := s.byUID[uid]; ok {
		return cached, nil
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	info, err := s.Client.FetchInfo(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("fetch labels for uid %d: %w", uid, err)
	}
	labels := info.Labels
	if labels == nil {
		labels = map[string]struct{}{}
	}
	s.byUID[uid] = labels
	return labels, nil
}

// Set adds a label to a message. Reapplying a label that already holds is
// a no-op, not an error, and issues no store command.
func (s *Store) Set(ctx context.Context, uid imap.UID, label string) error {
	current, err := s.Labels(ctx, uid)
	if err != nil {
		return err
	}
	if _, ok := current[label]; ok {
		s.Log.Debug("label already present", "uid", uint32(uid), "label", label)
		return nil
	}
	if err := s.EnsureExists(ctx, label); err != nil {
		return err
	}
	if err := s.wait(ctx); err != nil {
		return err
	}
	if err := s.Client.StoreLabels(ctx, uid, imap.AddLabels, []string{label}); err != nil {
		return fmt.Errorf("set label %q on uid %d: %w", label, uid, err)
	}
	current[label] = struct{}{}
	return nil
}

// Del removes a label unconditionally. Removing an absent label is
// tolerated by the protocol as a no-op, so no membership check is made.
func (s *Store) Del(ctx context.Context, uid imap.UID, label string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	if err := s.Client.StoreLabels(ctx, uid, imap.RemoveLabels, []string{label}); err != nil {
		return fmt.Errorf("remove label %q from uid %d: %w", label, uid, err)
	}
	if cached, ok := s.byUID[uid]; ok {
		delete(cached, label)
	}
	return nil
}

// Move emulates an atomic move: add the destination label, then strip
// \Inbox. Add-before-remove means a failure between the two steps leaves
// the message double-labeled rather than orphaned.
func (s *Store) Move(ctx context.Context, uid imap.UID, dest string) error {
	if err := s.Set(ctx, uid, dest); err != nil {
		return err
	}
	return s.Del(ctx, uid, imap.Inbox)
}

func (s *Store) wait(ctx context.Context) error {
	if s.Limiter == nil {
		return nil
	}
	if err := s.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit label store: %w", err)
	}
	return nil
}
