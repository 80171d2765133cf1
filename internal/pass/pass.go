// Package pass runs one full engine invocation: incremental inbox fetch,
// filter dispatch, retention evaluation, and the closing expunge.
package pass

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshsymonds/mailreap/internal/filter"
	"github.com/joshsymonds/mailreap/internal/imap"
	"github.com/joshsymonds/mailreap/internal/label"
	"github.com/joshsymonds/mailreap/internal/message"
	"github.com/joshsymonds/mailreap/internal/rate"
	"github.com/joshsymonds/mailreap/internal/retain"
)

// Checkpoint is the narrow persistence surface for incremental fetch. The
// core never manages its own durable state beyond this.
type Checkpoint interface {
	Load() (imap.UID, bool, error)
	Save(uid imap.UID) error
}

// Service executes the sequential fetch, filter, and retention pipeline over a
// single protocol session. Nothing here is safe for concurrent use; a pass
// assumes exclusive ownership of the mailbox.
type Service struct {
	Client     imap.Client
	Limiter    rate.Limiter
	Log        *slog.Logger
	Clock      func() time.Time
	Mailbox    string
	DryRun     bool
	Checkpoint Checkpoint
}

// NewService constructs a Service with sane defaults.
func NewService(client imap.Client, limiter rate.Limiter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Client:  client,
		Limiter: limiter,
		Log:     logger,
		Clock:   time.Now,
		Mailbox: "INBOX",
	}
}

// Run performs one pass. Connection-level failures abort; per-message
// failures inside the engines are recovered and reported in logs only.
func (s *Service) Run(ctx context.Context, filters []*filter.MessageFilter, states []retain.State) error {
	labels := label.NewStore(s.Client, s.Limiter, s.Log)

	if err := s.Client.Select(ctx, s.Mailbox); err != nil {
		return fmt.Errorf("select %s: %w", s.Mailbox, err)
	}

	msgs, maxUID, err := s.fetchWorkingSet(ctx)
	if err != nil {
		return err
	}

	fe := filter.NewEngine(s.Client, labels, s.Limiter, s.Log)
	fe.DryRun = s.DryRun
	if _, err := fe.Run(ctx, filters, msgs); err != nil {
		return fmt.Errorf("filter pass: %w", err)
	}

	re := retain.NewEngine(s.Client, labels, s.Limiter, s.Log)
	re.Clock = s.Clock
	re.DryRun = s.DryRun
	rep, err := re.Run(ctx, states)
	if err != nil {
		return fmt.Errorf("retention pass: %w", err)
	}

	if rep.Deleted > 0 && !s.DryRun {
		if err := s.wait(ctx); err != nil {
			return err
		}
		if err := s.Client.Expunge(ctx); err != nil {
			return fmt.Errorf("expunge: %w", err)
		}
	}

	if s.Checkpoint != nil && maxUID > 0 && !s.DryRun {
		if err := s.Checkpoint.Save(maxUID); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
	}
	return nil
}

// fetchWorkingSet searches the selected mailbox and parses the header block
// of every message past the checkpoint. Messages with unparsable headers
// still enter the working set with empty fields.
func (s *Service) fetchWorkingSet(ctx context.Context) ([]message.Message, imap.UID, error) {
	if err := s.wait(ctx); err != nil {
		return nil, 0, err
	}
	uids, err := s.Client.Search(ctx, "ALL")
	if err != nil {
		return nil, 0, fmt.Errorf("search %s: %w", s.Mailbox, err)
	}

	var maxUID imap.UID
	for _, uid := range uids {
		if uid > maxUID {
			maxUID = uid
		}
	}

	if s.Checkpoint != nil {
		last, ok, err := s.Checkpoint.Load()
		if err != nil {
			return nil, 0, fmt.Errorf("load checkpoint: %w", err)
		}
		if ok {
			fresh := uids[:0]
			for _, uid := range uids {
				if uid > last {
					fresh = append(fresh, uid)
				}
			}
			uids = fresh
			s.Log.Info("incremental fetch", "after_uid", uint32(last), "fresh", len(uids))
		}
	}
	if len(uids) == 0 {
		s.Log.Info("no messages to fetch", "mailbox", s.Mailbox)
		return nil, maxUID, nil
	}

	if err := s.wait(ctx); err != nil {
		return nil, 0, err
	}
	raws, err := s.Client.FetchHeaders(ctx, uids)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch headers: %w", err)
	}
	msgs := make([]message.Message, 0, len(raws))
	for _, raw := range raws {
		msgs = append(msgs, message.Parse(raw))
	}
	s.Log.Info("fetched working set", "mailbox", s.Mailbox, "messages", len(msgs))
	return msgs, maxUID, nil
}

func (s *Service) wait(ctx context.Context) error {
	if s.Limiter == nil {
		return nil
	}
	if err := s.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit pass: %w", err)
	}
	return nil
}
