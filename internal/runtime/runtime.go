// Package runtime wires process-level concerns: the default logger and the
// authenticated IMAP session.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joshsymonds/mailreap/internal/imap"
)

// DefaultLogger logs text records to stderr at info level.
func DefaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// VerboseLogger lowers the level to debug for per-message match tracing.
func VerboseLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Connect dials the IMAP host over TLS and authenticates. Both failures are
// fatal to the run; no mutation has been attempted yet.
func Connect(ctx context.Context, domain, username, password string) (imap.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case domain == "":
		return nil, fmt.Errorf("IMAP domain is required")
	case username == "":
		return nil, fmt.Errorf("IMAP username is required")
	case password == "":
		return nil, fmt.Errorf("IMAP password is required")
	}
	session, err := imap.DialTLS(domain, username, password)
	if err != nil {
		return nil, err
	}
	return session, nil
}
