// Package rate paces outbound IMAP round trips so a pass stays under
// provider command-rate limits.
package rate

import (
	"context"
	"fmt"
	"time"
)

// Limiter gates a single protocol call.
type Limiter interface {
	Wait(ctx context.Context) error
}

// TokenBucket releases rps tokens per second with a burst allowance of one
// second's worth, so the header fetch right after a search doesn't stall
// call-by-call.
type TokenBucket struct {
	ticker *time.Ticker
	tokens chan struct{}
	quit   chan struct{}
}

// NewTokenBucket returns a limiter releasing rps tokens per second. The
// bucket starts full; a short pass may never block at all.
func NewTokenBucket(rps int) *TokenBucket {
	if rps <= 0 {
		rps = 1
	}
	tb := &TokenBucket{
		ticker: time.NewTicker(time.Second / time.Duration(rps)),
		tokens: make(chan struct{}, rps),
		quit:   make(chan struct{}),
	}
	for i := 0; i < rps; i++ {
		tb.tokens <- struct{}{}
	}
	go tb.refill()
	return tb
}

func (t *TokenBucket) refill() {
	for {
		select {
		case <-t.quit:
			return
		case <-t.ticker.C:
			select {
			case t.tokens <- struct{}{}:
			default:
				// bucket full; drop the token
			}
		}
	}
}

// Wait blocks until a token is available or the context is canceled.
func (t *TokenBucket) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate wait canceled: %w", ctx.Err())
	case <-t.tokens:
		return nil
	}
}

// Stop halts the refill goroutine. Waiters already blocked in Wait are
// released only by their context.
func (t *TokenBucket) Stop() {
	t.ticker.Stop()
	close(t.quit)
}

var _ Limiter = (*TokenBucket)(nil)
