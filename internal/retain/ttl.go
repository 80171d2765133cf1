// Package retain implements time-based retention: TTL policy resolution and
// the state evaluation loop that moves or deletes expired messages.
package retain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TTLKind enumerates the closed set of TTL variants.
type TTLKind int

const (
	// TTLKeep exempts matching messages from expiry entirely.
	TTLKeep TTLKind = iota
	// TTLFixed expires after a single duration regardless of read state.
	TTLFixed
	// TTLReadConditioned picks the read duration when \Seen is set and the
	// unread duration otherwise.
	TTLReadConditioned
)

// TTL is the age threshold policy for one retention state.
type TTL struct {
	Kind   TTLKind
	Fixed  time.Duration
	Read   time.Duration
	Unread time.Duration
}

// Keep returns the no-expiry TTL.
func Keep() TTL {
	return TTL{Kind: TTLKeep}
}

// Fixed returns a TTL expiring after d.
func Fixed(d time.Duration) TTL {
	return TTL{Kind: TTLFixed, Fixed: d}
}

// ReadConditioned returns a TTL conditioned on the read flag.
func ReadConditioned(read, unread time.Duration) TTL {
	return TTL{Kind: TTLReadConditioned, Read: read, Unread: unread}
}

// Resolve returns the required age for a message with the given read state.
// The second return is false for Keep: no duration ever expires the message.
func (t TTL) Resolve(seen bool) (time.Duration, bool) {
	switch t.Kind {
	case TTLKeep:
		return 0, false
	case TTLFixed:
		return t.Fixed, true
	case TTLReadConditioned:
		if seen {
			return t.Read, true
		}
		return t.Unread, true
	default:
		return 0, false
	}
}

func (t TTL) String() string {
	switch t.Kind {
	case TTLKeep:
		return "keep"
	case TTLFixed:
		return t.Fixed.String()
	case TTLReadConditioned:
		return fmt.Sprintf("read=%s unread=%s", t.Read, t.Unread)
	default:
		return fmt.Sprintf("TTL(%d)", int(t.Kind))
	}
}

// ParseDuration accepts the configuration duration literals: a day count
// like "7d", or anything time.ParseDuration understands ("12h", "90m").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		if n < 0 {
			return 0, fmt.Errorf("invalid duration %q: negative day count", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	return d, nil
}
