package filter

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/joshsymonds/mailreap/internal/message"
)

// MessageFilter is one named, ordered rule: optional per-field address
// filters, optional subject patterns, and the action list applied on match.
// Name comes from the configuration key, never from message content.
type MessageFilter struct {
	Name    string
	To      *AddressFilter
	Cc      *AddressFilter
	From    *AddressFilter
	Actions []Action

	subjectPatterns []string
	subjectGlobs    []glob.Glob
}

// NewMessageFilter compiles the subject patterns and assembles the rule.
// Address filters may be nil (absent field, wildcard semantics) or empty
// (field must be empty on the message).
func NewMessageFilter(
	name string,
	to, cc, from *AddressFilter,
	subjectPatterns []string,
	actions []Action,
) (*MessageFilter, error) {
	f := &MessageFilter{
		Name:            name,
		To:              to,
		Cc:              cc,
		From:            from,
		Actions:         actions,
		subjectPatterns: subjectPatterns,
	}
	for _, pattern := range subjectPatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("filter %s: compile subject pattern %q: %w", name, pattern, err)
		}
		f.subjectGlobs = append(f.subjectGlobs, g)
	}
	return f, nil
}

// FieldMatch is the independent per-field outcome of Compare.
type FieldMatch struct {
	From    bool
	To      bool
	Cc      bool
	Subject bool
}

// Match is the AND of all four fields.
func (m FieldMatch) Match() bool {
	return m.From && m.To && m.Cc && m.Subject
}

// Compare evaluates the tri-state field contract against one message:
// an absent field contributes true; a present-but-empty pattern set
// contributes true iff the message's corresponding list is empty; a
// non-empty set delegates to the AddressFilter. Subject patterns are
// match-all when unset, any-of otherwise.
func (f *MessageFilter) Compare(msg message.Message) FieldMatch {
	return FieldMatch{
		From:    matchAddressField(f.From, message.Addresses(msg.From)),
		To:      matchAddressField(f.To, message.Addresses(msg.To)),
		Cc:      matchAddressField(f.Cc, message.Addresses(msg.Cc)),
		Subject: f.matchSubject(msg.Subject),
	}
}

func matchAddressField(f *AddressFilter, addrs []string) bool {
	if f == nil {
		return true
	}
	if f.Empty() {
		return len(addrs) == 0
	}
	return f.Matches(addrs)
}

func (f *MessageFilter) matchSubject(subject string) bool {
	if len(f.subjectGlobs) == 0 {
		return true
	}
	for _, g := range f.subjectGlobs {
		if g.Match(subject) {
			return true
		}
	}
	return false
}

// SubjectPatterns returns the configured subject pattern strings.
func (f *MessageFilter) SubjectPatterns() []string {
	return f.subjectPatterns
}
