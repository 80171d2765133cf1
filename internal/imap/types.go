package imap

import (
	"strings"
	"time"
)

// UID is a server-assigned message identifier, stable for the session.
type UID uint32

// LabelOp selects the direction of a label store.
type LabelOp int

const (
	AddLabels LabelOp = iota
	RemoveLabels
)

const (
	// Inbox is the system label removed by the move emulation.
	Inbox = "\\Inbox"
	// Starred is the label the Star action writes; it doubles as the
	// protective marker honored by retention.
	Starred = "\\Starred"
	// Flagged is the standard flag the Flag action sets.
	Flagged = "\\Flagged"
)

// RawMessage is one fetched header block, not yet parsed.
type RawMessage struct {
	UID    UID
	SeqNum uint32
	Header []byte
}

// MessageInfo carries the per-message attributes the retention pass needs.
type MessageInfo struct {
	UID        UID
	Subject    string
	Labels     map[string]struct{}
	Seen       bool
	Flagged    bool
	ReceivedAt time.Time
}

// HasLabel reports label membership, matching Gmail's case-preserving names.
func (m MessageInfo) HasLabel(label string) bool {
	_, ok := m.Labels[label]
	return ok
}

// EscapeLabel quotes a label name for embedding in a STORE argument.
// Backslashes and double quotes must be escaped per the wire grammar.
func EscapeLabel(name string) string {
	name = strings.ReplaceAll(name, `\`, `\\`)
	name = strings.ReplaceAll(name, `"`, `\"`)
	return name
}
