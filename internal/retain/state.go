package retain

import "fmt"

// DefaultStagingLabel receives moved messages when a state configures no
// explicit action.
const DefaultStagingLabel = "ToBeDeleted"

// ActionKind enumerates the closed set of terminal state actions.
type ActionKind int

const (
	// ActionMove relabels the message out of the inbox.
	ActionMove ActionKind = iota
	// ActionDelete flags the message \Deleted; the pass expunges at the end.
	ActionDelete
)

// Action is the terminal mutation applied to an expired message.
type Action struct {
	Kind  ActionKind
	Label string
}

// MoveTo builds a move action with a destination label.
func MoveTo(label string) Action {
	return Action{Kind: ActionMove, Label: label}
}

// Delete builds the delete action.
func Delete() Action {
	return Action{Kind: ActionDelete}
}

// DefaultAction is the staging move applied when a state omits its action.
func DefaultAction() Action {
	return MoveTo(DefaultStagingLabel)
}

func (a Action) String() string {
	switch a.Kind {
	case ActionMove:
		return "Move:" + a.Label
	case ActionDelete:
		return "Delete"
	default:
		return fmt.Sprintf("Action(%d)", int(a.Kind))
	}
}

// State is one retention rule: a server-side selection query, a TTL, a
// terminal action, and a dry-run flag. Name comes from the configuration
// key. States are constructed once at load and read-only afterwards.
type State struct {
	Name   string
	Query  string
	TTL    TTL
	Action Action
	DryRun bool
}
