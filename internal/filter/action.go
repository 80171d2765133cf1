package filter

import (
	"fmt"
	"strings"
)

// ActionKind enumerates the closed set of filter actions.
type ActionKind int

const (
	// ActionStar writes the \Starred label.
	ActionStar ActionKind = iota
	// ActionFlag sets the \Flagged flag.
	ActionFlag
	// ActionMove labels the message with a destination and strips \Inbox.
	ActionMove
)

// Action is one mutation a matched filter applies. Label is set only for
// ActionMove.
type Action struct {
	Kind  ActionKind
	Label string
}

// ParseAction resolves a bare action name. Unknown names are a load-time
// configuration error, never deferred to dispatch.
func ParseAction(s string) (Action, error) {
	switch {
	case s == "Star":
		return Action{Kind: ActionStar}, nil
	case s == "Flag":
		return Action{Kind: ActionFlag}, nil
	case strings.HasPrefix(s, "Move:"):
		label := strings.TrimPrefix(s, "Move:")
		if label == "" {
			return Action{}, fmt.Errorf("action %q is missing a destination label", s)
		}
		return Action{Kind: ActionMove, Label: label}, nil
	default:
		return Action{}, fmt.Errorf("unknown action %q", s)
	}
}

// MoveAction builds an ActionMove with a validated destination.
func MoveAction(label string) (Action, error) {
	if strings.TrimSpace(label) == "" {
		return Action{}, fmt.Errorf("move action requires a destination label")
	}
	return Action{Kind: ActionMove, Label: label}, nil
}

func (a Action) String() string {
	switch a.Kind {
	case ActionStar:
		return "Star"
	case ActionFlag:
		return "Flag"
	case ActionMove:
		return "Move:" + a.Label
	default:
		return fmt.Sprintf("Action(%d)", int(a.Kind))
	}
}
