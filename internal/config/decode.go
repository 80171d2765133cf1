package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshsymonds/mailreap/internal/filter"
	"github.com/joshsymonds/mailreap/internal/retain"
)

// patternList accepts either a single scalar pattern or a list of patterns
// and always normalizes to a list, so match time never branches on shape.
type patternList []string

func (p *patternList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		*p = patternList{single}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		if list == nil {
			list = []string{}
		}
		*p = patternList(list)
		return nil
	default:
		return fmt.Errorf("line %d: expected a pattern or a list of patterns", node.Line)
	}
}

// actionList accepts a bare action name, a {Move: label} map, or a list
// mixing both forms.
type actionList []filter.Action

func (a *actionList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode, yaml.MappingNode:
		action, err := decodeAction(node)
		if err != nil {
			return err
		}
		*a = actionList{action}
		return nil
	case yaml.SequenceNode:
		out := make(actionList, 0, len(node.Content))
		for _, item := range node.Content {
			action, err := decodeAction(item)
			if err != nil {
				return err
			}
			out = append(out, action)
		}
		*a = out
		return nil
	default:
		return fmt.Errorf("line %d: expected an action or a list of actions", node.Line)
	}
}

func decodeAction(node *yaml.Node) (filter.Action, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var raw string
		if err := node.Decode(&raw); err != nil {
			return filter.Action{}, err
		}
		action, err := filter.ParseAction(raw)
		if err != nil {
			return filter.Action{}, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return action, nil
	case yaml.MappingNode:
		var m map[string]string
		if err := node.Decode(&m); err != nil {
			return filter.Action{}, err
		}
		if len(m) != 1 {
			return filter.Action{}, fmt.Errorf("line %d: action map must have exactly one key", node.Line)
		}
		for key, value := range m {
			if key != "Move" {
				return filter.Action{}, fmt.Errorf("line %d: unknown action %q, expected Move", node.Line, key)
			}
			action, err := filter.MoveAction(value)
			if err != nil {
				return filter.Action{}, fmt.Errorf("line %d: %w", node.Line, err)
			}
			return action, nil
		}
		return filter.Action{}, fmt.Errorf("line %d: empty action map", node.Line)
	default:
		return filter.Action{}, fmt.Errorf("line %d: expected an action name or {Move: label}", node.Line)
	}
}

// rawTTL accepts "7d"-style literals, the literal keep (any case), or a
// {read, unread} pair. Duration strings are parsed eagerly so a typo fails
// the load, not the pass.
type rawTTL struct {
	keep   bool
	fixed  string
	read   string
	unread string
}

func (t *rawTTL) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var raw string
		if err := node.Decode(&raw); err != nil {
			return err
		}
		if strings.EqualFold(raw, "keep") {
			t.keep = true
			return nil
		}
		t.fixed = raw
		return nil
	case yaml.MappingNode:
		var pair struct {
			Read   string `yaml:"read"`
			Unread string `yaml:"unread"`
		}
		if err := node.Decode(&pair); err != nil {
			return err
		}
		if pair.Read == "" || pair.Unread == "" {
			return fmt.Errorf("line %d: ttl map needs both read and unread", node.Line)
		}
		t.read = pair.Read
		t.unread = pair.Unread
		return nil
	default:
		return fmt.Errorf("line %d: expected a ttl string, 'keep', or {read, unread}", node.Line)
	}
}

func (t *rawTTL) toTTL() (retain.TTL, error) {
	switch {
	case t.keep:
		return retain.Keep(), nil
	case t.fixed != "":
		d, err := retain.ParseDuration(t.fixed)
		if err != nil {
			return retain.TTL{}, fmt.Errorf("ttl: %w", err)
		}
		return retain.Fixed(d), nil
	default:
		read, err := retain.ParseDuration(t.read)
		if err != nil {
			return retain.TTL{}, fmt.Errorf("ttl read: %w", err)
		}
		unread, err := retain.ParseDuration(t.unread)
		if err != nil {
			return retain.TTL{}, fmt.Errorf("ttl unread: %w", err)
		}
		return retain.ReadConditioned(read, unread), nil
	}
}

// rawAction accepts a folder name, the literal delete (any case), or a
// {Move: label} map.
type rawAction struct {
	action retain.Action
}

func (a *rawAction) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var raw string
		if err := node.Decode(&raw); err != nil {
			return err
		}
		if strings.EqualFold(raw, "delete") {
			a.action = retain.Delete()
			return nil
		}
		if strings.TrimSpace(raw) == "" {
			return fmt.Errorf("line %d: state action must not be empty", node.Line)
		}
		a.action = retain.MoveTo(raw)
		return nil
	case yaml.MappingNode:
		var m map[string]string
		if err := node.Decode(&m); err != nil {
			return err
		}
		if len(m) != 1 {
			return fmt.Errorf("line %d: state action map must have exactly one key", node.Line)
		}
		for key, value := range m {
			if key != "Move" {
				return fmt.Errorf("line %d: unknown state action %q, expected Move", node.Line, key)
			}
			if strings.TrimSpace(value) == "" {
				return fmt.Errorf("line %d: Move requires a destination label", node.Line)
			}
			a.action = retain.MoveTo(value)
		}
		return nil
	default:
		return fmt.Errorf("line %d: expected a folder name, 'delete', or {Move: label}", node.Line)
	}
}
