// Package config loads and validates the declarative rule file. All
// normalization happens here: scalar-or-list pattern fields become lists,
// action and TTL variants become closed tagged types, and malformed globs
// or unknown variant names fail the load, never a later match.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshsymonds/mailreap/internal/filter"
	"github.com/joshsymonds/mailreap/internal/retain"
)

// Config is the fully validated, normalized configuration for one pass.
// Filters and states preserve file order.
type Config struct {
	Domain   string
	Username string
	Password string
	Filters  []*filter.MessageFilter
	States   []retain.State
}

type rawConfig struct {
	Domain   string                 `yaml:"imap_domain"`
	Username string                 `yaml:"imap_username"`
	Password string                 `yaml:"imap_password"`
	Filters  []map[string]rawFilter `yaml:"filters"`
	States   []map[string]rawState  `yaml:"states"`
}

type rawFilter struct {
	To      *patternList `yaml:"to"`
	Cc      *patternList `yaml:"cc"`
	From    *patternList `yaml:"from"`
	Subject patternList  `yaml:"subject"`
	Action  *actionList  `yaml:"action"`
	Actions *actionList  `yaml:"actions"`
}

type rawState struct {
	Query  string     `yaml:"query"`
	TTL    *rawTTL    `yaml:"ttl"`
	Action *rawAction `yaml:"action"`
	Nerf   bool       `yaml:"nerf"`
}

// Load reads, parses, and validates a configuration file. Selection query
// vocabulary is deliberately not enforced here: a bad query disables only
// its own state at run time, while everything validated here is fatal.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Config from raw YAML.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Domain:   raw.Domain,
		Username: raw.Username,
		Password: raw.Password,
	}
	for i, entry := range raw.Filters {
		name, rf, err := singleKey(entry, "filter", i)
		if err != nil {
			return nil, err
		}
		mf, err := rf.build(name)
		if err != nil {
			return nil, err
		}
		cfg.Filters = append(cfg.Filters, mf)
	}
	for i, entry := range raw.States {
		name, rs, err := singleKey(entry, "state", i)
		if err != nil {
			return nil, err
		}
		state, err := rs.build(name)
		if err != nil {
			return nil, err
		}
		cfg.States = append(cfg.States, state)
	}
	return cfg, nil
}

// singleKey unwraps the "list of single-key maps" layout that gives filters
// and states their names while preserving file order.
func singleKey[T any](entry map[string]T, kind string, index int) (string, T, error) {
	var zero T
	if len(entry) != 1 {
		return "", zero, fmt.Errorf("%s entry %d must have exactly one name key, got %d", kind, index, len(entry))
	}
	for name, value := range entry {
		if strings.TrimSpace(name) == "" {
			return "", zero, fmt.Errorf("%s entry %d has an empty name", kind, index)
		}
		return name, value, nil
	}
	return "", zero, fmt.Errorf("%s entry %d is empty", kind, index)
}

func (r rawFilter) build(name string) (*filter.MessageFilter, error) {
	to, err := buildAddressFilter(name, "to", r.To)
	if err != nil {
		return nil, err
	}
	cc, err := buildAddressFilter(name, "cc", r.Cc)
	if err != nil {
		return nil, err
	}
	from, err := buildAddressFilter(name, "from", r.From)
	if err != nil {
		return nil, err
	}
	actions, err := r.actionSlice()
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", name, err)
	}
	mf, err := filter.NewMessageFilter(name, to, cc, from, r.Subject, actions)
	if err != nil {
		return nil, err
	}
	return mf, nil
}

// actionSlice merges the `action` and `actions` spellings, which are
// aliases; configuring both is ambiguous and rejected.
func (r rawFilter) actionSlice() ([]filter.Action, error) {
	if r.Action != nil && r.Actions != nil {
		return nil, fmt.Errorf("both 'action' and 'actions' are set; use one")
	}
	if r.Action != nil {
		return *r.Action, nil
	}
	if r.Actions != nil {
		return *r.Actions, nil
	}
	return nil, nil
}

func buildAddressFilter(name, field string, p *patternList) (*filter.AddressFilter, error) {
	if p == nil {
		return nil, nil
	}
	af, err := filter.NewAddressFilter(*p)
	if err != nil {
		return nil, fmt.Errorf("filter %s, field %s: %w", name, field, err)
	}
	return af, nil
}

func (r rawState) build(name string) (retain.State, error) {
	if strings.TrimSpace(r.Query) == "" {
		return retain.State{}, fmt.Errorf("state %s: query is required", name)
	}
	if r.TTL == nil {
		return retain.State{}, fmt.Errorf("state %s: ttl is required", name)
	}
	ttl, err := r.TTL.toTTL()
	if err != nil {
		return retain.State{}, fmt.Errorf("state %s: %w", name, err)
	}
	action := retain.DefaultAction()
	if r.Action != nil {
		action = r.Action.action
	}
	return retain.State{
		Name:   name,
		Query:  r.Query,
		TTL:    ttl,
		Action: action,
		DryRun: r.Nerf,
	}, nil
}
