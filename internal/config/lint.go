package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshsymonds/mailreap/internal/imap"
)

// Finding classes reported by Lint.
const (
	FindingFilter         = "filter"
	FindingState          = "state"
	FindingQuery          = "query"
	FindingDuplicateQuery = "duplicate-query"
)

// Finding is one lint problem, attributed to the filter or state it came
// from.
type Finding struct {
	Class  string
	Name   string
	Detail string
}

// LintReport collects every problem in a configuration file, unlike Load,
// which stops at the first fatal one.
type LintReport struct {
	Filters  int
	States   int
	Findings []Finding
}

// Lint parses a configuration file and accumulates all findings. The
// returned error is reserved for unreadable or unparsable files.
func Lint(path string) (LintReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LintReport{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return LintReport{}, fmt.Errorf("parse config: %w", err)
	}

	rep := LintReport{Filters: len(raw.Filters), States: len(raw.States)}
	for i, entry := range raw.Filters {
		name, rf, err := singleKey(entry, "filter", i)
		if err != nil {
			rep.add(FindingFilter, fmt.Sprintf("entry %d", i), err.Error())
			continue
		}
		if _, err := rf.build(name); err != nil {
			rep.add(FindingFilter, name, err.Error())
		}
	}

	queryOwners := map[string][]string{}
	for i, entry := range raw.States {
		name, rs, err := singleKey(entry, "state", i)
		if err != nil {
			rep.add(FindingState, fmt.Sprintf("entry %d", i), err.Error())
			continue
		}
		if _, err := rs.build(name); err != nil {
			rep.add(FindingState, name, err.Error())
		}
		if strings.TrimSpace(rs.Query) != "" {
			if err := imap.ValidateQuery(rs.Query); err != nil {
				rep.add(FindingQuery, name, err.Error())
			}
			queryOwners[rs.Query] = append(queryOwners[rs.Query], name)
		}
	}

	// Overlapping selection queries are a correctness precondition the
	// engine does not enforce; flag the literal-duplicate case.
	for query, owners := range queryOwners {
		if len(owners) > 1 {
			sort.Strings(owners)
			rep.add(
				FindingDuplicateQuery,
				strings.Join(owners, ", "),
				fmt.Sprintf("states share the query %q; they will re-evaluate the same messages", query),
			)
		}
	}
	sort.SliceStable(rep.Findings, func(i, j int) bool {
		if rep.Findings[i].Class != rep.Findings[j].Class {
			return rep.Findings[i].Class < rep.Findings[j].Class
		}
		return rep.Findings[i].Name < rep.Findings[j].Name
	})
	return rep, nil
}

func (r *LintReport) add(class, name, detail string) {
	r.Findings = append(r.Findings, Finding{Class: class, Name: name, Detail: detail})
}

// ShouldFail reports whether any finding matches the requested classes.
func (r LintReport) ShouldFail(classes []string) bool {
	want := map[string]bool{}
	for _, class := range classes {
		class = strings.TrimSpace(strings.ToLower(class))
		if class != "" {
			want[class] = true
		}
	}
	for _, finding := range r.Findings {
		if want[finding.Class] {
			return true
		}
	}
	return false
}

// HumanSummary renders a concise CLI summary.
func (r LintReport) HumanSummary() string {
	builder := &strings.Builder{}
	fmt.Fprintf(builder, "mailreap lint: %d filters, %d states\n", r.Filters, r.States)
	if len(r.Findings) == 0 {
		builder.WriteString("no findings\n")
		return builder.String()
	}
	for _, finding := range r.Findings {
		fmt.Fprintf(builder, "  %s: %s: %s\n", finding.Class, finding.Name, finding.Detail)
	}
	return builder.String()
}

// ParseFailOn splits a comma separated class list into canonical tokens.
func ParseFailOn(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
