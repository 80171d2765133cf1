package filter

import (
	"testing"

	"github.com/joshsymonds/mailreap/internal/message"
)

func mustAddressFilter(t *testing.T, patterns []string) *AddressFilter {
	t.Helper()
	f, err := NewAddressFilter(patterns)
	if err != nil {
		t.Fatalf("compile %v: %v", patterns, err)
	}
	return f
}

func mustMessageFilter(
	t *testing.T,
	name string,
	to, cc, from *AddressFilter,
	subject []string,
	actions []Action,
) *MessageFilter {
	t.Helper()
	f, err := NewMessageFilter(name, to, cc, from, subject, actions)
	if err != nil {
		t.Fatalf("build filter %s: %v", name, err)
	}
	return f
}

func msgWith(to, cc, from []string, subject string) message.Message {
	build := func(addrs []string) []message.Address {
		out := make([]message.Address, 0, len(addrs))
		for _, a := range addrs {
			out = append(out, message.Address{Address: a})
		}
		return out
	}
	return message.Message{
		UID:     1,
		To:      build(to),
		Cc:      build(cc),
		From:    build(from),
		Subject: subject,
	}
}

func TestCompareFieldSemantics(t *testing.T) {
	tests := []struct {
		name   string
		filter func(t *testing.T) *MessageFilter
		msg    message.Message
		want   bool
	}{
		{
			name: "absent-fields-match-anything",
			filter: func(t *testing.T) *MessageFilter {
				return mustMessageFilter(t, "any", nil, nil, nil, nil, nil)
			},
			msg:  msgWith([]string{"x@y.z"}, []string{"c@y.z"}, []string{"f@y.z"}, "hello"),
			want: true,
		},
		{
			name: "present-empty-requires-empty-list",
			filter: func(t *testing.T) *MessageFilter {
				return mustMessageFilter(t, "no-cc", nil, mustAddressFilter(t, []string{}), nil, nil, nil)
			},
			msg:  msgWith(nil, nil, []string{"f@y.z"}, ""),
			want: true,
		},
		{
			name: "present-empty-rejects-populated-list",
			filter: func(t *testing.T) *MessageFilter {
				return mustMessageFilter(t, "no-cc", nil, mustAddressFilter(t, []string{}), nil, nil, nil)
			},
			msg:  msgWith(nil, []string{"cc@y.z"}, nil, ""),
			want: false,
		},
		{
			name: "present-nonempty-delegates",
			filter: func(t *testing.T) *MessageFilter {
				return mustMessageFilter(t, "from-corp", nil, nil, mustAddressFilter(t, []string{"*@corp.example"}), nil, nil)
			},
			msg:  msgWith(nil, nil, []string{"alice@corp.example"}, ""),
			want: true,
		},
		{
			name: "all-fields-anded",
			filter: func(t *testing.T) *MessageFilter {
				return mustMessageFilter(t, "both",
					mustAddressFilter(t, []string{"*@corp.example"}),
					nil,
					mustAddressFilter(t, []string{"*@other.example"}),
					nil, nil)
			},
			msg:  msgWith([]string{"me@corp.example"}, nil, []string{"someone@elsewhere.example"}, ""),
			want: false,
		},
		{
			name: "subject-empty-is-match-all",
			filter: func(t *testing.T) *MessageFilter {
				return mustMessageFilter(t, "subjectless", nil, nil, nil, nil, nil)
			},
			msg:  msgWith(nil, nil, nil, "whatever"),
			want: true,
		},
		{
			name: "subject-glob",
			filter: func(t *testing.T) *MessageFilter {
				return mustMessageFilter(t, "urgent", nil, nil, nil, []string{"*urgent*"}, nil)
			},
			msg:  msgWith(nil, nil, nil, "very urgent: do the thing"),
			want: true,
		},
		{
			name: "subject-glob-miss",
			filter: func(t *testing.T) *MessageFilter {
				return mustMessageFilter(t, "urgent", nil, nil, nil, []string{"*urgent*"}, nil)
			},
			msg:  msgWith(nil, nil, nil, "weekly digest"),
			want: false,
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			f := tc.filter(t)
			if got := f.Compare(tc.msg).Match(); got != tc.want {
				t.Fatalf("Compare(...).Match() = %v, want %v (%+v)", got, tc.want, f.Compare(tc.msg))
			}
		})
	}
}

// The "to matches, cc must be empty" rule shape from the engine contract.
func TestCompareNoCcRule(t *testing.T) {
	f := mustMessageFilter(t, "direct-only",
		mustAddressFilter(t, []string{"*@example.org"}),
		mustAddressFilter(t, []string{}),
		nil, nil,
		[]Action{{Kind: ActionStar}})

	direct := msgWith([]string{"alice@example.org"}, nil, nil, "")
	if !f.Compare(direct).Match() {
		t.Fatalf("expected direct message to match")
	}

	copied := msgWith([]string{"alice@example.org"}, []string{"bob@example.org"}, nil, "")
	got := f.Compare(copied)
	if got.Cc {
		t.Fatalf("cc field should be false when cc list is populated")
	}
	if got.Match() {
		t.Fatalf("expected cc'd message not to match")
	}
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		input   string
		want    Action
		wantErr bool
	}{
		{input: "Star", want: Action{Kind: ActionStar}},
		{input: "Flag", want: Action{Kind: ActionFlag}},
		{input: "Move:Archive", want: Action{Kind: ActionMove, Label: "Archive"}},
		{input: "Move:", wantErr: true},
		{input: "Unknown", wantErr: true},
		{input: "star", wantErr: true},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseAction(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("ParseAction(%q) = %+v, want %+v", tc.input, got, tc.want)
			}
		})
	}
}
