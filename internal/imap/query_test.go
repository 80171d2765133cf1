package imap

import "testing"

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{name: "single-flag", query: "SEEN"},
		{name: "lowercase-flag", query: "unseen"},
		{name: "negation", query: "NOT FLAGGED"},
		{name: "or-pair", query: "OR SEEN DRAFT"},
		{name: "gmail-label", query: `X-GM-LABELS "Newsletters"`},
		{name: "escaped-system-label", query: `X-GM-LABELS "\Starred"`},
		{name: "escaped-flag-lowercase", query: `X-GM-LABELS "\important"`},
		{name: "parenthesized", query: "(SEEN UNDRAFT)"},
		{name: "raw-search", query: `X-GM-RAW "invoices"`},
		{name: "empty", query: "", wantErr: true},
		{name: "whitespace-only", query: "   ", wantErr: true},
		{name: "boolean-operator-symbols", query: "SEEN && UNSEEN", wantErr: true},
		{name: "unknown-escape", query: `X-GM-LABELS "\Nonsense"`, wantErr: true},
		{name: "punctuation-token", query: "SEEN; DROP", wantErr: true},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateQuery(tc.query)
			if tc.wantErr && err == nil {
				t.Fatalf("ValidateQuery(%q) accepted an invalid query", tc.query)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("ValidateQuery(%q) rejected a valid query: %v", tc.query, err)
			}
		})
	}
}
