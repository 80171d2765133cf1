package imap

import (
	"fmt"
	"strings"
)

// Keywords accepted in selection queries. The vocabulary is deliberately
// restricted: standard status flags, boolean combinators, and the Gmail
// label-addressing extension. Anything else must be a quoted literal or an
// alphanumeric label/mailbox name.
var queryKeywords = map[string]struct{}{
	"ALL":         {},
	"ANSWERED":    {},
	"DELETED":     {},
	"DRAFT":       {},
	"FLAGGED":     {},
	"NEW":         {},
	"OLD":         {},
	"RECENT":      {},
	"SEEN":        {},
	"UNANSWERED":  {},
	"UNDELETED":   {},
	"UNDRAFT":     {},
	"UNFLAGGED":   {},
	"UNSEEN":      {},
	"NOT":         {},
	"OR":          {},
	"AND":         {},
	"INBOX":       {},
	"X-GM-LABELS": {},
	"X-GM-RAW":    {},
	"X-GM-THRID":  {},
	"X-GM-MSGID":  {},
}

// Flag names that may appear escaped with a leading backslash, as in
// `X-GM-LABELS "\Starred"`.
var queryFlagEscapes = map[string]struct{}{
	"SEEN":      {},
	"DELETED":   {},
	"FLAGGED":   {},
	"DRAFT":     {},
	"ANSWERED":  {},
	"STARRED":   {},
	"IMPORTANT": {},
	"INBOX":     {},
	"TRASH":     {},
	"SPAM":      {},
}

// ValidateQuery checks a selection query against the supported vocabulary
// before it is ever sent to the server. It is a token scan, not a grammar
// parser: the goal is to fail misconfigured states locally instead of
// surfacing an opaque server BAD mid-pass.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query must not be empty")
	}
	for _, token := range strings.Fields(query) {
		trimmed := strings.Trim(token, `()"`)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, `\`) {
			name := strings.ToUpper(strings.TrimPrefix(trimmed, `\`))
			if _, ok := queryFlagEscapes[name]; !ok {
				return fmt.Errorf("unknown escaped flag %q in query %q", token, query)
			}
			continue
		}
		if _, ok := queryKeywords[strings.ToUpper(trimmed)]; ok {
			continue
		}
		if isAlphanumeric(trimmed) {
			// user-defined label or mailbox name
			continue
		}
		return fmt.Errorf("unsupported token %q in query %q", token, query)
	}
	return nil
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return len(s) > 0
}
