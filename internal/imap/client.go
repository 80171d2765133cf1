package imap

import "context"

// Client is the narrow IMAP surface required by mailreap. The session is
// single-threaded: callers never invoke methods concurrently.
type Client interface {
	// Select opens a mailbox read-write.
	Select(ctx context.Context, mailbox string) error
	// Search issues a raw UID SEARCH with the given query string.
	Search(ctx context.Context, query string) ([]UID, error)
	// FetchHeaders retrieves header blocks for the given UIDs.
	FetchHeaders(ctx context.Context, uids []UID) ([]RawMessage, error)
	// FetchInfo retrieves labels, flags and the receipt timestamp for one UID.
	FetchInfo(ctx context.Context, uid UID) (MessageInfo, error)
	// StoreLabels adds or removes Gmail labels on one UID.
	StoreLabels(ctx context.Context, uid UID, op LabelOp, labels []string) error
	// AddFlags sets standard IMAP flags on one UID.
	AddFlags(ctx context.Context, uid UID, flags []string) error
	// MarkDeleted flags one UID for deletion; Expunge makes it permanent.
	MarkDeleted(ctx context.Context, uid UID) error
	ListMailboxes(ctx context.Context) ([]string, error)
	CreateMailbox(ctx context.Context, name string) error
	Expunge(ctx context.Context) error
	Logout() error
}
