package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"
	"time"

	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-imap/responses"
)

// gmLabelsItem is the Gmail extension fetch/store item for message labels.
const gmLabelsItem = "X-GM-LABELS"

// Session adapts an emersion go-imap client to the Client interface.
// All calls are synchronous; the underlying protocol connection is owned
// exclusively by one pass.
type Session struct {
	cl *client.Client
}

// DialTLS connects to host:993, verifies the certificate against host, and
// authenticates with LOGIN. Connection and authentication failures are fatal
// to the run by contract, so both are returned before any mutation happens.
func DialTLS(host, username, password string) (*Session, error) {
	addr := fmt.Sprintf("%s:%d", host, 993)
	cl, err := client.DialTLS(addr, &tls.Config{ServerName: host})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	if err := cl.Login(username, password); err != nil {
		_ = cl.Logout()
		return nil, fmt.Errorf("authenticate %s: %w", username, err)
	}
	return &Session{cl: cl}, nil
}

func (s *Session) Select(ctx context.Context, mailbox string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.cl.Select(mailbox, false); err != nil {
		return fmt.Errorf("select %s: %w", mailbox, err)
	}
	return nil
}

// rawSearch carries a verbatim query string to UID SEARCH. The standard
// SearchCriteria type cannot express Gmail extensions like X-GM-LABELS.
type rawSearch struct {
	query string
}

func (c *rawSearch) Command() *goimap.Command {
	return &goimap.Command{
		Name:      "UID SEARCH",
		Arguments: []interface{}{goimap.RawString(c.query)},
	}
}

func (s *Session) Search(ctx context.Context, query string) ([]UID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &responses.Search{}
	status, err := s.cl.Execute(&rawSearch{query: query}, res)
	if err != nil {
		return nil, fmt.Errorf("uid search %q: %w", query, err)
	}
	if err := status.Err(); err != nil {
		return nil, fmt.Errorf("uid search %q: %w", query, err)
	}
	uids := make([]UID, 0, len(res.Ids))
	for _, id := range res.Ids {
		uids = append(uids, UID(id))
	}
	return uids, nil
}

func (s *Session) FetchHeaders(ctx context.Context, uids []UID) ([]RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(uids) == 0 {
		return nil, nil
	}
	seqset := new(goimap.SeqSet)
	for _, uid := range uids {
		seqset.AddNum(uint32(uid))
	}
	section := &goimap.BodySectionName{
		BodyPartName: goimap.BodyPartName{Specifier: goimap.HeaderSpecifier},
		Peek:         true,
	}
	items := []goimap.FetchItem{goimap.FetchUid, section.FetchItem()}

	ch := make(chan *goimap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- s.cl.UidFetch(seqset, items, ch)
	}()

	var out []RawMessage
	for msg := range ch {
		raw := RawMessage{UID: UID(msg.Uid), SeqNum: msg.SeqNum}
		if body := msg.GetBody(section); body != nil {
			data, err := io.ReadAll(body)
			if err == nil {
				raw.Header = data
			}
		}
		out = append(out, raw)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch headers: %w", err)
	}
	return out, nil
}

func (s *Session) FetchInfo(ctx context.Context, uid UID) (MessageInfo, error) {
	if err := ctx.Err(); err != nil {
		return MessageInfo{}, err
	}
	seqset := new(goimap.SeqSet)
	seqset.AddNum(uint32(uid))
	items := []goimap.FetchItem{
		goimap.FetchUid,
		goimap.FetchFlags,
		goimap.FetchInternalDate,
		goimap.FetchEnvelope,
		goimap.FetchItem(gmLabelsItem),
	}

	ch := make(chan *goimap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.cl.UidFetch(seqset, items, ch)
	}()

	info := MessageInfo{UID: uid, Labels: map[string]struct{}{}}
	for msg := range ch {
		info.ReceivedAt = msg.InternalDate
		if msg.Envelope != nil {
			info.Subject = msg.Envelope.Subject
		}
		for _, flag := range msg.Flags {
			switch flag {
			case goimap.SeenFlag:
				info.Seen = true
			case goimap.FlaggedFlag:
				info.Flagged = true
			}
		}
		for label := range parseLabelsItem(msg.Items[goimap.FetchItem(gmLabelsItem)]) {
			info.Labels[label] = struct{}{}
		}
	}
	if err := <-done; err != nil {
		return MessageInfo{}, fmt.Errorf("fetch info for uid %d: %w", uid, err)
	}
	return info, nil
}

// parseLabelsItem flattens the X-GM-LABELS fetch attribute, which arrives
// as a list of atoms or quoted strings.
func parseLabelsItem(raw interface{}) map[string]struct{} {
	labels := map[string]struct{}{}
	fields, ok := raw.([]interface{})
	if !ok {
		return labels
	}
	for _, field := range fields {
		var name string
		switch v := field.(type) {
		case string:
			name = v
		case goimap.RawString:
			name = string(v)
		case fmt.Stringer:
			name = v.String()
		default:
			continue
		}
		name = strings.Trim(name, `"`)
		if name != "" {
			labels[name] = struct{}{}
		}
	}
	return labels
}

func (s *Session) StoreLabels(ctx context.Context, uid UID, op LabelOp, labels []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(labels) == 0 {
		return nil
	}
	sign := "+"
	if op == RemoveLabels {
		sign = "-"
	}
	item := goimap.StoreItem(sign + gmLabelsItem)
	values := make([]interface{}, 0, len(labels))
	for _, label := range labels {
		values = append(values, goimap.RawString(`"`+EscapeLabel(label)+`"`))
	}
	seqset := new(goimap.SeqSet)
	seqset.AddNum(uint32(uid))
	if err := s.cl.UidStore(seqset, item, values, nil); err != nil {
		return fmt.Errorf("store %s%s on uid %d: %w", sign, gmLabelsItem, uid, err)
	}
	return nil
}

func (s *Session) AddFlags(ctx context.Context, uid UID, flags []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(flags) == 0 {
		return nil
	}
	seqset := new(goimap.SeqSet)
	seqset.AddNum(uint32(uid))
	item := goimap.FormatFlagsOp(goimap.AddFlags, true)
	values := make([]interface{}, 0, len(flags))
	for _, flag := range flags {
		values = append(values, flag)
	}
	if err := s.cl.UidStore(seqset, item, values, nil); err != nil {
		return fmt.Errorf("add flags on uid %d: %w", uid, err)
	}
	return nil
}

func (s *Session) MarkDeleted(ctx context.Context, uid UID) error {
	return s.AddFlags(ctx, uid, []string{goimap.DeletedFlag})
}

func (s *Session) ListMailboxes(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := make(chan *goimap.MailboxInfo, 64)
	done := make(chan error, 1)
	go func() {
		done <- s.cl.List("", "*", ch)
	}()
	var names []string
	for info := range ch {
		names = append(names, info.Name)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("list mailboxes: %w", err)
	}
	return names, nil
}

func (s *Session) CreateMailbox(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.cl.Create(name); err != nil {
		return fmt.Errorf("create mailbox %q: %w", name, err)
	}
	return nil
}

func (s *Session) Expunge(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.cl.Expunge(nil); err != nil {
		return fmt.Errorf("expunge: %w", err)
	}
	return nil
}

func (s *Session) Logout() error {
	// Give a slow server a bounded window to acknowledge.
	s.cl.Timeout = 10 * time.Second
	return s.cl.Logout()
}

var _ Client = (*Session)(nil)
