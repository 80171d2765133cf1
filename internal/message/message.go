// Package message turns fetched header blocks into the normalized view the
// filter engine matches against.
package message

import (
	"bufio"
	"bytes"
	"net/textproto"
	"strings"

	emmail "github.com/emersion/go-message/mail"

	"github.com/joshsymonds/mailreap/internal/imap"
)

// Address is one parsed mailbox: display name plus addr-spec.
type Address struct {
	Name    string
	Address string
}

// Message is the immutable per-pass view of one mailbox item.
type Message struct {
	UID     imap.UID
	SeqNum  uint32
	To      []Address
	Cc      []Address
	From    []Address
	Subject string
}

// Addresses projects the addr-spec strings of a parsed list.
func Addresses(list []Address) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Address)
	}
	return out
}

// Parse builds a Message from one raw header block. Parsing never fails the
// message: unreadable headers or address lists degrade to empty fields so
// the message stays in the working set.
func Parse(raw imap.RawMessage) Message {
	msg := Message{UID: raw.UID, SeqNum: raw.SeqNum}
	if len(raw.Header) == 0 {
		return msg
	}
	reader := textproto.NewReader(bufio.NewReader(bytes.NewReader(raw.Header)))
	header, err := reader.ReadMIMEHeader()
	if err != nil && len(header) == 0 {
		return msg
	}
	msg.To = ParseAddressList(header.Get("To"))
	msg.Cc = ParseAddressList(header.Get("Cc"))
	msg.From = ParseAddressList(header.Get("From"))
	msg.Subject = strings.TrimSpace(header.Get("Subject"))
	return msg
}

// ParseAddressList parses an RFC 5322 address list header value. A value
// that fails structured parsing falls back to a single bare entry with the
// trimmed raw text as the address, mirroring how a human reads a mangled
// header; an empty value yields an empty list.
func ParseAddressList(raw string) []Address {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parsed, err := emmail.ParseAddressList(raw)
	if err != nil {
		return []Address{{Address: raw}}
	}
	out := make([]Address, 0, len(parsed))
	for _, a := range parsed {
		out = append(out, Address{Name: a.Name, Address: a.Address})
	}
	return out
}
