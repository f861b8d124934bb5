package util

import (
	"encoding/binary"
	"math/big"

	"github.com/takakv/chainvote/group"
)

// Transcript accumulates the public data of a Fiat-Shamir transformed
// Sigma protocol. Items are labelled and length-prefixed, and elements are
// appended in their canonical encoding, so the byte order is fixed by the
// order of the Append calls alone.
type Transcript struct {
	g      group.Group
	domain string
	items  [][]byte
}

// NewTranscript starts a transcript bound to a group and a domain label.
func NewTranscript(g group.Group, domain string) *Transcript {
	t := &Transcript{g: g, domain: domain}
	t.AppendMessage("group", []byte(g.Name()))
	return t
}

// AppendMessage appends a labelled byte string.
func (t *Transcript) AppendMessage(label string, msg []byte) {
	item := make([]byte, 0, len(label)+len(msg)+16)
	item = binary.BigEndian.AppendUint64(item, uint64(len(label)))
	item = append(item, label...)
	item = binary.BigEndian.AppendUint64(item, uint64(len(msg)))
	item = append(item, msg...)
	t.items = append(t.items, item)
}

// AppendElements appends group elements in order.
func (t *Transcript) AppendElements(label string, elements ...group.Element) {
	for _, e := range elements {
		t.AppendMessage(label, group.EncodeElement(e))
	}
}

// AppendScalar appends a scalar in its fixed-width encoding.
func (t *Transcript) AppendScalar(label string, s *big.Int) {
	t.AppendMessage(label, group.EncodeScalar(t.g, s))
}

// AppendUint64 appends a labelled integer.
func (t *Transcript) AppendUint64(label string, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	t.AppendMessage(label, b[:])
}

// Challenge derives a challenge scalar from everything appended so far.
// The challenge itself is appended, so successive challenges differ.
func (t *Transcript) Challenge(label string) *big.Int {
	t.AppendMessage("challenge", []byte(label))
	c := group.HashToScalar(t.g, t.domain, t.items...)
	t.AppendScalar(label, c)
	return c
}
