package group

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2b"
)

// RandomScalar samples a uniform scalar in [1, N).
func RandomScalar(g Group) (*big.Int, error) {
	max := new(big.Int).Sub(g.N(), big.NewInt(1))
	r, err := rand.Int(rand.Reader, max)
	if err != nil {
		return nil, fmt.Errorf("failed to sample scalar: %w", err)
	}
	return r.Add(r, big.NewInt(1)), nil
}

// HashToScalar hashes a domain label and a sequence of messages into a
// scalar modulo the group order. Every message is length-prefixed so that
// distinct sequences never collide by concatenation.
func HashToScalar(g Group, domain string, msgs ...[]byte) *big.Int {
	h, _ := blake2b.New512(nil)
	var l [8]byte
	binary.BigEndian.PutUint64(l[:], uint64(len(domain)))
	h.Write(l[:])
	h.Write([]byte(domain))
	for _, m := range msgs {
		binary.BigEndian.PutUint64(l[:], uint64(len(m)))
		h.Write(l[:])
		h.Write(m)
	}
	s := new(big.Int).SetBytes(h.Sum(nil))
	return s.Mod(s, g.N())
}

// ScalarLen returns the byte length of a canonically encoded scalar.
func ScalarLen(g Group) int {
	return (g.N().BitLen() + 7) / 8
}

// EncodeScalar returns the fixed-width big-endian encoding of s mod N.
func EncodeScalar(g Group, s *big.Int) []byte {
	out := make([]byte, ScalarLen(g))
	new(big.Int).Mod(s, g.N()).FillBytes(out)
	return out
}

// DecodeScalar parses a fixed-width big-endian scalar, rejecting values
// that are not reduced modulo the group order.
func DecodeScalar(g Group, b []byte) (*big.Int, error) {
	if len(b) != ScalarLen(g) {
		return nil, ErrInvalidLength
	}
	s := new(big.Int).SetBytes(b)
	if s.Cmp(g.N()) >= 0 {
		return nil, ErrScalarRange
	}
	return s, nil
}

// EncodeElement returns the canonical encoding of e.
func EncodeElement(e Element) []byte {
	b, _ := e.MarshalBinary()
	return b
}

// DecodeElement parses an element of g and fails unless b is exactly the
// canonical encoding of the decoded element.
func DecodeElement(g Group, b []byte) (Element, error) {
	e := g.Element()
	if err := e.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNonCanonical, err)
	}
	re, err := e.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(re, b) {
		return nil, ErrNonCanonical
	}
	return e, nil
}
