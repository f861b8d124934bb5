package elgamal

import (
	"fmt"
	"math/big"

	"github.com/takakv/chainvote/group"
)

// Vector is an ordered sequence of ciphertexts, one per voting option.
type Vector []*Ciphertext

// ZeroVector returns n trivial encryptions of 0.
func ZeroVector(g group.Group, n int) Vector {
	v := make(Vector, n)
	for i := range v {
		v[i] = Zero(g)
	}
	return v
}

// EncryptVector encrypts every plaintext of ms under pk and returns the
// ciphertexts together with the randomness used for each entry.
func EncryptVector(pk *PublicKey, ms []*big.Int) (Vector, []*big.Int, error) {
	v := make(Vector, len(ms))
	rs := make([]*big.Int, len(ms))
	for i, m := range ms {
		c, r, err := Encrypt(pk, m)
		if err != nil {
			return nil, nil, err
		}
		v[i], rs[i] = c, r
	}
	return v, rs, nil
}

// Validate checks every entry and that all entries share the group g.
func (v Vector) Validate(g group.Group) error {
	for i, c := range v {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("ciphertext %d: %w", i, err)
		}
		if !group.InGroup(g, c.U, c.V) {
			return fmt.Errorf("ciphertext %d: %w", i, ErrGroupMismatch)
		}
	}
	return nil
}

// AddVectors returns the entry-wise sum of a and b.
func AddVectors(a, b Vector) (Vector, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("vector length mismatch: %d != %d", len(a), len(b))
	}
	out := make(Vector, len(a))
	for i := range a {
		c, err := Add(a[i], b[i])
		if err != nil {
			return nil, fmt.Errorf("ciphertext %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

// Copy returns a deep copy of v.
func (v Vector) Copy() Vector {
	out := make(Vector, len(v))
	for i, c := range v {
		out[i] = c.Copy()
	}
	return out
}

// Equal reports whether both vectors hold equal ciphertexts.
func (v Vector) Equal(other Vector) bool {
	if len(v) != len(other) {
		return false
	}
	for i := range v {
		if !v[i].Equal(other[i]) {
			return false
		}
	}
	return true
}
