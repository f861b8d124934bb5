// Package elgamal implements exponential (additively homomorphic) ElGamal
// encryption over a prime-order group.
//
// A plaintext m is lifted to m*G before encryption, so decryption yields
// the group element m*G and recovering m requires a bounded discrete
// logarithm search.
package elgamal

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/takakv/chainvote/group"
	"github.com/takakv/chainvote/util"
)

var (
	ErrInvalidKey    = errors.New("invalid key")
	ErrGroupMismatch = errors.New("group mismatch")
)

// PublicKey is an ElGamal public key Y = x*G.
type PublicKey struct {
	Y group.Element
}

// SecretKey is an ElGamal secret scalar. It is never serialized.
type SecretKey struct {
	g group.Group
	x *big.Int
}

// NewPublicKey validates Y and wraps it as a public key. The identity is
// rejected since it would leave every ciphertext unmasked.
func NewPublicKey(Y group.Element) (*PublicKey, error) {
	if Y == nil {
		return nil, fmt.Errorf("%w: nil element", ErrInvalidKey)
	}
	if Y.IsIdentity() {
		return nil, fmt.Errorf("%w: identity element", ErrInvalidKey)
	}
	return &PublicKey{Y: Y.Group().Element().Set(Y)}, nil
}

// Group returns the group of the key.
func (pk *PublicKey) Group() group.Group {
	return pk.Y.Group()
}

// Validate checks that the key is usable for encryption.
func (pk *PublicKey) Validate() error {
	if pk == nil || pk.Y == nil {
		return fmt.Errorf("%w: nil key", ErrInvalidKey)
	}
	if pk.Y.IsIdentity() {
		return fmt.Errorf("%w: identity element", ErrInvalidKey)
	}
	return nil
}

// Equal reports whether both keys are the same element of the same group.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	if pk == nil || other == nil {
		return false
	}
	return group.SameGroup(pk.Y, other.Y) && pk.Y.IsEqual(other.Y)
}

// GenerateKey generates a new ElGamal key pair.
func GenerateKey(g group.Group) (*SecretKey, *PublicKey, error) {
	x, err := group.RandomScalar(g)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate private key scalar: %w", err)
	}
	sk := &SecretKey{g: g, x: x}
	return sk, sk.PublicKey(), nil
}

// NewSecretKey wraps an existing scalar. The scalar is copied.
func NewSecretKey(g group.Group, x *big.Int) (*SecretKey, error) {
	k := util.Mod(x, g.N())
	if k.Sign() == 0 {
		return nil, fmt.Errorf("%w: zero secret", ErrInvalidKey)
	}
	return &SecretKey{g: g, x: k}, nil
}

// Group returns the group of the key.
func (sk *SecretKey) Group() group.Group {
	return sk.g
}

// PublicKey derives Y = x*G.
func (sk *SecretKey) PublicKey() *PublicKey {
	return &PublicKey{Y: sk.g.Element().BaseScale(sk.x)}
}

// Destroy wipes the secret scalar. The key is unusable afterwards.
func (sk *SecretKey) Destroy() {
	util.Wipe(sk.x)
	sk.x = nil
}

// Ciphertext is an ElGamal pair (U, V) = (r*G, m*G + r*Y).
type Ciphertext struct {
	U group.Element
	V group.Element
}

// Zero returns the trivial encryption of 0 with randomness 0, the neutral
// element of ciphertext addition.
func Zero(g group.Group) *Ciphertext {
	return &Ciphertext{U: g.Identity(), V: g.Identity()}
}

// Group returns the group of the ciphertext components.
func (c *Ciphertext) Group() group.Group {
	return c.U.Group()
}

// Validate checks that both components are present and in the same group.
func (c *Ciphertext) Validate() error {
	if c == nil || c.U == nil || c.V == nil {
		return errors.New("incomplete ciphertext")
	}
	if !group.SameGroup(c.U, c.V) {
		return ErrGroupMismatch
	}
	return nil
}

// Copy returns a deep copy of c.
func (c *Ciphertext) Copy() *Ciphertext {
	g := c.Group()
	return &Ciphertext{U: g.Element().Set(c.U), V: g.Element().Set(c.V)}
}

// Equal reports whether both ciphertexts have identical components.
func (c *Ciphertext) Equal(other *Ciphertext) bool {
	if c.Validate() != nil || other.Validate() != nil {
		return false
	}
	return group.SameGroup(c.U, other.U) && c.U.IsEqual(other.U) && c.V.IsEqual(other.V)
}

func (c *Ciphertext) String() string {
	return fmt.Sprintf("{U: %s, V: %s}", c.U.String(), c.V.String())
}

// Encrypt encrypts m under pk with fresh randomness, which is returned
// alongside the ciphertext for use in proofs.
func Encrypt(pk *PublicKey, m *big.Int) (*Ciphertext, *big.Int, error) {
	if err := pk.Validate(); err != nil {
		return nil, nil, err
	}
	r, err := group.RandomScalar(pk.Group())
	if err != nil {
		return nil, nil, fmt.Errorf("elgamal encryption failed: %w", err)
	}
	c, err := EncryptWithRandomness(pk, m, r)
	if err != nil {
		return nil, nil, err
	}
	return c, r, nil
}

// EncryptWithRandomness encrypts m under pk using the caller-supplied r.
func EncryptWithRandomness(pk *PublicKey, m, r *big.Int) (*Ciphertext, error) {
	if err := pk.Validate(); err != nil {
		return nil, err
	}
	g := pk.Group()

	liftedMessage := g.Element().BaseScale(m)
	mask := g.Element().Scale(pk.Y, r)

	var ciphertext Ciphertext
	ciphertext.U = g.Element().BaseScale(r)
	ciphertext.V = g.Element().Add(liftedMessage, mask)
	return &ciphertext, nil
}

// Add returns c1 + c2, an encryption of the sum of the plaintexts.
func Add(c1, c2 *Ciphertext) (*Ciphertext, error) {
	if err := c1.Validate(); err != nil {
		return nil, err
	}
	if err := c2.Validate(); err != nil {
		return nil, err
	}
	if !group.SameGroup(c1.U, c2.U) {
		return nil, ErrGroupMismatch
	}
	g := c1.Group()
	return &Ciphertext{
		U: g.Element().Add(c1.U, c2.U),
		V: g.Element().Add(c1.V, c2.V),
	}, nil
}

// Scale returns k*c, an encryption of k times the plaintext.
func Scale(c *Ciphertext, k *big.Int) (*Ciphertext, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	g := c.Group()
	return &Ciphertext{
		U: g.Element().Scale(c.U, k),
		V: g.Element().Scale(c.V, k),
	}, nil
}

// Decrypt returns the lifted plaintext m*G = V - x*U. It does not solve
// the discrete logarithm.
func Decrypt(sk *SecretKey, c *Ciphertext) (group.Element, error) {
	if sk == nil || sk.x == nil {
		return nil, fmt.Errorf("%w: destroyed or nil secret key", ErrInvalidKey)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if !group.InGroup(sk.g, c.U, c.V) {
		return nil, ErrGroupMismatch
	}
	mask := sk.g.Element().Scale(c.U, sk.x)
	return sk.g.Element().Subtract(c.V, mask), nil
}
