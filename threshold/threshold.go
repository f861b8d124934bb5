// Package threshold implements t-of-n threshold ElGamal decryption.
//
// Committee members hold Shamir shares s_i of the election secret and
// publish S_i = s_i*G. To decrypt a ciphertext (U, V), each member publishes
// D_i = s_i*U together with a Chaum–Pedersen proof that log_G S_i equals
// log_U D_i. Any t verified partials recover m*G = V - sum(lambda_i*D_i),
// where lambda_i are the Lagrange coefficients at zero.
package threshold

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/group"
	"github.com/takakv/chainvote/util"
)

var (
	ErrMalformedShare         = errors.New("malformed decryption share")
	ErrInvalidDecryptionProof = errors.New("invalid decryption proof")
	ErrInsufficientShares     = errors.New("insufficient decryption shares")
	ErrDuplicateMember        = errors.New("duplicate committee member")
	ErrUnknownMember          = errors.New("unknown committee member")
	ErrInconsistentCommittee  = errors.New("inconsistent committee")
	ErrShareDestroyed         = errors.New("secret share destroyed")
)

// MemberID identifies a committee member. It is the x-coordinate of the
// member's Shamir share and is never zero.
type MemberID uint32

// MemberPublicShare is the public commitment S = s*G to a member's share.
type MemberPublicShare struct {
	ID MemberID
	S  group.Element
}

// MemberSecretShare is a member's secret Shamir share. The scalar is only
// reachable through Use.
type MemberSecretShare struct {
	id MemberID
	g  group.Group
	s  *big.Int
}

// NewMemberSecretShare wraps the share s of member id. s is copied.
func NewMemberSecretShare(g group.Group, id MemberID, s *big.Int) (*MemberSecretShare, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: member id 0", ErrUnknownMember)
	}
	k := util.Mod(s, g.N())
	if k.Sign() == 0 {
		return nil, fmt.Errorf("%w: zero share", elgamal.ErrInvalidKey)
	}
	return &MemberSecretShare{id: id, g: g, s: k}, nil
}

func (m *MemberSecretShare) ID() MemberID {
	return m.id
}

func (m *MemberSecretShare) Group() group.Group {
	return m.g
}

// Public returns the public commitment to the share.
func (m *MemberSecretShare) Public() (MemberPublicShare, error) {
	var pub MemberPublicShare
	err := m.Use(func(s *big.Int) error {
		pub = MemberPublicShare{ID: m.id, S: m.g.Element().BaseScale(s)}
		return nil
	})
	return pub, err
}

// Use calls fn with a copy of the secret scalar, which is wiped when fn
// returns, on every path.
func (m *MemberSecretShare) Use(fn func(s *big.Int) error) error {
	if m == nil || m.s == nil {
		return ErrShareDestroyed
	}
	tmp := new(big.Int).Set(m.s)
	defer util.Wipe(tmp)
	return fn(tmp)
}

// Destroy wipes the share. Subsequent calls to Use fail.
func (m *MemberSecretShare) Destroy() {
	if m == nil {
		return
	}
	util.Wipe(m.s)
	m.s = nil
}

// Committee is a validated set of public shares and the decryption
// threshold.
type Committee struct {
	g         group.Group
	threshold int
	ids       []MemberID
	shares    map[MemberID]group.Element
	pk        *elgamal.PublicKey
}

// NewCommittee validates the public shares and derives the election key.
// All commitments must lie on a single polynomial of degree t-1; the key is
// its value at zero.
func NewCommittee(g group.Group, t int, shares []MemberPublicShare) (*Committee, error) {
	n := len(shares)
	if t < 1 || t > n {
		return nil, fmt.Errorf("%w: threshold %d for %d members", ErrInconsistentCommittee, t, n)
	}
	c := &Committee{
		g:         g,
		threshold: t,
		ids:       make([]MemberID, 0, n),
		shares:    make(map[MemberID]group.Element, n),
	}
	for _, s := range shares {
		if s.ID == 0 {
			return nil, fmt.Errorf("%w: member id 0", ErrUnknownMember)
		}
		if _, ok := c.shares[s.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateMember, s.ID)
		}
		if !group.InGroup(g, s.S) {
			return nil, fmt.Errorf("member %d: %w", s.ID, elgamal.ErrGroupMismatch)
		}
		if s.S.IsIdentity() {
			return nil, fmt.Errorf("%w: member %d has identity share", ErrInconsistentCommittee, s.ID)
		}
		c.shares[s.ID] = g.Element().Set(s.S)
		c.ids = append(c.ids, s.ID)
	}
	sortIDs(c.ids)

	basis := c.ids[:t]
	for _, id := range c.ids[t:] {
		want, err := c.interpolate(basis, uint32(id))
		if err != nil {
			return nil, err
		}
		if !want.IsEqual(c.shares[id]) {
			return nil, fmt.Errorf("%w: share of member %d is off the polynomial", ErrInconsistentCommittee, id)
		}
	}

	Y, err := c.interpolate(basis, 0)
	if err != nil {
		return nil, err
	}
	if c.pk, err = elgamal.NewPublicKey(Y); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInconsistentCommittee, err)
	}
	return c, nil
}

// interpolate evaluates the polynomial committed to by the shares of ids
// at x, in the exponent.
func (c *Committee) interpolate(ids []MemberID, x uint32) (group.Element, error) {
	xs := toUint32(ids)
	coeffs, err := util.LagrangeAt(x, xs, c.g.N())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInconsistentCommittee, err)
	}
	acc := c.g.Identity()
	for _, id := range ids {
		acc.Add(acc, c.g.Element().Scale(c.shares[id], coeffs[uint32(id)]))
	}
	return acc, nil
}

func sortIDs(ids []MemberID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func toUint32(ids []MemberID) []uint32 {
	xs := make([]uint32, len(ids))
	for i, id := range ids {
		xs[i] = uint32(id)
	}
	return xs
}

func (c *Committee) Group() group.Group {
	return c.g
}

// PublicKey returns the election public key.
func (c *Committee) PublicKey() *elgamal.PublicKey {
	return c.pk
}

func (c *Committee) Threshold() int {
	return c.threshold
}

func (c *Committee) Size() int {
	return len(c.ids)
}

// Members returns the ids of all members in ascending order.
func (c *Committee) Members() []MemberID {
	return append([]MemberID(nil), c.ids...)
}

// Share returns the public share of member id.
func (c *Committee) Share(id MemberID) (group.Element, error) {
	S, ok := c.shares[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMember, id)
	}
	return S, nil
}

// Deal Shamir-splits a fresh secret into n shares with threshold t and
// returns the shares with the resulting committee. It stands in for a
// distributed key generation in simulations.
func Deal(g group.Group, n, t int) ([]*MemberSecretShare, *Committee, error) {
	if t < 1 || t > n {
		return nil, nil, fmt.Errorf("%w: threshold %d for %d members", ErrInconsistentCommittee, t, n)
	}
	N := g.N()
	coeffs := make([]*big.Int, t)
	for i := range coeffs {
		a, err := group.RandomScalar(g)
		if err != nil {
			return nil, nil, fmt.Errorf("dealer randomness: %w", err)
		}
		coeffs[i] = a
	}
	defer func() {
		for _, a := range coeffs {
			util.Wipe(a)
		}
	}()

	secrets := make([]*MemberSecretShare, n)
	publics := make([]MemberPublicShare, n)
	for i := 0; i < n; i++ {
		x := big.NewInt(int64(i + 1))
		// Horner evaluation of f(x).
		y := new(big.Int)
		for j := t - 1; j >= 0; j-- {
			y.Mul(y, x)
			y.Add(y, coeffs[j])
			y.Mod(y, N)
		}
		s, err := NewMemberSecretShare(g, MemberID(i+1), y)
		util.Wipe(y)
		if err != nil {
			return nil, nil, err
		}
		secrets[i] = s
		if publics[i], err = s.Public(); err != nil {
			return nil, nil, err
		}
	}

	committee, err := NewCommittee(g, t, publics)
	if err != nil {
		return nil, nil, err
	}
	return secrets, committee, nil
}
