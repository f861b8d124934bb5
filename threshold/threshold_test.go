package threshold

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/group"
)

const (
	committeeSize = 5
	threshold     = 3
)

func setup(c *qt.C, g group.Group) ([]*MemberSecretShare, *Committee) {
	shares, committee, err := Deal(g, committeeSize, threshold)
	c.Assert(err, qt.IsNil)
	c.Assert(shares, qt.HasLen, committeeSize)
	return shares, committee
}

func encrypt(c *qt.C, pk *elgamal.PublicKey, m int64) *elgamal.Ciphertext {
	ct, _, err := elgamal.Encrypt(pk, big.NewInt(m))
	c.Assert(err, qt.IsNil)
	return ct
}

// subsets returns every k-subset of xs.
func subsets(xs []int, k int) [][]int {
	if k == 0 {
		return [][]int{{}}
	}
	if len(xs) < k {
		return nil
	}
	var out [][]int
	for _, rest := range subsets(xs[1:], k-1) {
		out = append(out, append([]int{xs[0]}, rest...))
	}
	return append(out, subsets(xs[1:], k)...)
}

func TestEverySubsetDecryptsIdentically(t *testing.T) {
	c := qt.New(t)
	for _, g := range []group.Group{group.Ristretto255(), group.SecP256k1(), group.BabyJubJub()} {
		c.Run(g.Name(), func(c *qt.C) {
			shares, committee := setup(c, g)
			ct := encrypt(c, committee.PublicKey(), 7)

			partials := make([]*PartialDecryption, committeeSize)
			for i, s := range shares {
				pd, err := GeneratePartial(s, ct)
				c.Assert(err, qt.IsNil)
				c.Assert(VerifyPartial(committee, ct, pd), qt.IsNil)
				partials[i] = pd
			}

			want := g.Element().BaseScale(big.NewInt(7))
			all := subsets([]int{0, 1, 2, 3, 4}, threshold)
			c.Assert(all, qt.HasLen, 10)
			for _, subset := range all {
				var chosen []*PartialDecryption
				for _, i := range subset {
					chosen = append(chosen, partials[i])
				}
				M, err := Combine(committee, ct, chosen)
				c.Assert(err, qt.IsNil)
				c.Assert(M.IsEqual(want), qt.IsTrue, qt.Commentf("subset %v", subset))
			}
		})
	}
}

func TestInsufficientShares(t *testing.T) {
	c := qt.New(t)
	shares, committee := setup(c, group.Ristretto255())
	ct := encrypt(c, committee.PublicKey(), 1)

	var partials []*PartialDecryption
	for _, s := range shares[:threshold-1] {
		pd, err := GeneratePartial(s, ct)
		c.Assert(err, qt.IsNil)
		partials = append(partials, pd)
	}
	_, err := Combine(committee, ct, partials)
	c.Assert(err, qt.ErrorIs, ErrInsufficientShares)

	// A duplicate of a valid partial does not count twice.
	partials = append(partials, partials[0])
	_, err = Combine(committee, ct, partials)
	c.Assert(err, qt.ErrorIs, ErrInsufficientShares)
}

func TestInvalidPartialIsExcluded(t *testing.T) {
	c := qt.New(t)
	g := group.Ristretto255()
	shares, committee := setup(c, g)
	ct := encrypt(c, committee.PublicKey(), 4)

	partials := make([]*PartialDecryption, 0, committeeSize)
	for _, s := range shares {
		pd, err := GeneratePartial(s, ct)
		c.Assert(err, qt.IsNil)
		partials = append(partials, pd)
	}

	// Member 1 publishes a wrong partial with its honest proof.
	bad := *partials[0]
	bad.D = g.Element().Add(bad.D, g.Generator())
	c.Assert(VerifyPartial(committee, ct, &bad), qt.ErrorIs, ErrInvalidDecryptionProof)

	// Member 2 claims to be member 3.
	forged := *partials[1]
	forged.Member = 3
	c.Assert(VerifyPartial(committee, ct, &forged), qt.ErrorIs, ErrInvalidDecryptionProof)

	// Bound to the ciphertext.
	other := encrypt(c, committee.PublicKey(), 4)
	c.Assert(VerifyPartial(committee, other, partials[2]), qt.ErrorIs, ErrInvalidDecryptionProof)

	M, err := Combine(committee, ct, []*PartialDecryption{&bad, &forged, partials[2], partials[3], partials[4]})
	c.Assert(err, qt.IsNil)
	c.Assert(M.IsEqual(g.Element().BaseScale(big.NewInt(4))), qt.IsTrue)

	_, err = Combine(committee, ct, []*PartialDecryption{&bad, partials[2], partials[3]})
	c.Assert(err, qt.ErrorIs, ErrInsufficientShares)
}

func TestVerifyPartialMalformed(t *testing.T) {
	c := qt.New(t)
	g := group.Ristretto255()
	shares, committee := setup(c, g)
	ct := encrypt(c, committee.PublicKey(), 0)

	pd, err := GeneratePartial(shares[0], ct)
	c.Assert(err, qt.IsNil)

	c.Assert(VerifyPartial(committee, ct, nil), qt.ErrorIs, ErrMalformedShare)

	unknown := *pd
	unknown.Member = 42
	c.Assert(VerifyPartial(committee, ct, &unknown), qt.ErrorIs, ErrUnknownMember)

	large := *pd
	large.Proof.Z = new(big.Int).Set(g.N())
	c.Assert(VerifyPartial(committee, ct, &large), qt.ErrorIs, ErrMalformedShare)

	foreign := *pd
	foreign.D = group.P256().Generator()
	c.Assert(VerifyPartial(committee, ct, &foreign), qt.ErrorIs, elgamal.ErrGroupMismatch)
}

func TestDecryptionChallengeKnownAnswer(t *testing.T) {
	c := qt.New(t)
	g := group.Ristretto255()
	mul := func(k int64) group.Element {
		return g.Element().BaseScale(big.NewInt(k))
	}

	ct := &elgamal.Ciphertext{U: mul(3), V: mul(4)}
	got := dleqChallenge(g, 3, mul(2), ct, mul(5), mul(6), mul(7))
	want, _ := new(big.Int).SetString("030c84242981d7b27b00473213f9be1fc5612b2f3b3809b83618db380db000ce", 16)
	c.Assert(got.Cmp(want), qt.Equals, 0, qt.Commentf("challenge %x", got))

	other := dleqChallenge(g, 4, mul(2), ct, mul(5), mul(6), mul(7))
	c.Assert(other.Cmp(want), qt.Not(qt.Equals), 0)
}

func TestCommitteeValidation(t *testing.T) {
	c := qt.New(t)
	g := group.Ristretto255()
	shares, committee := setup(c, g)

	publics := make([]MemberPublicShare, len(shares))
	for i, s := range shares {
		p, err := s.Public()
		c.Assert(err, qt.IsNil)
		publics[i] = p
	}

	// Any order of the shares yields the same key.
	reversed := make([]MemberPublicShare, len(publics))
	for i := range publics {
		reversed[i] = publics[len(publics)-1-i]
	}
	again, err := NewCommittee(g, threshold, reversed)
	c.Assert(err, qt.IsNil)
	c.Assert(again.PublicKey().Equal(committee.PublicKey()), qt.IsTrue)
	c.Assert(again.Members(), qt.DeepEquals, []MemberID{1, 2, 3, 4, 5})

	tampered := append([]MemberPublicShare(nil), publics...)
	tampered[4].S = g.Element().Add(tampered[4].S, g.Generator())
	_, err = NewCommittee(g, threshold, tampered)
	c.Assert(err, qt.ErrorIs, ErrInconsistentCommittee)

	dup := append([]MemberPublicShare(nil), publics...)
	dup[1].ID = dup[0].ID
	_, err = NewCommittee(g, threshold, dup)
	c.Assert(err, qt.ErrorIs, ErrDuplicateMember)

	_, err = NewCommittee(g, committeeSize+1, publics)
	c.Assert(err, qt.ErrorIs, ErrInconsistentCommittee)
	_, err = NewCommittee(g, 0, publics)
	c.Assert(err, qt.ErrorIs, ErrInconsistentCommittee)

	zero := append([]MemberPublicShare(nil), publics...)
	zero[0].ID = 0
	_, err = NewCommittee(g, threshold, zero)
	c.Assert(err, qt.ErrorIs, ErrUnknownMember)
}

func TestThresholdOne(t *testing.T) {
	c := qt.New(t)
	g := group.P256()
	shares, committee, err := Deal(g, 3, 1)
	c.Assert(err, qt.IsNil)

	ct := encrypt(c, committee.PublicKey(), 2)
	pd, err := GeneratePartial(shares[2], ct)
	c.Assert(err, qt.IsNil)
	M, err := Combine(committee, ct, []*PartialDecryption{pd})
	c.Assert(err, qt.IsNil)
	c.Assert(M.IsEqual(g.Element().BaseScale(big.NewInt(2))), qt.IsTrue)
}

func TestSecretShareScope(t *testing.T) {
	c := qt.New(t)
	g := group.Ristretto255()
	s, err := NewMemberSecretShare(g, 1, big.NewInt(99))
	c.Assert(err, qt.IsNil)

	var leaked *big.Int
	err = s.Use(func(x *big.Int) error {
		c.Assert(x.Int64(), qt.Equals, int64(99))
		leaked = x
		return nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(leaked.Sign(), qt.Equals, 0)

	s.Destroy()
	c.Assert(s.Use(func(*big.Int) error { return nil }), qt.ErrorIs, ErrShareDestroyed)
	_, err = GeneratePartial(s, elgamal.Zero(g))
	c.Assert(err, qt.ErrorIs, ErrShareDestroyed)

	_, err = NewMemberSecretShare(g, 0, big.NewInt(1))
	c.Assert(err, qt.ErrorIs, ErrUnknownMember)
}

func TestDecryptShares(t *testing.T) {
	c := qt.New(t)
	g := group.Ristretto255()
	shares, committee := setup(c, g)
	pk := committee.PublicKey()
	tally := elgamal.Vector{encrypt(c, pk, 3), encrypt(c, pk, 0), encrypt(c, pk, 9)}

	dss := make([]*DecryptShare, 0, committeeSize+1)
	for _, s := range shares {
		ds, err := GenerateShare(s, tally)
		c.Assert(err, qt.IsNil)
		dss = append(dss, ds)
	}
	corrupt := &DecryptShare{Member: dss[1].Member, Partials: append([]*PartialDecryption(nil), dss[1].Partials...)}
	p := *corrupt.Partials[2]
	p.D = g.Element().Add(p.D, g.Generator())
	corrupt.Partials[2] = &p
	dss[1] = corrupt
	dss = append(dss, dss[0])

	errs := VerifyShares(committee, tally, dss, 2)
	c.Assert(errs, qt.HasLen, committeeSize+1)
	c.Assert(errs[0], qt.IsNil)
	c.Assert(errs[1], qt.ErrorIs, ErrInvalidDecryptionProof)
	c.Assert(errs[5], qt.ErrorIs, ErrDuplicateMember)

	var valid []*DecryptShare
	for i, err := range errs {
		if err == nil {
			valid = append(valid, dss[i])
		}
	}
	c.Assert(valid, qt.HasLen, committeeSize-1)

	Ms, err := CombineShares(committee, tally, valid)
	c.Assert(err, qt.IsNil)
	for i, m := range []int64{3, 0, 9} {
		c.Assert(Ms[i].IsEqual(g.Element().BaseScale(big.NewInt(m))), qt.IsTrue)
	}

	_, err = CombineShares(committee, tally, valid[:threshold-1])
	c.Assert(err, qt.ErrorIs, ErrInsufficientShares)

	enc, err := valid[0].Encode(g)
	c.Assert(err, qt.IsNil)
	decoded, err := DecodeShare(g, enc)
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyShare(committee, tally, decoded), qt.IsNil)

	_, err = DecodeShare(g, append(enc, 0))
	c.Assert(err, qt.ErrorIs, ErrMalformedShare)
	_, err = DecodeShare(group.P256(), enc)
	c.Assert(err, qt.ErrorIs, ErrMalformedShare)
}
