package voteproof

import (
	"fmt"
	"math/big"

	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/group"
	"github.com/takakv/chainvote/util"
)

// checkShape verifies that every field of the proof is present, in the
// statement's group, and of the expected length.
func (p *Proof) checkShape(st *statement) error {
	if p == nil {
		return fmt.Errorf("%w: nil proof", ErrMalformedProof)
	}
	n := st.bits
	if len(p.Commitments) != n || len(p.Responses) != n || len(p.D) != n {
		return fmt.Errorf("%w: expected %d bit commitments, got %d/%d/%d",
			ErrMalformedProof, n, len(p.Commitments), len(p.D), len(p.Responses))
	}
	N := st.g.N()
	inRange := func(s *big.Int) bool {
		return s != nil && s.Sign() >= 0 && s.Cmp(N) < 0
	}
	for l := 0; l < n; l++ {
		c := p.Commitments[l]
		if !group.InGroup(st.g, c.I, c.B, c.A) {
			return fmt.Errorf("%w: bit commitment %d", ErrMalformedProof, l)
		}
		r := p.Responses[l]
		if !inRange(r.Z) || !inRange(r.W) || !inRange(r.V) {
			return fmt.Errorf("%w: bit response %d", ErrMalformedProof, l)
		}
	}
	if err := p.D.Validate(st.g); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	if !inRange(p.R) {
		return fmt.Errorf("%w: randomness response", ErrMalformedProof)
	}
	return nil
}

// Verify checks that proof shows ballot encrypts a unit vector under pk.
// The challenges are recomputed from the public inputs.
func Verify(crs *CRS, pk *elgamal.PublicKey, ballot elgamal.Vector, proof *Proof) error {
	st, err := newStatement(crs, pk, ballot)
	if err != nil {
		return err
	}
	if err := proof.checkShape(st); err != nil {
		return err
	}

	g := st.g
	N := g.N()
	n := st.bits

	tr := st.transcript()
	appendCommitments(tr, proof.Commitments)
	y := tr.Challenge("y")
	appendD(tr, proof.D)
	x := tr.Challenge("x")

	for l := 0; l < n; l++ {
		c := proof.Commitments[l]
		r := proof.Responses[l]

		// x*I + B == Com(z; w)
		lhs := g.Element().Scale(c.I, x)
		lhs.Add(lhs, c.B)
		if !lhs.IsEqual(util.PedersenCommit(r.Z, r.W, crs.H, g)) {
			return fmt.Errorf("%w: bit %d opening", ErrVerificationFailed, l)
		}

		// (x-z)*I + A == Com(0; v)
		xz := util.Mod(new(big.Int).Sub(x, r.Z), N)
		lhs = g.Element().Scale(c.I, xz)
		lhs.Add(lhs, c.A)
		if !lhs.IsEqual(g.Element().Scale(crs.H, r.V)) {
			return fmt.Errorf("%w: bit %d is not binary", ErrVerificationFailed, l)
		}
	}

	// Evaluate every p_j(x) from the responses: factor l is z_l when bit l
	// of j is set and x - z_l otherwise.
	zs := make([]*big.Int, n)
	xzs := make([]*big.Int, n)
	for l := 0; l < n; l++ {
		zs[l] = proof.Responses[l].Z
		xzs[l] = util.Mod(new(big.Int).Sub(x, zs[l]), N)
	}

	ys := powers(y, st.padSize, N)
	xn := new(big.Int).Exp(x, big.NewInt(int64(n)), N)

	U := g.Identity()
	V := g.Identity()
	plain := new(big.Int)
	for j := 0; j < st.padSize; j++ {
		pj := big.NewInt(1)
		for l := 0; l < n; l++ {
			if (j>>l)&1 == 1 {
				pj.Mul(pj, zs[l])
			} else {
				pj.Mul(pj, xzs[l])
			}
			pj.Mod(pj, N)
		}
		plain.Add(plain, new(big.Int).Mul(ys[j], pj))

		e := st.ciphertextAt(j)
		if e.U.IsIdentity() && e.V.IsIdentity() {
			continue
		}
		k := new(big.Int).Mul(ys[j], xn)
		k.Mod(k, N)
		U.Add(U, g.Element().Scale(e.U, k))
		V.Add(V, g.Element().Scale(e.V, k))
	}
	V.Subtract(V, g.Element().BaseScale(util.Mod(plain, N)))

	xk := big.NewInt(1)
	for k := 0; k < n; k++ {
		U.Add(U, g.Element().Scale(proof.D[k].U, xk))
		V.Add(V, g.Element().Scale(proof.D[k].V, xk))
		xk = new(big.Int).Mul(xk, x)
		xk.Mod(xk, N)
	}

	want, err := elgamal.EncryptWithRandomness(pk, big.NewInt(0), proof.R)
	if err != nil {
		return err
	}
	if !U.IsEqual(want.U) || !V.IsEqual(want.V) {
		return fmt.Errorf("%w: ciphertext relation", ErrVerificationFailed)
	}
	return nil
}
