package voteproof

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/group"
	"github.com/takakv/chainvote/util"
)

// linear is the polynomial a*x + b over Z_N.
type linear struct {
	a, b *big.Int
}

// mulLinear multiplies the coefficient vector p (lowest degree first) by l.
func mulLinear(p []*big.Int, l linear, N *big.Int) []*big.Int {
	out := make([]*big.Int, len(p)+1)
	for i := range out {
		out[i] = new(big.Int)
	}
	for i, c := range p {
		out[i].Add(out[i], new(big.Int).Mul(c, l.b))
		out[i+1].Add(out[i+1], new(big.Int).Mul(c, l.a))
	}
	for _, c := range out {
		c.Mod(c, N)
	}
	return out
}

// Prove proves that ballot encrypts the unit vector with a 1 at index,
// where randomness[j] is the encryption randomness of ballot[j].
func Prove(crs *CRS, pk *elgamal.PublicKey, ballot elgamal.Vector, index int, randomness []*big.Int) (*Proof, error) {
	st, err := newStatement(crs, pk, ballot)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(ballot) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", index, len(ballot))
	}
	if len(randomness) != len(ballot) {
		return nil, errors.New("randomness length does not match ballot")
	}

	g := st.g
	N := g.N()
	n := st.bits

	bits := util.Decompose(uint64(index), 2, n)
	alpha := make([]*big.Int, n)
	beta := make([]*big.Int, n)
	gamma := make([]*big.Int, n)
	delta := make([]*big.Int, n)
	for _, s := range [][]*big.Int{alpha, beta, gamma, delta} {
		for l := range s {
			if s[l], err = group.RandomScalar(g); err != nil {
				return nil, fmt.Errorf("proof randomness: %w", err)
			}
		}
	}
	defer func() {
		for _, s := range [][]*big.Int{alpha, beta, gamma, delta} {
			for _, x := range s {
				util.Wipe(x)
			}
		}
	}()

	proof := &Proof{
		Commitments: make([]BitCommitment, n),
		D:           make(elgamal.Vector, n),
		Responses:   make([]BitResponse, n),
	}
	for l := 0; l < n; l++ {
		bit := new(big.Int).SetUint64(bits[l])
		proof.Commitments[l] = BitCommitment{
			I: util.PedersenCommit(bit, alpha[l], crs.H, g),
			B: util.PedersenCommit(beta[l], gamma[l], crs.H, g),
			A: util.PedersenCommit(new(big.Int).Mul(bit, beta[l]), delta[l], crs.H, g),
		}
	}

	tr := st.transcript()
	appendCommitments(tr, proof.Commitments)
	y := tr.Challenge("y")
	ys := powers(y, st.padSize, N)

	// z_{l,1}(x) = i_l x + beta_l and z_{l,0}(x) = x - z_{l,1}(x).
	one := make([]linear, n)
	zero := make([]linear, n)
	for l := 0; l < n; l++ {
		bit := new(big.Int).SetUint64(bits[l])
		one[l] = linear{a: bit, b: beta[l]}
		zero[l] = linear{
			a: util.Mod(new(big.Int).Sub(big.NewInt(1), bit), N),
			b: util.Mod(new(big.Int).Neg(beta[l]), N),
		}
	}

	// coeffs[k] = sum_j y^j p_{j,k} for k < n.
	coeffs := make([]*big.Int, n)
	for k := range coeffs {
		coeffs[k] = new(big.Int)
	}
	for j := 0; j < st.padSize; j++ {
		p := []*big.Int{big.NewInt(1)}
		for l := 0; l < n; l++ {
			if (j>>l)&1 == 1 {
				p = mulLinear(p, one[l], N)
			} else {
				p = mulLinear(p, zero[l], N)
			}
		}
		for k := 0; k < n; k++ {
			coeffs[k].Add(coeffs[k], new(big.Int).Mul(ys[j], p[k]))
			coeffs[k].Mod(coeffs[k], N)
		}
	}

	Rk := make([]*big.Int, n)
	for k := 0; k < n; k++ {
		c, r, err := elgamal.Encrypt(pk, coeffs[k])
		if err != nil {
			return nil, err
		}
		proof.D[k], Rk[k] = c, r
	}

	appendD(tr, proof.D)
	x := tr.Challenge("x")

	for l := 0; l < n; l++ {
		bit := new(big.Int).SetUint64(bits[l])
		z := new(big.Int).Mul(bit, x)
		z.Add(z, beta[l]).Mod(z, N)

		w := new(big.Int).Mul(alpha[l], x)
		w.Add(w, gamma[l]).Mod(w, N)

		v := new(big.Int).Sub(x, z)
		v.Mul(v, alpha[l]).Add(v, delta[l])
		v = util.Mod(v, N)

		proof.Responses[l] = BitResponse{Z: z, W: w, V: v}
	}

	// R = x^n sum_j y^j r_j + sum_k x^k R_k
	xn := new(big.Int).Exp(x, big.NewInt(int64(n)), N)
	R := new(big.Int)
	for j, r := range randomness {
		R.Add(R, new(big.Int).Mul(ys[j], r))
	}
	R.Mul(R, xn)
	xk := big.NewInt(1)
	for k := 0; k < n; k++ {
		R.Add(R, new(big.Int).Mul(xk, Rk[k]))
		xk = new(big.Int).Mul(xk, x)
		xk.Mod(xk, N)
		util.Wipe(Rk[k])
	}
	proof.R = util.Mod(R, N)
	util.Wipe(R)

	return proof, nil
}
