// Package voteproof implements a non-interactive zero-knowledge proof that
// a vector of ElGamal ciphertexts encrypts a unit vector: exactly one entry
// encrypts 1 and all others encrypt 0.
//
// The prover commits to the bits of the chosen index, proves each
// commitment opens to a bit, and shows through a polynomial identity
// evaluated at a Fiat–Shamir challenge that the products of the bits
// reconstruct the one-hot vector under encryption. The vector is padded
// with Enc(0; 0) to the next power of two, so proofs hold ceil(log2 n)
// bit commitments.
package voteproof

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/group"
	"github.com/takakv/chainvote/util"
)

var (
	ErrMalformedProof     = errors.New("malformed unit vector proof")
	ErrVerificationFailed = errors.New("unit vector proof verification failed")
)

const (
	transcriptDomain = "chainvote/unit-vector/v1"
	crsLabel         = "chainvote/unit-vector/commitment-key"
)

// CRS holds the common reference string of the proof system: a second
// generator H whose discrete logarithm to the base G is not known.
type CRS struct {
	H group.Element
}

// NewCRS derives the commitment key of g by hashing a fixed label.
func NewCRS(g group.Group) (*CRS, error) {
	h, err := g.Element().MapToGroup(crsLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to derive commitment key: %w", err)
	}
	return &CRS{H: h}, nil
}

// Group returns the group of the reference string.
func (crs *CRS) Group() group.Group {
	return crs.H.Group()
}

// BitCommitment holds the commitments for one bit of the index.
type BitCommitment struct {
	I group.Element // Commitment to the bit.
	B group.Element // Commitment to the blinding of the bit.
	A group.Element // Commitment to bit * blinding.
}

// BitResponse holds the responses for one bit of the index.
type BitResponse struct {
	Z *big.Int
	W *big.Int
	V *big.Int
}

// Proof proves that a ciphertext vector encrypts a unit vector.
type Proof struct {
	Commitments []BitCommitment // One per index bit.
	D           elgamal.Vector  // Encryptions of the low polynomial coefficients.
	Responses   []BitResponse   // One per index bit.
	R           *big.Int        // Aggregate randomness response.
}

// statement binds all public inputs of the proof.
type statement struct {
	g       group.Group
	crs     *CRS
	pk      *elgamal.PublicKey
	ballot  elgamal.Vector
	bits    int
	padSize int
}

func newStatement(crs *CRS, pk *elgamal.PublicKey, ballot elgamal.Vector) (*statement, error) {
	if crs == nil || crs.H == nil {
		return nil, errors.New("missing commitment key")
	}
	if err := pk.Validate(); err != nil {
		return nil, err
	}
	g := pk.Group()
	if !group.InGroup(g, crs.H) {
		return nil, elgamal.ErrGroupMismatch
	}
	if len(ballot) == 0 {
		return nil, fmt.Errorf("%w: empty ciphertext vector", ErrMalformedProof)
	}
	if err := ballot.Validate(g); err != nil {
		return nil, err
	}
	bits := util.BitLength(len(ballot))
	return &statement{
		g:       g,
		crs:     crs,
		pk:      pk,
		ballot:  ballot,
		bits:    bits,
		padSize: 1 << bits,
	}, nil
}

// transcript starts a Fiat–Shamir transcript over the public inputs.
func (st *statement) transcript() *util.Transcript {
	tr := util.NewTranscript(st.g, transcriptDomain)
	tr.AppendElements("crs", st.crs.H)
	tr.AppendElements("pk", st.pk.Y)
	tr.AppendUint64("options", uint64(len(st.ballot)))
	for _, c := range st.ballot {
		tr.AppendElements("ciphertext", c.U, c.V)
	}
	return tr
}

func appendCommitments(tr *util.Transcript, cs []BitCommitment) {
	for _, c := range cs {
		tr.AppendElements("bit", c.I, c.B, c.A)
	}
}

func appendD(tr *util.Transcript, d elgamal.Vector) {
	for _, c := range d {
		tr.AppendElements("d", c.U, c.V)
	}
}

// ciphertextAt returns the j-th entry of the padded vector.
func (st *statement) ciphertextAt(j int) *elgamal.Ciphertext {
	if j < len(st.ballot) {
		return st.ballot[j]
	}
	return elgamal.Zero(st.g)
}

// powers returns 1, y, y^2, ..., y^(n-1) modulo N.
func powers(y *big.Int, n int, N *big.Int) []*big.Int {
	out := make([]*big.Int, n)
	acc := big.NewInt(1)
	for i := range out {
		out[i] = new(big.Int).Set(acc)
		acc.Mul(acc, y)
		acc.Mod(acc, N)
	}
	return out
}
