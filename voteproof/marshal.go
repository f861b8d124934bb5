package voteproof

import (
	"fmt"
	"math/big"

	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/group"
	"github.com/takakv/chainvote/util"
)

type bitCBOR struct {
	_ struct{} `cbor:",toarray"`
	I []byte
	B []byte
	A []byte
	Z []byte
	W []byte
	V []byte
}

type proofCBOR struct {
	_    struct{} `cbor:",toarray"`
	Bits []bitCBOR
	D    []byte
	R    []byte
}

// Encode returns the canonical encoding of the proof over g. Scalars are
// encoded at the fixed width of the group order.
func (p *Proof) Encode(g group.Group) ([]byte, error) {
	if p == nil || p.R == nil || len(p.Commitments) != len(p.Responses) || len(p.D) != len(p.Commitments) {
		return nil, fmt.Errorf("%w: incomplete proof", ErrMalformedProof)
	}
	w := proofCBOR{Bits: make([]bitCBOR, len(p.Commitments))}
	for l, c := range p.Commitments {
		r := p.Responses[l]
		if !group.InGroup(g, c.I, c.B, c.A) || r.Z == nil || r.W == nil || r.V == nil {
			return nil, fmt.Errorf("%w: bit %d", ErrMalformedProof, l)
		}
		w.Bits[l] = bitCBOR{
			I: group.EncodeElement(c.I),
			B: group.EncodeElement(c.B),
			A: group.EncodeElement(c.A),
			Z: group.EncodeScalar(g, r.Z),
			W: group.EncodeScalar(g, r.W),
			V: group.EncodeScalar(g, r.V),
		}
	}
	d, err := p.D.MarshalBinary()
	if err != nil {
		return nil, err
	}
	w.D = d
	w.R = group.EncodeScalar(g, p.R)
	return util.MarshalCanonical(w)
}

// DecodeProof decodes a proof over g. Any non-canonical element or scalar
// encoding is rejected with ErrMalformedProof.
func DecodeProof(g group.Group, data []byte) (*Proof, error) {
	var w proofCBOR
	if err := util.UnmarshalCanonical(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedProof, err)
	}
	p := &Proof{
		Commitments: make([]BitCommitment, len(w.Bits)),
		Responses:   make([]BitResponse, len(w.Bits)),
	}
	for l, b := range w.Bits {
		var es [3]group.Element
		for i, raw := range [][]byte{b.I, b.B, b.A} {
			e, err := group.DecodeElement(g, raw)
			if err != nil {
				return nil, fmt.Errorf("%w: bit %d: %w", ErrMalformedProof, l, err)
			}
			es[i] = e
		}
		var ss [3]*big.Int
		for i, raw := range [][]byte{b.Z, b.W, b.V} {
			s, err := group.DecodeScalar(g, raw)
			if err != nil {
				return nil, fmt.Errorf("%w: bit %d: %w", ErrMalformedProof, l, err)
			}
			ss[i] = s
		}
		p.Commitments[l] = BitCommitment{I: es[0], B: es[1], A: es[2]}
		p.Responses[l] = BitResponse{Z: ss[0], W: ss[1], V: ss[2]}
	}
	d, err := elgamal.UnmarshalVector(g, w.D)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedProof, err)
	}
	p.D = d
	if p.R, err = group.DecodeScalar(g, w.R); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedProof, err)
	}
	return p, nil
}
