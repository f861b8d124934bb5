package chainvote

import (
	"fmt"

	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/threshold"
	"github.com/takakv/chainvote/util"
	"github.com/takakv/chainvote/voteproof"
)

type ballotCBOR struct {
	_           struct{} `cbor:",toarray"`
	Ciphertexts []byte
	Proof       []byte
}

// EncodeBallot returns the canonical wire encoding of b.
func (e *Election) EncodeBallot(b *Ballot) ([]byte, error) {
	if b == nil || b.Proof == nil {
		return nil, fmt.Errorf("%w: incomplete ballot", ErrMalformedProof)
	}
	cts, err := b.Ciphertexts.MarshalBinary()
	if err != nil {
		return nil, err
	}
	proof, err := b.Proof.Encode(e.Group)
	if err != nil {
		return nil, err
	}
	return util.MarshalCanonical(ballotCBOR{Ciphertexts: cts, Proof: proof})
}

// DecodeBallot decodes a ballot from its wire encoding. Any non-canonical
// encoding is rejected with ErrMalformedProof. The proof is not verified.
func (e *Election) DecodeBallot(data []byte) (*Ballot, error) {
	var w ballotCBOR
	if err := util.UnmarshalCanonical(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedProof, err)
	}
	cts, err := elgamal.UnmarshalVector(e.Group, w.Ciphertexts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedProof, err)
	}
	proof, err := voteproof.DecodeProof(e.Group, w.Proof)
	if err != nil {
		return nil, err
	}
	return &Ballot{Ciphertexts: cts, Proof: proof}, nil
}

// EncodeDecryptShare returns the canonical wire encoding of ds.
func (e *Election) EncodeDecryptShare(ds *threshold.DecryptShare) ([]byte, error) {
	return ds.Encode(e.Group)
}

// DecodeDecryptShare decodes a decrypt share from its wire encoding.
func (e *Election) DecodeDecryptShare(data []byte) (*threshold.DecryptShare, error) {
	return threshold.DecodeShare(e.Group, data)
}
