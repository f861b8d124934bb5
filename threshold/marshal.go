package threshold

import (
	"fmt"

	"github.com/takakv/chainvote/group"
	"github.com/takakv/chainvote/util"
)

type partialCBOR struct {
	_ struct{} `cbor:",toarray"`
	D []byte
	C []byte
	Z []byte
}

type shareCBOR struct {
	_        struct{} `cbor:",toarray"`
	Member   uint32
	Partials []partialCBOR
}

// Encode returns the canonical encoding of the decrypt share over g.
func (ds *DecryptShare) Encode(g group.Group) ([]byte, error) {
	w := shareCBOR{Member: uint32(ds.Member), Partials: make([]partialCBOR, len(ds.Partials))}
	for i, pd := range ds.Partials {
		if pd == nil || pd.Member != ds.Member || !group.InGroup(g, pd.D) || pd.Proof.C == nil || pd.Proof.Z == nil {
			return nil, fmt.Errorf("%w: option %d", ErrMalformedShare, i)
		}
		w.Partials[i] = partialCBOR{
			D: group.EncodeElement(pd.D),
			C: group.EncodeScalar(g, pd.Proof.C),
			Z: group.EncodeScalar(g, pd.Proof.Z),
		}
	}
	return util.MarshalCanonical(w)
}

// DecodeShare decodes a decrypt share over g, failing closed with
// ErrMalformedShare on any non-canonical input.
func DecodeShare(g group.Group, data []byte) (*DecryptShare, error) {
	var w shareCBOR
	if err := util.UnmarshalCanonical(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedShare, err)
	}
	if w.Member == 0 {
		return nil, fmt.Errorf("%w: member id 0", ErrMalformedShare)
	}
	ds := &DecryptShare{
		Member:   MemberID(w.Member),
		Partials: make([]*PartialDecryption, len(w.Partials)),
	}
	for i, p := range w.Partials {
		D, err := group.DecodeElement(g, p.D)
		if err != nil {
			return nil, fmt.Errorf("%w: option %d: %w", ErrMalformedShare, i, err)
		}
		c, err := group.DecodeScalar(g, p.C)
		if err != nil {
			return nil, fmt.Errorf("%w: option %d: %w", ErrMalformedShare, i, err)
		}
		z, err := group.DecodeScalar(g, p.Z)
		if err != nil {
			return nil, fmt.Errorf("%w: option %d: %w", ErrMalformedShare, i, err)
		}
		ds.Partials[i] = &PartialDecryption{
			Member: ds.Member,
			D:      D,
			Proof:  DecryptionProof{C: c, Z: z},
		}
	}
	return ds, nil
}
