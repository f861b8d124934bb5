package elgamal

import (
	"fmt"

	"github.com/takakv/chainvote/group"
	"github.com/takakv/chainvote/util"
)

type ciphertextCBOR struct {
	_ struct{} `cbor:",toarray"`
	U []byte
	V []byte
}

func (c *Ciphertext) toCBOR() ciphertextCBOR {
	return ciphertextCBOR{U: group.EncodeElement(c.U), V: group.EncodeElement(c.V)}
}

func (w ciphertextCBOR) decode(g group.Group) (*Ciphertext, error) {
	U, err := group.DecodeElement(g, w.U)
	if err != nil {
		return nil, fmt.Errorf("decode U: %w", err)
	}
	V, err := group.DecodeElement(g, w.V)
	if err != nil {
		return nil, fmt.Errorf("decode V: %w", err)
	}
	return &Ciphertext{U: U, V: V}, nil
}

// MarshalBinary returns the canonical encoding of the ciphertext.
func (c *Ciphertext) MarshalBinary() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return util.MarshalCanonical(c.toCBOR())
}

// UnmarshalCiphertext decodes a ciphertext over g, rejecting any
// non-canonical input.
func UnmarshalCiphertext(g group.Group, data []byte) (*Ciphertext, error) {
	var w ciphertextCBOR
	if err := util.UnmarshalCanonical(data, &w); err != nil {
		return nil, err
	}
	return w.decode(g)
}

// MarshalBinary returns the canonical encoding of the vector.
func (v Vector) MarshalBinary() ([]byte, error) {
	ws := make([]ciphertextCBOR, len(v))
	for i, c := range v {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("ciphertext %d: %w", i, err)
		}
		ws[i] = c.toCBOR()
	}
	return util.MarshalCanonical(ws)
}

// UnmarshalVector decodes a ciphertext vector over g.
func UnmarshalVector(g group.Group, data []byte) (Vector, error) {
	var ws []ciphertextCBOR
	if err := util.UnmarshalCanonical(data, &ws); err != nil {
		return nil, err
	}
	v := make(Vector, len(ws))
	for i, w := range ws {
		c, err := w.decode(g)
		if err != nil {
			return nil, fmt.Errorf("ciphertext %d: %w", i, err)
		}
		v[i] = c
	}
	return v, nil
}

// MarshalBinary returns the canonical encoding of the key.
func (pk *PublicKey) MarshalBinary() ([]byte, error) {
	if err := pk.Validate(); err != nil {
		return nil, err
	}
	return group.EncodeElement(pk.Y), nil
}

// UnmarshalPublicKey decodes and validates a public key over g.
func UnmarshalPublicKey(g group.Group, data []byte) (*PublicKey, error) {
	Y, err := group.DecodeElement(g, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return NewPublicKey(Y)
}
