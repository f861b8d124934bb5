package util

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/takakv/chainvote/group"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor encoding mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		IndefLength:       cbor.IndefLengthForbidden,
		TagsMd:            cbor.TagsForbidden,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cbor decoding mode: %v", err))
	}
}

// MarshalCanonical encodes v with core deterministic CBOR.
func MarshalCanonical(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// UnmarshalCanonical strictly decodes data into out and rejects any input
// that is not the deterministic encoding of the decoded value with
// group.ErrNonCanonical.
func UnmarshalCanonical(data []byte, out any) error {
	if err := decMode.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: cbor: %v", group.ErrNonCanonical, err)
	}
	again, err := encMode.Marshal(out)
	if err != nil {
		return fmt.Errorf("%w: cbor: %v", group.ErrNonCanonical, err)
	}
	if !bytes.Equal(again, data) {
		return fmt.Errorf("%w: cbor: not deterministic", group.ErrNonCanonical)
	}
	return nil
}
