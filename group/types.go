package group

import (
	"encoding/hex"
	"encoding/json"
	"errors"
)

var (
	ErrNonCanonical  = errors.New("non-canonical encoding")
	ErrUnknownGroup  = errors.New("unknown group")
	ErrScalarRange   = errors.New("scalar out of range")
	ErrInvalidLength = errors.New("invalid encoding length")
)

// GroupId is needed for JSON marshalling groups.
type GroupId struct {
	Name string `json:"group"`
}

// marshalHexJSON encodes the canonical binary form of an element as a JSON
// hex string.
func marshalHexJSON(e Element) ([]byte, error) {
	b, err := e.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return json.Marshal(hex.EncodeToString(b))
}

func unmarshalHexJSON(e Element, data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	return e.UnmarshalBinary(b)
}

func hexString(b []byte) string {
	return hex.EncodeToString(b)
}
