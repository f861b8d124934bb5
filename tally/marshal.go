package tally

import (
	"fmt"

	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/threshold"
	"github.com/takakv/chainvote/util"
)

type tallyCBOR struct {
	_       struct{} `cbor:",toarray"`
	Closed  bool
	Weight  uint64
	Ballots uint64
	Sums    []byte
}

// MarshalBinary returns the canonical encoding of the tally ciphertexts and
// counters. Recorded decrypt shares are not included.
func (t *EncryptedTally) MarshalBinary() ([]byte, error) {
	sums, err := t.sums.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return util.MarshalCanonical(tallyCBOR{
		Closed:  t.state != Open,
		Weight:  t.weight,
		Ballots: t.ballots,
		Sums:    sums,
	})
}

// Unmarshal restores a tally encoded with MarshalBinary. The restored
// tally is Open or Closed.
func Unmarshal(committee *threshold.Committee, data []byte) (*EncryptedTally, error) {
	var w tallyCBOR
	if err := util.UnmarshalCanonical(data, &w); err != nil {
		return nil, err
	}
	sums, err := elgamal.UnmarshalVector(committee.Group(), w.Sums)
	if err != nil {
		return nil, err
	}
	if len(sums) == 0 {
		return nil, fmt.Errorf("%w: empty tally", ErrOptionsMismatch)
	}
	t := &EncryptedTally{
		committee: committee,
		state:     Open,
		sums:      sums,
		weight:    w.Weight,
		ballots:   w.Ballots,
		shares:    make(map[threshold.MemberID]*threshold.DecryptShare),
	}
	if w.Closed {
		t.state = Closed
	}
	return t, nil
}
