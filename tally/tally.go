// Package tally accumulates encrypted ballots into per-option tally
// ciphertexts, drives their threshold decryption, and decodes the
// decrypted counts.
package tally

import (
	"errors"
	"fmt"
	"math"

	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/group"
	"github.com/takakv/chainvote/log"
	"github.com/takakv/chainvote/threshold"
)

var (
	ErrWrongState      = errors.New("operation not allowed in current tally state")
	ErrOptionsMismatch = errors.New("number of options mismatch")
)

// State is the decryption state of a tally.
type State int

const (
	// Open accepts ballots.
	Open State = iota
	// Closed accepts no more ballots; decryption may begin.
	Closed
	// PartiallyDecrypted holds fewer verified decrypt shares than needed
	// or has not been combined yet.
	PartiallyDecrypted
	// Decrypted holds the combined plaintext elements. Terminal.
	Decrypted
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	case PartiallyDecrypted:
		return "partially-decrypted"
	case Decrypted:
		return "decrypted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EncryptedTally is the running homomorphic sum of the accepted ballots of
// one election. It is not safe for concurrent use.
type EncryptedTally struct {
	committee *threshold.Committee
	state     State
	sums      elgamal.Vector
	weight    uint64
	ballots   uint64

	shares    map[threshold.MemberID]*threshold.DecryptShare
	order     []threshold.MemberID
	decrypted []group.Element
}

// New starts an empty tally with the given number of options, decryptable
// by committee.
func New(committee *threshold.Committee, options int) (*EncryptedTally, error) {
	if options < 1 {
		return nil, fmt.Errorf("%w: need at least one option", ErrOptionsMismatch)
	}
	return &EncryptedTally{
		committee: committee,
		state:     Open,
		sums:      elgamal.ZeroVector(committee.Group(), options),
		shares:    make(map[threshold.MemberID]*threshold.DecryptShare),
	}, nil
}

func (t *EncryptedTally) State() State {
	return t.state
}

func (t *EncryptedTally) Options() int {
	return len(t.sums)
}

// Weight returns the sum of the weights of all accepted ballots, the upper
// bound of every option's count.
func (t *EncryptedTally) Weight() uint64 {
	return t.weight
}

// Ballots returns the number of accepted ballots.
func (t *EncryptedTally) Ballots() uint64 {
	return t.ballots
}

// Ciphertexts returns a copy of the per-option tally ciphertexts.
func (t *EncryptedTally) Ciphertexts() elgamal.Vector {
	return t.sums.Copy()
}

func (t *EncryptedTally) transition(to State) {
	log.Debugw("tally state", "from", t.state.String(), "to", to.String())
	t.state = to
}

func (t *EncryptedTally) addWeight(w uint64) error {
	if w > math.MaxUint64-t.weight {
		return fmt.Errorf("%w: total weight overflows", ErrTallyOutOfRange)
	}
	return nil
}

// Add adds weight times ballot to the tally. A zero-weight ballot is
// counted but leaves the sums unchanged.
// The ballot's proof is not checked here.
func (t *EncryptedTally) Add(ballot elgamal.Vector, weight uint64) error {
	if t.state != Open {
		return fmt.Errorf("%w: %s", ErrWrongState, t.state)
	}
	if len(ballot) != len(t.sums) {
		return fmt.Errorf("%w: ballot has %d options, tally %d", ErrOptionsMismatch, len(ballot), len(t.sums))
	}
	if err := ballot.Validate(t.committee.Group()); err != nil {
		return err
	}
	if weight == 0 {
		t.ballots++
		return nil
	}
	if err := t.addWeight(weight); err != nil {
		return err
	}
	acc := t.sums.Copy()
	if err := addWeighted(acc, ballot, weight); err != nil {
		return err
	}
	t.sums = acc
	t.weight += weight
	t.ballots++
	return nil
}

// AddBatch adds all ballots, summing them in parallel first. A nil weights
// slice weighs every ballot by 1.
func (t *EncryptedTally) AddBatch(ballots []elgamal.Vector, weights []uint64, workers int) error {
	if t.state != Open {
		return fmt.Errorf("%w: %s", ErrWrongState, t.state)
	}
	var total uint64
	for i := range ballots {
		w := uint64(1)
		if weights != nil && i < len(weights) {
			w = weights[i]
		}
		if w > math.MaxUint64-total {
			return fmt.Errorf("%w: total weight overflows", ErrTallyOutOfRange)
		}
		total += w
	}
	if err := t.addWeight(total); err != nil {
		return err
	}
	sum, err := Sum(t.committee.Group(), len(t.sums), ballots, weights, workers)
	if err != nil {
		return err
	}
	acc, err := elgamal.AddVectors(t.sums, sum)
	if err != nil {
		return err
	}
	t.sums = acc
	t.weight += total
	t.ballots += uint64(len(ballots))
	return nil
}

// Close ends the voting period.
func (t *EncryptedTally) Close() error {
	if t.state != Open {
		return fmt.Errorf("%w: %s", ErrWrongState, t.state)
	}
	t.transition(Closed)
	log.Infow("tally closed", "ballots", t.ballots, "weight", t.weight)
	return nil
}

// AddShare verifies a member's decrypt share and records it. Invalid
// shares are rejected without affecting the tally.
func (t *EncryptedTally) AddShare(ds *threshold.DecryptShare) error {
	if t.state != Closed && t.state != PartiallyDecrypted {
		return fmt.Errorf("%w: %s", ErrWrongState, t.state)
	}
	if ds == nil {
		return fmt.Errorf("%w: nil share", threshold.ErrMalformedShare)
	}
	if _, ok := t.shares[ds.Member]; ok {
		log.Warnw("rejected duplicate decrypt share", "member", uint32(ds.Member))
		return fmt.Errorf("%w: %d", threshold.ErrDuplicateMember, ds.Member)
	}
	if err := threshold.VerifyShare(t.committee, t.sums, ds); err != nil {
		log.Warnw("rejected decrypt share", "member", uint32(ds.Member), "error", err.Error())
		return err
	}
	t.shares[ds.Member] = ds
	t.order = append(t.order, ds.Member)
	if t.state == Closed {
		t.transition(PartiallyDecrypted)
	}
	return nil
}

// AddVerifiedShare records a share that the caller has already verified
// against this tally, for example through threshold.VerifyShares.
func (t *EncryptedTally) AddVerifiedShare(ds *threshold.DecryptShare) error {
	if t.state != Closed && t.state != PartiallyDecrypted {
		return fmt.Errorf("%w: %s", ErrWrongState, t.state)
	}
	if ds == nil {
		return fmt.Errorf("%w: nil share", threshold.ErrMalformedShare)
	}
	if _, ok := t.shares[ds.Member]; ok {
		return fmt.Errorf("%w: %d", threshold.ErrDuplicateMember, ds.Member)
	}
	if len(ds.Partials) != len(t.sums) {
		return fmt.Errorf("%w: %d partials for %d options", threshold.ErrMalformedShare, len(ds.Partials), len(t.sums))
	}
	for i, pd := range ds.Partials {
		if pd == nil || pd.D == nil {
			return fmt.Errorf("%w: partial %d missing", threshold.ErrMalformedShare, i)
		}
	}
	t.shares[ds.Member] = ds
	t.order = append(t.order, ds.Member)
	if t.state == Closed {
		t.transition(PartiallyDecrypted)
	}
	return nil
}

// Shares returns the number of recorded decrypt shares.
func (t *EncryptedTally) Shares() int {
	return len(t.shares)
}

// Combine recovers the plaintext element of every option once at least
// threshold shares have been recorded.
func (t *EncryptedTally) Combine() ([]group.Element, error) {
	if t.state == Decrypted {
		return append([]group.Element(nil), t.decrypted...), nil
	}
	if t.state != PartiallyDecrypted {
		return nil, fmt.Errorf("%w: %s", ErrWrongState, t.state)
	}
	shares := make([]*threshold.DecryptShare, 0, len(t.order))
	for _, id := range t.order {
		shares = append(shares, t.shares[id])
	}
	decrypted, err := threshold.CombineShares(t.committee, t.sums, shares)
	if err != nil {
		return nil, err
	}
	t.decrypted = decrypted
	t.transition(Decrypted)
	return append([]group.Element(nil), decrypted...), nil
}

// Result decodes the decrypted tally. The counts share a budget equal to
// the total accepted weight. table may be nil, in which case a table for
// that bound is built.
func (t *EncryptedTally) Result(table *Table) (*Result, error) {
	if t.state != Decrypted {
		return nil, fmt.Errorf("%w: %s", ErrWrongState, t.state)
	}
	if table == nil {
		table = NewTable(t.committee.Group(), t.weight)
	}
	res := DecodeResult(table, t.decrypted, t.weight)
	if err := res.Err(); err != nil {
		log.Warnw("tally decoding incomplete", "error", err.Error())
	}
	return res, nil
}
