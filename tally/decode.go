package tally

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/group"
)

var ErrTallyOutOfRange = errors.New("tally out of range")

// MaxBound is the largest bound a table is built for. It keeps the table
// at about a million entries whatever total weight a tally reaches.
const MaxBound uint64 = 1 << 40

// Table is a precomputed baby-step giant-step table for recovering m from
// m*G with 0 <= m <= Bound. A table is read-only after construction and
// may be shared between goroutines.
type Table struct {
	g     group.Group
	bound uint64
	steps uint64
	baby  map[string]uint64
	giant group.Element // -steps*G
}

// NewTable precomputes the baby steps 0, G, ..., (steps-1)*G where
// steps = floor(sqrt(bound)) + 1. Bounds above MaxBound are clamped.
func NewTable(g group.Group, bound uint64) *Table {
	if bound > MaxBound {
		bound = MaxBound
	}
	steps := uint64(math.Sqrt(float64(bound))) + 1
	t := &Table{
		g:     g,
		bound: bound,
		steps: steps,
		baby:  make(map[string]uint64, steps),
	}
	P := g.Identity()
	G := g.Generator()
	for j := uint64(0); j < steps; j++ {
		t.baby[string(group.EncodeElement(P))] = j
		P = g.Element().Add(P, G)
	}
	t.giant = g.Element().Negate(g.Element().BaseScale(new(big.Int).SetUint64(steps)))
	return t
}

// Bound returns the largest value the table can decode.
func (t *Table) Bound() uint64 {
	return t.bound
}

// Decode returns m such that M = m*G and 0 <= m <= bound. A bound larger
// than the table's is clamped to it. If no such m exists the result is
// ErrTallyOutOfRange; the value is never approximated.
func (t *Table) Decode(M group.Element, bound uint64) (uint64, error) {
	if !group.InGroup(t.g, M) {
		return 0, elgamal.ErrGroupMismatch
	}
	if bound > t.bound {
		bound = t.bound
	}
	S := t.g.Element().Set(M)
	for i := uint64(0); i <= t.steps; i++ {
		if j, ok := t.baby[string(group.EncodeElement(S))]; ok {
			m := i*t.steps + j
			if m > bound {
				break
			}
			return m, nil
		}
		S = t.g.Element().Add(S, t.giant)
	}
	return 0, fmt.Errorf("%w: no value in [0, %d]", ErrTallyOutOfRange, bound)
}

// Decode recovers m from M = m*G with 0 <= m <= bound. Bounds above
// MaxBound are rejected.
func Decode(g group.Group, M group.Element, bound uint64) (uint64, error) {
	if bound > MaxBound {
		return 0, fmt.Errorf("%w: bound %d exceeds %d", ErrTallyOutOfRange, bound, MaxBound)
	}
	return NewTable(g, bound).Decode(M, bound)
}

// Result holds the decoded count of every option. Valid[i] is false when
// option i could not be decoded within the remaining vote budget.
type Result struct {
	Counts []uint64
	Valid  []bool
}

// Err returns ErrTallyOutOfRange naming the first undecodable option, or
// nil.
func (r *Result) Err() error {
	for i, ok := range r.Valid {
		if !ok {
			return fmt.Errorf("%w: option %d", ErrTallyOutOfRange, i)
		}
	}
	return nil
}

// DecodeResult decodes the options in order against a shared budget of
// maxVotes: each option is bounded by what the previous ones left over.
func DecodeResult(table *Table, decrypted []group.Element, maxVotes uint64) *Result {
	res := &Result{
		Counts: make([]uint64, len(decrypted)),
		Valid:  make([]bool, len(decrypted)),
	}
	left := maxVotes
	for i, M := range decrypted {
		m, err := table.Decode(M, left)
		if err != nil {
			continue
		}
		res.Counts[i] = m
		res.Valid[i] = true
		left -= m
	}
	return res
}
