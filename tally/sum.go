package tally

import (
	"fmt"
	"math/big"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/group"
)

// addWeighted adds weight*ballot to acc in place.
func addWeighted(acc, ballot elgamal.Vector, weight uint64) error {
	if weight == 0 {
		return nil
	}
	for i, c := range ballot {
		if weight != 1 {
			var err error
			if c, err = elgamal.Scale(c, new(big.Int).SetUint64(weight)); err != nil {
				return err
			}
		}
		sum, err := elgamal.Add(acc[i], c)
		if err != nil {
			return err
		}
		acc[i] = sum
	}
	return nil
}

// Sum returns the weighted homomorphic sum of ballots, each of which must
// hold options ciphertexts over g. A nil weights slice weighs every ballot
// by 1. The ballots are split across at most workers goroutines and the
// partial sums folded; the result does not depend on the order of the
// ballots or the number of workers.
func Sum(g group.Group, options int, ballots []elgamal.Vector, weights []uint64, workers int) (elgamal.Vector, error) {
	if weights != nil && len(weights) != len(ballots) {
		return nil, fmt.Errorf("%d weights for %d ballots", len(weights), len(ballots))
	}
	for i, b := range ballots {
		if len(b) != options {
			return nil, fmt.Errorf("ballot %d: %w: %d != %d", i, ErrOptionsMismatch, len(b), options)
		}
		if err := b.Validate(g); err != nil {
			return nil, fmt.Errorf("ballot %d: %w", i, err)
		}
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(ballots) {
		workers = len(ballots)
	}
	if workers == 0 {
		return elgamal.ZeroVector(g, options), nil
	}

	chunk := (len(ballots) + workers - 1) / workers
	partials := make([]elgamal.Vector, workers)
	var eg errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(ballots))
		eg.Go(func() error {
			acc := elgamal.ZeroVector(g, options)
			for i := lo; i < hi; i++ {
				weight := uint64(1)
				if weights != nil {
					weight = weights[i]
				}
				if err := addWeighted(acc, ballots[i], weight); err != nil {
					return fmt.Errorf("ballot %d: %w", i, err)
				}
			}
			partials[w] = acc
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := elgamal.ZeroVector(g, options)
	for _, p := range partials {
		if err := addWeighted(total, p, 1); err != nil {
			return nil, err
		}
	}
	return total, nil
}
