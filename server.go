package chainvote

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/group"
	"github.com/takakv/chainvote/log"
	"github.com/takakv/chainvote/tally"
	"github.com/takakv/chainvote/threshold"
	"github.com/takakv/chainvote/voteproof"
)

// VerifyBallot checks that b holds one ciphertext per option and that its
// proof verifies under the election key.
func VerifyBallot(e *Election, b *Ballot) error {
	if b == nil {
		return fmt.Errorf("%w: nil ballot", ErrMalformedProof)
	}
	if len(b.Ciphertexts) != e.Options {
		return fmt.Errorf("%w: %d ciphertexts for %d options", ErrMalformedProof, len(b.Ciphertexts), e.Options)
	}
	return voteproof.Verify(e.CRS, e.PublicKey, b.Ciphertexts, b.Proof)
}

func workerCount(workers int) int {
	if workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return workers
}

// VerifyBallots verifies the ballots in parallel with at most workers
// goroutines. The result holds one error per ballot, nil for valid ones; a
// rejected ballot never affects the others.
func VerifyBallots(e *Election, ballots []*Ballot, workers int) []error {
	errs := make([]error, len(ballots))
	var eg errgroup.Group
	eg.SetLimit(workerCount(workers))
	for i, b := range ballots {
		eg.Go(func() error {
			if err := VerifyBallot(e, b); err != nil {
				log.Debugw("rejected ballot", "index", i, "error", err.Error())
				errs[i] = err
			}
			return nil
		})
	}
	_ = eg.Wait()
	return errs
}

// Accumulate adds the ballots to the per-option tally ciphertexts and
// returns the new sums. Ballots are summed in parallel; the result is
// independent of their order. The ballots are expected to be verified.
func Accumulate(e *Election, sums elgamal.Vector, ballots []*Ballot, workers int) (elgamal.Vector, error) {
	if len(sums) != e.Options {
		return nil, fmt.Errorf("%w: tally has %d options, election %d", tally.ErrOptionsMismatch, len(sums), e.Options)
	}
	vs := make([]elgamal.Vector, len(ballots))
	for i, b := range ballots {
		if b == nil {
			return nil, fmt.Errorf("ballot %d: %w: nil ballot", i, ErrMalformedProof)
		}
		vs[i] = b.Ciphertexts
	}
	batch, err := tally.Sum(e.Group, e.Options, vs, nil, workerCount(workers))
	if err != nil {
		return nil, err
	}
	return elgamal.AddVectors(sums, batch)
}

// VerifyPartialDecryption checks a member's decrypt share of the tally
// ciphertexts.
func VerifyPartialDecryption(committee *threshold.Committee, sums elgamal.Vector, ds *threshold.DecryptShare) error {
	return threshold.VerifyShare(committee, sums, ds)
}

// CombineTally verifies the decrypt shares in parallel, excludes invalid
// and repeated ones, and combines the rest into the decrypted tally
// elements. Fewer than the committee threshold of valid shares fails with
// ErrInsufficientShares.
func CombineTally(committee *threshold.Committee, sums elgamal.Vector, shares []*threshold.DecryptShare, workers int) ([]group.Element, error) {
	errs := threshold.VerifyShares(committee, sums, shares, workerCount(workers))
	valid := make([]*threshold.DecryptShare, 0, len(shares))
	for i, err := range errs {
		if err != nil {
			log.Warnw("excluding decrypt share", "index", i, "error", err.Error())
			continue
		}
		valid = append(valid, shares[i])
	}
	decrypted, err := threshold.CombineShares(committee, sums, valid)
	if err != nil {
		return nil, err
	}
	log.Infow("tally combined", "shares", len(valid), "options", len(sums))
	return decrypted, nil
}

// DecodeTally recovers the vote count m in [0, bound] from m*G.
func DecodeTally(g group.Group, decrypted group.Element, bound uint64) (uint64, error) {
	return tally.Decode(g, decrypted, bound)
}

