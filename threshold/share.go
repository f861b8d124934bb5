package threshold

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/group"
)

// DecryptShare holds one member's partial decryptions of every option of
// a tally.
type DecryptShare struct {
	Member   MemberID
	Partials []*PartialDecryption
}

// GenerateShare computes the member's partial decryption of every entry
// of tally.
func GenerateShare(share *MemberSecretShare, tally elgamal.Vector) (*DecryptShare, error) {
	ds := &DecryptShare{
		Member:   share.ID(),
		Partials: make([]*PartialDecryption, len(tally)),
	}
	for i, c := range tally {
		pd, err := GeneratePartial(share, c)
		if err != nil {
			return nil, fmt.Errorf("option %d: %w", i, err)
		}
		ds.Partials[i] = pd
	}
	return ds, nil
}

// VerifyShare checks every partial decryption of ds against tally.
func VerifyShare(committee *Committee, tally elgamal.Vector, ds *DecryptShare) error {
	if ds == nil {
		return fmt.Errorf("%w: nil share", ErrMalformedShare)
	}
	if len(ds.Partials) != len(tally) {
		return fmt.Errorf("%w: %d partials for %d options", ErrMalformedShare, len(ds.Partials), len(tally))
	}
	for i, pd := range ds.Partials {
		if pd != nil && pd.Member != ds.Member {
			return fmt.Errorf("%w: option %d belongs to member %d", ErrMalformedShare, i, pd.Member)
		}
		if err := VerifyPartial(committee, tally[i], pd); err != nil {
			return fmt.Errorf("option %d: %w", i, err)
		}
	}
	return nil
}

// VerifyShares verifies the shares in parallel with at most workers
// goroutines, or GOMAXPROCS when workers is not positive. The result holds
// one error per share, nil for valid ones. Repeated members after the
// first valid share are reported as ErrDuplicateMember.
func VerifyShares(committee *Committee, tally elgamal.Vector, shares []*DecryptShare, workers int) []error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	errs := make([]error, len(shares))
	var eg errgroup.Group
	eg.SetLimit(workers)
	for i, ds := range shares {
		eg.Go(func() error {
			errs[i] = VerifyShare(committee, tally, ds)
			return nil
		})
	}
	_ = eg.Wait()

	seen := make(map[MemberID]bool, len(shares))
	for i, ds := range shares {
		if errs[i] != nil {
			continue
		}
		if seen[ds.Member] {
			errs[i] = fmt.Errorf("%w: %d", ErrDuplicateMember, ds.Member)
			continue
		}
		seen[ds.Member] = true
	}
	return errs
}

// CombineShares recovers m_i*G for every option of tally from verified
// decrypt shares. Shares are not re-verified.
func CombineShares(committee *Committee, tally elgamal.Vector, shares []*DecryptShare) ([]group.Element, error) {
	t := committee.Threshold()
	members := make(map[MemberID]*DecryptShare, len(shares))
	ids := make([]MemberID, 0, len(shares))
	for _, ds := range shares {
		if _, ok := members[ds.Member]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateMember, ds.Member)
		}
		if len(ds.Partials) != len(tally) {
			return nil, fmt.Errorf("%w: %d partials for %d options", ErrMalformedShare, len(ds.Partials), len(tally))
		}
		members[ds.Member] = ds
		ids = append(ids, ds.Member)
	}
	if len(ids) < t {
		return nil, fmt.Errorf("%w: %d shares of %d required", ErrInsufficientShares, len(ids), t)
	}
	sortIDs(ids)
	ids = ids[:t]

	g := committee.Group()
	out := make([]group.Element, len(tally))
	for opt, c := range tally {
		valid := make(map[MemberID]group.Element, t)
		for _, id := range ids {
			valid[id] = members[id].Partials[opt].D
		}
		M, err := interpolateMask(g, c, valid, ids)
		if err != nil {
			return nil, fmt.Errorf("option %d: %w", opt, err)
		}
		out[opt] = M
	}
	return out, nil
}
