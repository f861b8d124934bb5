package tally

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/group"
	"github.com/takakv/chainvote/threshold"
)

func TestDecodeBoundaries(t *testing.T) {
	for _, g := range []group.Group{group.Ristretto255(), group.SecP256k1(), group.BabyJubJub(), group.RFC3526ModPGroup2048()} {
		t.Run(g.Name(), func(t *testing.T) {
			lift := func(m int64) group.Element { return g.Element().BaseScale(big.NewInt(m)) }

			m, err := Decode(g, lift(0), 10)
			require.NoError(t, err)
			assert.Equal(t, uint64(0), m)

			m, err = Decode(g, lift(10), 10)
			require.NoError(t, err)
			assert.Equal(t, uint64(10), m)

			_, err = Decode(g, lift(11), 10)
			assert.ErrorIs(t, err, ErrTallyOutOfRange)

			_, err = Decode(g, g.Random(), 10)
			assert.ErrorIs(t, err, ErrTallyOutOfRange)
		})
	}
}

func TestTableReuse(t *testing.T) {
	g := group.Ristretto255()
	table := NewTable(g, 1000)
	for _, m := range []uint64{0, 1, 31, 32, 33, 999, 1000} {
		got, err := table.Decode(g.Element().BaseScale(new(big.Int).SetUint64(m)), 1000)
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	// A smaller bound narrows the search without rebuilding.
	_, err := table.Decode(g.Element().BaseScale(big.NewInt(50)), 49)
	assert.ErrorIs(t, err, ErrTallyOutOfRange)

	_, err = table.Decode(group.P256().Generator(), 10)
	assert.ErrorIs(t, err, elgamal.ErrGroupMismatch)
}

func TestDecodeLargeBound(t *testing.T) {
	g := group.Ristretto255()
	M := g.Element().BaseScale(big.NewInt(5))

	_, err := Decode(g, M, 1<<62)
	assert.ErrorIs(t, err, ErrTallyOutOfRange)
	_, err = Decode(g, M, MaxBound+1)
	assert.ErrorIs(t, err, ErrTallyOutOfRange)

	if testing.Short() {
		t.Skip("skipping full size table in short mode")
	}
	table := NewTable(g, math.MaxUint64)
	assert.Equal(t, MaxBound, table.Bound())
	m, err := table.Decode(M, math.MaxUint64)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), m)
}

func TestDecodeResultBudget(t *testing.T) {
	g := group.Ristretto255()
	lift := func(m int64) group.Element { return g.Element().BaseScale(big.NewInt(m)) }
	table := NewTable(g, 10)

	res := DecodeResult(table, []group.Element{lift(3), lift(0), lift(7)}, 10)
	assert.Equal(t, []uint64{3, 0, 7}, res.Counts)
	assert.NoError(t, res.Err())

	// The last option exceeds what the first two leave over.
	res = DecodeResult(table, []group.Element{lift(6), lift(4), lift(1)}, 10)
	assert.Equal(t, []bool{true, true, false}, res.Valid)
	assert.ErrorIs(t, res.Err(), ErrTallyOutOfRange)
}

type election struct {
	g         group.Group
	shares    []*threshold.MemberSecretShare
	committee *threshold.Committee
}

func newElection(t *testing.T) *election {
	t.Helper()
	g := group.Ristretto255()
	shares, committee, err := threshold.Deal(g, 3, 2)
	require.NoError(t, err)
	return &election{g: g, shares: shares, committee: committee}
}

func (e *election) ballot(t *testing.T, options, choice int) elgamal.Vector {
	t.Helper()
	ms := make([]*big.Int, options)
	for i := range ms {
		ms[i] = big.NewInt(0)
	}
	ms[choice] = big.NewInt(1)
	v, _, err := elgamal.EncryptVector(e.committee.PublicKey(), ms)
	require.NoError(t, err)
	return v
}

func (e *election) decrypt(t *testing.T, tl *EncryptedTally, members ...int) []group.Element {
	t.Helper()
	for _, i := range members {
		ds, err := threshold.GenerateShare(e.shares[i], tl.Ciphertexts())
		require.NoError(t, err)
		require.NoError(t, tl.AddShare(ds))
	}
	out, err := tl.Combine()
	require.NoError(t, err)
	return out
}

func TestStateMachine(t *testing.T) {
	e := newElection(t)
	tl, err := New(e.committee, 2)
	require.NoError(t, err)
	assert.Equal(t, Open, tl.State())

	_, err = tl.Combine()
	assert.ErrorIs(t, err, ErrWrongState)

	require.NoError(t, tl.Add(e.ballot(t, 2, 0), 1))
	require.NoError(t, tl.Add(e.ballot(t, 2, 1), 2))
	assert.ErrorIs(t, tl.Add(e.ballot(t, 3, 1), 1), ErrOptionsMismatch)
	assert.Equal(t, uint64(3), tl.Weight())

	ds, err := threshold.GenerateShare(e.shares[0], tl.Ciphertexts())
	require.NoError(t, err)
	assert.ErrorIs(t, tl.AddShare(ds), ErrWrongState)

	require.NoError(t, tl.Close())
	assert.Equal(t, Closed, tl.State())
	assert.ErrorIs(t, tl.Add(e.ballot(t, 2, 0), 1), ErrWrongState)
	assert.ErrorIs(t, tl.Close(), ErrWrongState)

	require.NoError(t, tl.AddShare(ds))
	assert.Equal(t, PartiallyDecrypted, tl.State())
	assert.ErrorIs(t, tl.AddShare(ds), threshold.ErrDuplicateMember)

	_, err = tl.Combine()
	assert.ErrorIs(t, err, threshold.ErrInsufficientShares)
	assert.Equal(t, PartiallyDecrypted, tl.State())

	// A share for other ciphertexts is rejected and leaves the tally as is.
	other, err := threshold.GenerateShare(e.shares[1], elgamal.Vector{e.ballot(t, 2, 0)[0], e.ballot(t, 2, 0)[1]})
	require.NoError(t, err)
	assert.ErrorIs(t, tl.AddShare(other), threshold.ErrInvalidDecryptionProof)
	assert.Equal(t, 1, tl.Shares())

	ds2, err := threshold.GenerateShare(e.shares[2], tl.Ciphertexts())
	require.NoError(t, err)
	require.NoError(t, tl.AddShare(ds2))
	_, err = tl.Combine()
	require.NoError(t, err)
	assert.Equal(t, Decrypted, tl.State())
	assert.ErrorIs(t, tl.AddShare(ds2), ErrWrongState)

	res, err := tl.Result(nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, res.Counts)
	assert.NoError(t, res.Err())
}

func TestAddVerifiedShareRejectsMalformed(t *testing.T) {
	e := newElection(t)
	tl, err := New(e.committee, 2)
	require.NoError(t, err)
	require.NoError(t, tl.Add(e.ballot(t, 2, 0), 1))
	require.NoError(t, tl.Close())

	assert.ErrorIs(t, tl.AddVerifiedShare(nil), threshold.ErrMalformedShare)

	ds, err := threshold.GenerateShare(e.shares[0], tl.Ciphertexts())
	require.NoError(t, err)
	holey := &threshold.DecryptShare{Member: ds.Member, Partials: []*threshold.PartialDecryption{ds.Partials[0], nil}}
	assert.ErrorIs(t, tl.AddVerifiedShare(holey), threshold.ErrMalformedShare)
	assert.Equal(t, 0, tl.Shares())
	assert.Equal(t, Closed, tl.State())

	require.NoError(t, tl.AddVerifiedShare(ds))
	assert.Equal(t, PartiallyDecrypted, tl.State())
}

func TestWeightedAdd(t *testing.T) {
	e := newElection(t)
	tl, err := New(e.committee, 3)
	require.NoError(t, err)

	require.NoError(t, tl.Add(e.ballot(t, 3, 2), 5))
	require.NoError(t, tl.Add(e.ballot(t, 3, 0), 0))
	require.NoError(t, tl.Add(e.ballot(t, 3, 0), 3))
	assert.Equal(t, uint64(8), tl.Weight())
	assert.Equal(t, uint64(3), tl.Ballots())

	require.NoError(t, tl.Close())
	e.decrypt(t, tl, 0, 1)
	res, err := tl.Result(NewTable(e.g, 100))
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 0, 5}, res.Counts)
}

func TestOrderIndependence(t *testing.T) {
	e := newElection(t)
	a, b, c := e.ballot(t, 2, 0), e.ballot(t, 2, 1), e.ballot(t, 2, 0)

	sum1, err := Sum(e.g, 2, []elgamal.Vector{a, b, c}, nil, 1)
	require.NoError(t, err)
	sum2, err := Sum(e.g, 2, []elgamal.Vector{c, a, b}, nil, 3)
	require.NoError(t, err)
	assert.True(t, sum1.Equal(sum2))

	enc1, err := sum1.MarshalBinary()
	require.NoError(t, err)
	enc2, err := sum2.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, enc1, enc2, "sums must be bit-identical")

	seq, err := New(e.committee, 2)
	require.NoError(t, err)
	for _, v := range []elgamal.Vector{b, c, a} {
		require.NoError(t, seq.Add(v, 1))
	}
	assert.True(t, seq.Ciphertexts().Equal(sum1))

	batch, err := New(e.committee, 2)
	require.NoError(t, err)
	require.NoError(t, batch.AddBatch([]elgamal.Vector{a, b, c}, nil, 2))
	assert.True(t, batch.Ciphertexts().Equal(sum1))
	assert.Equal(t, uint64(3), batch.Weight())

	require.NoError(t, seq.Close())
	require.NoError(t, batch.Close())
	m1 := e.decrypt(t, seq, 0, 2)
	m2 := e.decrypt(t, batch, 1, 2)
	for i := range m1 {
		assert.True(t, m1[i].IsEqual(m2[i]))
	}
}

func TestSumRejects(t *testing.T) {
	e := newElection(t)
	a := e.ballot(t, 2, 0)

	_, err := Sum(e.g, 3, []elgamal.Vector{a}, nil, 1)
	assert.ErrorIs(t, err, ErrOptionsMismatch)

	_, err = Sum(e.g, 2, []elgamal.Vector{a}, []uint64{1, 2}, 1)
	assert.Error(t, err)

	_, err = Sum(group.P256(), 2, []elgamal.Vector{a}, nil, 1)
	assert.ErrorIs(t, err, elgamal.ErrGroupMismatch)

	zero, err := Sum(e.g, 2, nil, nil, 4)
	require.NoError(t, err)
	assert.True(t, zero.Equal(elgamal.ZeroVector(e.g, 2)))
}

func TestMarshal(t *testing.T) {
	e := newElection(t)
	tl, err := New(e.committee, 2)
	require.NoError(t, err)
	require.NoError(t, tl.Add(e.ballot(t, 2, 1), 4))

	enc, err := tl.MarshalBinary()
	require.NoError(t, err)
	got, err := Unmarshal(e.committee, enc)
	require.NoError(t, err)
	assert.Equal(t, Open, got.State())
	assert.Equal(t, uint64(4), got.Weight())
	assert.True(t, got.Ciphertexts().Equal(tl.Ciphertexts()))

	require.NoError(t, tl.Close())
	enc, err = tl.MarshalBinary()
	require.NoError(t, err)
	got, err = Unmarshal(e.committee, enc)
	require.NoError(t, err)
	assert.Equal(t, Closed, got.State())

	_, err = Unmarshal(e.committee, append(enc, 1))
	assert.ErrorIs(t, err, group.ErrNonCanonical)
}
