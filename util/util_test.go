package util

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takakv/chainvote/group"
)

func TestDecompose(t *testing.T) {
	assert.Equal(t, []uint64{1, 0, 1, 1}, Decompose(13, 2, 4))
	assert.Equal(t, []uint64{0, 0, 0}, Decompose(0, 2, 3))
	assert.Equal(t, []uint64{3, 2, 1}, Decompose(123, 10, 3))
}

func TestBitLength(t *testing.T) {
	cases := map[int]int{0: 0, 1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4, 256: 8, 257: 9}
	for n, want := range cases {
		assert.Equal(t, want, BitLength(n), "n=%d", n)
	}
}

func TestPedersenCommitHomomorphic(t *testing.T) {
	g := group.Ristretto255()
	h := g.Random()

	c1 := PedersenCommit(big.NewInt(3), big.NewInt(11), h, g)
	c2 := PedersenCommit(big.NewInt(4), big.NewInt(20), h, g)
	sum := g.Element().Add(c1, c2)

	assert.True(t, sum.IsEqual(PedersenCommit(big.NewInt(7), big.NewInt(31), h, g)))
}

func TestWipe(t *testing.T) {
	x, _ := new(big.Int).SetString("123456789123456789123456789", 10)
	w := x.Bits()
	Wipe(x)
	assert.Equal(t, 0, x.Sign())
	for _, word := range w {
		assert.Zero(t, word)
	}
	Wipe(nil)
}

func TestTranscriptChallenge(t *testing.T) {
	g := group.Ristretto255()
	P := g.Generator()
	Q := g.Element().BaseScale(big.NewInt(2))

	newT := func(first, second group.Element) *Transcript {
		tr := NewTranscript(g, "test")
		tr.AppendElements("point", first, second)
		return tr
	}

	c1 := newT(P, Q).Challenge("c")
	c2 := newT(P, Q).Challenge("c")
	c3 := newT(Q, P).Challenge("c")
	assert.Equal(t, 0, c1.Cmp(c2), "challenge must be deterministic")
	assert.NotEqual(t, 0, c1.Cmp(c3), "order of items must matter")

	tr := newT(P, Q)
	x := tr.Challenge("x")
	y := tr.Challenge("y")
	assert.NotEqual(t, 0, x.Cmp(y), "successive challenges must differ")
}

func TestTranscriptGroupBinding(t *testing.T) {
	r := group.Ristretto255()
	p := group.P256()

	a := NewTranscript(r, "test")
	a.AppendUint64("n", 5)
	b := NewTranscript(p, "test")
	b.AppendUint64("n", 5)

	// Different groups yield different transcripts even before reduction.
	assert.NotEqual(t, a.items[0], b.items[0])
}

func TestLagrangeInterpolation(t *testing.T) {
	mod := group.Ristretto255().N()

	// f(x) = 7 + 3x + 5x^2
	f := func(x uint32) *big.Int {
		bx := big.NewInt(int64(x))
		v := new(big.Int).Mul(big.NewInt(5), new(big.Int).Mul(bx, bx))
		v.Add(v, new(big.Int).Mul(big.NewInt(3), bx))
		v.Add(v, big.NewInt(7))
		return v.Mod(v, mod)
	}

	for _, xs := range [][]uint32{{1, 2, 3}, {2, 4, 5}, {1, 3, 5}} {
		coeffs, err := LagrangeAtZero(xs, mod)
		require.NoError(t, err)

		acc := new(big.Int)
		for _, x := range xs {
			acc.Add(acc, new(big.Int).Mul(coeffs[x], f(x)))
		}
		acc.Mod(acc, mod)
		assert.Equal(t, int64(7), acc.Int64(), "xs=%v", xs)
	}

	coeffs, err := LagrangeAt(4, []uint32{1, 2, 3}, mod)
	require.NoError(t, err)
	acc := new(big.Int)
	for _, x := range []uint32{1, 2, 3} {
		acc.Add(acc, new(big.Int).Mul(coeffs[x], f(x)))
	}
	assert.Equal(t, 0, acc.Mod(acc, mod).Cmp(f(4)))
}

func TestCanonicalCBOR(t *testing.T) {
	type pair struct {
		_ struct{} `cbor:",toarray"`
		A []byte
		B uint64
	}

	enc, err := MarshalCanonical(pair{A: []byte{1, 2}, B: 24})
	require.NoError(t, err)

	var got pair
	require.NoError(t, UnmarshalCanonical(enc, &got))
	assert.Equal(t, []byte{1, 2}, got.A)
	assert.Equal(t, uint64(24), got.B)

	// Trailing bytes.
	assert.ErrorIs(t, UnmarshalCanonical(append(enc, 0x00), &got), group.ErrNonCanonical)

	// 24 encoded with a two-byte head instead of the shortest form.
	long := append([]byte{}, enc[:len(enc)-2]...)
	long = append(long, 0x19, 0x00, 0x18)
	assert.ErrorIs(t, UnmarshalCanonical(long, &got), group.ErrNonCanonical)
}

func TestTranscriptKnownAnswer(t *testing.T) {
	g := group.Ristretto255()
	two := g.Element().BaseScale(big.NewInt(2))
	assert.Equal(t, "6a493210f7499cd17fecb510ae0cea23a110e8d5b901f8acadd3095c73a3b919",
		hex.EncodeToString(group.EncodeElement(two)))

	tr := NewTranscript(g, "chainvote/test/v1")
	tr.AppendMessage("msg", []byte("chainvote"))
	tr.AppendUint64("n", 42)
	tr.AppendScalar("s", big.NewInt(7))
	tr.AppendElements("e", g.Generator(), two)

	want1, _ := new(big.Int).SetString("08a8cf4efde2276d607a82998749cbec5d001d2e40424f568fa15515652ae042", 16)
	want2, _ := new(big.Int).SetString("0df916069667c6627a53ed040641c5f86af9c784d4d0aea609fe1c92066a4342", 16)
	assert.Equal(t, 0, want1.Cmp(tr.Challenge("c1")))
	assert.Equal(t, 0, want2.Cmp(tr.Challenge("c2")))
}
