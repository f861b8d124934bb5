package elgamal

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takakv/chainvote/group"
)

var testGroups = []group.Group{
	group.Ristretto255(),
	group.P256(),
	group.SecP256k1(),
	group.BabyJubJub(),
}

func TestEncryptDecrypt(t *testing.T) {
	for _, g := range testGroups {
		t.Run(g.Name(), func(t *testing.T) {
			sk, pk, err := GenerateKey(g)
			require.NoError(t, err)

			for _, m := range []int64{0, 1, 7, 1000} {
				c, r, err := Encrypt(pk, big.NewInt(m))
				require.NoError(t, err)
				require.NotNil(t, r)

				M, err := Decrypt(sk, c)
				require.NoError(t, err)
				assert.True(t, M.IsEqual(g.Element().BaseScale(big.NewInt(m))), "m=%d", m)
			}
		})
	}
}

func TestEncryptWithRandomnessDeterministic(t *testing.T) {
	g := group.Ristretto255()
	_, pk, err := GenerateKey(g)
	require.NoError(t, err)

	r := big.NewInt(42)
	c1, err := EncryptWithRandomness(pk, big.NewInt(1), r)
	require.NoError(t, err)
	c2, err := EncryptWithRandomness(pk, big.NewInt(1), r)
	require.NoError(t, err)
	assert.True(t, c1.Equal(c2))

	c3, err := EncryptWithRandomness(pk, big.NewInt(0), r)
	require.NoError(t, err)
	assert.False(t, c1.Equal(c3))
	assert.True(t, c1.U.IsEqual(c3.U))
}

func TestHomomorphism(t *testing.T) {
	g := group.P256()
	sk, pk, err := GenerateKey(g)
	require.NoError(t, err)

	c1, _, err := Encrypt(pk, big.NewInt(3))
	require.NoError(t, err)
	c2, _, err := Encrypt(pk, big.NewInt(4))
	require.NoError(t, err)

	sum, err := Add(c1, c2)
	require.NoError(t, err)
	M, err := Decrypt(sk, sum)
	require.NoError(t, err)
	assert.True(t, M.IsEqual(g.Element().BaseScale(big.NewInt(7))))

	scaled, err := Scale(c1, big.NewInt(5))
	require.NoError(t, err)
	M, err = Decrypt(sk, scaled)
	require.NoError(t, err)
	assert.True(t, M.IsEqual(g.Element().BaseScale(big.NewInt(15))))

	// The zero ciphertext is neutral.
	same, err := Add(c1, Zero(g))
	require.NoError(t, err)
	assert.True(t, same.Equal(c1))
}

func TestInvalidKey(t *testing.T) {
	g := group.Ristretto255()

	_, err := NewPublicKey(g.Identity())
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewPublicKey(nil)
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, _, err = Encrypt(&PublicKey{Y: g.Identity()}, big.NewInt(1))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewSecretKey(g, g.N())
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestGroupMismatch(t *testing.T) {
	_, pkR, err := GenerateKey(group.Ristretto255())
	require.NoError(t, err)
	skP, pkP, err := GenerateKey(group.P256())
	require.NoError(t, err)

	cR, _, err := Encrypt(pkR, big.NewInt(1))
	require.NoError(t, err)
	cP, _, err := Encrypt(pkP, big.NewInt(1))
	require.NoError(t, err)

	_, err = Add(cR, cP)
	assert.ErrorIs(t, err, ErrGroupMismatch)

	_, err = Decrypt(skP, cR)
	assert.ErrorIs(t, err, ErrGroupMismatch)

	assert.False(t, pkR.Equal(pkP))
}

func TestDestroy(t *testing.T) {
	g := group.Ristretto255()
	sk, pk, err := GenerateKey(g)
	require.NoError(t, err)

	c, _, err := Encrypt(pk, big.NewInt(1))
	require.NoError(t, err)

	sk.Destroy()
	_, err = Decrypt(sk, c)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestVector(t *testing.T) {
	g := group.Ristretto255()
	sk, pk, err := GenerateKey(g)
	require.NoError(t, err)

	ms := []*big.Int{big.NewInt(0), big.NewInt(1), big.NewInt(0)}
	a, rs, err := EncryptVector(pk, ms)
	require.NoError(t, err)
	require.Len(t, rs, 3)
	require.NoError(t, a.Validate(g))

	b, _, err := EncryptVector(pk, ms)
	require.NoError(t, err)

	sum, err := AddVectors(a, b)
	require.NoError(t, err)
	for i, c := range sum {
		M, err := Decrypt(sk, c)
		require.NoError(t, err)
		want := new(big.Int).Mul(ms[i], big.NewInt(2))
		assert.True(t, M.IsEqual(g.Element().BaseScale(want)))
	}

	_, err = AddVectors(a, b[:2])
	assert.Error(t, err)

	cp := a.Copy()
	assert.True(t, cp.Equal(a))
	cp[0].U.Add(cp[0].U, g.Generator())
	assert.False(t, cp.Equal(a))

	assert.ErrorIs(t, a.Validate(group.P256()), ErrGroupMismatch)
	assert.True(t, ZeroVector(g, 2)[1].U.IsIdentity())
}

func TestMarshal(t *testing.T) {
	for _, g := range testGroups {
		t.Run(g.Name(), func(t *testing.T) {
			_, pk, err := GenerateKey(g)
			require.NoError(t, err)

			v, _, err := EncryptVector(pk, []*big.Int{big.NewInt(1), big.NewInt(0)})
			require.NoError(t, err)
			v = append(v, Zero(g))

			enc, err := v.MarshalBinary()
			require.NoError(t, err)
			got, err := UnmarshalVector(g, enc)
			require.NoError(t, err)
			assert.True(t, got.Equal(v))

			enc, err = v[0].MarshalBinary()
			require.NoError(t, err)
			c, err := UnmarshalCiphertext(g, enc)
			require.NoError(t, err)
			assert.True(t, c.Equal(v[0]))

			_, err = UnmarshalCiphertext(g, append(enc, 0x00))
			assert.Error(t, err)

			enc, err = pk.MarshalBinary()
			require.NoError(t, err)
			pk2, err := UnmarshalPublicKey(g, enc)
			require.NoError(t, err)
			assert.True(t, pk.Equal(pk2))

			idEnc, err := g.Identity().MarshalBinary()
			require.NoError(t, err)
			_, err = UnmarshalPublicKey(g, idEnc)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}
