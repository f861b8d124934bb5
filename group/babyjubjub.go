package group

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
)

const bjjCofactor = 8

// maxMapAttempts bounds the try-and-increment loop of MapToGroup.
const maxMapAttempts = 256

type bjjGroup struct {
	fieldOrder *big.Int
	subOrder   *big.Int
	name       string
}

// bjjPoint is an element of the prime-order subgroup of BabyJubJub
// generated by babyjub.B8.
type bjjPoint struct {
	curve *bjjGroup
	val   *babyjub.Point
}

func (g *bjjGroup) Name() string {
	return g.name
}

func (g *bjjGroup) MarshalJSON() ([]byte, error) {
	return json.Marshal(&GroupId{g.name})
}

func (g *bjjGroup) P() *big.Int {
	return g.fieldOrder
}

func (g *bjjGroup) N() *big.Int {
	return g.subOrder
}

func (g *bjjGroup) Generator() Element {
	return g.Element().BaseScale(big.NewInt(1))
}

func (g *bjjGroup) Identity() Element {
	return &bjjPoint{
		curve: g,
		val:   babyjub.NewPoint(),
	}
}

func (g *bjjGroup) Random() Element {
	r, _ := rand.Int(rand.Reader, g.subOrder)
	return g.Element().BaseScale(r)
}

func (g *bjjGroup) Element() Element {
	return g.Identity()
}

func (e *bjjPoint) check(a Element) *bjjPoint {
	ea, ok := a.(*bjjPoint)
	if !ok {
		panic("incompatible group element type")
	}
	return ea
}

func (e *bjjPoint) Group() Group {
	return e.curve
}

func (e *bjjPoint) Add(a Element, b Element) Element {
	ca := e.check(a)
	cb := e.check(b)
	e.val = babyjub.NewPointProjective().Add(ca.val.Projective(), cb.val.Projective()).Affine()
	return e
}

func (e *bjjPoint) Subtract(a Element, b Element) Element {
	tmp := e.curve.Identity()
	tmp.Negate(b)
	e.Add(a, tmp)
	return e
}

func (e *bjjPoint) Negate(a Element) Element {
	ca := e.check(a)
	// -(x, y) = (-x, y) on a twisted Edwards curve.
	x := new(big.Int).Neg(ca.val.X)
	x.Mod(x, e.curve.fieldOrder)
	e.val = &babyjub.Point{X: x, Y: new(big.Int).Set(ca.val.Y)}
	return e
}

func (e *bjjPoint) IsEqual(b Element) bool {
	cb, ok := b.(*bjjPoint)
	if !ok {
		return false
	}
	return e.val.X.Cmp(cb.val.X) == 0 && e.val.Y.Cmp(cb.val.Y) == 0
}

func (e *bjjPoint) Set(a Element) Element {
	ca := e.check(a)
	e.val = &babyjub.Point{X: new(big.Int).Set(ca.val.X), Y: new(big.Int).Set(ca.val.Y)}
	return e
}

func (e *bjjPoint) Scale(a Element, s *big.Int) Element {
	ca := e.check(a)
	k := new(big.Int).Mod(s, e.curve.subOrder)
	e.val = babyjub.NewPoint().Mul(k, ca.val)
	return e
}

func (e *bjjPoint) BaseScale(s *big.Int) Element {
	k := new(big.Int).Mod(s, e.curve.subOrder)
	e.val = babyjub.NewPoint().Mul(k, babyjub.B8)
	return e
}

func (e *bjjPoint) GroupOrder() *big.Int {
	return e.curve.subOrder
}

func (e *bjjPoint) FieldOrder() *big.Int {
	return e.curve.fieldOrder
}

// MapToGroup hashes s with a counter until the digest decompresses to a
// curve point, then clears the cofactor.
func (e *bjjPoint) MapToGroup(s string) (Element, error) {
	var ctr [4]byte
	for i := uint32(0); i < maxMapAttempts; i++ {
		binary.BigEndian.PutUint32(ctr[:], i)
		h := sha256.New()
		h.Write([]byte(mapToGroupDST))
		h.Write([]byte(s))
		h.Write(ctr[:])
		var buf [32]byte
		copy(buf[:], h.Sum(nil))
		p, err := babyjub.NewPoint().Decompress(buf)
		if err != nil {
			continue
		}
		p = babyjub.NewPoint().Mul(big.NewInt(bjjCofactor), p)
		if isBJJIdentity(p) {
			continue
		}
		e.val = p
		return e, nil
	}
	return nil, errors.New("babyjubjub: map to group failed")
}

func (e *bjjPoint) String() string {
	b, _ := e.MarshalBinary()
	return e.curve.name + ":" + hexString(b)
}

func (e *bjjPoint) IsIdentity() bool {
	return isBJJIdentity(e.val)
}

// MarshalBinary returns the 32-byte compressed little-endian encoding.
func (e *bjjPoint) MarshalBinary() ([]byte, error) {
	c := e.val.Compress()
	return c[:], nil
}

func (e *bjjPoint) UnmarshalBinary(data []byte) error {
	if len(data) != 32 {
		return ErrInvalidLength
	}
	var buf [32]byte
	copy(buf[:], data)
	p, err := babyjub.NewPoint().Decompress(buf)
	if err != nil {
		return err
	}
	if !p.InSubGroup() {
		return ErrNonCanonical
	}
	e.val = p
	return nil
}

func (e *bjjPoint) MarshalJSON() ([]byte, error) {
	return marshalHexJSON(e)
}

func (e *bjjPoint) UnmarshalJSON(data []byte) error {
	return unmarshalHexJSON(e, data)
}

func isBJJIdentity(p *babyjub.Point) bool {
	return p.X.Sign() == 0 && p.Y.Cmp(big.NewInt(1)) == 0
}

func BabyJubJub() Group {
	p, _ := new(big.Int).SetString("30644e72e131a029b85045b68181585d2833e84879b9709143e1f593f0000001", 16)

	G := new(bjjGroup)
	G.fieldOrder = p
	G.subOrder = new(big.Int).Set(babyjub.SubOrder)
	G.name = "babyjubjub"
	return G
}
