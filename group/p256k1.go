package group

import (
	"crypto/rand"
	"encoding/json"
	"math/big"

	"github.com/ing-bank/zkrp/crypto/p256"
)

const p256k1CoordLen = 32

type p256k1Group struct {
	fieldOrder *big.Int
	curveOrder *big.Int
	name       string
}

// p256k1Point holds an affine secp256k1 point. The identity is represented
// by nil coordinates, which is how zkrp encodes the point at infinity.
type p256k1Point struct {
	curve *p256k1Group
	val   *p256.P256
}

func (g *p256k1Group) Name() string {
	return g.name
}

func (g *p256k1Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(&GroupId{g.name})
}

func (g *p256k1Group) P() *big.Int {
	return g.fieldOrder
}

func (g *p256k1Group) N() *big.Int {
	return g.curveOrder
}

func (g *p256k1Group) Generator() Element {
	return g.Element().BaseScale(big.NewInt(1))
}

func (g *p256k1Group) Identity() Element {
	return &p256k1Point{
		curve: g,
		val:   new(p256.P256).SetInfinity(),
	}
}

func (g *p256k1Group) Random() Element {
	r, _ := rand.Int(rand.Reader, g.curveOrder)
	return g.Element().BaseScale(r)
}

func (g *p256k1Group) Element() Element {
	return g.Identity()
}

func (e *p256k1Point) check(a Element) *p256k1Point {
	ea, ok := a.(*p256k1Point)
	if !ok {
		panic("incompatible group element type")
	}
	return ea
}

func (e *p256k1Point) Group() Group {
	return e.curve
}

func (e *p256k1Point) Add(a Element, b Element) Element {
	ca := e.check(a)
	cb := e.check(b)
	switch {
	case ca.val.IsZero():
		e.val = copyP256(cb.val)
	case cb.val.IsZero():
		e.val = copyP256(ca.val)
	default:
		e.val = new(p256.P256).Multiply(ca.val, cb.val)
		e.val = normalizeP256(e.val)
	}
	return e
}

func (e *p256k1Point) Subtract(a Element, b Element) Element {
	tmp := e.curve.Identity()
	tmp.Negate(b)
	e.Add(a, tmp)
	return e
}

func (e *p256k1Point) Negate(a Element) Element {
	ca := e.check(a)
	if ca.val.IsZero() {
		e.val = new(p256.P256).SetInfinity()
		return e
	}
	// -P = (x, p - y) on a short Weierstrass curve.
	e.val = &p256.P256{
		X: new(big.Int).Set(ca.val.X),
		Y: new(big.Int).Sub(e.curve.fieldOrder, ca.val.Y),
	}
	return e
}

func (e *p256k1Point) IsEqual(b Element) bool {
	cb, ok := b.(*p256k1Point)
	if !ok {
		return false
	}
	if e.val.IsZero() || cb.val.IsZero() {
		return e.val.IsZero() && cb.val.IsZero()
	}
	return e.val.X.Cmp(cb.val.X) == 0 && e.val.Y.Cmp(cb.val.Y) == 0
}

func (e *p256k1Point) Set(a Element) Element {
	ca := e.check(a)
	e.val = copyP256(ca.val)
	return e
}

func (e *p256k1Point) Scale(a Element, s *big.Int) Element {
	ca := e.check(a)
	k := new(big.Int).Mod(s, e.curve.curveOrder)
	if ca.val.IsZero() || k.Sign() == 0 {
		e.val = new(p256.P256).SetInfinity()
		return e
	}
	e.val = normalizeP256(new(p256.P256).ScalarMult(ca.val, k))
	return e
}

func (e *p256k1Point) BaseScale(s *big.Int) Element {
	k := new(big.Int).Mod(s, e.curve.curveOrder)
	if k.Sign() == 0 {
		e.val = new(p256.P256).SetInfinity()
		return e
	}
	e.val = normalizeP256(new(p256.P256).ScalarBaseMult(k))
	return e
}

func (e *p256k1Point) GroupOrder() *big.Int {
	return e.curve.curveOrder
}

func (e *p256k1Point) FieldOrder() *big.Int {
	return e.curve.fieldOrder
}

func (e *p256k1Point) MapToGroup(s string) (Element, error) {
	tmp, err := p256.MapToGroup(s)
	if err != nil {
		return nil, err
	}
	e.val = normalizeP256(tmp)
	return e, nil
}

func (e *p256k1Point) String() string {
	b, _ := e.MarshalBinary()
	return e.curve.name + ":" + hexString(b)
}

func (e *p256k1Point) IsIdentity() bool {
	return e.val.IsZero()
}

// MarshalBinary uses the SEC 1 uncompressed form, with a single zero byte
// for the point at infinity.
func (e *p256k1Point) MarshalBinary() ([]byte, error) {
	if e.val.IsZero() {
		return []byte{0}, nil
	}
	out := make([]byte, 1+2*p256k1CoordLen)
	out[0] = 4
	e.val.X.FillBytes(out[1 : 1+p256k1CoordLen])
	e.val.Y.FillBytes(out[1+p256k1CoordLen:])
	return out, nil
}

func (e *p256k1Point) UnmarshalBinary(data []byte) error {
	if len(data) == 1 && data[0] == 0 {
		e.val = new(p256.P256).SetInfinity()
		return nil
	}
	if len(data) != 1+2*p256k1CoordLen || data[0] != 4 {
		return ErrInvalidLength
	}
	x := new(big.Int).SetBytes(data[1 : 1+p256k1CoordLen])
	y := new(big.Int).SetBytes(data[1+p256k1CoordLen:])
	if x.Cmp(e.curve.fieldOrder) >= 0 || y.Cmp(e.curve.fieldOrder) >= 0 {
		return ErrNonCanonical
	}
	if !p256.CURVE.IsOnCurve(x, y) {
		return ErrNonCanonical
	}
	e.val = &p256.P256{X: x, Y: y}
	return nil
}

func (e *p256k1Point) MarshalJSON() ([]byte, error) {
	return marshalHexJSON(e)
}

func (e *p256k1Point) UnmarshalJSON(data []byte) error {
	return unmarshalHexJSON(e, data)
}

func copyP256(p *p256.P256) *p256.P256 {
	if p.IsZero() {
		return new(p256.P256).SetInfinity()
	}
	return &p256.P256{X: new(big.Int).Set(p.X), Y: new(big.Int).Set(p.Y)}
}

// normalizeP256 maps the (0, 0) encoding of infinity returned by the
// underlying curve arithmetic onto the nil representation.
func normalizeP256(p *p256.P256) *p256.P256 {
	if p == nil || p.IsZero() {
		return new(p256.P256).SetInfinity()
	}
	return p
}

func SecP256k1() Group {
	p, _ := new(big.Int).SetString("fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f", 16)
	n, _ := new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)

	G := new(p256k1Group)
	G.fieldOrder = p
	G.curveOrder = n
	G.name = "secp256k1"
	return G
}
