package group

import (
	"crypto/rand"
	"encoding/json"
	"math/big"

	circl "github.com/cloudflare/circl/group"
)

const mapToGroupDST = "chainvote-v1-map-to-group"

// circlGroup adapts a prime-order group implemented by circl.
type circlGroup struct {
	g          circl.Group
	fieldOrder *big.Int
	curveOrder *big.Int
	name       string
}

type circlPoint struct {
	curve *circlGroup
	val   circl.Element
}

func (g *circlGroup) Name() string {
	return g.name
}

func (g *circlGroup) MarshalJSON() ([]byte, error) {
	return json.Marshal(&GroupId{g.name})
}

func (g *circlGroup) P() *big.Int {
	return g.fieldOrder
}

func (g *circlGroup) N() *big.Int {
	return g.curveOrder
}

func (g *circlGroup) Generator() Element {
	return &circlPoint{
		curve: g,
		val:   g.g.Generator(),
	}
}

func (g *circlGroup) Identity() Element {
	return &circlPoint{
		curve: g,
		val:   g.g.Identity(),
	}
}

func (g *circlGroup) Random() Element {
	return &circlPoint{
		curve: g,
		val:   g.g.RandomElement(rand.Reader),
	}
}

func (g *circlGroup) Element() Element {
	return g.Identity()
}

func (g *circlGroup) scalar(s *big.Int) circl.Scalar {
	return g.g.NewScalar().SetBigInt(new(big.Int).Mod(s, g.curveOrder))
}

func (e *circlPoint) check(a Element) *circlPoint {
	ca, ok := a.(*circlPoint)
	if !ok || ca.curve.name != e.curve.name {
		panic("incompatible group element type")
	}
	return ca
}

func (e *circlPoint) Group() Group {
	return e.curve
}

func (e *circlPoint) Add(a Element, b Element) Element {
	ca := e.check(a)
	cb := e.check(b)
	e.val = e.curve.g.NewElement().Add(ca.val, cb.val)
	return e
}

func (e *circlPoint) Subtract(a Element, b Element) Element {
	tmp := e.curve.Identity()
	tmp.Negate(b)
	e.Add(a, tmp)
	return e
}

func (e *circlPoint) Negate(a Element) Element {
	ca := e.check(a)
	e.val = e.curve.g.NewElement().Neg(ca.val)
	return e
}

func (e *circlPoint) IsEqual(b Element) bool {
	cb, ok := b.(*circlPoint)
	if !ok || cb.curve.name != e.curve.name {
		return false
	}
	return e.val.IsEqual(cb.val)
}

func (e *circlPoint) Set(x Element) Element {
	ca := e.check(x)
	e.val = e.curve.g.NewElement().Set(ca.val)
	return e
}

func (e *circlPoint) Scale(x Element, s *big.Int) Element {
	ex := e.check(x)
	e.val = e.curve.g.NewElement().Mul(ex.val, e.curve.scalar(s))
	return e
}

func (e *circlPoint) BaseScale(s *big.Int) Element {
	e.val = e.curve.g.NewElement().MulGen(e.curve.scalar(s))
	return e
}

func (e *circlPoint) GroupOrder() *big.Int {
	return e.curve.curveOrder
}

func (e *circlPoint) FieldOrder() *big.Int {
	return e.curve.fieldOrder
}

func (e *circlPoint) MapToGroup(s string) (Element, error) {
	e.val = e.curve.g.HashToElement([]byte(s), []byte(mapToGroupDST))
	return e, nil
}

func (e *circlPoint) String() string {
	tmp, _ := e.val.MarshalBinary()
	return e.curve.name + ":" + hexString(tmp)
}

func (e *circlPoint) IsIdentity() bool {
	return e.val.IsIdentity()
}

func (e *circlPoint) MarshalBinary() ([]byte, error) {
	return e.val.MarshalBinary()
}

func (e *circlPoint) UnmarshalBinary(data []byte) error {
	val := e.curve.g.NewElement()
	if err := val.UnmarshalBinary(data); err != nil {
		return err
	}
	e.val = val
	return nil
}

func (e *circlPoint) MarshalJSON() ([]byte, error) {
	return marshalHexJSON(e)
}

func (e *circlPoint) UnmarshalJSON(data []byte) error {
	return unmarshalHexJSON(e, data)
}

func Ristretto255() Group {
	p, _ := new(big.Int).SetString("7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffed", 16)
	n, _ := new(big.Int).SetString("1000000000000000000000000000000014def9dea2f79cd65812631a5cf5d3ed", 16)

	G := new(circlGroup)
	G.g = circl.Ristretto255
	G.fieldOrder = p
	G.curveOrder = n
	G.name = "ristretto255"
	return G
}

func P256() Group {
	p, _ := new(big.Int).SetString("ffffffff00000001000000000000000000000000ffffffffffffffffffffffff", 16)
	n, _ := new(big.Int).SetString("ffffffff00000000ffffffffffffffffbce6faada7179e84f3b9cac2fc632551", 16)

	G := new(circlGroup)
	G.g = circl.P256
	G.fieldOrder = p
	G.curveOrder = n
	G.name = "P-256"
	return G
}

func P384() Group {
	p, _ := new(big.Int).SetString("fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffeffffffff0000000000000000ffffffff", 16)
	n, _ := new(big.Int).SetString("ffffffffffffffffffffffffffffffffffffffffffffffffc7634d81f4372ddf581a0db248b0a77aecec196accc52973", 16)

	G := new(circlGroup)
	G.g = circl.P384
	G.fieldOrder = p
	G.curveOrder = n
	G.name = "P-384"
	return G
}
