package group

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ModPElement is an element of the order-q subgroup of quadratic residues
// modulo a safe prime p = 2q + 1.
type ModPElement struct {
	group *ModPGroup
	val   *big.Int
}

type ModPGroup struct {
	gen        *big.Int
	fieldOrder *big.Int
	groupOrder *big.Int
	name       string
}

func (g *ModPGroup) Name() string {
	return g.name
}

func (g *ModPGroup) MarshalJSON() ([]byte, error) {
	return json.Marshal(&GroupId{g.name})
}

func (g *ModPGroup) equals(h *ModPGroup) bool {
	if g == h {
		return true
	}
	return g.fieldOrder.Cmp(h.fieldOrder) == 0 && g.gen.Cmp(h.gen) == 0
}

func (g *ModPGroup) P() *big.Int {
	return g.fieldOrder
}

func (g *ModPGroup) N() *big.Int {
	return g.groupOrder
}

func (g *ModPGroup) Generator() Element {
	return &ModPElement{
		group: g,
		val:   new(big.Int).Set(g.gen),
	}
}

func (g *ModPGroup) Identity() Element {
	return &ModPElement{
		group: g,
		val:   big.NewInt(1),
	}
}

func (g *ModPGroup) Random() Element {
	r, _ := rand.Int(rand.Reader, g.groupOrder)
	e := g.Identity()
	e.BaseScale(r)
	return e
}

func (g *ModPGroup) Element() Element {
	return g.Identity()
}

func (g *ModPGroup) byteLen() int {
	return (g.fieldOrder.BitLen() + 7) / 8
}

func (e *ModPElement) check(a Element) *ModPElement {
	ex, ok := a.(*ModPElement)
	if !ok {
		panic("incompatible group element type")
	}
	if !e.group.equals(ex.group) {
		panic("incompatible groups")
	}
	return ex
}

func (e *ModPElement) Group() Group {
	return e.group
}

func (e *ModPElement) Add(a Element, b Element) Element {
	ex := e.check(a)
	ey := e.check(b)
	e.val = new(big.Int).Mul(ex.val, ey.val)
	e.val.Mod(e.val, e.group.fieldOrder)
	return e
}

func (e *ModPElement) Subtract(a Element, b Element) Element {
	tmp := e.group.Identity()
	tmp.Negate(b)
	e.Add(a, tmp)
	return e
}

func (e *ModPElement) Negate(a Element) Element {
	ex := e.check(a)
	e.val = new(big.Int).ModInverse(ex.val, e.group.fieldOrder)
	return e
}

func (e *ModPElement) IsEqual(b Element) bool {
	ey, ok := b.(*ModPElement)
	if !ok || !e.group.equals(ey.group) {
		return false
	}
	return e.val.Cmp(ey.val) == 0
}

func (e *ModPElement) Set(a Element) Element {
	ex := e.check(a)
	e.val = new(big.Int).Set(ex.val)
	return e
}

func (e *ModPElement) Scale(a Element, s *big.Int) Element {
	ex := e.check(a)
	k := new(big.Int).Mod(s, e.group.groupOrder)
	e.val = new(big.Int).Exp(ex.val, k, e.group.fieldOrder)
	return e
}

func (e *ModPElement) BaseScale(s *big.Int) Element {
	k := new(big.Int).Mod(s, e.group.groupOrder)
	e.val = new(big.Int).Exp(e.group.gen, k, e.group.fieldOrder)
	return e
}

func (e *ModPElement) GroupOrder() *big.Int {
	return e.group.groupOrder
}

func (e *ModPElement) FieldOrder() *big.Int {
	return e.group.fieldOrder
}

func (e *ModPElement) String() string {
	return e.group.name + ":" + e.val.Text(16)
}

func (e *ModPElement) IsIdentity() bool {
	return e.val.Cmp(big.NewInt(1)) == 0
}

// MapToGroup expands s into an integer modulo p and squares it, which lands
// in the subgroup of quadratic residues.
func (e *ModPElement) MapToGroup(s string) (Element, error) {
	need := e.group.byteLen() + 16
	buf := make([]byte, 0, need+blake2b.Size)
	for ctr := byte(0); len(buf) < need; ctr++ {
		h, _ := blake2b.New512(nil)
		h.Write([]byte(mapToGroupDST))
		h.Write([]byte{ctr})
		h.Write([]byte(s))
		buf = h.Sum(buf)
	}
	x := new(big.Int).SetBytes(buf[:need])
	x.Mod(x, e.group.fieldOrder)
	x.Exp(x, big.NewInt(2), e.group.fieldOrder)
	if x.Sign() == 0 || x.Cmp(big.NewInt(1)) == 0 {
		return e.MapToGroup(s + "\x00")
	}
	e.val = x
	return e, nil
}

// MarshalBinary returns the fixed-width big-endian encoding of the residue.
func (e *ModPElement) MarshalBinary() ([]byte, error) {
	out := make([]byte, e.group.byteLen())
	e.val.FillBytes(out)
	return out, nil
}

func (e *ModPElement) UnmarshalBinary(data []byte) error {
	if len(data) != e.group.byteLen() {
		return ErrInvalidLength
	}
	v := new(big.Int).SetBytes(data)
	if v.Sign() == 0 || v.Cmp(e.group.fieldOrder) >= 0 {
		return ErrNonCanonical
	}
	// Subgroup membership: v^q = 1 (mod p).
	if new(big.Int).Exp(v, e.group.groupOrder, e.group.fieldOrder).Cmp(big.NewInt(1)) != 0 {
		return ErrNonCanonical
	}
	e.val = v
	return nil
}

func (e *ModPElement) MarshalJSON() ([]byte, error) {
	return marshalHexJSON(e)
}

func (e *ModPElement) UnmarshalJSON(data []byte) error {
	return unmarshalHexJSON(e, data)
}

func NewModPGroup(name string, fieldOrder, generator string) Group {
	repr := strings.Join(strings.Fields(fieldOrder), "")

	ffOrder, ok := new(big.Int).SetString(repr, 16)
	if !ok {
		panic("invalid group definition")
	}

	gen, ok := new(big.Int).SetString(generator, 16)
	if !ok {
		panic("invalid generator")
	}

	genOrder := new(big.Int).Set(ffOrder)
	genOrder.Sub(genOrder, big.NewInt(1))
	genOrder.Div(genOrder, big.NewInt(2))

	G := new(ModPGroup)
	G.fieldOrder = ffOrder
	G.groupOrder = genOrder
	G.gen = gen
	G.name = name
	return G
}
