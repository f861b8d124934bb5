package threshold

import (
	"fmt"
	"math/big"

	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/group"
	"github.com/takakv/chainvote/log"
	"github.com/takakv/chainvote/util"
)

const dleqDomain = "chainvote/decryption-share/v1"

// DecryptionProof is a Chaum–Pedersen proof of discrete logarithm equality
// in challenge/response form.
type DecryptionProof struct {
	C *big.Int
	Z *big.Int
}

// PartialDecryption is one member's contribution D = s*U towards
// decrypting a ciphertext (U, V).
type PartialDecryption struct {
	Member MemberID
	D      group.Element
	Proof  DecryptionProof
}

// dleqChallenge hashes the statement log_G S = log_U D and the prover's
// commitments T1 = k*G, T2 = k*U.
func dleqChallenge(g group.Group, id MemberID, S group.Element, c *elgamal.Ciphertext, D, T1, T2 group.Element) *big.Int {
	tr := util.NewTranscript(g, dleqDomain)
	tr.AppendUint64("member", uint64(id))
	tr.AppendElements("share", S)
	tr.AppendElements("ciphertext", c.U, c.V)
	tr.AppendElements("partial", D)
	tr.AppendElements("commitment", T1, T2)
	return tr.Challenge("c")
}

// GeneratePartial computes the member's partial decryption of c and a
// proof that it is consistent with the member's public share.
func GeneratePartial(share *MemberSecretShare, c *elgamal.Ciphertext) (*PartialDecryption, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	g := share.Group()
	if !group.InGroup(g, c.U, c.V) {
		return nil, elgamal.ErrGroupMismatch
	}

	var pd *PartialDecryption
	err := share.Use(func(s *big.Int) error {
		k, err := group.RandomScalar(g)
		if err != nil {
			return fmt.Errorf("proof randomness: %w", err)
		}
		defer util.Wipe(k)

		S := g.Element().BaseScale(s)
		D := g.Element().Scale(c.U, s)
		T1 := g.Element().BaseScale(k)
		T2 := g.Element().Scale(c.U, k)
		ch := dleqChallenge(g, share.ID(), S, c, D, T1, T2)

		z := new(big.Int).Mul(ch, s)
		z.Add(z, k)
		z.Mod(z, g.N())

		pd = &PartialDecryption{
			Member: share.ID(),
			D:      D,
			Proof:  DecryptionProof{C: ch, Z: z},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pd, nil
}

// VerifyPartial checks pd against the committee's public share of its
// member for ciphertext c.
func VerifyPartial(committee *Committee, c *elgamal.Ciphertext, pd *PartialDecryption) error {
	if pd == nil || pd.D == nil || pd.Proof.C == nil || pd.Proof.Z == nil {
		return fmt.Errorf("%w: incomplete partial decryption", ErrMalformedShare)
	}
	g := committee.Group()
	if err := c.Validate(); err != nil {
		return err
	}
	if !group.InGroup(g, c.U, c.V) || !group.InGroup(g, pd.D) {
		return elgamal.ErrGroupMismatch
	}
	N := g.N()
	if pd.Proof.C.Sign() < 0 || pd.Proof.C.Cmp(N) >= 0 || pd.Proof.Z.Sign() < 0 || pd.Proof.Z.Cmp(N) >= 0 {
		return fmt.Errorf("%w: scalar out of range", ErrMalformedShare)
	}
	S, err := committee.Share(pd.Member)
	if err != nil {
		return err
	}

	// T1 = z*G - c*S, T2 = z*U - c*D
	T1 := g.Element().BaseScale(pd.Proof.Z)
	T1.Subtract(T1, g.Element().Scale(S, pd.Proof.C))
	T2 := g.Element().Scale(c.U, pd.Proof.Z)
	T2.Subtract(T2, g.Element().Scale(pd.D, pd.Proof.C))

	if dleqChallenge(g, pd.Member, S, c, pd.D, T1, T2).Cmp(pd.Proof.C) != 0 {
		return fmt.Errorf("%w: member %d", ErrInvalidDecryptionProof, pd.Member)
	}
	return nil
}

// Combine recovers m*G from the partial decryptions of c. Partials that
// fail verification or repeat a member are excluded; fewer than t remaining
// partials is an error. Any t valid partials yield the same result, the t
// lowest member ids are used.
func Combine(committee *Committee, c *elgamal.Ciphertext, partials []*PartialDecryption) (group.Element, error) {
	g := committee.Group()
	t := committee.Threshold()

	valid := make(map[MemberID]group.Element, len(partials))
	ids := make([]MemberID, 0, t)
	for _, pd := range partials {
		if err := VerifyPartial(committee, c, pd); err != nil {
			log.Warnw("excluding partial decryption", "error", err.Error())
			continue
		}
		if _, ok := valid[pd.Member]; ok {
			log.Warnw("excluding duplicate partial decryption", "member", uint32(pd.Member))
			continue
		}
		valid[pd.Member] = pd.D
		ids = append(ids, pd.Member)
	}
	if len(ids) < t {
		return nil, fmt.Errorf("%w: %d valid of %d required", ErrInsufficientShares, len(ids), t)
	}
	sortIDs(ids)
	return interpolateMask(g, c, valid, ids[:t])
}

// interpolateMask removes sum(lambda_i*D_i) over ids from V.
func interpolateMask(g group.Group, c *elgamal.Ciphertext, valid map[MemberID]group.Element, ids []MemberID) (group.Element, error) {
	coeffs, err := util.LagrangeAtZero(toUint32(ids), g.N())
	if err != nil {
		return nil, err
	}
	mask := g.Identity()
	for _, id := range ids {
		mask.Add(mask, g.Element().Scale(valid[id], coeffs[uint32(id)]))
	}
	return g.Element().Subtract(c.V, mask), nil
}
