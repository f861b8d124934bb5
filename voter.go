// Package chainvote is the ledger-facing API of a threshold-decrypted
// homomorphic voting scheme.
//
// Voters encrypt a unit vector over the election's options and attach a
// zero-knowledge proof that it is one. The ledger verifies ballots, sums
// them homomorphically per option, and after the vote a committee decrypts
// only the sums with a threshold of key shares.
package chainvote

import (
	"fmt"
	"math/big"

	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/group"
	"github.com/takakv/chainvote/voteproof"
)

// Election holds the public parameters shared by voters and the ledger.
type Election struct {
	Group     group.Group
	PublicKey *elgamal.PublicKey
	CRS       *voteproof.CRS
	Options   int
}

// NewElection sets up the public parameters of an election with the given
// number of options under pk.
func NewElection(pk *elgamal.PublicKey, options int) (*Election, error) {
	if err := pk.Validate(); err != nil {
		return nil, err
	}
	if options < 1 {
		return nil, fmt.Errorf("election needs at least one option, got %d", options)
	}
	crs, err := voteproof.NewCRS(pk.Group())
	if err != nil {
		return nil, err
	}
	return &Election{
		Group:     pk.Group(),
		PublicKey: pk,
		CRS:       crs,
		Options:   options,
	}, nil
}

// Ballot contains the encrypted choice of a voter and the proof that it
// encrypts a unit vector.
type Ballot struct {
	Ciphertexts elgamal.Vector   // One ciphertext per option.
	Proof       *voteproof.Proof // Proof of vote correctness.
}

// EncryptVote encrypts a vote for option choice and proves it well-formed.
func EncryptVote(e *Election, choice int) (*Ballot, error) {
	if choice < 0 || choice >= e.Options {
		return nil, fmt.Errorf("choice %d out of range [0, %d)", choice, e.Options)
	}

	plain := make([]*big.Int, e.Options)
	for i := range plain {
		plain[i] = new(big.Int)
	}
	plain[choice].SetInt64(1)

	ciphertexts, randomness, err := elgamal.EncryptVector(e.PublicKey, plain)
	if err != nil {
		return nil, err
	}
	proof, err := voteproof.Prove(e.CRS, e.PublicKey, ciphertexts, choice, randomness)
	if err != nil {
		return nil, err
	}
	return &Ballot{Ciphertexts: ciphertexts, Proof: proof}, nil
}
