package chainvote

import (
	"github.com/takakv/chainvote/elgamal"
	"github.com/takakv/chainvote/group"
	"github.com/takakv/chainvote/tally"
	"github.com/takakv/chainvote/threshold"
	"github.com/takakv/chainvote/voteproof"
)

// Errors returned by the ledger API. Each rejects a single artifact.
var (
	ErrInvalidKey             = elgamal.ErrInvalidKey
	ErrGroupMismatch          = elgamal.ErrGroupMismatch
	ErrMalformedProof         = voteproof.ErrMalformedProof
	ErrVerificationFailed     = voteproof.ErrVerificationFailed
	ErrMalformedShare         = threshold.ErrMalformedShare
	ErrInvalidDecryptionProof = threshold.ErrInvalidDecryptionProof
	ErrInsufficientShares     = threshold.ErrInsufficientShares
	ErrTallyOutOfRange        = tally.ErrTallyOutOfRange
	ErrNonCanonical           = group.ErrNonCanonical
)
