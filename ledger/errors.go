package ledger

import "errors"

var (
	// ErrInsufficientBalance is returned when a sender cannot cover
	// amount plus fee.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidNonce is returned when a transaction nonce is not the
	// sender's account nonce plus one.
	ErrInvalidNonce = errors.New("invalid nonce")

	// ErrInvalidProofOfWork is returned when a block hash does not meet
	// the difficulty target.
	ErrInvalidProofOfWork = errors.New("invalid proof of work")

	// ErrChainMismatch is returned when hash links, indices or the
	// genesis block of a chain do not line up.
	ErrChainMismatch = errors.New("chain mismatch")

	// ErrStateViolation is returned when replaying a candidate chain
	// hits a transaction that violates balance or nonce rules.
	ErrStateViolation = errors.New("state violation")

	// ErrEmptyPool signals that there is nothing to mine. It is a
	// benign no-op condition, not a fault.
	ErrEmptyPool = errors.New("empty transaction pool")
)
