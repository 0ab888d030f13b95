// Package inter defines the core wire structures of the ledger: value
// transfer transactions and proof-of-work sealed blocks. The package
// owns their canonical encoding, from which every hash and signature in
// the system is derived, so any change here is consensus-breaking.
package inter

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smvblock/go-smv/crypto"
)

var (
	// ErrInvalidSignature is returned when a transaction signature does
	// not recover to the declared sender.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrInvalidAmount is returned when a transaction transfers nothing.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Transaction is a signed intent to move value between two accounts.
// It is immutable once signed: every field except Sig is covered by the
// signature, and Sender must match the address recovered from Sig.
//
// Fee is burned on application, not credited to the miner.
type Transaction struct {
	Sender    common.Address
	Recipient common.Address
	Amount    uint64
	Fee       uint64
	Nonce     uint64
	Sig       [crypto.SigLen]byte
}

// NewTransaction builds and signs a transfer of amount from the account
// controlled by key to recipient. Nonce must be the sender's account
// nonce plus one at the time the transaction is meant to apply.
func NewTransaction(key *ecdsa.PrivateKey, recipient common.Address, amount, fee, nonce uint64) (*Transaction, error) {
	tx := &Transaction{
		Sender:    crypto.KeyAddress(key),
		Recipient: recipient,
		Amount:    amount,
		Fee:       fee,
		Nonce:     nonce,
	}
	sig, err := crypto.Sign(key, tx.SigningHash())
	if err != nil {
		return nil, err
	}
	tx.Sig = sig
	return tx, nil
}

// SigningHash returns the digest covered by the transaction signature:
// the Keccak hash of the canonical encoding of all fields except Sig.
func (t *Transaction) SigningHash() common.Hash {
	return crypto.Keccak256(t.signedPayload())
}

// Hash returns the transaction identifier, covering the signature too.
func (t *Transaction) Hash() common.Hash {
	return crypto.Keccak256(t.signedPayload(), t.Sig[:])
}

// Validate performs the state-independent well-formedness checks:
// a non-zero amount and a signature that recovers to Sender. State
// relative admissibility (balance, nonce) is the ledger's concern.
func (t *Transaction) Validate() error {
	if t.Amount == 0 {
		return ErrInvalidAmount
	}
	if !crypto.Verify(t.Sender, t.SigningHash(), t.Sig) {
		return ErrInvalidSignature
	}
	return nil
}

// Cost returns amount+fee, the total debited from the sender, and
// reports whether the sum overflows.
func (t *Transaction) Cost() (total uint64, ok bool) {
	total = t.Amount + t.Fee
	return total, total >= t.Amount
}

func (t *Transaction) String() string {
	return fmt.Sprintf("Tx{%s -> %s, amount=%d, fee=%d, nonce=%d}",
		t.Sender.Hex(), t.Recipient.Hex(), t.Amount, t.Fee, t.Nonce)
}
