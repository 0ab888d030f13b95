// Package crypto provides the signature scheme and hashing used by the
// ledger: secp256k1 keypairs, 65-byte recoverable [R || S || V]
// signatures over 32-byte Keccak digests, and hash-derived account
// addresses. All operations are pure functions; signing and hashing are
// deterministic for identical inputs, which block hashing and
// verification idempotence rely on.
package crypto

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// SigLen is the length of a recoverable signature in bytes.
const SigLen = 65

// ErrCryptoFailure wraps faults of the underlying randomness source or
// key material. It never occurs during normal transaction or block
// processing; key generation is its only realistic source.
var ErrCryptoFailure = errors.New("crypto failure")

// GenerateKey creates a new secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	return key, nil
}

// HexToKey parses a hex-encoded secp256k1 private key.
func HexToKey(hexkey string) (*ecdsa.PrivateKey, error) {
	key, err := ethcrypto.HexToECDSA(hexkey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	return key, nil
}

// AddressOf derives the account address from a public key. The
// derivation is a one-way hash, so an address never reveals its key.
func AddressOf(pub *ecdsa.PublicKey) common.Address {
	return ethcrypto.PubkeyToAddress(*pub)
}

// KeyAddress derives the account address controlled by priv.
func KeyAddress(priv *ecdsa.PrivateKey) common.Address {
	return AddressOf(&priv.PublicKey)
}

// Keccak256 hashes the concatenation of data.
func Keccak256(data ...[]byte) common.Hash {
	return ethcrypto.Keccak256Hash(data...)
}

// Sign produces a recoverable signature of digest.
func Sign(priv *ecdsa.PrivateKey, digest common.Hash) ([SigLen]byte, error) {
	var sig [SigLen]byte
	raw, err := ethcrypto.Sign(digest[:], priv)
	if err != nil {
		return sig, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	copy(sig[:], raw)
	return sig, nil
}

// Recover returns the address whose key produced sig over digest.
func Recover(digest common.Hash, sig [SigLen]byte) (common.Address, error) {
	pub, err := ethcrypto.SigToPub(digest[:], sig[:])
	if err != nil {
		return common.Address{}, err
	}
	return AddressOf(pub), nil
}

// Verify reports whether sig over digest recovers to signer. Malformed
// signatures yield false, never an error.
func Verify(signer common.Address, digest common.Hash, sig [SigLen]byte) bool {
	recovered, err := Recover(digest, sig)
	if err != nil {
		return false
	}
	return recovered == signer
}
