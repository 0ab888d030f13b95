package inter

import (
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"

	"github.com/smvblock/go-smv/crypto"
)

// Block is an ordered batch of transactions sealed by proof-of-work.
//
// Hash is a derived value cached at sealing time: it is the Keccak hash
// of the header (every other field, transactions included via TxsRoot),
// and must satisfy the network's proof-of-work target. Verifiers always
// recompute it; the cached copy is never trusted on its own.
type Block struct {
	// Index is the height of the block: 0 for genesis, parent+1 after.
	Index idx.Block

	// PrevHash is the hash of the block at Index-1. For genesis it is
	// the genesis sentinel derived from the network's genesis config.
	PrevHash common.Hash

	// Time is the wall-clock sealing time claimed by the miner. It does
	// not participate in consensus beyond being covered by Hash.
	Time Timestamp

	// Txs are the included transactions in application order.
	Txs []*Transaction

	// Nonce is the proof-of-work search variable.
	Nonce uint64

	// Hash caches the header hash; see CalcHash.
	Hash common.Hash
}

// TxsRoot returns the digest committing the block to its transaction
// list and order: the Keccak hash over the concatenated transaction
// hashes.
func (b *Block) TxsRoot() common.Hash {
	hashes := make([][]byte, len(b.Txs))
	for i, tx := range b.Txs {
		h := tx.Hash()
		hashes[i] = h.Bytes()
	}
	return crypto.Keccak256(hashes...)
}

// CalcHash recomputes the header hash from the stored fields. The
// result changes if any field other than Hash itself is mutated, which
// is what makes committed blocks tamper-evident.
func (b *Block) CalcHash() common.Hash {
	return b.CalcHashWithRoot(b.TxsRoot())
}

// CalcHashWithRoot is CalcHash with the transactions root supplied by
// the caller. A nonce search over a fixed transaction list computes the
// root once and reuses it for every candidate.
func (b *Block) CalcHashWithRoot(root common.Hash) common.Hash {
	return crypto.Keccak256(b.headerPayload(root))
}

// EstimateSize returns an approximate in-memory size of the block in
// bytes, used for transfer budgeting on the node surface.
func (b *Block) EstimateSize() int {
	// header: index + time + nonce + two hashes
	size := 8 + 8 + 8 + 2*common.HashLength
	for range b.Txs {
		// two addresses, three uint64 fields, one signature
		size += 2*common.AddressLength + 3*8 + crypto.SigLen
	}
	return size
}

func (b *Block) String() string {
	return fmt.Sprintf("Block{index=%d, txs=%d, hash=%s}", b.Index, len(b.Txs), b.Hash.Hex())
}
