package ledger

import (
	"context"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"

	"github.com/smvblock/go-smv/inter"
)

var (
	// bigOne is 1 as a big.Int, defined once to avoid re-allocation.
	bigOne = big.NewInt(1)

	// oneLsh256 is 1 shifted left 256 bits, the exclusive upper bound
	// of the hash space.
	oneLsh256 = new(big.Int).Lsh(bigOne, 256)
)

// powCancelBatch is how many nonce candidates the search tries between
// cancellation checks.
const powCancelBatch = 4096

// PowTarget returns the exclusive upper bound a block hash must stay
// under for the given difficulty: the maximum hash value shifted right
// by difficulty bits. Each extra bit of difficulty halves the target
// and doubles the expected work.
func PowTarget(difficulty uint64) *big.Int {
	if difficulty >= 256 {
		// Nothing but the all-zero hash could ever satisfy this.
		return new(big.Int).Set(bigOne)
	}
	return new(big.Int).Rsh(oneLsh256, uint(difficulty))
}

// HashToBig interprets a hash as a big-endian unsigned integer so it
// can be compared against a target.
func HashToBig(h common.Hash) *big.Int {
	return new(big.Int).SetBytes(h[:])
}

// CheckProofOfWork reports whether h satisfies the difficulty target.
func CheckProofOfWork(h common.Hash, difficulty uint64) bool {
	return HashToBig(h).Cmp(PowTarget(difficulty)) < 0
}

// BlockWork returns the expected number of hash attempts a block at the
// given difficulty represents: 2^difficulty. Cumulative work is the
// chain comparison tie-breaker.
func BlockWork(difficulty uint64) *big.Int {
	return new(big.Int).Lsh(bigOne, uint(difficulty))
}

// CumulativeWork sums the work of every proof-of-work sealed block in
// the chain. Genesis is sealed by identity, not work, and contributes
// nothing.
func CumulativeWork(blocks []*inter.Block, difficulty uint64) *big.Int {
	total := new(big.Int)
	per := BlockWork(difficulty)
	for range blocks[1:] {
		total.Add(total, per)
	}
	return total
}

// MineBlock searches for a nonce that seals a block over txs on top of
// the parent identified by (index-1, prevHash). The search is unbounded
// work by design; it polls ctx between batches so an in-flight search
// can be abandoned (a better chain arrived, shutdown) without touching
// any shared state.
func MineBlock(ctx context.Context, index idx.Block, prevHash common.Hash, at inter.Timestamp, txs []*inter.Transaction, difficulty uint64) (*inter.Block, error) {
	b := &inter.Block{
		Index:    index,
		PrevHash: prevHash,
		Time:     at,
		Txs:      txs,
	}
	root := b.TxsRoot()

	for {
		for i := 0; i < powCancelBatch; i++ {
			h := b.CalcHashWithRoot(root)
			if CheckProofOfWork(h, difficulty) {
				b.Hash = h
				return b, nil
			}
			b.Nonce++
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}
