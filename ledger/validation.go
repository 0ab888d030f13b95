package ledger

import (
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"

	"github.com/smvblock/go-smv/inter"
	"github.com/smvblock/go-smv/smv/genesis"
)

// VerifyBlock checks a sealed block in isolation against its expected
// parent: cached hash matches the recomputed header hash, the hash
// satisfies the proof-of-work target, the parent link is intact, and
// every carried transaction is well-formed and correctly signed. State
// effects are not checked here; that is the replay's job.
func VerifyBlock(b *inter.Block, prevIndex idx.Block, prevHash common.Hash, difficulty uint64) error {
	if got := b.CalcHash(); got != b.Hash {
		return fmt.Errorf("%w: block %d hash mismatch (claimed %s, computed %s)",
			ErrChainMismatch, b.Index, b.Hash.Hex(), got.Hex())
	}
	if !CheckProofOfWork(b.Hash, difficulty) {
		return fmt.Errorf("%w: block %d hash %s misses the target",
			ErrInvalidProofOfWork, b.Index, b.Hash.Hex())
	}
	if b.Index != prevIndex+1 {
		return fmt.Errorf("%w: block index %d does not follow %d",
			ErrChainMismatch, b.Index, prevIndex)
	}
	if b.PrevHash != prevHash {
		return fmt.Errorf("%w: block %d links to %s, parent is %s",
			ErrChainMismatch, b.Index, b.PrevHash.Hex(), prevHash.Hex())
	}
	for _, tx := range b.Txs {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("block %d carries bad tx %s: %w",
				b.Index, tx.Hash().Hex(), err)
		}
	}
	return nil
}

// replayChain validates blocks against a genesis config and re-derives
// the resulting state from scratch. The chain is rejected unless it
// starts with exactly the genesis block of g, every subsequent block
// passes VerifyBlock, and every transaction applies cleanly in order.
// On success the returned state is the canonical post-chain state.
func replayChain(g *genesis.Genesis, blocks []*inter.Block, difficulty uint64) (*State, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: empty chain", ErrChainMismatch)
	}
	want := GenesisBlock(g)
	got := blocks[0]
	if got.Hash != want.Hash || got.CalcHash() != want.Hash {
		return nil, fmt.Errorf("%w: foreign genesis block %s, want %s",
			ErrChainMismatch, got.Hash.Hex(), want.Hash.Hex())
	}
	if len(got.Txs) != 0 {
		return nil, fmt.Errorf("%w: genesis block carries transactions", ErrChainMismatch)
	}

	state := NewGenesisState(g)
	prev := got
	for _, b := range blocks[1:] {
		if err := VerifyBlock(b, prev.Index, prev.Hash, difficulty); err != nil {
			return nil, err
		}
		for _, tx := range b.Txs {
			if err := state.Apply(tx); err != nil {
				return nil, fmt.Errorf("%w: block %d tx %s does not apply: %v",
					ErrStateViolation, b.Index, tx.Hash().Hex(), err)
			}
		}
		prev = b
	}
	return state, nil
}
