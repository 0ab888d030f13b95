package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/smvblock/go-smv/inter"
	"github.com/smvblock/go-smv/smv"
	"github.com/smvblock/go-smv/smv/genesis"
)

// Ledger owns the committed chain, the state derived from it, and the
// pending transaction pool.
//
// Two locks guard the two shared resources. chainMu protects chain and
// state; poolMu protects pending. Where both are needed, chainMu is
// always taken first. State is only ever mutated on the commit path
// (MinePending) or replaced wholesale (AdoptIfBetter); accessors hand
// out copies.
type Ledger struct {
	rules   smv.Rules
	genesis *genesis.Genesis
	log     *logrus.Logger

	chainMu sync.RWMutex
	chain   []*inter.Block
	state   *State

	poolMu  sync.Mutex
	pending []*inter.Transaction
}

// New builds a ledger holding only the genesis block of g, with state
// minted from the genesis allocations.
func New(rules smv.Rules, g *genesis.Genesis, log *logrus.Logger) *Ledger {
	if log == nil {
		log = logrus.New()
	}
	gb := GenesisBlock(g)
	l := &Ledger{
		rules:   rules,
		genesis: g,
		log:     log,
		chain:   []*inter.Block{gb},
		state:   NewGenesisState(g),
	}
	log.WithFields(logrus.Fields{
		"network":    rules.Name,
		"difficulty": rules.Difficulty,
		"genesis":    gb.Hash.Hex(),
		"supply":     g.TotalSupply(),
	}).Info("ledger initialized")
	return l
}

// Rules returns the network rules the ledger was built with.
func (l *Ledger) Rules() smv.Rules {
	return l.rules
}

// Genesis returns the genesis config the chain is rooted in.
func (l *Ledger) Genesis() *genesis.Genesis {
	return l.genesis
}

// AddTransaction admits a transaction into the pending pool. The
// transaction must be well-formed, and must be admissible against the
// current committed state. The state check is advisory: the state may
// shift before the transaction is mined, and mining re-validates, so a
// transaction that passes here can still be discarded later.
func (l *Ledger) AddTransaction(tx *inter.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	l.chainMu.RLock()
	err := l.state.CheckTx(tx)
	l.chainMu.RUnlock()
	if err != nil {
		return err
	}

	l.poolMu.Lock()
	l.pending = append(l.pending, tx)
	pooled := len(l.pending)
	l.poolMu.Unlock()

	l.log.WithFields(logrus.Fields{
		"tx":     tx.Hash().Hex(),
		"sender": tx.Sender.Hex(),
		"pooled": pooled,
	}).Debug("transaction admitted")
	return nil
}

// MinePending seals the next block from the pending pool.
//
// It snapshots the pool and the chain tip, re-applies the pooled
// transactions in arrival order to a copy of state to pick a
// conflict-free subset (transactions that no longer apply are skipped,
// not errored, and stay pooled for a later block), runs the
// proof-of-work search over that subset, and commits. The search runs
// without holding either lock; the commit re-checks that the tip has
// not moved and fails with ErrChainMismatch if it has.
func (l *Ledger) MinePending(ctx context.Context) (*inter.Block, error) {
	l.chainMu.RLock()
	head := l.chain[len(l.chain)-1]
	trial := l.state.Copy()
	l.chainMu.RUnlock()

	l.poolMu.Lock()
	snapshot := make([]*inter.Transaction, len(l.pending))
	copy(snapshot, l.pending)
	l.poolMu.Unlock()

	if len(snapshot) == 0 {
		return nil, ErrEmptyPool
	}

	txs := make([]*inter.Transaction, 0, len(snapshot))
	for _, tx := range snapshot {
		if len(txs) >= smv.MaxBlockTxs {
			break
		}
		if err := trial.Apply(tx); err != nil {
			l.log.WithFields(logrus.Fields{
				"tx":     tx.Hash().Hex(),
				"reason": err,
			}).Debug("transaction skipped for this block")
			continue
		}
		txs = append(txs, tx)
	}
	if len(txs) == 0 {
		return nil, ErrEmptyPool
	}

	start := time.Now()
	b, err := MineBlock(ctx, head.Index+1, head.Hash, inter.TimestampOf(time.Now()), txs, l.rules.Difficulty)
	if err != nil {
		return nil, err
	}

	if err := l.commit(b, head.Hash); err != nil {
		return nil, err
	}
	l.log.WithFields(logrus.Fields{
		"index":   b.Index,
		"hash":    b.Hash.Hex(),
		"txs":     len(b.Txs),
		"nonce":   b.Nonce,
		"elapsed": time.Since(start),
	}).Info("block mined")
	return b, nil
}

// commit appends a freshly mined block on top of the tip it was mined
// against, applies its transactions to the real state, and prunes the
// included transactions from the pool. The transactions were selected
// by replaying them on a copy of the same committed state, so as long
// as the tip is unchanged they apply cleanly; a failure here means the
// selection invariant was broken and the state is not touched further.
func (l *Ledger) commit(b *inter.Block, minedOn common.Hash) error {
	l.chainMu.Lock()
	defer l.chainMu.Unlock()

	head := l.chain[len(l.chain)-1]
	if head.Hash != minedOn {
		return fmt.Errorf("%w: chain advanced to %s while mining on %s",
			ErrChainMismatch, head.Hash.Hex(), minedOn.Hex())
	}
	for _, tx := range b.Txs {
		if err := l.state.Apply(tx); err != nil {
			return fmt.Errorf("%w: mined tx %s does not apply: %v",
				ErrStateViolation, tx.Hash().Hex(), err)
		}
	}
	l.chain = append(l.chain, b)

	included := make(map[common.Hash]bool, len(b.Txs))
	for _, tx := range b.Txs {
		included[tx.Hash()] = true
	}
	l.poolMu.Lock()
	kept := l.pending[:0]
	for _, tx := range l.pending {
		if !included[tx.Hash()] {
			kept = append(kept, tx)
		}
	}
	l.pending = kept
	l.poolMu.Unlock()
	return nil
}

// ValidateChain fully replays a candidate chain against the ledger's
// genesis config and difficulty. Cached hashes are never trusted.
func (l *Ledger) ValidateChain(blocks []*inter.Block) error {
	_, err := replayChain(l.genesis, blocks, l.rules.Difficulty)
	return err
}

// AdoptIfBetter replaces the committed chain with a candidate if the
// candidate validates and is better: strictly longer, or equally long
// with strictly more cumulative proof-of-work. Returns whether the
// candidate was adopted. The replay runs without holding chainMu; the
// comparison and swap are a single critical section, so readers never
// observe a half-replaced chain or a state out of sync with it.
func (l *Ledger) AdoptIfBetter(blocks []*inter.Block) (bool, error) {
	state, err := replayChain(l.genesis, blocks, l.rules.Difficulty)
	if err != nil {
		return false, err
	}
	candidate := make([]*inter.Block, len(blocks))
	copy(candidate, blocks)

	l.chainMu.Lock()
	defer l.chainMu.Unlock()

	if !betterThan(candidate, l.chain, l.rules.Difficulty) {
		return false, nil
	}
	old := len(l.chain)
	l.chain = candidate
	l.state = state
	l.log.WithFields(logrus.Fields{
		"old_length": old,
		"new_length": len(candidate),
		"head":       candidate[len(candidate)-1].Hash.Hex(),
	}).Info("chain adopted")
	return true, nil
}

// betterThan reports whether chain a should replace chain b.
func betterThan(a, b []*inter.Block, difficulty uint64) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return CumulativeWork(a, difficulty).Cmp(CumulativeWork(b, difficulty)) > 0
}

// Head returns the current tip of the chain.
func (l *Ledger) Head() *inter.Block {
	l.chainMu.RLock()
	defer l.chainMu.RUnlock()
	return l.chain[len(l.chain)-1]
}

// ChainLength returns the number of committed blocks, genesis included.
func (l *Ledger) ChainLength() int {
	l.chainMu.RLock()
	defer l.chainMu.RUnlock()
	return len(l.chain)
}

// BlockByIndex returns the committed block at the given height.
func (l *Ledger) BlockByIndex(i idx.Block) (*inter.Block, bool) {
	l.chainMu.RLock()
	defer l.chainMu.RUnlock()
	if uint64(i) >= uint64(len(l.chain)) {
		return nil, false
	}
	return l.chain[i], true
}

// Chain returns a copy of the committed block sequence.
func (l *Ledger) Chain() []*inter.Block {
	l.chainMu.RLock()
	defer l.chainMu.RUnlock()
	out := make([]*inter.Block, len(l.chain))
	copy(out, l.chain)
	return out
}

// GetAccount returns the committed account for an address. Unknown
// addresses read as a zero account.
func (l *Ledger) GetAccount(addr common.Address) Account {
	l.chainMu.RLock()
	defer l.chainMu.RUnlock()
	return l.state.GetAccount(addr)
}

// StateRoot returns the digest of the committed state.
func (l *Ledger) StateRoot() common.Hash {
	l.chainMu.RLock()
	defer l.chainMu.RUnlock()
	return l.state.Root()
}

// PendingCount returns the number of pooled transactions.
func (l *Ledger) PendingCount() int {
	l.poolMu.Lock()
	defer l.poolMu.Unlock()
	return len(l.pending)
}

// Pending returns a copy of the pooled transactions in arrival order.
func (l *Ledger) Pending() []*inter.Transaction {
	l.poolMu.Lock()
	defer l.poolMu.Unlock()
	out := make([]*inter.Transaction, len(l.pending))
	copy(out, l.pending)
	return out
}
