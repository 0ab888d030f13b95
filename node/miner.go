package node

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smvblock/go-smv/ledger"
)

// mineLoop repeatedly seals pending transactions into blocks, one
// round per MinePeriod. An empty pool skips the round; a tip moved by
// a concurrent adoption abandons the round and the transactions stay
// pooled for the next one. The proof-of-work search is cancelable, so
// shutdown never waits for a block to be found.
func (n *Node) mineLoop() {
	defer n.wg.Done()

	ticker := time.NewTicker(n.cfg.MinePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.mineOnce()
		}
	}
}

func (n *Node) mineOnce() {
	block, err := n.ledger.MinePending(n.ctx)
	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrEmptyPool):
		return
	case errors.Is(err, context.Canceled):
		return
	case errors.Is(err, ledger.ErrChainMismatch):
		n.log.WithError(err).Debug("mining round abandoned")
		return
	default:
		n.log.WithError(err).Error("mining failed")
		return
	}

	n.persist()
	n.log.WithFields(logrus.Fields{
		"index": block.Index,
		"txs":   len(block.Txs),
	}).Debug("announcing block")
	n.broadcastChain()
}
