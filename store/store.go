// Package store persists the committed block sequence in a key-value
// database. The store is a dumb collaborator: it round-trips blocks
// losslessly and keeps a head pointer, while all trust decisions
// (hash recomputation, replay) stay in the ledger, which re-validates
// a loaded chain the same way it validates one received from a peer.
package store

import (
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/Fantom-foundation/lachesis-base/kvdb"
	"github.com/Fantom-foundation/lachesis-base/kvdb/memorydb"
	"github.com/Fantom-foundation/lachesis-base/kvdb/table"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/sirupsen/logrus"

	"github.com/smvblock/go-smv/inter"
)

var headKey = []byte("head")

// Store wraps a kvdb database with the chain's table layout.
type Store struct {
	db  kvdb.Store
	log *logrus.Logger

	table struct {
		Blocks kvdb.Store `table:"b"`
		Chain  kvdb.Store `table:"c"`
	}
}

// NewStore opens the chain tables over an existing database.
func NewStore(db kvdb.Store, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.New()
	}
	s := &Store{
		db:  db,
		log: log,
	}
	table.MigrateTables(&s.table, db)
	return s
}

// NewMemStore returns a Store over a throwaway in-memory database.
func NewMemStore() *Store {
	return NewStore(memorydb.New(), nil)
}

// Close flushes and releases the underlying database.
func (s *Store) Close() error {
	table.MigrateTables(&s.table, nil)
	return s.db.Close()
}

// SetBlock writes one block at its height.
func (s *Store) SetBlock(b *inter.Block) error {
	buf, err := rlp.EncodeToBytes(b)
	if err != nil {
		return fmt.Errorf("failed to encode block %d: %w", b.Index, err)
	}
	return s.table.Blocks.Put(blockKey(b.Index), buf)
}

// GetBlock reads the block at a height, or nil if absent.
func (s *Store) GetBlock(i idx.Block) (*inter.Block, error) {
	buf, err := s.table.Blocks.Get(blockKey(i))
	if err != nil {
		return nil, err
	}
	if buf == nil {
		return nil, nil
	}
	b := &inter.Block{}
	if err := rlp.DecodeBytes(buf, b); err != nil {
		return nil, fmt.Errorf("failed to decode block %d: %w", i, err)
	}
	return b, nil
}

// SetHead records the height of the chain tip.
func (s *Store) SetHead(i idx.Block) error {
	buf, err := rlp.EncodeToBytes(uint64(i))
	if err != nil {
		return err
	}
	return s.table.Chain.Put(headKey, buf)
}

// GetHead returns the recorded tip height. ok is false on a fresh
// database.
func (s *Store) GetHead() (i idx.Block, ok bool, err error) {
	buf, err := s.table.Chain.Get(headKey)
	if err != nil || buf == nil {
		return 0, false, err
	}
	var head uint64
	if err := rlp.DecodeBytes(buf, &head); err != nil {
		return 0, false, err
	}
	return idx.Block(head), true, nil
}

// SaveChain writes the whole block sequence and moves the head pointer,
// blocks first so a crash mid-write never leaves the head dangling.
func (s *Store) SaveChain(blocks []*inter.Block) error {
	if len(blocks) == 0 {
		return nil
	}
	for _, b := range blocks {
		if err := s.SetBlock(b); err != nil {
			return err
		}
	}
	return s.SetHead(blocks[len(blocks)-1].Index)
}

// LoadChain reads the stored block sequence from genesis to head.
// A fresh database yields nil. The caller must treat the result as
// untrusted input and replay it before adopting.
func (s *Store) LoadChain() ([]*inter.Block, error) {
	head, ok, err := s.GetHead()
	if err != nil || !ok {
		return nil, err
	}
	blocks := make([]*inter.Block, 0, uint64(head)+1)
	for i := idx.Block(0); i <= head; i++ {
		b, err := s.GetBlock(i)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, fmt.Errorf("chain storage has a gap at height %d", i)
		}
		blocks = append(blocks, b)
	}
	s.log.WithField("blocks", len(blocks)).Info("chain loaded from db")
	return blocks, nil
}

func blockKey(i idx.Block) []byte {
	key := make([]byte, 8)
	for pos := 0; pos < 8; pos++ {
		key[pos] = byte(uint64(i) >> (56 - 8*pos))
	}
	return key
}
