package inter

import (
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"

	"github.com/smvblock/go-smv/utils/cser"
)

// maxBlockTxs bounds the transaction count accepted from untrusted
// block encodings.
const maxBlockTxs = 1 << 16

// BlockMarshalCSER serializes a sealed block, cached hash included.
func BlockMarshalCSER(w *cser.Writer, b *Block) error {
	marshalBlockHeader(w, b)
	w.FixedBytes(b.Hash[:])
	return nil
}

// BlockUnmarshalCSER deserializes a block. The cached hash is carried
// as-is; callers must verify it via CalcHash before trusting the block.
func BlockUnmarshalCSER(r *cser.Reader) (*Block, error) {
	b := &Block{}
	b.Index = readBlockIndex(r)
	r.FixedBytes(b.PrevHash[:])
	b.Time = Timestamp(r.U64())
	txCount := r.U32()
	if txCount > maxBlockTxs {
		return nil, cser.ErrTooLargeAlloc
	}
	b.Txs = make([]*Transaction, txCount)
	for i := range b.Txs {
		tx, err := TransactionUnmarshalCSER(r)
		if err != nil {
			return nil, err
		}
		b.Txs[i] = tx
	}
	b.Nonce = r.U64()
	r.FixedBytes(b.Hash[:])
	return b, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (b *Block) MarshalBinary() ([]byte, error) {
	return cser.MarshalBinaryAdapter(func(w *cser.Writer) error {
		return BlockMarshalCSER(w, b)
	})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (b *Block) UnmarshalBinary(raw []byte) error {
	return cser.UnmarshalBinaryAdapter(raw, func(r *cser.Reader) error {
		decoded, err := BlockUnmarshalCSER(r)
		if err != nil {
			return err
		}
		*b = *decoded
		return nil
	})
}

func marshalBlockHeader(w *cser.Writer, b *Block) {
	writeBlockIndex(w, b.Index)
	w.FixedBytes(b.PrevHash[:])
	w.U64(uint64(b.Time))
	w.U32(uint32(len(b.Txs)))
	for _, tx := range b.Txs {
		_ = TransactionMarshalCSER(w, tx)
	}
	w.U64(b.Nonce)
}

// headerPayload returns the canonical bytes the block hash is computed
// over: every field except the cached hash itself, with the transaction
// list committed through root (see TxsRoot).
func (b *Block) headerPayload(root common.Hash) []byte {
	raw, err := cser.MarshalBinaryAdapter(func(w *cser.Writer) error {
		writeBlockIndex(w, b.Index)
		w.FixedBytes(b.PrevHash[:])
		w.U64(uint64(b.Time))
		w.FixedBytes(root[:])
		w.U64(b.Nonce)
		return nil
	})
	if err != nil {
		panic(err)
	}
	return raw
}

func writeBlockIndex(w *cser.Writer, i idx.Block) {
	w.U64(uint64(i))
}

func readBlockIndex(r *cser.Reader) idx.Block {
	return idx.Block(r.U64())
}
