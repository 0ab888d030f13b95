package inter

import (
	"github.com/smvblock/go-smv/utils/cser"
)

// TransactionMarshalCSER serializes a transaction into the canonical
// CSER format. This is the sole wire encoding of transactions; the
// signing digest is computed over a prefix of the same layout, so the
// two can never disagree.
func TransactionMarshalCSER(w *cser.Writer, tx *Transaction) error {
	marshalTxPayload(w, tx)
	w.FixedBytes(tx.Sig[:])
	return nil
}

// TransactionUnmarshalCSER deserializes a canonical transaction.
func TransactionUnmarshalCSER(r *cser.Reader) (*Transaction, error) {
	tx := &Transaction{}
	r.FixedBytes(tx.Sender[:])
	r.FixedBytes(tx.Recipient[:])
	tx.Amount = r.U64()
	tx.Fee = r.U64()
	tx.Nonce = r.U64()
	r.FixedBytes(tx.Sig[:])
	return tx, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (t *Transaction) MarshalBinary() ([]byte, error) {
	return cser.MarshalBinaryAdapter(func(w *cser.Writer) error {
		return TransactionMarshalCSER(w, t)
	})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (t *Transaction) UnmarshalBinary(raw []byte) error {
	return cser.UnmarshalBinaryAdapter(raw, func(r *cser.Reader) error {
		tx, err := TransactionUnmarshalCSER(r)
		if err != nil {
			return err
		}
		*t = *tx
		return nil
	})
}

func marshalTxPayload(w *cser.Writer, tx *Transaction) {
	w.FixedBytes(tx.Sender[:])
	w.FixedBytes(tx.Recipient[:])
	w.U64(tx.Amount)
	w.U64(tx.Fee)
	w.U64(tx.Nonce)
}

// signedPayload returns the canonical encoding of the signature-covered
// fields.
func (t *Transaction) signedPayload() []byte {
	raw, err := cser.MarshalBinaryAdapter(func(w *cser.Writer) error {
		marshalTxPayload(w, t)
		return nil
	})
	if err != nil {
		// The callback above cannot fail; reaching here means the codec
		// itself is broken.
		panic(err)
	}
	return raw
}
