// Package cser implements a canonical split-stream serialization format.
// Values are packed minimally: integer payload bytes go into a byte
// stream, while boolean flags and byte-length prefixes go into a
// separate bit stream. Both streams are merged into a single blob whose
// decoding is strict: any non-minimal or trailing data is rejected.
// Canonical encoding is what makes the format safe to hash: equal
// values always produce equal bytes.
package cser

import (
	"github.com/smvblock/go-smv/utils/bits"
	"github.com/smvblock/go-smv/utils/fast"
)

// MarshalBinaryAdapter runs marshalCser against a fresh Writer and packs
// the resulting bit and byte streams into one blob.
func MarshalBinaryAdapter(marshalCser func(*Writer) error) ([]byte, error) {
	w := NewWriter()
	err := marshalCser(w)
	if err != nil {
		return nil, err
	}

	return binaryFromCSER(w.BitsW.Array, w.BytesW.Bytes())
}

// binaryFromCSER packs the streams as:
// [body bytes][bit-stream bytes][reversed varint length of bit-stream].
// The length suffix is reversed so a reader can decode it by scanning
// backwards from the end of the blob.
func binaryFromCSER(bbits *bits.Array, bbytes []byte) (raw []byte, err error) {
	bodyBytes := fast.NewWriter(bbytes)
	bodyBytes.Write(bbits.Bytes)

	sizeWriter := fast.NewWriter(make([]byte, 0, 4))
	writeUint64Compact(sizeWriter, uint64(len(bbits.Bytes)))
	bodyBytes.Write(reversed(sizeWriter.Bytes()))

	return bodyBytes.Bytes(), nil
}

// binaryToCSER splits a blob back into its bit and byte streams.
func binaryToCSER(raw []byte) (bbits *bits.Array, bbytes []byte, err error) {
	bitsSizeBuf := reversed(tail(raw, 9))
	bitsSizeReader := fast.NewReader(bitsSizeBuf)
	bitsSize := readUint64Compact(bitsSizeReader)
	raw = raw[:len(raw)-bitsSizeReader.Position()]

	if uint64(len(raw)) < bitsSize {
		err = ErrMalformedEncoding
		return
	}

	bbits = &bits.Array{Bytes: raw[uint64(len(raw))-bitsSize:]}
	bbytes = raw[:uint64(len(raw))-bitsSize]
	return
}

// UnmarshalBinaryAdapter splits raw and runs unmarshalCser against the
// resulting Reader. Internal reader panics on truncated input are
// converted to ErrMalformedEncoding. Decoding is strict: leftover bytes
// or non-zero trailing bits fail with ErrNonCanonicalEncoding.
func UnmarshalBinaryAdapter(raw []byte, unmarshalCser func(reader *Reader) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrMalformedEncoding
		}
	}()

	bbits, bbytes, err := binaryToCSER(raw)
	if err != nil {
		return err
	}

	bodyReader := &Reader{
		BitsR:  bits.NewReader(bbits),
		BytesR: fast.NewReader(bbytes),
	}

	err = unmarshalCser(bodyReader)
	if err != nil {
		return err
	}

	if bodyReader.BitsR.NonReadBytes() > 1 {
		return ErrNonCanonicalEncoding
	}
	tail := bodyReader.BitsR.Read(bodyReader.BitsR.NonReadBits())
	if tail != 0 {
		return ErrNonCanonicalEncoding
	}
	if !bodyReader.BytesR.Empty() {
		return ErrNonCanonicalEncoding
	}

	return nil
}

// tail returns the last max bytes of b, or all of b if shorter.
func tail(b []byte, max int) []byte {
	if len(b) > max {
		return b[len(b)-max:]
	}
	return b
}

func reversed(b []byte) []byte {
	rev := make([]byte, len(b))
	for i, v := range b {
		rev[len(b)-1-i] = v
	}
	return rev
}
