package cser

import (
	"errors"

	"github.com/smvblock/go-smv/utils/bits"
	"github.com/smvblock/go-smv/utils/fast"
)

var (
	// ErrNonCanonicalEncoding is returned when data is not packed
	// minimally or unused trailing bits are non-zero.
	ErrNonCanonicalEncoding = errors.New("non canonical encoding")
	// ErrMalformedEncoding is returned when the structure is invalid or
	// truncated.
	ErrMalformedEncoding = errors.New("malformed encoding")
	// ErrTooLargeAlloc is returned when a decoded size exceeds limits.
	ErrTooLargeAlloc = errors.New("too large allocation")
)

// MaxAlloc limits decoded byte slices to prevent OOM on malicious input.
const MaxAlloc = 100 * 1024

// Writer serializes values into separate bit and byte streams.
type Writer struct {
	BitsW  *bits.Writer
	BytesW *fast.Writer
}

// Reader deserializes values written by Writer.
type Reader struct {
	BitsR  *bits.Reader
	BytesR *fast.Reader
}

// NewWriter creates a ready-to-use CSER writer.
func NewWriter() *Writer {
	bbits := &bits.Array{Bytes: make([]byte, 0, 32)}
	bbytes := make([]byte, 0, 200)
	return &Writer{
		BitsW:  bits.NewWriter(bbits),
		BytesW: fast.NewWriter(bbytes),
	}
}

// writeUint64Compact encodes v as a varint with 7 data bits per byte.
// The MSB marks the FINAL byte (reverse of protobuf), which lets the
// blob-length suffix be decoded backwards.
func writeUint64Compact(bytesW *fast.Writer, v uint64) {
	for {
		chunk := v & 0x7f
		v = v >> 7
		if v == 0 {
			chunk |= 0x80
		}
		bytesW.WriteByte(byte(chunk))
		if v == 0 {
			break
		}
	}
}

// readUint64Compact decodes the stop-bit varint, enforcing minimal form.
func readUint64Compact(bytesR *fast.Reader) uint64 {
	v := uint64(0)
	stop := false
	for i := 0; !stop; i++ {
		chunk := uint64(bytesR.ReadByte())
		stop = (chunk & 0x80) != 0
		word := chunk & 0x7f
		v |= word << (i * 7)

		// A zero most significant word means the value was padded.
		if i > 0 && stop && word == 0 {
			panic(ErrNonCanonicalEncoding)
		}
	}
	return v
}

// writeUint64BitCompact writes v little-endian using the minimal number
// of bytes, but at least minSize. Returns the number of bytes written.
func writeUint64BitCompact(bytesW *fast.Writer, v uint64, minSize int) (size int) {
	for size < minSize || v != 0 {
		bytesW.WriteByte(byte(v))
		size++
		v = v >> 8
	}
	return
}

// readUint64BitCompact reads size little-endian bytes, enforcing that
// the most significant byte is non-zero (minimal form).
func readUint64BitCompact(bytesR *fast.Reader, size int) uint64 {
	var (
		v    uint64
		last byte
	)
	buf := bytesR.Read(size)
	for i, b := range buf {
		v |= uint64(b) << uint(8*i)
		last = b
	}
	if size > 1 && last == 0 {
		panic(ErrNonCanonicalEncoding)
	}

	return v
}

// readU64_bits reads a byte count from the bit stream, then that many
// payload bytes from the byte stream.
func (r *Reader) readU64_bits(minSize int, bitsForSize int) uint64 {
	size := r.BitsR.Read(bitsForSize)
	size += uint(minSize)
	return readUint64BitCompact(r.BytesR, int(size))
}

// writeU64_bits writes the payload bytes, then records the byte count in
// the bit stream.
func (w *Writer) writeU64_bits(minSize int, bitsForSize int, v uint64) {
	size := writeUint64BitCompact(w.BytesW, v, minSize)
	w.BitsW.Write(bitsForSize, uint(size-minSize))
}

// U8 writes a raw byte, no length prefix.
func (w *Writer) U8(v uint8) {
	w.BytesW.WriteByte(v)
}

// U8 reads a raw byte.
func (r *Reader) U8() uint8 {
	return r.BytesR.ReadByte()
}

// U32 writes a uint32 in 1-4 bytes, with a 2-bit length prefix.
func (w *Writer) U32(v uint32) {
	w.writeU64_bits(1, 2, uint64(v))
}

// U32 reads a uint32.
func (r *Reader) U32() uint32 {
	v64 := r.readU64_bits(1, 2)
	return uint32(v64)
}

// U64 writes a uint64 in 1-8 bytes, with a 3-bit length prefix.
func (w *Writer) U64(v uint64) {
	w.writeU64_bits(1, 3, v)
}

// U64 reads a uint64.
func (r *Reader) U64() uint64 {
	return r.readU64_bits(1, 3)
}

// U56 writes an integer of up to 7 bytes in 0-7 bytes. Used for slice
// lengths, where zero is the common case.
func (w *Writer) U56(v uint64) {
	const max = 1<<(8*7) - 1
	if v > max {
		panic("cser: U56 value out of range")
	}
	w.writeU64_bits(0, 3, v)
}

// U56 reads a length integer.
func (r *Reader) U56() uint64 {
	return r.readU64_bits(0, 3)
}

// Bool writes a single bit.
func (w *Writer) Bool(v bool) {
	u8 := uint(0)
	if v {
		u8 = 1
	}
	w.BitsW.Write(1, u8)
}

// Bool reads a single bit.
func (r *Reader) Bool() bool {
	u8 := r.BitsR.Read(1)
	return u8 != 0
}

// FixedBytes writes raw bytes with no length prefix; the reader must
// know the size.
func (w *Writer) FixedBytes(v []byte) {
	w.BytesW.Write(v)
}

// FixedBytes fills v with the next len(v) bytes.
func (r *Reader) FixedBytes(v []byte) {
	buf := r.BytesR.Read(len(v))
	copy(v, buf)
}

// SliceBytes writes a length-prefixed byte slice.
func (w *Writer) SliceBytes(v []byte) {
	w.U56(uint64(len(v)))
	w.FixedBytes(v)
}

// SliceBytes reads a length-prefixed byte slice of at most maxLen bytes.
func (r *Reader) SliceBytes(maxLen int) []byte {
	size := r.U56()
	if size > uint64(maxLen) {
		panic(ErrTooLargeAlloc)
	}
	buf := make([]byte, size)
	r.FixedBytes(buf)
	return buf
}
