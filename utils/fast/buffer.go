// Package fast implements minimal byte buffer helpers for linear
// serialization. Unlike bytes.Buffer, readers perform no bounds checking
// and panic on overruns; callers are trusted serialization code that
// recovers the panic at the codec boundary.
package fast

// Reader consumes a byte slice from front to back.
type Reader struct {
	buf    []byte
	offset int
}

// Writer appends to an underlying byte slice.
type Writer struct {
	buf []byte
}

// NewReader wraps bb for reading.
func NewReader(bb []byte) *Reader {
	return &Reader{
		buf: bb,
	}
}

// NewWriter wraps bb for appending. Pass make([]byte, 0, n) to pre-allocate.
func NewWriter(bb []byte) *Writer {
	return &Writer{
		buf: bb,
	}
}

// WriteByte appends a single byte.
func (b *Writer) WriteByte(v byte) {
	b.buf = append(b.buf, v)
}

// Write appends a byte slice.
func (b *Writer) Write(v []byte) {
	b.buf = append(b.buf, v...)
}

// Bytes returns the accumulated content.
func (b *Writer) Bytes() []byte {
	return b.buf
}

// Read consumes the next n bytes. The returned slice aliases the
// underlying buffer. Panics if fewer than n bytes remain.
func (b *Reader) Read(n int) []byte {
	res := b.buf[b.offset : b.offset+n]
	b.offset += n
	return res
}

// ReadByte consumes a single byte. Panics if the buffer is exhausted.
func (b *Reader) ReadByte() byte {
	res := b.buf[b.offset]
	b.offset++
	return res
}

// Position returns the number of consumed bytes.
func (b *Reader) Position() int {
	return b.offset
}

// Bytes returns the whole underlying buffer.
func (b *Reader) Bytes() []byte {
	return b.buf
}

// Empty reports whether all bytes have been consumed.
func (b *Reader) Empty() bool {
	return len(b.buf) == b.offset
}
