// Package bits implements a bit-level stream over a byte slice. It backs
// the canonical codec in utils/cser, which stores boolean flags and
// small length prefixes out-of-band from the byte stream.
package bits

type (
	// Array is the backing storage of a bitstream.
	Array struct {
		Bytes []byte
	}

	// Writer appends bits to an Array, least significant bit first
	// within each byte.
	Writer struct {
		*Array
		bitOffset int // next bit to write within the last byte, 0-7
	}

	// Reader consumes bits from an Array in write order.
	Reader struct {
		*Array
		byteOffset int
		bitOffset  int
	}
)

// NewWriter creates a bitstream writer over arr.
func NewWriter(arr *Array) *Writer {
	return &Writer{
		Array: arr,
	}
}

// NewReader creates a bitstream reader over arr.
func NewReader(arr *Array) *Reader {
	return &Reader{
		Array: arr,
	}
}

func (a *Writer) byteBitsFree() int {
	return 8 - a.bitOffset
}

func (a *Writer) writeIntoLastByte(v uint) {
	a.Bytes[len(a.Bytes)-1] |= byte(v << a.bitOffset)
}

// zeroTopByteBits masks v so only the bits that fit before the byte
// boundary survive.
func zeroTopByteBits(v uint, bits int) uint {
	mask := uint(0xff) >> bits
	return v & mask
}

// Write appends the lowest bits of v to the stream.
func (a *Writer) Write(bits int, v uint) {
	if a.bitOffset == 0 {
		a.Bytes = append(a.Bytes, byte(0))
	}

	free := a.byteBitsFree()
	if bits <= free {
		a.writeIntoLastByte(v)
		if bits == free {
			a.bitOffset = 0
		} else {
			a.bitOffset += bits
		}
		return
	}

	// The value spills over the byte boundary. Fill the current byte,
	// then recurse for the remainder.
	toWrite := free
	a.writeIntoLastByte(zeroTopByteBits(v, a.bitOffset))
	a.bitOffset = 0
	a.Write(bits-toWrite, v>>toWrite)
}

func (a *Reader) byteBitsFree() int {
	return 8 - a.bitOffset
}

// Read consumes the next bits of the stream and returns them as an
// integer. Panics if the stream is exhausted.
func (a *Reader) Read(bits int) (v uint) {
	if bits == 0 {
		return 0
	}

	free := a.byteBitsFree()
	if bits <= free {
		clear := 8 - (a.bitOffset + bits)
		v = zeroTopByteBits(uint(a.Bytes[a.byteOffset]), clear) >> a.bitOffset
		if bits == free {
			a.bitOffset = 0
			a.byteOffset++
		} else {
			a.bitOffset += bits
		}
		return v
	}

	// Spans two or more bytes: take what's left here, recurse for the rest.
	toRead := free
	v = uint(a.Bytes[a.byteOffset]) >> a.bitOffset
	a.bitOffset = 0
	a.byteOffset++
	rest := a.Read(bits - toRead)
	v |= rest << toRead
	return v
}

// View peeks at the next bits without advancing the cursor.
func (a *Reader) View(bits int) (v uint) {
	cp := *a
	return (&cp).Read(bits)
}

// NonReadBytes returns the number of bytes not yet fully consumed.
func (a *Reader) NonReadBytes() int {
	return len(a.Bytes) - a.byteOffset
}

// NonReadBits returns the number of bits not yet consumed.
func (a *Reader) NonReadBits() int {
	return a.NonReadBytes()*8 - a.bitOffset
}
