package cser

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func roundtrip(t *testing.T, write func(*Writer) error, read func(*Reader) error) {
	t.Helper()
	buf, err := MarshalBinaryAdapter(write)
	require.NoError(t, err)
	require.NoError(t, UnmarshalBinaryAdapter(buf, read))
}

func TestIntegers(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	vals64 := []uint64{0, 1, 0xff, 0x100, math.MaxUint32, math.MaxUint64}
	for i := 0; i < 100; i++ {
		vals64 = append(vals64, r.Uint64()>>uint(r.Intn(64)))
	}

	roundtrip(t,
		func(w *Writer) error {
			for _, v := range vals64 {
				w.U64(v)
				w.U32(uint32(v))
				w.U8(uint8(v))
				w.U56(v & (1<<56 - 1))
			}
			return nil
		},
		func(rd *Reader) error {
			for _, v := range vals64 {
				require.Equal(t, v, rd.U64())
				require.Equal(t, uint32(v), rd.U32())
				require.Equal(t, uint8(v), rd.U8())
				require.Equal(t, v&(1<<56-1), rd.U56())
			}
			return nil
		})
}

func TestBoolsAndBytes(t *testing.T) {
	payload := []byte("pending transactions ordered by arrival")
	var fixed [32]byte
	copy(fixed[:], payload)

	roundtrip(t,
		func(w *Writer) error {
			w.Bool(true)
			w.Bool(false)
			w.FixedBytes(fixed[:])
			w.SliceBytes(payload)
			w.SliceBytes(nil)
			return nil
		},
		func(rd *Reader) error {
			require.True(t, rd.Bool())
			require.False(t, rd.Bool())
			var got [32]byte
			rd.FixedBytes(got[:])
			require.Equal(t, fixed, got)
			require.Equal(t, payload, rd.SliceBytes(MaxAlloc))
			require.Empty(t, rd.SliceBytes(MaxAlloc))
			return nil
		})
}

func TestSliceBytesAllocLimit(t *testing.T) {
	buf, err := MarshalBinaryAdapter(func(w *Writer) error {
		w.SliceBytes(make([]byte, 100))
		return nil
	})
	require.NoError(t, err)

	// The oversized length panics inside the reader; the adapter turns
	// that into a decoding error instead of crashing the caller.
	err = UnmarshalBinaryAdapter(buf, func(r *Reader) error {
		_ = r.SliceBytes(10)
		return nil
	})
	require.ErrorIs(t, err, ErrMalformedEncoding)
}

func TestNonCanonicalTrailingData(t *testing.T) {
	buf, err := MarshalBinaryAdapter(func(w *Writer) error {
		w.U64(42)
		w.U64(43)
		return nil
	})
	require.NoError(t, err)

	// Reading fewer values than were written must fail strict decoding.
	err = UnmarshalBinaryAdapter(buf, func(r *Reader) error {
		require.Equal(t, uint64(42), r.U64())
		return nil
	})
	require.Equal(t, ErrNonCanonicalEncoding, err)
}
