package fast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterReader(t *testing.T) {
	require := require.New(t)

	w := NewWriter(make([]byte, 0, 16))
	w.WriteByte(0x01)
	w.Write([]byte{0x02, 0x03, 0x04})
	w.WriteByte(0x05)

	r := NewReader(w.Bytes())
	require.False(r.Empty())
	require.Equal(byte(0x01), r.ReadByte())
	require.Equal([]byte{0x02, 0x03, 0x04}, r.Read(3))
	require.Equal(4, r.Position())
	require.Equal(byte(0x05), r.ReadByte())
	require.True(r.Empty())
	require.Equal(w.Bytes(), r.Bytes())
}

func TestReaderOverrunPanics(t *testing.T) {
	r := NewReader([]byte{0x01})
	_ = r.ReadByte()
	require.Panics(t, func() {
		_ = r.ReadByte()
	})
	require.Panics(t, func() {
		_ = NewReader([]byte{0x01}).Read(2)
	})
}
