package parse

import (
	"errors"
	"io"
)

// MaxVarintLen is the longest encoding accepted for a 64-bit value.
const MaxVarintLen = 10

// ErrMalformedVint is returned when a varint does not terminate within MaxVarintLen bytes.
var ErrMalformedVint = errors.New("malformed vint")

// ReadVarintFromSlice reads a RAR5 varint from a byte slice.
func ReadVarintFromSlice(b []byte) (uint64, int64, error) {
	var val uint64
	var n int64
	for i := 0; i < len(b) && i < MaxVarintLen; i++ {
		c := b[i]
		val |= uint64(c&0x7F) << (7 * i)
		n++
		if c&0x80 == 0 {
			return val, n, nil
		}
	}
	if n == MaxVarintLen {
		return 0, n, ErrMalformedVint
	}
	return 0, n, io.ErrUnexpectedEOF
}

// ReadVarint reads RAR5 variable-length integer directly from reader.
// Running out of input at any point, including before the first byte, is
// reported as io.ErrUnexpectedEOF.
func ReadVarint(br io.ByteReader) (value uint64, n int64, err error) {
	for i := 0; i < MaxVarintLen; i++ {
		b, e := br.ReadByte()
		if e != nil {
			if errors.Is(e, io.EOF) {
				e = io.ErrUnexpectedEOF
			}
			err = e
			return
		}
		value |= uint64(b&0x7f) << (7 * i)
		n++
		if b&0x80 == 0 {
			return
		}
	}
	err = ErrMalformedVint
	return
}

// AppendVarint appends the encoding of v to dst, low-order group first.
func AppendVarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// WriteVarint writes the encoding of v to w and returns the number of bytes written.
func WriteVarint(w io.Writer, v uint64) (int, error) {
	var buf [MaxVarintLen]byte
	return w.Write(AppendVarint(buf[:0], v))
}

// VarintLen returns the number of bytes AppendVarint emits for v.
func VarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
