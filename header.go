package rarblock

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/javi11/rarblock/internal/parse"
)

// RAR5 general block layout as handled here:
//
//	CRC32(4 LE) | HEAD_SIZE(vint) | HEAD_TYPE(vint) | HEAD_FLAGS(vint) | [DATA_SIZE(vint)] | payload[HEAD_SIZE] | [data[DATA_SIZE]]
//
// HEAD_SIZE counts only the type specific payload. The CRC covers the vint fields
// between the CRC and the payload. DATA_SIZE is present iff HEAD_FLAGS bit 0 is set.

// GeneralHeader is the envelope that precedes every block payload.
type GeneralHeader struct {
	CRC32       uint32
	HeaderSize  uint64
	HeaderType  HeaderType
	HeaderFlags uint64
	DataSize    *uint64 // set iff HeaderFlags&HeaderFlagDataSize != 0
}

// HasData reports whether a data region follows the payload.
func (h GeneralHeader) HasData() bool { return h.HeaderFlags&HeaderFlagDataSize != 0 }

// DataLen returns the declared data region length, 0 when there is none.
func (h GeneralHeader) DataLen() uint64 {
	if !h.HasData() || h.DataSize == nil {
		return 0
	}
	return *h.DataSize
}

// byteReader is what header decoding needs from a source: bulk reads for fixed
// width fields and byte reads for vints.
type byteReader interface {
	io.Reader
	io.ByteReader
}

// recordingReader keeps a copy of every byte read through ReadByte so the
// checksummed region can be verified exactly as it appeared on the wire.
type recordingReader struct {
	byteReader
	buf []byte
}

func (r *recordingReader) ReadByte() (byte, error) {
	b, err := r.byteReader.ReadByte()
	if err == nil {
		r.buf = append(r.buf, b)
	}
	return b, err
}

// ReadGeneralHeader decodes one general header. It returns io.EOF, unwrapped,
// only when the source is exhausted before the first CRC byte; running out of
// input anywhere later is io.ErrUnexpectedEOF.
func ReadGeneralHeader(r byteReader) (GeneralHeader, error) {
	h, _, err := readGeneralHeader(r)
	return h, err
}

// readGeneralHeader also returns the raw bytes the CRC was computed over.
func readGeneralHeader(r byteReader) (GeneralHeader, []byte, error) {
	var h GeneralHeader
	var crc [4]byte
	if _, err := io.ReadFull(r, crc[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return h, nil, io.EOF
		}
		return h, nil, fmt.Errorf("read block crc: %w", err)
	}
	h.CRC32 = binary.LittleEndian.Uint32(crc[:])

	rec := &recordingReader{byteReader: r, buf: make([]byte, 0, 4*parse.MaxVarintLen)}
	var err error
	if h.HeaderSize, _, err = parse.ReadVarint(rec); err != nil {
		return h, nil, fmt.Errorf("read header size: %w", err)
	}
	typ, _, err := parse.ReadVarint(rec)
	if err != nil {
		return h, nil, fmt.Errorf("read header type: %w", err)
	}
	h.HeaderType = HeaderType(typ)
	if h.HeaderFlags, _, err = parse.ReadVarint(rec); err != nil {
		return h, nil, fmt.Errorf("read header flags: %w", err)
	}
	if h.HasData() {
		ds, _, err := parse.ReadVarint(rec)
		if err != nil {
			return h, nil, fmt.Errorf("read data size: %w", err)
		}
		h.DataSize = &ds
	}
	return h, rec.buf, nil
}

// appendHeaderFields appends the checksummed vint fields of h to dst.
func appendHeaderFields(dst []byte, h GeneralHeader) []byte {
	dst = parse.AppendVarint(dst, h.HeaderSize)
	dst = parse.AppendVarint(dst, uint64(h.HeaderType))
	dst = parse.AppendVarint(dst, h.HeaderFlags)
	if h.HasData() {
		dst = parse.AppendVarint(dst, h.DataLen())
	}
	return dst
}

// ComputeCRC returns the CRC-32 (IEEE) over the canonical encoding of the
// header fields. The CRC32 field of h is not an input.
func (h GeneralHeader) ComputeCRC() uint32 {
	return crc32.ChecksumIEEE(appendHeaderFields(nil, h))
}

// AppendGeneralHeader appends the wire form of h to dst. The stored CRC is
// always recomputed from the other fields; h.CRC32 is ignored.
func AppendGeneralHeader(dst []byte, h GeneralHeader) []byte {
	var scratch [4 * parse.MaxVarintLen]byte
	fields := appendHeaderFields(scratch[:0], h)
	dst = binary.LittleEndian.AppendUint32(dst, crc32.ChecksumIEEE(fields))
	return append(dst, fields...)
}

// WriteGeneralHeader writes the wire form of h to w.
func WriteGeneralHeader(w io.Writer, h GeneralHeader) error {
	if _, err := w.Write(AppendGeneralHeader(nil, h)); err != nil {
		return fmt.Errorf("write general header: %w", err)
	}
	return nil
}
