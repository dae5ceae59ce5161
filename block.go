package rarblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/javi11/rarblock/internal/parse"
)

// Block is one decoded block: a general header plus a type specific payload.
// The set of implementations is closed: *MainArchiveHeader, *FileHeader and
// *EndOfArchiveHeader.
type Block interface {
	// Type is the fixed tag of the variant, used for dispatch and written on encode.
	Type() HeaderType
	// Header returns the general header the block was decoded with.
	Header() *GeneralHeader

	encodePayload(w *payloadWriter) error
	decodePayload(r *payloadReader) error
}

// Base carries the general header shared by all block variants.
type Base struct {
	General GeneralHeader
}

// Header returns the embedded general header.
func (b *Base) Header() *GeneralHeader { return &b.General }

// defaultMaxHeaderSize mirrors the sanity limit used when indexing volumes:
// real headers are a few hundred bytes, anything over 2 MiB is treated as corrupt.
const defaultMaxHeaderSize = 2 * 1024 * 1024

var blockFactories = map[HeaderType]func() Block{
	HeaderTypeMain: func() Block { return new(MainArchiveHeader) },
	HeaderTypeFile: func() Block { return new(FileHeader) },
	HeaderTypeEnd:  func() Block { return new(EndOfArchiveHeader) },
}

// DecodeBlock decodes the payload that follows gh in r. Exactly gh.HeaderSize
// bytes are consumed from r; payload bytes the variant does not understand are
// discarded.
func DecodeBlock(gh GeneralHeader, r io.Reader) (Block, error) {
	return decodeBlock(gh, r, defaultMaxHeaderSize)
}

func decodeBlock(gh GeneralHeader, r io.Reader, maxHeaderSize uint64) (Block, error) {
	newBlock, ok := blockFactories[gh.HeaderType]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBlockType, uint64(gh.HeaderType))
	}
	if maxHeaderSize == 0 {
		maxHeaderSize = defaultMaxHeaderSize
	}
	if gh.HeaderSize > maxHeaderSize {
		return nil, fmt.Errorf("decode %s block: %w: %d > %d", gh.HeaderType, ErrHeaderTooLarge, gh.HeaderSize, maxHeaderSize)
	}
	window := make([]byte, gh.HeaderSize)
	if _, err := io.ReadFull(r, window); err != nil {
		return nil, fmt.Errorf("decode %s block: read payload size=%d: %w", gh.HeaderType, gh.HeaderSize, unexpectedEOF(err))
	}
	b := newBlock()
	*b.Header() = gh
	if err := b.decodePayload(&payloadReader{r: bytes.NewReader(window)}); err != nil {
		return nil, fmt.Errorf("decode %s block: %w", gh.HeaderType, unexpectedEOF(err))
	}
	return b, nil
}

// MarshalBlock encodes b: the payload is serialised first so the general
// header can declare its length, then header and payload are concatenated.
// b is not modified; its CRC32, HeaderSize and HeaderType are recomputed.
func MarshalBlock(b Block) ([]byte, error) {
	var pw payloadWriter
	if err := b.encodePayload(&pw); err != nil {
		return nil, fmt.Errorf("encode %s block: %w", b.Type(), err)
	}
	gh := *b.Header()
	gh.HeaderSize = uint64(pw.buf.Len())
	gh.HeaderType = b.Type()
	out := AppendGeneralHeader(make([]byte, 0, 4+4*parse.MaxVarintLen+pw.buf.Len()), gh)
	return append(out, pw.buf.Bytes()...), nil
}

// EncodeBlock writes the encoding of b to w.
func EncodeBlock(w io.Writer, b Block) error {
	buf, err := MarshalBlock(b)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write %s block: %w", b.Type(), err)
	}
	return nil
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// payloadReader decodes fields from a bounded header window.
type payloadReader struct {
	r *bytes.Reader
}

func (p *payloadReader) vint(field string) (uint64, error) {
	v, _, err := parse.ReadVarint(p.r)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}

func (p *payloadReader) uint32(field string) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(p.r, b[:]); err != nil {
		return 0, fmt.Errorf("%s: %w", field, unexpectedEOF(err))
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (p *payloadReader) bytes(field string, n uint64) ([]byte, error) {
	if n > uint64(p.r.Len()) {
		return nil, fmt.Errorf("%s: length %d exceeds remaining %d: %w", field, n, p.r.Len(), io.ErrUnexpectedEOF)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(p.r, b); err != nil {
		return nil, fmt.Errorf("%s: %w", field, unexpectedEOF(err))
	}
	return b, nil
}

// payloadWriter accumulates an encoded payload.
type payloadWriter struct {
	buf bytes.Buffer
}

func (p *payloadWriter) vint(v uint64) {
	var b [parse.MaxVarintLen]byte
	p.buf.Write(parse.AppendVarint(b[:0], v))
}

func (p *payloadWriter) uint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	p.buf.Write(b[:])
}

func (p *payloadWriter) bytes(b []byte) { p.buf.Write(b) }
