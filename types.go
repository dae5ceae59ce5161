package rarblock

import (
	"errors"
	"fmt"
	"io"

	"github.com/javi11/rarblock/internal/parse"
	"github.com/javi11/rarblock/internal/util"
)

// HeaderType is the numeric block type tag carried by every general header.
type HeaderType uint64

// Known block types.
const (
	HeaderTypeMain HeaderType = 1
	HeaderTypeFile HeaderType = 2
	HeaderTypeEnd  HeaderType = 5
)

func (t HeaderType) String() string {
	switch t {
	case HeaderTypeMain:
		return "main"
	case HeaderTypeFile:
		return "file"
	case HeaderTypeEnd:
		return "end"
	default:
		return fmt.Sprintf("type(%d)", uint64(t))
	}
}

// General header flags.
const (
	HeaderFlagDataSize uint64 = 0x0001 // data_size vint present, data region follows the payload
)

// Main archive header flags.
const (
	ArchiveFlagVolumeNumber uint64 = 0x0001 // volume_number vint present
)

// File header flags.
const (
	FileFlagModTime uint64 = 0x0002 // 4-byte little-endian modification time present
	FileFlagCRC32   uint64 = 0x0004 // 4-byte little-endian data CRC32 present
	FileFlagSymlink uint64 = 0x0008 // name bytes double as the symlink target
)

// Sentinel errors. All of them are matchable with errors.Is through any wrapping.
var (
	ErrMalformedVint        = parse.ErrMalformedVint
	ErrInvalidEncoding      = util.ErrInvalidEncoding
	ErrUnexpectedEndOfInput = io.ErrUnexpectedEOF

	ErrUnknownBlockType  = errors.New("unknown block type")
	ErrShortSignature    = errors.New("short signature")
	ErrHeaderTooLarge    = errors.New("header size exceeds limit")
	ErrDataTooLarge      = errors.New("data size exceeds limit")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
	ErrUnsupportedMethod = errors.New("unsupported compression method")
	ErrCorruptPayload    = errors.New("corrupt payload")
)
