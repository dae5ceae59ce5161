package rarblock

import (
	"github.com/javi11/rarblock/internal/util"
)

// FileHeader describes one archived file (block type 2). Its packed content,
// if any, is the data region declared by the general header.
type FileHeader struct {
	Base
	FileFlags        uint64
	UnpackedSize     uint64
	FileAttributes   uint64
	ModificationTime *uint32 // set iff FileFlags&FileFlagModTime != 0
	FileCRC32        *uint32 // set iff FileFlags&FileFlagCRC32 != 0
	CompressionInfo  uint64
	FileName         string
	SymlinkTarget    *string // set iff FileFlags&FileFlagSymlink != 0, same bytes as FileName
}

func (*FileHeader) Type() HeaderType { return HeaderTypeFile }

// IsSymlink reports whether the name doubles as a symlink target.
func (h *FileHeader) IsSymlink() bool { return h.FileFlags&FileFlagSymlink != 0 }

// Method returns the compression method code carried in CompressionInfo.
func (h *FileHeader) Method() uint64 { return CompressionMethod(h.CompressionInfo) }

// Stored reports whether the data region holds the file content verbatim.
func (h *FileHeader) Stored() bool { return h.Method() == MethodStore }

// Payload order: flags, unpacked size, attributes, [mtime], [crc32],
// compression info, name length, name.

func (h *FileHeader) encodePayload(w *payloadWriter) error {
	name, err := util.EncodeName(h.FileName)
	if err != nil {
		return err
	}
	w.vint(h.FileFlags)
	w.vint(h.UnpackedSize)
	w.vint(h.FileAttributes)
	if h.FileFlags&FileFlagModTime != 0 {
		w.uint32(deref(h.ModificationTime))
	}
	if h.FileFlags&FileFlagCRC32 != 0 {
		w.uint32(deref(h.FileCRC32))
	}
	w.vint(h.CompressionInfo)
	w.vint(uint64(len(name)))
	w.bytes(name)
	return nil
}

func (h *FileHeader) decodePayload(r *payloadReader) error {
	var err error
	if h.FileFlags, err = r.vint("file flags"); err != nil {
		return err
	}
	if h.UnpackedSize, err = r.vint("unpacked size"); err != nil {
		return err
	}
	if h.FileAttributes, err = r.vint("file attributes"); err != nil {
		return err
	}
	if h.FileFlags&FileFlagModTime != 0 {
		mtime, err := r.uint32("mtime")
		if err != nil {
			return err
		}
		h.ModificationTime = &mtime
	}
	if h.FileFlags&FileFlagCRC32 != 0 {
		crc, err := r.uint32("crc32")
		if err != nil {
			return err
		}
		h.FileCRC32 = &crc
	}
	if h.CompressionInfo, err = r.vint("compression info"); err != nil {
		return err
	}
	nameLen, err := r.vint("name length")
	if err != nil {
		return err
	}
	raw, err := r.bytes("name", nameLen)
	if err != nil {
		return err
	}
	if h.FileName, err = util.DecodeName(raw); err != nil {
		return err
	}
	if h.IsSymlink() {
		target := h.FileName
		h.SymlinkTarget = &target
	}
	return nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
