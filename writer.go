package rarblock

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
)

var errWriterClosed = errors.New("writer closed")

// Writer produces an archive: the signature followed by encoded blocks.
// It is not safe for concurrent use.
type Writer struct {
	w      io.Writer
	cfg    *config
	log    *slog.Logger
	ended  bool
	closed bool
}

// NewWriter writes the signature to w and returns a writer for the blocks.
func NewWriter(w io.Writer, opts ...Option) (*Writer, error) {
	cfg := newConfig(opts)
	aw := &Writer{w: w, cfg: cfg, log: cfg.logger}
	if _, err := w.Write(cfg.signature[:]); err != nil {
		return nil, fmt.Errorf("write signature: %w", err)
	}
	return aw, nil
}

// WriteBlock encodes b. Blocks that declare a data region must go through
// WriteFile so the region is actually written.
func (w *Writer) WriteBlock(b Block) error {
	if w.closed {
		return errWriterClosed
	}
	if b.Header().HasData() {
		return fmt.Errorf("write %s block: declares a data region, use WriteFile", b.Type())
	}
	if err := EncodeBlock(w.w, b); err != nil {
		return err
	}
	if b.Type() == HeaderTypeEnd {
		w.ended = true
	}
	w.log.Debug("block written", "type", b.Type().String())
	return nil
}

// WriteFile compresses content with the codec registered for fh's method and
// writes the file block followed by its data region. fh is not modified; the
// returned copy is what was written, with UnpackedSize, FileCRC32 and the data
// size filled in.
func (w *Writer) WriteFile(fh *FileHeader, content []byte) (*FileHeader, error) {
	if w.closed {
		return nil, errWriterClosed
	}
	packed, err := w.cfg.registry.Pack(content, fh.Method())
	if err != nil {
		return nil, fmt.Errorf("file %q: %w", fh.FileName, err)
	}
	out := *fh
	out.UnpackedSize = uint64(len(content))
	sum := crc32.ChecksumIEEE(content)
	out.FileCRC32 = &sum
	out.FileFlags |= FileFlagCRC32
	size := uint64(len(packed))
	out.General.HeaderFlags |= HeaderFlagDataSize
	out.General.DataSize = &size

	if err := EncodeBlock(w.w, &out); err != nil {
		return nil, err
	}
	if _, err := w.w.Write(packed); err != nil {
		return nil, fmt.Errorf("file %q: write data: %w", fh.FileName, err)
	}
	w.log.Debug("file written", "file", fh.FileName, "unpacked", len(content), "packed", size, "method", fh.Method())
	return &out, nil
}

// Close writes an end of archive block unless one was already written.
// It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	if !w.ended {
		if err := w.WriteBlock(&EndOfArchiveHeader{}); err != nil {
			return err
		}
	}
	w.closed = true
	return nil
}
