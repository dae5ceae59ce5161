package rarblock

import (
	"bufio"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"iter"
	"log/slog"
	"math"
)

// Reader walks the blocks of an archive one at a time. It is not safe for
// concurrent use.
//
// The only state carried between calls is the length of the data region that
// follows the most recent block. Next skips it if the caller did not consume it
// through ReadFileData, so the cursor is always at a block boundary.
type Reader struct {
	src     *countingReader
	cfg     *config
	log     *slog.Logger
	sig     [SignatureSize]byte
	pending uint64      // unread data region bytes of the last block
	last    *FileHeader // last file block returned, while its data is pending
	err     error       // sticky
	done    bool
}

// NewReader consumes the signature from r and returns a reader positioned at
// the first block. The signature is only checked for length; see DetectVersion.
// If r is not an io.ByteReader it is wrapped in a bufio.Reader, which may read
// ahead of the last block returned.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	cfg := newConfig(opts)
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	ar := &Reader{src: &countingReader{r: br}, cfg: cfg, log: cfg.logger}
	if _, err := io.ReadFull(ar.src, ar.sig[:]); err != nil {
		return nil, fmt.Errorf("read signature: %w: %w", ErrShortSignature, unexpectedEOF(err))
	}
	ar.log.Debug("signature consumed", "version", DetectVersion(ar.sig[:]))
	return ar, nil
}

// Signature returns the 8 bytes consumed by NewReader.
func (r *Reader) Signature() [SignatureSize]byte { return r.sig }

// Offset returns the number of bytes consumed from the source so far.
func (r *Reader) Offset() int64 { return r.src.n }

// Next returns the next block. At the end of the archive it returns io.EOF;
// the end is only recognised at a block boundary, running out of input inside
// a block is an error. Errors are sticky: once Next fails it keeps failing.
func (r *Reader) Next() (Block, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.done {
		return nil, io.EOF
	}
	if err := r.skipPending(); err != nil {
		return nil, r.fail(err)
	}

	hdrStart := r.src.n
	gh, raw, err := readGeneralHeader(r.src)
	if err != nil {
		if errors.Is(err, io.EOF) {
			r.done = true
			r.log.Debug("end of stream", "offset", hdrStart)
			return nil, io.EOF
		}
		return nil, r.fail(fmt.Errorf("general header at %d: %w", hdrStart, err))
	}
	if r.cfg.verifyChecksums {
		if sum := crc32.ChecksumIEEE(raw); sum != gh.CRC32 {
			return nil, r.fail(fmt.Errorf("general header at %d: %w: stored %#08x computed %#08x", hdrStart, ErrChecksumMismatch, gh.CRC32, sum))
		}
	}
	r.pending = gh.DataLen()

	b, err := decodeBlock(gh, r.src, r.cfg.maxHeaderSize)
	if err != nil {
		return nil, r.fail(fmt.Errorf("block at %d: %w", hdrStart, err))
	}
	if fh, ok := b.(*FileHeader); ok && r.pending > 0 {
		r.last = fh
	}
	r.log.Debug("block decoded",
		"offset", hdrStart,
		"type", gh.HeaderType.String(),
		"flags", gh.HeaderFlags,
		"header_size", gh.HeaderSize,
		"data_size", r.pending)
	return b, nil
}

// Blocks returns an iterator over the remaining blocks. Iteration stops after
// the first error, which is yielded with a nil block.
func (r *Reader) Blocks() iter.Seq2[Block, error] {
	return func(yield func(Block, error) bool) {
		for {
			b, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(b, err) || err != nil {
				return
			}
		}
	}
}

// ReadFileData reads the data region of fh and returns it transformed by the
// codec registered for fh's compression method. fh must be the block most
// recently returned by Next; for any other header, or when there is no data
// region left to read, it returns an empty slice and no error.
func (r *Reader) ReadFileData(fh *FileHeader) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	if fh == nil || fh != r.last || r.pending == 0 {
		return []byte{}, nil
	}
	n := r.pending
	if n > r.cfg.maxDataSize {
		return nil, fmt.Errorf("file %q: %w: %d > %d", fh.FileName, ErrDataTooLarge, n, r.cfg.maxDataSize)
	}
	start := r.src.n
	packed := make([]byte, n)
	if _, err := io.ReadFull(r.src, packed); err != nil {
		return nil, r.fail(fmt.Errorf("file %q: read data at %d: %w", fh.FileName, start, unexpectedEOF(err)))
	}
	r.pending = 0
	r.last = nil
	r.log.Debug("data read", "file", fh.FileName, "offset", start, "size", n, "method", fh.Method())

	out, err := r.cfg.registry.Transform(packed, fh.Method())
	if err != nil {
		return nil, fmt.Errorf("file %q: %w", fh.FileName, err)
	}
	if r.cfg.verifyChecksums && fh.FileCRC32 != nil {
		if sum := crc32.ChecksumIEEE(out); sum != *fh.FileCRC32 {
			return nil, fmt.Errorf("file %q: %w: stored %#08x computed %#08x", fh.FileName, ErrChecksumMismatch, *fh.FileCRC32, sum)
		}
	}
	return out, nil
}

// skipPending discards the unread data region of the previous block.
func (r *Reader) skipPending() error {
	if r.pending == 0 {
		return nil
	}
	toSkip := r.pending
	start := r.src.n
	r.pending = 0
	r.last = nil
	if toSkip > math.MaxInt64 {
		return fmt.Errorf("skip data at %d: %w: %d", start, ErrDataTooLarge, toSkip)
	}
	if _, err := io.CopyN(io.Discard, r.src, int64(toSkip)); err != nil {
		return fmt.Errorf("skip data size=%d at %d: %w", toSkip, start, unexpectedEOF(err))
	}
	r.log.Debug("data skipped", "offset", start, "size", toSkip)
	return nil
}

func (r *Reader) fail(err error) error {
	r.err = err
	r.log.Debug("stream failed", "err", err)
	return err
}

// countingReader tracks how many bytes were consumed from the source.
type countingReader struct {
	r byteReader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}
