package rarblock

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"
)

// FileEntry summarises one file block of an archive.
type FileEntry struct {
	Name         string        `json:"name"`
	DataOffset   int64         `json:"dataOffset"` // where the data region starts, from the start of the archive
	PackedSize   uint64        `json:"packedSize"`
	UnpackedSize uint64        `json:"unpackedSize"`
	Method       uint64        `json:"method"`
	Stored       bool          `json:"stored"`
	Symlink      string        `json:"symlink,omitempty"`
	ModTime      *uint32       `json:"modTime,omitempty"`
	CRC32        *uint32       `json:"crc32,omitempty"`
	Digest       digest.Digest `json:"digest,omitempty"` // of the unpacked content, only with content digests enabled
}

// ArchiveListing is the result of walking one archive.
type ArchiveListing struct {
	Path         string      `json:"path,omitempty"`
	Version      string      `json:"version"`
	ArchiveFlags uint64      `json:"archiveFlags"`
	VolumeNumber *uint64     `json:"volumeNumber,omitempty"`
	Files        []FileEntry `json:"files"`
	Complete     bool        `json:"complete"` // an end of archive block was seen
}

// ListReader walks every block of the archive in r and summarises its files.
// Data regions are skipped unless content digests are enabled, in which case
// each one is decompressed and hashed.
func ListReader(r io.Reader, opts ...Option) (*ArchiveListing, error) {
	cfg := newConfig(opts)
	ar, err := NewReader(r, opts...)
	if err != nil {
		return nil, err
	}
	sig := ar.Signature()
	l := &ArchiveListing{Version: DetectVersion(sig[:]), Files: []FileEntry{}}
	for b, err := range ar.Blocks() {
		if err != nil {
			return nil, err
		}
		switch h := b.(type) {
		case *MainArchiveHeader:
			l.ArchiveFlags = h.ArchiveFlags
			l.VolumeNumber = h.VolumeNumber
		case *FileHeader:
			fe := FileEntry{
				Name:         h.FileName,
				DataOffset:   ar.Offset(),
				PackedSize:   h.General.DataLen(),
				UnpackedSize: h.UnpackedSize,
				Method:       h.Method(),
				Stored:       h.Stored(),
				ModTime:      h.ModificationTime,
				CRC32:        h.FileCRC32,
			}
			if h.SymlinkTarget != nil {
				fe.Symlink = *h.SymlinkTarget
			}
			if cfg.contentDigests {
				data, err := ar.ReadFileData(h)
				if err != nil {
					return nil, err
				}
				fe.Digest = digest.FromBytes(data)
			}
			l.Files = append(l.Files, fe)
		case *EndOfArchiveHeader:
			l.Complete = true
		}
	}
	return l, nil
}

// List opens path on fsys and lists it.
func List(fsys FileSystem, path string, opts ...Option) (*ArchiveListing, error) {
	if fsys == nil {
		fsys = defaultFS
	}
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	l, err := ListReader(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.Path = path
	return l, nil
}

// ListArchives lists independent archives with at most workers running at
// once (workers <= 0 uses GOMAXPROCS). Results keep the order of paths. The
// first failure cancels archives not yet started and is returned.
func ListArchives(ctx context.Context, fsys FileSystem, paths []string, workers int, opts ...Option) ([]*ArchiveListing, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	res := make([]*ArchiveListing, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, p := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			l, err := List(fsys, p, opts...)
			if err != nil {
				return err
			}
			res[i] = l
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
