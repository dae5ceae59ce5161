package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/javi11/rarblock"
	"github.com/javi11/rarblock/codec"
)

// This example walks an archive block by block and writes every file's data
// region to the output directory. Stored files and the zstd/lz4 private
// methods are handled; RAR's own compression methods need a decompressor
// registered for their method code and are skipped otherwise.
func main() {
	if len(os.Args) < 3 {
		log.Fatalf("usage: %s <archive.rar> <output-dir>", os.Args[0])
	}
	archivePath := os.Args[1]
	outDir := os.Args[2]

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	reg := rarblock.NewRegistry()
	if err := codec.Register(reg); err != nil {
		log.Fatalf("register codecs: %v", err)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		log.Fatalf("open archive: %v", err)
	}
	defer func() { _ = f.Close() }()

	r, err := rarblock.NewReader(f, rarblock.WithRegistry(reg), rarblock.WithVerifyChecksums(true))
	if err != nil {
		log.Fatalf("read archive: %v", err)
	}
	if v := rarblock.DetectVersion(sigBytes(r)); v != rarblock.VersionRar5 {
		log.Printf("warning: signature looks like %s, continuing anyway", v)
	}

	for b, err := range r.Blocks() {
		if err != nil {
			log.Fatalf("walk %s: %v", archivePath, err)
		}
		fh, ok := b.(*rarblock.FileHeader)
		if !ok {
			continue
		}
		if fh.IsSymlink() {
			fmt.Printf("Skipping symlink %s\n", fh.FileName)
			continue
		}
		if _, ok := reg.Decompressor(fh.Method()); !ok {
			fmt.Printf("Skipping %s (method %d not supported)\n", fh.FileName, fh.Method())
			continue
		}
		outPath, err := safeJoin(outDir, fh.FileName)
		if err != nil {
			log.Printf("skip %s: %v", fh.FileName, err)
			continue
		}
		data, err := r.ReadFileData(fh)
		if err != nil {
			log.Fatalf("read %s: %v", fh.FileName, err)
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			log.Fatalf("create output dir: %v", err)
		}
		if err := writeFile(outPath, data); err != nil {
			log.Fatalf("write %s: %v", outPath, err)
		}
		fmt.Printf("Extracted %s (%d bytes, %s)\n", fh.FileName, len(data), digest.FromBytes(data))
	}
}

func sigBytes(r *rarblock.Reader) []byte {
	sig := r.Signature()
	return sig[:]
}

// safeJoin keeps archive names from escaping the output directory.
func safeJoin(dir, name string) (string, error) {
	p := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("name escapes output dir")
	}
	return p, nil
}

func writeFile(path string, data []byte) error {
	outF, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := outF.Close(); cerr != nil {
			log.Printf("close %s: %v", path, cerr)
		}
	}()
	_, err = outF.Write(data)
	return err
}
