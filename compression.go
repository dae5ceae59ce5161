package rarblock

import (
	"errors"
	"fmt"
	"sync"
)

// Compression method codes as stored in bits 7-9 of a file's compression info.
// Only MethodStore is built in; other codes need a registered Decompressor.
const (
	MethodStore   uint64 = 0
	MethodFastest uint64 = 1
	MethodFast    uint64 = 2
	MethodNormal  uint64 = 3
	MethodGood    uint64 = 4
	MethodBest    uint64 = 5
)

// CompressionMethod extracts the method code from a compression info value.
func CompressionMethod(info uint64) uint64 { return (info >> 7) & 0x07 }

// CompressionVersion extracts the algorithm version (bits 0-5).
func CompressionVersion(info uint64) uint64 { return info & 0x3f }

// CompressionSolid reports the solid flag (bit 6).
func CompressionSolid(info uint64) bool { return info&0x40 != 0 }

// DictionarySize returns the dictionary size in bytes encoded in bits 10-13.
func DictionarySize(info uint64) uint64 { return 128 * 1024 << ((info >> 10) & 0x0f) }

// CompressionInfo builds a compression info value for method with version 0,
// no solid flag and the smallest dictionary.
func CompressionInfo(method uint64) uint64 { return (method & 0x07) << 7 }

// Decompressor turns a data region into file content.
type Decompressor interface {
	Decompress(src []byte) ([]byte, error)
}

// Compressor turns file content into a data region.
type Compressor interface {
	Compress(src []byte) ([]byte, error)
}

// DecompressorFunc adapts a plain function to Decompressor.
type DecompressorFunc func(src []byte) ([]byte, error)

func (f DecompressorFunc) Decompress(src []byte) ([]byte, error) { return f(src) }

// CompressorFunc adapts a plain function to Compressor.
type CompressorFunc func(src []byte) ([]byte, error)

func (f CompressorFunc) Compress(src []byte) ([]byte, error) { return f(src) }

// storeCodec returns a private copy of its input.
type storeCodec struct{}

func (storeCodec) Decompress(src []byte) ([]byte, error) { return append([]byte(nil), src...), nil }
func (storeCodec) Compress(src []byte) ([]byte, error)   { return append([]byte(nil), src...), nil }

// Registry maps method codes to codecs. It is safe for concurrent use so one
// registry can be shared by readers running in parallel.
type Registry struct {
	mu            sync.RWMutex
	decompressors map[uint64]Decompressor
	compressors   map[uint64]Compressor
}

// NewRegistry returns a registry that knows only MethodStore.
func NewRegistry() *Registry {
	return &Registry{
		decompressors: map[uint64]Decompressor{MethodStore: storeCodec{}},
		compressors:   map[uint64]Compressor{MethodStore: storeCodec{}},
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry is used by readers and writers created without WithRegistry.
func DefaultRegistry() *Registry { return defaultRegistry }

// RegisterDecompressor installs d for method, replacing any previous one.
func (r *Registry) RegisterDecompressor(method uint64, d Decompressor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decompressors[method] = d
}

// RegisterCompressor installs c for method, replacing any previous one.
func (r *Registry) RegisterCompressor(method uint64, c Compressor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compressors[method] = c
}

// Decompressor returns the decompressor registered for method.
func (r *Registry) Decompressor(method uint64) (Decompressor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decompressors[method]
	return d, ok
}

// Compressor returns the compressor registered for method.
func (r *Registry) Compressor(method uint64) (Compressor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.compressors[method]
	return c, ok
}

// Transform decompresses data with the codec registered for method.
// Failures are ErrUnsupportedMethod or ErrCorruptPayload.
func (r *Registry) Transform(data []byte, method uint64) ([]byte, error) {
	d, ok := r.Decompressor(method)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMethod, method)
	}
	out, err := d.Decompress(data)
	if err != nil {
		return nil, payloadError(method, err)
	}
	return out, nil
}

// Pack compresses data with the codec registered for method.
func (r *Registry) Pack(data []byte, method uint64) ([]byte, error) {
	c, ok := r.Compressor(method)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMethod, method)
	}
	out, err := c.Compress(data)
	if err != nil {
		return nil, fmt.Errorf("compress method %d: %w", method, err)
	}
	return out, nil
}

// Transform decompresses data using the default registry.
func Transform(data []byte, method uint64) ([]byte, error) {
	return defaultRegistry.Transform(data, method)
}

func payloadError(method uint64, err error) error {
	if errors.Is(err, ErrCorruptPayload) || errors.Is(err, ErrUnsupportedMethod) {
		return fmt.Errorf("decompress method %d: %w", method, err)
	}
	return fmt.Errorf("decompress method %d: %w: %w", method, ErrCorruptPayload, err)
}
