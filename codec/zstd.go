package codec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ZstdOption configures a Zstd codec.
type ZstdOption func(*Zstd)

// WithMaxDecoderMemory limits the memory a single decode may use.
// Set limit to 0 to disable the limit.
func WithMaxDecoderMemory(limit uint64) ZstdOption {
	return func(z *Zstd) {
		z.maxDecoderMemory = limit
	}
}

// WithEncoderLevel sets the zstd encoder level (default: SpeedDefault).
func WithEncoderLevel(level zstd.EncoderLevel) ZstdOption {
	return func(z *Zstd) {
		z.level = level
	}
}

// Zstd compresses data regions with zstandard. A single encoder and decoder
// are shared; EncodeAll and DecodeAll are safe for concurrent use.
type Zstd struct {
	maxDecoderMemory uint64
	level            zstd.EncoderLevel

	once sync.Once
	enc  *zstd.Encoder
	dec  *zstd.Decoder
	err  error
}

// NewZstd returns a zstd codec. Encoder and decoder are created eagerly so
// configuration errors surface here.
func NewZstd(opts ...ZstdOption) (*Zstd, error) {
	z := &Zstd{level: zstd.SpeedDefault}
	for _, opt := range opts {
		opt(z)
	}
	if err := z.init(); err != nil {
		return nil, err
	}
	return z, nil
}

func (z *Zstd) init() error {
	z.once.Do(func() {
		z.enc, z.err = zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithLowerEncoderMem(true),
			zstd.WithEncoderLevel(z.level))
		if z.err != nil {
			z.err = fmt.Errorf("create zstd encoder: %w", z.err)
			return
		}
		dopts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
		if z.maxDecoderMemory != 0 {
			dopts = append(dopts, zstd.WithDecoderMaxMemory(z.maxDecoderMemory))
		}
		z.dec, z.err = zstd.NewReader(nil, dopts...)
		if z.err != nil {
			z.err = fmt.Errorf("create zstd decoder: %w", z.err)
		}
	})
	return z.err
}

// Compress implements rarblock.Compressor.
func (z *Zstd) Compress(src []byte) ([]byte, error) {
	if err := z.init(); err != nil {
		return nil, err
	}
	return z.enc.EncodeAll(src, nil), nil
}

// Decompress implements rarblock.Decompressor.
func (z *Zstd) Decompress(src []byte) ([]byte, error) {
	if err := z.init(); err != nil {
		return nil, err
	}
	out, err := z.dec.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return out, nil
}

// Close releases the decoder's resources.
func (z *Zstd) Close() {
	if z.dec != nil {
		z.dec.Close()
	}
}
