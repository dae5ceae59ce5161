package rarblock

import (
	"log/slog"
	"os"
)

// DebugEnv enables debug logging to stderr for readers and writers that were
// not given a logger explicitly.
const DebugEnv = "RARBLOCK_DEBUG"

// defaultMaxDataSize bounds the allocation made by ReadFileData.
const defaultMaxDataSize = 1 << 30

type config struct {
	logger          *slog.Logger
	registry        *Registry
	maxHeaderSize   uint64
	maxDataSize     uint64
	verifyChecksums bool
	contentDigests  bool
	signature       [SignatureSize]byte
}

func newConfig(opts []Option) *config {
	c := &config{
		registry:      defaultRegistry,
		maxHeaderSize: defaultMaxHeaderSize,
		maxDataSize:   defaultMaxDataSize,
		signature:     SignatureRar5(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = defaultLogger()
	}
	return c
}

func defaultLogger() *slog.Logger {
	if os.Getenv(DebugEnv) != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.DiscardHandler)
}

// Option configures a Reader or a Writer.
type Option func(*config)

// WithLogger sets the logger used for debug events.
// A nil logger falls back to the default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithRegistry sets the codec registry used to transform data regions.
func WithRegistry(r *Registry) Option {
	return func(c *config) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithMaxHeaderSize limits the payload size a general header may declare
// (default: 2 MiB). Zero restores the default.
func WithMaxHeaderSize(limit uint64) Option {
	return func(c *config) {
		if limit == 0 {
			limit = defaultMaxHeaderSize
		}
		c.maxHeaderSize = limit
	}
}

// WithMaxDataSize limits the data region size ReadFileData will load into
// memory (default: 1 GiB). Zero restores the default. Skipping is not limited.
func WithMaxDataSize(limit uint64) Option {
	return func(c *config) {
		if limit == 0 {
			limit = defaultMaxDataSize
		}
		c.maxDataSize = limit
	}
}

// WithVerifyChecksums makes the reader compare stored header CRCs and file
// data CRCs against computed ones. Off by default.
func WithVerifyChecksums(enabled bool) Option {
	return func(c *config) {
		c.verifyChecksums = enabled
	}
}

// WithContentDigests makes List read every data region and record the digest
// of the unpacked content. Off by default; listing then only skips data.
func WithContentDigests(enabled bool) Option {
	return func(c *config) {
		c.contentDigests = enabled
	}
}

// WithSignature sets the 8 signature bytes a Writer emits (default: RAR5).
func WithSignature(sig [SignatureSize]byte) Option {
	return func(c *config) {
		c.signature = sig
	}
}
