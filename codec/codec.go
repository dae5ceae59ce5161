// Package codec provides compressors for the rarblock codec registry backed by
// general purpose algorithms.
//
// RAR5 only defines method codes 0 to 5 for its own algorithms. The codes used
// here sit in the unused range of the 3-bit method field, so archives using them
// are only readable by readers that registered the same codecs.
package codec

import "github.com/javi11/rarblock"

// Private-use method codes.
const (
	MethodZstd uint64 = 6
	MethodLZ4  uint64 = 7
)

// Register installs the zstd and lz4 codecs into reg under MethodZstd and MethodLZ4.
func Register(reg *rarblock.Registry, opts ...ZstdOption) error {
	z, err := NewZstd(opts...)
	if err != nil {
		return err
	}
	reg.RegisterCompressor(MethodZstd, z)
	reg.RegisterDecompressor(MethodZstd, z)
	reg.RegisterCompressor(MethodLZ4, LZ4{})
	reg.RegisterDecompressor(MethodLZ4, LZ4{})
	return nil
}
