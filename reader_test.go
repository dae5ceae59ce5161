package rarblock

import (
	"bytes"
	"errors"
	"hash/crc32"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSig = []byte("Rar!\x1A\x07\x01\x00")

func encode(t *testing.T, b Block) []byte {
	t.Helper()
	buf, err := MarshalBlock(b)
	require.NoError(t, err)
	return buf
}

// fileBlock encodes a file block declaring len(data) bytes of data followed by data itself.
func fileBlock(t *testing.T, name string, info uint64, data []byte) []byte {
	t.Helper()
	fh := &FileHeader{
		Base:            Base{General: GeneralHeader{HeaderFlags: HeaderFlagDataSize, DataSize: u64(uint64(len(data)))}},
		UnpackedSize:    uint64(len(data)),
		CompressionInfo: info,
		FileName:        name,
	}
	return append(encode(t, fh), data...)
}

func buildArchive(parts ...[]byte) []byte {
	out := append([]byte{}, testSig...)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestReaderIteration(t *testing.T) {
	data := buildArchive(
		encode(t, &MainArchiveHeader{}),
		encode(t, &FileHeader{UnpackedSize: 12345, FileAttributes: 32, CompressionInfo: 48, FileName: "test"}),
		encode(t, &EndOfArchiveHeader{}),
	)
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, VersionRar5, DetectVersion(testSig))

	b, err := r.Next()
	require.NoError(t, err)
	assert.IsType(t, &MainArchiveHeader{}, b)

	b, err = r.Next()
	require.NoError(t, err)
	require.IsType(t, &FileHeader{}, b)
	assert.Equal(t, "test", b.(*FileHeader).FileName)

	b, err = r.Next()
	require.NoError(t, err)
	assert.IsType(t, &EndOfArchiveHeader{}, b)

	_, err = r.Next()
	require.Equal(t, io.EOF, err)
	_, err = r.Next()
	require.Equal(t, io.EOF, err, "end of stream is terminal")
	assert.Equal(t, int64(len(data)), r.Offset())
}

func TestReaderBlocksIterator(t *testing.T) {
	data := buildArchive(
		encode(t, &MainArchiveHeader{}),
		fileBlock(t, "a.bin", 0, []byte("payload")),
		encode(t, &EndOfArchiveHeader{}),
	)
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	var types []HeaderType
	for b, err := range r.Blocks() {
		require.NoError(t, err)
		types = append(types, b.Type())
	}
	assert.Equal(t, []HeaderType{HeaderTypeMain, HeaderTypeFile, HeaderTypeEnd}, types)
}

func TestReaderSkipsUnreadData(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 4096)
	data := buildArchive(
		encode(t, &MainArchiveHeader{}),
		fileBlock(t, "skip.bin", 0, payload),
		encode(t, &EndOfArchiveHeader{EndArchiveFlags: 3}),
	)
	// OneByteReader hides the io.ByteReader so the bufio path is used too.
	for name, src := range map[string]io.Reader{
		"bytes":    bytes.NewReader(data),
		"one-byte": iotest.OneByteReader(bytes.NewReader(data)),
	} {
		t.Run(name, func(t *testing.T) {
			r, err := NewReader(src)
			require.NoError(t, err)
			_, err = r.Next()
			require.NoError(t, err)
			b, err := r.Next()
			require.NoError(t, err)
			assert.Equal(t, uint64(len(payload)), b.Header().DataLen())

			b, err = r.Next()
			require.NoError(t, err)
			require.IsType(t, &EndOfArchiveHeader{}, b)
			assert.Equal(t, uint64(3), b.(*EndOfArchiveHeader).EndArchiveFlags)

			_, err = r.Next()
			require.Equal(t, io.EOF, err)
		})
	}
}

func TestReadFileDataIdentity(t *testing.T) {
	data := buildArchive(
		encode(t, &MainArchiveHeader{}),
		fileBlock(t, "five.bin", 48, []byte{1, 2, 3, 4, 5}),
		encode(t, &EndOfArchiveHeader{}),
	)
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)
	b, err := r.Next()
	require.NoError(t, err)
	fh := b.(*FileHeader)

	out, err := r.ReadFileData(fh)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, out)

	// Already consumed.
	out, err = r.ReadFileData(fh)
	require.NoError(t, err)
	assert.Empty(t, out)

	b, err = r.Next()
	require.NoError(t, err)
	assert.IsType(t, &EndOfArchiveHeader{}, b)
}

func TestReadFileDataStaleHeader(t *testing.T) {
	data := buildArchive(
		fileBlock(t, "one", 0, []byte("first")),
		fileBlock(t, "two", 0, []byte("second")),
	)
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	b1, err := r.Next()
	require.NoError(t, err)
	b2, err := r.Next()
	require.NoError(t, err)

	out, err := r.ReadFileData(b1.(*FileHeader))
	require.NoError(t, err)
	assert.Empty(t, out, "header from an earlier block yields nothing")

	out, err = r.ReadFileData(b2.(*FileHeader))
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), out)

	out, err = r.ReadFileData(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReadFileDataWithoutDataRegion(t *testing.T) {
	data := buildArchive(encode(t, &FileHeader{FileName: "empty"}))
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	b, err := r.Next()
	require.NoError(t, err)
	out, err := r.ReadFileData(b.(*FileHeader))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReadFileDataUnsupportedMethod(t *testing.T) {
	data := buildArchive(
		fileBlock(t, "packed", CompressionInfo(MethodBest), []byte("xx")),
		encode(t, &EndOfArchiveHeader{}),
	)
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	b, err := r.Next()
	require.NoError(t, err)
	_, err = r.ReadFileData(b.(*FileHeader))
	require.ErrorIs(t, err, ErrUnsupportedMethod)

	// The bytes were consumed, the stream continues.
	b, err = r.Next()
	require.NoError(t, err)
	assert.IsType(t, &EndOfArchiveHeader{}, b)
}

func TestReadFileDataCorruptPayload(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterDecompressor(MethodFast, DecompressorFunc(func([]byte) ([]byte, error) {
		return nil, errors.New("bad stream")
	}))
	data := buildArchive(fileBlock(t, "packed", CompressionInfo(MethodFast), []byte("xx")))
	r, err := NewReader(bytes.NewReader(data), WithRegistry(reg))
	require.NoError(t, err)
	b, err := r.Next()
	require.NoError(t, err)
	_, err = r.ReadFileData(b.(*FileHeader))
	require.ErrorIs(t, err, ErrCorruptPayload)
	assert.Contains(t, err.Error(), "bad stream")
}

func TestReadFileDataTooLarge(t *testing.T) {
	data := buildArchive(
		fileBlock(t, "big", 0, make([]byte, 64)),
		encode(t, &EndOfArchiveHeader{}),
	)
	r, err := NewReader(bytes.NewReader(data), WithMaxDataSize(16))
	require.NoError(t, err)
	b, err := r.Next()
	require.NoError(t, err)
	_, err = r.ReadFileData(b.(*FileHeader))
	require.ErrorIs(t, err, ErrDataTooLarge)

	// Still skippable.
	b, err = r.Next()
	require.NoError(t, err)
	assert.IsType(t, &EndOfArchiveHeader{}, b)
}

func TestReaderEmptyArchive(t *testing.T) {
	r, err := NewReader(bytes.NewReader(testSig))
	require.NoError(t, err)
	_, err = r.Next()
	require.Equal(t, io.EOF, err)
	assert.Equal(t, [SignatureSize]byte(testSig), r.Signature())
}

func TestReaderEOFWithoutEndBlock(t *testing.T) {
	data := buildArchive(encode(t, &MainArchiveHeader{}))
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.Equal(t, io.EOF, err)
}

func TestReaderShortSignature(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("Rar!")))
	require.ErrorIs(t, err, ErrShortSignature)
	require.ErrorIs(t, err, ErrUnexpectedEndOfInput)

	_, err = NewReader(bytes.NewReader(nil))
	require.ErrorIs(t, err, ErrShortSignature)
}

func TestReaderTruncatedHeader(t *testing.T) {
	main := encode(t, &MainArchiveHeader{})
	data := buildArchive(main, []byte{0x00, 0x00, 0x00, 0x00, 0x80})
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)

	_, err = r.Next()
	require.ErrorIs(t, err, ErrUnexpectedEndOfInput)
	assert.NotErrorIs(t, err, io.EOF)

	_, err2 := r.Next()
	assert.Equal(t, err, err2, "errors are sticky")
}

func TestReaderTruncatedData(t *testing.T) {
	full := fileBlock(t, "cut", 0, []byte("0123456789"))
	data := buildArchive(full[:len(full)-4])
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.ErrorIs(t, err, ErrUnexpectedEndOfInput)
}

func TestReaderUnknownBlockType(t *testing.T) {
	gh := AppendGeneralHeader(nil, GeneralHeader{HeaderSize: 1, HeaderType: 99})
	data := buildArchive(encode(t, &MainArchiveHeader{}), gh, []byte{0x00}, encode(t, &EndOfArchiveHeader{}))
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.ErrorIs(t, err, ErrUnknownBlockType)
	_, err = r.Next()
	require.ErrorIs(t, err, ErrUnknownBlockType, "no resynchronisation after a bad block")
}

func TestReaderVerifyChecksums(t *testing.T) {
	block := encode(t, &EndOfArchiveHeader{})
	good := buildArchive(block)
	bad := buildArchive(block)
	bad[len(testSig)] ^= 0xff

	r, err := NewReader(bytes.NewReader(bad))
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err, "stored CRC is not checked by default")

	r, err = NewReader(bytes.NewReader(bad), WithVerifyChecksums(true))
	require.NoError(t, err)
	_, err = r.Next()
	require.ErrorIs(t, err, ErrChecksumMismatch)

	r, err = NewReader(bytes.NewReader(good), WithVerifyChecksums(true))
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)
}

func TestReaderVerifyFileCRC(t *testing.T) {
	content := []byte("checked content")
	wrong := crc32.ChecksumIEEE(content) + 1
	fh := &FileHeader{
		Base:      Base{General: GeneralHeader{HeaderFlags: HeaderFlagDataSize, DataSize: u64(uint64(len(content)))}},
		FileFlags: FileFlagCRC32,
		FileCRC32: &wrong,
		FileName:  "c.txt",
	}
	data := buildArchive(append(encode(t, fh), content...))

	r, err := NewReader(bytes.NewReader(data), WithVerifyChecksums(true))
	require.NoError(t, err)
	b, err := r.Next()
	require.NoError(t, err)
	_, err = r.ReadFileData(b.(*FileHeader))
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestReaderHeaderSizeLimit(t *testing.T) {
	data := buildArchive(encode(t, &FileHeader{FileName: string(bytes.Repeat([]byte("n"), 200))}))
	r, err := NewReader(bytes.NewReader(data), WithMaxHeaderSize(64))
	require.NoError(t, err)
	_, err = r.Next()
	require.ErrorIs(t, err, ErrHeaderTooLarge)
}
