package rarblock

import "bytes"

// Version and signature related declarations.

const (
	VersionUnknown = "UNKNOWN"
	VersionRar3    = "RAR3"
	VersionRar5    = "RAR5"
)

// SignatureSize is the number of bytes consumed before the first block.
const SignatureSize = 8

var (
	rarrSigV3 = []byte("Rar!\x1A\x07\x00")     // RAR 1.5/2.x/3.x signature (7 bytes + 0x00)
	rarrSigV5 = []byte("Rar!\x1A\x07\x01\x00") // RAR5 signature
)

// SignatureRar5 returns a copy of the RAR5 signature, the default written by Writer.
func SignatureRar5() [SignatureSize]byte {
	var s [SignatureSize]byte
	copy(s[:], rarrSigV5)
	return s
}

// DetectVersion classifies a signature. The stream reader never calls it;
// callers that care about the byte pattern check Reader.Signature themselves.
func DetectVersion(sig []byte) string {
	switch {
	case bytes.HasPrefix(sig, rarrSigV5):
		return VersionRar5
	case bytes.HasPrefix(sig, rarrSigV3):
		return VersionRar3
	default:
		return VersionUnknown
	}
}
