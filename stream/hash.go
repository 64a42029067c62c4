package stream

import (
	"crypto/sha256"

	"github.com/Neumenon/ply/ply"
)

// DigestCanonical computes the content digest of a document:
// sha256(canonical ASCII rendition).
//
// The digest depends only on the data, not on the encoding the file was
// stored in, so an ASCII scan and its binary conversion fingerprint
// identically.
func DigestCanonical(doc *ply.Document) ([32]byte, error) {
	h := sha256.New()
	tmp := *doc
	tmp.Header.Encoding = ply.EncodingASCII
	if _, err := ply.WriteDocument(h, &tmp); err != nil {
		return [32]byte{}, err
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// DigestBytes computes SHA-256 of raw bytes.
// Use this when the exact stored bytes are what matters.
func DigestBytes(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// VerifyDigest checks if the current digest matches the expected one.
func VerifyDigest(current, expected [32]byte) bool {
	return current == expected
}

// DigestToHex converts a 32-byte digest to lowercase hex string.
func DigestToHex(h [32]byte) string {
	const hextable = "0123456789abcdef"
	var buf [64]byte
	for i, b := range h {
		buf[i*2] = hextable[b>>4]
		buf[i*2+1] = hextable[b&0x0f]
	}
	return string(buf[:])
}

// HexToDigest parses a 64-character hex string to a 32-byte digest.
func HexToDigest(s string) ([32]byte, bool) {
	var h [32]byte
	if len(s) != 64 {
		return h, false
	}
	for i := 0; i < 32; i++ {
		hi := hexDigit(s[i*2])
		lo := hexDigit(s[i*2+1])
		if hi < 0 || lo < 0 {
			return h, false
		}
		h[i] = byte(hi<<4 | lo)
	}
	return h, true
}

func hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c - 'a' + 10)
	case c >= 'A' && c <= 'F':
		return int(c - 'A' + 10)
	default:
		return -1
	}
}
