package stream

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/crc32"
	"strings"
)

// ComputeCRC returns the CRC-32 (IEEE) of data.
func ComputeCRC(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// VerifyCRC reports whether data matches the expected CRC.
func VerifyCRC(data []byte, expected uint32) bool {
	return ComputeCRC(data) == expected
}

// Sum returns the SHA-256 digest of plain text, as carried in sum=.
func Sum(text []byte) [32]byte {
	return sha256.Sum256(text)
}

// HashToHex formats a digest as lowercase hex.
func HashToHex(h [32]byte) string {
	return hex.EncodeToString(h[:])
}

// HexToHash parses a 64-character hex digest, with or without a
// "sha256:" prefix.
func HexToHash(s string) ([32]byte, bool) {
	var h [32]byte
	s = strings.TrimPrefix(s, "sha256:")
	if len(s) != 64 {
		return h, false
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, false
	}
	return h, true
}
