package serialization

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeChecksum computes the SHA-256 checksum of data.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ChecksumString returns the hex encoded SHA-256 checksum of data, the form
// stored in file metadata.
func ChecksumString(data []byte) string {
	sum := ComputeChecksum(data)
	return hex.EncodeToString(sum[:])
}

// ValidateChecksum compares the checksum of data against a stored hex
// checksum. Returns ErrChecksumMismatch if they don't match.
func ValidateChecksum(data []byte, stored string) error {
	if got := ChecksumString(data); got != stored {
		return &ValidationError{
			Type:    "checksum_mismatch",
			Details: "stored " + stored + ", computed " + got,
			Err:     ErrChecksumMismatch,
		}
	}
	return nil
}
