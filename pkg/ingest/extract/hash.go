package extract

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the hex sha256 of extracted text. It is the key of the
// content-hash duplicate gate.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
