package server

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeAlphabet is the 36-symbol lowercase alphanumeric alphabet used for
// verification codes. Codes double as the access secret for a file, so
// they come from crypto/rand: unguessable, not merely unique.
const codeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// codeLength is the fixed length of every verification code.
const codeLength = 6

// generateCode returns a fresh random code. It does not check for
// collisions with existing records; that is reserveUniqueCode's job.
func generateCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// validCode reports whether s has the exact shape of a verification code:
// codeLength characters, all from codeAlphabet. Pure format check, never
// touches storage.
func validCode(s string) bool {
	if len(s) != codeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
