package utils

import (
	"crypto/rand"
	"fmt"
)

const tempPasswordAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// TempPasswordLength is the random portion of a generated temporary password.
const TempPasswordLength = 8

// tempPasswordSuffix guarantees the generated password satisfies
// upper/lower/digit/symbol complexity rules of downstream identity providers.
const tempPasswordSuffix = "Aa1!"

// GenerateTempPassword returns a one-time password for a newly promoted
// member: 8 random alphanumeric characters plus a fixed complexity suffix.
func GenerateTempPassword() (string, error) {
	buf := make([]byte, TempPasswordLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	for i, b := range buf {
		buf[i] = tempPasswordAlphabet[int(b)%len(tempPasswordAlphabet)]
	}
	return string(buf) + tempPasswordSuffix, nil
}
