package usecase

import (
	"crypto/rand"
	"io"
)

// CodeGenerator produces a candidate activation code string.
type CodeGenerator func() (string, error)

// generateActivationCode creates a secure, random, and human-readable activation code.
// Format: XXXX-XXXX-XXXX
func generateActivationCode() (string, error) {
	// No O/0 or I/1; 32 symbols so a random byte maps without bias.
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLength = 12

	buffer := make([]byte, codeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}

	for i := 0; i < codeLength; i++ {
		buffer[i] = chars[int(buffer[i])%len(chars)]
	}

	return string(buffer[0:4]) + "-" + string(buffer[4:8]) + "-" + string(buffer[8:12]), nil
}
