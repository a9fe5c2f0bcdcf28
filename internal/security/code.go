package security

import (
	"crypto/rand"
	"fmt"
)

// Prefixes and lengths for generated identifiers.
const (
	passNumberPrefix = "MP"
	passNumberLength = 8

	transactionIDPrefix = "TXN"
	transactionIDLength = 10
)

// codeAlphabet contains the uppercase alphanumerics used in generated codes.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GeneratePassNumber returns a fresh mess pass number, e.g. "MP7K2QX9A1".
func GeneratePassNumber() (string, error) {
	code, err := generateCode(passNumberLength)
	if err != nil {
		return "", fmt.Errorf("generate pass number: %w", err)
	}
	return passNumberPrefix + code, nil
}

// GenerateTransactionID returns a fresh payment transaction id, e.g. "TXN4B8Z1QPM2R".
func GenerateTransactionID() (string, error) {
	code, err := generateCode(transactionIDLength)
	if err != nil {
		return "", fmt.Errorf("generate transaction id: %w", err)
	}
	return transactionIDPrefix + code, nil
}

// GenerateRandomString returns a random uppercase alphanumeric string of the
// requested length, suitable for one-time credentials.
func GenerateRandomString(length int) (string, error) {
	return generateCode(length)
}

// generateCode returns a random uppercase alphanumeric token of the requested length.
func generateCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}
