package room

import (
	"crypto/rand"
	"strings"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// genCode returns 6 upper alnum characters.
func genCode() (string, error) {
	b := make([]byte, codeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}

// normalizeCode folds user input onto the generated format.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
