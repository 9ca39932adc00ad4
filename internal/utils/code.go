package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// CodeLength is the number of characters in a verification code.
const CodeLength = 6

// codeAlphabet excludes visually ambiguous characters (0/O, 1/I/L) so the
// code can be copied reliably from a printed bank statement.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateVerificationCode generates a cryptographically secure code of
// CodeLength characters drawn uniformly from codeAlphabet.
func GenerateVerificationCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	var b strings.Builder
	b.Grow(CodeLength)
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeCode prepares a code for comparison: uppercased, with separators
// and any other non-alphanumeric characters stripped. Users copy codes off
// statement lines together with surrounding punctuation ("AB-12-CD").
func NormalizeCode(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range strings.ToUpper(code) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CodesMatch compares a user-submitted code against the stored one.
func CodesMatch(input, stored string) bool {
	return stored != "" && NormalizeCode(input) == NormalizeCode(stored)
}
