package bankid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

const (
	// MaskPrefixLen and MaskSuffixLen define the visible window of a masked IBAN.
	MaskPrefixLen = 4
	MaskSuffixLen = 4

	minIBANLength = 8
	maxIBANLength = 34

	redactionMarker = "******"
)

// Normalize canonicalizes an account identity: whitespace stripped, uppercased.
// Fingerprint and Mask both operate on the normalized form so that
// "de89 3704..." and "DE893704..." are recognized as the same account.
func Normalize(iban string) string {
	var b strings.Builder
	b.Grow(len(iban))
	for _, r := range iban {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Validate checks the basic IBAN shape: country code, check digits, length.
// Full mod-97 validation is left to the payment provider, which rejects
// unroutable accounts anyway.
func Validate(iban string) error {
	n := Normalize(iban)
	if len(n) < minIBANLength || len(n) > maxIBANLength {
		return fmt.Errorf("account number must be between %d and %d characters", minIBANLength, maxIBANLength)
	}
	for _, r := range n {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return fmt.Errorf("account number contains invalid character %q", r)
		}
	}
	if n[0] < 'A' || n[0] > 'Z' || n[1] < 'A' || n[1] > 'Z' {
		return fmt.Errorf("account number must start with a two-letter country code")
	}
	if n[2] < '0' || n[2] > '9' || n[3] < '0' || n[3] > '9' {
		return fmt.Errorf("account number must have two check digits after the country code")
	}
	return nil
}

// Fingerprint derives a one-way identity for an account number, used to index
// verification records without comparing raw IBANs. sha256 keeps the digest
// fixed-size and collision-resistant.
func Fingerprint(iban string) string {
	sum := sha256.Sum256([]byte(Normalize(iban)))
	return hex.EncodeToString(sum[:])
}

// Mask returns a display-safe rendering: first and last four characters kept,
// everything between replaced by a fixed-width marker. Identities shorter than
// the masking window are returned unmodified.
func Mask(iban string) string {
	n := Normalize(iban)
	if len(n) <= MaskPrefixLen+MaskSuffixLen {
		return n
	}
	return n[:MaskPrefixLen] + redactionMarker + n[len(n)-MaskSuffixLen:]
}
