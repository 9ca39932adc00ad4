package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerificationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateVerificationCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)

		for _, r := range code {
			assert.Contains(t, codeAlphabet, string(r))
		}
		// No visually ambiguous characters.
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
		assert.NotContains(t, code, "L")

		seen[code] = true
	}
	// 50 draws from a 31^6 space colliding down to a handful would mean the
	// generator is broken.
	assert.Greater(t, len(seen), 40)
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ab12cd", "AB12CD"},
		{"AB12CD", "AB12CD"},
		{"AB-12-CD", "AB12CD"},
		{" ab 12 cd ", "AB12CD"},
		{"AB.12.CD", "AB12CD"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCode(tt.input), "input %q", tt.input)
	}
}

func TestCodesMatch(t *testing.T) {
	assert.True(t, CodesMatch("ab12cd", "AB12CD"))
	assert.True(t, CodesMatch("AB-12-CD", "AB12CD"))
	assert.False(t, CodesMatch("AB12CE", "AB12CD"))
	// An erased stored code never matches, not even empty input.
	assert.False(t, CodesMatch("", ""))
	assert.False(t, CodesMatch("--", ""))
}

func TestCodeAlphabetHasNoAmbiguousCharacters(t *testing.T) {
	for _, c := range "0O1IL" {
		assert.False(t, strings.ContainsRune(codeAlphabet, c))
	}
}
