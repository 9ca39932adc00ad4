package bankid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "DE89370400440532013000", Normalize("de89 3704 0044 0532 0130 00"))
	assert.Equal(t, "DE89370400440532013000", Normalize("DE89370400440532013000"))
}

func TestFingerprint(t *testing.T) {
	t.Run("deterministic across formatting", func(t *testing.T) {
		a := Fingerprint("DE89 3704 0044 0532 0130 00")
		b := Fingerprint("de89370400440532013000")
		assert.Equal(t, a, b)
	})

	t.Run("different accounts differ", func(t *testing.T) {
		a := Fingerprint("DE89370400440532013000")
		b := Fingerprint("DE89370400440532013001")
		assert.NotEqual(t, a, b)
	})

	t.Run("fixed digest size", func(t *testing.T) {
		assert.Len(t, Fingerprint("GB29NWBK60161331926819"), 64)
		assert.Len(t, Fingerprint("AL35202111090000000001234567"), 64)
	})
}

func TestMask(t *testing.T) {
	t.Run("typical IBAN length", func(t *testing.T) {
		masked := Mask("DE89370400440532013000")
		assert.Equal(t, "DE89******3000", masked)
		assert.NotContains(t, masked, "37040044")
	})

	t.Run("34 character identity", func(t *testing.T) {
		iban := "MT84MALT011000012345MTLCAST001S9999"[:34]
		masked := Mask(iban)
		require.True(t, strings.HasPrefix(masked, iban[:4]))
		require.True(t, strings.HasSuffix(masked, iban[30:]))
		assert.Equal(t, iban[:4]+"******"+iban[30:], masked)
	})

	t.Run("10 character identity", func(t *testing.T) {
		assert.Equal(t, "AB12******7890", Mask("AB12567890"))
		assert.Equal(t, "AB12******34CD", Mask("ab12 xy 34cd"))
	})

	t.Run("below the masking window returns raw", func(t *testing.T) {
		assert.Equal(t, "AB123456", Mask("AB123456"))
		assert.Equal(t, "AB12", Mask("ab12"))
	})
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("DE89 3704 0044 0532 0130 00"))
	assert.NoError(t, Validate("GB29NWBK60161331926819"))

	assert.Error(t, Validate(""))
	assert.Error(t, Validate("DE89"))
	assert.Error(t, Validate("89DE370400440532013000"))
	assert.Error(t, Validate("DEXX370400440532013000"))
	assert.Error(t, Validate("DE89-3704-0044"))
	assert.Error(t, Validate(strings.Repeat("DE89", 10)))
}
