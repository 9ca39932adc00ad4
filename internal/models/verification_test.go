package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBankVerificationJSONWithholdsSecrets(t *testing.T) {
	v := BankVerification{
		ID:                 "ver-1",
		OwnerID:            "company-1",
		IBAN:               "DE89370400440532013000",
		AccountFingerprint: "fingerprint",
		MaskedIBAN:         "DE89******3000",
		AccountHolder:      "Acme GmbH",
		Status:             StatusCodeSent,
		SecretCode:         "AB12CD",
		ProbeReference:     "TASKILO-VERIFY AB12CD",
		ProbeDispatchID:    "pay_001",
	}

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	body := string(raw)
	assert.NotContains(t, body, "AB12CD")
	assert.NotContains(t, body, "DE89370400440532013000")
	assert.NotContains(t, body, "fingerprint")
	assert.NotContains(t, body, "pay_001")
	assert.Contains(t, body, "DE89******3000")
}

func TestBankVerificationHelpers(t *testing.T) {
	now := time.Now()

	t.Run("open statuses", func(t *testing.T) {
		assert.True(t, (&BankVerification{Status: StatusPending}).IsOpen())
		assert.True(t, (&BankVerification{Status: StatusCodeSent}).IsOpen())
		assert.False(t, (&BankVerification{Status: StatusVerified}).IsOpen())
		assert.False(t, (&BankVerification{Status: StatusFailed}).IsOpen())
		assert.False(t, (&BankVerification{Status: StatusExpired}).IsOpen())
	})

	t.Run("code expiry", func(t *testing.T) {
		v := &BankVerification{CodeExpiresAt: now.Add(time.Hour)}
		assert.False(t, v.CodeExpired(now))
		assert.True(t, v.CodeExpired(now.Add(2*time.Hour)))
	})

	t.Run("remaining attempts never negative", func(t *testing.T) {
		v := &BankVerification{AttemptCount: 1, MaxAttempts: 3}
		assert.Equal(t, 2, v.RemainingAttempts())
		v.AttemptCount = 5
		assert.Equal(t, 0, v.RemainingAttempts())
	})
}
