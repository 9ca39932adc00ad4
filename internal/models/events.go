package models

import "time"

// Event names published to the payout verification topic. The notification
// service consumes these to email the account holder; delivery is not this
// service's concern.
const (
	EventCodeSent = "payout.verification.code_sent"
	EventVerified = "payout.verification.verified"
	EventFailed   = "payout.verification.failed"
	EventExpired  = "payout.verification.expired"
)

// VerificationEvent is the payload published on verification state changes.
// It carries only display-safe data.
type VerificationEvent struct {
	Event          string    `json:"event"`
	VerificationID string    `json:"verification_id"`
	OwnerID        string    `json:"owner_id"`
	MaskedIBAN     string    `json:"masked_iban"`
	AccountHolder  string    `json:"account_holder"`
	OccurredAt     time.Time `json:"occurred_at"`
}
