package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Verification statuses. A record in "pending" or "code_sent" is open;
// "verified", "failed" and "expired" are terminal.
const (
	StatusPending  = "pending"
	StatusCodeSent = "code_sent"
	StatusVerified = "verified"
	StatusFailed   = "failed"
	StatusExpired  = "expired"
)

// BankVerification is one verification attempt cycle for a company payout
// account. The raw IBAN and the secret code never appear in JSON output.
// A partial unique index on (owner_id, account_fingerprint) over the open
// statuses backs the single-active-record guarantee (see storage).
type BankVerification struct {
	ID      string `json:"verification_id" gorm:"primaryKey"`
	OwnerID string `json:"owner_id" gorm:"index"`

	IBAN               string `json:"-" gorm:"column:iban;not null"`
	AccountFingerprint string `json:"-" gorm:"not null;index"`
	MaskedIBAN         string `json:"masked_iban" gorm:"column:masked_iban"`
	BIC                string `json:"bic,omitempty" gorm:"column:bic"`
	AccountHolder      string `json:"account_holder"`
	BankName           string `json:"bank_name,omitempty"`

	Status        string    `json:"status" gorm:"not null;default:pending;index"`
	SecretCode    string    `json:"-"`
	CodeExpiresAt time.Time `json:"code_expires_at"`

	ProbeAmount     decimal.Decimal `json:"probe_amount" gorm:"type:numeric(12,2)"`
	ProbeCurrency   string          `json:"probe_currency"`
	ProbeReference  string          `json:"-"`
	ProbeDispatchID string          `json:"-"`

	AttemptCount int `json:"attempt_count" gorm:"default:0"`
	MaxAttempts  int `json:"max_attempts" gorm:"default:3"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

func (v *BankVerification) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// IsOpen reports whether the record still accepts code submissions.
func (v *BankVerification) IsOpen() bool {
	return v.Status == StatusPending || v.Status == StatusCodeSent
}

// CodeExpired reports whether the code window has passed at the given time.
func (v *BankVerification) CodeExpired(now time.Time) bool {
	return now.After(v.CodeExpiresAt)
}

// RemainingAttempts returns how many wrong codes the caller may still submit.
func (v *BankVerification) RemainingAttempts() int {
	remaining := v.MaxAttempts - v.AttemptCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// BankVerificationRequest is the inbound payload for initiating verification.
type BankVerificationRequest struct {
	IBAN          string `json:"iban"`
	BIC           string `json:"bic"`
	AccountHolder string `json:"account_holder"`
	BankName      string `json:"bank_name"`
}

// InitiateResult is returned by Initiate and Resend.
type InitiateResult struct {
	VerificationID  string    `json:"verification_id"`
	MaskedIBAN      string    `json:"masked_iban"`
	ExpiresAt       time.Time `json:"expires_at"`
	AlreadyVerified bool      `json:"already_verified,omitempty"`
	AlreadyPending  bool      `json:"already_pending,omitempty"`
}

// VerifyResult is returned by VerifyCode.
type VerifyResult struct {
	Verified          bool `json:"verified"`
	RemainingAttempts int  `json:"remaining_attempts,omitempty"`
}

// VerifiedAccount is the read-model for listing verified payout accounts.
type VerifiedAccount struct {
	MaskedIBAN    string     `json:"masked_iban"`
	AccountHolder string     `json:"account_holder"`
	BankName      string     `json:"bank_name,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
}
