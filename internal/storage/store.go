package storage

import (
	"errors"
	"time"

	"github.com/Andy54411/taskilo-payout-backend/internal/models"
)

var (
	// ErrNotFound means no record exists for the given id or lookup.
	ErrNotFound = errors.New("verification record not found")
	// ErrDuplicateActive means an open record already exists for the same
	// (owner, fingerprint) pair; CreateVerification refuses to add a second.
	ErrDuplicateActive = errors.New("active verification already exists")
	// ErrConflict means an optimistic update lost a race: the record no
	// longer matches the expected status and attempt count.
	ErrConflict = errors.New("verification record was modified concurrently")
)

var storeInstance Store

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// VerificationUpdate describes a conditional mutation of a record. Nil
// pointer fields and empty strings are left untouched; ClearSecret erases
// the stored code on the same write.
type VerificationUpdate struct {
	Status          string
	AttemptCount    *int
	ClearSecret     bool
	ProbeDispatchID *string
	VerifiedAt      *time.Time
}

// Store defines the interface for verification record persistence.
//
// CreateVerification is an atomic check-and-create: it fails with
// ErrDuplicateActive when an open record for the same (owner, fingerprint)
// already exists, so two concurrent initiations can never both dispatch a
// probe. UpdateVerification applies only while the record still has the
// expected status and attempt count and returns ErrConflict otherwise;
// callers re-read and retry.
type Store interface {
	CreateVerification(v *models.BankVerification) (*models.BankVerification, error)
	GetVerification(id string) (*models.BankVerification, error)
	FindActiveVerification(ownerID, fingerprint string) (*models.BankVerification, error)
	FindVerifiedVerification(ownerID, fingerprint string) (*models.BankVerification, error)
	UpdateVerification(id string, expectStatus string, expectAttempts int, update *VerificationUpdate) (*models.BankVerification, error)
	DeleteVerification(id string) error
	ListVerifiedAccounts(ownerID string) ([]*models.BankVerification, error)
	ListVerificationsByStatus(status string) ([]*models.BankVerification, error)
}
