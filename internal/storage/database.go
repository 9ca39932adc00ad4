package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Andy54411/taskilo-payout-backend/internal/models"
)

// DatabaseStore persists verification records in PostgreSQL via GORM.
//
// The single-active-record invariant is backed by a partial unique index over
// the open statuses; a losing concurrent insert surfaces as
// gorm.ErrDuplicatedKey (the connection enables TranslateError) and is mapped
// to ErrDuplicateActive. Conditional updates use the rows-affected count as
// the conflict signal.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store and ensures the partial
// unique index exists. AutoMigrate cannot express the WHERE clause, so the
// index is created directly.
func NewDatabaseStore(db *gorm.DB) (*DatabaseStore, error) {
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_active_verification
		ON bank_verifications (owner_id, account_fingerprint)
		WHERE status IN ('pending', 'code_sent')
	`).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create active-verification index: %w", err)
	}
	return &DatabaseStore{db: db}, nil
}

func (d *DatabaseStore) CreateVerification(v *models.BankVerification) (*models.BankVerification, error) {
	if err := d.db.Create(v).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateActive
		}
		return nil, fmt.Errorf("failed to create verification: %w", err)
	}
	return v, nil
}

func (d *DatabaseStore) GetVerification(id string) (*models.BankVerification, error) {
	var v models.BankVerification
	err := d.db.First(&v, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (d *DatabaseStore) FindActiveVerification(ownerID, fingerprint string) (*models.BankVerification, error) {
	var v models.BankVerification
	err := d.db.
		Where("owner_id = ? AND account_fingerprint = ? AND status IN ?",
			ownerID, fingerprint, []string{models.StatusPending, models.StatusCodeSent}).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (d *DatabaseStore) FindVerifiedVerification(ownerID, fingerprint string) (*models.BankVerification, error) {
	var v models.BankVerification
	err := d.db.
		Where("owner_id = ? AND account_fingerprint = ? AND status = ?",
			ownerID, fingerprint, models.StatusVerified).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (d *DatabaseStore) UpdateVerification(id string, expectStatus string, expectAttempts int, update *VerificationUpdate) (*models.BankVerification, error) {
	changes := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if update.Status != "" {
		changes["status"] = update.Status
	}
	if update.AttemptCount != nil {
		changes["attempt_count"] = *update.AttemptCount
	}
	if update.ClearSecret {
		changes["secret_code"] = ""
	}
	if update.ProbeDispatchID != nil {
		changes["probe_dispatch_id"] = *update.ProbeDispatchID
	}
	if update.VerifiedAt != nil {
		changes["verified_at"] = *update.VerifiedAt
	}

	res := d.db.Model(&models.BankVerification{}).
		Where("id = ? AND status = ? AND attempt_count = ?", id, expectStatus, expectAttempts).
		Updates(changes)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing record from a lost race.
		if _, err := d.GetVerification(id); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}

	return d.GetVerification(id)
}

func (d *DatabaseStore) DeleteVerification(id string) error {
	res := d.db.Delete(&models.BankVerification{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) ListVerifiedAccounts(ownerID string) ([]*models.BankVerification, error) {
	var results []*models.BankVerification
	err := d.db.
		Where("owner_id = ? AND status = ?", ownerID, models.StatusVerified).
		Order("verified_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (d *DatabaseStore) ListVerificationsByStatus(status string) ([]*models.BankVerification, error) {
	var results []*models.BankVerification
	err := d.db.
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
