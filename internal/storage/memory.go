package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Andy54411/taskilo-payout-backend/internal/models"
)

// MemoryStore holds all verification records in memory, used for tests and
// local development. All invariants the DatabaseStore enforces with a partial
// unique index and conditional UPDATEs are enforced here under one mutex.
type MemoryStore struct {
	verifications map[string]*models.BankVerification
	mu            sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		verifications: make(map[string]*models.BankVerification),
	}
}

func cloneVerification(v *models.BankVerification) *models.BankVerification {
	c := *v
	return &c
}

func (m *MemoryStore) CreateVerification(v *models.BankVerification) (*models.BankVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.verifications {
		if existing.OwnerID == v.OwnerID &&
			existing.AccountFingerprint == v.AccountFingerprint &&
			existing.IsOpen() {
			return nil, ErrDuplicateActive
		}
	}

	record := cloneVerification(v)
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	m.verifications[record.ID] = record
	return cloneVerification(record), nil
}

func (m *MemoryStore) GetVerification(id string) (*models.BankVerification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, exists := m.verifications[id]
	if !exists {
		return nil, ErrNotFound
	}
	return cloneVerification(v), nil
}

func (m *MemoryStore) FindActiveVerification(ownerID, fingerprint string) (*models.BankVerification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, v := range m.verifications {
		if v.OwnerID == ownerID && v.AccountFingerprint == fingerprint && v.IsOpen() {
			return cloneVerification(v), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) FindVerifiedVerification(ownerID, fingerprint string) (*models.BankVerification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, v := range m.verifications {
		if v.OwnerID == ownerID && v.AccountFingerprint == fingerprint && v.Status == models.StatusVerified {
			return cloneVerification(v), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) UpdateVerification(id string, expectStatus string, expectAttempts int, update *VerificationUpdate) (*models.BankVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, exists := m.verifications[id]
	if !exists {
		return nil, ErrNotFound
	}
	if v.Status != expectStatus || v.AttemptCount != expectAttempts {
		return nil, ErrConflict
	}

	if update.Status != "" {
		v.Status = update.Status
	}
	if update.AttemptCount != nil {
		v.AttemptCount = *update.AttemptCount
	}
	if update.ClearSecret {
		v.SecretCode = ""
	}
	if update.ProbeDispatchID != nil {
		v.ProbeDispatchID = *update.ProbeDispatchID
	}
	if update.VerifiedAt != nil {
		v.VerifiedAt = update.VerifiedAt
	}
	v.UpdatedAt = time.Now()

	return cloneVerification(v), nil
}

func (m *MemoryStore) DeleteVerification(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.verifications[id]; !exists {
		return ErrNotFound
	}
	delete(m.verifications, id)
	return nil
}

func (m *MemoryStore) ListVerifiedAccounts(ownerID string) ([]*models.BankVerification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []*models.BankVerification
	for _, v := range m.verifications {
		if v.OwnerID == ownerID && v.Status == models.StatusVerified {
			results = append(results, cloneVerification(v))
		}
	}
	return results, nil
}

func (m *MemoryStore) ListVerificationsByStatus(status string) ([]*models.BankVerification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []*models.BankVerification
	for _, v := range m.verifications {
		if v.Status == status {
			results = append(results, cloneVerification(v))
		}
	}
	return results, nil
}
