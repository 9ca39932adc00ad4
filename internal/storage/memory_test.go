package storage

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andy54411/taskilo-payout-backend/internal/models"
)

func newTestRecord(ownerID, fingerprint, status string) *models.BankVerification {
	return &models.BankVerification{
		OwnerID:            ownerID,
		IBAN:               "DE89370400440532013000",
		AccountFingerprint: fingerprint,
		MaskedIBAN:         "DE89******3000",
		AccountHolder:      "Acme GmbH",
		Status:             status,
		SecretCode:         "AB12CD",
		CodeExpiresAt:      time.Now().Add(time.Hour),
		MaxAttempts:        3,
	}
}

func TestMemoryStore_CreateVerification(t *testing.T) {
	t.Run("assigns id and timestamps", func(t *testing.T) {
		store := NewMemoryStore()
		created, err := store.CreateVerification(newTestRecord("c1", "fp1", models.StatusPending))
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())
	})

	t.Run("rejects a second open record for the same account", func(t *testing.T) {
		store := NewMemoryStore()
		_, err := store.CreateVerification(newTestRecord("c1", "fp1", models.StatusPending))
		require.NoError(t, err)

		_, err = store.CreateVerification(newTestRecord("c1", "fp1", models.StatusPending))
		assert.ErrorIs(t, err, ErrDuplicateActive)
	})

	t.Run("closed records do not block a new cycle", func(t *testing.T) {
		store := NewMemoryStore()
		_, err := store.CreateVerification(newTestRecord("c1", "fp1", models.StatusExpired))
		require.NoError(t, err)

		_, err = store.CreateVerification(newTestRecord("c1", "fp1", models.StatusPending))
		assert.NoError(t, err)
	})

	t.Run("other owners and accounts are independent", func(t *testing.T) {
		store := NewMemoryStore()
		_, err := store.CreateVerification(newTestRecord("c1", "fp1", models.StatusPending))
		require.NoError(t, err)

		_, err = store.CreateVerification(newTestRecord("c2", "fp1", models.StatusPending))
		assert.NoError(t, err)
		_, err = store.CreateVerification(newTestRecord("c1", "fp2", models.StatusPending))
		assert.NoError(t, err)
	})

	t.Run("concurrent creates admit exactly one record", func(t *testing.T) {
		store := NewMemoryStore()
		var wg sync.WaitGroup
		var mu sync.Mutex
		created := 0

		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.CreateVerification(newTestRecord("c1", "fp1", models.StatusPending)); err == nil {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, created)
	})
}

func TestMemoryStore_UpdateVerification(t *testing.T) {
	t.Run("applies changes when the precondition holds", func(t *testing.T) {
		store := NewMemoryStore()
		created, err := store.CreateVerification(newTestRecord("c1", "fp1", models.StatusPending))
		require.NoError(t, err)

		dispatchID := "pay_123"
		updated, err := store.UpdateVerification(created.ID, models.StatusPending, 0, &VerificationUpdate{
			Status:          models.StatusCodeSent,
			ProbeDispatchID: &dispatchID,
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusCodeSent, updated.Status)
		assert.Equal(t, "pay_123", updated.ProbeDispatchID)
		assert.Equal(t, "AB12CD", updated.SecretCode, "secret untouched unless cleared")
	})

	t.Run("conflicts when status or attempts moved", func(t *testing.T) {
		store := NewMemoryStore()
		created, err := store.CreateVerification(newTestRecord("c1", "fp1", models.StatusCodeSent))
		require.NoError(t, err)

		one := 1
		_, err = store.UpdateVerification(created.ID, models.StatusCodeSent, 0, &VerificationUpdate{AttemptCount: &one})
		require.NoError(t, err)

		// A second writer still expecting attempt 0 loses.
		two := 2
		_, err = store.UpdateVerification(created.ID, models.StatusCodeSent, 0, &VerificationUpdate{AttemptCount: &two})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("clears the secret on terminal writes", func(t *testing.T) {
		store := NewMemoryStore()
		created, err := store.CreateVerification(newTestRecord("c1", "fp1", models.StatusCodeSent))
		require.NoError(t, err)

		updated, err := store.UpdateVerification(created.ID, models.StatusCodeSent, 0, &VerificationUpdate{
			Status:      models.StatusFailed,
			ClearSecret: true,
		})
		require.NoError(t, err)
		assert.Empty(t, updated.SecretCode)
	})

	t.Run("unknown id", func(t *testing.T) {
		store := NewMemoryStore()
		_, err := store.UpdateVerification("missing", models.StatusPending, 0, &VerificationUpdate{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore_Lookups(t *testing.T) {
	store := NewMemoryStore()

	open, err := store.CreateVerification(newTestRecord("c1", "fp1", models.StatusCodeSent))
	require.NoError(t, err)
	_, err = store.CreateVerification(newTestRecord("c1", "fp2", models.StatusVerified))
	require.NoError(t, err)

	t.Run("find active", func(t *testing.T) {
		found, err := store.FindActiveVerification("c1", "fp1")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, open.ID, found.ID)

		missing, err := store.FindActiveVerification("c1", "fp2")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("find verified", func(t *testing.T) {
		found, err := store.FindVerifiedVerification("c1", "fp2")
		require.NoError(t, err)
		assert.NotNil(t, found)

		missing, err := store.FindVerifiedVerification("c1", "fp1")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("list verified accounts", func(t *testing.T) {
		accounts, err := store.ListVerifiedAccounts("c1")
		require.NoError(t, err)
		assert.Len(t, accounts, 1)
	})

	t.Run("list by status", func(t *testing.T) {
		records, err := store.ListVerificationsByStatus(models.StatusCodeSent)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		found, err := store.GetVerification(open.ID)
		require.NoError(t, err)
		found.Status = models.StatusFailed

		again, err := store.GetVerification(open.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCodeSent, again.Status)
	})
}

func TestMemoryStore_DeleteVerification(t *testing.T) {
	store := NewMemoryStore()
	created, err := store.CreateVerification(newTestRecord("c1", "fp1", models.StatusPending))
	require.NoError(t, err)

	require.NoError(t, store.DeleteVerification(created.ID))
	_, err = store.GetVerification(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.DeleteVerification(created.ID), ErrNotFound)
}
