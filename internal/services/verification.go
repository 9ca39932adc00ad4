package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Andy54411/taskilo-payout-backend/internal/bankid"
	"github.com/Andy54411/taskilo-payout-backend/internal/interfaces"
	"github.com/Andy54411/taskilo-payout-backend/internal/models"
	"github.com/Andy54411/taskilo-payout-backend/internal/storage"
	"github.com/Andy54411/taskilo-payout-backend/internal/utils"
)

// Verification policy. The probe carries the code in its reference text, so
// the account holder can read it off the statement line.
const (
	MaxVerificationAttempts = 3
	CodeValidityWindow      = 7 * 24 * time.Hour
	ProbeCurrency           = "EUR"
	ProbeReferencePrefix    = "TASKILO-VERIFY "

	// conflictRetries bounds the re-read-and-retry loop around optimistic
	// store updates.
	conflictRetries = 3
)

// ProbeAmount is the fixed transfer value: one cent.
var ProbeAmount = decimal.New(1, -2)

// VerificationService owns the bank account verification state machine. All
// invariants live here; storage provides atomic check-and-create plus
// conditional updates, the dispatcher moves the actual money.
type VerificationService struct {
	store      storage.Store
	dispatcher ProbeDispatcher
	events     interfaces.EventPublisher
	now        func() time.Time
}

// NewVerificationService creates a verification service. events may be nil
// when no broker is configured.
func NewVerificationService(store storage.Store, dispatcher ProbeDispatcher, events interfaces.EventPublisher) *VerificationService {
	return &VerificationService{
		store:      store,
		dispatcher: dispatcher,
		events:     events,
		now:        time.Now,
	}
}

// Initiate starts a verification cycle for a payout account. Already-verified
// identities short-circuit to success without a new probe; an unexpired open
// cycle is returned as-is so double submits never dispatch twice. Dispatch
// failure rolls back the just-created record.
func (s *VerificationService) Initiate(ctx context.Context, ownerID string, req *models.BankVerificationRequest) (*models.InitiateResult, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: missing company id", ErrValidation)
	}
	if req.AccountHolder == "" {
		return nil, fmt.Errorf("%w: account holder name is required", ErrValidation)
	}
	if err := bankid.Validate(req.IBAN); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	iban := bankid.Normalize(req.IBAN)
	fingerprint := bankid.Fingerprint(iban)
	masked := bankid.Mask(iban)

	if verified, err := s.store.FindVerifiedVerification(ownerID, fingerprint); err != nil {
		return nil, err
	} else if verified != nil {
		return &models.InitiateResult{
			VerificationID:  verified.ID,
			MaskedIBAN:      verified.MaskedIBAN,
			AlreadyVerified: true,
		}, nil
	}

	for i := 0; i < conflictRetries; i++ {
		active, err := s.store.FindActiveVerification(ownerID, fingerprint)
		if err != nil {
			return nil, err
		}
		if active != nil {
			if !active.CodeExpired(s.now()) {
				return &models.InitiateResult{
					VerificationID: active.ID,
					MaskedIBAN:     active.MaskedIBAN,
					ExpiresAt:      active.CodeExpiresAt,
					AlreadyPending: true,
				}, nil
			}
			// Stale open cycle: close it before starting a new one. A
			// conflict means another caller got there first; re-read.
			_, err = s.store.UpdateVerification(active.ID, active.Status, active.AttemptCount, &storage.VerificationUpdate{
				Status:      models.StatusExpired,
				ClearSecret: true,
			})
			if err != nil && !errors.Is(err, storage.ErrConflict) && !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
			if err != nil {
				continue
			}
			s.publish(models.EventExpired, active)
		}

		code, err := utils.GenerateVerificationCode()
		if err != nil {
			return nil, err
		}

		record := &models.BankVerification{
			OwnerID:            ownerID,
			IBAN:               iban,
			AccountFingerprint: fingerprint,
			MaskedIBAN:         masked,
			BIC:                req.BIC,
			AccountHolder:      req.AccountHolder,
			BankName:           req.BankName,
			Status:             models.StatusPending,
			SecretCode:         code,
			CodeExpiresAt:      s.now().Add(CodeValidityWindow),
			ProbeAmount:        ProbeAmount,
			ProbeCurrency:      ProbeCurrency,
			ProbeReference:     ProbeReferencePrefix + code,
			MaxAttempts:        MaxVerificationAttempts,
		}

		created, err := s.store.CreateVerification(record)
		if errors.Is(err, storage.ErrDuplicateActive) {
			// Lost the create race; the next pass returns the winner.
			continue
		}
		if err != nil {
			return nil, err
		}

		dispatchID, err := s.dispatcher.SendProbe(ctx, &ProbeRequest{
			Amount:        created.ProbeAmount,
			Currency:      created.ProbeCurrency,
			IBAN:          created.IBAN,
			BIC:           created.BIC,
			AccountHolder: created.AccountHolder,
			Reference:     created.ProbeReference,
			Metadata: map[string]string{
				"purpose":         "bank_verification",
				"verification_id": created.ID,
				"owner_id":        ownerID,
			},
		})
		if err != nil {
			// The probe never went out: discard the record so the caller
			// can retry from a clean slate.
			if delErr := s.store.DeleteVerification(created.ID); delErr != nil {
				log.Printf("⚠️  Failed to roll back verification %s after dispatch failure: %v", created.ID, delErr)
			}
			if errors.Is(err, ErrDispatchFailed) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
		}

		updated, err := s.store.UpdateVerification(created.ID, models.StatusPending, 0, &storage.VerificationUpdate{
			Status:          models.StatusCodeSent,
			ProbeDispatchID: &dispatchID,
		})
		if err != nil {
			// The probe is out either way; keep the cycle alive rather than
			// failing the request over bookkeeping.
			log.Printf("⚠️  Failed to mark verification %s as code_sent: %v", created.ID, err)
			updated = created
		}

		s.publish(models.EventCodeSent, updated)

		return &models.InitiateResult{
			VerificationID: updated.ID,
			MaskedIBAN:     updated.MaskedIBAN,
			ExpiresAt:      updated.CodeExpiresAt,
		}, nil
	}

	return nil, fmt.Errorf("could not initiate verification, too many concurrent attempts")
}

// VerifyCode checks a user-submitted code against an open verification.
// Expiry and the attempt budget are enforced before any comparison, and every
// transition is a conditional update so concurrent submissions cannot slip
// past the budget.
func (s *VerificationService) VerifyCode(ctx context.Context, ownerID, verificationID, code string) (*models.VerifyResult, error) {
	for i := 0; i < conflictRetries; i++ {
		v, err := s.store.GetVerification(verificationID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		if err != nil {
			return nil, err
		}
		if v.OwnerID != ownerID {
			return nil, ErrUnauthorized
		}

		switch v.Status {
		case models.StatusVerified:
			return &models.VerifyResult{Verified: true}, nil
		case models.StatusExpired:
			return nil, ErrCodeExpired
		case models.StatusFailed:
			return nil, ErrAttemptsExhausted
		}

		if v.CodeExpired(s.now()) {
			_, err := s.store.UpdateVerification(v.ID, v.Status, v.AttemptCount, &storage.VerificationUpdate{
				Status:      models.StatusExpired,
				ClearSecret: true,
			})
			if errors.Is(err, storage.ErrConflict) {
				continue
			}
			if err != nil {
				return nil, err
			}
			s.publish(models.EventExpired, v)
			return nil, ErrCodeExpired
		}

		if v.AttemptCount >= v.MaxAttempts {
			_, err := s.store.UpdateVerification(v.ID, v.Status, v.AttemptCount, &storage.VerificationUpdate{
				Status:      models.StatusFailed,
				ClearSecret: true,
			})
			if errors.Is(err, storage.ErrConflict) {
				continue
			}
			if err != nil {
				return nil, err
			}
			s.publish(models.EventFailed, v)
			return nil, ErrAttemptsExhausted
		}

		if utils.CodesMatch(code, v.SecretCode) {
			verifiedAt := s.now()
			updated, err := s.store.UpdateVerification(v.ID, v.Status, v.AttemptCount, &storage.VerificationUpdate{
				Status:      models.StatusVerified,
				ClearSecret: true,
				VerifiedAt:  &verifiedAt,
			})
			if errors.Is(err, storage.ErrConflict) {
				continue
			}
			if err != nil {
				return nil, err
			}
			s.publish(models.EventVerified, updated)
			return &models.VerifyResult{Verified: true}, nil
		}

		attempts := v.AttemptCount + 1
		if attempts >= v.MaxAttempts {
			_, err := s.store.UpdateVerification(v.ID, v.Status, v.AttemptCount, &storage.VerificationUpdate{
				Status:       models.StatusFailed,
				AttemptCount: &attempts,
				ClearSecret:  true,
			})
			if errors.Is(err, storage.ErrConflict) {
				continue
			}
			if err != nil {
				return nil, err
			}
			s.publish(models.EventFailed, v)
			return nil, ErrAttemptsExhausted
		}

		_, err = s.store.UpdateVerification(v.ID, v.Status, v.AttemptCount, &storage.VerificationUpdate{
			AttemptCount: &attempts,
		})
		if errors.Is(err, storage.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return nil, &CodeMismatchError{RemainingAttempts: v.MaxAttempts - attempts}
	}

	return nil, storage.ErrConflict
}

// Resend closes the current cycle and starts a fresh one with a new code,
// probe and expiry window for the same account details.
func (s *VerificationService) Resend(ctx context.Context, ownerID, verificationID string) (*models.InitiateResult, error) {
	v, err := s.store.GetVerification(verificationID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if v.OwnerID != ownerID {
		return nil, ErrUnauthorized
	}

	if v.Status == models.StatusVerified {
		return &models.InitiateResult{
			VerificationID:  v.ID,
			MaskedIBAN:      v.MaskedIBAN,
			AlreadyVerified: true,
		}, nil
	}

	if v.IsOpen() {
		_, err := s.store.UpdateVerification(v.ID, v.Status, v.AttemptCount, &storage.VerificationUpdate{
			Status:      models.StatusExpired,
			ClearSecret: true,
		})
		if err != nil && !errors.Is(err, storage.ErrConflict) {
			return nil, err
		}
		if err == nil {
			s.publish(models.EventExpired, v)
		}
	}

	return s.Initiate(ctx, ownerID, &models.BankVerificationRequest{
		IBAN:          v.IBAN,
		BIC:           v.BIC,
		AccountHolder: v.AccountHolder,
		BankName:      v.BankName,
	})
}

// IsVerified reports whether the given account identity has been verified for
// the owner.
func (s *VerificationService) IsVerified(ownerID, iban string) (bool, error) {
	v, err := s.store.FindVerifiedVerification(ownerID, bankid.Fingerprint(iban))
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// ListVerifiedAccounts returns the owner's verified payout accounts in their
// display-safe form.
func (s *VerificationService) ListVerifiedAccounts(ownerID string) ([]*models.VerifiedAccount, error) {
	records, err := s.store.ListVerifiedAccounts(ownerID)
	if err != nil {
		return nil, err
	}

	accounts := make([]*models.VerifiedAccount, 0, len(records))
	for _, v := range records {
		accounts = append(accounts, &models.VerifiedAccount{
			MaskedIBAN:    v.MaskedIBAN,
			AccountHolder: v.AccountHolder,
			BankName:      v.BankName,
			VerifiedAt:    v.VerifiedAt,
		})
	}
	return accounts, nil
}

// publish emits a lifecycle event. Events are secondary bookkeeping: a
// failure is logged and never changes the verification outcome.
func (s *VerificationService) publish(event string, v *models.BankVerification) {
	if s.events == nil {
		return
	}

	payload, err := json.Marshal(models.VerificationEvent{
		Event:          event,
		VerificationID: v.ID,
		OwnerID:        v.OwnerID,
		MaskedIBAN:     v.MaskedIBAN,
		AccountHolder:  v.AccountHolder,
		OccurredAt:     s.now(),
	})
	if err != nil {
		log.Printf("⚠️  Failed to encode %s event: %v", event, err)
		return
	}

	if err := s.events.PublishMessage([]byte(v.OwnerID), payload); err != nil {
		log.Printf("⚠️  Failed to publish %s event for verification %s: %v", event, v.ID, err)
	}
}
