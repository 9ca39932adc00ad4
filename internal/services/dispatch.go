package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// ProbeRequest describes the trivial transfer that carries a verification
// code to the account holder's statement.
type ProbeRequest struct {
	Amount        decimal.Decimal
	Currency      string
	IBAN          string
	BIC           string
	AccountHolder string
	Reference     string
	Metadata      map[string]string
}

// ProbeDispatcher schedules probe transfers on the external payment rail.
// The call is not transactional with local state: callers must create the
// local record first and roll it back if dispatch fails.
type ProbeDispatcher interface {
	SendProbe(ctx context.Context, req *ProbeRequest) (string, error)
}

// RevolutDispatcher sends probe transfers through the Revolut Business
// payments API.
type RevolutDispatcher struct {
	client   *http.Client
	baseURL  string
	apiToken string
}

// NewRevolutDispatcher creates a dispatcher from environment configuration.
func NewRevolutDispatcher() (*RevolutDispatcher, error) {
	baseURL := os.Getenv("REVOLUT_API_URL")
	apiToken := os.Getenv("REVOLUT_API_TOKEN")

	if baseURL == "" || apiToken == "" {
		return nil, fmt.Errorf("missing Revolut credentials in environment variables")
	}

	return &RevolutDispatcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		baseURL:  baseURL,
		apiToken: apiToken,
	}, nil
}

type revolutPayRequest struct {
	Amount        int64             `json:"amount"` // minor units
	Currency      string            `json:"currency"`
	IBAN          string            `json:"iban"`
	BIC           string            `json:"bic,omitempty"`
	AccountHolder string            `json:"account_holder"`
	Reference     string            `json:"reference"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type revolutPayResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// SendProbe schedules the transfer and returns the provider's payment id.
// Timeouts and transport failures are reported the same way as rejections:
// the transfer was not scheduled.
func (r *RevolutDispatcher) SendProbe(ctx context.Context, req *ProbeRequest) (string, error) {
	payload := revolutPayRequest{
		Amount:        req.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:      req.Currency,
		IBAN:          req.IBAN,
		BIC:           req.BIC,
		AccountHolder: req.AccountHolder,
		Reference:     req.Reference,
		Metadata:      req.Metadata,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode probe request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/pay", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build probe request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+r.apiToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		log.Printf("❌ Probe dispatch failed: %v", err)
		return "", fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("❌ Probe dispatch rejected: status %d: %s", resp.StatusCode, raw)
		return "", fmt.Errorf("%w: payment API returned status %d", ErrDispatchFailed, resp.StatusCode)
	}

	var payResp revolutPayResponse
	if err := json.NewDecoder(resp.Body).Decode(&payResp); err != nil {
		return "", fmt.Errorf("%w: unreadable payment API response: %v", ErrDispatchFailed, err)
	}

	log.Printf("✅ Probe transfer scheduled! ID: %s state: %s", payResp.ID, payResp.State)
	return payResp.ID, nil
}
