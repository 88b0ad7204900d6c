// Package httpgateway is a payments.Charger speaking JSON over HTTP.
package httpgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"donors/internal/core"

	"github.com/google/uuid"
)

const maxErrorBody = 4 << 10

type Client struct {
	baseURL string
	http    *http.Client
	newKey  func() string
}

// New returns a client for the gateway at baseURL. A zero timeout means 15s.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		newKey:  uuid.NewString,
	}
}

type chargeRequest struct {
	AmountMinor        int64  `json:"amount_minor"`
	PaymentMethodToken string `json:"payment_method_token"`
}

type chargeResponse struct {
	SettlementID string `json:"settlement_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Charge posts the charge and returns the settlement id. A rejected or
// unreachable charge wraps core.ErrGateway; an accepted charge whose response
// carries no settlement id wraps core.ErrInconsistentState. Each call carries
// a fresh Idempotency-Key header.
func (c *Client) Charge(ctx context.Context, amountMinor int64, token, credential string) (string, error) {
	body, err := json.Marshal(chargeRequest{AmountMinor: amountMinor, PaymentMethodToken: token})
	if err != nil {
		return "", fmt.Errorf("encode charge: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build charge request: %w: %w", core.ErrGateway, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotency-Key", c.newKey())
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post charge: %w: %w", core.ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(raw))
		var e errorResponse
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return "", fmt.Errorf("charge rejected with status %d: %s: %w", resp.StatusCode, msg, core.ErrGateway)
	}

	// A 2xx means the gateway accepted the charge, so an unreadable body
	// leaves the outcome unknown.
	var out chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode charge response: %w: %w", core.ErrInconsistentState, err)
	}
	if out.SettlementID == "" {
		return "", fmt.Errorf("charge response without settlement_id: %w", core.ErrInconsistentState)
	}
	return out.SettlementID, nil
}
