// Package edge calls the remote bank statement parser and payment matcher.
// Both are opaque functions hosted next to the database; only their request
// and response contracts are known here.
package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/metrics"
)

const (
	FunctionParseBankStatement = "parse-bank-statement"
	FunctionReconcilePayments  = "reconcile-payments"
)

// ParseResult is the parser's reply.
type ParseResult struct {
	Success          bool   `json:"success"`
	TransactionCount int    `json:"transactionCount"`
	Error            string `json:"error,omitempty"`
}

// Summary is the matcher's aggregate report.
type Summary struct {
	AutoMatched    int `json:"auto_matched"`
	ReviewRequired int `json:"review_required"`
	Unmatched      int `json:"unmatched"`
	TotalPayments  int `json:"total_payments"`
}

// ReconcileResult is the matcher's reply.
type ReconcileResult struct {
	Success bool    `json:"success"`
	Summary Summary `json:"summary"`
	Error   string  `json:"error,omitempty"`
}

// Client invokes edge functions at {baseURL}/functions/v1/{name}.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client. A zero timeout leaves calls unbounded.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, apiKey, &http.Client{Timeout: timeout})
}

func NewClientWithHTTP(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// ParseBankStatement sends the raw CSV for a session to the parser, which
// writes bank_transactions rows for it.
func (c *Client) ParseBankStatement(ctx context.Context, csvContent string, sessionID uuid.UUID) (*ParseResult, error) {
	body := map[string]string{"csvContent": csvContent, "sessionId": sessionID.String()}
	var out ParseResult
	if err := c.invoke(ctx, FunctionParseBankStatement, body, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return &out, fmt.Errorf("%s: %s", FunctionParseBankStatement, failureReason(out.Error))
	}
	return &out, nil
}

// ReconcilePayments asks the matcher to score the session's transactions
// against open payments, writing payment_reconciliations rows.
func (c *Client) ReconcilePayments(ctx context.Context, sessionID uuid.UUID) (*ReconcileResult, error) {
	body := map[string]string{"sessionId": sessionID.String()}
	var out ReconcileResult
	if err := c.invoke(ctx, FunctionReconcilePayments, body, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return &out, fmt.Errorf("%s: %s", FunctionReconcilePayments, failureReason(out.Error))
	}
	return &out, nil
}

func failureReason(msg string) string {
	if msg == "" {
		return "function reported failure"
	}
	return msg
}

func (c *Client) invoke(ctx context.Context, name string, body, out any) (err error) {
	logger.ExternalServiceCall("edge", name)
	start := time.Now()
	defer func() {
		metrics.EdgeCallDuration.WithLabelValues(name, metrics.Outcome(err)).Observe(time.Since(start).Seconds())
		logger.ExternalServiceResult("edge", name, err, "duration", time.Since(start))
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/functions/v1/"+name, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("calling %s: unexpected status %d: %s", name, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", name, err)
	}
	return nil
}
