// Package webhook posts fire-and-forget notifications to the automation
// workflows that react to signups, verifications and composed messages.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/metrics"
)

const (
	EventUserSignedUp    = "user_signed_up"
	EventUserVerified    = "user_verified"
	EventMessageComposed = "message_composed"
)

// URLs are the fixed destinations per event. An empty URL disables the event.
type URLs struct {
	Signup       string
	Verification string
	Message      string
}

// Payload is the JSON body posted for every event.
type Payload struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type Notifier struct {
	urls       URLs
	httpClient *http.Client
	wg         sync.WaitGroup
}

func NewNotifier(urls URLs, httpClient *http.Client) *Notifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Notifier{urls: urls, httpClient: httpClient}
}

func (n *Notifier) UserSignedUp(u *domain.User) {
	n.fire(n.urls.Signup, EventUserSignedUp, map[string]any{
		"user_id":   u.ID,
		"email":     u.Email,
		"full_name": u.FullName,
	})
}

func (n *Notifier) UserVerified(u *domain.User) {
	n.fire(n.urls.Verification, EventUserVerified, map[string]any{
		"user_id": u.ID,
		"email":   u.Email,
	})
}

func (n *Notifier) MessageComposed(m *domain.Message) {
	n.fire(n.urls.Message, EventMessageComposed, map[string]any{
		"message_id": m.ID,
		"sender_id":  m.SenderID,
		"tenant_id":  m.TenantID,
		"subject":    m.Subject,
		"body":       m.Body,
	})
}

// Wait blocks until every in-flight delivery has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// fire delivers in the background. Errors are logged and dropped.
func (n *Notifier) fire(url, event string, data any) {
	if url == "" {
		logger.Debug("Webhook disabled", "event", event)
		return
	}
	payload := Payload{Event: event, Timestamp: time.Now().UTC(), Data: data}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		err := n.post(context.Background(), url, payload)
		metrics.WebhookDeliveries.WithLabelValues(event, metrics.Outcome(err)).Inc()
		logger.ExternalServiceResult("webhook", event, err)
	}()
}

func (n *Notifier) post(ctx context.Context, url string, payload Payload) error {
	logger.ExternalServiceCall("webhook", payload.Event, "url", url)
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s: unexpected status %d", payload.Event, resp.StatusCode)
	}
	return nil
}
