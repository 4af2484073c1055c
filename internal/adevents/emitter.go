// Package adevents fires conversion events at Meta's Graph API so an ad
// campaign can attribute a WhatsApp receipt back to the click that started
// the conversation. A fire-and-forget HTTP POST: build a request, submit
// with a client-side timeout, and log rather than propagate on failure.
package adevents

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const graphAPIBase = "https://graph.facebook.com/v18.0"

// Purchase carries the fields of one conversion event: a receipt accepted by
// the pipeline becomes a Purchase conversion via EmitPurchase, and EmitLead
// reuses it, without value or currency, for a Lead event.
type Purchase struct {
	ExternalID string // contact phone, hashed before it leaves this package
	Value      float64
	Currency   string
	SourceURL  string
}

// Emitter posts conversion events for one advertising page/pixel.
type Emitter struct {
	PixelID       string
	AccessToken   string
	TestEventCode string
	client        *http.Client
}

// New constructs an Emitter bound to one pixel/access-token pair.
func New(pixelID, accessToken, testEventCode string) *Emitter {
	return &Emitter{
		PixelID:       pixelID,
		AccessToken:   accessToken,
		TestEventCode: testEventCode,
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

// EmitPurchase fires the event in the background and never blocks the
// caller on the HTTP round trip; failures are logged, not returned, per
// the pipeline's best-effort persistence policy.
func (e *Emitter) EmitPurchase(ctx context.Context, p Purchase) {
	if e == nil || e.PixelID == "" || e.AccessToken == "" {
		return
	}

	go func() {
		if err := e.post(context.Background(), "Purchase", p); err != nil {
			log.Printf("WARNING: adevents: emit failed: %v", err)
		}
	}()
}

// EmitLead fires a Lead conversion event for a first-touch contact, the
// same fire-and-forget shape as EmitPurchase but without custom_data.
func (e *Emitter) EmitLead(ctx context.Context, externalID, sourceURL string) {
	if e == nil || e.PixelID == "" || e.AccessToken == "" {
		return
	}

	go func() {
		p := Purchase{ExternalID: externalID, SourceURL: sourceURL}
		if err := e.post(context.Background(), "Lead", p); err != nil {
			log.Printf("WARNING: adevents: emit failed: %v", err)
		}
	}()
}

func (e *Emitter) post(ctx context.Context, eventName string, p Purchase) error {
	entry := map[string]interface{}{
		"event_name":        eventName,
		"event_time":        time.Now().Unix(),
		"event_id":          uuid.NewString(),
		"action_source":     "chat",
		"event_source_url":  p.SourceURL,
		"user_data": map[string]string{
			"external_id": hashExternalID(p.ExternalID),
		},
		"test_event_code": e.TestEventCode,
	}
	if p.Currency != "" {
		entry["custom_data"] = map[string]interface{}{
			"value":    p.Value,
			"currency": p.Currency,
		}
	}

	payload := map[string]interface{}{
		"data": []map[string]interface{}{entry},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/events?access_token=%s", graphAPIBase, e.PixelID, e.AccessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("graph API error (status %d)", resp.StatusCode)
	}
	return nil
}

// hashExternalID normalizes and sha256-hashes a contact phone number,
// matching the Graph API's expected PII-hashing format for user_data.
func hashExternalID(contact string) string {
	normalized := strings.ToLower(strings.TrimSpace(contact))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
