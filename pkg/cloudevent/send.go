package cloudevent

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Sender posts CloudEvents to callback URLs.
type Sender struct {
	client *http.Client
}

// NewSender creates a Sender with pooled transport settings.
func NewSender(timeout time.Duration) *Sender {
	return &Sender{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// SendOptions controls how a CloudEvent is sent.
type SendOptions struct {
	SigningKey string // HMAC key, empty = unsigned
}

// Send delivers a CloudEvent via HTTP POST, signing the body when a key is
// configured.
func (s *Sender) Send(ctx context.Context, url string, event *CloudEvent, opts SendOptions) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	for k, v := range map[string]string{
		"Content-Type":   "application/cloudevents+json",
		"Ce-Specversion": event.SpecVersion,
		"Ce-Type":        event.Type,
		"Ce-Source":      event.Source,
		"Ce-Subject":     event.Subject,
		"Ce-Id":          event.ID,
		"Ce-Time":        event.Time.Format(time.RFC3339),
	} {
		req.Header.Set(k, v)
	}
	if opts.SigningKey != "" {
		req.Header.Set("X-Signature-256", signPayload(body, opts.SigningKey))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &HTTPError{StatusCode: resp.StatusCode}
}

// Sign computes the HMAC-SHA256 signature a receiver should expect for an
// event signed with key.
func Sign(event *CloudEvent, key string) (string, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}
	return signPayload(body, key), nil
}

func signPayload(payload []byte, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// HTTPError is a non-2xx delivery response.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// IsClientError reports whether err is a 4xx response, which retrying
// cannot fix.
func IsClientError(err error) bool {
	if he, ok := err.(*HTTPError); ok {
		return he.StatusCode >= 400 && he.StatusCode < 500
	}
	return false
}
