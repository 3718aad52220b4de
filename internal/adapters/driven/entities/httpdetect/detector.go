// Package httpdetect provides an entity detector adapter backed by an
// HTTP NER service.
package httpdetect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
)

// Ensure Detector implements the interface.
var _ driven.EntityDetector = (*Detector)(nil)

// Default configuration values.
const (
	DefaultTimeout = 15 * time.Second
)

// Config holds configuration for the HTTP entity detector.
type Config struct {
	// Endpoint is the detection service URL (required), e.g.
	// http://localhost:8090/v1/entities.
	Endpoint string

	// APIKey is an optional bearer token.
	APIKey string

	// Timeout is the per-window request timeout (default: 15s).
	Timeout time.Duration
}

// Detector finds entity boundaries by calling an external NER service
// per window of text.
type Detector struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// detectRequest is the detection service request format.
type detectRequest struct {
	Text string `json:"text"`
}

// detectResponse is the detection service response format.
type detectResponse struct {
	Entities []struct {
		Start int    `json:"start"`
		End   int    `json:"end"`
		Type  string `json:"type"`
	} `json:"entities"`
	Error string `json:"error,omitempty"`
}

// kindMap translates service entity types to domain kinds. Unknown
// types are dropped rather than guessed.
var kindMap = map[string]driven.EntityKind{
	"person":       driven.EntityPerson,
	"organization": driven.EntityOrganization,
	"org":          driven.EntityOrganization,
	"date":         driven.EntityDate,
	"amount":       driven.EntityAmount,
	"money":        driven.EntityAmount,
	"clause":       driven.EntityClause,
}

// NewDetector creates a new HTTP entity detector.
func NewDetector(cfg Config) (*Detector, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("httpdetect: endpoint is required: %w", domain.ErrInvalidInput)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Detector{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
	}, nil
}

// DetectEntities returns entity spans found in the window. Offsets in
// the response are relative to the window, matching the port contract.
func (d *Detector) DetectEntities(ctx context.Context, window string) ([]driven.EntitySpan, error) {
	jsonBody, err := json.Marshal(detectRequest{Text: window})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w: %w", err, domain.ErrTransient)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w: %w", err, domain.ErrTransient)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, string(body))
	}

	var detectResp detectResponse
	if err := json.Unmarshal(body, &detectResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if detectResp.Error != "" {
		return nil, fmt.Errorf("httpdetect error: %s", detectResp.Error)
	}

	spans := make([]driven.EntitySpan, 0, len(detectResp.Entities))
	for _, e := range detectResp.Entities {
		kind, ok := kindMap[e.Type]
		if !ok {
			continue
		}
		if e.Start < 0 || e.End > len(window) || e.Start >= e.End {
			continue
		}
		spans = append(spans, driven.EntitySpan{
			Start: e.Start,
			End:   e.End,
			Kind:  kind,
		})
	}
	return spans, nil
}

// classifyStatus maps an HTTP status code to a domain error class.
func classifyStatus(status int, message string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("httpdetect error (status %d): %s: %w", status, message, domain.ErrPersistentAuth)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("httpdetect error (status %d): %s: %w: %w", status, message, domain.ErrRateLimited, domain.ErrTransient)
	case status >= 500:
		return fmt.Errorf("httpdetect error (status %d): %s: %w", status, message, domain.ErrTransient)
	default:
		return fmt.Errorf("httpdetect error (status %d): %s", status, message)
	}
}
