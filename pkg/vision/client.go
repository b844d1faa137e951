package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/gharseva/gharseva-backend/pkg/config"
)

var (
	errEndpointRequired = errors.New("vision endpoint is required")
	errImageEmpty       = errors.New("document image is required")
	errExtractRejected  = errors.New("vision service rejected the request")
)

// AadhaarExtraction holds the fields pulled from an Aadhaar card image.
// Only the last four digits of the number are ever retained.
type AadhaarExtraction struct {
	Name        string  `json:"name"`
	DateOfBirth string  `json:"date_of_birth"`
	Last4       string  `json:"aadhaar_last4"`
	Confidence  float64 `json:"confidence"`
}

// Client calls the vision model endpoint used for Aadhaar document
// verification during provider onboarding.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
}

func NewClient(cfg config.VisionConfig) (*Client, error) {
	endpoint := strings.TrimSuffix(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, errEndpointRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		endpoint: endpoint,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		model:    cfg.Model,
		http:     &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "vision",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}, nil
}

// ExtractAadhaar submits the document image and returns the parsed fields.
func (c *Client) ExtractAadhaar(ctx context.Context, image []byte) (*AadhaarExtraction, error) {
	if len(image) == 0 {
		return nil, errImageEmpty
	}

	body, err := json.Marshal(map[string]any{
		"model":     c.model,
		"task":      "aadhaar_extraction",
		"image_b64": base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	result, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/extract", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d", errExtractRejected, resp.StatusCode)
		}

		var extraction AadhaarExtraction
		if err := json.Unmarshal(raw, &extraction); err != nil {
			return nil, fmt.Errorf("decode extraction: %w", err)
		}
		return &extraction, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*AadhaarExtraction), nil
}
