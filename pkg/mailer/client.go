package mailer

import (
	"bytes"
	"context"
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
	errRelayRequired  = errors.New("mailer relay url is required")
	errRecipientEmpty = errors.New("recipient email is required")
	errRelayRejected  = errors.New("mail relay rejected the message")
)

// Message is a single transactional email handed to the relay.
type Message struct {
	To      string            `json:"to"`
	From    string            `json:"from"`
	Subject string            `json:"subject"`
	Body    string            `json:"body"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// Client delivers transactional email through the HTTP relay. Calls run
// behind a circuit breaker so a relay outage fails fast instead of
// holding request goroutines on a dead upstream.
type Client struct {
	relayURL    string
	apiKey      string
	defaultFrom string
	http        *http.Client
	breaker     *gobreaker.CircuitBreaker
}

func NewClient(cfg config.MailerConfig) (*Client, error) {
	relay := strings.TrimSuffix(strings.TrimSpace(cfg.RelayURL), "/")
	if relay == "" {
		return nil, errRelayRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		relayURL:    relay,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		defaultFrom: strings.TrimSpace(cfg.DefaultFrom),
		http:        &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "mailer",
			Timeout: 20 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}, nil
}

// Send posts the message to the relay. The relay handles templating and
// retries; a non-2xx response is a hard failure here.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errRecipientEmpty
	}
	if msg.From == "" {
		msg.From = c.defaultFrom
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	_, err = c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayURL+"/v1/send", bytes.NewReader(body))
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
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("%w: status %d", errRelayRejected, resp.StatusCode)
		}
		return nil, nil
	})
	return err
}
