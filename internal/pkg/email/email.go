package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/exchangeintake/internal/pkg/httpx"
)

// ErrInvalidMessage is returned when a message lacks a sender, recipient or subject
var ErrInvalidMessage = errors.New("invalid email message")

// Client sends transactional emails
type Client interface {
	Send(ctx context.Context, msg Message) (*SendResult, error)
	Enabled() bool
}

// Config holds the mail API settings
type Config struct {
	APIKey  string
	BaseURL string
	From    string
	ReplyTo string
	Timeout time.Duration
	Retry   httpx.RetryConfig
}

// Attachment is a file sent along with a message
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is one outgoing email
type Message struct {
	From        string
	To          []string
	ReplyTo     string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// SendResult identifies an accepted message
type SendResult struct {
	ID string
}

// NewClient returns an HTTP mail client, or a client that only logs when no API key is set
func NewClient(cfg Config, httpClient *http.Client, logger zerolog.Logger) Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.Warn().Msg("Mail API key not configured - emails will be logged, not sent")
		return &logOnlyClient{logger: logger}
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.resend.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = httpx.DefaultRetryConfig()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &apiClient{cfg: cfg, http: httpClient, logger: logger}
}

type apiClient struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger
}

type wireAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type wireMessage struct {
	From        string           `json:"from"`
	To          []string         `json:"to"`
	ReplyTo     string           `json:"reply_to,omitempty"`
	Subject     string           `json:"subject"`
	HTML        string           `json:"html"`
	Attachments []wireAttachment `json:"attachments,omitempty"`
}

func (c *apiClient) Enabled() bool { return true }

// Send posts the message to the mail API, retrying throttled and failed attempts
func (c *apiClient) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if msg.From == "" {
		msg.From = c.cfg.From
	}
	if msg.ReplyTo == "" {
		msg.ReplyTo = c.cfg.ReplyTo
	}
	if err := validate(msg); err != nil {
		return nil, err
	}

	wire := wireMessage{
		From:    msg.From,
		To:      msg.To,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}
	for _, a := range msg.Attachments {
		wire.Attachments = append(wire.Attachments, wireAttachment{
			Filename: a.Filename,
			Content:  base64.StdEncoding.EncodeToString(a.Content),
		})
	}

	payload, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode email: %w", err)
	}

	_, body, err := httpx.DoWithRetry(ctx, c.http, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/emails", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, c.cfg.Retry)
	if err != nil {
		return nil, fmt.Errorf("send email %q: %w", msg.Subject, err)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode email response: %w", err)
	}

	c.logger.Info().Str("id", out.ID).Strs("to", msg.To).Str("subject", msg.Subject).Msg("Email sent")
	return &SendResult{ID: out.ID}, nil
}

type logOnlyClient struct {
	logger zerolog.Logger
}

func (c *logOnlyClient) Enabled() bool { return false }

func (c *logOnlyClient) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if err := validateRecipients(msg); err != nil {
		return nil, err
	}
	c.logger.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("Mail disabled - email not sent")
	return &SendResult{}, nil
}

func validateRecipients(msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("%w: no recipients", ErrInvalidMessage)
	}
	for _, to := range msg.To {
		if !strings.Contains(to, "@") {
			return fmt.Errorf("%w: bad recipient %q", ErrInvalidMessage, to)
		}
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("%w: subject required", ErrInvalidMessage)
	}
	return nil
}

func validate(msg Message) error {
	if strings.TrimSpace(msg.From) == "" {
		return fmt.Errorf("%w: sender required", ErrInvalidMessage)
	}
	return validateRecipients(msg)
}
