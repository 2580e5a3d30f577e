package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"whatsapp-notifier/logger"
	"whatsapp-notifier/models"
	"whatsapp-notifier/utils"

	"go.uber.org/zap"
)

// Sender delivers one template message. Implementations make a single attempt.
type Sender interface {
	Send(ctx context.Context, payload models.GatewayPayload) error
}

// GatewayError is a rejected or failed gateway call. StatusCode is zero when the
// request never got a response.
type GatewayError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("gateway request failed: %v", e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

const maxErrorBody = 64 << 10

// PartnerBotClient posts template payloads to the WhatsApp partner gateway.
type PartnerBotClient struct {
	url        string
	token      string
	httpClient *http.Client
}

func NewPartnerBotClient(url, token string, timeout time.Duration) *PartnerBotClient {
	return &PartnerBotClient{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send posts the payload once; only HTTP 200 counts as delivered.
func (c *PartnerBotClient) Send(ctx context.Context, payload models.GatewayPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &GatewayError{Err: fmt.Errorf("encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return &GatewayError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &GatewayError{Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode != http.StatusOK {
		return &GatewayError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}
	return nil
}

const tokenExpiryWarning = 7 * 24 * time.Hour

// CheckGatewayToken logs a warning when the gateway token is a JWT that has
// expired or expires within a week. Opaque tokens are not checked.
func CheckGatewayToken(token string, now time.Time) {
	expiresAt, ok, err := utils.TokenExpiry(token)
	if err != nil {
		logger.Warn("Could not read gateway token expiry", zap.Error(err))
		return
	}
	if !ok {
		logger.Debug("Gateway token has no expiry claim")
		return
	}

	remaining := expiresAt.Sub(now)
	switch {
	case remaining <= 0:
		logger.Warn("Gateway token has expired, every send will fail",
			zap.Time("expired_at", expiresAt))
	case remaining <= tokenExpiryWarning:
		logger.Warn("Gateway token expires soon",
			zap.Time("expires_at", expiresAt),
			zap.Int("days_left", utils.DaysBetween(now, expiresAt.In(now.Location()))))
	default:
		logger.Info("Gateway token valid", zap.Time("expires_at", expiresAt))
	}
}
