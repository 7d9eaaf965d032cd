package gateway

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/draw-master/draw-master-api/pkg/config"
)

// StripeGateway talks to the Stripe payment-intents API over HTTPS.
type StripeGateway struct {
	client   *resty.Client
	currency string
	logger   *zap.Logger
}

type stripeErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewStripeGateway builds a gateway client from configuration.
func NewStripeGateway(cfg config.GatewayConfig, logger *zap.Logger) *StripeGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetAuthToken(cfg.SecretKey).
		SetHeader("Content-Type", "application/x-www-form-urlencoded")
	return &StripeGateway{client: client, currency: cfg.Currency, logger: logger}
}

// CreateIntent requests a payment intent for the given minor-unit amount.
func (g *StripeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string) (*Intent, error) {
	if amountMinor <= 0 {
		return nil, &Error{Type: "invalid_request_error", Message: "amount must be positive"}
	}
	if currency == "" {
		currency = g.currency
	}

	var intent Intent
	var apiErr stripeErrorBody
	resp, err := g.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"amount":                 strconv.FormatInt(amountMinor, 10),
			"currency":               currency,
			"payment_method_types[]": "card",
		}).
		SetResult(&intent).
		SetError(&apiErr).
		Post("/v1/payment_intents")
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	if resp.IsError() {
		g.logger.Warn("gateway rejected charge",
			zap.Int("status", resp.StatusCode()),
			zap.String("type", apiErr.Error.Type),
		)
		return nil, &Error{Type: apiErr.Error.Type, Message: apiErr.Error.Message}
	}
	return &intent, nil
}
