package paymentgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// StripeGateway creates payment intents against the Stripe API. Used for
// international (non-INR) checkouts. Stripe's API is form-encoded, unlike
// the domestic gateway's JSON.
type StripeGateway struct {
	client    *http.Client
	baseURL   string
	keyID     string // publishable key
	keySecret string
	logger    *slog.Logger
}

func NewStripeGateway(baseURL, publishableKey, secretKey string, timeout time.Duration, logger *slog.Logger) *StripeGateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &StripeGateway{
		client:    &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		keyID:     publishableKey,
		keySecret: secretKey,
		logger:    logger,
	}
}

func (g *StripeGateway) Name() string {
	return "stripe"
}

func (g *StripeGateway) KeyID() string {
	return g.keyID
}

func (g *StripeGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*Order, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("metadata[receipt]", receipt)

	endpoint := fmt.Sprintf("%s/v1/payment_intents", g.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create intent request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+g.keySecret)

	g.logger.Info("creating gateway order",
		"gateway", g.Name(),
		"amount", amountMinor,
		"currency", currency,
		"receipt", receipt)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		g.logger.Error("gateway intent request failed", "gateway", g.Name(), "error", err)
		return nil, fmt.Errorf("intent request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read intent response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		g.logger.Error("gateway intent API returned error",
			"gateway", g.Name(),
			"status", resp.StatusCode,
			"response", string(respBody))
		return nil, fmt.Errorf("intent API status %d", resp.StatusCode)
	}

	var intent struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(respBody, &intent); err != nil {
		return nil, fmt.Errorf("decode intent response: %w", err)
	}

	g.logger.Info("gateway order created",
		"gateway", g.Name(),
		"order_id", intent.ID,
		"amount", intent.Amount)

	return &Order{
		ID:       intent.ID,
		Amount:   intent.Amount,
		Currency: strings.ToUpper(intent.Currency),
	}, nil
}
