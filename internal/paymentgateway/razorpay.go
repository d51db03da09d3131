package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// RazorpayGateway creates orders against the Razorpay orders API. Used for
// domestic (INR) checkouts.
type RazorpayGateway struct {
	client    *http.Client
	baseURL   string
	keyID     string
	keySecret string
	logger    *slog.Logger
}

func NewRazorpayGateway(baseURL, keyID, keySecret string, timeout time.Duration, logger *slog.Logger) *RazorpayGateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RazorpayGateway{
		client:    &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		logger:    logger,
	}
}

func (g *RazorpayGateway) Name() string {
	return "razorpay"
}

func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*Order, error) {
	payload := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/orders", g.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(g.keyID, g.keySecret)

	g.logger.Info("creating gateway order",
		"gateway", g.Name(),
		"amount", amountMinor,
		"currency", currency,
		"receipt", receipt)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		g.logger.Error("gateway order request failed", "gateway", g.Name(), "error", err)
		return nil, fmt.Errorf("order request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read order response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		g.logger.Error("gateway order API returned error",
			"gateway", g.Name(),
			"status", resp.StatusCode,
			"response", string(respBody))
		return nil, fmt.Errorf("order API status %d", resp.StatusCode)
	}

	var order Order
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}

	g.logger.Info("gateway order created",
		"gateway", g.Name(),
		"order_id", order.ID,
		"amount", order.Amount)

	return &order, nil
}
