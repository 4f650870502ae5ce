package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// HTTPGateway calls the provider's REST API. Requests are authenticated
// with the shared webhook secret via an HMAC header over the JSON body.
type HTTPGateway struct {
	BaseURL  string
	ClientID string
	Secret   string
	Client   *http.Client
}

func NewHTTPGateway(baseURL, clientID, secret string) *HTTPGateway {
	return &HTTPGateway{
		BaseURL:  baseURL,
		ClientID: clientID,
		Secret:   secret,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *HTTPGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, reference string) (string, error) {
	body := map[string]interface{}{
		"amount":    amount.StringFixed(2),
		"currency":  currency,
		"reference": reference,
	}

	var response struct {
		OrderID string `json:"order_id"`
	}
	if err := g.post(ctx, "/v1/orders", body, &response); err != nil {
		return "", err
	}
	if response.OrderID == "" {
		return "", fmt.Errorf("gateway returned an empty order id")
	}
	return response.OrderID, nil
}

func (g *HTTPGateway) RefundPayment(ctx context.Context, paymentID string, amount decimal.Decimal) (string, error) {
	body := map[string]interface{}{
		"amount": amount.StringFixed(2),
	}

	var response struct {
		RefundID string `json:"refund_id"`
	}
	path := fmt.Sprintf("/v1/payments/%s/refund", paymentID)
	if err := g.post(ctx, path, body, &response); err != nil {
		return "", err
	}
	return response.RefundID, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, body map[string]interface{}, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Client-Id", g.ClientID)
	req.Header.Set("Signature", bodySignature(g.Secret, jsonBody))

	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("gateway responded with status %d: %s", resp.StatusCode, payload)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to parse gateway response: %w", err)
	}
	return nil
}

func bodySignature(secret string, body []byte) string {
	return Sign(secret, "body", string(body))
}
