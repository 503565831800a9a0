// Package payment talks to the external payment gateway and tracks
// pending payments so redirect-based flows can be finalized on return.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

type gatewayConfig struct {
	BaseURL string
	APIKey  string
}

func gatewayFromEnv() gatewayConfig {
	return gatewayConfig{
		BaseURL: strings.TrimRight(os.Getenv("GATEWAY_BASE_URL"), "/"),
		APIKey:  os.Getenv("GATEWAY_API_KEY"),
	}
}

type gatewayRequestBody struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	OrderID     string `json:"order_id"`
	CallbackURL string `json:"callback_url"`
}

type gatewayRequestResponse struct {
	Success    bool   `json:"success"`
	PaymentURL string `json:"payment_url"`
	Ref        string `json:"ref"`
}

// requestPaymentURL registers the payment with the gateway and returns
// the redirect URL plus the gateway's reference. Without a configured
// gateway a mock URL is returned so local flows stay testable.
func requestPaymentURL(ctx context.Context, paymentID string, amount int64, description string) (url, ref string, err error) {
	cfg := gatewayFromEnv()
	if cfg.BaseURL == "" {
		mock := os.Getenv("MOCK_PAYMENT_URL")
		if mock == "" {
			mock = "https://pay.navaex.dev/mock/"
		}
		return mock + paymentID, "mock-" + paymentID, nil
	}

	callback := strings.TrimRight(os.Getenv("APP_URL"), "/") + "/api/payment/callback"
	body := gatewayRequestBody{
		Amount:      amount,
		Currency:    "IRT",
		Description: description,
		OrderID:     paymentID,
		CallbackURL: callback,
	}
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/request", bytes.NewReader(b))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("gateway request failed: status=%d body=%s", resp.StatusCode, string(msg))
	}

	var parsed gatewayRequestResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", "", err
	}
	if !parsed.Success || parsed.PaymentURL == "" {
		return "", "", fmt.Errorf("gateway rejected payment request")
	}
	return parsed.PaymentURL, parsed.Ref, nil
}

type gatewayVerifyResponse struct {
	Success bool  `json:"success"`
	Paid    bool  `json:"paid"`
	Amount  int64 `json:"amount"`
}

// verifyWithGateway confirms a returned payment with the gateway.
func verifyWithGateway(ctx context.Context, ref string) (bool, error) {
	cfg := gatewayFromEnv()
	if cfg.BaseURL == "" {
		// Mock gateway: every callback verifies.
		return true, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+"/verify?ref="+ref, nil)
	if err != nil {
		return false, err
	}
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("gateway verify failed: status=%d", resp.StatusCode)
	}

	var parsed gatewayVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, err
	}
	return parsed.Success && parsed.Paid, nil
}
