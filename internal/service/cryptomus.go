package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clipmint/reelsbot/internal/domain"
)

// CryptomusClient talks to the Cryptomus merchant API for crypto top-ups.
type CryptomusClient struct {
	merchantID string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewCryptomusClient(merchantID, apiKey, baseURL string) *CryptomusClient {
	return &CryptomusClient{
		merchantID: merchantID,
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type CryptomusInvoice struct {
	PaymentURL string
	InvoiceID  string
}

func (c *CryptomusClient) CreateInvoice(ctx context.Context, amountUSD float64) (*CryptomusInvoice, error) {
	payload := map[string]interface{}{
		"amount":   fmt.Sprintf("%.2f", amountUSD),
		"currency": "USD",
		"order_id": uuid.New().String(),
	}

	var result struct {
		Result struct {
			URL  string `json:"url"`
			UUID string `json:"uuid"`
		} `json:"result"`
	}
	if err := c.post(ctx, "/payment", payload, &result); err != nil {
		return nil, err
	}

	return &CryptomusInvoice{
		PaymentURL: result.Result.URL,
		InvoiceID:  result.Result.UUID,
	}, nil
}

// PaymentStatus maps the provider's status vocabulary onto the payment state
// machine. Anything not clearly terminal stays pending.
func (c *CryptomusClient) PaymentStatus(ctx context.Context, invoiceID string) (domain.PaymentStatus, error) {
	payload := map[string]interface{}{"uuid": invoiceID}

	var result struct {
		Result struct {
			PaymentStatus string `json:"payment_status"`
		} `json:"result"`
	}
	if err := c.post(ctx, "/payment/info", payload, &result); err != nil {
		return "", err
	}

	switch result.Result.PaymentStatus {
	case "paid", "paid_over":
		return domain.PaymentStatusSucceeded, nil
	case "wrong_amount", "fail", "cancel", "system_fail", "refund_process", "refund_fail", "refund_paid":
		return domain.PaymentStatusCanceled, nil
	default:
		return domain.PaymentStatusPending, nil
	}
}

// VerifySign checks a webhook body signature.
func (c *CryptomusClient) VerifySign(body []byte, sign string) bool {
	return CryptomusSign(body, c.apiKey) == sign
}

func (c *CryptomusClient) post(ctx context.Context, path string, payload map[string]interface{}, out interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(payloadJSON))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("merchant", c.merchantID)
	req.Header.Set("sign", CryptomusSign(payloadJSON, c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// CryptomusSign is the provider's MD5-over-base64 request signature.
func CryptomusSign(payload []byte, apiKey string) string {
	encoded := base64.StdEncoding.EncodeToString(payload)
	hash := md5.Sum([]byte(encoded + apiKey))
	return hex.EncodeToString(hash[:])
}
