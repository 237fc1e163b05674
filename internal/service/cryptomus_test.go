package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipmint/reelsbot/internal/domain"
)

func TestCreateInvoiceSignedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payment", r.URL.Path)
		assert.Equal(t, "merchant-1", r.Header.Get("merchant"))
		assert.NotEmpty(t, r.Header.Get("sign"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "5.00", req["amount"])
		assert.Equal(t, "USD", req["currency"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"url":  "https://pay.example/abc",
				"uuid": "inv-123",
			},
		})
	}))
	defer srv.Close()

	c := NewCryptomusClient("merchant-1", "secret", srv.URL)
	inv, err := c.CreateInvoice(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "inv-123", inv.InvoiceID)
	assert.Equal(t, "https://pay.example/abc", inv.PaymentURL)
}

func TestPaymentStatusMapping(t *testing.T) {
	cases := map[string]domain.PaymentStatus{
		"paid":         domain.PaymentStatusSucceeded,
		"paid_over":    domain.PaymentStatusSucceeded,
		"cancel":       domain.PaymentStatusCanceled,
		"fail":         domain.PaymentStatusCanceled,
		"wrong_amount": domain.PaymentStatusCanceled,
		"check":        domain.PaymentStatusPending,
		"process":      domain.PaymentStatusPending,
	}

	var current string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payment/info", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"payment_status": current},
		})
	}))
	defer srv.Close()

	c := NewCryptomusClient("merchant-1", "secret", srv.URL)
	for provider, want := range cases {
		current = provider
		got, err := c.PaymentStatus(context.Background(), "inv-123")
		require.NoError(t, err)
		assert.Equal(t, want, got, provider)
	}
}

func TestVerifySign(t *testing.T) {
	c := NewCryptomusClient("merchant-1", "secret", "https://unused.example")
	body := []byte(`{"uuid":"inv-123","status":"paid"}`)

	assert.True(t, c.VerifySign(body, CryptomusSign(body, "secret")))
	assert.False(t, c.VerifySign(body, CryptomusSign(body, "wrong-key")))
	assert.False(t, c.VerifySign([]byte(`tampered`), CryptomusSign(body, "secret")))
}
