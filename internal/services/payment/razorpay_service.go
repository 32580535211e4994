package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ngo_backend/internal/logger"
)

type RazorpayService struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

func NewRazorpayService(keyID, keySecret, baseURL string, timeout time.Duration) *RazorpayService {
	return &RazorpayService{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
	}
}

func (r *RazorpayService) KeyID() string {
	return r.keyID
}

func (r *RazorpayService) CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error) {
	start := time.Now()
	body := map[string]interface{}{
		"amount":   params.Amount,
		"currency": params.Currency,
		"receipt":  params.Receipt,
	}
	if len(params.Notes) > 0 {
		body["notes"] = params.Notes
	}

	var order Order
	err := r.do(ctx, http.MethodPost, "/orders", body, &order)
	logger.GatewayLog("create_order", order.ID, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *RazorpayService) FetchOrderPayments(ctx context.Context, orderID string) ([]Payment, error) {
	start := time.Now()
	var resp struct {
		Items []Payment `json:"items"`
	}
	err := r.do(ctx, http.MethodGet, "/orders/"+orderID+"/payments", nil, &resp)
	logger.GatewayLog("fetch_order_payments", orderID, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (r *RazorpayService) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal gateway request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.SetBasicAuth(r.keyID, r.keySecret)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("gateway rejected request: status %d: %s", resp.StatusCode, gatewayErrorDescription(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}

func gatewayErrorDescription(raw []byte) string {
	var e struct {
		Error struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error.Description != "" {
		return e.Error.Code + ": " + e.Error.Description
	}
	return string(raw)
}
