package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/npkcode00-bit/food-delivery-sub000/internal/config"
)

type PayMongoClient interface {
	CreateCheckoutSession(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResponse, error)
}

type SessionLineItem struct {
	Name     string
	Amount   int64 // smallest currency unit
	Currency string
	Quantity int32
}

type CreateSessionRequest struct {
	IntentID    string
	Description string
	Items       []SessionLineItem
	SuccessURL  string
	CancelURL   string
}

type CreateSessionResponse struct {
	SessionID   string
	CheckoutURL string
}

type payMongoClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	secretKey  string
}

func NewPayMongoClient(cfg *config.PayMongo) PayMongoClient {
	return &payMongoClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: cfg.BaseApiURL,
		secretKey:  cfg.SecretKey,
	}
}

func (c *payMongoClientImpl) CreateCheckoutSession(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResponse, error) {
	lineItems := make([]map[string]interface{}, len(req.Items))
	for i, item := range req.Items {
		lineItems[i] = map[string]interface{}{
			"name":     item.Name,
			"amount":   item.Amount,
			"currency": item.Currency,
			"quantity": item.Quantity,
		}
	}

	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"attributes": map[string]interface{}{
				"line_items":           lineItems,
				"payment_method_types": []string{"card", "gcash", "paymaya"},
				"description":          req.Description,
				// the intent id rides along twice so the webhook can still
				// be correlated when one key gets dropped upstream
				"reference_number": req.IntentID,
				"metadata": map[string]string{
					"intent_id": req.IntentID,
				},
				"success_url": req.SuccessURL,
				"cancel_url":  req.CancelURL,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v1/checkout_sessions",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.secretKey + ":"))
	httpReq.Header.Set("Authorization", "Basic "+auth)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("paymongo error %d: %s", resp.StatusCode, string(b))
	}

	var result struct {
		Data struct {
			ID         string `json:"id"`
			Attributes struct {
				CheckoutURL string `json:"checkout_url"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode paymongo response: %w", err)
	}

	return &CreateSessionResponse{
		SessionID:   result.Data.ID,
		CheckoutURL: result.Data.Attributes.CheckoutURL,
	}, nil
}
