package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/npkcode00-bit/food-delivery-sub000/internal/client"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/config"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/model"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/poller"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/repository"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/service"
)

const testWebhookSecret = "whsec_test_secret"

type stubPayMongo struct{}

func (stubPayMongo) CreateCheckoutSession(_ context.Context, req *client.CreateSessionRequest) (*client.CreateSessionResponse, error) {
	return &client.CreateSessionResponse{
		SessionID:   "cs_" + req.IntentID,
		CheckoutURL: "https://checkout.example.com/" + req.IntentID,
	}, nil
}

type webhookFixture struct {
	db       *gorm.DB
	echo     *echo.Echo
	checkout service.CheckoutService
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	db, err := client.OpenDatabase(config.Database{Driver: "sqlite", DSN: "file::memory:"})
	require.NoError(t, err)

	cfg := &config.Config{
		BaseURL: "http://localhost:8080",
		Checkout: config.Checkout{
			DeliverySurcharge: decimal.RequireFromString("50.00"),
			Currency:          "PHP",
		},
		PayMongo: config.PayMongo{WebhookSecret: testWebhookSecret},
	}

	intentRepo := repository.NewIntentRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	checkoutService := service.NewCheckoutService(stubPayMongo{}, intentRepo, orderRepo, cfg)
	reconcileService := service.NewReconcileService(db, intentRepo, orderRepo)

	checkoutHandler := NewCheckoutHandler(checkoutService)
	webhookHandler := NewWebhookHandler(reconcileService, &cfg.PayMongo)

	e := echo.New()
	e.POST("/api/payments/webhook", webhookHandler.HandleWebhook)
	e.GET("/api/orders/by-intent/:intentID", checkoutHandler.GetOrderByIntent)
	e.GET("/api/intents/:id", checkoutHandler.GetIntent)

	return &webhookFixture{db: db, echo: e, checkout: checkoutService}
}

func (f *webhookFixture) createIntent(t *testing.T) string {
	t.Helper()
	resp, err := f.checkout.Checkout(context.Background(), &service.CheckoutRequest{
		OwnerEmail: "buyer@example.com",
		Address:    model.Address{Line1: "1 Mabini St", City: "Manila", PostalCode: "1000"},
		Items: []service.CheckoutItem{
			{Name: "Chicken adobo", UnitPrice: decimal.RequireFromString("40.00"), Quantity: 1},
			{Name: "Garlic rice", UnitPrice: decimal.RequireFromString("30.00"), Quantity: 2},
		},
	})
	require.NoError(t, err)
	return resp.IntentID
}

func signBody(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// paidWebhookBody references the intent through the reference number only,
// the way a provider event without caller metadata arrives.
func paidWebhookBody(referenceNumber string) []byte {
	return []byte(fmt.Sprintf(`{
		"data": {
			"attributes": {
				"type": "checkout_session.payment.paid",
				"data": {
					"id": "pay_e2e_1",
					"attributes": {
						"reference_number": %q,
						"amount": 15000,
						"currency": "PHP"
					}
				}
			}
		}
	}`, referenceNumber))
}

func (f *webhookFixture) postWebhook(body []byte, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	if header != "" {
		req.Header.Set(SignatureHeader, header)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func signedHeader(body []byte) string {
	return "t=1700000000,te=" + signBody(testWebhookSecret, "1700000000", body)
}

func TestWebhook_EndToEnd(t *testing.T) {
	f := newWebhookFixture(t)
	intentID := f.createIntent(t)
	body := paidWebhookBody(intentID)

	rec := f.postWebhook(body, signedHeader(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ack map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "order_created", ack["result"])

	// the polling boundary now serves the order
	req := httptest.NewRequest(http.MethodGet, "/api/orders/by-intent/"+intentID, nil)
	orderRec := httptest.NewRecorder()
	f.echo.ServeHTTP(orderRec, req)
	require.Equal(t, http.StatusOK, orderRec.Code)

	var order model.Order
	require.NoError(t, json.Unmarshal(orderRec.Body.Bytes(), &order))
	assert.True(t, order.Paid)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("150.00")),
		"order total %s", order.TotalAmount)
	assert.Equal(t, intentID, order.Provenance.IntentRef)
	assert.Len(t, order.Items, 2)

	// an identical redelivery acknowledges without a second order
	rec = f.postWebhook(body, signedHeader(body))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "duplicate", ack["result"])

	var count int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestWebhook_PollerSeesMaterializedOrder(t *testing.T) {
	f := newWebhookFixture(t)
	intentID := f.createIntent(t)

	srv := httptest.NewServer(f.echo)
	defer srv.Close()
	lookup := poller.NewHTTPLookup(srv.URL, srv.Client())

	// nothing materialized yet: the loop runs out its attempt budget
	result, err := poller.PollForOrder(context.Background(), lookup, intentID, 3, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, poller.StatusTimedOut, result.Status)

	body := paidWebhookBody(intentID)
	rec := f.postWebhook(body, signedHeader(body))
	require.Equal(t, http.StatusOK, rec.Code)

	result, err = poller.PollForOrder(context.Background(), lookup, intentID, 3, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, poller.StatusFound, result.Status)
	assert.Equal(t, intentID, result.Order.Provenance.IntentRef)
}

func TestWebhook_RejectsBadSignature(t *testing.T) {
	f := newWebhookFixture(t)
	intentID := f.createIntent(t)
	body := paidWebhookBody(intentID)

	// tampered payload under an otherwise valid header
	header := signedHeader(body)
	tampered := bytes.Replace(body, []byte("15000"), []byte("1"), 1)
	rec := f.postWebhook(tampered, header)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// missing header entirely
	rec = f.postWebhook(body, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWebhook_MalformedBodyAfterValidSignature(t *testing.T) {
	f := newWebhookFixture(t)
	body := []byte(`{"data": broken`)

	rec := f.postWebhook(body, signedHeader(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_UnresolvedIntentIsConflict(t *testing.T) {
	f := newWebhookFixture(t)
	body := paidWebhookBody("intent-that-does-not-exist")

	rec := f.postWebhook(body, signedHeader(body))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWebhook_UnknownEventKindAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)
	body := []byte(`{"data":{"attributes":{"type":"source.chargeable","data":{"id":"src_1","attributes":{}}}}}`)

	rec := f.postWebhook(body, signedHeader(body))
	require.Equal(t, http.StatusOK, rec.Code)

	var ack map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "ignored", ack["result"])
}

func TestWebhook_SignatureBypassStillProcesses(t *testing.T) {
	f := newWebhookFixture(t)
	intentID := f.createIntent(t)

	intentRepo := repository.NewIntentRepository(f.db)
	orderRepo := repository.NewOrderRepository(f.db)
	reconcileService := service.NewReconcileService(f.db, intentRepo, orderRepo)
	bypassed := NewWebhookHandler(reconcileService, &config.PayMongo{
		WebhookSecret:             testWebhookSecret,
		SkipSignatureVerification: true,
	})

	e := echo.New()
	e.POST("/api/payments/webhook", bypassed.HandleWebhook)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(paidWebhookBody(intentID)))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
