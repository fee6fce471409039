package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/npkcode00-bit/food-delivery-sub000/internal/config"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/service"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/webhook"
)

// SignatureHeader is the header PayMongo signs its deliveries with.
const SignatureHeader = "Paymongo-Signature"

const maxLoggedBodyBytes = 512

// WebhookHandler is the notification dispatcher. Response codes drive the
// provider's redelivery: 200 acknowledges (including duplicates), 400 is
// never retried, 409 signals a correlation miss, 500 requests redelivery.
type WebhookHandler struct {
	reconcileService service.ReconcileService
	webhookSecret    string
	skipVerification bool
}

func NewWebhookHandler(reconcileService service.ReconcileService, cfg *config.PayMongo) *WebhookHandler {
	return &WebhookHandler{
		reconcileService: reconcileService,
		webhookSecret:    cfg.WebhookSecret,
		skipVerification: cfg.SkipSignatureVerification,
	}
}

func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	// the signature covers the exact wire bytes, so read them before any
	// parsing touches the body
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if h.skipVerification {
		slog.Warn("webhook signature verification BYPASSED; this must never be enabled outside test environments")
	} else if !webhook.Verify(body, c.Request().Header.Get(SignatureHeader), h.webhookSecret) {
		slog.Error("webhook signature rejected", "remote", c.RealIP())
		return c.NoContent(http.StatusBadRequest)
	}

	ev, err := webhook.Classify(body)
	if err != nil {
		slog.Error("webhook payload rejected", "err", err, "body", truncate(body, maxLoggedBodyBytes))
		return c.NoContent(http.StatusBadRequest)
	}

	outcome, err := h.reconcileService.HandleEvent(ctx, ev)
	switch {
	case errors.Is(err, service.ErrIntentNotFound):
		slog.Warn("webhook event matched no intent",
			"type", ev.RawType,
			"payment_ref", ev.PaymentRef,
			"reference_number", ev.ReferenceNumber)
		return c.NoContent(http.StatusConflict)
	case err != nil:
		slog.Error("webhook processing failed, provider should redeliver", "type", ev.RawType, "err", err)
		return c.NoContent(http.StatusInternalServerError)
	}

	return c.JSON(http.StatusOK, map[string]string{"result": outcome.String()})
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
