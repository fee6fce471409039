package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/npkcode00-bit/food-delivery-sub000/internal/client"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/config"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/model"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/repository"
)

// ErrProviderUnavailable reports that the provider session could not be
// created. The intent stays open; the client may retry the checkout.
var ErrProviderUnavailable = errors.New("payment provider unavailable")

type CheckoutItem struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int32           `json:"quantity"`
}

type CheckoutRequest struct {
	OwnerEmail string
	Address    model.Address
	Items      []CheckoutItem
}

type CheckoutResponse struct {
	IntentID    string `json:"intent_id"`
	CheckoutURL string `json:"checkout_url"`
}

type CheckoutService interface {
	Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error)
	GetIntent(ctx context.Context, id string) (*model.Intent, error)
	FindOrderByIntent(ctx context.Context, intentID string) (*model.Order, error)
}

type checkoutServiceImpl struct {
	paymongoClient    client.PayMongoClient
	intentRepo        repository.IntentRepository
	orderRepo         repository.OrderRepository
	deliverySurcharge decimal.Decimal
	currency          string
	successURL        string
	cancelURL         string
}

func NewCheckoutService(
	paymongoClient client.PayMongoClient,
	intentRepo repository.IntentRepository,
	orderRepo repository.OrderRepository,
	cfg *config.Config,
) CheckoutService {
	successURL := cfg.PayMongo.SuccessURL
	if successURL == "" {
		successURL = cfg.BaseURL + "/checkout/success"
	}
	cancelURL := cfg.PayMongo.CancelURL
	if cancelURL == "" {
		cancelURL = cfg.BaseURL
	}

	return &checkoutServiceImpl{
		paymongoClient:    paymongoClient,
		intentRepo:        intentRepo,
		orderRepo:         orderRepo,
		deliverySurcharge: cfg.Checkout.DeliverySurcharge,
		currency:          cfg.Checkout.Currency,
		successURL:        successURL,
		cancelURL:         cancelURL,
	}
}

// Checkout snapshots the cart into an intent and opens a provider-hosted
// checkout session. The intent id is embedded in the session as both
// metadata and reference number so the eventual webhook can be correlated.
func (s *checkoutServiceImpl) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error) {
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", repository.ErrValidation)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: item price must not be negative", repository.ErrValidation)
		}
	}

	total := s.deliverySurcharge
	items := make([]model.IntentItem, len(req.Items))
	for i, item := range req.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
		items[i] = model.IntentItem{
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	intent := &model.Intent{
		OwnerEmail:  req.OwnerEmail,
		Address:     req.Address,
		Items:       items,
		TotalAmount: total,
		Status:      model.IntentStatusOpen,
	}
	if err := s.intentRepo.Create(ctx, intent); err != nil {
		return nil, err
	}

	lineItems := make([]client.SessionLineItem, 0, len(req.Items)+1)
	for _, item := range req.Items {
		lineItems = append(lineItems, client.SessionLineItem{
			Name:     item.Name,
			Amount:   toMinorUnits(item.UnitPrice),
			Currency: s.currency,
			Quantity: item.Quantity,
		})
	}
	if s.deliverySurcharge.IsPositive() {
		lineItems = append(lineItems, client.SessionLineItem{
			Name:     "Delivery fee",
			Amount:   toMinorUnits(s.deliverySurcharge),
			Currency: s.currency,
			Quantity: 1,
		})
	}

	session, err := s.paymongoClient.CreateCheckoutSession(ctx, &client.CreateSessionRequest{
		IntentID:    intent.ID,
		Description: "Order " + intent.ID,
		Items:       lineItems,
		SuccessURL:  s.successURL,
		CancelURL:   s.cancelURL,
	})
	if err != nil {
		slog.Error("create checkout session failed", "intent_id", intent.ID, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if err := s.intentRepo.SetSessionRef(ctx, intent.ID, session.SessionID); err != nil {
		// correlation still works through the reference number; the
		// session ref is the last-resort key
		slog.Warn("store session ref failed", "intent_id", intent.ID, "err", err)
	}

	slog.Info("checkout intent created",
		"intent_id", intent.ID,
		"owner", intent.OwnerEmail,
		"total", intent.TotalAmount,
		"session_ref", session.SessionID)

	return &CheckoutResponse{
		IntentID:    intent.ID,
		CheckoutURL: session.CheckoutURL,
	}, nil
}

func (s *checkoutServiceImpl) GetIntent(ctx context.Context, id string) (*model.Intent, error) {
	return s.intentRepo.Get(ctx, id)
}

func (s *checkoutServiceImpl) FindOrderByIntent(ctx context.Context, intentID string) (*model.Order, error) {
	return s.orderRepo.FindByIntentRef(ctx, intentID)
}

// toMinorUnits converts a major-unit decimal amount (e.g. 150.00) to the
// provider's smallest-unit integer representation (15000).
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).IntPart()
}
