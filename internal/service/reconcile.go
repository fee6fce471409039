package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/npkcode00-bit/food-delivery-sub000/internal/model"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/repository"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/webhook"
)

// Outcome is the terminal result of handling one provider event. Duplicate
// deliveries are a success outcome, never an error.
type Outcome int

const (
	OutcomeOrderCreated Outcome = iota
	OutcomeDuplicate
	OutcomeCanceled
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOrderCreated:
		return "order_created"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "ignored"
	}
}

// ErrIntentNotFound reports that no correlation key on the event resolved to
// a known intent. The provider may retry delivery; the intent write might
// simply not be visible yet.
var ErrIntentNotFound = errors.New("no intent resolved for event")

var errDuplicateOrder = errors.New("order already materialized")

// Retryable reports whether a failed reconciliation should surface to the
// provider as a transient error so its own retry mechanism redelivers.
// Correlation failures get a distinct signal instead (409 at the boundary).
func Retryable(err error) bool {
	return err != nil && !errors.Is(err, ErrIntentNotFound)
}

// ReconcileService is the idempotency guard and order materializer. It is
// safe to invoke concurrently for the same intent from any number of
// processes: correctness rests on the store transaction plus the unique
// index on the order's intent ref, never on in-process locks.
type ReconcileService interface {
	HandleEvent(ctx context.Context, ev webhook.NormalizedEvent) (Outcome, error)
}

type reconcileServiceImpl struct {
	db         *gorm.DB
	intentRepo repository.IntentRepository
	orderRepo  repository.OrderRepository
	provider   string

	// commitHook, when set, runs inside the materialization transaction
	// between the order insert and the intent status flip. Tests use it to
	// fault the commit at its most dangerous point.
	commitHook func(tx *gorm.DB) error
}

func NewReconcileService(
	db *gorm.DB,
	intentRepo repository.IntentRepository,
	orderRepo repository.OrderRepository,
) ReconcileService {
	return &reconcileServiceImpl{
		db:         db,
		intentRepo: intentRepo,
		orderRepo:  orderRepo,
		provider:   "paymongo",
	}
}

func (s *reconcileServiceImpl) HandleEvent(ctx context.Context, ev webhook.NormalizedEvent) (Outcome, error) {
	switch ev.Kind {
	case webhook.EventPaymentPaid:
		return s.materialize(ctx, ev)
	case webhook.EventPaymentFailed:
		return s.cancel(ctx, ev)
	default:
		// unknown kinds are acknowledged so the provider stops retrying
		slog.Info("acknowledging unhandled webhook event", "type", ev.RawType)
		return OutcomeIgnored, nil
	}
}

// resolveIntent tries the event's correlation keys in fixed precedence:
// explicit metadata id, then reference number, then provider session ref.
// Resolution stops at the first key that yields an intent.
func (s *reconcileServiceImpl) resolveIntent(ctx context.Context, ev webhook.NormalizedEvent) (*model.Intent, error) {
	if ev.IntentRef != "" {
		intent, err := s.intentRepo.Get(ctx, ev.IntentRef)
		if err == nil {
			return intent, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("resolve intent by metadata: %w", err)
		}
	}

	if ev.ReferenceNumber != "" {
		intent, err := s.intentRepo.Get(ctx, ev.ReferenceNumber)
		if err == nil {
			return intent, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("resolve intent by reference number: %w", err)
		}
	}

	if ev.PaymentRef != "" {
		intent, err := s.intentRepo.FindBySessionRef(ctx, ev.PaymentRef)
		if err == nil {
			return intent, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("resolve intent by session ref: %w", err)
		}
	}

	return nil, ErrIntentNotFound
}

func (s *reconcileServiceImpl) materialize(ctx context.Context, ev webhook.NormalizedEvent) (Outcome, error) {
	intent, err := s.resolveIntent(ctx, ev)
	if err != nil {
		return OutcomeIgnored, err
	}

	// fast path: provider retries of an already-handled delivery are the
	// common case and should not pay for a transaction
	if _, err := s.orderRepo.FindByIntentRef(ctx, intent.ID); err == nil {
		slog.Info("duplicate payment event, order already exists",
			"intent_id", intent.ID, "payment_ref", ev.PaymentRef)
		return OutcomeDuplicate, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		// advisory check only; the transactional recheck below is
		// authoritative
		slog.Warn("duplicate fast-path check failed", "intent_id", intent.ID, "err", err)
	}

	if ev.Amount != 0 && ev.Amount != toMinorUnits(intent.TotalAmount) {
		slog.Warn("event amount differs from intent snapshot",
			"intent_id", intent.ID,
			"event_amount", ev.Amount,
			"intent_amount", toMinorUnits(intent.TotalAmount))
	}

	order := newOrderFromIntent(intent, ev, s.provider)

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// a second concurrent delivery may have committed between the
		// fast path and here
		exists, err := s.orderRepo.ExistsByIntentRef(ctx, tx, intent.ID)
		if err != nil {
			return fmt.Errorf("recheck order existence: %w", err)
		}
		if exists {
			return errDuplicateOrder
		}

		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if s.commitHook != nil {
			if err := s.commitHook(tx); err != nil {
				return err
			}
		}

		if _, err := s.intentRepo.MarkPaid(ctx, tx, intent.ID); err != nil {
			return fmt.Errorf("mark intent paid: %w", err)
		}
		return nil
	})

	switch {
	case txErr == nil:
		slog.Info("order materialized",
			"order_id", order.ID,
			"intent_id", intent.ID,
			"payment_ref", ev.PaymentRef,
			"total", order.TotalAmount)
		return OutcomeOrderCreated, nil
	case errors.Is(txErr, errDuplicateOrder), errors.Is(txErr, gorm.ErrDuplicatedKey):
		// lost the race to a concurrent delivery; the unique index holds
		// the line when the isolation level does not
		slog.Info("concurrent delivery already materialized order", "intent_id", intent.ID)
		return OutcomeDuplicate, nil
	default:
		return OutcomeIgnored, fmt.Errorf("materialize order for intent %s: %w", intent.ID, txErr)
	}
}

func (s *reconcileServiceImpl) cancel(ctx context.Context, ev webhook.NormalizedEvent) (Outcome, error) {
	intent, err := s.resolveIntent(ctx, ev)
	if err != nil {
		return OutcomeIgnored, err
	}

	if _, err := s.intentRepo.MarkCanceled(ctx, intent.ID); err != nil {
		return OutcomeIgnored, fmt.Errorf("cancel intent %s: %w", intent.ID, err)
	}

	slog.Info("intent canceled on provider failure event",
		"intent_id", intent.ID, "payment_ref", ev.PaymentRef)
	return OutcomeCanceled, nil
}

func newOrderFromIntent(intent *model.Intent, ev webhook.NormalizedEvent, provider string) *model.Order {
	items := make([]model.OrderItem, len(intent.Items))
	for i, item := range intent.Items {
		items[i] = model.OrderItem{
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	return &model.Order{
		ID:          uuid.NewString(),
		OwnerEmail:  intent.OwnerEmail,
		Address:     intent.Address,
		Items:       items,
		TotalAmount: intent.TotalAmount,
		Paid:        true,
		PaidAt:      time.Now().UTC(),
		Provenance: model.PaymentProvenance{
			Provider:   provider,
			EventKind:  string(ev.Kind),
			IntentRef:  intent.ID,
			PaymentRef: ev.PaymentRef,
			Amount:     ev.Amount,
			Currency:   ev.Currency,
		},
	}
}
