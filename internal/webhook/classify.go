package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload reports an event body that could not be decoded.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// metadata key under which checkout embeds the intent id when creating the
// provider session
const metadataIntentKey = "intent_id"

type eventEnvelope struct {
	Data struct {
		Attributes struct {
			Type string `json:"type"`
			Data struct {
				ID         string `json:"id"`
				Attributes struct {
					Metadata        map[string]string `json:"metadata"`
					ReferenceNumber string            `json:"reference_number"`
					Amount          int64             `json:"amount"`
					Currency        string            `json:"currency"`
				} `json:"attributes"`
			} `json:"data"`
		} `json:"attributes"`
	} `json:"data"`
}

// Classify parses a raw provider payload into a NormalizedEvent. It never
// judges authenticity; callers verify the signature before trusting any of
// the extracted fields.
func Classify(rawBody []byte) (NormalizedEvent, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return NormalizedEvent{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	attrs := envelope.Data.Attributes
	return NormalizedEvent{
		Kind:            classifyKind(attrs.Type),
		RawType:         attrs.Type,
		PaymentRef:      attrs.Data.ID,
		IntentRef:       attrs.Data.Attributes.Metadata[metadataIntentKey],
		ReferenceNumber: attrs.Data.Attributes.ReferenceNumber,
		Amount:          attrs.Data.Attributes.Amount,
		Currency:        attrs.Data.Attributes.Currency,
	}, nil
}

func classifyKind(eventType string) EventKind {
	switch eventType {
	case "payment.paid", "checkout_session.payment.paid":
		return EventPaymentPaid
	case "payment.failed", "checkout_session.payment.failed":
		return EventPaymentFailed
	default:
		return EventUnknown
	}
}
