package webhook

// EventKind tags a classified provider notification so downstream logic can
// switch exhaustively instead of probing optional payload fields.
type EventKind string

const (
	EventPaymentPaid   EventKind = "payment.paid"
	EventPaymentFailed EventKind = "payment.failed"
	EventUnknown       EventKind = "unknown"
)

// NormalizedEvent is the classified form of one provider callback payload.
// It is ephemeral; nothing here is persisted except what the materializer
// copies into the order's provenance.
type NormalizedEvent struct {
	Kind    EventKind
	RawType string // provider's event type string, kept for logging

	PaymentRef      string // provider-assigned session/payment id
	IntentRef       string // caller-supplied metadata hint
	ReferenceNumber string // secondary correlation key

	Amount   int64 // raw provider amount, smallest currency unit
	Currency string
}
