package ledger

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventRechargeSubmitted  = "RechargeSubmitted"
	EventRechargeApproved   = "RechargeApproved"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order or recharge id
	UserID        string          `json:"user_id"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID      string `json:"order_id"`
	UserID       string `json:"user_id"`
	ServiceSlug  string `json:"service_slug"`
	ServiceTitle string `json:"service_title"`
	Price        int64  `json:"price"`
	BalanceAfter int64  `json:"balance_after"`
}

type OrderStatusChangedPayload struct {
	OrderID      string      `json:"order_id"`
	UserID       string      `json:"user_id"`
	ServiceTitle string      `json:"service_title"`
	From         OrderStatus `json:"from"`
	To           OrderStatus `json:"to"`
}

type RechargeSubmittedPayload struct {
	RechargeID string `json:"recharge_id"`
	UserID     string `json:"user_id"`
	Amount     int64  `json:"amount"`
	TrxID      string `json:"trx_id"`
}

type RechargeApprovedPayload struct {
	RechargeID   string `json:"recharge_id"`
	UserID       string `json:"user_id"`
	Amount       int64  `json:"amount"`
	BalanceAfter int64  `json:"balance_after"`
	ApprovedBy   string `json:"approved_by"`
}

// NewEnvelope wraps payload in a version 1 envelope.
func NewEnvelope(eventType, producer, correlationID, userID string, at time.Time, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    at.UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		UserID:        userID,
		Payload:       b,
	}, nil
}
