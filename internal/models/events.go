package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType представляет тип события в системе.
type EventType string

const (
	EventTypeBookingCreated   EventType = "booking_created"
	EventTypeBookingFailed    EventType = "booking_failed"
	EventTypePaymentProcessed EventType = "payment_processed"
)

// Event представляет событие, публикуемое в Kafka.
type Event struct {
	ID        uuid.UUID   `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// BookingCreatedData представляет полезную нагрузку события booking_created.
type BookingCreatedData struct {
	BookingID     uuid.UUID         `json:"booking_id"`
	UserName      string            `json:"user_name"`
	Pickup        string            `json:"pickup"`
	Destination   string            `json:"destination"`
	Fare          float64           `json:"fare"`
	PricingPolicy PricingPolicyName `json:"pricing_policy"`
}

// BookingFailedData представляет полезную нагрузку события booking_failed.
type BookingFailedData struct {
	UserName string `json:"user_name"`
	Reason   string `json:"reason"`
}

// PaymentProcessedData представляет полезную нагрузку события payment_processed.
type PaymentProcessedData struct {
	BookingID uuid.UUID         `json:"booking_id"`
	Method    PaymentMethodName `json:"method"`
	Amount    float64           `json:"amount"`
}
