package models

import (
	"time"

	"github.com/google/uuid"
)

// PricingPolicyName представляет имя варианта ценообразования.
type PricingPolicyName string

const (
	PricingNormal PricingPolicyName = "Normal"
	PricingSurge  PricingPolicyName = "Surge"
)

// PaymentMethodName представляет имя способа оплаты.
type PaymentMethodName string

const (
	PaymentUPI    PaymentMethodName = "UPI"
	PaymentCard   PaymentMethodName = "Card"
	PaymentWallet PaymentMethodName = "Wallet"
)

// BookingStatus представляет статус бронирования.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusFailed    BookingStatus = "failed"
)

// Booking представляет оформленную поездку.
// Поля pickup/destination/fare — совместимый контракт ответа,
// их имена менять нельзя.
type Booking struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	UserName      string            `json:"user_name" db:"user_name"`
	Pickup        string            `json:"pickup" db:"pickup"`
	Destination   string            `json:"destination" db:"destination"`
	DistanceKm    float64           `json:"distance_km" db:"distance_km"`
	Fare          float64           `json:"fare" db:"fare"`
	PricingPolicy PricingPolicyName `json:"pricing_policy" db:"pricing_policy"`
	PaymentMethod PaymentMethodName `json:"payment_method" db:"payment_method"`
	Status        BookingStatus     `json:"status" db:"status"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
}

// BookRideRequest представляет запрос на бронирование поездки.
type BookRideRequest struct {
	Pickup      string  `json:"pickup"`
	Destination string  `json:"destination"`
	DistanceKm  float64 `json:"distance_km"`
}

// SetPricingRequest представляет запрос на смену варианта ценообразования.
type SetPricingRequest struct {
	Policy PricingPolicyName `json:"policy"`
}

// SetPaymentRequest представляет запрос на смену способа оплаты.
type SetPaymentRequest struct {
	Method PaymentMethodName `json:"method"`
}

// BookingSettings представляет активные настройки сервиса бронирования.
type BookingSettings struct {
	AppName        string            `json:"app_name"`
	CurrencySymbol string            `json:"currency_symbol"`
	PricingPolicy  PricingPolicyName `json:"pricing_policy,omitempty"`
	PaymentMethod  PaymentMethodName `json:"payment_method,omitempty"`
}
