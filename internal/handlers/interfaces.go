package handlers

import (
	"context"
	"time"

	"minicab/internal/models"
	"minicab/internal/services"

	"github.com/google/uuid"
)

// ----- Bookings -----

type BookingPipeline interface {
	BookRide(ctx context.Context, session *models.Session, req *models.BookRideRequest) (*models.Booking, error)
}

type BookingStore interface {
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error)
	GetBookings(ctx context.Context, status *models.BookingStatus, limit, offset int) ([]*models.Booking, error)
}

// ----- Settings -----

type PolicySelector interface {
	SetPricing(policy services.PricingPolicy)
	SetPayment(method services.PaymentMethod)
	ActivePricing() services.PricingPolicy
	ActivePayment() services.PaymentMethod
}

// ----- Events -----

type EventProducer interface {
	PublishBookingCreated(booking *models.Booking) error
	PublishBookingFailed(userName, reason string) error
	PublishPaymentProcessed(bookingID uuid.UUID, method models.PaymentMethodName, amount float64) error
}

// ----- Cache -----

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// ----- Health -----

type DBHealth interface {
	Health() error
}

type RedisHealth interface {
	Health(ctx context.Context) error
}
