package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"minicab/internal/apperror"
	"minicab/internal/database"
	"minicab/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func sqlmockTime() time.Time {
	return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
}

// recordingPayment фиксирует вызовы Process для проверки side effects.
type recordingPayment struct {
	name   models.PaymentMethodName
	called bool
	amount float64
	err    error
}

func (p *recordingPayment) Name() models.PaymentMethodName { return p.name }
func (p *recordingPayment) Process(ctx context.Context, amount float64) error {
	p.called = true
	p.amount = amount
	return p.err
}

func newConfiguredService(t *testing.T, payment PaymentMethod) *BookingService {
	t.Helper()
	svc := NewBookingService(nil, testLogger(), testAppConfig())
	pricing, err := NewPricingPolicy(models.PricingNormal, testPricingConfig())
	if err != nil {
		t.Fatalf("failed to create pricing policy: %v", err)
	}
	svc.SetPricing(pricing)
	svc.SetPayment(payment)
	return svc
}

func TestBookRide_PoliciesNotSet(t *testing.T) {
	svc := NewBookingService(nil, testLogger(), testAppConfig())

	req := &models.BookRideRequest{Pickup: "A", Destination: "B", DistanceKm: 1}
	session := &models.Session{UserName: "John", Authenticated: true}

	booking, err := svc.BookRide(context.Background(), session, req)
	if booking != nil {
		t.Fatalf("expected nil booking")
	}
	if !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBookRide_PaymentNotCalledWhenPolicyMissing(t *testing.T) {
	svc := NewBookingService(nil, testLogger(), testAppConfig())
	payment := &recordingPayment{name: models.PaymentUPI}
	svc.SetPayment(payment)

	req := &models.BookRideRequest{Pickup: "A", Destination: "B", DistanceKm: 1}
	session := &models.Session{UserName: "John", Authenticated: true}

	if _, err := svc.BookRide(context.Background(), session, req); err == nil {
		t.Fatalf("expected error without pricing policy")
	}
	if payment.called {
		t.Fatalf("payment must not be processed when pricing policy is missing")
	}
}

func TestBookRide_NegativeDistance(t *testing.T) {
	payment := &recordingPayment{name: models.PaymentUPI}
	svc := newConfiguredService(t, payment)

	req := &models.BookRideRequest{Pickup: "A", Destination: "B", DistanceKm: -1}
	session := &models.Session{UserName: "John", Authenticated: true}

	_, err := svc.BookRide(context.Background(), session, req)
	if !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error for negative distance, got %v", err)
	}
	if payment.called {
		t.Fatalf("payment must not be processed for invalid distance")
	}
}

func TestBookRide_EmptyLocations(t *testing.T) {
	svc := newConfiguredService(t, &recordingPayment{name: models.PaymentUPI})
	session := &models.Session{UserName: "John", Authenticated: true}

	_, err := svc.BookRide(context.Background(), session, &models.BookRideRequest{DistanceKm: 1})
	if !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error for empty locations, got %v", err)
	}
}

func TestBookRide_Success(t *testing.T) {
	payment := &recordingPayment{name: models.PaymentUPI}
	svc := newConfiguredService(t, payment)

	req := &models.BookRideRequest{Pickup: "MG Road", Destination: "Koramangala", DistanceKm: 5.0}
	session := &models.Session{UserName: "John", Authenticated: true}

	booking, err := svc.BookRide(context.Background(), session, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking == nil {
		t.Fatalf("expected booking")
	}
	if booking.Pickup != "MG Road" || booking.Destination != "Koramangala" {
		t.Fatalf("unexpected trip: %s → %s", booking.Pickup, booking.Destination)
	}
	if booking.Fare != 50.0 {
		t.Fatalf("expected fare 50.0, got %.2f", booking.Fare)
	}
	if booking.Status != models.BookingStatusConfirmed {
		t.Fatalf("unexpected status: %s", booking.Status)
	}
	if !payment.called || payment.amount != 50.0 {
		t.Fatalf("expected payment processed for 50.0, got called=%v amount=%.2f", payment.called, payment.amount)
	}
}

func TestBookRide_SurgeFare(t *testing.T) {
	payment := &recordingPayment{name: models.PaymentCard}
	svc := newConfiguredService(t, payment)

	surge, err := NewPricingPolicy(models.PricingSurge, testPricingConfig())
	if err != nil {
		t.Fatalf("failed to create surge policy: %v", err)
	}
	svc.SetPricing(surge)

	req := &models.BookRideRequest{Pickup: "Airport", Destination: "Whitefield", DistanceKm: 15.0}
	session := &models.Session{UserName: "John", Authenticated: true}

	booking, err := svc.BookRide(context.Background(), session, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Fare != 375.0 {
		t.Fatalf("expected fare 375.0, got %.2f", booking.Fare)
	}
	if booking.PricingPolicy != models.PricingSurge {
		t.Fatalf("expected surge policy recorded, got %s", booking.PricingPolicy)
	}
}

func TestBookRide_PaymentDeclined(t *testing.T) {
	payment := &recordingPayment{name: models.PaymentUPI, err: errors.New("insufficient funds")}
	svc := newConfiguredService(t, payment)

	req := &models.BookRideRequest{Pickup: "A", Destination: "B", DistanceKm: 2}
	session := &models.Session{UserName: "John", Authenticated: true}

	booking, err := svc.BookRide(context.Background(), session, req)
	if booking != nil {
		t.Fatalf("expected nil booking on declined payment")
	}
	if !apperror.Is(err, apperror.KindPaymentDeclined) {
		t.Fatalf("expected payment_declined kind, got %v", err)
	}
}

func TestBookRide_SavesBooking(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer sqlDB.Close()

	svc := NewBookingService(&database.DB{DB: sqlDB}, testLogger(), testAppConfig())
	pricing, _ := NewPricingPolicy(models.PricingNormal, testPricingConfig())
	svc.SetPricing(pricing)
	svc.SetPayment(&recordingPayment{name: models.PaymentWallet})

	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(1, 1))

	req := &models.BookRideRequest{Pickup: "Indiranagar", Destination: "HSR Layout", DistanceKm: 8.0}
	session := &models.Session{UserName: "John", Authenticated: true}

	booking, err := svc.BookRide(context.Background(), session, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Fare != 80.0 {
		t.Fatalf("expected fare 80.0, got %.2f", booking.Fare)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookRide_SaveFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer sqlDB.Close()

	svc := NewBookingService(&database.DB{DB: sqlDB}, testLogger(), testAppConfig())
	pricing, _ := NewPricingPolicy(models.PricingNormal, testPricingConfig())
	svc.SetPricing(pricing)
	svc.SetPayment(&recordingPayment{name: models.PaymentUPI})

	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(errors.New("insert failed"))

	req := &models.BookRideRequest{Pickup: "A", Destination: "B", DistanceKm: 1}
	session := &models.Session{UserName: "John", Authenticated: true}

	if _, err := svc.BookRide(context.Background(), session, req); err == nil {
		t.Fatalf("expected error on save failure")
	}
}

func TestGetBooking(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer sqlDB.Close()

	svc := NewBookingService(&database.DB{DB: sqlDB}, testLogger(), testAppConfig())
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_name", "pickup", "destination", "distance_km", "fare", "pricing_policy", "payment_method", "status", "created_at"}).
			AddRow(id, "John", "MG Road", "Koramangala", 5.0, 50.0, "Normal", "UPI", "confirmed", sqlmockTime()))

	booking, err := svc.GetBooking(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.ID != id || booking.Fare != 50.0 {
		t.Fatalf("unexpected booking: %+v", booking)
	}
}

func TestGetBooking_NotFound(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer sqlDB.Close()

	svc := NewBookingService(&database.DB{DB: sqlDB}, testLogger(), testAppConfig())
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = svc.GetBooking(context.Background(), id)
	if !apperror.Is(err, apperror.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestGetBookings_WithStatusFilter(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer sqlDB.Close()

	svc := NewBookingService(&database.DB{DB: sqlDB}, testLogger(), testAppConfig())
	status := models.BookingStatusConfirmed

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE status").
		WithArgs(status, 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_name", "pickup", "destination", "distance_km", "fare", "pricing_policy", "payment_method", "status", "created_at"}).
			AddRow(uuid.New(), "John", "A", "B", 1.0, 10.0, "Normal", "UPI", "confirmed", sqlmockTime()).
			AddRow(uuid.New(), "John", "C", "D", 2.0, 20.0, "Normal", "Card", "confirmed", sqlmockTime()))

	bookings, err := svc.GetBookings(context.Background(), &status, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bookings) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(bookings))
	}
}

func TestSetPolicies_SwappedForNextAttempt(t *testing.T) {
	svc := NewBookingService(nil, testLogger(), testAppConfig())
	if svc.ActivePricing() != nil || svc.ActivePayment() != nil {
		t.Fatalf("expected no active policies initially")
	}

	normal, _ := NewPricingPolicy(models.PricingNormal, testPricingConfig())
	surge, _ := NewPricingPolicy(models.PricingSurge, testPricingConfig())

	svc.SetPricing(normal)
	if svc.ActivePricing().Name() != models.PricingNormal {
		t.Fatalf("expected normal policy active")
	}
	svc.SetPricing(surge)
	if svc.ActivePricing().Name() != models.PricingSurge {
		t.Fatalf("expected surge policy active after swap")
	}
}
