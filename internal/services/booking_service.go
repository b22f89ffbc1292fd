package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"minicab/internal/apperror"
	"minicab/internal/config"
	"minicab/internal/database"
	"minicab/internal/logger"
	"minicab/internal/models"

	"github.com/google/uuid"
)

// BookingService представляет ядро оформления поездки: расчет стоимости
// по активному варианту ценообразования, проведение оплаты и сохранение
// результата. Сквозные проверки (аутентификация, журналирование попытки)
// навешиваются поверх через BookingPipeline.
type BookingService struct {
	db  *database.DB
	log *logger.Logger
	app *config.AppConfig

	mu      sync.RWMutex
	pricing PricingPolicy
	payment PaymentMethod
}

// NewBookingService создает сервис бронирования. Вариант ценообразования
// и способ оплаты изначально не выбраны.
func NewBookingService(db *database.DB, log *logger.Logger, app *config.AppConfig) *BookingService {
	return &BookingService{
		db:  db,
		log: log,
		app: app,
	}
}

// SetPricing заменяет активный вариант ценообразования.
// Действует начиная со следующей попытки бронирования.
func (s *BookingService) SetPricing(policy PricingPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pricing = policy
}

// SetPayment заменяет активный способ оплаты.
// Действует начиная со следующей попытки бронирования.
func (s *BookingService) SetPayment(method PaymentMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payment = method
}

// ActivePricing возвращает активный вариант ценообразования (или nil).
func (s *BookingService) ActivePricing() PricingPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pricing
}

// ActivePayment возвращает активный способ оплаты (или nil).
func (s *BookingService) ActivePayment() PaymentMethod {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payment
}

// BookRide оформляет поездку: проверяет, что вариант ценообразования и
// способ оплаты выбраны, считает стоимость, проводит оплату и сохраняет
// бронирование. Любой отказ — типизированная ошибка без результата.
func (s *BookingService) BookRide(ctx context.Context, session *models.Session, req *models.BookRideRequest) (*models.Booking, error) {
	s.mu.RLock()
	pricing := s.pricing
	payment := s.payment
	s.mu.RUnlock()

	if pricing == nil || payment == nil {
		return nil, apperror.Validation("set pricing policy and payment method first", nil)
	}

	if req.Pickup == "" || req.Destination == "" {
		return nil, apperror.Validation("pickup and destination are required", nil)
	}
	if req.DistanceKm < 0 {
		return nil, apperror.Validation("distance must be non-negative", nil)
	}

	fare := pricing.Fare(req.DistanceKm)

	s.log.WithFields(map[string]interface{}{
		"pickup":      req.Pickup,
		"destination": req.Destination,
		"distance_km": req.DistanceKm,
		"policy":      pricing.Name(),
	}).Info(fmt.Sprintf("Ride: %s → %s (%g km), fare %s%.2f",
		req.Pickup, req.Destination, req.DistanceKm, s.app.CurrencySymbol, fare))

	if err := payment.Process(ctx, fare); err != nil {
		return nil, apperror.PaymentDeclined("payment was declined", err)
	}

	booking := &models.Booking{
		ID:            uuid.New(),
		UserName:      session.UserName,
		Pickup:        req.Pickup,
		Destination:   req.Destination,
		DistanceKm:    req.DistanceKm,
		Fare:          fare,
		PricingPolicy: pricing.Name(),
		PaymentMethod: payment.Name(),
		Status:        models.BookingStatusConfirmed,
		CreatedAt:     time.Now(),
	}

	if err := s.saveBooking(ctx, booking); err != nil {
		return nil, err
	}

	return booking, nil
}

// saveBooking сохраняет бронирование в базе. Без базы (юнит-тесты,
// одиночный прогон) бронирование остается только в ответе.
func (s *BookingService) saveBooking(ctx context.Context, booking *models.Booking) error {
	if s.db == nil {
		return nil
	}

	query := `
		INSERT INTO bookings (id, user_name, pickup, destination, distance_km, fare, pricing_policy, payment_method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query, booking.ID, booking.UserName, booking.Pickup,
		booking.Destination, booking.DistanceKm, booking.Fare, booking.PricingPolicy,
		booking.PaymentMethod, booking.Status, booking.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"booking_id": booking.ID,
		"user_name":  booking.UserName,
		"fare":       booking.Fare,
	}).Info("Booking saved")

	return nil
}

// GetBooking получает бронирование по ID
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	if s.db == nil {
		return nil, apperror.NotFound("booking storage is not configured", nil)
	}

	booking := &models.Booking{}
	query := `
		SELECT id, user_name, pickup, destination, distance_km, fare, pricing_policy, payment_method, status, created_at
		FROM bookings
		WHERE id = $1
	`
	err := s.db.QueryRowContext(ctx, query, bookingID).Scan(
		&booking.ID, &booking.UserName, &booking.Pickup, &booking.Destination,
		&booking.DistanceKm, &booking.Fare, &booking.PricingPolicy,
		&booking.PaymentMethod, &booking.Status, &booking.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("booking not found", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return booking, nil
}

// GetBookings получает список бронирований с фильтром по статусу
func (s *BookingService) GetBookings(ctx context.Context, status *models.BookingStatus, limit, offset int) ([]*models.Booking, error) {
	if s.db == nil {
		return []*models.Booking{}, nil
	}

	query := `
		SELECT id, user_name, pickup, destination, distance_km, fare, pricing_policy, payment_method, status, created_at
		FROM bookings
	`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*models.Booking{}
	for rows.Next() {
		booking := &models.Booking{}
		if err := rows.Scan(
			&booking.ID, &booking.UserName, &booking.Pickup, &booking.Destination,
			&booking.DistanceKm, &booking.Fare, &booking.PricingPolicy,
			&booking.PaymentMethod, &booking.Status, &booking.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	return bookings, nil
}
