package services

import (
	"context"

	"minicab/internal/apperror"
	"minicab/internal/logger"
	"minicab/internal/models"
)

// Booker описывает операцию бронирования поездки. Ядро (BookingService)
// и обёртки сквозного поведения реализуют один и тот же контракт,
// поэтому порядок обёрток задаётся явной композицией.
type Booker interface {
	BookRide(ctx context.Context, session *models.Session, req *models.BookRideRequest) (*models.Booking, error)
}

// AuthBooker пропускает попытку бронирования только для
// аутентифицированной сессии. Внутренняя цепочка (включая
// журналирование попытки) для отклонённой сессии не вызывается.
type AuthBooker struct {
	next Booker
	log  *logger.Logger
}

// NewAuthBooker создает аутентификационную обёртку.
func NewAuthBooker(next Booker, log *logger.Logger) *AuthBooker {
	return &AuthBooker{next: next, log: log}
}

// BookRide проверяет сессию и делегирует внутренней цепочке.
func (b *AuthBooker) BookRide(ctx context.Context, session *models.Session, req *models.BookRideRequest) (*models.Booking, error) {
	b.log.WithField("user", session.UserName).Info("Auth check")

	if !session.Authenticated {
		b.log.WithField("user", session.UserName).Warn("Auth failed - not logged in")
		return nil, apperror.Unauthenticated("user is not logged in", nil)
	}

	b.log.WithField("user", session.UserName).Info("Auth success")
	return b.next.BookRide(ctx, session, req)
}

// LoggingBooker журналирует начало и исход каждой попытки бронирования.
type LoggingBooker struct {
	next Booker
	log  *logger.Logger
}

// NewLoggingBooker создает журналирующую обёртку.
func NewLoggingBooker(next Booker, log *logger.Logger) *LoggingBooker {
	return &LoggingBooker{next: next, log: log}
}

// BookRide пишет "Booking started", делегирует и по результату пишет
// "Booking success" либо "Booking failed".
func (b *LoggingBooker) BookRide(ctx context.Context, session *models.Session, req *models.BookRideRequest) (*models.Booking, error) {
	b.log.WithField("user", session.UserName).Info("Booking started")

	booking, err := b.next.BookRide(ctx, session, req)
	if err != nil || booking == nil {
		b.log.WithField("user", session.UserName).Info("Booking failed")
		return booking, err
	}

	b.log.WithFields(map[string]interface{}{
		"user":       session.UserName,
		"booking_id": booking.ID,
	}).Info("Booking success")
	return booking, nil
}

// NewBookingPipeline собирает цепочку бронирования в фиксированном
// порядке: аутентификация снаружи, журналирование внутри неё, ядро
// в центре.
func NewBookingPipeline(core Booker, log *logger.Logger) Booker {
	return NewAuthBooker(NewLoggingBooker(core, log), log)
}
