package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"minicab/internal/config"
	"minicab/internal/logger"
	"minicab/internal/models"
	"minicab/internal/redis"
)

// BookingHandler представляет обработчик бронирований
type BookingHandler struct {
	pipeline    BookingPipeline
	store       BookingStore
	producer    EventProducer
	redisClient RedisClient
	log         *logger.Logger
	cacheTTL    time.Duration
}

// NewBookingHandler создает новый обработчик бронирований
func NewBookingHandler(pipeline BookingPipeline, store BookingStore, producer EventProducer, redisClient RedisClient, log *logger.Logger, cfg *config.BookingConfig) *BookingHandler {
	cacheTTL := defaultCacheTTL
	if cfg != nil && cfg.CacheTTLSec > 0 {
		cacheTTL = time.Duration(cfg.CacheTTLSec) * time.Second
	}
	return &BookingHandler{
		pipeline:    pipeline,
		store:       store,
		producer:    producer,
		redisClient: redisClient,
		log:         log,
		cacheTTL:    cacheTTL,
	}
}

// sessionFromRequest строит сессию из заголовков запроса.
// Сессия симулируется: непустой X-Auth-Token означает, что
// пользователь аутентифицирован.
func sessionFromRequest(r *http.Request) *models.Session {
	userName := r.Header.Get("X-User-Name")
	if userName == "" {
		userName = "anonymous"
	}
	return &models.Session{
		UserName:      userName,
		Authenticated: r.Header.Get("X-Auth-Token") != "",
	}
}

// BookRide оформляет поездку
func (h *BookingHandler) BookRide(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.BookRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session := sessionFromRequest(r)

	booking, err := h.pipeline.BookRide(r.Context(), session, &req)
	if err != nil {
		if h.producer != nil {
			if pubErr := h.producer.PublishBookingFailed(session.UserName, err.Error()); pubErr != nil {
				h.log.WithError(pubErr).Error("Failed to publish booking failed event")
			}
		}
		writeServiceError(w, h.log, err, "Failed to book ride")
		return
	}

	if h.producer != nil {
		if pubErr := h.producer.PublishBookingCreated(booking); pubErr != nil {
			h.log.WithError(pubErr).Error("Failed to publish booking created event")
		}
		if pubErr := h.producer.PublishPaymentProcessed(booking.ID, booking.PaymentMethod, booking.Fare); pubErr != nil {
			h.log.WithError(pubErr).Error("Failed to publish payment processed event")
		}
	}

	// Список бронирований изменился — сбрасываем кеш списков
	if h.redisClient != nil {
		if cacheErr := h.redisClient.DeleteByPrefix(r.Context(), redis.KeyPrefixBookings); cacheErr != nil {
			h.log.WithError(cacheErr).Warn("Failed to invalidate bookings cache")
		}
	}

	writeJSONResponse(w, http.StatusCreated, booking)
}

// GetBooking получает бронирование по ID
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	bookingID, err := extractUUIDFromPath(r.URL.Path, "/api/bookings/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	cacheKey := redis.GenerateKey(redis.KeyPrefixBooking, bookingID.String())
	if h.redisClient != nil {
		var cached models.Booking
		if err := h.redisClient.Get(r.Context(), cacheKey, &cached); err == nil {
			writeJSONResponse(w, http.StatusOK, &cached)
			return
		}
	}

	booking, err := h.store.GetBooking(r.Context(), bookingID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get booking")
		return
	}

	if h.redisClient != nil {
		if cacheErr := h.redisClient.Set(r.Context(), cacheKey, booking, h.cacheTTL); cacheErr != nil {
			h.log.WithError(cacheErr).Warn("Failed to cache booking")
		}
	}

	writeJSONResponse(w, http.StatusOK, booking)
}

// GetBookings получает список бронирований
func (h *BookingHandler) GetBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var status *models.BookingStatus
	if s := r.URL.Query().Get("status"); s != "" {
		bs := models.BookingStatus(s)
		if bs != models.BookingStatusConfirmed && bs != models.BookingStatusFailed {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		status = &bs
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 || parsed > 100 {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	offset := 0
	if o := r.URL.Query().Get("offset"); o != "" {
		parsed, err := strconv.Atoi(o)
		if err != nil || parsed < 0 {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid offset")
			return
		}
		offset = parsed
	}

	bookings, err := h.store.GetBookings(r.Context(), status, limit, offset)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get bookings")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}
