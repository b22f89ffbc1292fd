package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"minicab/internal/config"
	"minicab/internal/database"
	"minicab/internal/handlers"
	"minicab/internal/kafka"
	"minicab/internal/logger"
	"minicab/internal/models"
	"minicab/internal/redis"
	"minicab/internal/services"
)

// Фабричные функции для подключения внешних сервисов (подменяемые в тестах).
var (
	dbConnect        = database.Connect
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	newKafkaConsumer = kafka.NewConsumer
	kafkaHealthCheck = handlers.CheckKafkaHealth
	loadConfig       = config.Load
	newLogger        = logger.New
)

// application агрегирует собранные зависимости.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
	mux      *http.ServeMux
	server   *http.Server
}

func main() {
	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.WithField("app", app.cfg.App.Name).Info("Starting booking server...")

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = app.consumer.Stop()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	_ = app.producer.Close()
	_ = app.redis.Close()
	_ = app.db.Close()
	app.log.Info("Server exited")
}

// buildApplication создает все зависимости (подменяемые в тестах).
func buildApplication() (*application, error) {
	cfg := loadConfig()
	log := newLogger(&cfg.Logger)

	db, err := dbConnect(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	redisClient, err := redisConnect(&cfg.Redis, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	producer, err := newKafkaProducer(&cfg.Kafka, log)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	consumer, err := newKafkaConsumer(&cfg.Kafka, log)
	if err != nil {
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	bookingService := services.NewBookingService(db, log, &cfg.App)
	if err := applyDefaultPolicies(bookingService, cfg, log); err != nil {
		_ = consumer.Stop()
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, err
	}

	pipeline := services.NewBookingPipeline(bookingService, log)
	rateLimiter := services.NewRateLimiter(redisClient, log, &cfg.RateLimit)

	bookingHandler := handlers.NewBookingHandler(pipeline, bookingService, producer, redisClient, log, &cfg.Booking)
	settingsHandler := handlers.NewSettingsHandler(bookingService, log, &cfg.App, &cfg.Pricing)
	healthHandler := handlers.NewHealthHandler(db, redisClient, cfg.Kafka.Brokers, kafkaHealthCheck)
	rateLimitHandler := handlers.NewRateLimitHandler(rateLimiter, log, &cfg.RateLimit)

	registerEventHandlers(consumer, log)
	if err := consumer.Start(); err != nil {
		_ = consumer.Stop()
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer start: %w", err)
	}

	mux := setupRoutes(bookingHandler, settingsHandler, healthHandler, rateLimitHandler, rateLimiter, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return &application{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    redisClient,
		producer: producer,
		consumer: consumer,
		mux:      mux,
		server:   server,
	}, nil
}

// applyDefaultPolicies выбирает стартовые вариант ценообразования и способ
// оплаты из конфигурации, если они заданы. Без них сервис стартует с
// невыбранными политиками, и бронирования отклоняются до явного выбора.
func applyDefaultPolicies(svc *services.BookingService, cfg *config.Config, log *logger.Logger) error {
	if cfg.Booking.DefaultPricing != "" {
		policy, err := services.NewPricingPolicy(models.PricingPolicyName(cfg.Booking.DefaultPricing), &cfg.Pricing)
		if err != nil {
			return fmt.Errorf("default pricing policy: %w", err)
		}
		svc.SetPricing(policy)
		log.WithField("policy", policy.Name()).Info("Default pricing policy applied")
	}

	if cfg.Booking.DefaultPayment != "" {
		method, err := services.NewPaymentMethod(models.PaymentMethodName(cfg.Booking.DefaultPayment), log, &cfg.App)
		if err != nil {
			return fmt.Errorf("default payment method: %w", err)
		}
		svc.SetPayment(method)
		log.WithField("method", method.Name()).Info("Default payment method applied")
	}

	return nil
}

// setupRoutes настраивает маршруты HTTP сервера
func setupRoutes(bookingHandler *handlers.BookingHandler, settingsHandler *handlers.SettingsHandler, healthHandler *handlers.HealthHandler, rateLimitHandler *handlers.RateLimitHandler, rateLimiter *services.RateLimiter, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	applyAPI := func(h http.HandlerFunc) http.HandlerFunc {
		return corsMiddleware(handlers.RateLimitMiddleware(rateLimiter, log, h))
	}

	// Health check endpoints
	mux.HandleFunc("/health", corsMiddleware(healthHandler.Health))
	mux.HandleFunc("/health/readiness", corsMiddleware(healthHandler.Readiness))
	mux.HandleFunc("/health/liveness", corsMiddleware(healthHandler.Liveness))

	// Booking endpoints
	mux.HandleFunc("/api/bookings", applyAPI(handleBookingsRoute(bookingHandler)))
	mux.HandleFunc("/api/bookings/", applyAPI(handleBookingRoute(bookingHandler)))

	// Settings endpoints
	mux.HandleFunc("/api/settings", applyAPI(settingsHandler.GetSettings))
	mux.HandleFunc("/api/settings/pricing", applyAPI(settingsHandler.SetPricing))
	mux.HandleFunc("/api/settings/payment", applyAPI(settingsHandler.SetPayment))

	// Rate limit status
	mux.HandleFunc("/api/rate-limit/status", applyAPI(rateLimitHandler.Status))

	return mux
}

// handleBookingsRoute обрабатывает маршруты для коллекции бронирований
func handleBookingsRoute(handler *handlers.BookingHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.GetBookings(w, r)
		case http.MethodPost:
			handler.BookRide(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// handleBookingRoute обрабатывает маршруты для отдельного бронирования
func handleBookingRoute(handler *handlers.BookingHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			handler.GetBooking(w, r)
			return
		}
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// registerEventHandlers регистрирует обработчики событий Kafka
func registerEventHandlers(consumer *kafka.Consumer, log *logger.Logger) {
	consumer.RegisterHandler(models.EventTypeBookingCreated, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing booking created event")
		return nil
	})

	consumer.RegisterHandler(models.EventTypePaymentProcessed, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing payment processed event")
		return nil
	})
}

// corsMiddleware и другие helper функции
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-Name, X-Auth-Token")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	type errorResponse struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
