package handlers

import (
	"encoding/json"
	"net/http"

	"minicab/internal/config"
	"minicab/internal/logger"
	"minicab/internal/models"
	"minicab/internal/services"
)

// SettingsHandler управляет активным вариантом ценообразования и
// способом оплаты сервиса бронирования.
type SettingsHandler struct {
	selector PolicySelector
	log      *logger.Logger
	app      *config.AppConfig
	pricing  *config.PricingConfig
}

// NewSettingsHandler создает новый обработчик настроек
func NewSettingsHandler(selector PolicySelector, log *logger.Logger, app *config.AppConfig, pricing *config.PricingConfig) *SettingsHandler {
	return &SettingsHandler{
		selector: selector,
		log:      log,
		app:      app,
		pricing:  pricing,
	}
}

// SetPricing заменяет активный вариант ценообразования
func (h *SettingsHandler) SetPricing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.SetPricingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	policy, err := services.NewPricingPolicy(req.Policy, h.pricing)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to set pricing policy")
		return
	}

	h.selector.SetPricing(policy)
	h.log.WithField("policy", policy.Name()).Info("Pricing policy changed")

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"pricing_policy": policy.Name(),
	})
}

// SetPayment заменяет активный способ оплаты
func (h *SettingsHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.SetPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	method, err := services.NewPaymentMethod(req.Method, h.log, h.app)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to set payment method")
		return
	}

	h.selector.SetPayment(method)
	h.log.WithField("method", method.Name()).Info("Payment method changed")

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"payment_method": method.Name(),
	})
}

// GetSettings возвращает активные настройки бронирования
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	settings := models.BookingSettings{
		AppName:        h.app.Name,
		CurrencySymbol: h.app.CurrencySymbol,
	}
	if policy := h.selector.ActivePricing(); policy != nil {
		settings.PricingPolicy = policy.Name()
	}
	if method := h.selector.ActivePayment(); method != nil {
		settings.PaymentMethod = method.Name()
	}

	writeJSONResponse(w, http.StatusOK, settings)
}
