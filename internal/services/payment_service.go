package services

import (
	"context"
	"fmt"

	"minicab/internal/apperror"
	"minicab/internal/config"
	"minicab/internal/logger"
	"minicab/internal/models"
)

// PaymentMethod проводит оплату поездки через именованный канал.
// Оплата симулируется: все три варианта (UPI, Card, Wallet) всегда
// успешны. Ошибка в контракте оставлена для будущих вариантов,
// поэтому ветка отказа у вызывающей стороны остается живой.
type PaymentMethod interface {
	Name() models.PaymentMethodName
	Process(ctx context.Context, amount float64) error
}

// simulatedPayment реализует общий сценарий симулированной оплаты.
type simulatedPayment struct {
	name models.PaymentMethodName
	log  *logger.Logger
	app  *config.AppConfig
}

// Name возвращает имя способа оплаты.
func (p *simulatedPayment) Name() models.PaymentMethodName { return p.name }

// Process проводит оплату и пишет человекочитаемое уведомление
// с символом валюты и суммой с двумя знаками после запятой.
func (p *simulatedPayment) Process(ctx context.Context, amount float64) error {
	p.log.WithFields(map[string]interface{}{
		"method": p.name,
		"amount": fmt.Sprintf("%s%.2f", p.app.CurrencySymbol, amount),
	}).Info(fmt.Sprintf("%s payment of %s%.2f - Success!", p.name, p.app.CurrencySymbol, amount))
	return nil
}

// NewPaymentMethod возвращает способ оплаты по имени.
// Неизвестное имя — ошибка валидации.
func NewPaymentMethod(name models.PaymentMethodName, log *logger.Logger, app *config.AppConfig) (PaymentMethod, error) {
	switch name {
	case models.PaymentUPI, models.PaymentCard, models.PaymentWallet:
		return &simulatedPayment{name: name, log: log, app: app}, nil
	default:
		return nil, apperror.Validation(fmt.Sprintf("unknown payment method: %s", name), nil)
	}
}
