package services

import (
	"fmt"

	"minicab/internal/apperror"
	"minicab/internal/config"
	"minicab/internal/models"
)

// PricingPolicy рассчитывает стоимость поездки по расстоянию.
// Набор вариантов закрыт: Normal и Surge.
type PricingPolicy interface {
	Name() models.PricingPolicyName
	Fare(distanceKm float64) float64
}

// NormalPricing представляет обычный тариф.
type NormalPricing struct {
	PerKm float64
}

// Name возвращает имя варианта.
func (p *NormalPricing) Name() models.PricingPolicyName { return models.PricingNormal }

// Fare считает стоимость: расстояние умножается на тариф за км.
func (p *NormalPricing) Fare(distanceKm float64) float64 {
	return distanceKm * p.PerKm
}

// SurgePricing представляет повышенный тариф.
type SurgePricing struct {
	PerKm float64
}

// Name возвращает имя варианта.
func (p *SurgePricing) Name() models.PricingPolicyName { return models.PricingSurge }

// Fare считает стоимость: расстояние умножается на тариф за км.
func (p *SurgePricing) Fare(distanceKm float64) float64 {
	return distanceKm * p.PerKm
}

// NewPricingPolicy возвращает вариант ценообразования по имени.
// Неизвестное имя — ошибка валидации.
func NewPricingPolicy(name models.PricingPolicyName, cfg *config.PricingConfig) (PricingPolicy, error) {
	switch name {
	case models.PricingNormal:
		return &NormalPricing{PerKm: cfg.NormalPerKm}, nil
	case models.PricingSurge:
		return &SurgePricing{PerKm: cfg.SurgePerKm}, nil
	default:
		return nil, apperror.Validation(fmt.Sprintf("unknown pricing policy: %s", name), nil)
	}
}
