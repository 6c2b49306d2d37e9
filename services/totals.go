package services

import (
	"math"

	"order-service/models"
)

// TotalsConfig carries the pricing constants applied at checkout. Amounts
// are integer minor units of the configured currency.
type TotalsConfig struct {
	TaxRate               float64
	FreeShippingThreshold int
	ShippingCost          int
	Currency              string
}

// DefaultTotalsConfig returns the storefront defaults (Chilean IVA, flat
// shipping waived above the free-shipping threshold).
func DefaultTotalsConfig() TotalsConfig {
	return TotalsConfig{
		TaxRate:               0.19,
		FreeShippingThreshold: 50000,
		ShippingCost:          5000,
		Currency:              "CLP",
	}
}

// CalculateTotals computes the order amounts from the submitted lines. Pure
// and deterministic; an empty item list yields a zero subtotal.
func CalculateTotals(items []models.CheckoutItem, cfg TotalsConfig) models.Totals {
	subtotal := 0
	for _, item := range items {
		subtotal += item.Price * item.Quantity
	}

	taxes := int(math.Round(float64(subtotal) * cfg.TaxRate))
	shipping := cfg.ShippingCost
	if subtotal >= cfg.FreeShippingThreshold {
		shipping = 0
	}

	return models.Totals{
		Subtotal: subtotal,
		Taxes:    taxes,
		Shipping: shipping,
		Total:    subtotal + taxes + shipping,
		Currency: cfg.Currency,
	}
}
