package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

const (
	defaultLowStockThreshold   = 5
	defaultOrderNumberAttempts = 5
)

var (
	defaultTaxRate         = decimal.RequireFromString("0.10")
	defaultFlatShippingFee = decimal.RequireFromString("10.00")
)

// Settings are the pricing and inventory knobs applied to every commit.
type Settings struct {
	TaxRate             decimal.Decimal
	FlatShippingFee     decimal.Decimal
	LowStockThreshold   int
	OrderNumberAttempts int
}

// DefaultSettings returns the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		TaxRate:             defaultTaxRate,
		FlatShippingFee:     defaultFlatShippingFee,
		LowStockThreshold:   defaultLowStockThreshold,
		OrderNumberAttempts: defaultOrderNumberAttempts,
	}
}

// SettingsFromConfig parses the raw config. Blank decimals, a nil threshold and
// non-positive attempts fall back to defaults; a threshold of 0 is kept.
func SettingsFromConfig(cfg config.CheckoutConfig) (Settings, error) {
	s := DefaultSettings()

	if raw := strings.TrimSpace(cfg.TaxRate); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("parse tax rate %q: %w", raw, err)
		}
		if rate.IsNegative() {
			return Settings{}, fmt.Errorf("tax rate must not be negative")
		}
		s.TaxRate = rate
	}
	if raw := strings.TrimSpace(cfg.FlatShippingFee); raw != "" {
		fee, err := decimal.NewFromString(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("parse flat shipping fee %q: %w", raw, err)
		}
		if fee.IsNegative() {
			return Settings{}, fmt.Errorf("flat shipping fee must not be negative")
		}
		s.FlatShippingFee = fee
	}
	if cfg.LowStockThreshold != nil {
		if *cfg.LowStockThreshold < 0 {
			return Settings{}, fmt.Errorf("low stock threshold must not be negative")
		}
		s.LowStockThreshold = *cfg.LowStockThreshold
	}
	if cfg.OrderNumberAttempts > 0 {
		s.OrderNumberAttempts = cfg.OrderNumberAttempts
	}
	return s, nil
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.TaxRate.IsZero() && s.FlatShippingFee.IsZero() && s.LowStockThreshold == 0 && s.OrderNumberAttempts == 0 {
		return d
	}
	if s.LowStockThreshold < 0 {
		s.LowStockThreshold = d.LowStockThreshold
	}
	if s.OrderNumberAttempts <= 0 {
		s.OrderNumberAttempts = d.OrderNumberAttempts
	}
	return s
}
