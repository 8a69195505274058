package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// StoreSettings are the business constants used by pricing and display.
type StoreSettings struct {
	StoreName             string          `yaml:"store_name"`
	Currency              string          `yaml:"currency"`
	CurrencySymbol        string          `yaml:"currency_symbol"`
	FreeShippingThreshold decimal.Decimal `yaml:"free_shipping_threshold"`
	ShippingFee           decimal.Decimal `yaml:"shipping_fee"`
	TaxRate               decimal.Decimal `yaml:"tax_rate"`
}

// DefaultSettings returns the settings used when no file is configured.
func DefaultSettings() StoreSettings {
	return StoreSettings{
		StoreName:             "Storefront",
		Currency:              "INR",
		CurrencySymbol:        "₹",
		FreeShippingThreshold: decimal.NewFromInt(999),
		ShippingFee:           decimal.NewFromInt(99),
		TaxRate:               decimal.RequireFromString("0.18"),
	}
}

// LoadSettings reads a YAML settings file on top of the defaults.
// A missing file is not an error.
func LoadSettings(path string) (StoreSettings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("read store settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parse store settings %s: %w", path, err)
	}
	if settings.TaxRate.IsNegative() || settings.ShippingFee.IsNegative() {
		return settings, fmt.Errorf("store settings %s: negative tax rate or shipping fee", path)
	}
	return settings, nil
}
