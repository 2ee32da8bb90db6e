package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	ClientURL   string `mapstructure:"client_url"`
	// Timezone used for order-number days, gateway timestamps and payout months
	Timezone string `mapstructure:"timezone"`
}

// Location resolves Timezone, defaulting to UTC when empty.
func (c ServiceConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

type JWTConfig struct {
	Secret    string `mapstructure:"secret"`
	AdminRole string `mapstructure:"admin_role"`
}

// ECPayConfig holds the merchant credentials and endpoints of the card gateway.
type ECPayConfig struct {
	MerchantID      string        `mapstructure:"merchant_id"`
	HashKey         string        `mapstructure:"hash_key"`
	HashIV          string        `mapstructure:"hash_iv"`
	CheckoutURL     string        `mapstructure:"checkout_url"`
	PeriodActionURL string        `mapstructure:"period_action_url"`
	ReturnURL       string        `mapstructure:"return_url"`
	PeriodReturnURL string        `mapstructure:"period_return_url"`
	ClientBackURL   string        `mapstructure:"client_back_url"`
	ExecTimes       int           `mapstructure:"exec_times"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

type RevenueShareConfig struct {
	// ShareRate is the coaches' fraction of monthly income, e.g. "0.7"
	ShareRate  string        `mapstructure:"share_rate"`
	Cron       string        `mapstructure:"cron"`
	LockTTL    time.Duration `mapstructure:"lock_ttl"`
	RunTimeout time.Duration `mapstructure:"run_timeout"`
}

// Rate parses ShareRate; it must lie in (0, 1].
func (c RevenueShareConfig) Rate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.ShareRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid revenue_share.share_rate %q: %w", c.ShareRate, err)
	}
	if !rate.IsPositive() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("revenue_share.share_rate must be in (0, 1], got %s", rate)
	}
	return rate, nil
}

type EventsConfig struct {
	Channel string `mapstructure:"channel"`
}
