package config

import (
	"fmt"

	pkgconfig "github.com/Mattie1391/sportify-backend/pkg/config"
	"github.com/Mattie1391/sportify-backend/pkg/logger"
	"github.com/Mattie1391/sportify-backend/pkg/messaging"
)

// ServiceName is used for the config file name and the env prefix (BILLING_*).
const ServiceName = "billing"

type Config struct {
	Service      ServiceConfig      `mapstructure:"service"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Server       ServerConfig       `mapstructure:"server"`
	Redis        messaging.Options  `mapstructure:"redis"`
	Log          logger.Config      `mapstructure:"log"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	ECPay        ECPayConfig        `mapstructure:"ecpay"`
	RevenueShare RevenueShareConfig `mapstructure:"revenue_share"`
	Events       EventsConfig       `mapstructure:"events"`
}

var defaults = map[string]interface{}{
	"service.name":                ServiceName,
	"service.environment":         "dev",
	"service.timezone":            "Asia/Taipei",
	"server.http.host":            "0.0.0.0",
	"server.http.port":            8080,
	"server.grpc.host":            "0.0.0.0",
	"server.grpc.port":            9090,
	"database.port":               5432,
	"database.ssl_mode":           "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  "30m",
	"database.conn_max_idle_time": "5m",
	"database.slow_threshold":     "200ms",
	"redis.addr":                  "localhost:6379",
	"log.level":                   "info",
	"log.format":                  "json",
	"log.output":                  "stdout",
	"jwt.admin_role":              "admin",
	"ecpay.checkout_url":          "https://payment-stage.ecpay.com.tw/Cashier/AioCheckOut/V5",
	"ecpay.period_action_url":     "https://payment-stage.ecpay.com.tw/Cashier/CreditCardPeriodAction",
	"ecpay.exec_times":            12,
	"ecpay.request_timeout":       "10s",
	"revenue_share.share_rate":    "0.7",
	"revenue_share.cron":          "30 0 1 * *",
	"revenue_share.lock_ttl":      "10m",
	"revenue_share.run_timeout":   "30m",
	"events.channel":              "billing.events",
}

// LoadConfig reads configs/<APP_ENV>/billing.yaml (or $CONFIG_PATH) with
// BILLING_* environment overrides.
func LoadConfig() (*Config, error) {
	raw, err := pkgconfig.Load(ServiceName, pkgconfig.WithDefaults(defaults))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	if err := raw.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if _, err := c.Service.Location(); err != nil {
		return fmt.Errorf("invalid service.timezone: %w", err)
	}
	if c.ECPay.MerchantID == "" || c.ECPay.HashKey == "" || c.ECPay.HashIV == "" {
		return fmt.Errorf("ecpay.merchant_id, ecpay.hash_key and ecpay.hash_iv are required")
	}
	if _, err := c.RevenueShare.Rate(); err != nil {
		return err
	}
	return nil
}
