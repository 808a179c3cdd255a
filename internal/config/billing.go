package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig carries the creditor data embedded into QR-bill payloads and
// the fallback billing lead time for plans that do not set one.
type BillingConfig struct {
	Creditor               Creditor `mapstructure:"creditor"`
	DefaultBillDaysBefore  int      `mapstructure:"defaultBillDaysBefore"`
	InvoicePaymentTermDays int      `mapstructure:"invoicePaymentTermDays"`
}

// Creditor is the payee printed on every QR-bill.
type Creditor struct {
	Account    string `mapstructure:"account"`
	Name       string `mapstructure:"name"`
	Street     string `mapstructure:"street"`
	PostalCode string `mapstructure:"postalCode"`
	City       string `mapstructure:"city"`
	Country    string `mapstructure:"country"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		Creditor: Creditor{
			Country: "CH",
		},
		DefaultBillDaysBefore:  20,
		InvoicePaymentTermDays: 30,
	}
}

// BillingConfigHolder hot-reloads billing.yml without restarting the engine.
type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/fakturo/config") // Volume-mounted config
	v.AddConfigPath("/etc/fakturo")            // System config
	v.AddConfigPath(".")                       // Current directory (dev mode)

	v.SetEnvPrefix("FAKTURO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// if config file not found, use defaults
		defaults := DefaultBillingConfig()
		v.SetDefault("billing.creditor", defaults.Creditor)
		v.SetDefault("billing.defaultBillDaysBefore", defaults.DefaultBillDaysBefore)
		v.SetDefault("billing.invoicePaymentTermDays", defaults.InvoicePaymentTermDays)
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

func validateBillingConfig(cfg BillingConfig) error {
	if cfg.DefaultBillDaysBefore < 0 {
		return errors.New("billing.defaultBillDaysBefore cannot be negative")
	}
	if cfg.InvoicePaymentTermDays <= 0 {
		return errors.New("billing.invoicePaymentTermDays must be positive")
	}
	return nil
}
