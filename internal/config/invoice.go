package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	WritePolicyKeep       = "keep"
	WritePolicyCompensate = "compensate"
)

const (
	keyFederalTaxRate    = "invoice.federalTaxRate"
	keyProvincialTaxRate = "invoice.provincialTaxRate"
	keyDueDays           = "invoice.dueDays"
	keyNumberWidth       = "invoice.numberWidth"
	keyWritePolicy       = "invoice.writePolicy"
)

// InvoiceConfig carries the invoice defaults that can change without a restart.
type InvoiceConfig struct {
	FederalTaxRate    float64
	ProvincialTaxRate float64
	DueDays           int
	NumberWidth       int
	WritePolicy       string
}

func DefaultInvoiceConfig() InvoiceConfig {
	return InvoiceConfig{
		FederalTaxRate:    0.05,
		ProvincialTaxRate: 0.09975,
		DueDays:           30,
		NumberWidth:       4,
		WritePolicy:       WritePolicyKeep,
	}
}

func (c InvoiceConfig) DefaultRates() (decimal.Decimal, decimal.Decimal) {
	return decimal.NewFromFloat(c.FederalTaxRate), decimal.NewFromFloat(c.ProvincialTaxRate)
}

type InvoiceConfigHolder struct {
	current atomic.Value // holds InvoiceConfig
}

// NewStaticInvoiceConfigHolder returns a holder that never reloads.
func NewStaticInvoiceConfigHolder(cfg InvoiceConfig) *InvoiceConfigHolder {
	holder := &InvoiceConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewInvoiceConfigHolder(cfg Config, log *zap.Logger) (*InvoiceConfigHolder, error) {
	log = log.Named("invoice.config")
	v := viper.New()

	if cfg.InvoiceConfigPath != "" {
		v.SetConfigFile(cfg.InvoiceConfigPath)
	} else {
		v.SetConfigName("invoice")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/siino")
		v.AddConfigPath(".")
	}

	defaults := DefaultInvoiceConfig()
	for key, value := range map[string]any{
		keyFederalTaxRate:    defaults.FederalTaxRate,
		keyProvincialTaxRate: defaults.ProvincialTaxRate,
		keyDueDays:           defaults.DueDays,
		keyNumberWidth:       defaults.NumberWidth,
		keyWritePolicy:       defaults.WritePolicy,
	} {
		v.SetDefault(key, value)
		// nested keys are only read from the environment when bound
		if err := v.BindEnv(key, invoiceEnvName(key)); err != nil {
			return nil, err
		}
	}

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	current := readInvoiceConfig(v)
	if err := validateInvoiceConfig(current); err != nil {
		return nil, err
	}

	holder := NewStaticInvoiceConfigHolder(current)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := readInvoiceConfig(v)
		if err := validateInvoiceConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func readInvoiceConfig(v *viper.Viper) InvoiceConfig {
	return InvoiceConfig{
		FederalTaxRate:    v.GetFloat64(keyFederalTaxRate),
		ProvincialTaxRate: v.GetFloat64(keyProvincialTaxRate),
		DueDays:           v.GetInt(keyDueDays),
		NumberWidth:       v.GetInt(keyNumberWidth),
		WritePolicy:       strings.ToLower(strings.TrimSpace(v.GetString(keyWritePolicy))),
	}
}

// invoiceEnvName maps invoice.writePolicy to SIINO_INVOICE_WRITEPOLICY.
func invoiceEnvName(key string) string {
	return "SIINO_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (h *InvoiceConfigHolder) Get() InvoiceConfig {
	return h.current.Load().(InvoiceConfig)
}

func validateInvoiceConfig(cfg InvoiceConfig) error {
	if cfg.FederalTaxRate < 0 || cfg.ProvincialTaxRate < 0 {
		return errors.New("invoice tax rates cannot be negative")
	}
	if cfg.DueDays < 0 {
		return errors.New("invoice.dueDays cannot be negative")
	}
	if cfg.NumberWidth <= 0 {
		return errors.New("invoice.numberWidth must be positive")
	}
	switch cfg.WritePolicy {
	case WritePolicyKeep, WritePolicyCompensate:
		return nil
	default:
		return errors.New("invoice.writePolicy must be keep or compensate")
	}
}
