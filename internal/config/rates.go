package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ServiceRateDefault seeds a service type when the catalog is empty and
// backs the rate defaults exposed to operators.
type ServiceRateDefault struct {
	Name          string  `mapstructure:"name"`
	Medical       bool    `mapstructure:"medical"`
	RateCents     int64   `mapstructure:"rateCents"`
	BillingMethod string  `mapstructure:"billingMethod"`
	UnitType      string  `mapstructure:"unitType"`
	Description   *string `mapstructure:"description"`
}

type RatesConfig struct {
	Defaults []ServiceRateDefault `mapstructure:"defaults"`
}

func DefaultRatesConfig() RatesConfig {
	return RatesConfig{
		Defaults: []ServiceRateDefault{
			{Name: "Home Health - Nursing", Medical: true, RateCents: 13000, BillingMethod: "hourly", UnitType: "hour"},
			{Name: "Home Health - Basic", Medical: true, RateCents: 4145, BillingMethod: "hourly", UnitType: "hour"},
			{Name: "Home Health - Physical Therapy", Medical: true, RateCents: 14300, BillingMethod: "hourly", UnitType: "hour"},
			{Name: "Personal Care", Medical: false, RateCents: 3500, BillingMethod: "hourly", UnitType: "hour"},
		},
	}
}

// RatesConfigHolder hot-reloads the rate defaults file so rate changes do
// not require a restart.
type RatesConfigHolder struct {
	current atomic.Value // holds RatesConfig
}

func NewRatesConfigHolder() (*RatesConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("rates")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/carebill/config")
	v.AddConfigPath("/etc/carebill")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CAREBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultRatesConfig()
		v.SetDefault("rates.defaults", defaults.Defaults)
	}

	var cfg RatesConfig
	if err := v.UnmarshalKey("rates", &cfg); err != nil {
		return nil, err
	}
	if err := validateRatesConfig(cfg); err != nil {
		return nil, err
	}

	holder := &RatesConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RatesConfig
		if err := v.UnmarshalKey("rates", &updated); err != nil {
			log.Printf("[rates-config] reload failed: %v", err)
			return
		}
		if err := validateRatesConfig(updated); err != nil {
			log.Printf("[rates-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[rates-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *RatesConfigHolder) Get() RatesConfig {
	return h.current.Load().(RatesConfig)
}

func validateRatesConfig(cfg RatesConfig) error {
	if len(cfg.Defaults) == 0 {
		return errors.New("rates.defaults cannot be empty")
	}
	for _, def := range cfg.Defaults {
		if strings.TrimSpace(def.Name) == "" {
			return errors.New("rates.defaults entries require a name")
		}
		if def.RateCents < 0 {
			return errors.New("rates.defaults rate cannot be negative")
		}
		switch def.BillingMethod {
		case "hourly", "unit":
		default:
			return errors.New("rates.defaults billingMethod must be hourly or unit")
		}
	}
	return nil
}
