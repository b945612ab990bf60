/*
Package config loads the service configuration with viper: defaults,
then an optional YAML file, then VEREINWERK_* environment variables,
each layer overriding the previous one.

Example file (vereinwerk.yaml):

	server:
	  port: 8080
	database:
	  path: ./data/vereinwerk.db
	sepa:
	  creditor_name: "Musterverein e.V."
	  creditor_iban: "DE89370400440532013000"
	  creditor_bic: "COBADEFFXXX"
	  creditor_id: "DE98ZZZ09999999999"
	  message_id_prefix: "MSG"
	scheduler:
	  enabled: true
	  invoice_spec: "0 6 * * *"
	  dunning_spec: "30 6 * * *"

Environment overrides use underscores for nesting, e.g.
VEREINWERK_SEPA_CREDITOR_IBAN.
*/
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/vereinwerk/billing-engine/sepa"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Sepa      sepa.Config     `mapstructure:"sepa"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	// Path is the SQLite file; ":memory:" for an in-memory database.
	Path string `mapstructure:"path"`
}

type SchedulerConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	InvoiceSpec string `mapstructure:"invoice_spec"`
	DunningSpec string `mapstructure:"dunning_spec"`
}

// Load reads the configuration. path may be empty, in which case
// vereinwerk.yaml is searched in the working directory and /etc/vereinwerk;
// a missing file is fine, defaults and environment still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "vereinwerk.db")
	v.SetDefault("sepa.message_id_prefix", "MSG")
	// Empty defaults register the keys so environment-only values are
	// picked up by Unmarshal.
	v.SetDefault("sepa.creditor_name", "")
	v.SetDefault("sepa.creditor_iban", "")
	v.SetDefault("sepa.creditor_bic", "")
	v.SetDefault("sepa.creditor_id", "")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.invoice_spec", "0 6 * * *")
	v.SetDefault("scheduler.dunning_spec", "30 6 * * *")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("vereinwerk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/vereinwerk")
	}

	v.SetEnvPrefix("VEREINWERK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the fields without which the service cannot produce
// bank-acceptable SEPA files. Everything else has a usable default.
func (c *Config) Validate() error {
	if c.Sepa.CreditorName == "" {
		return fmt.Errorf("sepa.creditor_name is required")
	}
	if !sepa.ValidateIBAN(c.Sepa.CreditorIBAN) {
		return fmt.Errorf("sepa.creditor_iban is missing or invalid")
	}
	if c.Sepa.CreditorBIC != "" && !sepa.ValidateBIC(c.Sepa.CreditorBIC) {
		return fmt.Errorf("sepa.creditor_bic is invalid")
	}
	if c.Sepa.CreditorID == "" {
		return fmt.Errorf("sepa.creditor_id is required")
	}
	return nil
}
