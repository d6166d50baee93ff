// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package pfolioconfig provides configuration parsing and validation for pfolio.
//
// Configuration is stored at ~/.config/pfolio/config.yaml (or $PFOLIO_CONFIG_DIR/config.yaml).
// The file is optional. If it does not exist, DefaultConfig is used.
package pfolioconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bufdev/pfolio/internal/pfolio/pfoliobudget"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliodata"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliopath"
	"github.com/bufdev/pfolio/internal/pfolio/pfolioportfolio"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliosource"
	"github.com/bufdev/pfolio/internal/pkg/backoff"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultCurrency is the currency used when none is configured.
	DefaultCurrency = "USD"
	// DefaultEODHDAPITokenEnv is the environment variable holding the EODHD API token by default.
	DefaultEODHDAPITokenEnv = "EODHD_API_TOKEN"

	scheduleTypeMonthly     = "monthly"
	scheduleTypeSemiMonthly = "semimonthly"
	scheduleTypeInterval    = "interval"
)

// configTemplate is the default configuration file template with comments.
// yaml.v3 does not preserve comments, so we hardcode the template string.
const configTemplate = `# The configuration file version.
#
# Required. The only current valid version is v1.
version: v1
# The ISO 4217 currency used to display amounts.
#
# Optional. Defaults to USD.
currency: USD
# How long fetched prices and computed totals are reused.
#
# Optional. Defaults to 24h.
cache_ttl: 24h
# The market data sources, tried in order for each ticker.
#
# Optional. Defaults to yahoo only.
data_sources:
  - name: yahoo
  # EODHD requires an API token, read from the named environment variable.
  # The variable may also be set in the .env file next to this file.
  #
  # - name: eodhd
  #   api_token_env: EODHD_API_TOKEN
  #   exchange: US
# Retries for a single data source request.
#
# Optional. The delay before attempt n is (2^n + random * jitter) * base_delay.
retry:
  max_attempts: 5
  base_delay: 1s
  # max_delay: 30s
  jitter: 0.1
# Request pacing per data source.
#
# Optional. Set requests_per_second to 0 to disable.
rate_limit:
  requests_per_second: 2
  burst: 1
# Versioned snapshots of portfolio files.
#
# Optional. When enabled, changes are written to a new file named by the
# template instead of overwriting the portfolio file, and the newest
# snapshot is read on open.
versioning:
  enabled: true
  template: "{file_path}.{timestamp}"
# Recurring budget entries rendered by "pfolio budget".
#
# Optional. Schedule types are monthly (day), semimonthly (days), and
# interval (every_years, every_months, every_weeks, every_days).
# budget:
#   entries:
#     - name: rent
#       amount: "1300.00"
#       payer_account: Assets:Checking
#       payee_account: Expenses:Housing:Rent
#       schedule:
#         type: monthly
#         day: 3
#     - name: paycheck
#       amount: "1700.00"
#       payer_account: Income:Salary
#       payee_account: Assets:Checking
#       schedule:
#         type: semimonthly
#         days: [1, 15]
`

// ExternalConfig is the YAML-serializable configuration file structure.
type ExternalConfig struct {
	// Version is the configuration file version (must be "v1").
	Version string `yaml:"version"`
	// Currency is the ISO 4217 display currency.
	Currency string `yaml:"currency"`
	// CacheTTL is a Go duration string.
	CacheTTL string `yaml:"cache_ttl"`
	// DataSources are tried in order.
	DataSources []ExternalDataSourceConfig `yaml:"data_sources"`
	// Retry configures retries against a single data source.
	Retry ExternalRetryConfig `yaml:"retry"`
	// RateLimit configures request pacing per data source.
	RateLimit ExternalRateLimitConfig `yaml:"rate_limit"`
	// Versioning configures versioned snapshots of portfolio files.
	Versioning ExternalVersioningConfig `yaml:"versioning"`
	// Budget holds the recurring budget entries.
	Budget ExternalBudgetConfig `yaml:"budget"`
}

// ExternalDataSourceConfig configures a market data source.
type ExternalDataSourceConfig struct {
	// Name is "yahoo" or "eodhd".
	Name string `yaml:"name"`
	// APITokenEnv is the environment variable holding the API token.
	APITokenEnv string `yaml:"api_token_env"`
	// Exchange is the EODHD exchange code appended to tickers without one.
	Exchange string `yaml:"exchange"`
}

// ExternalRetryConfig configures retries.
type ExternalRetryConfig struct {
	MaxAttempts int      `yaml:"max_attempts"`
	BaseDelay   string   `yaml:"base_delay"`
	MaxDelay    string   `yaml:"max_delay"`
	Jitter      *float64 `yaml:"jitter"`
}

// ExternalRateLimitConfig configures request pacing.
type ExternalRateLimitConfig struct {
	RequestsPerSecond *float64 `yaml:"requests_per_second"`
	Burst             int      `yaml:"burst"`
}

// ExternalVersioningConfig configures versioned snapshots.
type ExternalVersioningConfig struct {
	Enabled  *bool  `yaml:"enabled"`
	Template string `yaml:"template"`
}

// ExternalBudgetConfig holds the budget entries.
type ExternalBudgetConfig struct {
	Entries []ExternalBudgetEntryConfig `yaml:"entries"`
}

// ExternalBudgetEntryConfig is a recurring budget entry.
type ExternalBudgetEntryConfig struct {
	Name         string                 `yaml:"name"`
	Amount       string                 `yaml:"amount"`
	PayerAccount string                 `yaml:"payer_account"`
	PayeeAccount string                 `yaml:"payee_account"`
	Schedule     ExternalScheduleConfig `yaml:"schedule"`
}

// ExternalScheduleConfig is the schedule of a budget entry.
type ExternalScheduleConfig struct {
	// Type is "monthly", "semimonthly", or "interval".
	Type string `yaml:"type"`
	// Day is the day of the month for monthly schedules.
	Day int `yaml:"day"`
	// Days are the days of the month for semimonthly schedules.
	Days        []int `yaml:"days"`
	EveryYears  int   `yaml:"every_years"`
	EveryMonths int   `yaml:"every_months"`
	EveryWeeks  int   `yaml:"every_weeks"`
	EveryDays   int   `yaml:"every_days"`
}

// Config is the validated runtime configuration derived from the config file.
type Config struct {
	// Currency is the ISO 4217 display currency.
	Currency string
	// CacheTTL is how long prices and totals are reused.
	CacheTTL time.Duration
	// DataSources are the market data sources in the order they are tried.
	DataSources []DataSourceConfig
	// RetryPolicy is applied to every data source request.
	RetryPolicy backoff.Policy
	// RequestsPerSecond paces each data source. Zero disables pacing.
	RequestsPerSecond float64
	// Burst is the number of requests allowed at once.
	Burst int
	// VersionTemplate names versioned snapshots. Empty disables versioning.
	VersionTemplate string
	// BudgetEntries are the recurring budget entries.
	BudgetEntries []pfoliobudget.Entry
}

// DataSourceConfig is a validated market data source.
type DataSourceConfig struct {
	// Name is pfoliodata.YahooSourceName or pfoliodata.EODHDSourceName.
	Name string
	// APITokenEnv is the environment variable holding the API token, if the source needs one.
	APITokenEnv string
	// Exchange is the EODHD exchange code.
	Exchange string
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Currency: DefaultCurrency,
		CacheTTL: pfolioportfolio.DefaultCacheTTL,
		DataSources: []DataSourceConfig{
			{
				Name: pfoliodata.YahooSourceName,
			},
		},
		RetryPolicy:       backoff.DefaultPolicy(),
		RequestsPerSecond: pfoliodata.DefaultRequestsPerSecond,
		Burst:             pfoliodata.DefaultBurst,
		VersionTemplate:   pfoliopath.DefaultVersionTemplate,
	}
}

// NewConfig validates an ExternalConfig and returns a runtime Config.
//
// Unset fields take their values from DefaultConfig.
func NewConfig(externalConfig ExternalConfig) (*Config, error) {
	if externalConfig.Version != "v1" {
		return nil, fmt.Errorf("unsupported config version %q, must be v1", externalConfig.Version)
	}
	config := DefaultConfig()
	if externalConfig.Currency != "" {
		if len(externalConfig.Currency) != 3 {
			return nil, fmt.Errorf("currency %q must be a three-letter ISO 4217 code", externalConfig.Currency)
		}
		config.Currency = strings.ToUpper(externalConfig.Currency)
	}
	if externalConfig.CacheTTL != "" {
		cacheTTL, err := parseDuration("cache_ttl", externalConfig.CacheTTL)
		if err != nil {
			return nil, err
		}
		config.CacheTTL = cacheTTL
	}
	if len(externalConfig.DataSources) > 0 {
		dataSources, err := newDataSourceConfigs(externalConfig.DataSources)
		if err != nil {
			return nil, err
		}
		config.DataSources = dataSources
	}
	retryPolicy, err := newRetryPolicy(externalConfig.Retry)
	if err != nil {
		return nil, err
	}
	config.RetryPolicy = retryPolicy
	if requestsPerSecond := externalConfig.RateLimit.RequestsPerSecond; requestsPerSecond != nil {
		if *requestsPerSecond < 0 {
			return nil, errors.New("rate_limit.requests_per_second must not be negative")
		}
		config.RequestsPerSecond = *requestsPerSecond
	}
	if externalConfig.RateLimit.Burst < 0 {
		return nil, errors.New("rate_limit.burst must not be negative")
	}
	if externalConfig.RateLimit.Burst > 0 {
		config.Burst = externalConfig.RateLimit.Burst
	}
	if externalConfig.Versioning.Template != "" {
		if err := pfoliopath.ValidateVersionTemplate(externalConfig.Versioning.Template); err != nil {
			return nil, fmt.Errorf("versioning.template: %w", err)
		}
		config.VersionTemplate = externalConfig.Versioning.Template
	}
	if enabled := externalConfig.Versioning.Enabled; enabled != nil && !*enabled {
		config.VersionTemplate = ""
	}
	budgetEntries, err := newBudgetEntries(externalConfig.Budget.Entries)
	if err != nil {
		return nil, err
	}
	config.BudgetEntries = budgetEntries
	return config, nil
}

// SourceOptions returns the options for opening portfolio files with pfoliosource.
func (c *Config) SourceOptions() []pfoliosource.Option {
	if c.VersionTemplate == "" {
		return []pfoliosource.Option{pfoliosource.WithoutVersioning()}
	}
	return []pfoliosource.Option{pfoliosource.WithVersioning(c.VersionTemplate)}
}

// DataSourceOptions returns the options shared by every market data source.
func (c *Config) DataSourceOptions() []pfoliodata.SourceOption {
	return []pfoliodata.SourceOption{
		pfoliodata.SourceWithRetryPolicy(c.RetryPolicy),
		pfoliodata.SourceWithRateLimit(c.RequestsPerSecond, c.Burst),
		pfoliodata.SourceWithCacheTTL(c.CacheTTL),
	}
}

// ReadConfig reads and validates the configuration file from the given config directory.
func ReadConfig(configDirPath string) (*Config, error) {
	return ReadConfigFile(pfoliopath.ConfigFilePath(configDirPath))
}

// ReadConfigFile reads and validates the configuration file.
//
// If the file does not exist, DefaultConfig is returned.
func ReadConfigFile(filePath string) (*Config, error) {
	config, err := readConfigFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return config, err
}

// InitConfig creates a new configuration file with a documented template.
// Creates the config directory if it does not exist.
// Returns the path to the created file, or an error if the file already exists.
func InitConfig(configDirPath string) (string, error) {
	filePath := pfoliopath.ConfigFilePath(configDirPath)
	if _, err := os.Stat(filePath); err == nil {
		return "", fmt.Errorf("configuration file already exists: %s", filePath)
	}
	if err := os.MkdirAll(configDirPath, 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(filePath, []byte(configTemplate), 0o644); err != nil {
		return "", err
	}
	return filePath, nil
}

// ValidateConfigFile reads and validates the configuration file.
//
// Unlike ReadConfigFile, a missing file is an error.
func ValidateConfigFile(filePath string) error {
	_, err := readConfigFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("configuration file not found at %s, run \"pfolio config init\" to create one", filePath)
	}
	return err
}

// *** PRIVATE ***

func readConfigFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var externalConfig ExternalConfig
	if err := unmarshalYAMLStrict(data, &externalConfig); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
	}
	config, err := NewConfig(externalConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return config, nil
}

func newDataSourceConfigs(externalDataSources []ExternalDataSourceConfig) ([]DataSourceConfig, error) {
	seen := make(map[string]struct{}, len(externalDataSources))
	dataSources := make([]DataSourceConfig, 0, len(externalDataSources))
	for _, externalDataSource := range externalDataSources {
		if _, ok := seen[externalDataSource.Name]; ok {
			return nil, fmt.Errorf("duplicate data source %q", externalDataSource.Name)
		}
		seen[externalDataSource.Name] = struct{}{}
		switch externalDataSource.Name {
		case pfoliodata.YahooSourceName:
			if externalDataSource.APITokenEnv != "" || externalDataSource.Exchange != "" {
				return nil, fmt.Errorf("data source %q does not take api_token_env or exchange", externalDataSource.Name)
			}
			dataSources = append(dataSources, DataSourceConfig{Name: externalDataSource.Name})
		case pfoliodata.EODHDSourceName:
			dataSource := DataSourceConfig{
				Name:        externalDataSource.Name,
				APITokenEnv: externalDataSource.APITokenEnv,
				Exchange:    externalDataSource.Exchange,
			}
			if dataSource.APITokenEnv == "" {
				dataSource.APITokenEnv = DefaultEODHDAPITokenEnv
			}
			if dataSource.Exchange == "" {
				dataSource.Exchange = pfoliodata.DefaultEODHDExchange
			}
			dataSources = append(dataSources, dataSource)
		case "":
			return nil, errors.New("data source name is required")
		default:
			return nil, fmt.Errorf("unknown data source %q, must be one of %s, %s", externalDataSource.Name, pfoliodata.YahooSourceName, pfoliodata.EODHDSourceName)
		}
	}
	return dataSources, nil
}

func newRetryPolicy(externalRetry ExternalRetryConfig) (backoff.Policy, error) {
	policy := backoff.DefaultPolicy()
	if externalRetry.MaxAttempts != 0 {
		policy.MaxAttempts = externalRetry.MaxAttempts
	}
	if externalRetry.BaseDelay != "" {
		baseDelay, err := parseDuration("retry.base_delay", externalRetry.BaseDelay)
		if err != nil {
			return backoff.Policy{}, err
		}
		policy.BaseDelay = baseDelay
	}
	if externalRetry.MaxDelay != "" {
		maxDelay, err := parseDuration("retry.max_delay", externalRetry.MaxDelay)
		if err != nil {
			return backoff.Policy{}, err
		}
		policy.MaxDelay = maxDelay
	}
	if externalRetry.Jitter != nil {
		policy.Jitter = *externalRetry.Jitter
	}
	if err := policy.Validate(); err != nil {
		return backoff.Policy{}, fmt.Errorf("retry: %w", err)
	}
	return policy, nil
}

func newBudgetEntries(externalEntries []ExternalBudgetEntryConfig) ([]pfoliobudget.Entry, error) {
	var entries []pfoliobudget.Entry
	for i, externalEntry := range externalEntries {
		if externalEntry.Name == "" {
			return nil, fmt.Errorf("budget.entries[%d]: name is required", i)
		}
		if externalEntry.PayerAccount == "" || externalEntry.PayeeAccount == "" {
			return nil, fmt.Errorf("budget entry %q: payer_account and payee_account are required", externalEntry.Name)
		}
		amount, err := decimal.NewFromString(externalEntry.Amount)
		if err != nil {
			return nil, fmt.Errorf("budget entry %q: invalid amount %q", externalEntry.Name, externalEntry.Amount)
		}
		schedule, err := newSchedule(externalEntry.Schedule)
		if err != nil {
			return nil, fmt.Errorf("budget entry %q: %w", externalEntry.Name, err)
		}
		entries = append(entries, pfoliobudget.Entry{
			Name:         externalEntry.Name,
			Amount:       amount,
			Schedule:     schedule,
			PayerAccount: externalEntry.PayerAccount,
			PayeeAccount: externalEntry.PayeeAccount,
		})
	}
	return entries, nil
}

func newSchedule(externalSchedule ExternalScheduleConfig) (pfoliobudget.Schedule, error) {
	switch externalSchedule.Type {
	case scheduleTypeMonthly:
		return pfoliobudget.NewMonthly(externalSchedule.Day)
	case scheduleTypeSemiMonthly:
		return pfoliobudget.NewSemiMonthly(externalSchedule.Days...)
	case scheduleTypeInterval:
		return pfoliobudget.NewInterval(
			externalSchedule.EveryYears,
			externalSchedule.EveryMonths,
			externalSchedule.EveryWeeks,
			externalSchedule.EveryDays,
		)
	default:
		return nil, fmt.Errorf(
			"unknown schedule type %q, must be one of %s, %s, %s",
			externalSchedule.Type,
			scheduleTypeMonthly,
			scheduleTypeSemiMonthly,
			scheduleTypeInterval,
		)
	}
}

func parseDuration(name string, value string) (time.Duration, error) {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", name, value)
	}
	if duration < 0 {
		return 0, fmt.Errorf("%s: must not be negative", name)
	}
	return duration, nil
}

// unmarshalYAMLStrict unmarshals the data as YAML with strict field checking.
// If the data length is 0, this is a no-op.
func unmarshalYAMLStrict(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	yamlDecoder := yaml.NewDecoder(bytes.NewReader(data))
	yamlDecoder.KnownFields(true)
	if err := yamlDecoder.Decode(v); err != nil {
		return fmt.Errorf("could not unmarshal as YAML: %w", err)
	}
	return nil
}
