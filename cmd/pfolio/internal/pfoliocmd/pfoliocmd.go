// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package pfoliocmd provides shared wiring for pfolio commands (reading config,
// resolving API tokens, constructing market data sources, and opening portfolio files).
package pfoliocmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"buf.build/go/app/appext"
	"github.com/bufdev/pfolio/internal/pfolio/pfolioconfig"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliodata"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliopath"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliosource"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliotransaction"
	"github.com/bufdev/pfolio/internal/pkg/eodhd"
	"github.com/bufdev/pfolio/internal/pkg/yahoo"
	"github.com/bufdev/pfolio/internal/standard/xos"
	"github.com/bufdev/pfolio/internal/standard/xtime"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

const (
	// ConfigFlagName is the flag name for the configuration file path.
	ConfigFlagName = "config"
	// FormatFlagName is the flag name for the output format.
	FormatFlagName = "format"
)

// BindConfigFlag binds the --config flag to the value.
func BindConfigFlag(flagSet *pflag.FlagSet, value *string) {
	flagSet.StringVar(
		value,
		ConfigFlagName,
		"",
		"The configuration file path (defaults to config.yaml in the pfolio config directory)",
	)
}

// Runtime is the configuration and environment shared by commands.
type Runtime struct {
	// Config is the validated configuration.
	Config *pfolioconfig.Config
	// ConfigFilePath is the path the configuration was read from, whether or not it exists.
	ConfigFilePath string

	container appext.Container
	envFile   map[string]string
}

// NewRuntime reads the configuration file and the optional .env file next to it.
//
// If configFilePath is empty, the config file in the pfolio config directory is used.
// A missing config file yields the default configuration.
func NewRuntime(container appext.Container, configFilePath string) (*Runtime, error) {
	if configFilePath == "" {
		configFilePath = pfoliopath.ConfigFilePath(container.ConfigDirPath())
	}
	configFilePath, err := xos.ExpandHome(configFilePath)
	if err != nil {
		return nil, err
	}
	config, err := pfolioconfig.ReadConfigFile(configFilePath)
	if err != nil {
		return nil, err
	}
	envFilePath := pfoliopath.EnvFilePath(filepath.Dir(configFilePath))
	envFile, err := godotenv.Read(envFilePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", envFilePath, err)
		}
		envFile = map[string]string{}
	} else {
		container.Logger().Debug("loaded env file", "path", envFilePath, "keys", len(envFile))
	}
	return &Runtime{
		Config:         config,
		ConfigFilePath: configFilePath,
		container:      container,
		envFile:        envFile,
	}, nil
}

// Env returns the environment variable, falling back to the .env file.
func (r *Runtime) Env(key string) string {
	if value := r.container.Env(key); value != "" {
		return value
	}
	return r.envFile[key]
}

// NewDataSources constructs the configured market data sources in order.
func (r *Runtime) NewDataSources() ([]pfoliodata.Source, error) {
	logger := r.container.Logger()
	options := r.Config.DataSourceOptions()
	dataSources := make([]pfoliodata.Source, 0, len(r.Config.DataSources))
	for _, dataSourceConfig := range r.Config.DataSources {
		switch dataSourceConfig.Name {
		case pfoliodata.YahooSourceName:
			client, err := yahoo.NewClient()
			if err != nil {
				return nil, err
			}
			dataSources = append(dataSources, pfoliodata.NewYahooSource(logger, client, options...))
		case pfoliodata.EODHDSourceName:
			apiToken := r.Env(dataSourceConfig.APITokenEnv)
			if apiToken == "" {
				return nil, fmt.Errorf(
					"%s environment variable is required for the %s data source, set it or add it to %s",
					dataSourceConfig.APITokenEnv,
					dataSourceConfig.Name,
					pfoliopath.EnvFilePath(filepath.Dir(r.ConfigFilePath)),
				)
			}
			client := eodhd.NewClient(apiToken)
			dataSources = append(dataSources, pfoliodata.NewEODHDSource(logger, client, dataSourceConfig.Exchange, options...))
		default:
			return nil, fmt.Errorf("unknown data source %q", dataSourceConfig.Name)
		}
	}
	return dataSources, nil
}

// SourceOptions returns the options for opening portfolio files.
func (r *Runtime) SourceOptions() []pfoliosource.Option {
	return append(r.Config.SourceOptions(), pfoliosource.WithLogger(r.container.Logger()))
}

// WithSource opens the portfolio file, calls f, and persists any changes.
func (r *Runtime) WithSource(filePath string, f func(pfoliosource.Source) error) error {
	filePath, err := xos.ExpandHome(filePath)
	if err != nil {
		return err
	}
	return pfoliosource.WithSource(filePath, r.SourceOptions(), f)
}

// TransactionFlags are the flags that identify a single transaction.
type TransactionFlags struct {
	// Ticker is the ticker symbol.
	Ticker string
	// Date is the trade date in YYYY-MM-DD format.
	Date string
	// Price is the per-share price.
	Price string
	// Quantity is the number of shares, negative for sells unless Action is set.
	Quantity string
	// Action is BUY or SELL. Optional.
	Action string
}

// Bind registers the transaction flag definitions with the given flag set.
func (f *TransactionFlags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Ticker, "ticker", "", "The ticker symbol (required)")
	flagSet.StringVar(&f.Date, "date", "", "The trade date in YYYY-MM-DD format (defaults to today)")
	flagSet.StringVar(&f.Price, "price", "", "The price per share (required)")
	flagSet.StringVar(&f.Quantity, "quantity", "", "The number of shares, negative for sells (required)")
	flagSet.StringVar(&f.Action, "action", "", "BUY or SELL; if set, the sign of --quantity is taken from the action")
}

// NewTransaction parses the flags into a Transaction.
//
// If the date is empty, today is used.
func (f *TransactionFlags) NewTransaction(today xtime.Date) (pfoliotransaction.Transaction, error) {
	ticker := strings.TrimSpace(f.Ticker)
	if ticker == "" {
		return pfoliotransaction.Transaction{}, errors.New("--ticker is required")
	}
	date := today
	if f.Date != "" {
		var err error
		date, err = xtime.ParseDate(f.Date)
		if err != nil {
			return pfoliotransaction.Transaction{}, fmt.Errorf("invalid --date %q, must be YYYY-MM-DD", f.Date)
		}
	}
	price, err := decimal.NewFromString(f.Price)
	if err != nil {
		return pfoliotransaction.Transaction{}, fmt.Errorf("invalid --price %q", f.Price)
	}
	quantity, err := decimal.NewFromString(f.Quantity)
	if err != nil {
		return pfoliotransaction.Transaction{}, fmt.Errorf("invalid --quantity %q", f.Quantity)
	}
	if f.Action == "" {
		return pfoliotransaction.New(ticker, date.In(time.UTC), price, quantity)
	}
	action, err := pfoliotransaction.ParseAction(f.Action)
	if err != nil {
		return pfoliotransaction.Transaction{}, err
	}
	quantity = quantity.Abs()
	if action == pfoliotransaction.ActionSell {
		quantity = quantity.Neg()
	}
	return pfoliotransaction.NewWithAction(ticker, date.In(time.UTC), price, quantity, action)
}
