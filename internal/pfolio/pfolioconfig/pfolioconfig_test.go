// Copyright 2026 Peter Edge
//
// All rights reserved.

package pfolioconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bufdev/pfolio/internal/pfolio/pfoliodata"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliopath"
	"github.com/bufdev/pfolio/internal/pkg/backoff"
	"github.com/bufdev/pfolio/internal/standard/xtime"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestInitConfigTemplateIsValid(t *testing.T) {
	t.Parallel()
	configDirPath := filepath.Join(t.TempDir(), "pfolio")
	filePath, err := InitConfig(configDirPath)
	require.NoError(t, err)
	require.Equal(t, pfoliopath.ConfigFilePath(configDirPath), filePath)
	config, err := ReadConfig(configDirPath)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), config)
	require.NoError(t, ValidateConfigFile(filePath))
	_, err = InitConfig(configDirPath)
	require.ErrorContains(t, err, "already exists")
}

func TestReadConfigMissingFile(t *testing.T) {
	t.Parallel()
	configDirPath := t.TempDir()
	config, err := ReadConfig(configDirPath)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), config)
	err = ValidateConfigFile(pfoliopath.ConfigFilePath(configDirPath))
	require.ErrorContains(t, err, "pfolio config init")
}

func TestReadConfigFile(t *testing.T) {
	t.Parallel()
	filePath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(filePath, []byte(`version: v1
currency: EUR
cache_ttl: 1h
data_sources:
  - name: eodhd
  - name: yahoo
retry:
  max_attempts: 3
  base_delay: 500ms
  max_delay: 10s
  jitter: 0
rate_limit:
  requests_per_second: 0
versioning:
  enabled: false
budget:
  entries:
    - name: rent
      amount: "1300.00"
      payer_account: Assets:Checking
      payee_account: Expenses:Housing:Rent
      schedule:
        type: monthly
        day: 3
`), 0o600))
	config, err := ReadConfigFile(filePath)
	require.NoError(t, err)
	require.Equal(t, "EUR", config.Currency)
	require.Equal(t, time.Hour, config.CacheTTL)
	if diff := cmp.Diff(
		[]DataSourceConfig{
			{
				Name:        pfoliodata.EODHDSourceName,
				APITokenEnv: DefaultEODHDAPITokenEnv,
				Exchange:    pfoliodata.DefaultEODHDExchange,
			},
			{
				Name: pfoliodata.YahooSourceName,
			},
		},
		config.DataSources,
	); diff != "" {
		t.Errorf("data sources mismatch (-want +got):\n%s", diff)
	}
	require.Equal(
		t,
		backoff.Policy{
			MaxAttempts: 3,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    10 * time.Second,
		},
		config.RetryPolicy,
	)
	require.Zero(t, config.RequestsPerSecond)
	require.Equal(t, pfoliodata.DefaultBurst, config.Burst)
	require.Empty(t, config.VersionTemplate)
	require.Len(t, config.SourceOptions(), 1)
	require.Len(t, config.BudgetEntries, 1)
	require.Equal(t, "rent", config.BudgetEntries[0].Name)
	require.Equal(t, "1300", config.BudgetEntries[0].Amount.String())
	require.Equal(t, "monthly on day 3", config.BudgetEntries[0].Schedule.String())
	start, err := xtime.ParseDate("2024-01-01")
	require.NoError(t, err)
	var dates []xtime.Date
	for date := range config.BudgetEntries[0].Schedule.Dates(start, start.AddMonths(2)) {
		dates = append(dates, date)
	}
	require.Equal(t, []xtime.Date{{Year: 2024, Month: time.January, Day: 3}, {Year: 2024, Month: time.February, Day: 3}}, dates)
}

func TestNewConfigErrors(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		name           string
		externalConfig ExternalConfig
		wantErr        string
	}{
		{
			name:           "version",
			externalConfig: ExternalConfig{Version: "v2"},
			wantErr:        `unsupported config version "v2"`,
		},
		{
			name:           "currency",
			externalConfig: ExternalConfig{Version: "v1", Currency: "DOLLARS"},
			wantErr:        "three-letter",
		},
		{
			name:           "cache ttl",
			externalConfig: ExternalConfig{Version: "v1", CacheTTL: "soon"},
			wantErr:        `cache_ttl: invalid duration "soon"`,
		},
		{
			name: "unknown data source",
			externalConfig: ExternalConfig{
				Version:     "v1",
				DataSources: []ExternalDataSourceConfig{{Name: "bloomberg"}},
			},
			wantErr: `unknown data source "bloomberg"`,
		},
		{
			name: "duplicate data source",
			externalConfig: ExternalConfig{
				Version:     "v1",
				DataSources: []ExternalDataSourceConfig{{Name: "yahoo"}, {Name: "yahoo"}},
			},
			wantErr: `duplicate data source "yahoo"`,
		},
		{
			name: "yahoo token",
			externalConfig: ExternalConfig{
				Version:     "v1",
				DataSources: []ExternalDataSourceConfig{{Name: "yahoo", APITokenEnv: "TOKEN"}},
			},
			wantErr: "does not take api_token_env",
		},
		{
			name: "retry",
			externalConfig: ExternalConfig{
				Version: "v1",
				Retry:   ExternalRetryConfig{MaxAttempts: -1},
			},
			wantErr: "retry: max attempts must be at least 1",
		},
		{
			name: "version template",
			externalConfig: ExternalConfig{
				Version:    "v1",
				Versioning: ExternalVersioningConfig{Template: "{file_path}.bak"},
			},
			wantErr: "versioning.template",
		},
		{
			name: "budget amount",
			externalConfig: ExternalConfig{
				Version: "v1",
				Budget: ExternalBudgetConfig{
					Entries: []ExternalBudgetEntryConfig{
						{
							Name:         "rent",
							Amount:       "lots",
							PayerAccount: "Assets:Checking",
							PayeeAccount: "Expenses:Rent",
						},
					},
				},
			},
			wantErr: `budget entry "rent": invalid amount "lots"`,
		},
		{
			name: "budget schedule",
			externalConfig: ExternalConfig{
				Version: "v1",
				Budget: ExternalBudgetConfig{
					Entries: []ExternalBudgetEntryConfig{
						{
							Name:         "rent",
							Amount:       "1",
							PayerAccount: "Assets:Checking",
							PayeeAccount: "Expenses:Rent",
							Schedule:     ExternalScheduleConfig{Type: "weekly"},
						},
					},
				},
			},
			wantErr: `unknown schedule type "weekly"`,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewConfig(test.externalConfig)
			require.ErrorContains(t, err, test.wantErr)
		})
	}
}

func TestReadConfigFileRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	filePath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(filePath, []byte("version: v1\nbroker:\n  account: x\n"), 0o600))
	_, err := ReadConfigFile(filePath)
	require.ErrorContains(t, err, "could not unmarshal as YAML")
}
