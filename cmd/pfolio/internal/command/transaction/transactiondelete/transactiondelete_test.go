// Copyright 2026 Peter Edge
//
// All rights reserved.

package transactiondelete

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bufdev/pfolio/internal/pfolio/pfoliosource"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliotransaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testCSV = `Ticker,Date,Price,Quantity
AAPL,2024-01-02,100,10
AAPL,2024-02-01,110,-5
MSFT,2024-01-03,300,2
`

func TestDeleteTransaction(t *testing.T) {
	t.Parallel()
	filePath := writeTestFile(t)
	require.NoError(t, pfoliosource.WithSource(
		filePath,
		[]pfoliosource.Option{pfoliosource.WithoutVersioning()},
		func(source pfoliosource.Source) error {
			require.NoError(t, deleteTransaction(source, newTestTransaction(t, "AAPL", "2024-02-01", "110", "-5")))
			require.NoError(t, deleteTransaction(source, newTestTransaction(t, "MSFT", "2024-01-03", "300", "2")))
			err := deleteTransaction(source, newTestTransaction(t, "AAPL", "2024-02-01", "110", "-5"))
			require.ErrorIs(t, err, errTransactionNotFound)
			err = deleteTransaction(source, newTestTransaction(t, "NET", "2024-02-01", "80", "1"))
			require.ErrorIs(t, err, pfoliosource.ErrPositionNotFound)
			return nil
		},
	))
	data, err := os.ReadFile(filePath)
	require.NoError(t, err)
	require.Equal(t, "Ticker,Date,Price,Quantity\nAAPL,2024-01-02,100,10\n", string(data))
}

func writeTestFile(t *testing.T) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), "portfolio.csv")
	require.NoError(t, os.WriteFile(filePath, []byte(testCSV), 0o600))
	return filePath
}

func newTestTransaction(t *testing.T, ticker string, date string, price string, quantity string) pfoliotransaction.Transaction {
	t.Helper()
	parsedDate, err := time.Parse(time.DateOnly, date)
	require.NoError(t, err)
	transaction, err := pfoliotransaction.New(ticker, parsedDate, decimal.RequireFromString(price), decimal.RequireFromString(quantity))
	require.NoError(t, err)
	return transaction
}
