// Copyright 2026 Peter Edge
//
// All rights reserved.

package pfoliocmd

import (
	"testing"
	"time"

	"github.com/bufdev/pfolio/internal/pfolio/pfoliotransaction"
	"github.com/bufdev/pfolio/internal/standard/xtime"
	"github.com/stretchr/testify/require"
)

func TestTransactionFlagsNewTransaction(t *testing.T) {
	t.Parallel()
	today := xtime.Date{Year: 2024, Month: time.March, Day: 5}
	tests := []struct {
		name             string
		flags            TransactionFlags
		expectedDate     string
		expectedQuantity string
		expectedAction   pfoliotransaction.Action
		expectedErr      string
	}{
		{
			name:             "buy_default_date",
			flags:            TransactionFlags{Ticker: "AAPL", Price: "150.25", Quantity: "10"},
			expectedDate:     "2024-03-05",
			expectedQuantity: "10",
			expectedAction:   pfoliotransaction.ActionBuy,
		},
		{
			name:             "sell_by_sign",
			flags:            TransactionFlags{Ticker: "AAPL", Date: "2024-01-02", Price: "150", Quantity: "-4"},
			expectedDate:     "2024-01-02",
			expectedQuantity: "-4",
			expectedAction:   pfoliotransaction.ActionSell,
		},
		{
			name:             "sell_by_action",
			flags:            TransactionFlags{Ticker: "AAPL", Price: "150", Quantity: "4", Action: "sell"},
			expectedDate:     "2024-03-05",
			expectedQuantity: "-4",
			expectedAction:   pfoliotransaction.ActionSell,
		},
		{
			name:             "buy_by_action",
			flags:            TransactionFlags{Ticker: "AAPL", Price: "150", Quantity: "-4", Action: "BUY"},
			expectedDate:     "2024-03-05",
			expectedQuantity: "4",
			expectedAction:   pfoliotransaction.ActionBuy,
		},
		{
			name:        "missing_ticker",
			flags:       TransactionFlags{Price: "1", Quantity: "1"},
			expectedErr: "--ticker is required",
		},
		{
			name:        "bad_date",
			flags:       TransactionFlags{Ticker: "AAPL", Date: "01/02/2024", Price: "1", Quantity: "1"},
			expectedErr: `invalid --date "01/02/2024", must be YYYY-MM-DD`,
		},
		{
			name:        "bad_price",
			flags:       TransactionFlags{Ticker: "AAPL", Price: "abc", Quantity: "1"},
			expectedErr: `invalid --price "abc"`,
		},
		{
			name:        "bad_quantity",
			flags:       TransactionFlags{Ticker: "AAPL", Price: "1"},
			expectedErr: `invalid --quantity ""`,
		},
		{
			name:        "bad_action",
			flags:       TransactionFlags{Ticker: "AAPL", Price: "1", Quantity: "1", Action: "hold"},
			expectedErr: `unknown action "hold", must be BUY or SELL`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			transaction, err := test.flags.NewTransaction(today)
			if test.expectedErr != "" {
				require.EqualError(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "AAPL", transaction.Ticker())
			require.Equal(t, test.expectedDate, xtime.TimeToDate(transaction.Date()).String())
			require.Equal(t, test.expectedQuantity, transaction.Quantity().String())
			require.Equal(t, test.expectedAction, transaction.Action())
		})
	}
}
