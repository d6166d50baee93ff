// Copyright 2026 Peter Edge
//
// All rights reserved.

package pfoliotransaction

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewDerivesAction(t *testing.T) {
	t.Parallel()
	date := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	buy, err := New("AAPL", date, decimal.NewFromInt(100), decimal.NewFromInt(2))
	require.NoError(t, err)
	require.Equal(t, ActionBuy, buy.Action())
	require.True(t, decimal.NewFromInt(200).Equal(buy.Amount()))

	sell, err := New("AAPL", date, decimal.NewFromInt(100), decimal.NewFromInt(-2))
	require.NoError(t, err)
	require.Equal(t, ActionSell, sell.Action())
	require.True(t, decimal.NewFromInt(-200).Equal(sell.Amount()))
	require.Equal(t, "2023-01-01 SELL AAPL x 2 @ 100", sell.String())
}

func TestNewValidation(t *testing.T) {
	t.Parallel()
	date := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err := New("", date, decimal.NewFromInt(1), decimal.NewFromInt(1))
	require.Error(t, err)
	_, err = New("AAPL", time.Time{}, decimal.NewFromInt(1), decimal.NewFromInt(1))
	require.Error(t, err)
	_, err = New("AAPL", date, decimal.NewFromInt(-1), decimal.NewFromInt(1))
	require.Error(t, err)
	_, err = New("AAPL", date, decimal.NewFromInt(1), decimal.Zero)
	require.ErrorContains(t, err, "quantity must not be zero")
}

func TestNewWithActionSignMustMatch(t *testing.T) {
	t.Parallel()
	date := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err := NewWithAction("AAPL", date, decimal.NewFromInt(1), decimal.NewFromInt(-1), ActionBuy)
	require.ErrorContains(t, err, "BUY requires a positive quantity")
	_, err = NewWithAction("AAPL", date, decimal.NewFromInt(1), decimal.NewFromInt(1), ActionSell)
	require.ErrorContains(t, err, "SELL requires a negative quantity")
	_, err = NewWithAction("AAPL", date, decimal.NewFromInt(1), decimal.NewFromInt(1), Action(7))
	require.Error(t, err)
	transaction, err := NewWithAction("AAPL", date, decimal.NewFromInt(1), decimal.NewFromInt(-1), ActionSell)
	require.NoError(t, err)
	require.Equal(t, ActionSell, transaction.Action())
}

func TestEqual(t *testing.T) {
	t.Parallel()
	date := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	a, err := New("AAPL", date, decimal.RequireFromString("100.0"), decimal.NewFromInt(1))
	require.NoError(t, err)
	b, err := New("AAPL", date.In(time.FixedZone("x", 0)), decimal.NewFromInt(100), decimal.RequireFromString("1.00"))
	require.NoError(t, err)
	c, err := New("MSFT", date, decimal.NewFromInt(100), decimal.NewFromInt(1))
	require.NoError(t, err)
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestParseAction(t *testing.T) {
	t.Parallel()
	action, err := ParseAction(" buy ")
	require.NoError(t, err)
	require.Equal(t, ActionBuy, action)
	action, err = ParseAction("SELL")
	require.NoError(t, err)
	require.Equal(t, ActionSell, action)
	_, err = ParseAction("hold")
	require.Error(t, err)
}
