// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package pfoliotransaction provides the immutable buy/sell record that positions are built from.
package pfoliotransaction

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Action is the direction of a Transaction.
type Action int

const (
	// ActionBuy increases a position. Buys carry a positive quantity.
	ActionBuy Action = iota + 1
	// ActionSell decreases a position. Sells carry a negative quantity.
	ActionSell
)

// String returns "BUY" or "SELL".
func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ParseAction parses "BUY" or "SELL", case-insensitively.
func ParseAction(s string) (Action, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return ActionBuy, nil
	case "SELL":
		return ActionSell, nil
	default:
		return 0, fmt.Errorf("unknown action %q, must be BUY or SELL", s)
	}
}

// ActionForQuantity returns ActionBuy for a positive quantity and ActionSell otherwise.
func ActionForQuantity(quantity decimal.Decimal) Action {
	if quantity.IsPositive() {
		return ActionBuy
	}
	return ActionSell
}

// Transaction is a single buy or sell of a security.
//
// Transactions are immutable after construction.
type Transaction struct {
	ticker   string
	date     time.Time
	price    decimal.Decimal
	quantity decimal.Decimal
	amount   decimal.Decimal
	action   Action
}

// New returns a new Transaction with the action derived from the sign of quantity.
func New(ticker string, date time.Time, price decimal.Decimal, quantity decimal.Decimal) (Transaction, error) {
	return newTransaction(ticker, date, price, quantity, ActionForQuantity(quantity))
}

// NewWithAction returns a new Transaction with an explicit action.
//
// The sign of quantity must agree with the action.
func NewWithAction(
	ticker string,
	date time.Time,
	price decimal.Decimal,
	quantity decimal.Decimal,
	action Action,
) (Transaction, error) {
	switch action {
	case ActionBuy:
		if !quantity.IsPositive() {
			return Transaction{}, fmt.Errorf("%s: BUY requires a positive quantity, got %s", ticker, quantity)
		}
	case ActionSell:
		if !quantity.IsNegative() {
			return Transaction{}, fmt.Errorf("%s: SELL requires a negative quantity, got %s", ticker, quantity)
		}
	default:
		return Transaction{}, fmt.Errorf("%s: invalid action %v", ticker, action)
	}
	return newTransaction(ticker, date, price, quantity, action)
}

// Ticker returns the security identifier.
func (t Transaction) Ticker() string {
	return t.ticker
}

// Date returns when the transaction happened.
func (t Transaction) Date() time.Time {
	return t.date
}

// Price returns the per-unit price.
func (t Transaction) Price() decimal.Decimal {
	return t.price
}

// Quantity returns the signed number of units. Positive is a buy.
func (t Transaction) Quantity() decimal.Decimal {
	return t.quantity
}

// Amount returns price times quantity.
func (t Transaction) Amount() decimal.Decimal {
	return t.amount
}

// Action returns whether this is a buy or a sell.
func (t Transaction) Action() Action {
	return t.action
}

// Equal reports whether the two transactions have the same ticker, date, price, and quantity.
func (t Transaction) Equal(other Transaction) bool {
	return t.ticker == other.ticker &&
		t.date.Equal(other.date) &&
		t.price.Equal(other.price) &&
		t.quantity.Equal(other.quantity)
}

// String implements fmt.Stringer.
func (t Transaction) String() string {
	return fmt.Sprintf(
		"%s %s %s x %s @ %s",
		t.date.Format(time.DateOnly),
		t.action,
		t.ticker,
		t.quantity.Abs(),
		t.price,
	)
}

// *** PRIVATE ***

func newTransaction(
	ticker string,
	date time.Time,
	price decimal.Decimal,
	quantity decimal.Decimal,
	action Action,
) (Transaction, error) {
	if ticker == "" {
		return Transaction{}, errors.New("ticker is required")
	}
	if date.IsZero() {
		return Transaction{}, fmt.Errorf("%s: date is required", ticker)
	}
	if price.IsNegative() {
		return Transaction{}, fmt.Errorf("%s: price must not be negative, got %s", ticker, price)
	}
	if quantity.IsZero() {
		return Transaction{}, fmt.Errorf("%s: quantity must not be zero", ticker)
	}
	return Transaction{
		ticker:   ticker,
		date:     date,
		price:    price,
		quantity: quantity,
		amount:   price.Mul(quantity),
		action:   action,
	}, nil
}
