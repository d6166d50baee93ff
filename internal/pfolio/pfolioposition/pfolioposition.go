// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package pfolioposition aggregates the transactions for a single security.
//
// A Position derives its status, quantity, cost basis, market value, and
// return from its transactions and the most recently fetched market price.
// Cost basis is the signed sum of transaction amounts, so sells reduce it
// and a fully closed position's cost basis is its realized profit negated.
package pfolioposition

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/bufdev/pfolio/internal/pfolio/pfoliotransaction"
	"github.com/shopspring/decimal"
)

const (
	// day is the length of a day for whole-day metrics.
	day = 24 * time.Hour
	// daysPerYear is the number of days used to annualize returns.
	daysPerYear = 365
)

var (
	// ErrNotPriced is returned when a value is requested for an open
	// position whose market price was never set.
	ErrNotPriced = errors.New("position has not been priced")
	// ErrNoTransactions is returned when a time-based metric is requested
	// for a position without transactions.
	ErrNoTransactions = errors.New("position has no transactions")
	// ErrZeroCostBasis is returned when a percentage return would divide by zero.
	ErrZeroCostBasis = errors.New("cost basis is zero")
	// ErrZeroDaysHeld is returned when an annualized return would divide by zero days.
	ErrZeroDaysHeld = errors.New("held for zero days")
	// ErrTickerMismatch is returned when combining data for different tickers.
	ErrTickerMismatch = errors.New("ticker mismatch")
)

// Status is whether a Position is currently held.
type Status int

const (
	// StatusOpen is a position with a positive net quantity.
	StatusOpen Status = iota + 1
	// StatusClosed is a position with a zero or negative net quantity.
	StatusClosed
)

// String returns "OPEN" or "CLOSED".
func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	case StatusClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Position is the set of transactions for one ticker.
//
// A Position is not safe for concurrent use.
type Position struct {
	ticker       string
	transactions []pfoliotransaction.Transaction
	marketPrice  decimal.NullDecimal
	status       Status
}

// New returns a new Position for the ticker with the given transactions.
//
// Every transaction must be for the ticker.
func New(ticker string, transactions ...pfoliotransaction.Transaction) (*Position, error) {
	if ticker == "" {
		return nil, errors.New("ticker is required")
	}
	position := &Position{
		ticker: ticker,
	}
	for _, transaction := range transactions {
		if err := position.checkTicker(transaction.Ticker()); err != nil {
			return nil, err
		}
	}
	position.transactions = slices.Clone(transactions)
	position.updateStatus()
	return position, nil
}

// Ticker returns the ticker.
func (p *Position) Ticker() string {
	return p.ticker
}

// Transactions returns a copy of the transactions in insertion order.
func (p *Position) Transactions() []pfoliotransaction.Transaction {
	return slices.Clone(p.transactions)
}

// Status returns the current status.
func (p *Position) Status() Status {
	return p.status
}

// MarketPrice returns the last market price set, if any.
func (p *Position) MarketPrice() (decimal.Decimal, bool) {
	return p.marketPrice.Decimal, p.marketPrice.Valid
}

// SetMarketPrice sets the current market price.
func (p *Position) SetMarketPrice(price decimal.Decimal) {
	p.marketPrice = decimal.NewNullDecimal(price)
}

// AddTransaction appends the transaction and recomputes the status.
func (p *Position) AddTransaction(transaction pfoliotransaction.Transaction) error {
	if err := p.checkTicker(transaction.Ticker()); err != nil {
		return err
	}
	p.transactions = append(p.transactions, transaction)
	p.updateStatus()
	return nil
}

// MergePosition appends all of other's transactions and recomputes the status.
//
// Merging a Position into itself is a no-op. The market price of p is unchanged.
func (p *Position) MergePosition(other *Position) error {
	if p == other {
		return nil
	}
	if err := p.checkTicker(other.ticker); err != nil {
		return err
	}
	p.transactions = append(p.transactions, other.transactions...)
	p.updateStatus()
	return nil
}

// Quantity returns the signed sum of transaction quantities.
func (p *Position) Quantity() decimal.Decimal {
	quantity := decimal.Zero
	for _, transaction := range p.transactions {
		quantity = quantity.Add(transaction.Quantity())
	}
	return quantity
}

// Value returns the market value of the position.
//
// A closed position is worth zero. An open position is worth its quantity times
// the market price, or ErrNotPriced if no market price was set.
func (p *Position) Value() (decimal.Decimal, error) {
	if p.status == StatusClosed {
		return decimal.Zero, nil
	}
	if !p.marketPrice.Valid {
		return decimal.Zero, fmt.Errorf("%s: %w", p.ticker, ErrNotPriced)
	}
	return p.ValueAtPrice(p.marketPrice.Decimal), nil
}

// ValueAtPrice returns the market value at the given price, ignoring status.
func (p *Position) ValueAtPrice(price decimal.Decimal) decimal.Decimal {
	return p.Quantity().Mul(price)
}

// CostBasis returns the signed sum of price times quantity across transactions.
func (p *Position) CostBasis() decimal.Decimal {
	costBasis := decimal.Zero
	for _, transaction := range p.transactions {
		costBasis = costBasis.Add(transaction.Amount())
	}
	return costBasis
}

// TimeHeld returns how long the position has been held.
//
// A closed position was held from its earliest to its latest transaction.
// An open position has been held from its earliest transaction until asOf.
func (p *Position) TimeHeld(asOf time.Time) (time.Duration, error) {
	if len(p.transactions) == 0 {
		return 0, fmt.Errorf("%s: %w", p.ticker, ErrNoTransactions)
	}
	first, last := p.dateRange()
	if p.status == StatusClosed {
		return last.Sub(first), nil
	}
	return asOf.Sub(first), nil
}

// DaysHeld returns TimeHeld in whole days.
func (p *Position) DaysHeld(asOf time.Time) (int64, error) {
	timeHeld, err := p.TimeHeld(asOf)
	if err != nil {
		return 0, err
	}
	return Days(timeHeld), nil
}

// Return returns the absolute return.
//
// For a closed position this is the cost basis. For an open position this is
// the market value minus the cost basis.
func (p *Position) Return() (decimal.Decimal, error) {
	if p.status == StatusClosed {
		return p.CostBasis(), nil
	}
	value, err := p.Value()
	if err != nil {
		return decimal.Zero, err
	}
	return value.Sub(p.CostBasis()), nil
}

// ReturnPercent returns the return as a fraction, where 0.2 is 20%.
//
// For a closed position this is the cost basis over the total amount bought.
// For an open position this is the return over the cost basis.
func (p *Position) ReturnPercent() (decimal.Decimal, error) {
	if p.status == StatusClosed {
		bought := decimal.Zero
		for _, transaction := range p.transactions {
			if transaction.Action() == pfoliotransaction.ActionBuy {
				bought = bought.Add(transaction.Amount())
			}
		}
		if bought.IsZero() {
			return decimal.Zero, fmt.Errorf("%s: %w", p.ticker, ErrZeroCostBasis)
		}
		return p.CostBasis().Div(bought), nil
	}
	positionReturn, err := p.Return()
	if err != nil {
		return decimal.Zero, err
	}
	costBasis := p.CostBasis()
	if costBasis.IsZero() {
		return decimal.Zero, fmt.Errorf("%s: %w", p.ticker, ErrZeroCostBasis)
	}
	return positionReturn.Div(costBasis), nil
}

// AnnualizedReturn returns the simple annualized return: ReturnPercent divided
// by whole days held, times 365.
func (p *Position) AnnualizedReturn(asOf time.Time) (decimal.Decimal, error) {
	returnPercent, err := p.ReturnPercent()
	if err != nil {
		return decimal.Zero, err
	}
	days, err := p.DaysHeld(asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return Annualize(returnPercent, days, p.ticker)
}

// Equal reports whether the positions are for the same ticker.
func (p *Position) Equal(other *Position) bool {
	return other != nil && p.ticker == other.ticker
}

// String implements fmt.Stringer.
func (p *Position) String() string {
	return fmt.Sprintf("%s %s %s (%d transactions)", p.ticker, p.status, p.Quantity(), len(p.transactions))
}

// Annualize divides a fractional return by days and multiplies by 365.
//
// The name is used in the ErrZeroDaysHeld error when days is zero.
func Annualize(returnPercent decimal.Decimal, days int64, name string) (decimal.Decimal, error) {
	if days == 0 {
		return decimal.Zero, fmt.Errorf("%s: %w", name, ErrZeroDaysHeld)
	}
	return returnPercent.Mul(decimal.NewFromInt(daysPerYear)).Div(decimal.NewFromInt(days)), nil
}

// Days returns the number of whole days in the duration, truncated toward zero.
func Days(d time.Duration) int64 {
	return int64(d / day)
}

// *** PRIVATE ***

func (p *Position) checkTicker(ticker string) error {
	if ticker != p.ticker {
		return fmt.Errorf("%w: %s is not %s", ErrTickerMismatch, ticker, p.ticker)
	}
	return nil
}

func (p *Position) updateStatus() {
	if p.Quantity().IsPositive() {
		p.status = StatusOpen
	} else {
		p.status = StatusClosed
	}
}

func (p *Position) dateRange() (time.Time, time.Time) {
	first := p.transactions[0].Date()
	last := first
	for _, transaction := range p.transactions[1:] {
		date := transaction.Date()
		if date.Before(first) {
			first = date
		}
		if date.After(last) {
			last = date
		}
	}
	return first, last
}
