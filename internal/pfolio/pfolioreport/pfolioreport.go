// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package pfolioreport builds the portfolio report printed by "pfolio report".
//
// All values are rendered to display strings when the report is built.
// A metric that cannot be computed because of degenerate arithmetic, such as
// a zero cost basis or a position held for less than a day, is rendered as
// NotAvailable. A position that has not been priced fails the build.
package pfolioreport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/bufdev/pfolio/internal/pfolio/pfolioportfolio"
	"github.com/bufdev/pfolio/internal/pfolio/pfolioposition"
	"github.com/bufdev/pfolio/internal/pkg/cliio"
	"github.com/bufdev/pfolio/internal/standard/xtime"
	"github.com/shopspring/decimal"
)

// NotAvailable is displayed for metrics that cannot be computed.
const NotAvailable = "n/a"

// Report is the portfolio report.
type Report struct {
	// AsOf is the date the report was built.
	AsOf string `json:"as_of"`
	// Currency is the ISO 4217 currency of all amounts.
	Currency string `json:"currency"`
	// Summary holds the aggregate metrics.
	Summary *Summary `json:"summary"`
	// Positions holds one entry per position sorted by ticker.
	Positions []*PositionReport `json:"positions"`
}

// Summary holds the aggregate portfolio metrics.
type Summary struct {
	Value            string `json:"value"`
	CostBasis        string `json:"cost_basis"`
	GainLoss         string `json:"gain_loss"`
	GainLossPercent  string `json:"gain_loss_percent"`
	AverageTimeHeld  string `json:"average_time_held"`
	AnnualizedReturn string `json:"annualized_return"`
}

// PositionReport holds the metrics of a single position.
type PositionReport struct {
	Ticker           string `json:"ticker"`
	Status           string `json:"status"`
	Value            string `json:"value"`
	Quantity         string `json:"quantity"`
	CostBasis        string `json:"cost_basis"`
	TimeHeld         string `json:"time_held"`
	ReturnPercent    string `json:"return_percent"`
	AnnualizedReturn string `json:"annualized_return"`
}

// PositionHeaders returns the column headers for table and CSV output.
func PositionHeaders() []string {
	return []string{"TICKER", "STATUS", "VALUE", "QUANTITY", "COST BASIS", "TIME HELD", "RETURN", "ANNUALIZED"}
}

// PositionToRow converts a PositionReport to a string slice for table and CSV output.
func PositionToRow(p *PositionReport) []string {
	return []string{
		p.Ticker,
		p.Status,
		p.Value,
		p.Quantity,
		p.CostBasis,
		p.TimeHeld,
		p.ReturnPercent,
		p.AnnualizedReturn,
	}
}

// SummaryTotalsRow returns the summary as a totals row aligned with PositionHeaders.
func SummaryTotalsRow(s *Summary) []string {
	return []string{
		"TOTAL",
		"",
		s.Value,
		"",
		s.CostBasis,
		s.AverageTimeHeld,
		s.GainLossPercent,
		s.AnnualizedReturn,
	}
}

// SummaryPairs returns the summary as label and value pairs for cliio.WriteLabeled.
func SummaryPairs(s *Summary) [][2]string {
	return [][2]string{
		{"Value", s.Value},
		{"Cost Basis", s.CostBasis},
		{"Gain/Loss", s.GainLoss},
		{"Gain/Loss %", s.GainLossPercent},
		{"Average Time Held", s.AverageTimeHeld},
		{"Annualized Return", s.AnnualizedReturn},
	}
}

// PositionPairs returns the position as label and value pairs for cliio.WriteLabeled.
func PositionPairs(p *PositionReport) [][2]string {
	return [][2]string{
		{p.Ticker, p.Status},
		{"Value", p.Value},
		{"Quantity", p.Quantity},
		{"Cost Basis", p.CostBasis},
		{"Time Held", p.TimeHeld},
		{"Return", p.ReturnPercent},
		{"Annualized Return", p.AnnualizedReturn},
	}
}

// Markdown returns the report as a markdown document.
func Markdown(report *Report) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "# Portfolio as of %s\n\n", report.AsOf)
	summaryRows := make([][]string, 0, 6)
	for _, pair := range SummaryPairs(report.Summary) {
		summaryRows = append(summaryRows, []string{pair[0], pair[1]})
	}
	builder.WriteString(cliio.MarkdownTable([]string{"Metric", "Value"}, summaryRows))
	builder.WriteString("\n## Positions\n\n")
	positionRows := make([][]string, 0, len(report.Positions))
	for _, position := range report.Positions {
		positionRows = append(positionRows, PositionToRow(position))
	}
	builder.WriteString(cliio.MarkdownTable(PositionHeaders(), positionRows))
	return builder.String()
}

// Build builds the report for the portfolio as of the given time.
//
// Prices must already have been refreshed. Build returns an error wrapping
// pfolioposition.ErrNotPriced if any open position has no market price.
func Build(ctx context.Context, portfolio *pfolioportfolio.Portfolio, asOf time.Time, currency string) (*Report, error) {
	value, err := portfolio.Value()
	if err != nil {
		return nil, err
	}
	costBasis := portfolio.CostBasis()
	gainLoss, err := portfolio.GainLoss(ctx)
	if err != nil {
		return nil, err
	}
	gainLossPercent, err := portfolio.GainLossPercent(ctx)
	gainLossPercentString, err := percentOrNotAvailable(gainLossPercent, err)
	if err != nil {
		return nil, err
	}
	averageTimeHeld, err := portfolio.AverageTimeHeld()
	averageTimeHeldString := NotAvailable
	if err == nil {
		averageTimeHeldString = FormatDays(pfolioposition.Days(averageTimeHeld))
	} else if !errors.Is(err, pfolioportfolio.ErrEmptyPortfolio) {
		return nil, err
	}
	annualizedReturn, err := portfolio.AnnualizedReturn(ctx)
	annualizedReturnString, err := percentOrNotAvailable(annualizedReturn, err)
	if err != nil {
		return nil, err
	}
	report := &Report{
		AsOf:     xtime.TimeToDate(asOf).String(),
		Currency: currency,
		Summary: &Summary{
			Value:            FormatMoney(value, currency),
			CostBasis:        FormatMoney(costBasis, currency),
			GainLoss:         FormatMoney(gainLoss, currency),
			GainLossPercent:  gainLossPercentString,
			AverageTimeHeld:  averageTimeHeldString,
			AnnualizedReturn: annualizedReturnString,
		},
	}
	for _, position := range portfolio.Positions() {
		positionReport, err := buildPositionReport(position, asOf, currency)
		if err != nil {
			return nil, err
		}
		report.Positions = append(report.Positions, positionReport)
	}
	return report, nil
}

// FormatMoney formats the amount in the currency, such as "$1,234.56".
//
// Amounts are rounded to the currency's minor unit. Unknown currencies are
// formatted as the amount with two decimal places followed by the code.
func FormatMoney(amount decimal.Decimal, currency string) string {
	moneyCurrency := money.GetCurrency(currency)
	if moneyCurrency == nil {
		return amount.StringFixed(2) + " " + currency
	}
	minorUnits := amount.Shift(int32(moneyCurrency.Fraction)).Round(0).IntPart()
	return money.New(minorUnits, moneyCurrency.Code).Display()
}

// FormatPercent formats a fraction as a percentage, where 0.2 is "20.00%".
func FormatPercent(fraction decimal.Decimal) string {
	return fraction.Shift(2).StringFixed(2) + "%"
}

// FormatDays formats a number of whole days, such as "151 days".
func FormatDays(days int64) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// *** PRIVATE ***

func buildPositionReport(position *pfolioposition.Position, asOf time.Time, currency string) (*PositionReport, error) {
	value, err := position.Value()
	if err != nil {
		return nil, err
	}
	timeHeld := NotAvailable
	if days, err := position.DaysHeld(asOf); err == nil {
		timeHeld = FormatDays(days)
	} else if !errors.Is(err, pfolioposition.ErrNoTransactions) {
		return nil, err
	}
	returnPercent, err := position.ReturnPercent()
	returnPercentString, err := percentOrNotAvailable(returnPercent, err)
	if err != nil {
		return nil, err
	}
	annualizedReturn, err := position.AnnualizedReturn(asOf)
	annualizedReturnString, err := percentOrNotAvailable(annualizedReturn, err)
	if err != nil {
		return nil, err
	}
	return &PositionReport{
		Ticker:           position.Ticker(),
		Status:           position.Status().String(),
		Value:            FormatMoney(value, currency),
		Quantity:         position.Quantity().String(),
		CostBasis:        FormatMoney(position.CostBasis(), currency),
		TimeHeld:         timeHeld,
		ReturnPercent:    returnPercentString,
		AnnualizedReturn: annualizedReturnString,
	}, nil
}

// percentOrNotAvailable formats the fraction, or returns NotAvailable if err
// is a degenerate arithmetic error. Any other error is returned.
func percentOrNotAvailable(fraction decimal.Decimal, err error) (string, error) {
	switch {
	case err == nil:
		return FormatPercent(fraction), nil
	case errors.Is(err, pfolioposition.ErrZeroCostBasis),
		errors.Is(err, pfolioposition.ErrZeroDaysHeld),
		errors.Is(err, pfolioposition.ErrNoTransactions),
		errors.Is(err, pfolioportfolio.ErrEmptyPortfolio):
		return NotAvailable, nil
	default:
		return "", err
	}
}
