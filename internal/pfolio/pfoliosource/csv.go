// Copyright 2026 Peter Edge
//
// All rights reserved.

package pfoliosource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/bufdev/pfolio/internal/pfolio/pfoliopath"
	"github.com/bufdev/pfolio/internal/pfolio/pfolioposition"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliotransaction"
	"github.com/bufdev/pfolio/internal/standard/xos"
	"github.com/bufdev/pfolio/internal/standard/xtime"
	"github.com/shopspring/decimal"
)

const (
	// ColumnTicker is the ticker column header.
	ColumnTicker = "Ticker"
	// ColumnDate is the date column header.
	ColumnDate = "Date"
	// ColumnPrice is the price column header.
	ColumnPrice = "Price"
	// ColumnQuantity is the quantity column header.
	ColumnQuantity = "Quantity"
)

// Columns returns the CSV columns in write order.
func Columns() []string {
	return []string{ColumnTicker, ColumnDate, ColumnPrice, ColumnQuantity}
}

// CSVSource is a Source backed by a CSV file with Ticker, Date, Price, and Quantity columns.
type CSVSource struct {
	filePath    string
	readPath    string
	options     *options
	tickers     []string
	positions   map[string]*pfolioposition.Position
	original    []pfoliotransaction.Transaction
	writtenPath string
	closed      bool
}

// OpenCSV reads the CSV file and returns a new CSVSource.
//
// If versioning is enabled and a snapshot exists, the newest snapshot is read instead.
func OpenCSV(filePath string, options ...Option) (*CSVSource, error) {
	sourceOptions := newOptions()
	for _, option := range options {
		option(sourceOptions)
	}
	readPath := filePath
	if sourceOptions.versionTemplate != "" {
		if err := pfoliopath.ValidateVersionTemplate(sourceOptions.versionTemplate); err != nil {
			return nil, err
		}
		latestPath, ok, err := pfoliopath.LatestVersionedFilePath(sourceOptions.versionTemplate, filePath)
		if err != nil {
			return nil, err
		}
		if ok {
			readPath = latestPath
		}
	}
	file, err := os.Open(readPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	sourceOptions.logger.Info("opening portfolio", "path", readPath)
	transactions, err := ParseCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", readPath, err)
	}
	source := &CSVSource{
		filePath:  filePath,
		readPath:  readPath,
		options:   sourceOptions,
		positions: make(map[string]*pfolioposition.Position),
	}
	for _, transaction := range transactions {
		ticker := transaction.Ticker()
		position, ok := source.positions[ticker]
		if !ok {
			position, err = pfolioposition.New(ticker)
			if err != nil {
				return nil, err
			}
			source.positions[ticker] = position
			source.tickers = append(source.tickers, ticker)
		}
		if err := position.AddTransaction(transaction); err != nil {
			return nil, err
		}
	}
	source.original = source.transactions()
	return source, nil
}

// ReadPath returns the path the positions were read from.
func (s *CSVSource) ReadPath() string {
	return s.readPath
}

// WrittenPath returns the path written by Close, or "" if nothing was written.
func (s *CSVSource) WrittenPath() string {
	return s.writtenPath
}

// Positions implements Source.
func (s *CSVSource) Positions() []*pfolioposition.Position {
	positions := make([]*pfolioposition.Position, 0, len(s.tickers))
	for _, ticker := range s.tickers {
		positions = append(positions, s.positions[ticker])
	}
	return positions
}

// Position implements Source.
func (s *CSVSource) Position(ticker string) (*pfolioposition.Position, bool) {
	position, ok := s.positions[ticker]
	return position, ok
}

// AddPosition implements Source.
func (s *CSVSource) AddPosition(position *pfolioposition.Position) error {
	if existing, ok := s.positions[position.Ticker()]; ok {
		s.options.logger.Debug("merging position", "ticker", position.Ticker())
		return existing.MergePosition(position)
	}
	s.options.logger.Debug("adding position", "ticker", position.Ticker())
	s.positions[position.Ticker()] = position
	s.tickers = append(s.tickers, position.Ticker())
	return nil
}

// ModifyPosition implements Source.
func (s *CSVSource) ModifyPosition(position *pfolioposition.Position) error {
	if _, ok := s.positions[position.Ticker()]; !ok {
		return fmt.Errorf("%s: %w", position.Ticker(), ErrPositionNotFound)
	}
	s.positions[position.Ticker()] = position
	return nil
}

// DeletePosition implements Source.
func (s *CSVSource) DeletePosition(position *pfolioposition.Position) error {
	if _, ok := s.positions[position.Ticker()]; !ok {
		return fmt.Errorf("%s: %w", position.Ticker(), ErrPositionNotFound)
	}
	delete(s.positions, position.Ticker())
	s.tickers = slices.DeleteFunc(s.tickers, func(ticker string) bool {
		return ticker == position.Ticker()
	})
	return nil
}

// Close implements Source.
//
// The file is written to a temporary file in the same directory and renamed
// into place, so the previous contents are never partially overwritten.
// Calling Close more than once is a no-op.
func (s *CSVSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	transactions := s.transactions()
	if transactionsEqual(s.original, transactions) {
		s.options.logger.Debug("portfolio unchanged, not writing", "path", s.readPath)
		return nil
	}
	writePath := s.filePath
	if s.options.versionTemplate != "" {
		writePath = pfoliopath.VersionedFilePath(s.options.versionTemplate, s.filePath, s.options.now())
	}
	if err := xos.WriteFileAtomic(writePath, func(writer io.Writer) error {
		return WriteCSV(writer, transactions)
	}); err != nil {
		return fmt.Errorf("writing %s: %w", writePath, err)
	}
	s.writtenPath = writePath
	s.options.logger.Info("portfolio written", "path", writePath, "transactions", len(transactions))
	return nil
}

// ParseCSV parses transactions from CSV data with a header row.
//
// Columns are located by header name and extra columns are ignored. Rows are
// numbered from 1 with the header as row 1.
func ParseCSV(reader io.Reader) ([]pfoliotransaction.Transaction, error) {
	csvReader := csv.NewReader(reader)
	// Short rows are reported as missing columns below.
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true
	header, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	columnIndex := make(map[string]int, len(header))
	for i, name := range header {
		columnIndex[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, column := range Columns() {
		if _, ok := columnIndex[column]; !ok {
			return nil, fmt.Errorf("header is missing required column %s", column)
		}
	}
	var transactions []pfoliotransaction.Transaction
	for row := 2; ; row++ {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: reading CSV: %w", row, err)
		}
		transaction, err := parseRecord(record, columnIndex)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		transactions = append(transactions, transaction)
	}
	return transactions, nil
}

// WriteCSV writes the transactions as CSV with a header row.
func WriteCSV(writer io.Writer, transactions []pfoliotransaction.Transaction) error {
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.Write(Columns()); err != nil {
		return err
	}
	for _, transaction := range transactions {
		if err := csvWriter.Write([]string{
			transaction.Ticker(),
			formatDate(transaction.Date()),
			transaction.Price().String(),
			transaction.Quantity().String(),
		}); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// *** PRIVATE ***

var dateTimeLayouts = []string{
	time.DateTime,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

func parseRecord(record []string, columnIndex map[string]int) (pfoliotransaction.Transaction, error) {
	values := make(map[string]string, len(Columns()))
	for _, column := range Columns() {
		i := columnIndex[column]
		if i >= len(record) || strings.TrimSpace(record[i]) == "" {
			return pfoliotransaction.Transaction{}, fmt.Errorf("missing required column %s", column)
		}
		values[column] = strings.TrimSpace(record[i])
	}
	date, err := parseDate(values[ColumnDate])
	if err != nil {
		return pfoliotransaction.Transaction{}, fmt.Errorf("invalid %s %q", ColumnDate, values[ColumnDate])
	}
	price, err := decimal.NewFromString(values[ColumnPrice])
	if err != nil {
		return pfoliotransaction.Transaction{}, fmt.Errorf("invalid %s %q", ColumnPrice, values[ColumnPrice])
	}
	quantity, err := decimal.NewFromString(values[ColumnQuantity])
	if err != nil {
		return pfoliotransaction.Transaction{}, fmt.Errorf("invalid %s %q", ColumnQuantity, values[ColumnQuantity])
	}
	return pfoliotransaction.New(values[ColumnTicker], date, price, quantity)
}

func parseDate(value string) (time.Time, error) {
	if date, err := xtime.ParseDate(value); err == nil {
		return date.In(time.UTC), nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unknown date format %q", value)
}

func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return xtime.TimeToDate(t).String()
	}
	return t.Format(time.DateTime)
}

func (s *CSVSource) transactions() []pfoliotransaction.Transaction {
	var transactions []pfoliotransaction.Transaction
	for _, ticker := range s.tickers {
		transactions = append(transactions, s.positions[ticker].Transactions()...)
	}
	return transactions
}

func transactionsEqual(a []pfoliotransaction.Transaction, b []pfoliotransaction.Transaction) bool {
	return slices.EqualFunc(a, b, func(x pfoliotransaction.Transaction, y pfoliotransaction.Transaction) bool {
		return x.Equal(y)
	})
}
