// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package pfoliosource reads positions from portfolio files and writes changes back.
package pfoliosource

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/bufdev/pfolio/internal/pfolio/pfoliopath"
	"github.com/bufdev/pfolio/internal/pfolio/pfolioposition"
)

var (
	// ErrUnsupportedFormat is returned by Open for unknown file extensions.
	ErrUnsupportedFormat = errors.New("file type not supported")
	// ErrNotImplemented is returned by Open for recognized formats without a reader.
	ErrNotImplemented = errors.New("not implemented")
	// ErrPositionNotFound is returned when modifying or deleting a missing position.
	ErrPositionNotFound = errors.New("position not found")
)

// Source is a set of positions backed by a file.
//
// Changes are persisted on Close.
type Source interface {
	// Positions returns the positions in file order.
	Positions() []*pfolioposition.Position
	// Position returns the position for the ticker.
	Position(ticker string) (*pfolioposition.Position, bool)
	// AddPosition adds the position, merging it into an existing position with the same ticker.
	AddPosition(position *pfolioposition.Position) error
	// ModifyPosition replaces the position with the same ticker.
	//
	// Returns ErrPositionNotFound if there is no such position.
	ModifyPosition(position *pfolioposition.Position) error
	// DeletePosition removes the position with the same ticker.
	//
	// Returns ErrPositionNotFound if there is no such position.
	DeletePosition(position *pfolioposition.Position) error
	// Close persists changes. Nothing is written if nothing changed.
	Close() error
}

// Option is an option for opening a Source.
type Option func(*options)

// WithVersioning writes changes to a new snapshot named by the template
// instead of overwriting the file, and reads the newest snapshot on open.
//
// The template must pass pfoliopath.ValidateVersionTemplate.
// Versioning is on by default with pfoliopath.DefaultVersionTemplate.
func WithVersioning(template string) Option {
	return func(options *options) {
		options.versionTemplate = template
	}
}

// WithoutVersioning overwrites the file in place on close.
func WithoutVersioning() Option {
	return func(options *options) {
		options.versionTemplate = ""
	}
}

// WithClock sets the function used for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(options *options) {
		options.now = now
	}
}

// WithLogger sets the logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(options *options) {
		options.logger = logger
	}
}

// Open opens the file as a Source based on its extension.
//
// ".csv" files are supported. ".ledger" files return ErrNotImplemented.
// Anything else returns ErrUnsupportedFormat.
func Open(filePath string, options ...Option) (Source, error) {
	switch extension := strings.ToLower(filepath.Ext(filePath)); extension {
	case ".csv":
		return OpenCSV(filePath, options...)
	case ".ledger":
		return nil, fmt.Errorf("%s: ledger files: %w", filePath, ErrNotImplemented)
	default:
		return nil, fmt.Errorf("%s: %w", filePath, ErrUnsupportedFormat)
	}
}

// WithSource opens the file, calls f, and closes the Source.
//
// The Source is closed even if f fails, so changes made before the failure are persisted.
func WithSource(filePath string, options []Option, f func(Source) error) (retErr error) {
	source, err := Open(filePath, options...)
	if err != nil {
		return err
	}
	defer func() {
		retErr = errors.Join(retErr, source.Close())
	}()
	return f(source)
}

// *** PRIVATE ***

type options struct {
	versionTemplate string
	now             func() time.Time
	logger          *slog.Logger
}

func newOptions() *options {
	return &options{
		versionTemplate: pfoliopath.DefaultVersionTemplate,
		now:             time.Now,
		logger:          slog.New(slog.DiscardHandler),
	}
}
