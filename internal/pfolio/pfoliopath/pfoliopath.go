// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package pfoliopath derives file paths used by pfolio.
// All path layout is defined here so callers don't duplicate
// path construction logic.
//
// The config directory contains:
//
//	config.yaml                       Config file
//	.env                              Optional API tokens
//
// A portfolio file may have versioned snapshots next to it, named by a
// template such as "{file_path}.{timestamp}":
//
//	portfolio.csv                     The file as originally written
//	portfolio.csv.20240102150405      A snapshot written on close
package pfoliopath

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const (
	// ConfigFileName is the well-known config file name within the config directory.
	ConfigFileName = "config.yaml"
	// EnvFileName is the optional dotenv file within the config directory.
	EnvFileName = ".env"
	// FilePathPlaceholder is replaced by the portfolio file path in a version template.
	FilePathPlaceholder = "{file_path}"
	// TimestampPlaceholder is replaced by the snapshot timestamp in a version template.
	TimestampPlaceholder = "{timestamp}"
	// DefaultVersionTemplate is the default version template.
	DefaultVersionTemplate = FilePathPlaceholder + "." + TimestampPlaceholder
	// TimestampLayout is the time layout of the snapshot timestamp.
	TimestampLayout = "20060102150405"
)

// ConfigFilePath returns the path to the config file within the config directory.
func ConfigFilePath(configDirPath string) string {
	return filepath.Join(configDirPath, ConfigFileName)
}

// EnvFilePath returns the path to the dotenv file within the config directory.
func EnvFilePath(configDirPath string) string {
	return filepath.Join(configDirPath, EnvFileName)
}

// ValidateVersionTemplate returns an error if the template cannot name distinct snapshots.
func ValidateVersionTemplate(template string) error {
	if strings.Count(template, TimestampPlaceholder) != 1 {
		return fmt.Errorf("version template %q must contain %s exactly once", template, TimestampPlaceholder)
	}
	if !strings.Contains(template, FilePathPlaceholder) {
		return fmt.Errorf("version template %q must contain %s", template, FilePathPlaceholder)
	}
	if template == FilePathPlaceholder+TimestampPlaceholder {
		return errors.New("version template must separate the file path from the timestamp")
	}
	return nil
}

// VersionedFilePath returns the snapshot path for the file at the time.
func VersionedFilePath(template string, filePath string, t time.Time) string {
	return strings.NewReplacer(
		FilePathPlaceholder, filePath,
		TimestampPlaceholder, t.Format(TimestampLayout),
	).Replace(template)
}

// VersionedFilePaths returns the existing snapshot paths for the file, oldest first.
func VersionedFilePaths(template string, filePath string) ([]string, error) {
	if err := ValidateVersionTemplate(template); err != nil {
		return nil, err
	}
	rendered := strings.ReplaceAll(template, FilePathPlaceholder, filePath)
	prefix, suffix, _ := strings.Cut(rendered, TimestampPlaceholder)
	matches, err := filepath.Glob(escapeGlob(prefix) + "*" + escapeGlob(suffix))
	if err != nil {
		return nil, err
	}
	type version struct {
		path      string
		timestamp time.Time
	}
	var versions []version
	for _, match := range matches {
		middle := strings.TrimSuffix(strings.TrimPrefix(match, prefix), suffix)
		timestamp, err := time.Parse(TimestampLayout, middle)
		if err != nil {
			continue
		}
		versions = append(versions, version{path: match, timestamp: timestamp})
	}
	slices.SortFunc(versions, func(a version, b version) int {
		return a.timestamp.Compare(b.timestamp)
	})
	paths := make([]string, len(versions))
	for i, version := range versions {
		paths[i] = version.path
	}
	return paths, nil
}

// LatestVersionedFilePath returns the newest snapshot path for the file, if any.
func LatestVersionedFilePath(template string, filePath string) (string, bool, error) {
	paths, err := VersionedFilePaths(template, filePath)
	if err != nil {
		return "", false, err
	}
	if len(paths) == 0 {
		return "", false, nil
	}
	return paths[len(paths)-1], true, nil
}

// *** PRIVATE ***

func escapeGlob(s string) string {
	return strings.NewReplacer("*", `\*`, "?", `\?`, "[", `\[`).Replace(s)
}
