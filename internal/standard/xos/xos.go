// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package xos provides extensions to the standard os package.
package xos

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading "~" or "~/" in a path to the user's home directory.
//
// Paths of the form "~user" are not supported and return an error.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	if rest := path[1:]; rest != "" && !os.IsPathSeparator(rest[0]) {
		return "", fmt.Errorf("cannot expand %q: only ~ and ~/ are supported", path)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// WriteFileAtomic writes the file by renaming a fully written temporary file
// in the same directory over it.
//
// If f or any step fails, the temporary file is removed and the existing file is untouched.
// The written file has mode 0644.
func WriteFileAtomic(filePath string, f func(io.Writer) error) error {
	file, err := os.CreateTemp(filepath.Dir(filePath), "."+filepath.Base(filePath)+".tmp*")
	if err != nil {
		return err
	}
	tempPath := file.Name()
	if err := writeAndClose(file, f); err != nil {
		return errors.Join(err, os.Remove(tempPath))
	}
	if err := os.Chmod(tempPath, 0o644); err != nil {
		return errors.Join(err, os.Remove(tempPath))
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		return errors.Join(err, os.Remove(tempPath))
	}
	return nil
}

func writeAndClose(file *os.File, f func(io.Writer) error) (retErr error) {
	defer func() {
		retErr = errors.Join(retErr, file.Close())
	}()
	if err := f(file); err != nil {
		return err
	}
	return file.Sync()
}
