// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package archive implements the "archive" command.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/pfolio/cmd/pfolio/internal/pfoliocmd"
	"github.com/bufdev/pfolio/internal/pfolio/pfoliopath"
	"github.com/bufdev/pfolio/internal/standard/xos"
	"github.com/spf13/pflag"
)

// outputFlagName is the flag name for the output zip file path.
const outputFlagName = "output"

// NewCommand returns a new archive command that zips a portfolio file and its snapshots.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " <file>",
		Short: "Archive a portfolio file and its versioned snapshots to a zip file",
		Args:  appcmd.ExactArgs(1),
		Run: builder.NewRunFunc(
			func(ctx context.Context, container appext.Container) error {
				return run(ctx, container, flags)
			},
		),
		BindFlags: flags.Bind,
	}
}

type flags struct {
	// Config is the path to the configuration file.
	Config string
	// Output is the path to the output zip file.
	Output string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	pfoliocmd.BindConfigFlag(flagSet, &f.Config)
	flagSet.StringVarP(&f.Output, outputFlagName, "o", "", "Output zip file path (required)")
}

func run(_ context.Context, container appext.Container, flags *flags) error {
	if flags.Output == "" {
		return appcmd.NewInvalidArgumentError("--output (-o) is required")
	}
	if !strings.HasSuffix(flags.Output, ".zip") {
		return appcmd.NewInvalidArgumentError("output file must have a .zip extension")
	}
	runtime, err := pfoliocmd.NewRuntime(container, flags.Config)
	if err != nil {
		return err
	}
	filePath, err := xos.ExpandHome(container.Arg(0))
	if err != nil {
		return err
	}
	filePaths, err := archiveFilePaths(filePath, runtime.Config.VersionTemplate)
	if err != nil {
		return err
	}
	if len(filePaths) == 0 {
		return fmt.Errorf("%s: no portfolio file or snapshots found", filePath)
	}
	if err := writeArchive(flags.Output, filePaths); err != nil {
		return fmt.Errorf("creating zip archive: %w", err)
	}
	container.Logger().Info("zip archive created", "path", flags.Output, "files", len(filePaths))
	return nil
}

// archiveFilePaths returns the portfolio file, if it exists, followed by its
// snapshots from oldest to newest.
func archiveFilePaths(filePath string, versionTemplate string) ([]string, error) {
	var filePaths []string
	if _, err := os.Stat(filePath); err == nil {
		filePaths = append(filePaths, filePath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if versionTemplate == "" {
		return filePaths, nil
	}
	versionedFilePaths, err := pfoliopath.VersionedFilePaths(versionTemplate, filePath)
	if err != nil {
		return nil, err
	}
	return append(filePaths, versionedFilePaths...), nil
}

// writeArchive writes the files to a new zip file at outputPath, keyed by base name.
func writeArchive(outputPath string, filePaths []string) (retErr error) {
	outputFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		retErr = errors.Join(retErr, outputFile.Close())
	}()
	zipWriter := zip.NewWriter(outputFile)
	for _, filePath := range filePaths {
		if err := addFile(zipWriter, filePath); err != nil {
			return err
		}
	}
	return zipWriter.Close()
}

func addFile(zipWriter *zip.Writer, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(filePath)
	header.Method = zip.Deflate
	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(writer, file)
	return err
}
