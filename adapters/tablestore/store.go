// Package tablestore persists price and CDF tables on the local filesystem.
package tablestore

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sidecar/adapters/excel"
	"sidecar/domain/dataset"
	"sidecar/internal"
	"sidecar/internal/errors"
)

// Supported file extensions
const (
	ExtGob  = ".gob"
	ExtXLSX = ".xlsx"
)

// Table kinds written ahead of the payload in gob files
const (
	kindPrices = "price_table"
	kindCDF    = "cdf_table"
)

const formatVersion = 1

type header struct {
	Kind    string
	Version int
}

// Store implements ports.TableStore over gob files, with xlsx as an
// alternative format for CDF tables.
type Store struct {
	logger *internal.Logger
}

// New creates a filesystem table store
func New(logger *internal.Logger) *Store {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Store{logger: logger.With("component", "tablestore")}
}

// SavePrices writes a price table as gob
func (s *Store) SavePrices(ctx context.Context, path string, table dataset.PriceTable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := table.Validate(); err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ExtGob {
		return errors.InvalidInput(fmt.Sprintf("price tables are stored as %s, got %q", ExtGob, ext))
	}
	if err := saveGob(path, kindPrices, table); err != nil {
		return errors.StorageError(path, err)
	}
	s.logger.Info("saved price table %s (%d rows) to %s", table.Ticker, table.Len(), path)
	return nil
}

// LoadPrices reads a price table written by SavePrices
func (s *Store) LoadPrices(ctx context.Context, path string) (dataset.PriceTable, error) {
	var table dataset.PriceTable
	if err := ctx.Err(); err != nil {
		return table, err
	}
	if err := loadGob(path, kindPrices, &table); err != nil {
		return table, err
	}
	if err := table.Validate(); err != nil {
		return table, errors.WithCode(errors.CodeInvalidInput, err)
	}
	s.logger.Debug("loaded price table %s (%d rows) from %s", table.Ticker, table.Len(), path)
	return table, nil
}

// SaveCDF writes a CDF table as gob or xlsx depending on the extension
func (s *Store) SaveCDF(ctx context.Context, path string, table *dataset.CDFTable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if table == nil {
		return errors.InvalidInput("cdf table is nil")
	}
	if err := table.Validate(); err != nil {
		return errors.WithCode(errors.CodeInvalidInput, err)
	}

	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ExtGob:
		err = saveGob(path, kindCDF, table)
	case ExtXLSX:
		err = excel.WriteCDFWorkbook(path, table)
	default:
		return errors.InvalidInput(fmt.Sprintf("unsupported cdf table extension %q", ext))
	}
	if err != nil {
		return errors.StorageError(path, err)
	}
	s.logger.Info("saved cdf table %s (%v) to %s", table.Ticker, table.Labels(), path)
	return nil
}

// LoadCDF reads a CDF table written by SaveCDF
func (s *Store) LoadCDF(ctx context.Context, path string) (*dataset.CDFTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var table *dataset.CDFTable
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ExtGob:
		table = &dataset.CDFTable{}
		if err := loadGob(path, kindCDF, table); err != nil {
			return nil, err
		}
	case ExtXLSX:
		if _, err := os.Stat(path); err != nil {
			return nil, errors.NotFound(path)
		}
		var err error
		if table, err = excel.ReadCDFWorkbook(path); err != nil {
			return nil, errors.StorageError(path, err)
		}
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported cdf table extension %q", ext))
	}
	if err := table.Validate(); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "cdf table %s", path))
	}
	s.logger.Debug("loaded cdf table %s (%v) from %s", table.Ticker, table.Labels(), path)
	return table, nil
}

// ResolveOutput returns out unchanged when it already names a file with a
// supported extension, otherwise out is treated as a directory (created if
// needed) and defaultName+ext is placed inside it.
func ResolveOutput(out, defaultName, ext string) (string, error) {
	switch strings.ToLower(filepath.Ext(out)) {
	case ExtGob, ExtXLSX:
		if dir := filepath.Dir(out); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", errors.StorageError(dir, err)
			}
		}
		return out, nil
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", errors.StorageError(out, err)
	}
	return filepath.Join(out, defaultName+ext), nil
}

// Stem strips the directory and extension from path
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func saveGob(path, kind string, payload interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := gob.NewEncoder(file)
	if err := enc.Encode(header{Kind: kind, Version: formatVersion}); err != nil {
		file.Close()
		return err
	}
	if err := enc.Encode(payload); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func loadGob(path, kind string, payload interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NotFound(path)
		}
		return errors.StorageError(path, err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var h header
	if err := dec.Decode(&h); err != nil {
		return errors.StorageError(path, fmt.Errorf("not a table file: %w", err))
	}
	if h.Kind != kind {
		return errors.InvalidInput(fmt.Sprintf("%s holds a %s, expected a %s", path, h.Kind, kind))
	}
	if h.Version != formatVersion {
		return errors.InvalidInput(fmt.Sprintf("%s has format version %d, expected %d", path, h.Version, formatVersion))
	}
	if err := dec.Decode(payload); err != nil {
		return errors.StorageError(path, err)
	}
	return nil
}
