// Package assets implements the asset ledger pipeline: CSV row parsing,
// batch import with per-row failure accounting, and month/currency summaries.
package assets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"strconv"
	"strings"

	"homeportal/internal/core"
)

// Column names expected in the CSV header.
const (
	ColDate        = "date"
	ColAccountName = "account_name"
	ColBalance     = "balance"
	ColCurrency    = "currency"
)

// RequiredColumns lists every column ParseRow reads.
var RequiredColumns = []string{ColDate, ColAccountName, ColBalance, ColCurrency}

var (
	ErrMissingColumn  = errors.New("missing column")
	ErrInvalidBalance = errors.New("invalid balance")
	ErrEmptyField     = errors.New("empty field")
)

// ParseRow turns one CSV row, keyed by header name, into a snapshot.
// The returned snapshot has no ID; one is assigned on persistence.
func ParseRow(row map[string]string) (core.AssetSnapshot, error) {
	rawDate, err := lookup(row, ColDate)
	if err != nil {
		return core.AssetSnapshot{}, err
	}
	date, err := core.ParseDate(rawDate)
	if err != nil {
		return core.AssetSnapshot{}, err
	}

	accountName, err := lookupNonEmpty(row, ColAccountName)
	if err != nil {
		return core.AssetSnapshot{}, err
	}

	rawBalance, err := lookup(row, ColBalance)
	if err != nil {
		return core.AssetSnapshot{}, err
	}
	balance, err := parseBalance(rawBalance)
	if err != nil {
		return core.AssetSnapshot{}, err
	}

	currency, err := lookupNonEmpty(row, ColCurrency)
	if err != nil {
		return core.AssetSnapshot{}, err
	}

	return core.AssetSnapshot{
		Date:        date,
		AccountName: accountName,
		Balance:     balance,
		Currency:    currency,
	}, nil
}

func lookup(row map[string]string, col string) (string, error) {
	v, ok := row[col]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrMissingColumn, col)
	}
	return v, nil
}

func lookupNonEmpty(row map[string]string, col string) (string, error) {
	v, err := lookup(row, col)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%w %q", ErrEmptyField, col)
	}
	return v, nil
}

func parseBalance(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidBalance, s)
	}
	return f, nil
}

// RowResult is the outcome of parsing one data row: either Snapshot or Err is meaningful.
type RowResult struct {
	Line     int
	Snapshot core.AssetSnapshot
	Err      error
}

// RowReader streams data rows of a headed CSV document.
type RowReader struct {
	cr     *csv.Reader
	header []string
}

// NewRowReader reads the header line. It returns io.EOF for an empty document.
func NewRowReader(r io.Reader) (*RowReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return &RowReader{cr: cr, header: header}, nil
}

// Header returns the column names in file order.
func (rr *RowReader) Header() []string {
	return rr.header
}

// All yields one RowResult per data row. The first data row is line 2.
func (rr *RowReader) All() iter.Seq[RowResult] {
	return func(yield func(RowResult) bool) {
		line := 1
		for {
			rec, err := rr.cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			line++
			if err != nil {
				if !yield(RowResult{Line: line, Err: err}) {
					return
				}
				continue
			}

			row := make(map[string]string, len(rr.header))
			for i, name := range rr.header {
				if i < len(rec) {
					row[name] = rec[i]
				}
			}
			snap, err := ParseRow(row)
			if !yield(RowResult{Line: line, Snapshot: snap, Err: err}) {
				return
			}
		}
	}
}
