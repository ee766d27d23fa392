package datasource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/seenimoa/stockchat/pkg/models"
)

// Column keys after header normalization ("Adj Close" -> "adjclose").
const (
	colRegion   = "region"
	colExchange = "exchange"
	colIndex    = "index"
	colCurrency = "currency"
	colDate     = "date"
	colOpen     = "open"
	colHigh     = "high"
	colLow      = "low"
	colClose    = "close"
	colAdjClose = "adjclose"
	colVolume   = "volume"
	colCloseUSD = "closeusd"
)

var (
	infoColumns = []string{colRegion, colExchange, colIndex, colCurrency}
	barColumns  = []string{colIndex, colDate, colOpen, colHigh, colLow, colClose, colAdjClose, colVolume}
)

// ParseIndexInfo reads the index reference table.
func ParseIndexInfo(r io.Reader) ([]models.IndexRecord, error) {
	reader := newReader(r)
	cols, err := readHeader(reader, infoColumns)
	if err != nil {
		return nil, err
	}

	var out []models.IndexRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, models.IndexRecord{
			Region:   cell(row, cols, colRegion),
			Exchange: cell(row, cols, colExchange),
			Index:    cell(row, cols, colIndex),
			Currency: cell(row, cols, colCurrency),
		})
	}
	return out, nil
}

// ParseBars reads a daily bar table. A CloseUSD column, when present, fills
// Bar.CloseUSD; empty numeric cells decode as zero (or nil for CloseUSD).
func ParseBars(r io.Reader) ([]models.Bar, error) {
	reader := newReader(r)
	cols, err := readHeader(reader, barColumns)
	if err != nil {
		return nil, err
	}
	_, hasUSD := cols[colCloseUSD]

	var out []models.Bar
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		bar := models.Bar{
			Index: cell(row, cols, colIndex),
			Date:  cell(row, cols, colDate),
		}
		fields := []struct {
			key string
			dst *float64
		}{
			{colOpen, &bar.Open},
			{colHigh, &bar.High},
			{colLow, &bar.Low},
			{colClose, &bar.Close},
			{colAdjClose, &bar.AdjClose},
			{colVolume, &bar.Volume},
		}
		for _, f := range fields {
			v, ok, err := parseNumber(cell(row, cols, f.key))
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, f.key, err)
			}
			if ok {
				*f.dst = v
			}
		}
		if hasUSD {
			v, ok, err := parseNumber(cell(row, cols, colCloseUSD))
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, colCloseUSD, err)
			}
			if ok {
				bar.CloseUSD = &v
			}
		}
		out = append(out, bar)
	}
	return out, nil
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true
	return reader
}

// readHeader maps normalized column names to positions and checks that
// every required column is present.
func readHeader(reader *csv.Reader, required []string) (map[string]int, error) {
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[normalizeHeader(h)] = i
	}
	var missing []string
	for _, key := range required {
		if _, ok := cols[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "").Replace(h)
}

func cell(row []string, cols map[string]int, key string) string {
	i, ok := cols[key]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseNumber returns ok=false for empty and null-like cells. Infinite
// values are rejected since they cannot be encoded as JSON.
func parseNumber(s string) (float64, bool, error) {
	switch strings.ToLower(s) {
	case "", "null", "nan", "na", "n/a":
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("invalid number %q", s)
	}
	return v, true, nil
}
