// Package datasource loads the stock-index CSV datasets and answers
// read-only lookups over them.
//
// Three files make up a dataset: the index reference table (indexInfo.csv),
// raw daily bars (indexData.csv) and processed daily bars with a USD close
// (indexProcessed.csv). A loaded Snapshot is immutable and safe to share
// between goroutines.
package datasource

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/seenimoa/stockchat/pkg/models"
)

// ErrDataUnavailable is returned when a backing file is missing or malformed.
var ErrDataUnavailable = errors.New("dataset unavailable")

// DataError records which file could not be read and why.
type DataError struct {
	File string
	Err  error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDataUnavailable, e.File, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

// Is makes every DataError match ErrDataUnavailable.
func (e *DataError) Is(target error) bool { return target == ErrDataUnavailable }

// Snapshot is one fully loaded copy of the three datasets.
type Snapshot struct {
	info      []models.IndexRecord
	bars      []models.Bar
	processed []models.Bar
}

// NewSnapshot builds a snapshot from already parsed tables.
func NewSnapshot(info []models.IndexRecord, bars, processed []models.Bar) *Snapshot {
	return &Snapshot{info: info, bars: bars, processed: processed}
}

// Indices returns all index records in load order.
func (s *Snapshot) Indices() []models.IndexRecord {
	out := make([]models.IndexRecord, len(s.info))
	copy(out, s.info)
	return out
}

// BySymbol returns at most limit raw bars whose index equals symbol exactly,
// in on-disk order.
func (s *Snapshot) BySymbol(symbol string, limit int) []models.Bar {
	if limit <= 0 {
		return []models.Bar{}
	}
	out := make([]models.Bar, 0, min(limit, 16))
	for _, b := range s.bars {
		if b.Index != symbol {
			continue
		}
		out = append(out, b)
		if len(out) == limit {
			break
		}
	}
	return out
}

// RecentBySymbol is BySymbol with the matching bars sorted by date,
// newest first, before truncation.
func (s *Snapshot) RecentBySymbol(symbol string, limit int) []models.Bar {
	if limit <= 0 {
		return []models.Bar{}
	}
	var matched []models.Bar
	for _, b := range s.bars {
		if b.Index == symbol {
			matched = append(matched, b)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date > matched[j].Date
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	if matched == nil {
		return []models.Bar{}
	}
	return matched
}

// ByRegion returns index records whose region contains phrase,
// case-insensitively, in load order. An empty phrase matches nothing.
func (s *Snapshot) ByRegion(phrase string) []models.IndexRecord {
	out := []models.IndexRecord{}
	needle := strings.ToLower(strings.TrimSpace(phrase))
	if needle == "" {
		return out
	}
	for _, rec := range s.info {
		if strings.Contains(strings.ToLower(rec.Region), needle) {
			out = append(out, rec)
		}
	}
	return out
}

// Summary describes the snapshot.
func (s *Snapshot) Summary() models.DataSummary {
	sum := models.DataSummary{
		TotalIndices:     len(s.info),
		TotalRecords:     len(s.bars) + len(s.processed),
		AvailableIndices: make([]string, 0, len(s.info)),
	}
	for _, rec := range s.info {
		sum.AvailableIndices = append(sum.AvailableIndices, rec.Index)
	}
	for _, b := range s.bars {
		if b.Date == "" {
			continue
		}
		if sum.DateRange.Earliest == "" || b.Date < sum.DateRange.Earliest {
			sum.DateRange.Earliest = b.Date
		}
		if b.Date > sum.DateRange.Latest {
			sum.DateRange.Latest = b.Date
		}
	}
	return sum
}

// Sample returns every index record plus the first n rows of each bar table.
func (s *Snapshot) Sample(n int) models.RawSample {
	return models.RawSample{
		IndexInfo:            s.Indices(),
		IndexDataSample:      head(s.bars, n),
		IndexProcessedSample: head(s.processed, n),
	}
}

func head(bars []models.Bar, n int) []models.Bar {
	if n < 0 {
		n = 0
	}
	if n > len(bars) {
		n = len(bars)
	}
	out := make([]models.Bar, n)
	copy(out, bars[:n])
	return out
}
