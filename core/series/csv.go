package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/h2grid/core/simerr"
)

// Column names used by the bundled datasets.
const (
	TimeColumn       = "Datetime"
	SupplyColumn     = "Energy Supplied (MJ)"
	DemandColumn     = "Energy Demand (MJ)"
	DifferenceColumn = "Energy Difference (MJ)"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ReadCSV parses a time series with a Datetime column and the given energy
// column. Other columns are ignored.
func ReadCSV(r io.Reader, name, column string) (*Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, simerr.Invalidf("%s: missing header", name)
		}
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}
	ti, vi := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case TimeColumn:
			ti = i
		case column:
			vi = i
		}
	}
	if ti < 0 || vi < 0 {
		return nil, simerr.Invalidf("%s: columns %q and %q required", name, TimeColumn, column)
	}
	var samples []Sample
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", name, line, err)
		}
		ts, err := parseTime(strings.TrimSpace(rec[ti]))
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", name, line, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[vi]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", name, line, err)
		}
		samples = append(samples, Sample{Time: ts, EnergyMJ: v})
	}
	if len(samples) == 0 {
		return nil, simerr.Invalidf("%s: no samples", name)
	}
	return New(name, samples), nil
}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path, column string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, path, column)
}

// WriteCSV writes s with the Datetime column and the given value column.
func WriteCSV(w io.Writer, s *Series, column string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{TimeColumn, column}); err != nil {
		return err
	}
	for _, smp := range s.samples {
		rec := []string{smp.Time.Format("2006-01-02 15:04:05"), strconv.FormatFloat(smp.EnergyMJ, 'f', -1, 64)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV creates path and writes s to it with WriteCSV.
func SaveCSV(path string, s *Series, column string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, s, column); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
