package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"salary-trends/models"
)

// ErrSummaryFormat is returned for summary files missing Year or Mean.
var ErrSummaryFormat = errors.New("malformed summary csv")

// ReadSummaryFile reads a summary CSV written by WriteSummary or by any tool
// producing Year/Mean/Median/Q1/Q3 columns.
func ReadSummaryFile(path string) ([]models.YearlySummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	out, err := ReadSummary(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// ReadSummary parses summary rows. Header names are trimmed and capitalized
// before lookup, so "mean" and " MEAN" both match Mean. Only Year and Mean
// are required. Rows come back sorted by Year.
func ReadSummary(r io.Reader) ([]models.YearlySummary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrSummaryFormat, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[capitalize(h)] = i
	}
	for _, required := range []string{"Year", "Mean"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("%w: missing %s column in %v", ErrSummaryFormat, required, header)
		}
	}

	var out []models.YearlySummary
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSummaryFormat, line, err)
		}

		year, err := strconv.Atoi(strings.TrimSpace(field(rec, idx, "Year")))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: year: %v", ErrSummaryFormat, line, err)
		}
		s := models.YearlySummary{Year: year}
		for name, dst := range map[string]*float64{"Mean": &s.Mean, "Median": &s.Median, "Q1": &s.Q1, "Q3": &s.Q3} {
			raw := strings.TrimSpace(field(rec, idx, name))
			if raw == "" && name != "Mean" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %s: %v", ErrSummaryFormat, line, name, err)
			}
			*dst = v
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

func field(rec []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
