// Package metrics parses the semi-structured tabular output of the metrics
// CLI into typed records.
package metrics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/siteops/metrics-sentinel/internal/domain"
)

// Column names as they appear in the metrics table header.
const (
	ColPeriod        = "Period"
	ColVisits        = "Visits"
	ColPagesServed   = "Pages Served"
	ColCacheHits     = "Cache Hits"
	ColCacheMisses   = "Cache Misses"
	ColCacheHitRatio = "Cache Hit Ratio"
	ColHTTP4xx       = "HTTP 4xx"
	ColHTTP5xx       = "HTTP 5xx"
)

// Column values may contain single spaces ("Pages Served"), so the delimiter
// is a run of two or more whitespace characters.
var columnSplit = regexp.MustCompile(`\s{2,}`)

// ParseTable turns raw tabular metrics text into an ordered record sequence.
// The header row must contain both "Period" and "Cache Hit Ratio"; the row
// after it is assumed to be a separator rule. Rows whose field count does not
// match the header are dropped silently; a failed numeric coercion aborts the
// whole parse, since partial numeric columns make baseline math meaningless.
func ParseTable(output string) ([]domain.MetricRecord, error) {
	lines := strings.Split(output, "\n")

	headerIdx := -1
	for i, line := range lines {
		if strings.Contains(line, ColPeriod) && strings.Contains(line, ColCacheHitRatio) {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil, fmt.Errorf("no header row: %w", domain.ErrUnparseable)
	}

	header := columnSplit.Split(strings.TrimSpace(lines[headerIdx]), -1)
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}
	if _, ok := colIdx[ColVisits]; !ok {
		return nil, fmt.Errorf("no %s column: %w", ColVisits, domain.ErrUnparseable)
	}

	var records []domain.MetricRecord
	for _, line := range lines[headerIdx+2:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "-") {
			continue
		}
		fields := columnSplit.Split(trimmed, -1)
		if len(fields) != len(header) {
			// Malformed row, e.g. a footer or a wrapped line. Drop it.
			continue
		}

		rec, err := buildRecord(colIdx, fields)
		if err != nil {
			return nil, fmt.Errorf("row %q: %v: %w", trimmed, err, domain.ErrUnparseable)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no data rows: %w", domain.ErrUnparseable)
	}
	return records, nil
}

func buildRecord(colIdx map[string]int, fields []string) (domain.MetricRecord, error) {
	var rec domain.MetricRecord
	var err error

	if rec.Visits, err = intField(colIdx, fields, ColVisits); err != nil {
		return rec, err
	}
	if rec.PagesServed, err = intField(colIdx, fields, ColPagesServed); err != nil {
		return rec, err
	}
	if rec.CacheHits, err = intField(colIdx, fields, ColCacheHits); err != nil {
		return rec, err
	}
	if rec.CacheMisses, err = intField(colIdx, fields, ColCacheMisses); err != nil {
		return rec, err
	}

	// Error-count columns are optional; some metrics feeds omit them.
	if _, ok := colIdx[ColHTTP4xx]; ok {
		v, err := intField(colIdx, fields, ColHTTP4xx)
		if err != nil {
			return rec, err
		}
		rec.HTTP4xx = &v
	}
	if _, ok := colIdx[ColHTTP5xx]; ok {
		v, err := intField(colIdx, fields, ColHTTP5xx)
		if err != nil {
			return rec, err
		}
		rec.HTTP5xx = &v
	}

	if i, ok := colIdx[ColCacheHitRatio]; ok {
		raw := strings.TrimSuffix(strings.TrimSpace(fields[i]), "%")
		rec.CacheHitRatio, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return rec, fmt.Errorf("parse %s %q: %v", ColCacheHitRatio, fields[i], err)
		}
	}

	if i, ok := colIdx[ColPeriod]; ok {
		rec.RawPeriod = strings.TrimSpace(fields[i])
		// A period that is not a calendar date is a degraded state, not an
		// error: the raw string is kept and downstream code must cope.
		if ts, err := time.Parse("2006-01-02", rec.RawPeriod); err == nil {
			rec.Period = ts
		}
	}

	return rec, nil
}

// intField parses an integer column, tolerating thousands separators.
func intField(colIdx map[string]int, fields []string, name string) (int64, error) {
	i, ok := colIdx[name]
	if !ok {
		return 0, nil
	}
	raw := strings.ReplaceAll(strings.TrimSpace(fields[i]), ",", "")
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %v", name, fields[i], err)
	}
	return v, nil
}
