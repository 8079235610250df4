package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/siteops/metrics-sentinel/internal/domain"
)

const sampleTable = ` ------------------------------------------------------------------------------
  Period      Visits   Pages Served   Cache Hits   Cache Misses   Cache Hit Ratio
 ------------------------------------------------------------------------------
  2025-06-02  1,204    3,410          2,900        510            85.05%
  2025-06-03  1,310    3,602          3,100        502            86.06%
  2025-06-04  987      2,801          2,300        501            82.11%
 ------------------------------------------------------------------------------
`

func TestParseTable_WellFormed(t *testing.T) {
	records, err := ParseTable(sampleTable)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.PeriodString() != "2025-06-02" {
		t.Errorf("expected period 2025-06-02, got %s", first.PeriodString())
	}
	if first.Visits != 1204 {
		t.Errorf("thousands separator not stripped: got %d", first.Visits)
	}
	if first.PagesServed != 3410 {
		t.Errorf("expected 3410 pages served, got %d", first.PagesServed)
	}
	if first.CacheHits != 2900 || first.CacheMisses != 510 {
		t.Errorf("unexpected cache counts: %d / %d", first.CacheHits, first.CacheMisses)
	}
	if first.CacheHitRatio != 85.05 {
		t.Errorf("percent sign not stripped: got %v", first.CacheHitRatio)
	}
	if first.HTTP4xx != nil || first.HTTP5xx != nil {
		t.Error("error-count columns absent in source, expected nil")
	}
}

func TestParseTable_OptionalErrorColumns(t *testing.T) {
	table := `  Period      Visits   Pages Served   Cache Hits   Cache Misses   Cache Hit Ratio   HTTP 4xx   HTTP 5xx
 ----------
  2025-06-02  1,204    3,410          2,900        510            85.05%            140        12
`
	records, err := ParseTable(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec := records[0]
	if rec.HTTP4xx == nil || *rec.HTTP4xx != 140 {
		t.Errorf("expected HTTP 4xx 140, got %v", rec.HTTP4xx)
	}
	if rec.HTTP5xx == nil || *rec.HTTP5xx != 12 {
		t.Errorf("expected HTTP 5xx 12, got %v", rec.HTTP5xx)
	}
}

func TestParseTable_DropsMismatchedRows(t *testing.T) {
	table := sampleTable + "\n  2025-06-05  999\n"
	records, err := ParseTable(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The short row is dropped, not an error
	if len(records) != 3 {
		t.Fatalf("expected mismatched row to be dropped, got %d records", len(records))
	}
}

func TestParseTable_NoHeader(t *testing.T) {
	_, err := ParseTable("some log output\nwithout any table\n")
	if !errors.Is(err, domain.ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}
}

func TestParseTable_Empty(t *testing.T) {
	_, err := ParseTable("")
	if !errors.Is(err, domain.ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable for empty input, got %v", err)
	}
}

func TestParseTable_BadNumericAbortsWholeParse(t *testing.T) {
	table := strings.Replace(sampleTable, "1,310", "n/a", 1)
	_, err := ParseTable(table)
	if !errors.Is(err, domain.ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable on coercion failure, got %v", err)
	}
}

func TestParseTable_UnparseableDateKeepsRawString(t *testing.T) {
	table := strings.Replace(sampleTable, "2025-06-02", "Week of 23", 1)
	records, err := ParseTable(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec := records[0]
	if rec.HasDate() {
		t.Error("expected no parsed date for non-ISO period")
	}
	if rec.PeriodString() != "Week of 23" {
		t.Errorf("expected raw period retained, got %q", rec.PeriodString())
	}
}

func TestParseTable_SkipsBlankAndRuleLines(t *testing.T) {
	records, err := ParseTable(sampleTable)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range records {
		if strings.HasPrefix(r.PeriodString(), "-") {
			t.Errorf("separator line leaked into records: %q", r.PeriodString())
		}
	}
}
