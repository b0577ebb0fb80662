package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"github.com/yigit/exchangeintake/internal/pkg/eligibility"
	"github.com/yigit/exchangeintake/internal/pkg/httpx"
)

type fakeSource struct {
	mu    sync.Mutex
	rows  []eligibility.CourseMappingRow
	err   error
	calls int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(ctx context.Context) ([]eligibility.CourseMappingRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return cloneRows(f.rows), nil
}

type fakeStore struct {
	rows  []eligibility.CourseMappingRow
	saved int
}

func (f *fakeStore) Load(ctx context.Context) ([]eligibility.CourseMappingRow, bool, error) {
	if f.rows == nil {
		return nil, false, nil
	}
	return cloneRows(f.rows), true, nil
}

func (f *fakeStore) Save(ctx context.Context, rows []eligibility.CourseMappingRow, ttl time.Duration) error {
	f.rows = cloneRows(rows)
	f.saved++
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestCachedProviderServesWithinTTL(t *testing.T) {
	src := &fakeSource{rows: SampleRows()}
	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	p := NewCachedProvider(src, Options{TTL: time.Minute, Logger: zerolog.Nop(), Now: clk.now})

	ctx := context.Background()
	if _, err := p.Snapshot(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	clk.advance(30 * time.Second)
	if _, err := p.Snapshot(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if src.calls != 1 {
		t.Errorf("Expected 1 fetch within TTL, got %d", src.calls)
	}

	clk.advance(31 * time.Second)
	if _, err := p.Snapshot(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if src.calls != 2 {
		t.Errorf("Expected a refetch after TTL, got %d fetches", src.calls)
	}
}

func TestCachedProviderKeepsLastGoodSnapshot(t *testing.T) {
	src := &fakeSource{rows: SampleRows()}
	clk := &clock{t: time.Now()}
	p := NewCachedProvider(src, Options{TTL: time.Minute, Logger: zerolog.Nop(), Now: clk.now})
	ctx := context.Background()

	if _, err := p.Snapshot(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	src.err = errors.New("boom")
	clk.advance(2 * time.Minute)
	rows, err := p.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rows) != len(SampleRows()) {
		t.Errorf("Expected last good snapshot of %d rows, got %d", len(SampleRows()), len(rows))
	}
	if p.Info().Fallback {
		t.Error("Expected last good snapshot, not the fallback")
	}
}

func TestCachedProviderFallsBack(t *testing.T) {
	src := &fakeSource{err: errors.New("unreachable")}
	p := NewCachedProvider(src, Options{Logger: zerolog.Nop()})

	rows, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 fallback rows, got %d", len(rows))
	}
	if !p.Info().Fallback {
		t.Error("Expected Info to report the fallback")
	}

	src.err = nil
	src.rows = SampleRows()
	rows, _ = p.Snapshot(context.Background())
	if len(rows) != len(SampleRows()) {
		t.Errorf("Expected recovery after fallback, got %d rows", len(rows))
	}
}

func TestCachedProviderEmptyResultFallsBack(t *testing.T) {
	src := &fakeSource{rows: []eligibility.CourseMappingRow{}}
	p := NewCachedProvider(src, Options{Logger: zerolog.Nop()})
	rows, _ := p.Snapshot(context.Background())
	if len(rows) != len(FallbackRows()) {
		t.Errorf("Expected fallback rows for an empty source, got %d", len(rows))
	}
}

func TestCachedProviderReturnsCopies(t *testing.T) {
	src := &fakeSource{rows: SampleRows()}
	p := NewCachedProvider(src, Options{Logger: zerolog.Nop()})
	ctx := context.Background()

	rows, _ := p.Snapshot(ctx)
	rows[0].University = "Mutated"
	*rows[0].Notes = "mutated"

	again, _ := p.Snapshot(ctx)
	if again[0].University != "University of Toronto" {
		t.Errorf("Expected cached rows to be unaffected, got %q", again[0].University)
	}
	if *again[0].Notes != "Counts as core management credit." {
		t.Errorf("Expected cached notes to be unaffected, got %q", *again[0].Notes)
	}
}

func TestCachedProviderRefreshBypassesTTL(t *testing.T) {
	src := &fakeSource{rows: SampleRows()}
	p := NewCachedProvider(src, Options{TTL: time.Hour, Logger: zerolog.Nop()})
	ctx := context.Background()

	p.Snapshot(ctx)
	p.Refresh(ctx)
	if src.calls != 2 {
		t.Errorf("Expected Refresh to fetch, got %d fetches", src.calls)
	}
}

func TestCachedProviderUsesSharedStore(t *testing.T) {
	store := &fakeStore{}
	src := &fakeSource{rows: SampleRows()}
	p := NewCachedProvider(src, Options{Store: store, Logger: zerolog.Nop()})
	ctx := context.Background()

	p.Snapshot(ctx)
	if store.saved != 1 {
		t.Fatalf("Expected snapshot to be saved once, got %d", store.saved)
	}

	// A second instance finds the shared snapshot and skips the source.
	other := &fakeSource{err: errors.New("should not be called")}
	p2 := NewCachedProvider(other, Options{Store: store, Logger: zerolog.Nop()})
	rows, _ := p2.Snapshot(ctx)
	if other.calls != 0 {
		t.Errorf("Expected no source fetch, got %d", other.calls)
	}
	if len(rows) != len(SampleRows()) {
		t.Errorf("Expected %d rows from store, got %d", len(SampleRows()), len(rows))
	}
}

func TestDetectCountry(t *testing.T) {
	tests := map[string]string{
		"University of South Carolina": "USA",
		"CSU Dominguez Hills":          "USA",
		"McGill University":            "Canada",
		"ESADE Business School":        "Spain",
		"Waseda University":            "Japan",
		"Sorbonne":                     "Other",
	}
	for name, want := range tests {
		if got := DetectCountry(name); got != want {
			t.Errorf("DetectCountry(%q): expected %q, got %q", name, want, got)
		}
	}
}

func TestMapRecords(t *testing.T) {
	rows := mapRecords([]mappingRecord{
		{PartnerUniversity: " University of Toronto ", AjmanCourseCode: "MGT101", PartnerCourseName: "Intro Mgmt", IsApproved: "yes"},
		{PartnerUniversity: "Keio University", AjmanCourseCode: "FIN201", AjmanCourseName: "Finance", IsApproved: "No", MatchQuality: "excellent"},
		{PartnerUniversity: "IE University", AjmanCourseCode: "STM120", MatchQuality: "Good"},
		{PartnerUniversity: "IE University", AjmanCourseCode: ""},
	})
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0].Status != "Approved" || rows[0].University != "University of Toronto" || rows[0].Country != "Canada" {
		t.Errorf("Unexpected first row: %+v", rows[0])
	}
	if rows[1].Status != "NotApproved" {
		t.Errorf("Expected IsApproved to take precedence over Match Quality, got %q", rows[1].Status)
	}
	if rows[1].HostCourseTitle != "Finance" {
		t.Errorf("Expected home course name as title fallback, got %q", rows[1].HostCourseTitle)
	}
	if rows[2].Status != "Approved" || rows[2].HostCourseTitle != "STM120 - Course" {
		t.Errorf("Unexpected third row: %+v", rows[2])
	}
	if eligibility.Classify(rows[1].Status) != eligibility.MatchNotApproved {
		t.Errorf("Expected NotApproved rows to classify as notApproved")
	}
}

const sampleCSV = "Partner University,Ajman Course Code,Ajman Course Name,Partner Course Name,IsApproved,Match Quality\n" +
	"University of Toronto,MGT101,Management,Intro to Management,Yes,\n" +
	"Waseda University,MKT205,Marketing,Brand Strategy,,fair\n"

func TestSpreadsheetSourceCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	src := NewSpreadsheetSource(SpreadsheetConfig{URLs: []string{srv.URL}}, srv.Client(), zerolog.Nop())
	rows, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].Status != "Approved" || rows[1].Status != "NotApproved" {
		t.Errorf("Unexpected statuses: %q, %q", rows[0].Status, rows[1].Status)
	}
}

func buildWorkbook(t *testing.T, sheet string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("Failed to create sheet: %v", err)
		}
	}
	cells := [][]interface{}{
		{"Partner University", "Ajman Course Code", "Partner Course Name", "IsApproved"},
		{"IE University", "FIN201", "Financial Decision Making", "Y"},
		{"Keio University", "FIN201", "Investment Theory", "N"},
	}
	for r, row := range cells {
		for c, v := range row {
			ref, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, ref, v); err != nil {
				t.Fatalf("Failed to set cell: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("Failed to write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestSpreadsheetSourceXLSXFallsThroughURLs(t *testing.T) {
	workbook := buildWorkbook(t, "Course Mappings")
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer broken.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Write(workbook)
	}))
	defer good.Close()

	src := NewSpreadsheetSource(SpreadsheetConfig{
		URLs:  []string{broken.URL, good.URL},
		Retry: httpx.RetryConfig{MaxAttempts: 1},
	}, nil, zerolog.Nop())

	rows, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].Country != "Spain" || rows[0].Status != "Approved" {
		t.Errorf("Unexpected first row: %+v", rows[0])
	}
	if rows[1].Status != "NotApproved" {
		t.Errorf("Expected second row not approved, got %q", rows[1].Status)
	}
}

func TestParseXLSXFindsSheetByHeader(t *testing.T) {
	records, err := parseXLSX(buildWorkbook(t, "Sheet1"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(records))
	}
}

func TestSpreadsheetSourceAllURLsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	src := NewSpreadsheetSource(SpreadsheetConfig{URLs: []string{srv.URL}}, nil, zerolog.Nop())
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Error("Expected an error when every URL fails")
	}
}
