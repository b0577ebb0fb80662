package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"github.com/yigit/exchangeintake/internal/pkg/eligibility"
	"github.com/yigit/exchangeintake/internal/pkg/httpx"
)

// Workbook formats
const (
	FormatAuto = "auto"
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

const (
	preferredSheet = "Course Mappings"
	codeColumn     = "Ajman Course Code"

	approvedNote    = "This course is approved for credit transfer"
	notApprovedNote = "This course is NOT approved for credit transfer - please consult with your advisor"
)

// ErrNoMappingData is returned when a workbook has no usable course rows
var ErrNoMappingData = errors.New("no course mapping data in workbook")

// mappingRecord is one spreadsheet row, shared by the CSV and XLSX readers
type mappingRecord struct {
	PartnerUniversity string `csv:"Partner University"`
	AjmanCourseCode   string `csv:"Ajman Course Code"`
	AjmanCourseName   string `csv:"Ajman Course Name"`
	PartnerCourseName string `csv:"Partner Course Name"`
	IsApproved        string `csv:"IsApproved"`
	MatchQuality      string `csv:"Match Quality"`
}

// SpreadsheetConfig configures a SpreadsheetSource
type SpreadsheetConfig struct {
	URLs    []string
	Format  string
	Timeout time.Duration
	Retry   httpx.RetryConfig
}

// SpreadsheetSource downloads the course-mapping workbook and maps its rows
type SpreadsheetSource struct {
	cfg    SpreadsheetConfig
	client *http.Client
	logger zerolog.Logger
}

// NewSpreadsheetSource creates a source. A nil client gets one with cfg.Timeout.
func NewSpreadsheetSource(cfg SpreadsheetConfig, client *http.Client, logger zerolog.Logger) *SpreadsheetSource {
	if cfg.Format == "" {
		cfg.Format = FormatAuto
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &SpreadsheetSource{cfg: cfg, client: client, logger: logger}
}

// Name identifies the source in logs
func (s *SpreadsheetSource) Name() string { return "spreadsheet" }

// Fetch tries each configured URL in order and returns the rows of the first
// workbook that downloads and parses.
func (s *SpreadsheetSource) Fetch(ctx context.Context) ([]eligibility.CourseMappingRow, error) {
	if len(s.cfg.URLs) == 0 {
		return nil, errors.New("no spreadsheet URLs configured")
	}

	var lastErr error
	for _, rawURL := range s.cfg.URLs {
		resp, body, err := httpx.DoWithRetry(ctx, s.client, func(ctx context.Context) (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; exchange-intake)")
			req.Header.Set("Accept", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, text/csv")
			return req, nil
		}, s.cfg.Retry)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", rawURL).Msg("Spreadsheet download failed")
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		records, err := s.parse(rawURL, resp.Header.Get("Content-Type"), body)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", rawURL).Msg("Spreadsheet parse failed")
			lastErr = err
			continue
		}

		rows := mapRecords(records)
		if len(rows) == 0 {
			lastErr = ErrNoMappingData
			continue
		}
		return rows, nil
	}
	return nil, fmt.Errorf("spreadsheet fetch failed: %w", lastErr)
}

func (s *SpreadsheetSource) parse(rawURL, contentType string, body []byte) ([]mappingRecord, error) {
	switch detectFormat(s.cfg.Format, rawURL, contentType) {
	case FormatCSV:
		return parseCSV(body)
	default:
		return parseXLSX(body)
	}
}

func detectFormat(configured, rawURL, contentType string) string {
	if configured == FormatCSV || configured == FormatXLSX {
		return configured
	}
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "csv") || strings.HasPrefix(ct, "text/plain") {
		return FormatCSV
	}
	if u, err := url.Parse(rawURL); err == nil && strings.EqualFold(path.Ext(u.Path), ".csv") {
		return FormatCSV
	}
	return FormatXLSX
}

// parseCSV reads mapping records from a CSV export of the workbook
func parseCSV(body []byte) ([]mappingRecord, error) {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	var records []mappingRecord
	if err := gocsv.UnmarshalCSV(gocsv.LazyCSVReader(bytes.NewReader(body)), &records); err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return records, nil
}

// parseXLSX reads mapping records from the "Course Mappings" sheet, or from
// the first sheet whose header carries the course code column.
func parseXLSX(body []byte) ([]mappingRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	ordered := make([]string, 0, len(sheets))
	for _, name := range sheets {
		if name == preferredSheet {
			ordered = append([]string{name}, ordered...)
			continue
		}
		ordered = append(ordered, name)
	}

	for _, name := range ordered {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		if len(rows) < 2 {
			continue
		}
		header := indexHeader(rows[0])
		if _, ok := header[codeColumn]; !ok {
			if _, ok := header["IsApproved"]; !ok {
				continue
			}
		}
		records := make([]mappingRecord, 0, len(rows)-1)
		for _, row := range rows[1:] {
			records = append(records, recordFromCells(header, row))
		}
		return records, nil
	}
	return nil, ErrNoMappingData
}

func indexHeader(cells []string) map[string]int {
	out := make(map[string]int, len(cells))
	for i, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := out[c]; !dup {
			out[c] = i
		}
	}
	return out
}

func recordFromCells(header map[string]int, cells []string) mappingRecord {
	cell := func(name string) string {
		i, ok := header[name]
		if !ok || i >= len(cells) {
			return ""
		}
		return cells[i]
	}
	return mappingRecord{
		PartnerUniversity: cell("Partner University"),
		AjmanCourseCode:   cell(codeColumn),
		AjmanCourseName:   cell("Ajman Course Name"),
		PartnerCourseName: cell("Partner Course Name"),
		IsApproved:        cell("IsApproved"),
		MatchQuality:      cell("Match Quality"),
	}
}

// mapRecords converts spreadsheet records to catalog rows, dropping rows without a course code
func mapRecords(records []mappingRecord) []eligibility.CourseMappingRow {
	rows := make([]eligibility.CourseMappingRow, 0, len(records))
	for _, rec := range records {
		code := strings.TrimSpace(rec.AjmanCourseCode)
		if code == "" {
			continue
		}
		university := strings.TrimSpace(rec.PartnerUniversity)

		title := strings.TrimSpace(rec.PartnerCourseName)
		if title == "" {
			title = strings.TrimSpace(rec.AjmanCourseName)
		}
		if title == "" {
			title = code + " - Course"
		}

		row := eligibility.CourseMappingRow{
			Country:         DetectCountry(university),
			University:      university,
			HomeCourseCode:  code,
			HostCourseTitle: title,
			Status:          "NotApproved",
			Notes:           note(notApprovedNote),
		}
		if isApproved(rec) {
			row.Status = "Approved"
			row.Notes = note(approvedNote)
		}
		rows = append(rows, row)
	}
	return rows
}

// isApproved reads the IsApproved column, falling back to Match Quality when it is blank
func isApproved(rec mappingRecord) bool {
	if v := strings.ToUpper(strings.TrimSpace(rec.IsApproved)); v != "" {
		return v == "YES" || v == "Y"
	}
	q := strings.ToLower(strings.TrimSpace(rec.MatchQuality))
	return q == "excellent" || q == "good"
}

var countryKeywords = []struct {
	country  string
	keywords []string
}{
	{"USA", []string{"south carolina", "west alabama", "california", "colorado", "csu", "dominguez"}},
	{"Canada", []string{"toronto", "mcgill"}},
	{"Spain", []string{"madrid", "barcelona", "esade", "ie university"}},
	{"Japan", []string{"tokyo", "keio", "waseda"}},
}

// DetectCountry guesses a partner's country from its name, "Other" when nothing matches
func DetectCountry(university string) string {
	name := strings.ToLower(university)
	for _, entry := range countryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(name, kw) {
				return entry.country
			}
		}
	}
	return "Other"
}
