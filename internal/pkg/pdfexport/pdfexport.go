// Package pdfexport renders an exchange application as a printable A4 document.
package pdfexport

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/yigit/exchangeintake/internal/app/models"
	"github.com/yigit/exchangeintake/internal/pkg/eligibility"
)

// DefaultOffice is printed when Options.Office is empty
const DefaultOffice = "Office of International Academic Affairs"

const (
	pageWidth   = 210.0
	marginLeft  = 14.0
	contentW    = pageWidth - 2*marginLeft
	labelWidth  = 40.0
	pageBreakAt = 240.0
)

type rgb struct{ r, g, b int }

var (
	colorInk    = rgb{17, 17, 17}
	colorMuted  = rgb{107, 114, 128}
	colorBody   = rgb{55, 65, 81}
	colorFaint  = rgb{156, 163, 175}
	colorStripe = rgb{245, 245, 245}

	statusColors = map[eligibility.CourseStatus]rgb{
		eligibility.CourseApproved:    {16, 185, 129},
		eligibility.CourseConditional: {245, 158, 11},
		eligibility.CoursePending:     {59, 130, 246},
		eligibility.CourseMissing:     colorFaint,
	}
	statusLabels = map[eligibility.CourseStatus]string{
		eligibility.CourseApproved:    "Approved",
		eligibility.CourseConditional: "Conditional",
		eligibility.CoursePending:     "Pending",
		eligibility.CourseMissing:     "Missing",
	}
)

// Options controls the header and footer text
type Options struct {
	Office      string
	Institution string
	OfficeEmail string
}

// Renderer turns applications into PDF bytes
type Renderer struct {
	opts Options
}

// NewRenderer creates a renderer
func NewRenderer(opts Options) *Renderer {
	if opts.Office == "" {
		opts.Office = DefaultOffice
	}
	return &Renderer{opts: opts}
}

// Filename is the attachment name used for an application
func Filename(app *models.Application) string {
	return fmt.Sprintf("Application_%s.pdf", app.ID)
}

// Render produces the PDF for app
func (r *Renderer) Render(app *models.Application) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(marginLeft, 20, marginLeft)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 8)
		setText(pdf, colorFaint)
		pdf.CellFormat(0, 4, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 1, "C", false, 0, "")
		footer := r.opts.Office
		if r.opts.OfficeEmail != "" {
			footer += " | " + r.opts.OfficeEmail
		}
		pdf.CellFormat(0, 4, tr(footer), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	r.header(pdf, tr, app)

	section(pdf, "Student Information")
	keyValues(pdf, tr, [][2]string{
		{"Name", app.StudentName},
		{"Student ID", app.StudentID},
		{"Email", app.StudentEmail},
		{"Nationality", app.StudentNationality},
		{"College", app.StudentCollege},
		{"Major", app.StudentMajor},
		{"CGPA", app.StudentCGPA},
	})

	if app.PersonalStatement != nil && *app.PersonalStatement != "" {
		pdf.Ln(4)
		section(pdf, "Personal Statement")
		pdf.SetFont("Helvetica", "", 10)
		setText(pdf, colorBody)
		pdf.MultiCell(contentW, 5, tr(*app.PersonalStatement), "", "L", false)
	}

	pdf.Ln(4)
	breakIfLow(pdf)
	section(pdf, "Exchange Destination")
	keyValues(pdf, tr, [][2]string{
		{"University", app.University},
		{"Country", app.Country},
	})

	pdf.Ln(4)
	breakIfLow(pdf)
	section(pdf, "Course Mapping")
	courseTable(pdf, tr, app.Courses)

	pdf.Ln(6)
	breakIfLow(pdf)
	section(pdf, "Summary")
	counts := tally(app.Courses)
	keyValues(pdf, tr, [][2]string{
		{"Approved", strconv.Itoa(counts[eligibility.CourseApproved])},
		{"Conditional", strconv.Itoa(counts[eligibility.CourseConditional])},
		{"Pending", strconv.Itoa(counts[eligibility.CoursePending])},
		{"Missing", strconv.Itoa(counts[eligibility.CourseMissing])},
	})

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render application pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) header(pdf *fpdf.Fpdf, tr func(string) string, app *models.Application) {
	pdf.SetFillColor(colorInk.r, colorInk.g, colorInk.b)
	pdf.Rect(0, 0, pageWidth, 35, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(0, 9)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(pageWidth, 8, "Exchange Application", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetX(0)
	pdf.CellFormat(pageWidth, 6, tr(r.opts.Office), "", 1, "C", false, 0, "")
	if r.opts.Institution != "" {
		pdf.SetX(0)
		pdf.CellFormat(pageWidth, 6, tr(r.opts.Institution), "", 1, "C", false, 0, "")
	}

	pdf.SetXY(marginLeft, 41)
	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, colorMuted)
	pdf.CellFormat(0, 6, "Application ID: "+app.ID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Submitted: "+app.SubmittedAt.Format("2 January 2006"), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	setText(pdf, colorInk)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
}

func keyValues(pdf *fpdf.Fpdf, tr func(string) string, rows [][2]string) {
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		setText(pdf, colorMuted)
		pdf.CellFormat(labelWidth, 7, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		setText(pdf, colorInk)
		pdf.CellFormat(contentW-labelWidth, 7, fit(pdf, tr(row[1]), contentW-labelWidth), "", 1, "L", false, 0, "")
	}
}

func courseTable(pdf *fpdf.Fpdf, tr func(string) string, courses []models.CourseEvaluation) {
	widths := []float64{10, 35, 97, 40}
	headers := []string{"#", "Course Code", "Host Course", "Status"}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(colorInk.r, colorInk.g, colorInk.b)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		align := "L"
		if i == 0 || i == 3 {
			align = "C"
		}
		pdf.CellFormat(widths[i], 8, h, "", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	for i, c := range courses {
		fill := i%2 == 1
		pdf.SetFillColor(colorStripe.r, colorStripe.g, colorStripe.b)

		pdf.SetFont("Helvetica", "", 9)
		setText(pdf, colorInk)
		pdf.CellFormat(widths[0], 7, strconv.Itoa(i+1), "", 0, "C", fill, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(widths[1], 7, fit(pdf, tr(c.Code), widths[1]), "", 0, "L", fill, 0, "")

		title := c.HostCourseTitle
		if title == "" {
			title = "-"
		}
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(widths[2], 7, fit(pdf, tr(title), widths[2]), "", 0, "L", fill, 0, "")

		label, ok := statusLabels[c.Status]
		if !ok {
			label = statusLabels[eligibility.CourseMissing]
		}
		color, ok := statusColors[c.Status]
		if !ok {
			color = colorFaint
		}
		style := ""
		if c.Status == eligibility.CourseApproved || c.Status == eligibility.CourseConditional {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		setText(pdf, color)
		pdf.CellFormat(widths[3], 7, label, "", 1, "C", fill, 0, "")
	}
}

func tally(courses []models.CourseEvaluation) map[eligibility.CourseStatus]int {
	counts := map[eligibility.CourseStatus]int{}
	for _, c := range courses {
		counts[c.Status]++
	}
	return counts
}

func breakIfLow(pdf *fpdf.Fpdf) {
	if pdf.GetY() > pageBreakAt {
		pdf.AddPage()
	}
}

func setText(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetTextColor(c.r, c.g, c.b)
}

// fit shortens s with an ellipsis so it fits in width w at the current font
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	limit := w - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
