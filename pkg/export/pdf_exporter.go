package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// CourseFormLine is one registered course printed on the form.
type CourseFormLine struct {
	Code     string
	Title    string
	Units    int
	Core     bool
	Schedule string
}

// Signatory is an officer block at the foot of the form.
type Signatory struct {
	Role      string
	Name      string
	ImagePath string
}

// CourseForm carries everything printed on a student's course registration form.
type CourseForm struct {
	Institution string
	Semester    string
	Session     string
	FullName    string
	Matric      string
	Department  string
	Level       string
	Status      string
	Courses     []CourseFormLine
	TotalUnits  int
	Signatories []Signatory
}

// PDFExporter renders course forms into A4 PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderCourseForm lays out the student details, the course table and the signature blocks.
func (e *PDFExporter) RenderCourseForm(form CourseForm) ([]byte, error) {
	if form.Matric == "" {
		return nil, fmt.Errorf("course form requires a matric number")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	title := form.Institution
	if title == "" {
		title = "Course Registration Form"
	}
	pdf.CellFormat(0, 8, strings.ToUpper(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("%s Semester %s", form.Semester, form.Session), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	details := [][2]string{
		{"Name", form.FullName},
		{"Matric No.", form.Matric},
		{"Department", form.Department},
		{"Level", form.Level},
		{"Status", strings.ToUpper(form.Status)},
	}
	for _, d := range details {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(35, 6, d[0]+":", "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, d[1], "", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{10, 25, 80, 15, 15, 45}
	headers := []string{"S/N", "Code", "Title", "Units", "Type", "Schedule"}
	pdf.SetFont("Arial", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i, line := range form.Courses {
		kind := "Elective"
		if line.Core {
			kind = "Core"
		}
		cells := []string{strconv.Itoa(i + 1), line.Code, line.Title, strconv.Itoa(line.Units), kind, line.Schedule}
		for j, cell := range cells {
			align := ""
			if j == 0 || j == 3 {
				align = "C"
			}
			pdf.CellFormat(widths[j], 7, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 7, "Total Units", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 7, strconv.Itoa(form.TotalUnits), "1", 0, "C", false, 0, "")
	pdf.CellFormat(widths[4]+widths[5], 7, "", "1", 1, "", false, 0, "")
	pdf.Ln(12)

	blockWidth := 190.0 / 2
	for i, sig := range form.Signatories {
		if i > 0 && i%2 == 0 {
			pdf.Ln(28)
		}
		x := 10 + float64(i%2)*blockWidth
		y := pdf.GetY()
		if sig.ImagePath != "" {
			pdf.ImageOptions(sig.ImagePath, x+10, y, 40, 12, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
		}
		name := sig.Name
		if name == "" {
			name = "___________________"
		}
		pdf.SetXY(x, y+14)
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(blockWidth-10, 5, name, "T", 2, "C", false, 0, "")
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(blockWidth-10, 5, sig.Role, "", 0, "C", false, 0, "")
		pdf.SetXY(10, y)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
