// Package report renders analysis results into downloadable PDF reports.
package report

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/avelichko/studycheck/internal/analyzer"
)

// Candidate paths for a Cyrillic-capable TTF font. Helvetica is used when
// none of them exists, in which case Cyrillic text will not render.
var fontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"/Library/Fonts/Arial.ttf",
}

var boldFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
}

type rgb struct{ r, g, b int }

var (
	colorTitle = rgb{0x1e, 0x29, 0x3b}
	colorMuted = rgb{0x64, 0x74, 0x8b}
	colorHead  = rgb{0x33, 0x41, 0x55}
	colorOK    = rgb{0x16, 0xa3, 0x4a}
	colorWarn  = rgb{0xd9, 0x77, 0x06}
	colorErr   = rgb{0xdc, 0x26, 0x26}
)

// Renderer builds PDF reports. It is safe for concurrent use.
type Renderer struct {
	fontBytes     []byte
	boldFontBytes []byte
}

// NewRenderer loads a Cyrillic-capable font once. The font is kept as
// bytes because gofpdf resolves AddUTF8Font paths relative to its own
// font directory, not the filesystem root.
func NewRenderer() *Renderer {
	r := &Renderer{}
	for _, p := range fontPaths {
		if data, err := os.ReadFile(p); err == nil {
			r.fontBytes = data
			break
		}
	}
	for _, p := range boldFontPaths {
		if data, err := os.ReadFile(p); err == nil {
			r.boldFontBytes = data
			break
		}
	}
	if r.boldFontBytes == nil {
		r.boldFontBytes = r.fontBytes
	}
	return r
}

type doc struct {
	pdf    *gofpdf.Fpdf
	family string
	tr     func(string) string
}

func (r *Renderer) newDoc() *doc {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	d := &doc{pdf: pdf, family: "Helvetica", tr: pdf.UnicodeTranslatorFromDescriptor("")}
	if len(r.fontBytes) > 0 {
		pdf.AddUTF8FontFromBytes("report", "", r.fontBytes)
		pdf.AddUTF8FontFromBytes("report", "B", r.boldFontBytes)
		d.family = "report"
		d.tr = func(s string) string { return s }
	}
	pdf.AddPage()
	return d
}

func (d *doc) text(size float64, style string, c rgb, s string) {
	d.pdf.SetFont(d.family, style, size)
	d.pdf.SetTextColor(c.r, c.g, c.b)
	d.pdf.MultiCell(0, size*0.55, d.tr(s), "", "L", false)
}

func (d *doc) heading(s string) {
	d.pdf.Ln(4)
	d.text(12, "B", colorHead, s)
	d.pdf.Ln(1)
}

// Render produces a PDF report for a single analysis result.
func (r *Renderer) Render(res analyzer.AnalysisResult, userFullName string) ([]byte, error) {
	d := r.newDoc()

	d.text(16, "B", colorTitle, "Отчёт об анализе учебной работы")
	d.pdf.Ln(1)
	d.text(11, "", colorMuted, "Студент: "+userFullName)
	d.text(11, "", colorMuted, "Файл: "+res.FileName)
	d.text(11, "", colorMuted, "Дата: "+time.Now().UTC().Format("02.01.2006 15:04")+" UTC")
	d.pdf.Ln(2)
	d.pdf.SetDrawColor(0xe2, 0xe8, 0xf0)
	x, y := d.pdf.GetXY()
	d.pdf.Line(x, y, 190, y)
	d.pdf.Ln(4)

	scoreColor := colorErr
	switch {
	case res.Score >= 80:
		scoreColor = colorOK
	case res.Score >= 60:
		scoreColor = colorWarn
	}
	d.text(24, "B", scoreColor, fmt.Sprintf("Итоговый балл: %d/100", res.Score))
	d.text(10, "", colorTitle, "Тип работы: "+res.WorkType)
	if res.IsValid {
		d.text(10, "", colorOK, "✓ Работа соответствует требованиям")
	} else {
		d.text(10, "", colorErr, "✗ Работа не соответствует требованиям")
	}

	if len(res.SectionsFound) > 0 {
		d.heading("Структура работы")
		for _, sec := range res.SectionsFound {
			switch {
			case sec.Found:
				d.text(10, "", colorOK, "✓ "+sec.Name)
			case sec.Optional:
				d.text(10, "", colorWarn, "○ "+sec.Name+" (необязательный)")
			default:
				d.text(10, "", colorErr, "✗ "+sec.Name)
			}
		}
	}

	d.bulletList("Ошибки", res.Errors, colorErr)
	d.bulletList("Предупреждения", res.Warnings, colorWarn)
	d.bulletList("Рекомендации", res.Recommendations, colorTitle)

	d.heading("Детали проверки")
	det := res.StructureDetails
	d.detailsTable([][2]string{
		{"Обязательных разделов найдено", fmt.Sprintf("%d / %d", det.RequiredSectionsFound, det.TotalRequiredSections)},
		{"Всего разделов проверено", fmt.Sprint(det.TotalSectionsChecked)},
		{"Объём текста (символов)", fmt.Sprint(det.ContentLength)},
		{"Уверенность определения типа", det.DetectionConfidence},
	})

	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (d *doc) bulletList(title string, items []string, c rgb) {
	if len(items) == 0 {
		return
	}
	d.heading(title)
	for _, it := range items {
		d.text(10, "", c, "• "+it)
	}
}

func (d *doc) detailsTable(rows [][2]string) {
	d.pdf.SetDrawColor(0xe2, 0xe8, 0xf0)
	d.pdf.SetFillColor(0xf1, 0xf5, 0xf9)
	d.pdf.SetFont(d.family, "B", 9)
	d.pdf.SetTextColor(colorHead.r, colorHead.g, colorHead.b)
	d.pdf.CellFormat(100, 8, d.tr("Параметр"), "1", 0, "L", true, 0, "")
	d.pdf.CellFormat(60, 8, d.tr("Значение"), "1", 1, "L", true, 0, "")

	d.pdf.SetFont(d.family, "", 9)
	d.pdf.SetTextColor(colorTitle.r, colorTitle.g, colorTitle.b)
	for i, row := range rows {
		fill := i%2 == 1
		d.pdf.SetFillColor(0xf8, 0xfa, 0xfc)
		d.pdf.CellFormat(100, 8, d.tr(row[0]), "1", 0, "L", fill, 0, "")
		d.pdf.CellFormat(60, 8, d.tr(row[1]), "1", 1, "L", fill, 0, "")
	}
}
