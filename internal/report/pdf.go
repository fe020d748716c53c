package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const qrImageName = "source-digest"

// SavePDF renders the report as a one page header sheet. The source
// digest is printed and drawn as a QR code in the top right corner.
func SavePDF(rep Report, out string, lang Language) error {
	labels, err := NewLabels(lang)
	if err != nil {
		return err
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(labels.T("title"), true)
	pdf.SetAuthor("mwfctl", false)
	pdf.SetCreator("mwfctl", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if rep.SourceSHA256 != "" {
		png, err := DigestToQR(rep.SourceSHA256, 256)
		if err != nil {
			return err
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(qrImageName, opts, bytes.NewReader(png))
		pageW, _ := pdf.GetPageSize()
		_, _, right, _ := pdf.GetMargins()
		pdf.ImageOptions(qrImageName, pageW-right-30, 12, 30, 30, false, opts, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr(labels.T("title")))
	pdf.Ln(14)

	h := rep.Header
	addSection(pdf, tr, labels.T("section.recording"), [][2]string{
		{labels.T("label.source"), rep.Source},
		{labels.T("label.sha256"), rep.SourceSHA256},
		{labels.T("label.generated"), rep.GeneratedAt.Format(time.RFC3339)},
		{labels.T("label.preamble"), h.Preamble},
		{labels.T("label.byteOrder"), h.ByteOrder},
		{labels.T("label.model"), h.ModelInfo},
		{labels.T("label.measured"), h.MeasurementTime},
		{labels.T("label.interval"), h.SamplingInterval},
		{labels.T("label.sequences"), strconv.Itoa(h.SequenceCount)},
		{labels.T("label.duration"), labels.Format("duration.seconds", rep.DurationSeconds)},
	}, labels.T("empty"))
	addSection(pdf, tr, labels.T("section.patient"), [][2]string{
		{labels.T("label.patientId"), h.PatientID},
		{labels.T("label.patientName"), h.PatientName},
		{labels.T("label.birthDate"), h.BirthDate},
		{labels.T("label.sex"), h.Sex},
	}, labels.T("empty"))

	addHeading(pdf, tr, labels.T("section.channels"))
	widths := []float64{10, 50, 25, 20, 75}
	renderHeaderRow(pdf, tr, widths, []string{
		labels.T("col.index"), labels.T("col.name"), labels.T("col.type"), labels.T("col.block"), labels.T("col.sensitivity"),
	})
	pdf.SetFont("Helvetica", "", 9)
	for _, ch := range h.Channels {
		renderTableRow(pdf, tr, widths, []string{
			strconv.Itoa(ch.Index), ch.Name, ch.DataType, strconv.Itoa(ch.BlockLength), ch.Sensitivity,
		}, 5)
	}
	pdf.Ln(4)

	addHeading(pdf, tr, labels.T("section.events"))
	if len(rep.Events) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(labels.T("events.none")), "", "L", false)
	} else {
		widths = []float64{20, 35, 25, 100}
		renderHeaderRow(pdf, tr, widths, []string{
			labels.T("col.code"), labels.T("col.start"), labels.T("col.duration"), labels.T("col.info"),
		})
		pdf.SetFont("Helvetica", "", 9)
		for _, ev := range rep.Events {
			renderTableRow(pdf, tr, widths, []string{
				fmt.Sprintf("0x%04X", ev.Code),
				strconv.FormatFloat(ev.StartSec, 'f', -1, 64) + " s",
				strconv.Itoa(int(ev.Duration)),
				ev.Info,
			}, 5)
		}
	}

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

func addHeading(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, tr(title))
	pdf.Ln(9)
}

func addSection(pdf *gofpdf.Fpdf, tr func(string) string, title string, items [][2]string, blank string) {
	addHeading(pdf, tr, title)
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.CellFormat(45, 6, tr(item[0]), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(emptyFallback(item[1], blank)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func renderHeaderRow(pdf *gofpdf.Fpdf, tr func(string) string, widths []float64, headers []string) {
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func renderTableRow(pdf *gofpdf.Fpdf, tr func(string) string, widths []float64, values []string, lineHeight float64) {
	xStart := pdf.GetX()
	yStart := pdf.GetY()
	maxLines := 1
	cols := make([][]string, len(values))
	for i, val := range values {
		lines := pdf.SplitText(tr(emptyFallback(val, "-")), widths[i]-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		cols[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	x := xStart
	for i, lines := range cols {
		pdf.SetXY(x, yStart)
		pdf.MultiCell(widths[i], lineHeight, strings.Join(lines, "\n"), "1", "L", false)
		x += widths[i]
	}
	pdf.SetXY(xStart, yStart+float64(maxLines)*lineHeight)
}

func emptyFallback(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
