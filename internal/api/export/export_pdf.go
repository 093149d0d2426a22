package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
)

const (
	pdfMargin     = 15.0
	pdfLineHeight = 6.0
)

// RenderPDF lays the view out as an A4 itinerary: one section per day with
// its items in time order, followed by the cost breakdown.
func RenderPDF(v View) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(v.TripName, true)
	pdf.SetCreator("trip-budget", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, tr(v.TripName), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, pdfLineHeight, tr(fmt.Sprintf("Travel style: %s", v.TravelStyle)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, pdfLineHeight, fmt.Sprintf("Generated %s", v.GeneratedAt.Format("2006-01-02 15:04 MST")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, d := range v.Days {
		pdf.SetFont("Arial", "B", 13)
		pdf.SetFillColor(230, 236, 245)
		pdf.CellFormat(0, 8, tr(d.Title()), "", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		if len(d.Items) == 0 {
			pdf.CellFormat(0, pdfLineHeight, "No items planned.", "", 1, "L", false, 0, "")
		}
		for _, item := range d.Items {
			pdf.CellFormat(22, pdfLineHeight, timeLabel(item.StartTime(), endTime(item)), "", 0, "L", false, 0, "")
			pdf.CellFormat(30, pdfLineHeight, item.Category.Label(), "", 0, "L", false, 0, "")
			pdf.CellFormat(100, pdfLineHeight, tr(itemTitle(item.Name, item.Visits)), "", 0, "L", false, 0, "")
			pdf.CellFormat(0, pdfLineHeight, item.Total().String(), "", 1, "R", false, 0, "")
			if item.Location != nil && item.Location.Address != "" {
				pdf.SetFont("Arial", "I", 8)
				pdf.CellFormat(52, 4, "", "", 0, "L", false, 0, "")
				pdf.MultiCell(0, 4, tr(item.Location.Address), "", "L", false)
				pdf.SetFont("Arial", "", 10)
			}
		}

		pdf.Ln(2)
		pdf.SetFont("Arial", "", 9)
		for _, c := range d.Costs {
			label := c.Category.Label()
			if !c.Included {
				label += " (excluded)"
			}
			pdf.CellFormat(52, 5, "", "", 0, "L", false, 0, "")
			pdf.CellFormat(100, 5, label, "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 5, c.Amount.String(), "", 1, "R", false, 0, "")
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(152, pdfLineHeight, "Day total", "T", 0, "R", false, 0, "")
		pdf.CellFormat(0, pdfLineHeight, d.Total.String(), "T", 1, "R", false, 0, "")
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(152, 9, "Trip total", "TB", 0, "R", false, 0, "")
	pdf.CellFormat(0, 9, v.TripTotal.String(), "TB", 1, "R", false, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to lay out pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func timeLabel(start, end string) string {
	switch {
	case start == "":
		return "-"
	case end == "":
		return start
	}
	return start + "-" + end
}

func itemTitle(name string, visits int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled"
	}
	if visits > 1 {
		return fmt.Sprintf("%s x%d", name, visits)
	}
	return name
}
