package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"inventory-dashboard/internal/inventory"
	"inventory-dashboard/internal/models"
)

// Page geometry in millimetres
const (
	marginX   = 20.0
	pageBreak = 250.0
	pageTop   = 20.0
	lineStep  = 10.0
)

// ReportInput is the filtered view a summary report is drawn from. All is
// the full collection and names the departments; nil means Items.
type ReportInput struct {
	Items     []models.InventoryItem
	All       []models.InventoryItem
	Criteria  inventory.Criteria
	Generated time.Time
}

// Block is one positioned line of report text
type Block struct {
	Page int     `json:"page"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
	Bold bool    `json:"bold"`
	Text string  `json:"text"`
}

// Layout positions the report text. Department and model lines start a new
// page once the running offset passes 250mm, continuing at 20mm.
func Layout(in ReportInput) []Block {
	summary := inventory.Summarize(in.Items)
	functionalPct := inventory.Percent(summary.Functional, summary.Total)
	nonFunctionalPct := 0.0
	if summary.Total > 0 {
		nonFunctionalPct = 100 - functionalPct
	}

	page := 1
	var blocks []Block
	add := func(y, size float64, bold bool, format string, args ...interface{}) {
		blocks = append(blocks, Block{Page: page, X: marginX, Y: y, Size: size, Bold: bold, Text: fmt.Sprintf(format, args...)})
	}

	add(30, 20, true, "INVENTORY SUMMARY REPORT")
	add(45, 12, false, "Generated: %s", in.Generated.Format("2006-01-02 15:04:05"))
	add(55, 12, false, "Filters: %s", filterLine(in.Criteria))

	add(75, 16, true, "SUMMARY")
	add(90, 12, false, "Total Items: %d", summary.Total)
	add(100, 12, false, "Functional: %d (%.1f%%)", summary.Functional, functionalPct)
	add(110, 12, false, "Non-Functional: %d (%.1f%%)", summary.NonFunctional, nonFunctionalPct)

	add(130, 16, true, "DEPARTMENT BREAKDOWN")
	y := 145.0
	all := in.All
	if all == nil {
		all = in.Items
	}
	for _, d := range inventory.DepartmentBreakdown(all, in.Items) {
		if y > pageBreak {
			page++
			y = pageTop
		}
		add(y, 12, false, "%s: %d items (%d functional, %d non-functional)", d.Name, d.Total, d.Functional, d.NonFunctional)
		y += lineStep
	}

	add(y+10, 16, true, "TOP EQUIPMENT MODELS")
	y += 25
	for i, m := range inventory.TopModels(in.Items, inventory.DefaultTopN) {
		if y > pageBreak {
			page++
			y = pageTop
		}
		add(y, 12, false, "%d. %s: %d items", i+1, m.Model, m.Count)
		y += lineStep
	}

	return blocks
}

func filterLine(c inventory.Criteria) string {
	dept, status, days := c.Department, c.Status, "all time"
	if dept == "" {
		dept = inventory.All
	}
	if status == "" {
		status = inventory.All
	}
	if n := c.Days(); n > 0 {
		days = fmt.Sprintf("%d days", n)
	}
	line := fmt.Sprintf("Department=%s, Status=%s, Date Range=%s", dept, status, days)
	if c.Search != "" {
		line += fmt.Sprintf(", Search=%q", c.Search)
	}
	return line
}

// WriteSummaryPDF renders the layout as an A4 document
func WriteSummaryPDF(w io.Writer, in ReportInput) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Inventory Summary Report", true)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	page := 0
	for _, b := range Layout(in) {
		for page < b.Page {
			pdf.AddPage()
			page++
		}
		style := ""
		if b.Bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, b.Size)
		pdf.Text(b.X, b.Y, tr(b.Text))
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
