// Package export renders the filtered inventory view as downloadable files.
package export

import (
	"fmt"
	"net/http"
	"time"
)

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"

	// SheetName is the single worksheet written by WriteXLSX
	SheetName = "Inventory"
)

const dateLayout = "2006-01-02"

func CSVFilename(now time.Time) string {
	return fmt.Sprintf("inventory-report-%s.csv", now.Format(dateLayout))
}

func XLSXFilename(now time.Time) string {
	return fmt.Sprintf("inventory-%s.xlsx", now.Format(dateLayout))
}

func PDFFilename(now time.Time) string {
	return fmt.Sprintf("inventory-summary-%s.pdf", now.Format(dateLayout))
}

// SetDownloadHeaders marks the response as a file attachment
func SetDownloadHeaders(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
