package export

import (
	"fmt"
	"io"
	"time"

	"github.com/tealeg/xlsx/v3"

	"inventory-dashboard/internal/models"
)

// Columns are the workbook headers, one per item field. The importer
// accepts them back as-is.
var Columns = []string{
	"_id", "firstName", "lastName", "staffId", "designation",
	"department", "location", "block", "roomNumber",
	"make", "model", "serialNumber", "capacityVA",
	"issueDate", "status", "createdAt", "updatedAt",
}

// WriteXLSX writes every field of every item to a single sheet
func WriteXLSX(w io.Writer, items []models.InventoryItem) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().SetString(col)
	}

	for _, it := range items {
		row := sheet.AddRow()
		for _, v := range []string{
			it.ID, it.FirstName, it.LastName,
		} {
			row.AddCell().SetString(v)
		}
		row.AddCell().SetInt(int(it.StaffID))
		for _, v := range []string{
			it.Designation, it.Department, it.Location, it.Block, it.RoomNumber,
			it.Make, it.Model, it.SerialNumber, it.CapacityVA, it.IssueDate,
			string(it.Status), timestamp(it.CreatedAt), timestamp(it.UpdatedAt),
		} {
			row.AddCell().SetString(v)
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
