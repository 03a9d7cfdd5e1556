package export

import (
	"io"

	"github.com/gocarina/gocsv"

	"inventory-dashboard/internal/models"
)

// csvRow is the fixed seven-column projection of an item
type csvRow struct {
	Name         string `csv:"Name"`
	StaffID      string `csv:"Staff ID"`
	Department   string `csv:"Department"`
	Model        string `csv:"Model"`
	SerialNumber string `csv:"Serial Number"`
	Status       string `csv:"Status"`
	CreatedDate  string `csv:"Created Date"`
}

// WriteCSV writes a header row and one row per item. Fields containing
// commas, quotes or newlines are quoted.
func WriteCSV(w io.Writer, items []models.InventoryItem) error {
	rows := make([]*csvRow, 0, len(items))
	for _, it := range items {
		created := ""
		if !it.CreatedAt.IsZero() {
			created = it.CreatedAt.Format(dateLayout)
		}
		rows = append(rows, &csvRow{
			Name:         it.FullName(),
			StaffID:      it.StaffID.String(),
			Department:   it.Department,
			Model:        it.Model,
			SerialNumber: it.SerialNumber,
			Status:       string(it.Status),
			CreatedDate:  created,
		})
	}
	return gocsv.Marshal(rows, w)
}
