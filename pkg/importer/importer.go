// Package importer bulk-loads inventory items from an .xlsx workbook.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/tealeg/xlsx/v3"
	"gopkg.in/yaml.v3"

	"inventory-dashboard/internal/client"
	"inventory-dashboard/internal/inventory"
	"inventory-dashboard/internal/models"
)

const maxSamples = 20

// Destination receives the imported items. inventory.Source satisfies it.
type Destination interface {
	List(ctx context.Context) ([]models.InventoryItem, error)
	Create(ctx context.Context, in models.ItemInput) (*models.InventoryItem, error)
	Update(ctx context.Context, id string, in models.ItemInput) (*models.InventoryItem, error)
}

// ImportOptions defines the configuration for Excel import operations
type ImportOptions struct {
	Mapping     *Mapping // takes precedence over MappingPath
	MappingPath string   // empty uses DefaultMapping
	DryRun      bool
	MaxErrors   int // default 50
}

// RowError represents an error that occurred during row processing
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SheetSummary contains the import statistics for a single sheet
type SheetSummary struct {
	Name     string     `json:"name"`
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Skipped  int        `json:"skipped"`
	Errors   int        `json:"errors"`
	Samples  []RowError `json:"error_samples,omitempty"`
}

// ImportSummary contains the overall import statistics
type ImportSummary struct {
	Inserted int            `json:"inserted"`
	Updated  int            `json:"updated"`
	Skipped  int            `json:"skipped"`
	Errors   int            `json:"errors"`
	Sheets   []SheetSummary `json:"sheets"`
	DryRun   bool           `json:"dry_run"`
}

// Mapping tells the importer which sheets to read and how headers map to
// item fields.
type Mapping struct {
	Version int `yaml:"version"`
	// Sheets to import; empty imports every sheet
	Sheets []string `yaml:"sheets"`
	// Aliases maps an item field (JSON name) to accepted header texts
	Aliases map[string][]string `yaml:"aliases"`
	// Defaults fill empty cells
	Defaults map[string]string `yaml:"defaults"`
}

// DefaultMapping accepts the exported column names and common variants
func DefaultMapping() *Mapping {
	return &Mapping{
		Version: 1,
		Aliases: map[string][]string{
			"firstName":    {"First Name"},
			"lastName":     {"Last Name", "Surname"},
			"staffId":      {"Staff ID", "Staff No"},
			"designation":  {"Designation", "Title"},
			"department":   {"Department", "Dept"},
			"location":     {"Location"},
			"block":        {"Block"},
			"roomNumber":   {"Room Number", "Room"},
			"make":         {"Make", "Manufacturer"},
			"model":        {"Model"},
			"serialNumber": {"Serial Number", "Serial", "S/N"},
			"capacityVA":   {"Capacity", "Capacity (VA)", "VA"},
			"issueDate":    {"Issue Date", "Issued"},
			"status":       {"Status"},
		},
		Defaults: map[string]string{
			"status": string(models.StatusFunctional),
		},
	}
}

// LoadMapping reads a YAML mapping and merges it over DefaultMapping
func LoadMapping(path string) (*Mapping, error) {
	m := DefaultMapping()
	if path == "" {
		return m, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file Mapping
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if file.Version != 0 {
		m.Version = file.Version
	}
	m.Sheets = file.Sheets
	for field, aliases := range file.Aliases {
		m.Aliases[field] = append(m.Aliases[field], aliases...)
	}
	for field, v := range file.Defaults {
		m.Defaults[field] = v
	}
	return m, nil
}

// resolve maps an upper-cased header to a field name
func (m *Mapping) resolve(header string) (string, bool) {
	h := strings.ToUpper(strings.TrimSpace(header))
	for field, aliases := range m.Aliases {
		if strings.ToUpper(field) == h {
			return field, true
		}
		for _, alias := range aliases {
			if strings.ToUpper(alias) == h {
				return field, true
			}
		}
	}
	return "", false
}

func (m *Mapping) wants(sheet string) bool {
	if len(m.Sheets) == 0 {
		return true
	}
	for _, s := range m.Sheets {
		if strings.EqualFold(s, sheet) {
			return true
		}
	}
	return false
}

// Import reads every mapped sheet and creates or updates one item per row.
// Rows whose serial number matches an existing item update it.
func Import(ctx context.Context, dst Destination, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{
		DryRun: opts.DryRun,
		Sheets: []SheetSummary{},
	}

	if opts.MaxErrors == 0 {
		opts.MaxErrors = 50
	}

	mapping := opts.Mapping
	if mapping == nil {
		var err error
		if mapping, err = LoadMapping(opts.MappingPath); err != nil {
			return summary, fmt.Errorf("failed to load mapping config: %w", err)
		}
	}

	// xlsx needs random access
	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("failed to read Excel file: %w", err)
	}
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("failed to open Excel file: %w", err)
	}

	existing, err := dst.List(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list existing items: %w", err)
	}
	bySerial := make(map[string]models.InventoryItem, len(existing))
	for _, it := range existing {
		bySerial[strings.ToUpper(it.SerialNumber)] = it
	}

	p := &processor{dst: dst, mapping: mapping, opts: opts, bySerial: bySerial}
	for _, sheet := range xlFile.Sheets {
		if !mapping.wants(sheet.Name) {
			continue
		}

		sheetSummary, err := p.sheet(ctx, sheet)
		summary.Sheets = append(summary.Sheets, sheetSummary)
		summary.Inserted += sheetSummary.Inserted
		summary.Updated += sheetSummary.Updated
		summary.Skipped += sheetSummary.Skipped
		summary.Errors += sheetSummary.Errors
		if err != nil {
			return summary, err
		}

		if summary.Errors > opts.MaxErrors {
			return summary, fmt.Errorf("too many errors (%d), stopping import", summary.Errors)
		}
	}

	return summary, nil
}

type processor struct {
	dst      Destination
	mapping  *Mapping
	opts     ImportOptions
	bySerial map[string]models.InventoryItem
}

func (p *processor) sheet(ctx context.Context, sheet *xlsx.Sheet) (SheetSummary, error) {
	summary := SheetSummary{Name: sheet.Name}
	fail := func(row int, format string, args ...interface{}) {
		summary.Errors++
		if len(summary.Samples) < maxSamples {
			summary.Samples = append(summary.Samples, RowError{Sheet: sheet.Name, Row: row, Message: fmt.Sprintf(format, args...)})
		}
	}

	if sheet.MaxRow == 0 {
		return summary, nil
	}

	columns := make(map[int]string)
	for c := 0; c < sheet.MaxCol; c++ {
		cell, err := sheet.Cell(0, c)
		if err != nil {
			fail(1, "Failed to read header row: %v", err)
			return summary, nil
		}
		if field, ok := p.mapping.resolve(cell.String()); ok {
			columns[c] = field
		}
	}
	if len(columns) == 0 {
		fail(1, "no recognised columns in header row")
		return summary, nil
	}

	for r := 1; r < sheet.MaxRow; r++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		rowNum := r + 1

		values := make(map[string]string)
		for c, field := range columns {
			cell, err := sheet.Cell(r, c)
			if err != nil {
				continue
			}
			if v := cellValue(cell); v != "" {
				values[field] = v
			}
		}
		if len(values) == 0 {
			summary.Skipped++
			continue
		}
		for field, v := range p.mapping.Defaults {
			if _, ok := values[field]; !ok {
				values[field] = v
			}
		}

		saved, updated, err := p.row(ctx, values)
		if err != nil {
			fail(rowNum, "%v", err)
			if errors.Is(err, client.ErrAuth) {
				// the session is gone; later rows would fail the same way
				return summary, err
			}
			continue
		}
		if saved != nil {
			p.bySerial[strings.ToUpper(saved.SerialNumber)] = *saved
		}
		if updated {
			summary.Updated++
		} else {
			summary.Inserted++
		}
	}
	return summary, nil
}

// row validates one row and saves it unless this is a dry run
func (p *processor) row(ctx context.Context, values map[string]string) (*models.InventoryItem, bool, error) {
	if v, ok := values["staffId"]; ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return nil, false, fmt.Errorf("staffId %q is not a number", v)
		}
		values["staffId"] = cast.ToString(n)
	}
	if v, ok := values["status"]; ok {
		s, err := models.ParseStatus(v)
		if err != nil {
			return nil, false, err
		}
		values["status"] = string(s)
	}

	form := &inventory.Form{}
	existing, update := p.bySerial[strings.ToUpper(values["serialNumber"])]
	if update && values["serialNumber"] != "" {
		form.OpenEdit(existing)
	} else {
		update = false
		form.OpenCreate()
	}
	for field, v := range values {
		if update && field == "serialNumber" {
			continue
		}
		if err := form.Set(field, v); err != nil {
			return nil, false, err
		}
	}

	if err := form.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %s", err, fieldList(form.FieldErrors))
	}
	if p.opts.DryRun {
		return nil, update, nil
	}
	saved, err := form.Submit(ctx, p.dst)
	return saved, update, err
}

// cellValue renders dates as YYYY-MM-DD and everything else as text
func cellValue(cell *xlsx.Cell) string {
	if cell.IsTime() {
		if t, err := cell.GetTime(false); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return strings.TrimSpace(cell.String())
}

func fieldList(errs map[string]string) string {
	parts := make([]string, 0, len(errs))
	for _, f := range sortedKeys(errs) {
		parts = append(parts, f+": "+errs[f])
	}
	return strings.Join(parts, "; ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
