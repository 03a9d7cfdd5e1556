package internal

import (
	"bytes"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"inventory-dashboard/internal/client"
	"inventory-dashboard/internal/export"
	"inventory-dashboard/internal/inventory"
	"inventory-dashboard/internal/models"
)

type recentItem struct {
	models.InventoryItem
	Added string `json:"added"`
}

type dashboardResponse struct {
	Summary     inventory.Summary           `json:"summary"`
	StatusData  []inventory.StatusCount     `json:"statusData"`
	Departments []inventory.DepartmentCount `json:"departmentData"`
	Recent      []recentItem                `json:"recentItems"`
}

// dashboard serves the stat cards, charts and recent items. A failed fetch
// other than an auth failure is logged and answered with empty statistics.
func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(w, r)
	if err := ctrl.Load(r.Context()); err != nil {
		if errors.Is(err, client.ErrAuth) {
			return
		}
		s.Logger.Error("dashboard statistics fetch failed", zap.Error(err))
	}

	now := s.now()
	items := ctrl.Items()
	resp := dashboardResponse{
		Summary:     inventory.Summarize(items),
		StatusData:  inventory.StatusCounts(items),
		Departments: inventory.DepartmentCounts(items),
		Recent:      []recentItem{},
	}
	for _, it := range inventory.Recent(items, inventory.DefaultTopN) {
		resp.Recent = append(resp.Recent, recentItem{InventoryItem: it, Added: inventory.RelativeDate(it.CreatedAt, now)})
	}
	writeJSON(w, http.StatusOK, resp)
}

type reportFilters struct {
	Departments []string        `json:"departments"`
	Statuses    []models.Status `json:"statuses"`
	DateRanges  []string        `json:"dateRanges"`
}

type reportResponse struct {
	Criteria         inventory.Criteria          `json:"criteria"`
	Summary          inventory.Summary           `json:"summary"`
	FunctionalPct    float64                     `json:"functionalPct"`
	NonFunctionalPct float64                     `json:"nonFunctionalPct"`
	StatusData       []inventory.StatusCount     `json:"statusData"`
	Departments      []inventory.DepartmentCount `json:"departmentData"`
	MonthlyTrend     []inventory.MonthBucket     `json:"monthlyTrend"`
	TopModels        []inventory.ModelCount      `json:"topModels"`
	Filters          reportFilters               `json:"filters"`
	// ExportQuery carries the criteria onto the export links
	ExportQuery string `json:"exportQuery"`
}

// reportRange is the report page's date range when the query names none
const reportRange = "30"

// reports derives the report page data from the filtered view. The
// monthly trend and the department names cover the full collection.
func (s *Server) reports(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.filtered(w, r)
	if !ok {
		return
	}

	now := s.now()
	all := ctrl.Items()
	view := ctrl.View(now)
	summary := inventory.Summarize(view)
	resp := reportResponse{
		Criteria:      ctrl.Criteria(),
		Summary:       summary,
		FunctionalPct: inventory.Percent(summary.Functional, summary.Total),
		StatusData:    inventory.StatusCounts(view),
		Departments:   inventory.DepartmentBreakdown(all, view),
		MonthlyTrend:  inventory.MonthlyTrend(all, now),
		TopModels:     inventory.TopModels(view, inventory.DefaultTopN),
		Filters: reportFilters{
			Departments: inventory.Departments(all),
			Statuses:    models.Statuses,
			DateRanges:  inventory.DateRanges,
		},
		ExportQuery: ctrl.Criteria().Values().Encode(),
	}
	if summary.Total > 0 {
		resp.NonFunctionalPct = 100 - resp.FunctionalPct
	}
	writeJSON(w, http.StatusOK, resp)
}

// filtered loads the collection and applies the query's criteria, with the
// report page's date range when the query names none
func (s *Server) filtered(w http.ResponseWriter, r *http.Request) (*inventory.Controller, bool) {
	ctrl, ok := s.loaded(w, r)
	if !ok {
		return nil, false
	}
	query := r.URL.Query()
	criteria := inventory.ParseCriteria(query)
	if query.Get("range") == "" {
		criteria.DateRange = reportRange
	}
	ctrl.SetCriteria(criteria)
	return ctrl, true
}

// download renders into a buffer first so a failed render can still be
// reported as an error response
func (s *Server) download(w http.ResponseWriter, contentType, filename string, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.Logger.Error("export failed", zap.String("file", filename), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Export failed", Code: "EXPORT_ERROR"})
		return
	}
	export.SetDownloadHeaders(w, contentType, filename)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.Logger.Warn("export write failed", zap.String("file", filename), zap.Error(err))
	}
}

// exportCSV and exportPDF are the report page downloads
func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.filtered(w, r)
	if !ok {
		return
	}
	now := s.now()
	view := ctrl.View(now)
	s.download(w, export.ContentTypeCSV, export.CSVFilename(now), func(buf *bytes.Buffer) error {
		return export.WriteCSV(buf, view)
	})
}

// exportXLSX writes the whole collection regardless of filters
func (s *Server) exportXLSX(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.loaded(w, r)
	if !ok {
		return
	}
	now := s.now()
	items := ctrl.Items()
	s.download(w, export.ContentTypeXLSX, export.XLSXFilename(now), func(buf *bytes.Buffer) error {
		return export.WriteXLSX(buf, items)
	})
}

func (s *Server) exportPDF(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.filtered(w, r)
	if !ok {
		return
	}
	now := s.now()
	in := export.ReportInput{
		Items:     ctrl.View(now),
		All:       ctrl.Items(),
		Criteria:  ctrl.Criteria(),
		Generated: now,
	}
	s.download(w, export.ContentTypePDF, export.PDFFilename(now), func(buf *bytes.Buffer) error {
		return export.WriteSummaryPDF(buf, in)
	})
}
