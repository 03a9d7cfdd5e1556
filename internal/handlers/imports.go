// Package handlers holds HTTP handlers that sit outside the core item routes.
package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"inventory-dashboard/internal/client"
	"inventory-dashboard/internal/inventory"
	"inventory-dashboard/pkg/importer"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ImportsHandler handles Excel import operations
type ImportsHandler struct {
	// Source returns the collection bound to the requesting user's session
	Source func(r *http.Request) inventory.Source
	// Unauthorized ends the session when the API rejects the token
	Unauthorized func(w http.ResponseWriter, r *http.Request)
	Logger       *zap.Logger
	MaxBytes     int64
	DefaultMap   string
}

// NewImportsHandler creates a new imports handler
func NewImportsHandler(source func(*http.Request) inventory.Source, unauthorized func(http.ResponseWriter, *http.Request), defaultMap string, logger *zap.Logger) *ImportsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportsHandler{
		Source:       source,
		Unauthorized: unauthorized,
		Logger:       logger,
		MaxBytes:     20 << 20, // 20 MB
		DefaultMap:   defaultMap,
	}
}

// UploadExcel bulk-creates items from an uploaded workbook
func (h *ImportsHandler) UploadExcel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		http.Error(w, "content-type must be multipart/form-data", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	dryRun := r.FormValue("dry_run") == "true"
	maxErrors := 50
	if v := r.FormValue("max_errors"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxErrors = n
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !isXLSX(header) {
		http.Error(w, "only .xlsx files are accepted", http.StatusBadRequest)
		return
	}

	// the mapping comes from server config only; load errors name local paths
	mapping, err := importer.LoadMapping(h.DefaultMap)
	if err != nil {
		h.Logger.Error("import mapping unavailable", zap.String("path", h.DefaultMap), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "IMPORT_MAPPING_UNAVAILABLE",
		})
		return
	}

	sum, impErr := importer.Import(r.Context(), h.Source(r), file, importer.ImportOptions{
		Mapping:   mapping,
		DryRun:    dryRun,
		MaxErrors: maxErrors,
	})
	if impErr != nil {
		if errors.Is(impErr, client.ErrAuth) && h.Unauthorized != nil {
			h.Unauthorized(w, r)
			return
		}
		h.Logger.Warn("workbook import failed",
			zap.String("file", header.Filename),
			zap.Bool("dry_run", dryRun),
			zap.Error(impErr),
		)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "IMPORT_FAILED",
			"details": impErr.Error(),
			"data":    sum,
		})
		return
	}

	h.Logger.Info("workbook imported",
		zap.String("file", header.Filename),
		zap.Int("inserted", sum.Inserted),
		zap.Int("updated", sum.Updated),
		zap.Int("errors", sum.Errors),
		zap.Bool("dry_run", dryRun),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"data": sum,
		"meta": map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   "1.0.0",
		},
	})
}

// isXLSX checks if the uploaded file is an Excel .xlsx file
func isXLSX(h *multipart.FileHeader) bool {
	return strings.HasSuffix(strings.ToLower(h.Filename), ".xlsx")
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
