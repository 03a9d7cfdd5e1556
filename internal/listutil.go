package internal

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"inventory-dashboard/internal/client"
	"inventory-dashboard/internal/inventory"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// listParams holds common query parameters for list endpoints
type listParams struct {
	limit    int
	offset   int
	criteria inventory.Criteria
}

// parseListParams parses limit, offset and the filter criteria (q,
// department, status, range) from the request.
// Defaults: limit=50 (max 200), offset=0, every filter "all"
func parseListParams(r *http.Request) listParams {
	values := r.URL.Query()

	limit := inventory.DefaultLimit
	if s := strings.TrimSpace(values.Get("limit")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			if v > inventory.MaxLimit {
				v = inventory.MaxLimit
			}
			limit = v
		}
	}

	offset := 0
	if s := strings.TrimSpace(values.Get("offset")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	return listParams{
		limit:    limit,
		offset:   offset,
		criteria: inventory.ParseCriteria(values),
	}
}

type listMeta struct {
	Total    int                `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
	Criteria inventory.Criteria `json:"criteria"`
}

type listResponse struct {
	Data interface{} `json:"data"`
	Meta listMeta    `json:"meta"`
}

// sendListResponse writes a page of results with paging metadata
func sendListResponse(w http.ResponseWriter, data interface{}, total int, params listParams) {
	writeJSON(w, http.StatusOK, listResponse{
		Data: data,
		Meta: listMeta{
			Total:    total,
			Limit:    params.limit,
			Offset:   params.offset,
			Criteria: params.criteria,
		},
	})
}

// errorResponse matches the shape the session guard uses
type errorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// sendError maps a controller or form error onto a JSON error response.
// Auth failures have already been answered by the controller's
// OnUnauthorized hook and are not written again.
func sendError(w http.ResponseWriter, err error, form *inventory.Form) {
	switch {
	case errors.Is(err, client.ErrAuth):
		return
	case errors.Is(err, inventory.ErrInvalid) && form != nil:
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "Validation failed",
			Code:   "VALIDATION_ERROR",
			Fields: form.FieldErrors,
		})
	case errors.Is(err, inventory.ErrReadOnly), errors.Is(err, inventory.ErrUnknown):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"})
	default:
		msg := err.Error()
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		writeJSON(w, client.HTTPStatus(err), errorResponse{Error: msg, Code: client.Code(err)})
	}
}
