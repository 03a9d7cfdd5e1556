package internal

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"

	"inventory-dashboard/internal/inventory"
	"inventory-dashboard/internal/models"
)

// ignoredFields are server-assigned and never applied from a request body
var ignoredFields = map[string]bool{"_id": true, "createdAt": true, "updatedAt": true}

// LIST with filters & pagination over the cached collection
func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	ctrl, ok := s.loaded(w, r)
	if !ok {
		return
	}

	ctrl.SetCriteria(params.criteria)
	page, total := ctrl.Page(s.now(), params.limit, params.offset)
	sendListResponse(w, page, total, params)
}

// listDepartments feeds the department drop-down
func (s *Server) listDepartments(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.loaded(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"departments": inventory.Departments(ctrl.Items()),
		"statuses":    models.Statuses,
		"dateRanges":  inventory.DateRanges,
	})
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.loaded(w, r)
	if !ok {
		return
	}
	it, found := ctrl.Find(chi.URLParam(r, "id"))
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Product not found", Code: "NOT_FOUND"})
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// decodeFields reads a JSON object and renders every value as the text a
// user would have typed into the form
func decodeFields(r *http.Request) (map[string]string, error) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(body))
	for k, v := range body {
		if ignoredFields[k] || v == nil {
			continue
		}
		fields[k] = cast.ToString(v)
	}
	return fields, nil
}

// fill copies fields into the open form. A serial number equal to the
// current one is accepted while editing.
func fill(f *inventory.Form, fields map[string]string) error {
	for name, v := range fields {
		if f.State == inventory.Editing && name == "serialNumber" && v == f.Values.SerialNumber {
			continue
		}
		if err := f.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON", Code: "INVALID_BODY"})
		return
	}

	form := &inventory.Form{}
	form.OpenCreate()
	if err := fill(form, fields); err != nil {
		sendError(w, err, form)
		return
	}

	created, err := form.Submit(r.Context(), s.controller(w, r))
	if err != nil {
		sendError(w, err, form)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fields, err := decodeFields(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON", Code: "INVALID_BODY"})
		return
	}

	ctrl, ok := s.loaded(w, r)
	if !ok {
		return
	}
	current, found := ctrl.Find(id)
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Product not found", Code: "NOT_FOUND"})
		return
	}

	form := &inventory.Form{}
	form.OpenEdit(current)
	if err := fill(form, fields); err != nil {
		sendError(w, err, form)
		return
	}

	updated, err := form.Submit(r.Context(), ctrl)
	if err != nil {
		sendError(w, err, form)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.controller(w, r).Delete(r.Context(), id); err != nil {
		sendError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
