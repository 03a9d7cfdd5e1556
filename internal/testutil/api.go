// Package testutil provides an in-process stand-in for the products API.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"inventory-dashboard/internal/models"
)

// Fake credentials accepted by FakeAPI
const (
	Username = "admin"
	Password = "secret"
	Token    = "fake-token"
)

// FakeAPI emulates the products REST API over httptest
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	items    []models.InventoryItem
	nextID   int
	requests []string
	// FailNext, when non-zero, answers the next products call with that status
	FailNext int
	// Now stamps createdAt/updatedAt
	Now func() time.Time
}

// NewFakeAPI starts a fake API seeded with items. It is closed with the test.
func NewFakeAPI(t testing.TB, items ...models.InventoryItem) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		items:  append([]models.InventoryItem(nil), items...),
		nextID: len(items) + 1,
		Now:    time.Now,
	}

	r := chi.NewRouter()
	r.Post("/api/auth/login", f.login)
	r.Group(func(r chi.Router) {
		r.Use(f.requireToken)
		r.Get("/api/products", f.list)
		r.Post("/api/products", f.create)
		r.Put("/api/products/{id}", f.update)
		r.Delete("/api/products/{id}", f.delete)
	})

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the base URL of the fake
func (f *FakeAPI) URL() string {
	return f.Server.URL
}

// Items returns a copy of the server-side collection
func (f *FakeAPI) Items() []models.InventoryItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.InventoryItem(nil), f.items...)
}

// Requests returns "METHOD path" for every request received
func (f *FakeAPI) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// Fail makes the next products call answer with status
func (f *FakeAPI) Fail(status int) {
	f.mu.Lock()
	f.FailNext = status
	f.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	f.record(r)
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Message: "invalid body"})
		return
	}
	if req.Username != Username || req.Password != Password {
		writeJSON(w, http.StatusUnauthorized, models.MessageResponse{Message: "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token: Token,
		User:  models.User{ID: "1", Username: Username, Name: "Administrator", Role: "admin"},
	})
}

func (f *FakeAPI) record(r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.mu.Unlock()
}

func (f *FakeAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if r.Header.Get("Authorization") != "Bearer "+Token {
			writeJSON(w, http.StatusUnauthorized, models.MessageResponse{Message: "Unauthorized"})
			return
		}
		f.mu.Lock()
		status := f.FailNext
		f.FailNext = 0
		f.mu.Unlock()
		if status != 0 {
			writeJSON(w, status, models.MessageResponse{Message: http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ProductsEnvelope{Products: f.Items()})
}

func validate(in models.ItemInput) string {
	missing := []string{}
	if in.StaffID == nil {
		missing = append(missing, "staffId")
	}
	for name, v := range map[string]string{
		"firstName":    in.FirstName,
		"lastName":     in.LastName,
		"department":   in.Department,
		"model":        in.Model,
		"serialNumber": in.SerialNumber,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if !in.Status.Valid() {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return "invalid fields: " + strings.Join(missing, ", ")
	}
	return ""
}

func (f *FakeAPI) create(w http.ResponseWriter, r *http.Request) {
	var in models.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Message: "invalid body"})
		return
	}
	if msg := validate(in); msg != "" {
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Message: msg})
		return
	}

	f.mu.Lock()
	now := f.Now()
	it := models.InventoryItem{ID: fmt.Sprintf("item-%d", f.nextID), CreatedAt: now, UpdatedAt: now}
	f.nextID++
	in.Apply(&it)
	f.items = append(f.items, it)
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, models.ProductEnvelope{Product: it})
}

func (f *FakeAPI) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in models.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Message: "invalid body"})
		return
	}
	if msg := validate(in); msg != "" {
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Message: msg})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			in.Apply(&f.items[i])
			f.items[i].UpdatedAt = f.Now()
			writeJSON(w, http.StatusOK, models.ProductEnvelope{Product: f.items[i]})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, models.MessageResponse{Message: "Product not found"})
}

func (f *FakeAPI) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Product deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, models.MessageResponse{Message: "Product not found"})
}

// Item builds a functional test item created at the given time
func Item(id, first, dept, model string, status models.Status, createdAt time.Time) models.InventoryItem {
	return models.InventoryItem{
		ID:           id,
		FirstName:    first,
		LastName:     "Tester",
		StaffID:      1000,
		Designation:  "Officer",
		Department:   dept,
		Location:     "HQ",
		Block:        "A",
		RoomNumber:   "101",
		Make:         "APC",
		Model:        model,
		SerialNumber: "SN-" + id,
		CapacityVA:   "650VA",
		IssueDate:    createdAt.Format("2006-01-02"),
		Status:       status,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}
