package internal

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"inventory-dashboard/internal/config"
	"inventory-dashboard/internal/export"
	"inventory-dashboard/internal/inventory"
	"inventory-dashboard/internal/models"
	"inventory-dashboard/internal/testutil"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func testConfig(source, baseURL string) *config.Config {
	return &config.Config{
		Environment: "test",
		ListenAddr:  ":0",
		APIBaseURL:  baseURL,
		DataSource:  source,
		HTTPTimeout: 5 * time.Second,
		SessionKey:  strings.Repeat("k", 32),
		JWTSecret:   strings.Repeat("s", 32),
		JWTIssuer:   "inventory-dashboard",
		JWTAudience: "inventory-dashboard",
		JWTExpiry:   time.Hour,
	}
}

// harness drives the router like a browser, carrying cookies between calls
type harness struct {
	t       *testing.T
	server  *Server
	cookies map[string]*http.Cookie
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	return &harness{t: t, server: s, cookies: map[string]*http.Cookie{}}
}

func liveHarness(t *testing.T, items ...models.InventoryItem) (*harness, *testutil.FakeAPI) {
	t.Helper()
	api := testutil.NewFakeAPI(t, items...)
	api.Now = func() time.Time { return fixedNow }
	return newHarness(t, testConfig(config.DataSourceLive, api.URL())), api
}

func (h *harness) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	for _, c := range h.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	h.server.Router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(h.cookies, c.Name)
			continue
		}
		h.cookies[c.Name] = c
	}
	return w
}

func (h *harness) login(username, password string) *httptest.ResponseRecorder {
	return h.do("POST", "/login", `{"username":"`+username+`","password":"`+password+`"}`)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func seed() []models.InventoryItem {
	return []models.InventoryItem{
		testutil.Item("1", "Ada", "IT", "XPS", models.StatusFunctional, fixedNow.AddDate(0, 0, -1)),
		testutil.Item("2", "Grace", "Finance", "ThinkPad", models.StatusNonFunctional, fixedNow.AddDate(0, 0, -40)),
		testutil.Item("3", "Linus", "IT", "XPS", models.StatusFunctional, fixedNow.AddDate(0, 0, -100)),
	}
}

const newItemBody = `{"firstName":"Alan","lastName":"Turing","staffId":"1912","designation":"Analyst",
"department":"Research","location":"HQ","block":"B","roomNumber":"7","make":"Dell",
"model":"Latitude","serialNumber":"SN-NEW","capacityVA":"1000VA","issueDate":"2024-03-01","status":"functional"}`

func TestHealth(t *testing.T) {
	h, _ := liveHarness(t)
	w := h.do("GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestGuard(t *testing.T) {
	h, api := liveHarness(t, seed()...)

	t.Run("API caller gets 401 with redirect hint", func(t *testing.T) {
		w := h.do("GET", "/api/items", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"redirect":"/login"`)
	})

	t.Run("Page navigation is redirected", func(t *testing.T) {
		w := h.do("GET", "/", "")
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	assert.Empty(t, api.Requests())
}

func TestLogin(t *testing.T) {
	t.Run("Missing fields", func(t *testing.T) {
		h, api := liveHarness(t)
		w := h.login("", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, api.Requests())
	})

	t.Run("Bad credentials", func(t *testing.T) {
		h, _ := liveHarness(t)
		w := h.login(testutil.Username, "wrong")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid credentials")
		assert.Empty(t, h.cookies)
	})

	t.Run("Success stores the session", func(t *testing.T) {
		h, _ := liveHarness(t)
		w := h.login(testutil.Username, testutil.Password)
		require.Equal(t, http.StatusOK, w.Code)

		var info sessionInfo
		decode(t, w, &info)
		assert.True(t, info.Authenticated)
		require.NotNil(t, info.User)
		assert.Equal(t, "Administrator", info.User.Name)

		w = h.do("GET", "/auth/profile", "")
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &info)
		assert.Equal(t, testutil.Username, info.User.Username)

		w = h.do("GET", "/login", "")
		decode(t, w, &info)
		assert.True(t, info.Authenticated)
	})

	t.Run("Form post redirects to the dashboard", func(t *testing.T) {
		h, _ := liveHarness(t)
		req := httptest.NewRequest("POST", "/login", strings.NewReader("username=admin&password=secret"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		h.server.Router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
		assert.NotEmpty(t, w.Result().Cookies())
	})

	t.Run("Logout clears the session", func(t *testing.T) {
		h, _ := liveHarness(t)
		h.login(testutil.Username, testutil.Password)
		w := h.do("POST", "/logout", "", "Accept", "application/json")
		assert.Equal(t, http.StatusOK, w.Code)

		w = h.do("GET", "/api/items", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestItems(t *testing.T) {
	h, api := liveHarness(t, seed()...)
	h.login(testutil.Username, testutil.Password)

	t.Run("List with filters and paging", func(t *testing.T) {
		w := h.do("GET", "/api/items?department=IT&limit=1", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data []models.InventoryItem `json:"data"`
			Meta listMeta               `json:"meta"`
		}
		decode(t, w, &resp)
		assert.Equal(t, 2, resp.Meta.Total)
		assert.Equal(t, 1, resp.Meta.Limit)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "1", resp.Data[0].ID)
	})

	t.Run("Search and date range", func(t *testing.T) {
		w := h.do("GET", "/api/items?q=xps&range=30", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data []models.InventoryItem `json:"data"`
		}
		decode(t, w, &resp)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "Ada", resp.Data[0].FirstName)
	})

	t.Run("Departments", func(t *testing.T) {
		w := h.do("GET", "/api/items/departments", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"departments":["IT","Finance"]`)
	})

	t.Run("Get unknown item", func(t *testing.T) {
		w := h.do("GET", "/api/items/nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Create", func(t *testing.T) {
		w := h.do("POST", "/api/items", newItemBody)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var created models.InventoryItem
		decode(t, w, &created)
		assert.Equal(t, "item-4", created.ID)
		assert.Equal(t, models.StaffID(1912), created.StaffID)
		assert.Len(t, api.Items(), 4)
	})

	t.Run("Create with missing fields", func(t *testing.T) {
		before := len(api.Requests())
		w := h.do("POST", "/api/items", `{"firstName":"Only"}`)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var resp errorResponse
		decode(t, w, &resp)
		assert.Equal(t, "This field is required", resp.Fields["lastName"])
		assert.Contains(t, resp.Fields, "serialNumber")
		// validation happens before any products call
		assert.Len(t, api.Requests(), before)
	})

	t.Run("Update keeps serial number", func(t *testing.T) {
		w := h.do("PUT", "/api/items/2", `{"status":"functional","serialNumber":"SN-2"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var updated models.InventoryItem
		decode(t, w, &updated)
		assert.Equal(t, models.StatusFunctional, updated.Status)
		assert.Equal(t, "Grace", updated.FirstName)
	})

	t.Run("Update rejects a new serial number", func(t *testing.T) {
		w := h.do("PUT", "/api/items/2", `{"serialNumber":"SN-OTHER"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "SN-2", api.Items()[1].SerialNumber)
	})

	t.Run("Update unknown item", func(t *testing.T) {
		w := h.do("PUT", "/api/items/nope", `{"status":"functional"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		w := h.do("DELETE", "/api/items/3", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Len(t, api.Items(), 3)

		w = h.do("DELETE", "/api/items/3", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Upstream failure", func(t *testing.T) {
		api.Fail(http.StatusInternalServerError)
		w := h.do("GET", "/api/items", "")
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "SERVER_ERROR")
	})
}

func TestRejectedTokenEndsSession(t *testing.T) {
	h, api := liveHarness(t, seed()...)
	h.login(testutil.Username, testutil.Password)

	api.Fail(http.StatusUnauthorized)
	w := h.do("GET", "/api/items", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "SESSION_EXPIRED")

	w = h.do("GET", "/api/items", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "SESSION_REQUIRED")
}

func TestDashboard(t *testing.T) {
	h, api := liveHarness(t, seed()...)
	h.login(testutil.Username, testutil.Password)

	w := h.do("GET", "/api/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp dashboardResponse
	decode(t, w, &resp)
	assert.Equal(t, inventory.Summary{Total: 3, Functional: 2, NonFunctional: 1, Departments: 2}, resp.Summary)
	require.Len(t, resp.Recent, 3)
	assert.Equal(t, "1", resp.Recent[0].ID)
	assert.Equal(t, "Today", resp.Recent[0].Added)
	assert.Equal(t, "2024-02-04", resp.Recent[1].Added)

	t.Run("Fetch failure shows empty statistics", func(t *testing.T) {
		api.Fail(http.StatusInternalServerError)
		w := h.do("GET", "/api/dashboard", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp dashboardResponse
		decode(t, w, &resp)
		assert.Zero(t, resp.Summary.Total)
		assert.Empty(t, resp.Recent)
	})
}

func TestReports(t *testing.T) {
	h, _ := liveHarness(t, seed()...)
	h.login(testutil.Username, testutil.Password)

	w := h.do("GET", "/api/reports?department=IT&range=all", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp reportResponse
	decode(t, w, &resp)
	assert.Equal(t, 2, resp.Summary.Total)
	assert.Equal(t, 100.0, resp.FunctionalPct)
	assert.Equal(t, 0.0, resp.NonFunctionalPct)
	assert.Equal(t, []inventory.ModelCount{{Model: "XPS", Count: 2}}, resp.TopModels)
	assert.Equal(t, []string{"IT", "Finance"}, resp.Filters.Departments)
	assert.Equal(t, "department=IT", resp.ExportQuery)

	// departments filtered out of the view still report zero
	assert.Equal(t, []inventory.DepartmentCount{
		{Name: "IT", Total: 2, Functional: 2},
		{Name: "Finance"},
	}, resp.Departments)

	require.Len(t, resp.MonthlyTrend, inventory.TrendMonths)
	total := 0
	for _, b := range resp.MonthlyTrend {
		total += b.Count
	}
	// the trend ignores the department filter
	assert.Equal(t, 3, total)
}

func TestReports_DefaultRange(t *testing.T) {
	h, _ := liveHarness(t, seed()...)
	h.login(testutil.Username, testutil.Password)

	w := h.do("GET", "/api/reports", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp reportResponse
	decode(t, w, &resp)
	assert.Equal(t, "30", resp.Criteria.DateRange)
	assert.Equal(t, 1, resp.Summary.Total)
	assert.Equal(t, "range=30", resp.ExportQuery)
	assert.Len(t, resp.Departments, 2)
}

func TestExports(t *testing.T) {
	h, _ := liveHarness(t, seed()...)
	h.login(testutil.Username, testutil.Password)

	t.Run("CSV", func(t *testing.T) {
		w := h.do("GET", "/export/csv?status=functional&range=all", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, export.ContentTypeCSV, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "inventory-report-2024-03-15.csv")
		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		assert.Len(t, lines, 3)
		assert.NotContains(t, w.Body.String(), "Grace")
	})

	t.Run("CSV defaults to the last 30 days", func(t *testing.T) {
		w := h.do("GET", "/export/csv", "")
		require.Equal(t, http.StatusOK, w.Code)
		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		assert.Len(t, lines, 2)
	})

	t.Run("XLSX carries the whole collection", func(t *testing.T) {
		w := h.do("GET", "/export/xlsx?status=non-functional", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "inventory-2024-03-15.xlsx")

		file, err := xlsx.OpenBinary(w.Body.Bytes())
		require.NoError(t, err)
		require.Len(t, file.Sheets, 1)
		assert.Equal(t, 4, file.Sheets[0].MaxRow)
	})

	t.Run("PDF", func(t *testing.T) {
		w := h.do("GET", "/export/pdf?range=30", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, export.ContentTypePDF, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "inventory-summary-2024-03-15.pdf")
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	})
}

func TestMockMode(t *testing.T) {
	h := newHarness(t, testConfig(config.DataSourceMock, ""))

	w := h.login(inventory.DemoUsername, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.login(inventory.DemoUsername, inventory.DemoPassword)
	require.Equal(t, http.StatusOK, w.Code)
	var info sessionInfo
	decode(t, w, &info)
	assert.NotNil(t, info.ExpiresAt)

	w = h.do("GET", "/api/items", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Meta listMeta `json:"meta"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 5, resp.Meta.Total)

	w = h.do("POST", "/api/items", newItemBody)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestMetricsRoute(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	cfg := testConfig(config.DataSourceLive, api.URL())
	cfg.EnableMetrics = true
	h := newHarness(t, cfg)
	h.login(testutil.Username, testutil.Password)
	h.do("GET", "/api/items", "")

	w := h.do("GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `upstream_requests_total{op="list",outcome="ok"} 1`)
	assert.Contains(t, w.Body.String(), `path="/api/items"`)
}
