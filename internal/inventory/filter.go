package inventory

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"inventory-dashboard/internal/models"
)

// All disables a department, status or date-range predicate
const All = "all"

// DateRanges are the date-range choices offered by the report filters
var DateRanges = []string{"7", "30", "90", "365", All}

// Criteria selects a filtered view of the collection. Zero-value fields
// behave like All.
type Criteria struct {
	Search     string `json:"search"`
	Department string `json:"department"`
	Status     string `json:"status"`
	DateRange  string `json:"dateRange"` // day count or All
}

// ParseCriteria reads q, department, status and range from query values
func ParseCriteria(values url.Values) Criteria {
	get := func(key string) string {
		if v := strings.TrimSpace(values.Get(key)); v != "" {
			return v
		}
		return All
	}
	return Criteria{
		Search:     strings.TrimSpace(values.Get("q")),
		Department: get("department"),
		Status:     strings.ToLower(get("status")),
		DateRange:  strings.ToLower(get("range")),
	}
}

// Days returns the date-range window, or 0 when every date is kept.
// The range is read like a form number, so "30abc" is 30.
func (c Criteria) Days() int {
	if c.DateRange == "" || c.DateRange == All {
		return 0
	}
	n := ParseInt(c.DateRange)
	if n == nil || *n < 0 {
		return 0
	}
	return *n
}

// Active reports whether any predicate narrows the collection
func (c Criteria) Active() bool {
	return c.Search != "" || !isAll(c.Department) || !isAll(c.Status) || c.Days() > 0
}

// Values encodes the criteria back into query parameters
func (c Criteria) Values() url.Values {
	v := url.Values{}
	if c.Search != "" {
		v.Set("q", c.Search)
	}
	if !isAll(c.Department) {
		v.Set("department", c.Department)
	}
	if !isAll(c.Status) {
		v.Set("status", c.Status)
	}
	if c.Days() > 0 {
		v.Set("range", strconv.Itoa(c.Days()))
	}
	return v
}

func isAll(v string) bool {
	return v == "" || v == All
}

// Filter reduces items to those matching every predicate in c, keeping
// input order. With no active predicate the input slice is returned as is.
func Filter(items []models.InventoryItem, c Criteria, now time.Time) []models.InventoryItem {
	if !c.Active() {
		return items
	}

	term := strings.ToLower(c.Search)
	var cutoff time.Time
	if days := c.Days(); days > 0 {
		cutoff = now.AddDate(0, 0, -days)
	}

	out := make([]models.InventoryItem, 0, len(items))
	for _, it := range items {
		if term != "" && !matchesSearch(it, term) {
			continue
		}
		if !isAll(c.Department) && it.Department != c.Department {
			continue
		}
		if !isAll(c.Status) && string(it.Status) != c.Status {
			continue
		}
		if !cutoff.IsZero() && it.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// matchesSearch expects term already lower-cased
func matchesSearch(it models.InventoryItem, term string) bool {
	for _, field := range []string{
		it.FirstName,
		it.LastName,
		it.StaffID.String(),
		it.Model,
		it.SerialNumber,
	} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Departments lists distinct departments in first-occurrence order
func Departments(items []models.InventoryItem) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, it := range items {
		if it.Department == "" || seen[it.Department] {
			continue
		}
		seen[it.Department] = true
		out = append(out, it.Department)
	}
	return out
}
