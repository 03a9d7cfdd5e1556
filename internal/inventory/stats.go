package inventory

import (
	"fmt"
	"math"
	"sort"
	"time"

	"inventory-dashboard/internal/models"
)

// DefaultTopN is the number of entries shown in top-model and recent lists
const DefaultTopN = 5

// TrendMonths is the number of buckets returned by MonthlyTrend
const TrendMonths = 6

type StatusCount struct {
	Status models.Status `json:"name"`
	Count  int           `json:"value"`
}

type DepartmentCount struct {
	Name          string `json:"name"`
	Total         int    `json:"total"`
	Functional    int    `json:"functional"`
	NonFunctional int    `json:"nonFunctional"`
}

type MonthBucket struct {
	Month string    `json:"month"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Count int       `json:"count"`
}

type ModelCount struct {
	Model string `json:"model"`
	Count int    `json:"count"`
}

// Summary backs the dashboard stat cards
type Summary struct {
	Total         int `json:"total"`
	Functional    int `json:"functional"`
	NonFunctional int `json:"nonFunctional"`
	Departments   int `json:"departments"`
}

// StatusCounts counts items per status, functional first. Both statuses
// are always present.
func StatusCounts(items []models.InventoryItem) []StatusCount {
	out := make([]StatusCount, len(models.Statuses))
	for i, s := range models.Statuses {
		out[i].Status = s
	}
	for _, it := range items {
		for i := range out {
			if out[i].Status == it.Status {
				out[i].Count++
			}
		}
	}
	return out
}

// DepartmentCounts counts items per department in first-occurrence order
func DepartmentCounts(items []models.InventoryItem) []DepartmentCount {
	index := make(map[string]int)
	out := []DepartmentCount{}
	for _, it := range items {
		i, ok := index[it.Department]
		if !ok {
			i = len(out)
			index[it.Department] = i
			out = append(out, DepartmentCount{Name: it.Department})
		}
		out[i].Total++
		switch it.Status {
		case models.StatusFunctional:
			out[i].Functional++
		case models.StatusNonFunctional:
			out[i].NonFunctional++
		}
	}
	return out
}

// DepartmentBreakdown lists every department of all, in first-occurrence
// order, with counts taken from view. Departments with nothing left in the
// view report zero.
func DepartmentBreakdown(all, view []models.InventoryItem) []DepartmentCount {
	names := Departments(all)
	index := make(map[string]int, len(names))
	out := make([]DepartmentCount, len(names))
	for i, name := range names {
		index[name] = i
		out[i].Name = name
	}
	for _, it := range view {
		i, ok := index[it.Department]
		if !ok {
			continue
		}
		out[i].Total++
		switch it.Status {
		case models.StatusFunctional:
			out[i].Functional++
		case models.StatusNonFunctional:
			out[i].NonFunctional++
		}
	}
	return out
}

// MonthlyTrend counts items created in each of the trailing six calendar
// months, oldest first. A bucket spans [first day 00:00, last day 00:00],
// so items created after midnight on a month's last day are not counted.
// Labels carry no year.
func MonthlyTrend(items []models.InventoryItem, now time.Time) []MonthBucket {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	out := make([]MonthBucket, 0, TrendMonths)
	for i := TrendMonths - 1; i >= 0; i-- {
		start := first.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, -1)
		b := MonthBucket{Month: start.Format("Jan"), Start: start, End: end}
		for _, it := range items {
			if !it.CreatedAt.Before(start) && !it.CreatedAt.After(end) {
				b.Count++
			}
		}
		out = append(out, b)
	}
	return out
}

// TopModels ranks models by item count, ties kept in first-encountered
// order. n <= 0 means DefaultTopN.
func TopModels(items []models.InventoryItem, n int) []ModelCount {
	if n <= 0 {
		n = DefaultTopN
	}
	index := make(map[string]int)
	out := []ModelCount{}
	for _, it := range items {
		i, ok := index[it.Model]
		if !ok {
			i = len(out)
			index[it.Model] = i
			out = append(out, ModelCount{Model: it.Model})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Count > out[b].Count
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Recent returns the n most recently created items, newest first.
// n <= 0 means DefaultTopN. The input is not modified.
func Recent(items []models.InventoryItem, n int) []models.InventoryItem {
	if n <= 0 {
		n = DefaultTopN
	}
	out := append([]models.InventoryItem(nil), items...)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func Summarize(items []models.InventoryItem) Summary {
	s := Summary{Total: len(items), Departments: len(Departments(items))}
	for _, it := range items {
		switch it.Status {
		case models.StatusFunctional:
			s.Functional++
		case models.StatusNonFunctional:
			s.NonFunctional++
		}
	}
	return s
}

// Percent is part/total as a percentage rounded to one decimal, 0 when
// total is 0.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

// RelativeDate labels a creation time for the recent-items list:
// "Today", "Yesterday", "N days ago" within a week, else the date.
func RelativeDate(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = -diff
	}
	days := int(math.Ceil(diff.Hours() / 24))
	switch {
	case days <= 1:
		return "Today"
	case days == 2:
		return "Yesterday"
	case days <= 7:
		return fmt.Sprintf("%d days ago", days-1)
	default:
		return t.Format("2006-01-02")
	}
}
