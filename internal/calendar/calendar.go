// Package calendar lays out a month of climbing records for display.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/wdv96wdv/Doclimb/internal/models"
)

type Day struct {
	Date    string `json:"date"`
	Day     int    `json:"day"`
	Records int    `json:"records"`
	IsToday bool   `json:"is_today"`
}

type MonthView struct {
	Year          int                        `json:"year"`
	Month         int                        `json:"month"`
	LeadingBlanks int                        `json:"leading_blanks"`
	Days          []Day                      `json:"days"`
	RecordsByDate map[string][]models.Record `json:"records_by_date"`
}

// ParseMonth reads a YYYY-MM key. An empty key means the month of now.
func ParseMonth(key string, now time.Time) (time.Time, error) {
	if key == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	parsed, err := time.Parse("2006-01", key)
	if err != nil {
		return time.Time{}, fmt.Errorf("month must be YYYY-MM: %w", err)
	}
	return parsed, nil
}

// Bounds returns the first day of the month and the first day of the next one.
func Bounds(month time.Time) (time.Time, time.Time) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, 0)
}

// GroupByDate buckets records by their YYYY-MM-DD key, keeping input order.
func GroupByDate(records []models.Record) map[string][]models.Record {
	grouped := make(map[string][]models.Record)
	for _, record := range records {
		key := record.DateKey()
		grouped[key] = append(grouped[key], record)
	}
	return grouped
}

// Month builds the grid for year/month. Weeks start on Sunday.
func Month(year int, month time.Month, records []models.Record, today time.Time) MonthView {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	numDays := first.AddDate(0, 1, -1).Day()
	todayKey := today.Format(time.DateOnly)

	inMonth := make([]models.Record, 0, len(records))
	for _, record := range records {
		if record.Date.Year() == year && record.Date.Month() == month {
			inMonth = append(inMonth, record)
		}
	}
	sort.SliceStable(inMonth, func(i, j int) bool {
		return inMonth[i].Date.Before(inMonth[j].Date)
	})
	grouped := GroupByDate(inMonth)

	days := make([]Day, 0, numDays)
	for d := 1; d <= numDays; d++ {
		key := time.Date(year, month, d, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
		days = append(days, Day{
			Date:    key,
			Day:     d,
			Records: len(grouped[key]),
			IsToday: key == todayKey,
		})
	}

	return MonthView{
		Year:          year,
		Month:         int(month),
		LeadingBlanks: int(first.Weekday()),
		Days:          days,
		RecordsByDate: grouped,
	}
}
