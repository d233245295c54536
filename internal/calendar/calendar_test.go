package calendar

import (
	"testing"
	"time"

	"github.com/wdv96wdv/Doclimb/internal/models"
)

func day(value string) time.Time {
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func TestMonthLayout(t *testing.T) {
	records := []models.Record{
		{ID: 1, Date: day("2024-05-03")},
		{ID: 2, Date: day("2024-05-03")},
		{ID: 3, Date: day("2024-05-20")},
		{ID: 4, Date: day("2024-06-01")},
	}

	view := Month(2024, time.May, records, day("2024-05-20"))

	// 2024-05-01 is a Wednesday.
	if view.LeadingBlanks != 3 {
		t.Fatalf("expected 3 leading blanks, got %d", view.LeadingBlanks)
	}
	if len(view.Days) != 31 {
		t.Fatalf("expected 31 days, got %d", len(view.Days))
	}
	if view.Days[2].Records != 2 {
		t.Fatalf("expected 2 records on May 3rd, got %d", view.Days[2].Records)
	}
	if !view.Days[19].IsToday || view.Days[19].Records != 1 {
		t.Fatalf("unexpected May 20th cell %+v", view.Days[19])
	}
	if _, ok := view.RecordsByDate["2024-06-01"]; ok {
		t.Fatalf("expected records outside the month to be excluded")
	}
}

func TestMonthHandlesLeapFebruary(t *testing.T) {
	view := Month(2024, time.February, nil, day("2024-01-01"))
	if len(view.Days) != 29 {
		t.Fatalf("expected 29 days, got %d", len(view.Days))
	}
}

func TestGroupByDateKeepsOrder(t *testing.T) {
	grouped := GroupByDate([]models.Record{
		{ID: 7, Date: day("2024-05-03")},
		{ID: 5, Date: day("2024-05-03")},
	})
	got := grouped["2024-05-03"]
	if len(got) != 2 || got[0].ID != 7 || got[1].ID != 5 {
		t.Fatalf("unexpected grouping %+v", got)
	}
}

func TestParseMonth(t *testing.T) {
	now := day("2024-09-17")

	current, err := ParseMonth("", now)
	if err != nil || current.Month() != time.September || current.Day() != 1 {
		t.Fatalf("expected first of current month, got %v (%v)", current, err)
	}
	if _, err := ParseMonth("2024-13", now); err == nil {
		t.Fatalf("expected invalid month to fail")
	}

	from, to := Bounds(day("2024-12-01"))
	if from.Format(time.DateOnly) != "2024-12-01" || to.Format(time.DateOnly) != "2025-01-01" {
		t.Fatalf("unexpected bounds %v..%v", from, to)
	}
}
