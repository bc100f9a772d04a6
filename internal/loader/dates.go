package loader

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"retail-dashboard/internal/models"
)

// Day-first layouts are tried before month-first ones so that "05/01/2019"
// reads as 5 January. Month-first only wins when the day-first reading is
// impossible, e.g. "1/13/2019".
var (
	isoLayouts = []string{
		"2006-01-02",
		"2006-01-02 15:04",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z07:00",
		"2006/01/02",
		"2006-01",
	}
	dayFirstLayouts = []string{
		"02/01/2006", "2/1/2006", "02/01/06", "2/1/06",
		"02-01-2006", "2-1-2006", "02-01-06", "2-1-06",
		"02.01.2006", "2.1.2006",
		"02/01/2006 15:04", "2/1/2006 15:04",
		"02/01/2006 15:04:05", "2/1/2006 15:04:05",
		"2 Jan 2006", "02 Jan 2006", "2 January 2006",
	}
	monthFirstLayouts = []string{
		"01/02/2006", "1/2/2006", "01/02/06", "1/2/06",
		"01-02-2006", "1-2-2006", "01-02-06", "1-2-06",
		"1/2/2006 15:04", "1/2/2006 15:04:05",
		"Jan 2 2006", "Jan 2, 2006", "January 2, 2006",
	}
)

const (
	minYear = 1900
	maxYear = 2100
)

// parseDate reads a raw cell value as a calendar date. ok is false when the
// value cannot be interpreted; callers treat that as a missing date.
func parseDate(raw string) (t time.Time, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	// A bare four digit year reads as 1 January of that year, not as a
	// serial number from 1905.
	if len(s) == 4 {
		if year, err := strconv.Atoi(s); err == nil && year >= minYear && year <= maxYear {
			return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
		}
	}

	// Workbooks usually store dates as serial day numbers.
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return truncateDay(t), true
	}

	for _, group := range [][]string{isoLayouts, dayFirstLayouts, monthFirstLayouts} {
		for _, layout := range group {
			if t, err := time.Parse(layout, s); err == nil {
				return truncateDay(t), true
			}
		}
	}
	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// monthOf truncates a date to its calendar month label.
func monthOf(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.MonthLayout)
}
