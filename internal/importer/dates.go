package importer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/studiops/bankrecon/internal/model"
	"github.com/studiops/bankrecon/internal/textutil"
)

var fullDateLayouts = []string{
	"2/1/2006",
	"2/1/06",
	"2006-01-02",
	"2-1-2006",
	"2.1.2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
}

// Excel serials between 1982 and 2064; anything else is treated as a number.
const (
	minExcelSerial = 30000
	maxExcelSerial = 60000
)

var (
	dayMonthNumRe  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`)
	dayMonthNameRe = regexp.MustCompile(`^(\d{1,2})\s*[/\-. ]\s*([a-z]{3})[a-z]*\.?$`)
)

var monthAbbrev = map[string]time.Month{
	"jan": time.January,
	"fev": time.February, "feb": time.February,
	"mar": time.March,
	"abr": time.April, "apr": time.April,
	"mai": time.May, "may": time.May,
	"jun": time.June,
	"jul": time.July,
	"ago": time.August, "aug": time.August,
	"set": time.September, "sep": time.September,
	"out": time.October, "oct": time.October,
	"nov": time.November,
	"dez": time.December, "dec": time.December,
}

// parseFullDate parses a date that carries its own year.
func parseFullDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range fullDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Date(t.Year(), t.Month(), t.Day()), true
		}
	}
	return time.Time{}, false
}

// parseExcelSerial parses a raw serial date cell such as "45361".
func parseExcelSerial(s string) (time.Time, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < minExcelSerial || f > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return model.Date(t.Year(), t.Month(), t.Day()), true
}

// parseDayMonth parses "10/03", "10/mar" or "10 Mar." style dates.
func parseDayMonth(s string) (day int, month time.Month, ok bool) {
	k := textutil.Key(s)
	if m := dayMonthNumRe.FindStringSubmatch(k); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		if d < 1 || d > 31 || mo < 1 || mo > 12 {
			return 0, 0, false
		}
		return d, time.Month(mo), true
	}
	if m := dayMonthNameRe.FindStringSubmatch(k); m != nil {
		mo, found := monthAbbrev[m[2]]
		if !found {
			return 0, 0, false
		}
		d, _ := strconv.Atoi(m[1])
		if d < 1 || d > 31 {
			return 0, 0, false
		}
		return d, mo, true
	}
	return 0, 0, false
}

// inferYear places a day/month date relative to a reference month: months
// after the reference belong to the previous year.
func inferYear(day int, month time.Month, ref time.Time) (time.Time, bool) {
	year := ref.Year()
	if month > ref.Month() {
		year--
	}
	d := model.Date(year, month, day)
	if d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}
