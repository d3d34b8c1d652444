package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/studiops/bankrecon/internal/model"
)

func TestParseFullDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"10/03/2024", model.Date(2024, 3, 10), true},
		{"1/3/2024", model.Date(2024, 3, 1), true},
		{"10/03/24", model.Date(2024, 3, 10), true},
		{"2024-03-10", model.Date(2024, 3, 10), true},
		{"10-03-2024", model.Date(2024, 3, 10), true},
		{"2024-03-10T00:00:00Z", model.Date(2024, 3, 10), true},
		{"10/03/2024 14:30", model.Date(2024, 3, 10), true},
		{"10/03", time.Time{}, false},
		{"31/02/2024", time.Time{}, false},
		{"", time.Time{}, false},
		{"150,00", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseFullDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseExcelSerial(t *testing.T) {
	d, ok := parseExcelSerial("45361")
	assert.True(t, ok)
	assert.Equal(t, model.Date(2024, 3, 10), d)

	_, ok = parseExcelSerial("250.5")
	assert.False(t, ok)
	_, ok = parseExcelSerial("ACADEMIA")
	assert.False(t, ok)
}

func TestParseDayMonth(t *testing.T) {
	tests := []struct {
		in    string
		day   int
		month time.Month
		ok    bool
	}{
		{"10/03", 10, time.March, true},
		{"5/12", 5, time.December, true},
		{"10/mar", 10, time.March, true},
		{"10 FEV", 10, time.February, true},
		{"03-Dez.", 3, time.December, true},
		{"07 Sep", 7, time.September, true},
		{"15/Ago", 15, time.August, true},
		{"10/13", 0, 0, false},
		{"32/01", 0, 0, false},
		{"10/xyz", 0, 0, false},
		{"150.00", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, m, ok := parseDayMonth(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.day, d)
			assert.Equal(t, tt.month, m)
		})
	}
}

func TestInferYear(t *testing.T) {
	ref := model.Date(2024, 4, 10)

	d, ok := inferYear(15, time.March, ref)
	assert.True(t, ok)
	assert.Equal(t, model.Date(2024, 3, 15), d)

	d, ok = inferYear(20, time.December, ref)
	assert.True(t, ok)
	assert.Equal(t, model.Date(2023, 12, 20), d)

	d, ok = inferYear(10, time.April, ref)
	assert.True(t, ok)
	assert.Equal(t, model.Date(2024, 4, 10), d)

	_, ok = inferYear(30, time.February, ref)
	assert.False(t, ok)
}
