package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New returns a fresh identifier for a persisted record.
func New() string {
	return uuid.NewString()
}

// Valid reports whether s is a well-formed record identifier.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// FormatSynthetic returns an external id like "20240310-0005-123456"
// (posted date, row index, amount in cents) for exports that carry none.
func FormatSynthetic(date time.Time, row int, cents int64) string {
	if cents < 0 {
		cents = -cents
	}
	return fmt.Sprintf("%s-%04d-%d", date.Format("20060102"), row, cents)
}

// ParseSynthetic parses "20240310-0005-123456" into date, row, cents.
func ParseSynthetic(s string) (date time.Time, row int, cents int64, err error) {
	parts := strings.SplitN(s, "-", 3)
	if len(parts) != 3 {
		return time.Time{}, 0, 0, fmt.Errorf("invalid synthetic id format: %q", s)
	}

	date, err = time.Parse("20060102", parts[0])
	if err != nil {
		return time.Time{}, 0, 0, fmt.Errorf("invalid date in synthetic id %q: %w", s, err)
	}

	row, err = strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, 0, 0, fmt.Errorf("invalid row in synthetic id %q: %w", s, err)
	}

	cents, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return time.Time{}, 0, 0, fmt.Errorf("invalid amount in synthetic id %q: %w", s, err)
	}

	return date, row, cents, nil
}
