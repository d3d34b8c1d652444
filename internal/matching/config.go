package matching

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/studiops/bankrecon/internal/categories"
	"github.com/studiops/bankrecon/internal/model"
)

// Windows are the maximum day differences for each confidence tier.
// A negative bound disables the tier.
type Windows struct {
	High   int
	Medium int
	Low    int
}

// tier returns the best confidence whose window holds days, or "".
func (w Windows) tier(days int) model.Confidence {
	switch {
	case w.High >= 0 && days <= w.High:
		return model.ConfidenceHigh
	case w.Medium >= 0 && days <= w.Medium:
		return model.ConfidenceMedium
	case w.Low >= 0 && days <= w.Low:
		return model.ConfidenceLow
	}
	return ""
}

// Config contains the scoring thresholds.
type Config struct {
	// Amount tolerance for the approximate rule, in cents.
	ToleranceCents int64
	// Maximum processor fee as a fraction of the invoice: 0.05 = 5%.
	FeePercent decimal.Decimal

	Exact    Windows
	Approx   Windows
	Acquirer Windows

	// Levenshtein ratio from which payer names and descriptions count as matching.
	NameSimilarity float64

	// Category for processor fee expenses.
	FeeCategory string
}

// DefaultConfig returns the default matching configuration.
func DefaultConfig() Config {
	return Config{
		ToleranceCents: 50,
		FeePercent:     decimal.NewFromFloat(0.05),
		Exact:          Windows{High: 1, Medium: 5, Low: 15},
		Approx:         Windows{High: -1, Medium: 3, Low: 10},
		Acquirer:       Windows{High: 5, Medium: 15, Low: -1},
		NameSimilarity: 0.8,
		FeeCategory:    categories.FeeCategory,
	}
}

// Validate checks that the configuration keeps tiers ordered.
func (c Config) Validate() error {
	if c.ToleranceCents < 0 {
		return fmt.Errorf("tolerance must not be negative, got %d", c.ToleranceCents)
	}
	if c.FeePercent.IsNegative() || c.FeePercent.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("fee percent must be in [0, 1), got %s", c.FeePercent)
	}
	for name, w := range map[string]Windows{"exact": c.Exact, "approx": c.Approx, "acquirer": c.Acquirer} {
		if !ordered(w) {
			return fmt.Errorf("%s windows must widen from high to low: %+v", name, w)
		}
	}
	if !covers(c.Exact, c.Approx) {
		return fmt.Errorf("exact windows must be at least as wide as approx windows")
	}
	if c.NameSimilarity < 0 || c.NameSimilarity > 1 {
		return fmt.Errorf("name similarity must be in [0, 1], got %v", c.NameSimilarity)
	}
	return nil
}

func ordered(w Windows) bool {
	prev := -1
	for _, b := range []int{w.High, w.Medium, w.Low} {
		if b < 0 {
			continue
		}
		if b < prev {
			return false
		}
		prev = b
	}
	return true
}

// covers reports whether every day count that earns a tier under b earns at
// least that tier under a.
func covers(a, b Windows) bool {
	aw := []int{a.High, a.Medium, a.Low}
	bw := []int{b.High, b.Medium, b.Low}
	widest := -1
	for i := range aw {
		widest = max(widest, aw[i])
		if bw[i] >= 0 && widest < bw[i] {
			return false
		}
	}
	return true
}
