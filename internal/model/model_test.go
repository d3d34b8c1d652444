package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFileType(t *testing.T) {
	tests := []struct {
		input string
		want  FileType
		ok    bool
	}{
		{"ofx", FileTypeOFX, true},
		{"OFX", FileTypeOFX, true},
		{".csv", FileTypeCSV, true},
		{" xlsx ", FileTypeXLSX, true},
		{"xls", FileTypeXLS, true},
		{"pdf", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseFileType(tt.input)
		assert.Equal(t, tt.ok, ok, "ParseFileType(%q)", tt.input)
		assert.Equal(t, tt.want, got, "ParseFileType(%q)", tt.input)
	}
}

func TestConfidenceRank(t *testing.T) {
	assert.Greater(t, ConfidenceHigh.Rank(), ConfidenceMedium.Rank())
	assert.Greater(t, ConfidenceMedium.Rank(), ConfidenceLow.Rank())
	assert.Greater(t, ConfidenceLow.Rank(), Confidence("").Rank())

	c, ok := ParseConfidence("HIGH")
	assert.True(t, ok)
	assert.Equal(t, ConfidenceHigh, c)
	c, ok = ParseConfidence(" Medium ")
	assert.True(t, ok)
	assert.Equal(t, ConfidenceMedium, c)
	_, ok = ParseConfidence("certain")
	assert.False(t, ok)
}

func TestParseTargetType(t *testing.T) {
	tt, ok := ParseTargetType("Invoice")
	assert.True(t, ok)
	assert.Equal(t, TargetInvoice, tt)
	tt, ok = ParseTargetType("EXPENSE")
	assert.True(t, ok)
	assert.Equal(t, TargetExpense, tt)
	_, ok = ParseTargetType("student")
	assert.False(t, ok)
}

func TestMatchStatusTerminal(t *testing.T) {
	assert.False(t, MatchUnmatched.IsTerminal())
	assert.True(t, MatchAutoMatched.IsTerminal())
	assert.True(t, MatchManualMatched.IsTerminal())
	assert.True(t, MatchIgnored.IsTerminal())
}

func TestMatchable(t *testing.T) {
	assert.True(t, BankTransaction{MatchStatus: MatchUnmatched}.Matchable())
	assert.False(t, BankTransaction{MatchStatus: MatchUnmatched, IsBalanceEntry: true}.Matchable())
	assert.False(t, BankTransaction{MatchStatus: MatchIgnored}.Matchable())
}

func TestKinds(t *testing.T) {
	cards := 0
	for _, k := range AllKinds() {
		assert.True(t, k.Valid(), "kind %s", k)
		if k.IsCardSettlement() {
			cards++
		}
	}
	assert.Equal(t, 5, cards)
	assert.False(t, TransactionKind("wire").Valid())
}

func TestStatementExtendPeriod(t *testing.T) {
	var s Statement
	s.ExtendPeriod(Date(2024, 3, 10))
	s.ExtendPeriod(Date(2024, 3, 2))
	s.ExtendPeriod(Date(2024, 3, 28))
	s.ExtendPeriod(time.Time{})

	assert.Equal(t, Date(2024, 3, 2), s.PeriodStart)
	assert.Equal(t, Date(2024, 3, 28), s.PeriodEnd)
}

func TestDayDiff(t *testing.T) {
	assert.Equal(t, 0, DayDiff(Date(2024, 3, 10), Date(2024, 3, 10)))
	assert.Equal(t, 2, DayDiff(Date(2024, 3, 12), Date(2024, 3, 10)))
	assert.Equal(t, 2, DayDiff(Date(2024, 3, 10), Date(2024, 3, 12)))
	assert.Equal(t, 1, DayDiff(Date(2024, 3, 1), Date(2024, 2, 29)))
	assert.Equal(t, 1, DayDiff(time.Date(2024, 3, 11, 1, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)))
}
