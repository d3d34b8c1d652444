package model

import "time"

// Direction is the side of a bank movement relative to the account holder.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// RawTransaction is one parsed statement line, before classification.
type RawTransaction struct {
	Type        Direction
	PostedDate  time.Time
	AmountCents int64 // unsigned magnitude; direction is carried by Type
	ExternalID  string
	Memo        string
}

// Statement is the normalized output of every format parser.
type Statement struct {
	BankID       string
	AccountID    string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Transactions []RawTransaction
}

// ExtendPeriod widens the statement period so that it covers d.
func (s *Statement) ExtendPeriod(d time.Time) {
	if d.IsZero() {
		return
	}
	if s.PeriodStart.IsZero() || d.Before(s.PeriodStart) {
		s.PeriodStart = d
	}
	if s.PeriodEnd.IsZero() || d.After(s.PeriodEnd) {
		s.PeriodEnd = d
	}
}

// Date truncates t to a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DayDiff returns the absolute number of calendar days between a and b.
func DayDiff(a, b time.Time) int {
	ad := Date(a.Year(), a.Month(), a.Day())
	bd := Date(b.Year(), b.Month(), b.Day())
	d := int(ad.Sub(bd).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}
