package model

import "time"

// MatchSuggestion is a proposed link between a bank transaction and an
// invoice or expense. It is never persisted as such.
type MatchSuggestion struct {
	TransactionID     string     `json:"transactionId"`
	MatchedType       TargetType `json:"matchedType"`
	MatchedID         string     `json:"matchedId"`
	Confidence        Confidence `json:"confidence"`
	Reason            string     `json:"reason"`
	DayDiff           int        `json:"dayDiff"`
	AmountDiffCents   int64      `json:"amountDiffCents"`
	ProcessorFeeCents *int64     `json:"processorFeeCents,omitempty"`
}

// MatchApplication is the write that reconciles a transaction: the
// transaction takes Status and the target flips to paid on PaidDate.
type MatchApplication struct {
	TransactionID     string
	Status            MatchStatus
	Confidence        *Confidence
	TargetType        TargetType
	TargetID          string
	ProcessorFeeCents *int64
	PaidDate          time.Time
	MatchedAt         time.Time
	MatchedBy         string
}
