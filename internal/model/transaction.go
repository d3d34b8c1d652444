package model

import (
	"strings"
	"time"
)

// MatchStatus is the reconciliation state of a BankTransaction.
type MatchStatus string

const (
	MatchUnmatched     MatchStatus = "unmatched"
	MatchAutoMatched   MatchStatus = "auto_matched"
	MatchManualMatched MatchStatus = "manual_matched"
	MatchIgnored       MatchStatus = "ignored"
)

// IsTerminal reports whether the transaction is excluded from matching runs.
func (s MatchStatus) IsTerminal() bool {
	return s != MatchUnmatched
}

// Confidence is the categorical strength of a proposed match.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank orders tiers: high > medium > low > unknown.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// ParseConfidence accepts "high", "medium" or "low" in any case.
func ParseConfidence(s string) (Confidence, bool) {
	c := Confidence(strings.ToLower(strings.TrimSpace(s)))
	if c.Rank() == 0 {
		return "", false
	}
	return c, true
}

// TargetType is the kind of record a transaction is reconciled against.
type TargetType string

const (
	TargetInvoice TargetType = "invoice"
	TargetExpense TargetType = "expense"
)

// ParseTargetType accepts "invoice" or "expense" in any case.
func ParseTargetType(s string) (TargetType, bool) {
	switch t := TargetType(strings.ToLower(strings.TrimSpace(s))); t {
	case TargetInvoice, TargetExpense:
		return t, true
	}
	return "", false
}

// BankTransaction is one persisted statement line.
type BankTransaction struct {
	ID                   string          `gorm:"primaryKey;size:36" json:"id"`
	ImportID             string          `gorm:"size:36;not null;uniqueIndex:idx_bank_tx_import_fit" json:"import_id"`
	FitID                string          `gorm:"size:128;not null;uniqueIndex:idx_bank_tx_import_fit" json:"fit_id"`
	Direction            Direction       `gorm:"size:8;not null" json:"direction"`
	PostedDate           time.Time       `gorm:"index;not null" json:"posted_date"`
	AmountCents          int64           `gorm:"not null" json:"amount_cents"`
	Memo                 string          `gorm:"type:text" json:"memo"`
	Kind                 TransactionKind `gorm:"size:32;not null" json:"kind"`
	CounterpartyName     *string         `gorm:"size:255" json:"counterparty_name"`
	CounterpartyDocument *string         `gorm:"size:32" json:"counterparty_document"`
	IsBalanceEntry       bool            `gorm:"not null;default:false" json:"is_balance_entry"`
	MatchStatus          MatchStatus     `gorm:"size:16;index;not null;default:unmatched" json:"match_status"`
	MatchConfidence      *Confidence     `gorm:"size:8" json:"match_confidence"`
	MatchedType          *TargetType     `gorm:"size:8" json:"matched_type"`
	MatchedID            *string         `gorm:"size:36;index" json:"matched_id"`
	MatchedAt            *time.Time      `json:"matched_at"`
	MatchedBy            *string         `gorm:"size:128" json:"matched_by"`
	ProcessorFeeCents    *int64          `json:"processor_fee_cents"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// Matchable reports whether the transaction enters a matching run.
func (t BankTransaction) Matchable() bool {
	return !t.IsBalanceEntry && !t.MatchStatus.IsTerminal()
}

// Counterparty returns the classified counterparty name, or "".
func (t BankTransaction) Counterparty() string {
	if t.CounterpartyName == nil {
		return ""
	}
	return *t.CounterpartyName
}
