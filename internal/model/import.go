package model

import (
	"strings"
	"time"
)

// FileType is the declared format of an uploaded bank export.
type FileType string

const (
	FileTypeOFX  FileType = "ofx"
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
	FileTypeXLS  FileType = "xls"
)

// ParseFileType normalizes a declared type or file extension ("OFX", ".csv").
func ParseFileType(s string) (FileType, bool) {
	ft := FileType(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	switch ft {
	case FileTypeOFX, FileTypeCSV, FileTypeXLSX, FileTypeXLS:
		return ft, true
	}
	return "", false
}

// IsSpreadsheet reports whether the format is a binary workbook.
func (ft FileType) IsSpreadsheet() bool {
	return ft == FileTypeXLSX || ft == FileTypeXLS
}

// ImportStatus is the lifecycle state of an Import.
type ImportStatus string

const (
	ImportProcessing ImportStatus = "processing"
	ImportCompleted  ImportStatus = "completed"
	ImportFailed     ImportStatus = "failed"
)

// Import is one file ingestion event.
type Import struct {
	ID                    string       `gorm:"primaryKey;size:36" json:"id"`
	FileName              string       `gorm:"size:255;not null" json:"file_name"`
	FileType              FileType     `gorm:"size:8;not null" json:"file_type"`
	BankID                string       `gorm:"size:64" json:"bank_id"`
	AccountID             string       `gorm:"size:64" json:"account_id"`
	PeriodStart           *time.Time   `json:"period_start"`
	PeriodEnd             *time.Time   `json:"period_end"`
	Status                ImportStatus `gorm:"size:16;index;not null" json:"status"`
	ContentHash           string       `gorm:"size:64;index;not null" json:"content_hash"`
	DedupKey              *string      `gorm:"size:64;uniqueIndex" json:"-"` // hash while processing/completed, NULL once failed
	TotalTransactions     int          `json:"total_transactions"`
	SkippedBalanceEntries int          `json:"skipped_balance_entries"`
	SkippedDuplicates     int          `json:"skipped_duplicates"`
	TotalCreditsCents     int64        `json:"total_credits_cents"`
	TotalDebitsCents      int64        `json:"total_debits_cents"`
	ExpensesCreated       int          `json:"expenses_created"`
	ErrorMessage          string       `gorm:"type:text" json:"error_message,omitempty"`
	ImportedBy            string       `gorm:"size:128" json:"imported_by"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
}
