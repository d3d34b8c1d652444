package model

import "time"

// InvoiceStatus is the state of a receivable owned by the billing system.
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Open reports whether the invoice can still receive a payment.
func (s InvoiceStatus) Open() bool {
	return s == InvoicePending || s == InvoiceOverdue
}

// Invoice is a receivable. Only the fields reconciliation reads or writes are modelled.
type Invoice struct {
	ID          string        `gorm:"primaryKey;size:36" json:"id"`
	StudentID   string        `gorm:"size:36;index" json:"student_id"`
	StudentName string        `gorm:"size:255" json:"student_name"`
	AmountCents int64         `gorm:"not null" json:"amount_cents"`
	DueDate     time.Time     `gorm:"index;not null" json:"due_date"`
	Status      InvoiceStatus `gorm:"size:16;index;not null" json:"status"`
	PaidDate    *time.Time    `json:"paid_date"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ExpenseStatus is the state of a payable.
type ExpenseStatus string

const (
	ExpensePending   ExpenseStatus = "pending"
	ExpensePaid      ExpenseStatus = "paid"
	ExpenseCancelled ExpenseStatus = "cancelled"
)

// ExpenseSource records who created an expense.
type ExpenseSource string

const (
	SourceManual       ExpenseSource = "manual"
	SourceBankImport   ExpenseSource = "bank_import"
	SourceAutoDetected ExpenseSource = "auto_detected"
)

// DescriptionMaxLen is the column width of Expense.Description, in runes.
const DescriptionMaxLen = 255

// Expense is a payable.
type Expense struct {
	ID                string        `gorm:"primaryKey;size:36" json:"id"`
	Description       string        `gorm:"size:255;not null" json:"description"`
	AmountCents       int64         `gorm:"not null" json:"amount_cents"`
	DueDate           time.Time     `gorm:"index;not null" json:"due_date"`
	Status            ExpenseStatus `gorm:"size:16;index;not null" json:"status"`
	PaidDate          *time.Time    `json:"paid_date"`
	CategoryID        *string       `gorm:"size:36;index" json:"category_id"`
	Notes             string        `gorm:"type:text" json:"notes"`
	Source            ExpenseSource `gorm:"size:16;not null;default:manual" json:"source"`
	BankTransactionID *string       `gorm:"size:36;index" json:"bank_transaction_id"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}
