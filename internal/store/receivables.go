package store

import (
	"context"

	"github.com/studiops/bankrecon/internal/model"
)

// CreateInvoice inserts an invoice.
func (s *Store) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	return translate(s.db.WithContext(ctx).Create(inv).Error, "creating invoice")
}

// ListOpenInvoices returns pending and overdue invoices by due date.
func (s *Store) ListOpenInvoices(ctx context.Context) ([]model.Invoice, error) {
	var out []model.Invoice
	err := s.db.WithContext(ctx).
		Where("status IN ?", []model.InvoiceStatus{model.InvoicePending, model.InvoiceOverdue}).
		Order("due_date, id").
		Find(&out).Error
	if err != nil {
		return nil, translate(err, "listing open invoices")
	}
	return out, nil
}

// GetInvoice loads one invoice.
func (s *Store) GetInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	var inv model.Invoice
	if err := s.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		return nil, translate(err, "invoice "+id)
	}
	return &inv, nil
}

// CreateExpense inserts an expense.
func (s *Store) CreateExpense(ctx context.Context, e *model.Expense) error {
	return translate(s.db.WithContext(ctx).Create(e).Error, "creating expense")
}

// ListPendingExpenses returns pending expenses by due date.
func (s *Store) ListPendingExpenses(ctx context.Context) ([]model.Expense, error) {
	var out []model.Expense
	err := s.db.WithContext(ctx).
		Where("status = ?", model.ExpensePending).
		Order("due_date, id").
		Find(&out).Error
	if err != nil {
		return nil, translate(err, "listing pending expenses")
	}
	return out, nil
}

// ListExpensesForTransaction returns expenses created from a bank transaction.
func (s *Store) ListExpensesForTransaction(ctx context.Context, txID string) ([]model.Expense, error) {
	var out []model.Expense
	if err := s.db.WithContext(ctx).Where("bank_transaction_id = ?", txID).Order("created_at, id").Find(&out).Error; err != nil {
		return nil, translate(err, "listing expenses")
	}
	return out, nil
}

// GetExpense loads one expense.
func (s *Store) GetExpense(ctx context.Context, id string) (*model.Expense, error) {
	var e model.Expense
	if err := s.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, translate(err, "expense "+id)
	}
	return &e, nil
}
