package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/studiops/bankrecon/internal/apperr"
	"github.com/studiops/bankrecon/internal/model"
)

const insertBatchSize = 200

// InsertTransactions stores all rows in one database transaction.
func (s *Store) InsertTransactions(ctx context.Context, txs []model.BankTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(txs, insertBatchSize).Error
	})
	return translate(err, "inserting transactions")
}

// CompleteImport stores txs and saves imp in one database transaction.
// When either write fails neither persists.
func (s *Store) CompleteImport(ctx context.Context, imp *model.Import, txs []model.BankTransaction) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(txs) > 0 {
			if err := tx.CreateInBatches(txs, insertBatchSize).Error; err != nil {
				return err
			}
		}
		return tx.Save(imp).Error
	})
	return translate(err, "completing import")
}

// TransactionFilter narrows ListTransactions. Zero values match everything.
type TransactionFilter struct {
	ImportID string
	Status   model.MatchStatus
	Limit    int
}

// ListTransactions returns transactions by posted date.
func (s *Store) ListTransactions(ctx context.Context, f TransactionFilter) ([]model.BankTransaction, error) {
	q := s.db.WithContext(ctx).Order("posted_date, id")
	if f.ImportID != "" {
		q = q.Where("import_id = ?", f.ImportID)
	}
	if f.Status != "" {
		q = q.Where("match_status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []model.BankTransaction
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err, "listing transactions")
	}
	return out, nil
}

// ListMatchableTransactions returns unmatched, non-balance transactions,
// limited to importID when it is not empty.
func (s *Store) ListMatchableTransactions(ctx context.Context, importID string) ([]model.BankTransaction, error) {
	q := s.db.WithContext(ctx).
		Where("match_status = ? AND is_balance_entry = ?", model.MatchUnmatched, false).
		Order("posted_date, id")
	if importID != "" {
		q = q.Where("import_id = ?", importID)
	}
	var out []model.BankTransaction
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err, "listing matchable transactions")
	}
	return out, nil
}

// GetTransaction loads one transaction.
func (s *Store) GetTransaction(ctx context.Context, id string) (*model.BankTransaction, error) {
	var tx model.BankTransaction
	if err := s.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		return nil, translate(err, "transaction "+id)
	}
	return &tx, nil
}

// ApplyMatch marks the transaction matched and its target paid in one
// database transaction. Both updates are conditional; if either row has
// moved on the whole application is rolled back with apperr.ErrStale.
func (s *Store) ApplyMatch(ctx context.Context, app model.MatchApplication) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.BankTransaction{}).
			Where("id = ? AND match_status = ?", app.TransactionID, model.MatchUnmatched).
			Updates(map[string]any{
				"match_status":        app.Status,
				"match_confidence":    app.Confidence,
				"matched_type":        app.TargetType,
				"matched_id":          app.TargetID,
				"matched_at":          app.MatchedAt,
				"matched_by":          app.MatchedBy,
				"processor_fee_cents": app.ProcessorFeeCents,
			})
		if res.Error != nil {
			return translate(res.Error, "updating transaction")
		}
		if res.RowsAffected == 0 {
			return apperr.ErrStale
		}

		switch app.TargetType {
		case model.TargetInvoice:
			res = tx.Model(&model.Invoice{}).
				Where("id = ? AND status IN ?", app.TargetID, []model.InvoiceStatus{model.InvoicePending, model.InvoiceOverdue}).
				Updates(map[string]any{"status": model.InvoicePaid, "paid_date": app.PaidDate})
		case model.TargetExpense:
			res = tx.Model(&model.Expense{}).
				Where("id = ? AND status = ?", app.TargetID, model.ExpensePending).
				Updates(map[string]any{"status": model.ExpensePaid, "paid_date": app.PaidDate})
		default:
			return apperr.Invalid("unknown target type %q", app.TargetType)
		}
		if res.Error != nil {
			return translate(res.Error, "updating target")
		}
		if res.RowsAffected == 0 {
			return apperr.ErrStale
		}
		return nil
	})
}

// MarkIgnored excludes an unmatched transaction from matching.
func (s *Store) MarkIgnored(ctx context.Context, txID, actor string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&model.BankTransaction{}).
		Where("id = ? AND match_status = ?", txID, model.MatchUnmatched).
		Updates(map[string]any{
			"match_status": model.MatchIgnored,
			"matched_at":   at,
			"matched_by":   actor,
		})
	if res.Error != nil {
		return translate(res.Error, "ignoring transaction")
	}
	if res.RowsAffected == 0 {
		return apperr.ErrStale
	}
	return nil
}
