// Package matching pairs bank transactions with open invoices and expenses.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/studiops/bankrecon/internal/apperr"
	"github.com/studiops/bankrecon/internal/id"
	"github.com/studiops/bankrecon/internal/model"
	"github.com/studiops/bankrecon/internal/textutil"
)

// Store is the persistence the engine and review operations need.
type Store interface {
	GetImport(ctx context.Context, id string) (*model.Import, error)
	// ListMatchableTransactions returns unmatched, non-balance transactions,
	// limited to importID when it is not empty.
	ListMatchableTransactions(ctx context.Context, importID string) ([]model.BankTransaction, error)
	ListOpenInvoices(ctx context.Context) ([]model.Invoice, error)
	ListPendingExpenses(ctx context.Context) ([]model.Expense, error)
	GetTransaction(ctx context.Context, id string) (*model.BankTransaction, error)
	GetInvoice(ctx context.Context, id string) (*model.Invoice, error)
	GetExpense(ctx context.Context, id string) (*model.Expense, error)
	// ApplyMatch updates the transaction and its target atomically. It fails
	// with apperr.ErrStale when the transaction is no longer unmatched or the
	// target is no longer open.
	ApplyMatch(ctx context.Context, app model.MatchApplication) error
	// MarkIgnored fails with apperr.ErrStale unless the transaction is unmatched.
	MarkIgnored(ctx context.Context, txID, actor string, at time.Time) error
	EnsureCategory(ctx context.Context, name string) (*model.Category, error)
	CreateExpense(ctx context.Context, e *model.Expense) error
}

// Request scopes a matching run.
type Request struct {
	ImportID  string `json:"importId,omitempty"`
	AutoApply bool   `json:"autoApply"`
	Actor     string `json:"-"`
}

// Stats summarizes a run.
type Stats struct {
	TotalTransactions int `json:"totalTransactions"`
	TotalMatches      int `json:"totalMatches"`
	HighConfidence    int `json:"highConfidence"`
	MediumConfidence  int `json:"mediumConfidence"`
	LowConfidence     int `json:"lowConfidence"`
	AutoApplied       int `json:"autoApplied"`
}

// Result is the outcome of a run.
type Result struct {
	Suggestions []model.MatchSuggestion `json:"matches"`
	Stats       Stats                   `json:"stats"`
}

// Engine runs matching and review operations against a Store.
type Engine struct {
	store  Store
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
	guard  *Guard
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now for matched-at stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine.
func NewEngine(store Store, cfg Config, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		guard:  &Guard{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine's scoring configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Run scores open items and, with AutoApply, applies every high-confidence
// suggestion. Concurrent runs for the same scope share one execution.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	res, shared, err := e.guard.Do(req.ImportID, req.AutoApply, func() (*Result, error) {
		return e.run(ctx, req)
	})
	if shared {
		e.logger.Info("joined in-flight matching run", "import_id", req.ImportID)
	}
	return res, err
}

func (e *Engine) run(ctx context.Context, req Request) (*Result, error) {
	if req.ImportID != "" {
		if _, err := e.store.GetImport(ctx, req.ImportID); err != nil {
			return nil, lookupError(err, "import", req.ImportID)
		}
	}

	txs, err := e.store.ListMatchableTransactions(ctx, req.ImportID)
	if err != nil {
		return nil, apperr.Internal(err, "loading transactions")
	}
	invoices, err := e.store.ListOpenInvoices(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "loading invoices")
	}
	expenses, err := e.store.ListPendingExpenses(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "loading expenses")
	}

	suggestions := Suggest(txs, invoices, expenses, e.cfg)
	res := &Result{Suggestions: suggestions}
	for _, tx := range txs {
		if tx.Matchable() {
			res.Stats.TotalTransactions++
		}
	}
	res.Stats.TotalMatches = len(suggestions)
	for _, s := range suggestions {
		switch s.Confidence {
		case model.ConfidenceHigh:
			res.Stats.HighConfidence++
		case model.ConfidenceMedium:
			res.Stats.MediumConfidence++
		case model.ConfidenceLow:
			res.Stats.LowConfidence++
		}
	}
	if res.Suggestions == nil {
		res.Suggestions = []model.MatchSuggestion{}
	}

	if req.AutoApply {
		applied, err := e.autoApply(ctx, txs, suggestions, actorOrSystem(req.Actor))
		res.Stats.AutoApplied = applied
		if err != nil {
			e.logger.Error("auto-apply stopped", "import_id", req.ImportID, "applied", applied, "error", err)
			return nil, err.WithDetails(fmt.Sprintf("%d matches applied before the failure", applied))
		}
	}

	e.logger.Info("matching run finished",
		"import_id", req.ImportID,
		"transactions", res.Stats.TotalTransactions,
		"matches", res.Stats.TotalMatches,
		"high", res.Stats.HighConfidence,
		"auto_applied", res.Stats.AutoApplied,
	)
	return res, nil
}

func (e *Engine) autoApply(ctx context.Context, txs []model.BankTransaction, suggestions []model.MatchSuggestion, actor string) (int, *apperr.Error) {
	byID := make(map[string]*model.BankTransaction, len(txs))
	for i := range txs {
		byID[txs[i].ID] = &txs[i]
	}

	applied := 0
	for _, s := range suggestions {
		if s.Confidence != model.ConfidenceHigh {
			continue
		}
		tx := byID[s.TransactionID]
		conf := s.Confidence
		app := model.MatchApplication{
			TransactionID:     s.TransactionID,
			Status:            model.MatchAutoMatched,
			Confidence:        &conf,
			TargetType:        s.MatchedType,
			TargetID:          s.MatchedID,
			ProcessorFeeCents: s.ProcessorFeeCents,
			PaidDate:          tx.PostedDate,
			MatchedAt:         e.now().UTC(),
			MatchedBy:         actor,
		}
		if err := e.store.ApplyMatch(ctx, app); err != nil {
			if errors.Is(err, apperr.ErrStale) {
				e.logger.Info("skipping match applied elsewhere", "transaction_id", s.TransactionID, "target_id", s.MatchedID)
				continue
			}
			return applied, apperr.Internal(err, "applying match for transaction %s", s.TransactionID)
		}
		applied++
		e.postFee(ctx, tx, s.ProcessorFeeCents)
	}
	return applied, nil
}

// postFee records the acquirer's processor fee as a paid expense. Failures
// are logged only.
func (e *Engine) postFee(ctx context.Context, tx *model.BankTransaction, fee *int64) {
	if fee == nil || *fee <= 0 {
		return
	}
	log := e.logger.With("transaction_id", tx.ID, "fee_cents", *fee)

	cat, err := e.store.EnsureCategory(ctx, e.cfg.FeeCategory)
	if err != nil {
		log.Warn("processor fee category failed", "error", err)
		return
	}
	posted := tx.PostedDate
	txID := tx.ID
	exp := &model.Expense{
		ID:                id.New(),
		Description:       textutil.Truncate("Processor fee: "+tx.Memo, model.DescriptionMaxLen),
		AmountCents:       *fee,
		DueDate:           posted,
		Status:            model.ExpensePaid,
		PaidDate:          &posted,
		CategoryID:        &cat.ID,
		Notes:             fmt.Sprintf("Card settlement fee detected on transaction %s", tx.ID),
		Source:            model.SourceAutoDetected,
		BankTransactionID: &txID,
	}
	if err := e.store.CreateExpense(ctx, exp); err != nil {
		log.Warn("processor fee expense failed", "error", err)
		return
	}
	log.Info("processor fee posted")
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return "system"
	}
	return actor
}

func lookupError(err error, what, key string) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.NotFound("%s %s not found", what, key)
	}
	return apperr.Internal(err, "loading %s %s", what, key)
}
