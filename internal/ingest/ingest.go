// Package ingest runs bank files through parsing, classification and
// persistence, producing one Import record per file.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/studiops/bankrecon/internal/apperr"
	"github.com/studiops/bankrecon/internal/categories"
	"github.com/studiops/bankrecon/internal/classify"
	"github.com/studiops/bankrecon/internal/id"
	"github.com/studiops/bankrecon/internal/importer"
	"github.com/studiops/bankrecon/internal/model"
	"github.com/studiops/bankrecon/internal/textutil"
)

// Store is the persistence the pipeline needs.
type Store interface {
	// FindActiveImportByHash returns the processing or completed import
	// holding hash, or nil when there is none.
	FindActiveImportByHash(ctx context.Context, hash string) (*model.Import, error)
	// CreateImport fails with apperr.ErrDuplicate when the dedup key is taken.
	CreateImport(ctx context.Context, imp *model.Import) error
	UpdateImport(ctx context.Context, imp *model.Import) error
	// CompleteImport stores txs and writes imp in one transaction: either
	// both persist or neither does.
	CompleteImport(ctx context.Context, imp *model.Import, txs []model.BankTransaction) error
	EnsureCategory(ctx context.Context, name string) (*model.Category, error)
	CreateExpense(ctx context.Context, e *model.Expense) error
}

// Request is one file submitted for ingestion.
type Request struct {
	Content  []byte
	FileName string
	FileType string // empty means "use the file name extension"
	Actor    string
}

// Period is the statement date range.
type Period struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// Summary describes what an ingestion stored.
type Summary struct {
	TotalTransactions     int    `json:"totalTransactions"`
	SkippedBalanceEntries int    `json:"skippedBalanceEntries"`
	SkippedDuplicates     int    `json:"skippedDuplicates"`
	TotalCredits          int64  `json:"totalCredits"`
	TotalDebits           int64  `json:"totalDebits"`
	Bank                  string `json:"bank"`
	Account               string `json:"account"`
	Period                Period `json:"period"`
	ExpensesCreated       int    `json:"expensesCreated"`
}

// Result is returned for a completed import.
type Result struct {
	ImportID string  `json:"importId"`
	Summary  Summary `json:"summary"`
}

// Service runs the import pipeline.
type Service struct {
	store    Store
	registry *importer.Registry
	resolver *categories.Resolver
	logger   *slog.Logger
	maxBytes int64
}

// Option configures a Service.
type Option func(*Service)

// WithMaxFileBytes rejects larger payloads; zero disables the limit.
func WithMaxFileBytes(n int64) Option {
	return func(s *Service) { s.maxBytes = n }
}

// NewService creates a pipeline over store.
func NewService(store Store, registry *importer.Registry, resolver *categories.Resolver, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = categories.NewResolver(nil, "")
	}
	s := &Service{
		store:    store,
		registry: registry,
		resolver: resolver,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hash returns the hex SHA-256 of content, the duplicate-file key.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// DecodeContent turns a text payload into file bytes. Spreadsheets travel as
// base64 (optionally as a data URL); text formats are taken as-is.
func DecodeContent(content string, ft model.FileType) ([]byte, error) {
	if !ft.IsSpreadsheet() {
		return []byte(content), nil
	}
	if i := strings.Index(content, ";base64,"); i >= 0 && strings.HasPrefix(content, "data:") {
		content = content[i+len(";base64,"):]
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content))
	if err != nil {
		return nil, fmt.Errorf("decoding base64 %s content: %w", ft, err)
	}
	return b, nil
}

// ResolveFileType returns the declared type, or the one implied by fileName.
func ResolveFileType(declared, fileName string) (model.FileType, bool) {
	if strings.TrimSpace(declared) != "" {
		return model.ParseFileType(declared)
	}
	return model.ParseFileType(filepath.Ext(fileName))
}

// Ingest parses, classifies and stores one file. It never leaves the import
// in processing: every failure after creation marks it failed.
func (s *Service) Ingest(ctx context.Context, req Request) (*Result, error) {
	fileName := strings.TrimSpace(req.FileName)
	if len(req.Content) == 0 {
		return nil, apperr.Invalid("file content is required")
	}
	if fileName == "" {
		return nil, apperr.Invalid("file name is required")
	}
	ft, ok := ResolveFileType(req.FileType, fileName)
	if !ok {
		return nil, apperr.Invalid("unsupported file type").WithDetails(fmt.Sprintf("%q is not one of ofx, csv, xlsx, xls", req.FileType))
	}
	parser := s.registry.Get(string(ft))
	if parser == nil {
		return nil, apperr.Invalid("no parser registered for %s", ft)
	}
	if s.maxBytes > 0 && int64(len(req.Content)) > s.maxBytes {
		return nil, apperr.Invalid("file too large").WithDetails(fmt.Sprintf("%d bytes exceeds the %d byte limit", len(req.Content), s.maxBytes))
	}
	actor := req.Actor
	if actor == "" {
		actor = "system"
	}

	hash := Hash(req.Content)
	if err := s.checkDuplicate(ctx, hash); err != nil {
		return nil, err
	}

	imp := &model.Import{
		ID:          id.New(),
		FileName:    fileName,
		FileType:    ft,
		Status:      model.ImportProcessing,
		ContentHash: hash,
		DedupKey:    &hash,
		ImportedBy:  actor,
	}
	if err := s.store.CreateImport(ctx, imp); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			if dupErr := s.checkDuplicate(ctx, hash); dupErr != nil {
				return nil, dupErr
			}
			return nil, apperr.Conflict("file already imported")
		}
		return nil, apperr.Internal(err, "creating import")
	}

	log := s.logger.With("import_id", imp.ID, "file", fileName, "type", ft)
	log.Info("import started", "bytes", len(req.Content), "actor", actor)

	st, err := parser.Parse(req.Content)
	if err != nil {
		s.fail(ctx, log, imp, err)
		return nil, apperr.Internal(err, "parsing %s file", ft)
	}

	txs, summary := s.build(imp.ID, st)

	imp.Status = model.ImportCompleted
	imp.BankID = st.BankID
	imp.AccountID = st.AccountID
	imp.PeriodStart = summary.Period.Start
	imp.PeriodEnd = summary.Period.End
	imp.TotalTransactions = summary.TotalTransactions
	imp.SkippedBalanceEntries = summary.SkippedBalanceEntries
	imp.SkippedDuplicates = summary.SkippedDuplicates
	imp.TotalCreditsCents = summary.TotalCredits
	imp.TotalDebitsCents = summary.TotalDebits
	if err := s.store.CompleteImport(ctx, imp, txs); err != nil {
		s.fail(ctx, log, imp, err)
		return nil, apperr.Internal(err, "storing transactions")
	}

	// The import is committed with its dedup key from here on; later
	// failures are logged and never release the key.
	summary.ExpensesCreated = s.createExpenses(ctx, log, imp, txs)
	if summary.ExpensesCreated > 0 {
		imp.ExpensesCreated = summary.ExpensesCreated
		if err := s.store.UpdateImport(context.WithoutCancel(ctx), imp); err != nil {
			log.Warn("recording expense count failed", "expenses", summary.ExpensesCreated, "error", err)
		}
	}

	log.Info("import completed",
		"transactions", summary.TotalTransactions,
		"balance_entries", summary.SkippedBalanceEntries,
		"duplicates", summary.SkippedDuplicates,
		"expenses", summary.ExpensesCreated,
	)
	return &Result{ImportID: imp.ID, Summary: summary}, nil
}

func (s *Service) checkDuplicate(ctx context.Context, hash string) error {
	prior, err := s.store.FindActiveImportByHash(ctx, hash)
	if err != nil {
		return apperr.Internal(err, "checking for duplicate import")
	}
	if prior != nil {
		return apperr.Conflict("file already imported").
			WithDetails(fmt.Sprintf("import %s (%s, %s)", prior.ID, prior.FileName, prior.Status))
	}
	return nil
}

// build classifies the parsed rows, dropping balance entries and repeated
// external ids.
func (s *Service) build(importID string, st *model.Statement) ([]model.BankTransaction, Summary) {
	summary := Summary{Bank: st.BankID, Account: st.AccountID}
	if !st.PeriodStart.IsZero() {
		start := st.PeriodStart
		summary.Period.Start = &start
	}
	if !st.PeriodEnd.IsZero() {
		end := st.PeriodEnd
		summary.Period.End = &end
	}

	seen := make(map[string]bool, len(st.Transactions))
	txs := make([]model.BankTransaction, 0, len(st.Transactions))
	for _, raw := range st.Transactions {
		res := classify.Classify(raw.Memo, raw.Type)
		if res.IsBalanceEntry {
			summary.SkippedBalanceEntries++
			continue
		}
		if seen[raw.ExternalID] {
			summary.SkippedDuplicates++
			continue
		}
		seen[raw.ExternalID] = true

		tx := model.BankTransaction{
			ID:          id.New(),
			ImportID:    importID,
			FitID:       raw.ExternalID,
			Direction:   raw.Type,
			PostedDate:  raw.PostedDate,
			AmountCents: raw.AmountCents,
			Memo:        raw.Memo,
			Kind:        res.Kind,
			MatchStatus: model.MatchUnmatched,
		}
		if res.CounterpartyName != "" {
			name := res.CounterpartyName
			tx.CounterpartyName = &name
		}
		if res.CounterpartyDocument != "" {
			doc := res.CounterpartyDocument
			tx.CounterpartyDocument = &doc
		}
		txs = append(txs, tx)

		if raw.Type == model.DirectionDebit {
			summary.TotalDebits += raw.AmountCents
		} else {
			summary.TotalCredits += raw.AmountCents
		}
	}
	summary.TotalTransactions = len(txs)
	return txs, summary
}

// createExpenses records a paid expense for every debit. Failures are logged
// and skipped.
func (s *Service) createExpenses(ctx context.Context, log *slog.Logger, imp *model.Import, txs []model.BankTransaction) int {
	cats := map[string]*model.Category{}
	created := 0
	for i := range txs {
		tx := &txs[i]
		if tx.Direction != model.DirectionDebit {
			continue
		}

		name := s.resolver.Resolve(tx.Memo)
		cat, ok := cats[name]
		if !ok {
			var err error
			cat, err = s.store.EnsureCategory(ctx, name)
			if err != nil {
				log.Warn("auto-expense category failed", "category", name, "error", err)
				continue
			}
			cats[name] = cat
		}

		posted := tx.PostedDate
		txID := tx.ID
		exp := &model.Expense{
			ID:                id.New(),
			Description:       expenseDescription(tx),
			AmountCents:       tx.AmountCents,
			DueDate:           posted,
			Status:            model.ExpensePaid,
			PaidDate:          &posted,
			CategoryID:        &cat.ID,
			Notes:             fmt.Sprintf("Created from bank import %s (%s)", imp.ID, imp.FileName),
			Source:            model.SourceBankImport,
			BankTransactionID: &txID,
		}
		if err := s.store.CreateExpense(ctx, exp); err != nil {
			log.Warn("auto-expense failed", "transaction_id", tx.ID, "error", err)
			continue
		}
		created++
	}
	return created
}

func expenseDescription(tx *model.BankTransaction) string {
	desc := strings.TrimSpace(tx.Memo)
	if desc == "" {
		desc = tx.Counterparty()
	}
	if desc == "" {
		desc = "Bank debit " + tx.FitID
	}
	return textutil.Truncate(desc, model.DescriptionMaxLen)
}

// fail marks imp failed and releases its dedup key so the file can be
// retried. It runs even when ctx is already cancelled.
func (s *Service) fail(ctx context.Context, log *slog.Logger, imp *model.Import, cause error) {
	imp.Status = model.ImportFailed
	imp.ErrorMessage = cause.Error()
	imp.DedupKey = nil
	if err := s.store.UpdateImport(context.WithoutCancel(ctx), imp); err != nil {
		log.Error("marking import failed", "error", err, "cause", cause)
		return
	}
	log.Warn("import failed", "error", cause)
}
