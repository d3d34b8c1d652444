package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiops/bankrecon/internal/apperr"
	"github.com/studiops/bankrecon/internal/categories"
	"github.com/studiops/bankrecon/internal/importer"
	"github.com/studiops/bankrecon/internal/model"
)

type fakeStore struct {
	mu         sync.Mutex
	imports    map[string]*model.Import
	txs        []model.BankTransaction
	categories map[string]*model.Category
	expenses   []model.Expense

	createImportErr error
	insertErr       error
	updateErr       error
	expenseErr      error
	categoryErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		imports:    map[string]*model.Import{},
		categories: map[string]*model.Category{},
	}
}

func (f *fakeStore) FindActiveImportByHash(_ context.Context, hash string) (*model.Import, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, imp := range f.imports {
		if imp.DedupKey != nil && *imp.DedupKey == hash {
			cp := *imp
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateImport(_ context.Context, imp *model.Import) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createImportErr != nil {
		return f.createImportErr
	}
	cp := *imp
	f.imports[imp.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateImport(_ context.Context, imp *model.Import) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.imports[imp.ID]; !ok {
		return apperr.ErrNotFound
	}
	cp := *imp
	f.imports[imp.ID] = &cp
	return nil
}

func (f *fakeStore) CompleteImport(_ context.Context, imp *model.Import, txs []model.BankTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.imports[imp.ID]; !ok {
		return apperr.ErrNotFound
	}
	cp := *imp
	f.imports[imp.ID] = &cp
	f.txs = append(f.txs, txs...)
	return nil
}

func (f *fakeStore) EnsureCategory(_ context.Context, name string) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.categoryErr != nil {
		return nil, f.categoryErr
	}
	if c, ok := f.categories[name]; ok {
		return c, nil
	}
	c := &model.Category{ID: fmt.Sprintf("cat-%d", len(f.categories)+1), Name: name}
	f.categories[name] = c
	return c, nil
}

func (f *fakeStore) CreateExpense(_ context.Context, e *model.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.expenseErr != nil {
		return f.expenseErr
	}
	f.expenses = append(f.expenses, *e)
	return nil
}

func (f *fakeStore) onlyImport(t *testing.T) *model.Import {
	t.Helper()
	require.Len(t, f.imports, 1)
	for _, imp := range f.imports {
		return imp
	}
	return nil
}

func newTestService(store Store, opts ...Option) *Service {
	now := func() time.Time { return time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC) }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := categories.NewResolver(categories.DefaultRules(), "")
	return NewService(store, importer.DefaultRegistry(now), resolver, logger, opts...)
}

const sampleOFX = `<OFX>
<BANKID>0341
<ACCTID>12345-6
<DTSTART>20240301
<DTEND>20240331
<STMTTRN><TRNTYPE>CREDIT<DTPOSTED>20240310<TRNAMT>150.00<FITID>A1<MEMO>PIX RECEBIDO MARIA SOUZA 123.456.789-00</STMTTRN>
<STMTTRN><TRNTYPE>DEBIT<DTPOSTED>20240311<TRNAMT>-89.90<FITID>A2<MEMO>BOLETO PAGO ENEL DISTRIBUICAO</STMTTRN>
<STMTTRN><TRNTYPE>CREDIT<DTPOSTED>20240315<TRNAMT>2500.00<FITID>A3<MEMO>SALDO TOTAL DISPONIVEL DIA</STMTTRN>
<STMTTRN><TRNTYPE>DEBIT<DTPOSTED>20240316<TRNAMT>-20.00<FITID>A4<MEMO>TARIFA PACOTE</STMTTRN>
</OFX>`

func TestIngest_OFX(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	res, err := svc.Ingest(context.Background(), Request{
		Content:  []byte(sampleOFX),
		FileName: "extrato-marco.ofx",
		Actor:    "ana",
	})
	require.NoError(t, err)

	s := res.Summary
	assert.Equal(t, 3, s.TotalTransactions)
	assert.Equal(t, 1, s.SkippedBalanceEntries)
	assert.Equal(t, 0, s.SkippedDuplicates)
	assert.Equal(t, int64(15000), s.TotalCredits)
	assert.Equal(t, int64(10990), s.TotalDebits)
	assert.Equal(t, "0341", s.Bank)
	assert.Equal(t, "12345-6", s.Account)
	require.NotNil(t, s.Period.Start)
	assert.Equal(t, model.Date(2024, 3, 1), *s.Period.Start)
	assert.Equal(t, model.Date(2024, 3, 31), *s.Period.End)
	assert.Equal(t, 2, s.ExpensesCreated)

	imp := store.onlyImport(t)
	assert.Equal(t, res.ImportID, imp.ID)
	assert.Equal(t, model.ImportCompleted, imp.Status)
	assert.Equal(t, model.FileTypeOFX, imp.FileType)
	assert.Equal(t, "ana", imp.ImportedBy)
	require.NotNil(t, imp.DedupKey)
	assert.Equal(t, imp.ContentHash, *imp.DedupKey)
	assert.Equal(t, 3, imp.TotalTransactions)
	assert.Equal(t, int64(10990), imp.TotalDebitsCents)

	require.Len(t, store.txs, 3)
	pix := store.txs[0]
	assert.Equal(t, model.KindPixReceived, pix.Kind)
	assert.Equal(t, "MARIA SOUZA", pix.Counterparty())
	require.NotNil(t, pix.CounterpartyDocument)
	assert.Equal(t, "123.456.789-00", *pix.CounterpartyDocument)
	assert.Equal(t, model.MatchUnmatched, pix.MatchStatus)
	for _, tx := range store.txs {
		assert.False(t, tx.IsBalanceEntry)
		assert.NotEqual(t, "A3", tx.FitID)
	}

	require.Len(t, store.expenses, 2)
	byDesc := map[string]model.Expense{}
	for _, e := range store.expenses {
		byDesc[e.Description] = e
	}
	enel := byDesc["BOLETO PAGO ENEL DISTRIBUICAO"]
	assert.Equal(t, int64(8990), enel.AmountCents)
	assert.Equal(t, model.ExpensePaid, enel.Status)
	assert.Equal(t, model.SourceBankImport, enel.Source)
	require.NotNil(t, enel.PaidDate)
	assert.Equal(t, model.Date(2024, 3, 11), *enel.PaidDate)
	assert.Equal(t, store.categories["Contas de consumo"].ID, *enel.CategoryID)
	assert.Contains(t, enel.Notes, res.ImportID)

	assert.Equal(t, store.categories["Tarifas bancárias"].ID, *byDesc["TARIFA PACOTE"].CategoryID)
}

func TestIngest_DuplicateFile(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	req := Request{Content: []byte(sampleOFX), FileName: "a.ofx"}

	first, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)

	req.FileName = "renamed.ofx"
	_, err = svc.Ingest(context.Background(), req)
	require.Error(t, err)
	ae := apperr.As(err)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
	assert.Contains(t, ae.Details, first.ImportID)

	assert.Len(t, store.imports, 1)
	assert.Len(t, store.txs, 3)
}

func TestIngest_DuplicateRace(t *testing.T) {
	store := newFakeStore()
	store.createImportErr = fmt.Errorf("insert: %w", apperr.ErrDuplicate)
	svc := newTestService(store)

	_, err := svc.Ingest(context.Background(), Request{Content: []byte(sampleOFX), FileName: "a.ofx"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestIngest_ParseFailureMarksFailedAndAllowsRetry(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	req := Request{Content: []byte("nothing;useful\n1;2\n"), FileName: "broken.csv"}

	_, err := svc.Ingest(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInternal))

	imp := store.onlyImport(t)
	assert.Equal(t, model.ImportFailed, imp.Status)
	assert.Nil(t, imp.DedupKey)
	assert.Contains(t, imp.ErrorMessage, "no header row")

	// A failed import does not block the same file.
	_, err = svc.Ingest(context.Background(), req)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
	assert.Len(t, store.imports, 2)
}

func TestIngest_InsertFailure(t *testing.T) {
	store := newFakeStore()
	store.insertErr = errors.New("disk full")
	svc := newTestService(store)

	_, err := svc.Ingest(context.Background(), Request{Content: []byte(sampleOFX), FileName: "a.ofx"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInternal))

	imp := store.onlyImport(t)
	assert.Equal(t, model.ImportFailed, imp.Status)
	assert.Equal(t, "disk full", imp.ErrorMessage)
	assert.Empty(t, store.expenses)
	assert.Empty(t, store.categories)
}

func TestIngest_CompletionFailureLeavesNothingBehind(t *testing.T) {
	store := newFakeStore()
	store.insertErr = errors.New("connection reset")
	svc := newTestService(store)
	req := Request{Content: []byte(sampleOFX), FileName: "a.ofx"}

	_, err := svc.Ingest(context.Background(), req)
	require.Error(t, err)
	imp := store.onlyImport(t)
	assert.Equal(t, model.ImportFailed, imp.Status)
	assert.Nil(t, imp.DedupKey)
	assert.Empty(t, store.txs)
	assert.Empty(t, store.expenses)

	// The retry stores every row exactly once.
	store.insertErr = nil
	res, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, store.txs, 3)
	assert.Len(t, store.expenses, 2)
	assert.Equal(t, model.ImportCompleted, store.imports[res.ImportID].Status)
}

func TestIngest_ExpenseCountFailureKeepsImport(t *testing.T) {
	store := newFakeStore()
	store.updateErr = errors.New("connection reset")
	svc := newTestService(store)
	req := Request{Content: []byte(sampleOFX), FileName: "a.ofx"}

	res, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Summary.ExpensesCreated)

	imp := store.onlyImport(t)
	assert.Equal(t, model.ImportCompleted, imp.Status)
	require.NotNil(t, imp.DedupKey)
	assert.Equal(t, 0, imp.ExpensesCreated)

	// The committed import still blocks a second copy of the file.
	_, err = svc.Ingest(context.Background(), req)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Len(t, store.txs, 3)
	assert.Len(t, store.expenses, 2)
}

func TestIngest_ExpenseFailureIsBestEffort(t *testing.T) {
	for name, setup := range map[string]func(*fakeStore){
		"expense":  func(f *fakeStore) { f.expenseErr = errors.New("constraint") },
		"category": func(f *fakeStore) { f.categoryErr = errors.New("constraint") },
	} {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			setup(store)
			svc := newTestService(store)

			res, err := svc.Ingest(context.Background(), Request{Content: []byte(sampleOFX), FileName: "a.ofx"})
			require.NoError(t, err)
			assert.Equal(t, 0, res.Summary.ExpensesCreated)
			assert.Equal(t, model.ImportCompleted, store.onlyImport(t).Status)
		})
	}
}

func TestIngest_DropsRepeatedExternalIDs(t *testing.T) {
	doc := `<OFX>
<STMTTRN><TRNTYPE>CREDIT<DTPOSTED>20240310<TRNAMT>10.00<FITID>SAME<MEMO>PIX RECEBIDO A</STMTTRN>
<STMTTRN><TRNTYPE>CREDIT<DTPOSTED>20240310<TRNAMT>10.00<FITID>SAME<MEMO>PIX RECEBIDO A</STMTTRN>
<STMTTRN><TRNTYPE>CREDIT<DTPOSTED>20240311<TRNAMT>30.00<FITID>OTHER<MEMO>PIX RECEBIDO B</STMTTRN>
</OFX>`
	store := newFakeStore()
	res, err := newTestService(store).Ingest(context.Background(), Request{Content: []byte(doc), FileName: "d.ofx"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Summary.TotalTransactions)
	assert.Equal(t, 1, res.Summary.SkippedDuplicates)
	assert.Equal(t, int64(4000), res.Summary.TotalCredits)
}

func TestIngest_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"no content", Request{FileName: "a.ofx"}, "file content is required"},
		{"no name", Request{Content: []byte("x"), FileName: "  "}, "file name is required"},
		{"bad declared type", Request{Content: []byte("x"), FileName: "a.ofx", FileType: "pdf"}, "unsupported file type"},
		{"bad extension", Request{Content: []byte("x"), FileName: "a.txt"}, "unsupported file type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			_, err := newTestService(store).Ingest(context.Background(), tt.req)
			require.Error(t, err)
			ae := apperr.As(err)
			assert.Equal(t, apperr.KindInvalid, ae.Kind)
			assert.Contains(t, ae.Message, tt.want)
			assert.Empty(t, store.imports)
		})
	}
}

func TestIngest_MaxFileBytes(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, WithMaxFileBytes(10))
	_, err := svc.Ingest(context.Background(), Request{Content: []byte(sampleOFX), FileName: "a.ofx"})
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
	assert.Empty(t, store.imports)
}

func TestIngest_Idempotent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	req := Request{Content: []byte(sampleOFX), FileName: "a.ofx"}

	_, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = svc.Ingest(context.Background(), req)
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	}
	assert.Len(t, store.txs, 3)
	assert.Len(t, store.expenses, 2)
}

func TestDecodeContent(t *testing.T) {
	raw := []byte{0x50, 0x4b, 0x03, 0x04, 0xff}
	enc := base64.StdEncoding.EncodeToString(raw)

	got, err := DecodeContent(enc, model.FileTypeXLSX)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = DecodeContent("data:application/vnd.ms-excel;base64,"+enc, model.FileTypeXLS)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = DecodeContent("Data;Valor", model.FileTypeCSV)
	require.NoError(t, err)
	assert.Equal(t, []byte("Data;Valor"), got)

	_, err = DecodeContent("%%%", model.FileTypeXLSX)
	assert.Error(t, err)
}

func TestResolveFileType(t *testing.T) {
	ft, ok := ResolveFileType("", "Fatura.XLSX")
	assert.True(t, ok)
	assert.Equal(t, model.FileTypeXLSX, ft)

	ft, ok = ResolveFileType("OFX", "whatever.csv")
	assert.True(t, ok)
	assert.Equal(t, model.FileTypeOFX, ft)

	_, ok = ResolveFileType("", "notes")
	assert.False(t, ok)
}

func TestHash(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(nil))
	assert.Len(t, Hash([]byte(sampleOFX)), 64)
}
