package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/studiops/bankrecon/internal/model"
)

// workbook builds an in-memory XLSX with one sheet per entry of sheets.
func workbook(t *testing.T, sheets map[string][][]any, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			for c, v := range row {
				if v == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(name, cell, v))
			}
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func fixedNow(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 12, 0, 0, 0, time.UTC) }
}

func cardStatement() [][]any {
	return [][]any{
		{"Banco Itaú - Fatura do cartão final 4321"},
		{"Vencimento", "10/04/2024"},
		{},
		{"Data", "Descrição", "", "Valor"},
		{"15/03", "ACADEMIA EQUIPAMENTOS", "R$", 250.5},
		{"20/12", "ASSINATURA SOFTWARE", "R$", 99.9},
		{"25/mar", "PAGAMENTO FATURA", "R$", -1500},
		{time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC), "MATERIAL LIMPEZA", "", "1.234,56"},
		{"28/03", "TOTAL DA FATURA", "R$", 850.4},
		{"29/03", "Repasse de IOF", "R$", 3.2},
		{"30/03", "ESTORNO", "R$", 0},
		{"", "Subtotal", "", 350.4},
	}
}

func TestXLSXParser_CardStatement(t *testing.T) {
	content := workbook(t, map[string][][]any{"Fatura": cardStatement()}, "Fatura")

	st, err := (&XLSXParser{Now: fixedNow(2030, 1, 1)}).Parse(content)
	require.NoError(t, err)

	assert.Equal(t, "itau", st.BankID)
	assert.Equal(t, "4321", st.AccountID)
	require.Len(t, st.Transactions, 4)

	purchase := st.Transactions[0]
	assert.Equal(t, model.DirectionDebit, purchase.Type)
	assert.Equal(t, model.Date(2024, 3, 15), purchase.PostedDate)
	assert.Equal(t, int64(25050), purchase.AmountCents)
	assert.Equal(t, "ACADEMIA EQUIPAMENTOS", purchase.Memo)

	// December precedes an April due date, so it belongs to the prior year.
	assert.Equal(t, model.Date(2023, 12, 20), st.Transactions[1].PostedDate)
	assert.Equal(t, int64(9990), st.Transactions[1].AmountCents)

	payment := st.Transactions[2]
	assert.Equal(t, model.DirectionCredit, payment.Type)
	assert.Equal(t, int64(150000), payment.AmountCents)
	assert.Equal(t, model.Date(2024, 3, 25), payment.PostedDate)

	serial := st.Transactions[3]
	assert.Equal(t, model.Date(2024, 3, 18), serial.PostedDate)
	assert.Equal(t, int64(123456), serial.AmountCents)

	assert.Equal(t, model.Date(2023, 12, 20), st.PeriodStart)
	assert.Equal(t, model.Date(2024, 3, 25), st.PeriodEnd)
}

func TestXLSXParser_UsesClockWithoutDueDate(t *testing.T) {
	content := workbook(t, map[string][][]any{"Plan1": {
		{"10/01", "PADARIA", 12.5},
		{"20/11", "LIVRARIA", 40},
	}}, "Plan1")

	st, err := (&XLSXParser{Now: fixedNow(2024, 2, 15)}).Parse(content)
	require.NoError(t, err)
	require.Len(t, st.Transactions, 2)
	assert.Equal(t, model.Date(2024, 1, 10), st.Transactions[0].PostedDate)
	assert.Equal(t, model.Date(2023, 11, 20), st.Transactions[1].PostedDate)
}

func TestXLSXParser_FirstSheetWithTransactionsWins(t *testing.T) {
	content := workbook(t, map[string][][]any{
		"Resumo":      {{"Resumo da fatura"}, {"Total", 350.4}},
		"Lancamentos": {{"Vencimento: 10/04/2024"}, {"01/04", "FARMACIA", 20}},
	}, "Resumo", "Lancamentos")

	st, err := (&XLSXParser{Now: fixedNow(2030, 1, 1)}).Parse(content)
	require.NoError(t, err)
	require.Len(t, st.Transactions, 1)
	assert.Equal(t, "FARMACIA", st.Transactions[0].Memo)
	assert.Equal(t, model.Date(2024, 4, 1), st.Transactions[0].PostedDate)
}

func TestXLSXParser_NoTransactions(t *testing.T) {
	content := workbook(t, map[string][][]any{"Vazio": {{"Nada por aqui"}}}, "Vazio")

	st, err := (&XLSXParser{}).Parse(content)
	require.NoError(t, err)
	assert.Empty(t, st.Transactions)
}

func TestXLSXParser_Corrupt(t *testing.T) {
	_, err := (&XLSXParser{}).Parse([]byte("not a workbook"))
	assert.Error(t, err)
}

func TestXLSParser_Corrupt(t *testing.T) {
	p := &XLSParser{}
	assert.Equal(t, "xls", p.Format())
	_, err := p.Parse([]byte("definitely not BIFF"))
	assert.Error(t, err)
}

func TestSheetAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"250.5", 25050},
		{"-1500", -150000},
		{"89.900000000000006", 8990},
		{"1.500", 150000},
		{"1.234,56", 123456},
		{"45,00 D", -4500},
	}
	for _, tt := range tests {
		got, err := sheetAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := sheetAmount("ACADEMIA")
	assert.Error(t, err)
}

func TestSheetRow_ColumnOrder(t *testing.T) {
	ref := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		row   []string
		cents int64
		memo  string
		dir   model.Direction
	}{
		{"amount last", []string{"05/03/2024", "LOJA X", "150,00"}, 15000, "LOJA X", model.DirectionDebit},
		{"amount before description", []string{"05/03/2024", "150,00", "LOJA X"}, 15000, "LOJA X", model.DirectionDebit},
		{"currency label between", []string{"05/03/2024", "-80,00", "R$", "ESTORNO LOJA"}, 8000, "ESTORNO LOJA", model.DirectionCredit},
		{"trailing blanks", []string{"", "05/03/2024", "LOJA X", "", "42.5", ""}, 4250, "LOJA X", model.DirectionDebit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, ok := sheetRow(tt.row, 5, ref)
			require.True(t, ok)
			assert.Equal(t, tt.cents, tx.AmountCents)
			assert.Equal(t, tt.memo, tx.Memo)
			assert.Equal(t, tt.dir, tx.Type)
			assert.Equal(t, model.Date(2024, 3, 5), tx.PostedDate)
		})
	}
}

func TestIsExcludedLabel(t *testing.T) {
	assert.True(t, isExcludedLabel("TOTAL DA FATURA"))
	assert.True(t, isExcludedLabel("SUBTOTAL"))
	assert.True(t, isExcludedLabel("REPASSE DE IOF"))
	assert.False(t, isExcludedLabel("TOTALPASS ACADEMIA"))
	assert.False(t, isExcludedLabel("PAGAMENTO FATURA"))
}
