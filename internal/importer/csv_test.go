package importer

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiops/bankrecon/internal/model"
)

func TestCSVParser_Brazilian(t *testing.T) {
	data, err := os.ReadFile("testdata/itau_extrato.csv")
	require.NoError(t, err)

	st, err := (&CSVParser{}).Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "itau", st.BankID)
	assert.Equal(t, "0123/45678-9", st.AccountID)
	assert.Equal(t, model.Date(2024, 3, 10), st.PeriodStart)
	assert.Equal(t, model.Date(2024, 3, 14), st.PeriodEnd)

	// Zero-amount and undated rows are dropped.
	require.Len(t, st.Transactions, 3)

	first := st.Transactions[0]
	assert.Equal(t, model.DirectionCredit, first.Type)
	assert.Equal(t, int64(123456), first.AmountCents)
	assert.Equal(t, "PIX RECEBIDO JOAO DA SILVA", first.Memo)
	assert.Equal(t, "20240310-0001-123456", first.ExternalID)

	second := st.Transactions[1]
	assert.Equal(t, model.DirectionDebit, second.Type)
	assert.Equal(t, int64(35000), second.AmountCents)
	assert.Equal(t, "20240312-0003-35000", second.ExternalID)

	assert.Equal(t, int64(9700), st.Transactions[2].AmountCents)
}

func TestCSVParser_CreditDebitColumns(t *testing.T) {
	data, err := os.ReadFile("testdata/credit_debit.csv")
	require.NoError(t, err)

	st, err := (&CSVParser{}).Parse(data)
	require.NoError(t, err)
	require.Len(t, st.Transactions, 3)

	assert.Equal(t, model.DirectionCredit, st.Transactions[0].Type)
	assert.Equal(t, int64(15000), st.Transactions[0].AmountCents)
	assert.Equal(t, "Tuition March", st.Transactions[0].Memo)

	assert.Equal(t, model.DirectionDebit, st.Transactions[1].Type)
	assert.Equal(t, int64(8990), st.Transactions[1].AmountCents)

	assert.Equal(t, model.DirectionDebit, st.Transactions[2].Type)
	assert.Equal(t, int64(120000), st.Transactions[2].AmountCents)
	assert.Equal(t, "Rent, March", st.Transactions[2].Memo)

	assert.Empty(t, st.BankID)
	assert.Empty(t, st.AccountID)
}

func TestCSVParser_Latin1AndIndicators(t *testing.T) {
	// "Histórico" and "Crédito" encoded as Windows-1252.
	data := []byte("Data;Hist\xf3rico;Valor\r\n05/03/2024;TARIFA;12,50 D\r\n06/03/2024;CR\xc9DITO;80,00 C\r\n07/03/2024;ESTORNO;5,00-\r\n")

	st, err := (&CSVParser{}).Parse(data)
	require.NoError(t, err)
	require.Len(t, st.Transactions, 3)

	assert.Equal(t, model.DirectionDebit, st.Transactions[0].Type)
	assert.Equal(t, int64(1250), st.Transactions[0].AmountCents)
	assert.Equal(t, model.DirectionCredit, st.Transactions[1].Type)
	assert.Equal(t, "CRÉDITO", st.Transactions[1].Memo)
	assert.Equal(t, model.DirectionDebit, st.Transactions[2].Type)
	assert.Equal(t, int64(500), st.Transactions[2].AmountCents)
}

func TestCSVParser_NoHeader(t *testing.T) {
	_, err := (&CSVParser{}).Parse([]byte("foo;bar\n1;2\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no header row with a date column")
}

func TestCSVParser_HeaderWithoutAmount(t *testing.T) {
	_, err := (&CSVParser{}).Parse([]byte("Data,Descrição\n10/03/2024,algo\n"))
	assert.Error(t, err)
}

func TestCSVParser_SameDaySameAmountGetDistinctIDs(t *testing.T) {
	data := []byte("Data;Descrição;Valor\n10/03/2024;PIX RECEBIDO A;100,00\n10/03/2024;PIX RECEBIDO B;100,00\n")

	st, err := (&CSVParser{}).Parse(data)
	require.NoError(t, err)
	require.Len(t, st.Transactions, 2)
	assert.NotEqual(t, st.Transactions[0].ExternalID, st.Transactions[1].ExternalID)
}

func TestHeaderKey(t *testing.T) {
	assert.Equal(t, "valor", headerKey("Valor (R$)"))
	assert.Equal(t, "data mov", headerKey("Data Mov."))
	assert.Equal(t, "historico descricao", headerKey("Histórico/Descrição"))
}

func TestParseIndicatedAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"12,50 D", -1250},
		{"12,50D", -1250},
		{"-12,50 D", -1250},
		{"80,00 C", 8000},
		{"1.234,56", 123456},
		{"-3,00", -300},
	}
	for _, tt := range tests {
		got, err := parseIndicatedAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseIndicatedAmount("")
	assert.Error(t, err)
}

func TestScanPreamble(t *testing.T) {
	bank, account := scanPreamble([]string{
		"Bradesco - Extrato",
		"Agência/Conta: 1234/98765-4",
	})
	assert.Equal(t, "bradesco", bank)
	assert.Equal(t, "1234/98765-4", account)

	bank, account = scanPreamble([]string{"Conta corrente: 556677-1"})
	assert.Empty(t, bank)
	assert.Equal(t, "556677-1", account)
}
