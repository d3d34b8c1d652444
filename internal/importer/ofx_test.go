package importer

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiops/bankrecon/internal/model"
)

func TestOFXParser_Parse(t *testing.T) {
	data, err := os.ReadFile("testdata/itau_extrato.ofx")
	require.NoError(t, err)

	st, err := (&OFXParser{}).Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "0341", st.BankID)
	assert.Equal(t, "12345-6", st.AccountID)
	assert.Equal(t, model.Date(2024, 3, 1), st.PeriodStart)
	assert.Equal(t, model.Date(2024, 3, 31), st.PeriodEnd)

	// The block without FITID is dropped.
	require.Len(t, st.Transactions, 4)

	first := st.Transactions[0]
	assert.Equal(t, model.DirectionCredit, first.Type)
	assert.Equal(t, model.Date(2024, 3, 10), first.PostedDate)
	assert.Equal(t, int64(15000), first.AmountCents)
	assert.Equal(t, "20240310001", first.ExternalID)
	assert.Equal(t, "PIX RECEBIDO MARIA SOUZA 123.456.789-00", first.Memo)

	debit := st.Transactions[1]
	assert.Equal(t, model.DirectionDebit, debit.Type)
	assert.Equal(t, int64(8990), debit.AmountCents)

	// NAME stands in for a missing MEMO.
	assert.Equal(t, "RECEBIMENTO REDE VISA CREDITO", st.Transactions[2].Memo)
}

func TestOFXParser_XMLStyle(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<OFX><CREDITCARDMSGSRSV1><CCSTMTTRNRS><CCSTMTRS>
<CCACCTFROM><ACCTID>5555666677778888</ACCTID></CCACCTFROM>
<BANKTRANLIST>
<STMTTRN><TRNTYPE>DEBIT</TRNTYPE><DTPOSTED>20240305</DTPOSTED><TRNAMT>45.10</TRNAMT><FITID>A1</FITID><MEMO>Loja &amp; Cia</MEMO></STMTTRN>
<STMTTRN><TRNTYPE>PAYMENT</TRNTYPE><DTPOSTED>20240307</DTPOSTED><TRNAMT>-300,00</TRNAMT><FITID>A2</FITID><NAME>Pagamento</NAME></STMTTRN>
</BANKTRANLIST>
</CCSTMTRS></CCSTMTTRNRS></CREDITCARDMSGSRSV1></OFX>`

	st, err := (&OFXParser{}).Parse([]byte(doc))
	require.NoError(t, err)

	assert.Empty(t, st.BankID)
	assert.Equal(t, "5555666677778888", st.AccountID)
	require.Len(t, st.Transactions, 2)

	// DEBIT type wins over a positive amount.
	assert.Equal(t, model.DirectionDebit, st.Transactions[0].Type)
	assert.Equal(t, int64(4510), st.Transactions[0].AmountCents)
	assert.Equal(t, "Loja & Cia", st.Transactions[0].Memo)

	assert.Equal(t, model.DirectionDebit, st.Transactions[1].Type)
	assert.Equal(t, int64(30000), st.Transactions[1].AmountCents)

	// Without DTSTART/DTEND the period spans the postings.
	assert.Equal(t, model.Date(2024, 3, 5), st.PeriodStart)
	assert.Equal(t, model.Date(2024, 3, 7), st.PeriodEnd)
}

func TestOFXParser_Windows1252(t *testing.T) {
	doc := []byte("OFXHEADER:100\nCHARSET:1252\n<OFX>\n<STMTTRN>\n<TRNTYPE>DEBIT\n<DTPOSTED>20240301\n<TRNAMT>-120.00\n<FITID>X9\n<MEMO>PAGAMENTO CONCESSION\xc1RIA\n</STMTTRN>\n</OFX>\n")

	st, err := (&OFXParser{}).Parse(doc)
	require.NoError(t, err)
	require.Len(t, st.Transactions, 1)
	assert.Equal(t, "PAGAMENTO CONCESSIONÁRIA", st.Transactions[0].Memo)
}

func TestOFXParser_SkipsInvalidBlocks(t *testing.T) {
	doc := `<OFX>
<STMTTRN><DTPOSTED>20240301<TRNAMT>1.00<FITID>NOTYPE</STMTTRN>
<STMTTRN><TRNTYPE>CREDIT<TRNAMT>1.00<FITID>NODATE</STMTTRN>
<STMTTRN><TRNTYPE>CREDIT<DTPOSTED>20240301<FITID>NOAMOUNT</STMTTRN>
<STMTTRN><TRNTYPE>CREDIT<DTPOSTED>2024<TRNAMT>1.00<FITID>SHORTDATE</STMTTRN>
<STMTTRN><TRNTYPE>CREDIT<DTPOSTED>20240301<TRNAMT>abc<FITID>BADAMOUNT</STMTTRN>
<STMTTRN><TRNTYPE>CREDIT<DTPOSTED>20240301<TRNAMT>0.00<FITID>ZERO</STMTTRN>
</OFX>`

	st, err := (&OFXParser{}).Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, st.Transactions, 1)
	assert.Equal(t, "ZERO", st.Transactions[0].ExternalID)
	assert.Equal(t, int64(0), st.Transactions[0].AmountCents)
}

func TestOFXParser_RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 7, 120} {
		t.Run(fmt.Sprintf("%d blocks", n), func(t *testing.T) {
			var b strings.Builder
			b.WriteString("<OFX>\n<BANKID>237\n<ACCTID>999\n<BANKTRANLIST>\n")
			for i := 0; i < n; i++ {
				fmt.Fprintf(&b, "<STMTTRN>\n<TRNTYPE>CREDIT\n<DTPOSTED>202403%02d\n<TRNAMT>%d.%02d\n<FITID>F%d\n<MEMO>ITEM %d\n</STMTTRN>\n",
					i%28+1, i+1, i%100, i, i)
			}
			b.WriteString("</BANKTRANLIST>\n</OFX>\n")

			st, err := (&OFXParser{}).Parse([]byte(b.String()))
			require.NoError(t, err)
			require.Len(t, st.Transactions, n)
			for i, tx := range st.Transactions {
				assert.Equal(t, fmt.Sprintf("F%d", i), tx.ExternalID)
				assert.Equal(t, int64((i+1)*100+i%100), tx.AmountCents)
				assert.Equal(t, model.Date(2024, 3, i%28+1), tx.PostedDate)
				assert.Equal(t, fmt.Sprintf("ITEM %d", i), tx.Memo)
			}
		})
	}
}

func TestOFXParser_NotOFX(t *testing.T) {
	_, err := (&OFXParser{}).Parse([]byte("Data;Valor\n10/03/2024;1,00\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no OFX content")
}
