package importer

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/studiops/bankrecon/internal/id"
	"github.com/studiops/bankrecon/internal/model"
	"github.com/studiops/bankrecon/internal/money"
	"github.com/studiops/bankrecon/internal/textutil"
)

// preambleRows is how far down a sheet the bank and due-date labels are searched.
const preambleRows = 30

// dateColumns bounds how many leading non-empty cells may hold the date.
const dateColumns = 3

// Folded bank names, most specific first.
var bankKeywords = []struct {
	keyword string
	bank    string
}{
	{"BANCO DO BRASIL", "banco-do-brasil"},
	{"ITAU", "itau"},
	{"BRADESCO", "bradesco"},
	{"SANTANDER", "santander"},
	{"CAIXA ECONOMICA", "caixa"},
	{"NUBANK", "nubank"},
	{"NU PAGAMENTOS", "nubank"},
	{"BANCO INTER", "inter"},
	{"SICREDI", "sicredi"},
	{"SICOOB", "sicoob"},
	{"C6 BANK", "c6"},
	{"BTG PACTUAL", "btg"},
	{"XP INVESTIMENTOS", "xp"},
}

// Folded descriptions that are statement furniture rather than movements.
var excludedLabels = []string{
	"SUBTOTAL",
	"TOTAL",
	"SALDO FATURA",
	"SALDO ANTERIOR",
	"SALDO DA FATURA",
	"VENCIMENTO",
	"DESCRICAO",
	"HISTORICO",
	"LANCAMENTO",
	"LANCAMENTOS",
	"ESTABELECIMENTO",
	"DATA",
	"REPASSE DE IOF",
	"IOF REPASSE",
	"LIMITE",
	"PAGAMENTO MINIMO",
}

var currencyLabels = map[string]bool{
	"R$": true, "BRL": true, "US$": true, "USD": true, "$": true, "EUR": true,
}

var (
	cardFinalRe  = regexp.MustCompile(`FINAL\s*:?\s*(\d{4})`)
	rawNumericRe = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][-+]?\d+)?$`)
	groupedIntRe = regexp.MustCompile(`^-?\d{1,3}\.\d{3}$`)
)

func detectBank(folded string) string {
	for _, b := range bankKeywords {
		if strings.Contains(folded, b.keyword) {
			return b.bank
		}
	}
	return ""
}

// scanSheet reads a credit-card statement laid out as a grid of cells.
// Amounts carry the card issuer's sign: positive is a purchase (debit),
// negative a payment or refund (credit).
func scanSheet(rows [][]string, now time.Time) *model.Statement {
	st := &model.Statement{}
	ref := now

	for i := 0; i < len(rows) && i < preambleRows; i++ {
		row := rows[i]
		for j, cell := range row {
			folded := textutil.Fold(cell)
			if folded == "" {
				continue
			}
			if st.BankID == "" {
				st.BankID = detectBank(folded)
			}
			if st.AccountID == "" {
				if m := cardFinalRe.FindStringSubmatch(folded); m != nil {
					st.AccountID = m[1]
				}
			}
			if strings.Contains(folded, "VENCIMENTO") {
				if due, ok := dueDate(cell, row[j+1:]); ok {
					ref = due
				}
			}
		}
	}

	for i, row := range rows {
		tx, ok := sheetRow(row, i+1, ref)
		if !ok {
			continue
		}
		st.Transactions = append(st.Transactions, tx)
		st.ExtendPeriod(tx.PostedDate)
	}
	return st
}

// dueDate finds the date after a "vencimento" label, either in the label
// cell itself ("Vencimento: 10/04/2024") or in the cells to its right.
func dueDate(label string, rest []string) (time.Time, bool) {
	if i := strings.IndexAny(label, ":-"); i >= 0 {
		if d, ok := sheetFullDate(label[i+1:]); ok {
			return d, true
		}
	}
	for _, cell := range rest {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		return sheetFullDate(cell)
	}
	return time.Time{}, false
}

func sheetFullDate(s string) (time.Time, bool) {
	if d, ok := parseFullDate(s); ok {
		return d, true
	}
	return parseExcelSerial(s)
}

func sheetDate(s string, ref time.Time) (time.Time, bool) {
	if d, ok := sheetFullDate(s); ok {
		return d, true
	}
	if day, month, ok := parseDayMonth(s); ok {
		return inferYear(day, month, ref)
	}
	return time.Time{}, false
}

func sheetRow(row []string, rowNum int, ref time.Time) (model.RawTransaction, bool) {
	dateCol := -1
	var posted time.Time
	seen := 0
	for j, cell := range row {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		if d, ok := sheetDate(cell, ref); ok {
			dateCol, posted = j, d
			break
		}
		if seen++; seen >= dateColumns {
			break
		}
	}
	if dateCol < 0 {
		return model.RawTransaction{}, false
	}

	descCol := -1
	for j := dateCol + 1; j < len(row); j++ {
		cell := strings.TrimSpace(row[j])
		if cell == "" || currencyLabels[strings.ToUpper(cell)] {
			continue
		}
		if _, err := sheetAmount(cell); err == nil {
			continue
		}
		descCol = j
		break
	}
	memo := ""
	if descCol >= 0 {
		memo = strings.TrimSpace(row[descCol])
		if isExcludedLabel(textutil.Fold(memo)) {
			return model.RawTransaction{}, false
		}
	}

	var cents int64
	found := false
	for j := len(row) - 1; j > dateCol; j-- {
		if j == descCol {
			continue
		}
		cell := strings.TrimSpace(row[j])
		if cell == "" {
			continue
		}
		c, err := sheetAmount(cell)
		if err != nil {
			continue
		}
		cents, found = c, true
		break
	}
	if !found || cents == 0 {
		return model.RawTransaction{}, false
	}

	dir := model.DirectionDebit
	if cents < 0 {
		dir = model.DirectionCredit
	}
	return model.RawTransaction{
		Type:        dir,
		PostedDate:  posted,
		AmountCents: money.Abs(cents),
		ExternalID:  id.FormatSynthetic(posted, rowNum, cents),
		Memo:        memo,
	}, true
}

// sheetAmount parses a cell that is either a raw numeric value or a
// formatted amount. Raw values never carry thousands separators, except
// that "1.500" is read the way a Brazilian would write it.
func sheetAmount(s string) (int64, error) {
	if rawNumericRe.MatchString(s) && !groupedIntRe.MatchString(s) {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0, err
		}
		return money.ToCents(d), nil
	}
	return parseIndicatedAmount(s)
}

func isExcludedLabel(folded string) bool {
	for _, l := range excludedLabels {
		if folded == l || strings.HasPrefix(folded, l+" ") || strings.HasPrefix(folded, l+":") {
			return true
		}
	}
	return false
}
