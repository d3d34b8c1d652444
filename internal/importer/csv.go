package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/studiops/bankrecon/internal/id"
	"github.com/studiops/bankrecon/internal/model"
	"github.com/studiops/bankrecon/internal/money"
	"github.com/studiops/bankrecon/internal/textutil"
)

// CSVParser parses delimited bank exports with a header row.
type CSVParser struct{}

type csvColumn int

const (
	colDate csvColumn = iota
	colDescription
	colAmount
	colCredit
	colDebit
)

// Header synonyms, compared after headerKey normalization.
var csvSynonyms = map[csvColumn][]string{
	colDate: {
		"data", "date", "data lancamento", "data do lancamento", "data movimento",
		"data mov", "dt lancamento", "data da transacao", "data transacao",
		"transaction date", "posted date", "posting date",
	},
	colDescription: {
		"descricao", "historico", "description", "memo", "lancamento",
		"detalhes", "details", "estabelecimento", "historico descricao", "payee",
	},
	colAmount: {
		"valor", "amount", "value", "montante", "valor lancamento",
	},
	colCredit: {
		"credito", "credit", "entrada", "entradas", "valor credito", "creditos",
	},
	colDebit: {
		"debito", "debit", "saida", "saidas", "valor debito", "debitos",
	},
}

var (
	headerJunkRe = regexp.MustCompile(`[^a-z0-9 ]+`)
	agencyAcctRe = regexp.MustCompile(`AG(?:ENCIA)?\s*/\s*CONTA\s*:?\s*(\d{3,5})\s*/\s*(\d[\d.]*-?[\dX]?)`)
	agencyRe     = regexp.MustCompile(`AG(?:ENCIA|\.)?\s*:?\s*(\d{3,5}(?:-\d)?)`)
	accountRe    = regexp.MustCompile(`C(?:ONTA|/C|C)(?:\s+CORRENTE)?\s*:?\s*(\d[\d.]*-?[\dX]?)`)
)

// Format returns the parser name.
func (p *CSVParser) Format() string { return string(model.FileTypeCSV) }

// Parse reads a CSV export. Lines before the header are scanned for the bank
// and account; rows without a parseable date or with a zero amount are skipped.
func (p *CSVParser) Parse(content []byte) (*model.Statement, error) {
	text := strings.ReplaceAll(textutil.Decode(content), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	headerAt, sep, cols := -1, ',', map[csvColumn]int{}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		s := ','
		if strings.ContainsRune(line, ';') {
			s = ';'
		}
		fields, err := readCSVLine(line, s)
		if err != nil {
			continue
		}
		if c := matchHeader(fields); c != nil {
			headerAt, sep, cols = i, s, c
			break
		}
	}
	if headerAt < 0 {
		return nil, fmt.Errorf("parsing csv: no header row with a date column found")
	}

	st := &model.Statement{}
	st.BankID, st.AccountID = scanPreamble(lines[:headerAt])

	r := csv.NewReader(strings.NewReader(strings.Join(lines[headerAt+1:], "\n")))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	for row := 1; ; row++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row %d: %w", row, err)
		}
		tx, ok := csvRow(rec, cols, row)
		if !ok {
			continue
		}
		st.Transactions = append(st.Transactions, tx)
		st.ExtendPeriod(tx.PostedDate)
	}
	return st, nil
}

func readCSVLine(line string, sep rune) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.Read()
}

func headerKey(s string) string {
	k := strings.ReplaceAll(textutil.Key(s), "r$", "")
	return strings.Join(strings.Fields(headerJunkRe.ReplaceAllString(k, " ")), " ")
}

// matchHeader maps known columns in fields, or returns nil unless a date
// column and at least one amount column are present.
func matchHeader(fields []string) map[csvColumn]int {
	cols := map[csvColumn]int{}
	for i, f := range fields {
		k := headerKey(f)
		for col, names := range csvSynonyms {
			if _, seen := cols[col]; seen {
				continue
			}
			for _, n := range names {
				if k == n {
					cols[col] = i
					break
				}
			}
		}
	}
	if _, ok := cols[colDate]; !ok {
		return nil
	}
	_, amount := cols[colAmount]
	_, credit := cols[colCredit]
	_, debit := cols[colDebit]
	if !amount && !credit && !debit {
		return nil
	}
	return cols
}

func csvRow(rec []string, cols map[csvColumn]int, row int) (model.RawTransaction, bool) {
	field := func(c csvColumn) string {
		i, ok := cols[c]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	posted, ok := parseFullDate(field(colDate))
	if !ok {
		return model.RawTransaction{}, false
	}

	var cents int64
	if _, unified := cols[colAmount]; unified {
		c, err := parseIndicatedAmount(field(colAmount))
		if err != nil {
			return model.RawTransaction{}, false
		}
		cents = c
	} else {
		credit, _ := parseIndicatedAmount(field(colCredit))
		debit, _ := parseIndicatedAmount(field(colDebit))
		switch {
		case credit != 0:
			cents = money.Abs(credit)
		case debit != 0:
			cents = -money.Abs(debit)
		}
	}
	if cents == 0 {
		return model.RawTransaction{}, false
	}

	dir := model.DirectionCredit
	if cents < 0 {
		dir = model.DirectionDebit
	}
	return model.RawTransaction{
		Type:        dir,
		PostedDate:  posted,
		AmountCents: money.Abs(cents),
		ExternalID:  id.FormatSynthetic(posted, row, cents),
		Memo:        field(colDescription),
	}, true
}

// parseIndicatedAmount parses an amount that may end in a D (debit) or
// C (credit) indicator.
func parseIndicatedAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	sign := int64(1)
	switch {
	case strings.HasSuffix(upper, "D"):
		sign = -1
		s = strings.TrimSpace(s[:len(s)-1])
	case strings.HasSuffix(upper, "C"):
		s = strings.TrimSpace(s[:len(s)-1])
	}
	cents, err := money.ParseCents(s)
	if err != nil {
		return 0, err
	}
	if sign < 0 {
		return -money.Abs(cents), nil
	}
	return cents, nil
}

// scanPreamble looks for a bank name and agency/account numbers in the lines
// above the header.
func scanPreamble(lines []string) (bank, account string) {
	var agency string
	for _, line := range lines {
		folded := textutil.Fold(strings.NewReplacer(";", " ", ",", " ", "\"", " ").Replace(line))
		if bank == "" {
			bank = detectBank(folded)
		}
		if m := agencyAcctRe.FindStringSubmatch(folded); m != nil && account == "" {
			agency, account = m[1], m[2]
			continue
		}
		if agency == "" {
			if m := agencyRe.FindStringSubmatch(folded); m != nil {
				agency = m[1]
			}
		}
		if account == "" {
			if m := accountRe.FindStringSubmatch(folded); m != nil {
				account = m[1]
			}
		}
	}
	if agency != "" && account != "" {
		account = agency + "/" + account
	}
	return bank, account
}
