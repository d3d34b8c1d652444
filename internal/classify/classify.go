// Package classify assigns a semantic kind and counterparty to bank memos.
package classify

import (
	"regexp"
	"strings"

	"github.com/studiops/bankrecon/internal/model"
	"github.com/studiops/bankrecon/internal/textutil"
)

// RedeCounterparty names the acquirer on card settlement lines.
const RedeCounterparty = "Rede (cartão)"

// Result is the classification of one memo.
type Result struct {
	Kind                 model.TransactionKind
	CounterpartyName     string
	CounterpartyDocument string
	IsBalanceEntry       bool
}

var (
	cnpjRe  = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}`)
	cpfRe   = regexp.MustCompile(`\d{3}\.\d{3}\.\d{3}-\d{2}`)
	tokenRe = regexp.MustCompile(`[A-Z0-9]+`)
)

// rule is one entry of the ordered classification table. match and build
// both receive the folded memo.
type rule struct {
	match func(folded string, dir model.Direction) bool
	build func(folded string, dir model.Direction) Result
}

func has(markers ...string) func(string, model.Direction) bool {
	return func(folded string, _ model.Direction) bool {
		return textutil.ContainsAny(folded, markers...)
	}
}

func kind(k model.TransactionKind) func(string, model.Direction) Result {
	return func(string, model.Direction) Result { return Result{Kind: k} }
}

func after(marker string, k model.TransactionKind) func(string, model.Direction) Result {
	return func(folded string, _ model.Direction) Result {
		return Result{Kind: k, CounterpartyName: trailingName(folded, marker)}
	}
}

var rules = []rule{
	{
		match: has("SALDO TOTAL DISPONIVEL", "SALDO EM CONTA", "SALDO DO DIA", "SALDO ANTERIOR"),
		build: func(string, model.Direction) Result {
			return Result{Kind: model.KindBalance, IsBalanceEntry: true}
		},
	},
	{match: has("REND PAGO APLIC", "RENDIMENTOS"), build: kind(model.KindInvestmentReturn)},
	{match: has("PIX RECEBIDO"), build: after("PIX RECEBIDO", model.KindPixReceived)},
	{match: has("PIX ENVIADO"), build: after("PIX ENVIADO", model.KindPixSent)},
	{match: has("RECEBIMENTO REDE"), build: cardSettlement},
	{match: has("BOLETO PAGO"), build: after("BOLETO PAGO", model.KindBoletoPaid)},
	{match: has("CONCESSIONARIA"), build: after("CONCESSIONARIA", model.KindUtilityPaid)},
}

// Classify applies the first matching rule to memo. Credits and debits that
// no rule recognizes fall back to other_credit and other_debit.
func Classify(memo string, dir model.Direction) Result {
	folded := textutil.Fold(memo)

	res := fallback(dir)
	for _, r := range rules {
		if r.match(folded, dir) {
			res = r.build(folded, dir)
			break
		}
	}
	res.CounterpartyDocument = Document(folded)
	return res
}

func fallback(dir model.Direction) Result {
	if dir == model.DirectionDebit {
		return Result{Kind: model.KindOtherDebit}
	}
	return Result{Kind: model.KindOtherCredit}
}

// Document returns the first CNPJ or CPF found in s, or "".
func Document(s string) string {
	if m := cnpjRe.FindString(s); m != "" {
		return m
	}
	return cpfRe.FindString(s)
}

func cardSettlement(folded string, _ model.Direction) Result {
	tokens := map[string]bool{}
	for _, t := range tokenRe.FindAllString(folded, -1) {
		tokens[t] = true
	}

	visa := tokens["VISA"] || tokens["ELECTRON"]
	master := strings.Contains(folded, "MAST") || tokens["MAESTRO"]
	debit := tokens["DEBITO"] || tokens["DB"] || tokens["ELECTRON"] || tokens["MAESTRO"]
	credit := tokens["CREDITO"] || tokens["CD"]

	k := model.KindCardReceived
	switch {
	case visa && debit:
		k = model.KindCardVisaDebit
	case visa && credit:
		k = model.KindCardVisaCredit
	case master && debit:
		k = model.KindCardMasterDebit
	case master && credit:
		k = model.KindCardMasterCredit
	}
	return Result{Kind: k, CounterpartyName: RedeCounterparty}
}

// trailingName returns the text after marker with documents and edge
// punctuation removed.
func trailingName(folded, marker string) string {
	i := strings.Index(folded, marker)
	if i < 0 {
		return ""
	}
	rest := folded[i+len(marker):]
	rest = cnpjRe.ReplaceAllString(rest, " ")
	rest = cpfRe.ReplaceAllString(rest, " ")
	rest = strings.Join(strings.Fields(rest), " ")
	return strings.Trim(rest, " -:/*.")
}

// Label returns a short human description of k.
func Label(k model.TransactionKind) string {
	switch k {
	case model.KindBalance:
		return "Saldo"
	case model.KindInvestmentReturn:
		return "Rendimento de aplicação"
	case model.KindPixReceived:
		return "Pix recebido"
	case model.KindPixSent:
		return "Pix enviado"
	case model.KindCardVisaDebit:
		return "Cartão Visa débito"
	case model.KindCardVisaCredit:
		return "Cartão Visa crédito"
	case model.KindCardMasterDebit:
		return "Cartão Mastercard débito"
	case model.KindCardMasterCredit:
		return "Cartão Mastercard crédito"
	case model.KindCardReceived:
		return "Recebimento de cartão"
	case model.KindBoletoPaid:
		return "Boleto pago"
	case model.KindUtilityPaid:
		return "Concessionária"
	case model.KindOtherCredit:
		return "Outros créditos"
	case model.KindOtherDebit:
		return "Outros débitos"
	}
	return ""
}
