package matching

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/studiops/bankrecon/internal/model"
	"github.com/studiops/bankrecon/internal/money"
	"github.com/studiops/bankrecon/internal/textutil"
)

// Folded memo fragments of card acquirers that settle in bulk, net of fees.
var acquirerMarkers = []string{
	"RECEBIMENTO REDE", "REDECARD", "CIELO", "STONE PAGAMENTOS", "GETNET",
	"PAGSEGURO", "SUMUP", "SAFRAPAY", "VERO ",
}

type ruleKind int

// Rule preference when two rules give the same tier.
const (
	ruleExact ruleKind = iota
	ruleAcquirer
	ruleApprox
)

// target is an invoice or expense seen through the fields scoring needs.
type target struct {
	typ     model.TargetType
	id      string
	amount  int64
	due     time.Time
	name    string // payer name or expense description
	claimed bool
}

type evaluation struct {
	conf       model.Confidence
	rule       ruleKind
	dayDiff    int
	amountDiff int64
	fee        int64
}

// better reports whether a beats b: higher tier, then closer date, then
// closer amount.
func (a evaluation) better(b evaluation) bool {
	if a.conf.Rank() != b.conf.Rank() {
		return a.conf.Rank() > b.conf.Rank()
	}
	if a.dayDiff != b.dayDiff {
		return a.dayDiff < b.dayDiff
	}
	return a.amountDiff < b.amountDiff
}

// Suggest pairs each matchable transaction with at most one open invoice
// (credits) or pending expense (debits). Transactions are visited by posted
// date then id; each target is claimed by the first transaction that picks it.
func Suggest(txs []model.BankTransaction, invoices []model.Invoice, expenses []model.Expense, cfg Config) []model.MatchSuggestion {
	pending := make([]model.BankTransaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Matchable() {
			pending = append(pending, tx)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if !pending[i].PostedDate.Equal(pending[j].PostedDate) {
			return pending[i].PostedDate.Before(pending[j].PostedDate)
		}
		return pending[i].ID < pending[j].ID
	})

	credits := invoiceTargets(invoices)
	debits := expenseTargets(expenses)

	var out []model.MatchSuggestion
	for i := range pending {
		tx := &pending[i]
		pool := credits
		if tx.Direction == model.DirectionDebit {
			pool = debits
		}

		var best *target
		var bestEval evaluation
		for _, t := range pool {
			if t.claimed {
				continue
			}
			ev, ok := evaluate(tx, t, cfg)
			if !ok {
				continue
			}
			// Pools are sorted by due date then id, so the first of equals wins.
			if best == nil || ev.better(bestEval) {
				best, bestEval = t, ev
			}
		}
		if best == nil {
			continue
		}
		best.claimed = true
		out = append(out, suggestion(tx, best, bestEval, cfg))
	}
	return out
}

func invoiceTargets(invoices []model.Invoice) []*target {
	out := make([]*target, 0, len(invoices))
	for _, inv := range invoices {
		if !inv.Status.Open() {
			continue
		}
		out = append(out, &target{typ: model.TargetInvoice, id: inv.ID, amount: inv.AmountCents, due: inv.DueDate, name: inv.StudentName})
	}
	sortTargets(out)
	return out
}

func expenseTargets(expenses []model.Expense) []*target {
	out := make([]*target, 0, len(expenses))
	for _, e := range expenses {
		if e.Status != model.ExpensePending {
			continue
		}
		out = append(out, &target{typ: model.TargetExpense, id: e.ID, amount: e.AmountCents, due: e.DueDate, name: e.Description})
	}
	sortTargets(out)
	return out
}

func sortTargets(ts []*target) {
	sort.SliceStable(ts, func(i, j int) bool {
		if !ts[i].due.Equal(ts[j].due) {
			return ts[i].due.Before(ts[j].due)
		}
		return ts[i].id < ts[j].id
	})
}

// evaluate applies every value rule to the pair and keeps the best tier.
func evaluate(tx *model.BankTransaction, t *target, cfg Config) (evaluation, bool) {
	days := model.DayDiff(tx.PostedDate, t.due)
	diff := money.Abs(tx.AmountCents - t.amount)

	var best evaluation
	found := false
	consider := func(ev evaluation) {
		if ev.conf == "" {
			return
		}
		if !found || ev.conf.Rank() > best.conf.Rank() {
			best, found = ev, true
		}
	}

	base := evaluation{dayDiff: days, amountDiff: diff}
	if diff == 0 {
		ev := base
		ev.rule, ev.conf = ruleExact, cfg.Exact.tier(days)
		consider(ev)
	}
	if tx.Direction == model.DirectionCredit && isAcquirer(tx) && withinFee(tx.AmountCents, t.amount, cfg.FeePercent) {
		ev := base
		ev.rule, ev.conf = ruleAcquirer, cfg.Acquirer.tier(days)
		ev.fee = t.amount - tx.AmountCents
		consider(ev)
	}
	if diff > 0 && diff <= cfg.ToleranceCents {
		ev := base
		ev.rule, ev.conf = ruleApprox, cfg.Approx.tier(days)
		consider(ev)
	}
	return best, found
}

func isAcquirer(tx *model.BankTransaction) bool {
	if tx.Kind.IsCardSettlement() {
		return true
	}
	return textutil.ContainsAny(textutil.Fold(tx.Memo)+" ", acquirerMarkers...)
}

// withinFee reports whether a settlement of tx cents can pay an invoice of
// inv cents after a processor fee of at most pct of the invoice.
func withinFee(tx, inv int64, pct decimal.Decimal) bool {
	if tx > inv || inv <= 0 {
		return false
	}
	ceiling := decimal.NewFromInt(inv).Mul(pct)
	return decimal.NewFromInt(inv - tx).LessThanOrEqual(ceiling)
}

func suggestion(tx *model.BankTransaction, t *target, ev evaluation, cfg Config) model.MatchSuggestion {
	s := model.MatchSuggestion{
		TransactionID:   tx.ID,
		MatchedType:     t.typ,
		MatchedID:       t.id,
		Confidence:      ev.conf,
		Reason:          reason(tx, t, ev, cfg),
		DayDiff:         ev.dayDiff,
		AmountDiffCents: ev.amountDiff,
	}
	if ev.rule == ruleAcquirer {
		fee := ev.fee
		s.ProcessorFeeCents = &fee
	}
	return s
}

func reason(tx *model.BankTransaction, t *target, ev evaluation, cfg Config) string {
	var b strings.Builder
	switch ev.rule {
	case ruleExact:
		fmt.Fprintf(&b, "exact amount %s", money.FormatBRL(tx.AmountCents))
	case ruleApprox:
		fmt.Fprintf(&b, "amount within tolerance (difference %s)", money.FormatBRL(ev.amountDiff))
	case ruleAcquirer:
		pct := decimal.Zero
		if t.amount > 0 {
			pct = decimal.NewFromInt(ev.fee * 100).Div(decimal.NewFromInt(t.amount))
		}
		fmt.Fprintf(&b, "card settlement %s for %s (processor fee %s, %s%%)",
			money.FormatBRL(tx.AmountCents), money.FormatBRL(t.amount), money.FormatBRL(ev.fee), pct.StringFixed(2))
	}
	fmt.Fprintf(&b, ", %d day(s) from due date", ev.dayDiff)

	switch {
	case t.typ == model.TargetInvoice && ev.rule == ruleExact && similar(payerName(tx), t.name, cfg.NameSimilarity):
		b.WriteString("; payer name matches")
	case t.typ == model.TargetExpense && similar(tx.Memo, t.name, cfg.NameSimilarity):
		b.WriteString("; description matches")
	}
	return b.String()
}

func payerName(tx *model.BankTransaction) string {
	if n := tx.Counterparty(); n != "" {
		return n
	}
	return tx.Memo
}

// similar compares folded texts by containment, then by Levenshtein ratio.
func similar(a, b string, threshold float64) bool {
	fa, fb := textutil.Fold(a), textutil.Fold(b)
	if fa == "" || fb == "" {
		return false
	}
	if strings.Contains(fa, fb) || strings.Contains(fb, fa) {
		return true
	}
	return levenshtein.RatioForStrings([]rune(fa), []rune(fb), levenshtein.DefaultOptions) >= threshold
}
