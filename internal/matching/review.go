package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/studiops/bankrecon/internal/apperr"
	"github.com/studiops/bankrecon/internal/model"
)

// Target identifies the invoice or expense a reviewer links a transaction to.
type Target struct {
	Type model.TargetType
	ID   string
}

// resolved is a validated review target.
type resolved struct {
	amount int64
}

// Approve accepts a suggestion: the transaction becomes manual_matched with
// the given confidence and the target is paid. Card settlements against an
// invoice also record the processor fee.
func (e *Engine) Approve(ctx context.Context, txID string, t Target, conf model.Confidence, actor string) (*model.BankTransaction, error) {
	if conf.Rank() == 0 {
		return nil, apperr.Invalid("invalid confidence %q", conf)
	}
	return e.link(ctx, txID, t, &conf, actor, true)
}

// ManualMatch links a transaction to a target chosen by hand.
func (e *Engine) ManualMatch(ctx context.Context, txID string, t Target, actor string) (*model.BankTransaction, error) {
	return e.link(ctx, txID, t, nil, actor, false)
}

// Reject discards a suggestion. The transaction stays unmatched and is
// considered again by later runs.
func (e *Engine) Reject(ctx context.Context, txID, actor string) (*model.BankTransaction, error) {
	tx, err := e.openTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	e.logger.Info("suggestion rejected", "transaction_id", txID, "actor", actorOrSystem(actor))
	return tx, nil
}

// Ignore removes a transaction from matching for good.
func (e *Engine) Ignore(ctx context.Context, txID, actor string) (*model.BankTransaction, error) {
	if _, err := e.openTransaction(ctx, txID); err != nil {
		return nil, err
	}
	if err := e.store.MarkIgnored(ctx, txID, actorOrSystem(actor), e.now().UTC()); err != nil {
		if errors.Is(err, apperr.ErrStale) {
			return nil, apperr.Conflict("transaction %s was matched concurrently", txID)
		}
		return nil, apperr.Internal(err, "ignoring transaction %s", txID)
	}
	e.logger.Info("transaction ignored", "transaction_id", txID, "actor", actorOrSystem(actor))
	return e.reload(ctx, txID)
}

func (e *Engine) link(ctx context.Context, txID string, t Target, conf *model.Confidence, actor string, withFee bool) (*model.BankTransaction, error) {
	if t.ID == "" {
		return nil, apperr.Invalid("matched id is required")
	}
	tx, err := e.openTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	target, err := e.resolveTarget(ctx, tx, t)
	if err != nil {
		return nil, err
	}

	var fee *int64
	if withFee && t.Type == model.TargetInvoice && isAcquirer(tx) &&
		tx.AmountCents < target.amount && withinFee(tx.AmountCents, target.amount, e.cfg.FeePercent) {
		f := target.amount - tx.AmountCents
		fee = &f
	}

	app := model.MatchApplication{
		TransactionID:     tx.ID,
		Status:            model.MatchManualMatched,
		Confidence:        conf,
		TargetType:        t.Type,
		TargetID:          t.ID,
		ProcessorFeeCents: fee,
		PaidDate:          tx.PostedDate,
		MatchedAt:         e.now().UTC(),
		MatchedBy:         actorOrSystem(actor),
	}
	if err := e.store.ApplyMatch(ctx, app); err != nil {
		if errors.Is(err, apperr.ErrStale) {
			return nil, apperr.Conflict("transaction %s or %s %s changed concurrently", txID, t.Type, t.ID)
		}
		return nil, apperr.Internal(err, "applying match for transaction %s", txID)
	}
	e.postFee(ctx, tx, fee)

	e.logger.Info("transaction matched by review",
		"transaction_id", txID, "target_type", t.Type, "target_id", t.ID, "actor", app.MatchedBy)
	return e.reload(ctx, txID)
}

// openTransaction loads a transaction that review may still change.
func (e *Engine) openTransaction(ctx context.Context, txID string) (*model.BankTransaction, error) {
	if txID == "" {
		return nil, apperr.Invalid("transaction id is required")
	}
	tx, err := e.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, lookupError(err, "transaction", txID)
	}
	if tx.MatchStatus.IsTerminal() {
		return nil, apperr.Conflict("transaction %s is already %s", txID, tx.MatchStatus)
	}
	return tx, nil
}

func (e *Engine) resolveTarget(ctx context.Context, tx *model.BankTransaction, t Target) (resolved, error) {
	switch t.Type {
	case model.TargetInvoice:
		if tx.Direction != model.DirectionCredit {
			return resolved{}, apperr.Invalid("only credits can settle invoices")
		}
		inv, err := e.store.GetInvoice(ctx, t.ID)
		if err != nil {
			return resolved{}, lookupError(err, "invoice", t.ID)
		}
		if !inv.Status.Open() {
			return resolved{}, apperr.Conflict("invoice %s is %s", t.ID, inv.Status)
		}
		return resolved{amount: inv.AmountCents}, nil
	case model.TargetExpense:
		if tx.Direction != model.DirectionDebit {
			return resolved{}, apperr.Invalid("only debits can settle expenses")
		}
		exp, err := e.store.GetExpense(ctx, t.ID)
		if err != nil {
			return resolved{}, lookupError(err, "expense", t.ID)
		}
		if exp.Status != model.ExpensePending {
			return resolved{}, apperr.Conflict("expense %s is %s", t.ID, exp.Status)
		}
		return resolved{amount: exp.AmountCents}, nil
	}
	return resolved{}, apperr.Invalid("matched type must be invoice or expense").WithDetails(fmt.Sprintf("got %q", t.Type))
}

func (e *Engine) reload(ctx context.Context, txID string) (*model.BankTransaction, error) {
	tx, err := e.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, lookupError(err, "transaction", txID)
	}
	return tx, nil
}
