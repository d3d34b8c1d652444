// Package report exports match suggestions to CSV for offline review and
// reads the reviewed file back.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/studiops/bankrecon/internal/model"
)

// Decision is the reviewer's verdict on one exported suggestion.
type Decision string

const (
	DecisionNone    Decision = ""
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
	DecisionIgnore  Decision = "ignore"
)

// ParseDecision accepts the decision column as typed by a reviewer.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(s))); d {
	case DecisionNone, DecisionApprove, DecisionReject, DecisionIgnore:
		return d, nil
	}
	return "", fmt.Errorf("unknown decision %q", s)
}

// Row is one suggestion plus the reviewer's decision.
type Row struct {
	model.MatchSuggestion
	Decision Decision
}

// Header is the CSV header of a suggestions report.
const Header = "transaction_id,matched_type,matched_id,confidence,day_diff,amount_diff_cents,processor_fee_cents,reason,decision"

const (
	numFields      = 9
	colTxID        = 0
	colMatchedType = 1
	colMatchedID   = 2
	colConfidence  = 3
	colDayDiff     = 4
	colAmountDiff  = 5
	colFee         = 6
	colReason      = 7
	colDecision    = 8
)

// MarshalRow converts a Row to a CSV record.
func MarshalRow(r Row) []string {
	rec := make([]string, numFields)
	rec[colTxID] = r.TransactionID
	rec[colMatchedType] = string(r.MatchedType)
	rec[colMatchedID] = r.MatchedID
	rec[colConfidence] = string(r.Confidence)
	rec[colDayDiff] = strconv.Itoa(r.DayDiff)
	rec[colAmountDiff] = strconv.FormatInt(r.AmountDiffCents, 10)
	if r.ProcessorFeeCents != nil {
		rec[colFee] = strconv.FormatInt(*r.ProcessorFeeCents, 10)
	}
	rec[colReason] = r.Reason
	rec[colDecision] = string(r.Decision)
	return rec
}

// UnmarshalRow converts a CSV record to a Row.
func UnmarshalRow(rec []string) (Row, error) {
	if len(rec) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(rec))
	}
	typ, ok := model.ParseTargetType(rec[colMatchedType])
	if !ok {
		return Row{}, fmt.Errorf("invalid matched type %q", rec[colMatchedType])
	}
	conf, ok := model.ParseConfidence(rec[colConfidence])
	if !ok {
		return Row{}, fmt.Errorf("invalid confidence %q", rec[colConfidence])
	}
	days, err := strconv.Atoi(strings.TrimSpace(rec[colDayDiff]))
	if err != nil {
		return Row{}, fmt.Errorf("parsing day diff %q: %w", rec[colDayDiff], err)
	}
	diff, err := strconv.ParseInt(strings.TrimSpace(rec[colAmountDiff]), 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("parsing amount diff %q: %w", rec[colAmountDiff], err)
	}
	var fee *int64
	if s := strings.TrimSpace(rec[colFee]); s != "" {
		f, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Row{}, fmt.Errorf("parsing processor fee %q: %w", s, err)
		}
		fee = &f
	}
	decision, err := ParseDecision(rec[colDecision])
	if err != nil {
		return Row{}, err
	}

	return Row{
		MatchSuggestion: model.MatchSuggestion{
			TransactionID:     strings.TrimSpace(rec[colTxID]),
			MatchedType:       typ,
			MatchedID:         strings.TrimSpace(rec[colMatchedID]),
			Confidence:        conf,
			Reason:            rec[colReason],
			DayDiff:           days,
			AmountDiffCents:   diff,
			ProcessorFeeCents: fee,
		},
		Decision: decision,
	}, nil
}

// Rows wraps suggestions with an empty decision.
func Rows(suggestions []model.MatchSuggestion) []Row {
	rows := make([]Row, len(suggestions))
	for i, s := range suggestions {
		rows[i] = Row{MatchSuggestion: s}
	}
	return rows
}

// Write writes the header and rows as CSV.
func Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range rows {
		if err := cw.Write(MarshalRow(r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read parses a suggestions report. The header row is required.
func Read(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading report CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading report CSV: missing header")
	}
	if got := strings.Join(records[0], ","); got != Header {
		return nil, fmt.Errorf("unexpected header %q", got)
	}

	var rows []Row
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteFile writes a report to path, creating parent directories.
func WriteFile(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := Write(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads a report from path.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()
	return Read(f)
}
