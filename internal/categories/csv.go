package categories

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/studiops/bankrecon/internal/model"
)

const (
	numFields   = 3
	colKeyword  = 0
	colCategory = 1
	colPriority = 2
)

// ReadRules reads categorization-rules.csv.
func ReadRules(r io.Reader) ([]model.CategoryRule, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading rules CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var rules []model.CategoryRule
	for i, rec := range records[1:] {
		rule, err := UnmarshalRule(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// WriteRules writes categorization-rules.csv.
func WriteRules(w io.Writer, rules []model.CategoryRule) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"keyword", "category", "priority"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rule := range rules {
		if err := cw.Write(MarshalRule(rule)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRule converts a CategoryRule to a CSV row.
func MarshalRule(rule model.CategoryRule) []string {
	row := make([]string, numFields)
	row[colKeyword] = rule.Keyword
	row[colCategory] = rule.CategoryName
	row[colPriority] = strconv.Itoa(rule.Priority)
	return row
}

// UnmarshalRule converts a CSV row to a CategoryRule.
func UnmarshalRule(record []string) (model.CategoryRule, error) {
	if len(record) != numFields {
		return model.CategoryRule{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	keyword := strings.TrimSpace(record[colKeyword])
	if keyword == "" {
		return model.CategoryRule{}, fmt.Errorf("empty keyword")
	}
	category := strings.TrimSpace(record[colCategory])
	if category == "" {
		return model.CategoryRule{}, fmt.Errorf("empty category for keyword %q", keyword)
	}

	var priority int
	if p := strings.TrimSpace(record[colPriority]); p != "" {
		var err error
		priority, err = strconv.Atoi(p)
		if err != nil {
			return model.CategoryRule{}, fmt.Errorf("parsing priority %q: %w", p, err)
		}
	}

	return model.CategoryRule{
		Keyword:      keyword,
		CategoryName: category,
		Priority:     priority,
	}, nil
}
