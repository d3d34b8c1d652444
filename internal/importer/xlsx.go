package importer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/studiops/bankrecon/internal/model"
)

// XLSXParser parses credit-card statements exported as Office Open XML workbooks.
type XLSXParser struct {
	Now func() time.Time
}

// Format returns the parser name.
func (p *XLSXParser) Format() string { return string(model.FileTypeXLSX) }

// Parse returns the first sheet that yields transactions, or the first
// sheet's empty statement when none do.
func (p *XLSXParser) Parse(content []byte) (*model.Statement, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("opening xlsx workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("parsing xlsx: workbook has no sheets")
	}

	grids := make([][][]string, 0, len(sheets))
	for _, name := range sheets {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", name, err)
		}
		grids = append(grids, rows)
	}
	return firstStatement(grids, clock(p.Now)), nil
}

func firstStatement(grids [][][]string, now time.Time) *model.Statement {
	var first *model.Statement
	for _, rows := range grids {
		st := scanSheet(rows, now)
		if len(st.Transactions) > 0 {
			return st
		}
		if first == nil {
			first = st
		}
	}
	if first == nil {
		first = &model.Statement{}
	}
	return first
}

func clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}
