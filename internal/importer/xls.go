package importer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/extrame/xls"

	"github.com/studiops/bankrecon/internal/model"
)

// XLSParser parses legacy binary (BIFF) workbooks with the same row
// heuristics as XLSXParser.
type XLSParser struct {
	Now func() time.Time
}

// Format returns the parser name.
func (p *XLSParser) Format() string { return string(model.FileTypeXLS) }

// Parse reads every sheet and returns the first one holding transactions.
func (p *XLSParser) Parse(content []byte) (st *model.Statement, err error) {
	// The BIFF reader panics on some truncated files.
	defer func() {
		if r := recover(); r != nil {
			st, err = nil, fmt.Errorf("reading xls workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("opening xls workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("parsing xls: workbook has no sheets")
	}

	var grids [][][]string
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		grids = append(grids, xlsGrid(sheet))
	}
	return firstStatement(grids, clock(p.Now)), nil
}

func xlsGrid(sheet *xls.WorkSheet) [][]string {
	maxRow := int(sheet.MaxRow)
	rows := make([][]string, 0, maxRow+1)
	for i := 0; i <= maxRow; i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for c := range cells {
			cells[c] = row.Col(c)
		}
		rows = append(rows, cells)
	}
	return rows
}
