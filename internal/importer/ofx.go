package importer

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/studiops/bankrecon/internal/model"
	"github.com/studiops/bankrecon/internal/money"
	"github.com/studiops/bankrecon/internal/textutil"
)

// OFXParser parses OFX 1.x (SGML) and 2.x (XML) statements.
type OFXParser struct{}

var (
	ofxMarkerRe = regexp.MustCompile(`(?i)<(OFX|STMTTRN)>`)
	ofxTrnRe    = regexp.MustCompile(`(?i)<STMTTRN>`)
	ofxTrnEndRe = regexp.MustCompile(`(?i)</STMTTRN>|</BANKTRANLIST>`)
	ofxTags     = map[string]*regexp.Regexp{}
)

func init() {
	for _, tag := range []string{"BANKID", "ACCTID", "DTSTART", "DTEND", "TRNTYPE", "DTPOSTED", "TRNAMT", "FITID", "MEMO", "NAME"} {
		ofxTags[tag] = regexp.MustCompile(`(?i)<` + tag + `>\s*([^<\r\n]*)`)
	}
}

// Format returns the parser name.
func (p *OFXParser) Format() string { return string(model.FileTypeOFX) }

// Parse reads an OFX document. Transaction blocks missing a type, date,
// amount or id are skipped.
func (p *OFXParser) Parse(content []byte) (*model.Statement, error) {
	text := textutil.Decode(content)
	if !ofxMarkerRe.MatchString(text) {
		return nil, fmt.Errorf("parsing ofx: no OFX content found")
	}

	st := &model.Statement{
		BankID:    ofxValue(text, "BANKID"),
		AccountID: ofxValue(text, "ACCTID"),
	}

	blocks := ofxTrnRe.Split(text, -1)
	for _, block := range blocks[1:] {
		if loc := ofxTrnEndRe.FindStringIndex(block); loc != nil {
			block = block[:loc[0]]
		}
		tx, ok := parseOFXBlock(block)
		if !ok {
			continue
		}
		st.Transactions = append(st.Transactions, tx)
	}

	start, okStart := ofxDate(ofxValue(text, "DTSTART"))
	end, okEnd := ofxDate(ofxValue(text, "DTEND"))
	if okStart && okEnd {
		st.PeriodStart, st.PeriodEnd = start, end
	} else {
		for _, tx := range st.Transactions {
			st.ExtendPeriod(tx.PostedDate)
		}
	}
	return st, nil
}

func parseOFXBlock(block string) (model.RawTransaction, bool) {
	trnType := strings.ToUpper(ofxValue(block, "TRNTYPE"))
	posted, okDate := ofxDate(ofxValue(block, "DTPOSTED"))
	rawAmount := ofxValue(block, "TRNAMT")
	fitID := ofxValue(block, "FITID")
	if trnType == "" || !okDate || rawAmount == "" || fitID == "" {
		return model.RawTransaction{}, false
	}

	// OFX amounts always use a decimal point; some banks emit a comma instead.
	amount, err := decimal.NewFromString(strings.Replace(rawAmount, ",", ".", 1))
	if err != nil {
		return model.RawTransaction{}, false
	}

	memo := ofxValue(block, "MEMO")
	if memo == "" {
		memo = ofxValue(block, "NAME")
	}

	dir := model.DirectionCredit
	if amount.IsNegative() || trnType == "DEBIT" {
		dir = model.DirectionDebit
	}

	return model.RawTransaction{
		Type:        dir,
		PostedDate:  posted,
		AmountCents: money.Abs(money.ToCents(amount)),
		ExternalID:  fitID,
		Memo:        memo,
	}, true
}

// ofxValue returns the trimmed, unescaped value of the first tag occurrence.
func ofxValue(s, tag string) string {
	m := ofxTags[tag].FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}

// ofxDate reads the YYYYMMDD prefix of an OFX datetime.
func ofxDate(s string) (time.Time, bool) {
	if len(s) < 8 {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102", s[:8])
	if err != nil {
		return time.Time{}, false
	}
	return model.Date(t.Year(), t.Month(), t.Day()), true
}
