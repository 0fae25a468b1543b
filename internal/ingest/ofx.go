package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/hollisfi/ledgerlens/internal/model"
)

// severityRegex fixes mixed-case SEVERITY values some banks emit.
var severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)

// tagFixRegex closes SGML-style tags missing their bracket at end of line.
var tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)

// preprocessOFX repairs formatting quirks before handing the content to
// the OFX parser.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ReadOFX parses an OFX/QFX export into transactions. Descriptions stay as
// the bank wrote them; pattern matching depends on the raw text, so no
// merchant cleanup happens here. Negative amounts become debits.
func ReadOFX(r io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading OFX input: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("parsing OFX: %w", err)
	}

	var txns []model.Transaction
	var statements int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		statements++
		for _, ofxTxn := range stmt.BankTranList.Transactions {
			txns = append(txns, convertOFX(ofxTxn))
		}
	}
	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		statements++
		for _, ofxTxn := range stmt.BankTranList.Transactions {
			txns = append(txns, convertOFX(ofxTxn))
		}
	}

	slog.Info("parsed OFX export",
		"statements", statements,
		"transactions", len(txns))
	return txns, nil
}

func convertOFX(ofxTxn ofxgo.Transaction) model.Transaction {
	amount, _ := ofxTxn.TrnAmt.Float64()

	txn := model.Transaction{
		Date:        ofxTxn.DtPosted.Time,
		Description: joinDescription(string(ofxTxn.Name), string(ofxTxn.Memo)),
		Amount:      amount,
		Type:        model.TypeCredit,
	}
	if amount < 0 {
		txn.Amount = -amount
		txn.Type = model.TypeDebit
	}
	return txn
}

// joinDescription merges NAME and MEMO when the memo adds information.
// Lender patterns often live in the memo while the name is a bare "DEBIT".
func joinDescription(name, memo string) string {
	name = strings.TrimSpace(name)
	memo = strings.TrimSpace(memo)

	switch {
	case name == "":
		return memo
	case memo == "" || strings.EqualFold(memo, name):
		return name
	default:
		return name + " " + memo
	}
}
