package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollisfi/ledgerlens/internal/model"
)

const sampleOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240103120000[0:GMT]
<TRNAMT>10000.00
<FITID>2024010301
<NAME>MERCH DEPOSIT
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-450.00
<FITID>2024011501
<NAME>ACH DEBIT ONDECK CAPITAL 123456789
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-1200.00
<FITID>2024012001
<NAME>DEBIT
<MEMO>FORWARD FINANCING WEEKLY PMT 554433
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>8350.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestReadOFX(t *testing.T) {
	txns, err := ReadOFX(strings.NewReader(sampleOFX))
	require.NoError(t, err)
	require.Len(t, txns, 3)

	deposit := txns[0]
	assert.Equal(t, model.TypeCredit, deposit.Type)
	assert.Equal(t, 10000.0, deposit.Amount)
	assert.Equal(t, "MERCH DEPOSIT", deposit.Description)
	assert.Equal(t, 2024, deposit.Date.Year())
	assert.Equal(t, time.January, deposit.Date.Month())
	assert.Equal(t, 3, deposit.Date.Day())

	payment := txns[1]
	assert.Equal(t, model.TypeDebit, payment.Type)
	assert.Equal(t, 450.0, payment.Amount, "debit amounts are stored unsigned")
	assert.Equal(t, "ACH DEBIT ONDECK CAPITAL 123456789", payment.Description)

	// A bare NAME keeps the lender-bearing MEMO attached.
	memo := txns[2]
	assert.Equal(t, "DEBIT FORWARD FINANCING WEEKLY PMT 554433", memo.Description)
}

func TestReadOFX_Invalid(t *testing.T) {
	_, err := ReadOFX(strings.NewReader("not an ofx file"))
	assert.Error(t, err)

	_, err = ReadOFX(strings.NewReader(""))
	assert.Error(t, err)
}

func TestJoinDescription(t *testing.T) {
	assert.Equal(t, "A B", joinDescription("A", "B"))
	assert.Equal(t, "A", joinDescription("A", ""))
	assert.Equal(t, "B", joinDescription("", "B"))
	assert.Equal(t, "NETFLIX.COM", joinDescription("NETFLIX.COM", "netflix.com"))
}
