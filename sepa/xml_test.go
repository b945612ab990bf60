package sepa_test

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vereinwerk/billing-engine/billing"
	"github.com/vereinwerk/billing-engine/sepa"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func testCreditorConfig() sepa.Config {
	return sepa.Config{
		CreditorName:    "Musterverein e.V.",
		CreditorIBAN:    "DE89370400440532013000",
		CreditorBIC:     "COBADEFFXXX",
		CreditorID:      "DE98ZZZ09999999999",
		MessageIDPrefix: "MSG",
	}
}

func testBatch() sepa.Batch {
	return sepa.Batch{
		ID:            "batch-1",
		BatchNumber:   "SEPA-000001",
		BatchDate:     billing.NewDate(2025, time.January, 13),
		ExecutionDate: billing.NewDate(2025, time.January, 15),
		Status:        sepa.BatchDraft,
	}
}

var testCreDtTm = time.Date(2025, time.January, 13, 9, 30, 0, 0, time.UTC)

// parsedDocument mirrors just enough of the pain.008 structure to check
// the generated file with a schema-agnostic parser.
type parsedDocument struct {
	XMLName xml.Name `xml:"Document"`
	GrpHdr  struct {
		MsgID   string `xml:"MsgId"`
		CreDtTm string `xml:"CreDtTm"`
		NbOfTxs string `xml:"NbOfTxs"`
		CtrlSum string `xml:"CtrlSum"`
	} `xml:"CstmrDrctDbtInitn>GrpHdr"`
	PmtInf struct {
		PmtMtd       string `xml:"PmtMtd"`
		SeqTp        string `xml:"PmtTpInf>SeqTp"`
		ReqdColltnDt string `xml:"ReqdColltnDt"`
		CdtrID       string `xml:"CdtrSchmeId>Id>PrvtId>Othr>Id"`
		Txs          []struct {
			EndToEndID string `xml:"PmtId>EndToEndId"`
			Amount     string `xml:"InstdAmt"`
			MndtID     string `xml:"DrctDbtTx>MndtRltdInf>MndtId"`
			BIC        string `xml:"DbtrAgt>FinInstnId>BIC"`
			OtherID    string `xml:"DbtrAgt>FinInstnId>Othr>Id"`
			DebtorName string `xml:"Dbtr>Nm"`
			IBAN       string `xml:"DbtrAcct>Id>IBAN"`
			Remittance string `xml:"RmtInf>Ustrd"`
		} `xml:"DrctDbtTxInf"`
	} `xml:"CstmrDrctDbtInitn>PmtInf"`
}

func parseDocument(t *testing.T, doc string) parsedDocument {
	t.Helper()
	var parsed parsedDocument
	require.NoError(t, xml.Unmarshal([]byte(doc), &parsed), "generated XML must be well-formed")
	return parsed
}

// =============================================================================
// DOCUMENT GENERATION
// =============================================================================

func TestGenerate_HeaderAndControlSum(t *testing.T) {
	// GIVEN: Two transactions of 120.00 and 55.50
	// WHEN: Generating the document
	// THEN: NbOfTxs is 2, CtrlSum is 175.50 with exactly two decimals

	gen := sepa.NewXMLGenerator(testCreditorConfig())

	tx1 := validTransaction()
	tx2 := validTransaction()
	tx2.Amount = decimal.RequireFromString("55.50")
	tx2.EndToEndID = "RE-000002"

	doc := gen.Generate(testBatch(), []sepa.DirectDebitTransaction{tx1, tx2}, testCreDtTm)
	parsed := parseDocument(t, doc)

	assert.Equal(t, "MSG-SEPA-000001", parsed.GrpHdr.MsgID)
	assert.Equal(t, "2025-01-13T09:30:00.000Z", parsed.GrpHdr.CreDtTm)
	assert.Equal(t, "2", parsed.GrpHdr.NbOfTxs)
	assert.Equal(t, "175.50", parsed.GrpHdr.CtrlSum)
	assert.Equal(t, "DD", parsed.PmtInf.PmtMtd)
	assert.Equal(t, "RCUR", parsed.PmtInf.SeqTp)
	assert.Equal(t, "2025-01-15", parsed.PmtInf.ReqdColltnDt)
	assert.Equal(t, "DE98ZZZ09999999999", parsed.PmtInf.CdtrID)
}

func TestGenerate_AmountsAlwaysTwoDecimals(t *testing.T) {
	// A whole-euro amount must serialize as "120.00", not "120".
	gen := sepa.NewXMLGenerator(testCreditorConfig())

	tx := validTransaction()
	tx.Amount = decimal.NewFromInt(120)

	doc := gen.Generate(testBatch(), []sepa.DirectDebitTransaction{tx}, testCreDtTm)

	assert.Contains(t, doc, `<InstdAmt Ccy="EUR">120.00</InstdAmt>`)
	assert.Contains(t, doc, "<CtrlSum>120.00</CtrlSum>")
}

func TestGenerate_TransactionFields(t *testing.T) {
	gen := sepa.NewXMLGenerator(testCreditorConfig())

	doc := gen.Generate(testBatch(), []sepa.DirectDebitTransaction{validTransaction()}, testCreDtTm)
	parsed := parseDocument(t, doc)

	require.Len(t, parsed.PmtInf.Txs, 1)
	tx := parsed.PmtInf.Txs[0]
	assert.Equal(t, "RE-000001", tx.EndToEndID)
	assert.Equal(t, "120.00", tx.Amount)
	assert.Equal(t, "MAND-M-00001-X1", tx.MndtID)
	assert.Equal(t, "COBADEFFXXX", tx.BIC)
	assert.Equal(t, "Max Mustermann", tx.DebtorName)
	assert.Equal(t, "DE89370400440532013000", tx.IBAN)
	assert.Contains(t, tx.Remittance, "Mitgliedsbeitrag")
}

func TestGenerate_MissingBICEmitsNotProvided(t *testing.T) {
	// IBAN-only debits must carry the NOTPROVIDED sentinel instead of a
	// BIC element; banks reject an empty <BIC/>.
	gen := sepa.NewXMLGenerator(testCreditorConfig())

	tx := validTransaction()
	tx.DebtorBIC = ""

	doc := gen.Generate(testBatch(), []sepa.DirectDebitTransaction{tx}, testCreDtTm)
	parsed := parseDocument(t, doc)

	require.Len(t, parsed.PmtInf.Txs, 1)
	assert.Empty(t, parsed.PmtInf.Txs[0].BIC)
	assert.Equal(t, "NOTPROVIDED", parsed.PmtInf.Txs[0].OtherID)
}

func TestGenerate_EscapesSpecialCharacters(t *testing.T) {
	// GIVEN: A debtor name with every XML special character
	// WHEN: Generating and re-parsing the document
	// THEN: The name round-trips intact and the raw text never contains
	//       an unescaped ampersand

	gen := sepa.NewXMLGenerator(testCreditorConfig())

	tx := validTransaction()
	tx.DebtorName = `Müller & Söhne <GmbH> "K'o"`
	tx.RemittanceInfo = "Beitrag 2025 & Aufnahme <neu>"

	doc := gen.Generate(testBatch(), []sepa.DirectDebitTransaction{tx}, testCreDtTm)

	assert.NotContains(t, doc, "& S", "ampersand must be escaped")
	assert.Contains(t, doc, "&amp; S")
	assert.NotContains(t, doc, "&amp;amp;", "entities must not be double-escaped")

	parsed := parseDocument(t, doc)
	require.Len(t, parsed.PmtInf.Txs, 1)
	assert.Equal(t, tx.DebtorName, parsed.PmtInf.Txs[0].DebtorName)
	assert.Equal(t, tx.RemittanceInfo, parsed.PmtInf.Txs[0].Remittance)
}

func TestGenerate_NormalizesDebtorIBAN(t *testing.T) {
	gen := sepa.NewXMLGenerator(testCreditorConfig())

	tx := validTransaction()
	tx.DebtorIBAN = "de89 3704 0044 0532 0130 00"

	doc := gen.Generate(testBatch(), []sepa.DirectDebitTransaction{tx}, testCreDtTm)
	parsed := parseDocument(t, doc)

	assert.Equal(t, "DE89370400440532013000", parsed.PmtInf.Txs[0].IBAN)
}

func TestGenerate_NamespaceAndDeclaration(t *testing.T) {
	gen := sepa.NewXMLGenerator(testCreditorConfig())

	doc := gen.Generate(testBatch(), []sepa.DirectDebitTransaction{validTransaction()}, testCreDtTm)

	assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, doc, `xmlns="urn:iso:std:iso:20022:tech:xsd:pain.008.001.02"`)
}

func TestMessageID(t *testing.T) {
	gen := sepa.NewXMLGenerator(testCreditorConfig())
	assert.Equal(t, "MSG-SEPA-000042", gen.MessageID("SEPA-000042"))
}
