package sepa_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vereinwerk/billing-engine/billing"
	"github.com/vereinwerk/billing-engine/sepa"
)

// =============================================================================
// IBAN VALIDATION
// =============================================================================

func TestValidateIBAN_KnownGoodIBANs(t *testing.T) {
	valid := []string{
		"DE89370400440532013000",
		"DE89 3704 0044 0532 0130 00", // spaces are tolerated
		"de89370400440532013000",      // case is tolerated
		"AT611904300234573201",
		"FR1420041010050500013M02606",
		"GB29NWBK60161331926819",
	}
	for _, iban := range valid {
		assert.True(t, sepa.ValidateIBAN(iban), "should be valid: %s", iban)
	}
}

func TestValidateIBAN_ChecksumCatchesMutations(t *testing.T) {
	// GIVEN: A valid IBAN
	// WHEN: Mutating any single digit
	// THEN: The MOD-97 checksum rejects it (a shape check would not)

	base := "DE89370400440532013000"
	assert.True(t, sepa.ValidateIBAN(base))

	for i := 4; i < len(base); i++ {
		mutated := []byte(base)
		if mutated[i] == '9' {
			mutated[i] = '0'
		} else {
			mutated[i]++
		}
		assert.False(t, sepa.ValidateIBAN(string(mutated)),
			"single mutation at %d must fail: %s", i, mutated)
	}
}

func TestValidateIBAN_Malformed(t *testing.T) {
	invalid := []string{
		"",
		"DE89",
		"1234567890",
		"DEXX370400440532013000", // letters where check digits belong
		"D189370400440532013000", // digit in country code
	}
	for _, iban := range invalid {
		assert.False(t, sepa.ValidateIBAN(iban), "should be invalid: %q", iban)
	}
}

func TestNormalizeAndFormatIBAN(t *testing.T) {
	assert.Equal(t, "DE89370400440532013000", sepa.NormalizeIBAN(" de89 3704 0044 0532 0130 00 "))
	assert.Equal(t, "DE89 3704 0044 0532 0130 00", sepa.FormatIBAN("DE89370400440532013000"))
}

// =============================================================================
// BIC VALIDATION
// =============================================================================

func TestValidateBIC(t *testing.T) {
	assert.True(t, sepa.ValidateBIC("COBADEFF"))    // 8 characters
	assert.True(t, sepa.ValidateBIC("COBADEFFXXX")) // 11 characters
	assert.True(t, sepa.ValidateBIC("MARKDEF1100"))

	assert.False(t, sepa.ValidateBIC(""))
	assert.False(t, sepa.ValidateBIC("COBADEFFX"))    // 9 characters
	assert.False(t, sepa.ValidateBIC("12BADEFF"))     // digits in bank code
	assert.False(t, sepa.ValidateBIC("COBADEFFXXXX")) // 12 characters
}

// =============================================================================
// MANDATES
// =============================================================================

func TestGenerateMandateReference(t *testing.T) {
	now := time.Date(2025, time.January, 15, 10, 30, 0, 0, time.UTC)

	ref := sepa.GenerateMandateReference("M-00042", now)

	assert.Contains(t, ref, "MAND-M-00042-")
	assert.LessOrEqual(t, len(ref), sepa.MaxMandateReferenceLen)
	// Later timestamps produce different references
	assert.NotEqual(t, ref, sepa.GenerateMandateReference("M-00042", now.Add(time.Second)))
}

func TestIsMandateValid(t *testing.T) {
	date := billing.NewDate(2024, time.June, 1)
	complete := billing.Member{
		IBAN:             "DE89370400440532013000",
		AccountHolder:    "Max Mustermann",
		MandateReference: "MAND-M-00001-X1",
		MandateDate:      &date,
		MandateStatus:    billing.MandateActive,
	}
	assert.True(t, sepa.IsMandateValid(complete))

	revoked := complete
	revoked.MandateStatus = billing.MandateRevoked
	assert.False(t, sepa.IsMandateValid(revoked))

	noIBAN := complete
	noIBAN.IBAN = ""
	assert.False(t, sepa.IsMandateValid(noIBAN))

	badIBAN := complete
	badIBAN.IBAN = "DE00370400440532013000"
	assert.False(t, sepa.IsMandateValid(badIBAN))

	noHolder := complete
	noHolder.AccountHolder = ""
	assert.False(t, sepa.IsMandateValid(noHolder))
}
