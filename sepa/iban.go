/*
iban.go - IBAN/BIC validation and SEPA mandate checks

IBAN validation implements the full ISO 7064 MOD-97 checksum, not just
a shape check: move the first four characters to the end, map letters
A-Z to 10-35, and reduce the resulting digit string modulo 97 in chunks.
A valid IBAN leaves a remainder of exactly 1, which makes the check
sensitive to any single-character mutation.
*/
package sepa

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/vereinwerk/billing-engine/billing"
)

var (
	ibanPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{1,30}$`)
	bicPattern  = regexp.MustCompile(`^[A-Z]{6}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
)

// NormalizeIBAN strips all whitespace and uppercases. This is the form
// serialized into SEPA XML.
func NormalizeIBAN(iban string) string {
	var b strings.Builder
	for _, r := range iban {
		if !unicode.IsSpace(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// ValidateIBAN checks format and MOD-97 checksum.
func ValidateIBAN(iban string) bool {
	clean := NormalizeIBAN(iban)
	if !ibanPattern.MatchString(clean) {
		return false
	}
	return mod97(clean) == 1
}

// mod97 computes the ISO 7064 remainder of the rearranged IBAN.
func mod97(iban string) int {
	rearranged := iban[4:] + iban[:4]

	// Expand letters to two-digit numbers (A=10 ... Z=35).
	var digits strings.Builder
	for _, r := range rearranged {
		if r >= 'A' && r <= 'Z' {
			digits.WriteString(strconv.Itoa(int(r-'A') + 10))
		} else {
			digits.WriteRune(r)
		}
	}

	// Reduce in 7-digit chunks; the running remainder (max 2 digits)
	// prefixes each chunk, so every intermediate fits in an int.
	rem := 0
	num := digits.String()
	for len(num) > 0 {
		take := 7
		if take > len(num) {
			take = len(num)
		}
		n, err := strconv.Atoi(strconv.Itoa(rem) + num[:take])
		if err != nil {
			return -1
		}
		rem = n % 97
		num = num[take:]
	}
	return rem
}

// ValidateBIC checks the 8- or 11-character BIC format.
func ValidateBIC(bic string) bool {
	return bicPattern.MatchString(NormalizeIBAN(bic))
}

// FormatIBAN returns the display form, grouped in blocks of four
// (DE89 3704 0044 0532 0130 00).
func FormatIBAN(iban string) string {
	clean := NormalizeIBAN(iban)
	var groups []string
	for i := 0; i < len(clean); i += 4 {
		end := i + 4
		if end > len(clean) {
			end = len(clean)
		}
		groups = append(groups, clean[i:end])
	}
	return strings.Join(groups, " ")
}

// GenerateMandateReference builds a new mandate reference for a member.
// The base36 timestamp keeps references unique per member without a
// central sequence.
func GenerateMandateReference(memberNumber string, now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return "MAND-" + memberNumber + "-" + ts
}

// IsMandateValid reports whether the member can be used in a
// direct-debit transaction: the mandate must be active, IBAN, account
// holder and mandate reference must all be present, and the IBAN must
// pass checksum validation.
func IsMandateValid(m billing.Member) bool {
	if m.MandateStatus != billing.MandateActive {
		return false
	}
	if m.IBAN == "" || m.AccountHolder == "" || m.MandateReference == "" {
		return false
	}
	return ValidateIBAN(m.IBAN)
}
