/*
definitions.go - Pre-built contribution definitions

PURPOSE:
  Ready-to-use fee plans for common association setups. These are
  convenience constructors; real deployments create definitions through
  the API and adjust amounts per Satzung (bylaws).
*/
package billing

import "github.com/shopspring/decimal"

// StandardMembershipFee returns an annually billed full membership fee.
func StandardMembershipFee(id DefinitionID, annualAmount decimal.Decimal) ContributionDefinition {
	return ContributionDefinition{
		ID:                 id,
		Name:               "Mitgliedsbeitrag",
		Description:        "Regulärer Jahresbeitrag",
		Amount:             annualAmount,
		Currency:           "EUR",
		RecurrenceInterval: IntervalAnnual,
		IsActive:           true,
	}
}

// ReducedMembershipFee returns a reduced fee (students, retirees),
// billed annually.
func ReducedMembershipFee(id DefinitionID, annualAmount decimal.Decimal) ContributionDefinition {
	return ContributionDefinition{
		ID:                 id,
		Name:               "Ermäßigter Mitgliedsbeitrag",
		Description:        "Ermäßigter Jahresbeitrag für Schüler, Studierende und Rentner",
		Amount:             annualAmount,
		Currency:           "EUR",
		RecurrenceInterval: IntervalAnnual,
		IsActive:           true,
	}
}

// MonthlyMembershipFee returns a monthly billed membership fee.
func MonthlyMembershipFee(id DefinitionID, monthlyAmount decimal.Decimal) ContributionDefinition {
	return ContributionDefinition{
		ID:                 id,
		Name:               "Mitgliedsbeitrag (monatlich)",
		Description:        "Monatlicher Mitgliedsbeitrag",
		Amount:             monthlyAmount,
		Currency:           "EUR",
		RecurrenceInterval: IntervalMonthly,
		IsActive:           true,
	}
}

// EntranceFee returns a one-time entrance fee for new members.
func EntranceFee(id DefinitionID, amount decimal.Decimal) ContributionDefinition {
	return ContributionDefinition{
		ID:                 id,
		Name:               "Aufnahmegebühr",
		Description:        "Einmalige Aufnahmegebühr bei Vereinseintritt",
		Amount:             amount,
		Currency:           "EUR",
		RecurrenceInterval: IntervalOneTime,
		IsActive:           true,
	}
}
