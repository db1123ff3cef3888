package models

import (
	"regexp"

	"bitbucket.org/gobdata/seguimiento_backend/utils"
)

// Two sentinel reporting windows are valid for every indicator regardless of
// its periodicity: the plan year and the whole-of-plan range.
const (
	PeriodoPlanAnual    = "2023"
	PeriodoPlanCompleto = "2020-2023"
)

var periodPatterns = map[Periodicity]*regexp.Regexp{
	PeriodicityMensual:    regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`),
	PeriodicityTrimestral: regexp.MustCompile(`^\d{4}Q[1-4]$`),
	PeriodicitySemestral:  regexp.MustCompile(`^\d{4}S[1-2]$`),
	PeriodicityAnual:      regexp.MustCompile(`^\d{4}$`),
}

func IsValidPeriod(periodo string, periodicidad Periodicity) bool {
	if periodo == PeriodoPlanAnual || periodo == PeriodoPlanCompleto {
		return true
	}
	pattern, ok := periodPatterns[periodicidad]
	if !ok {
		return false
	}
	return pattern.MatchString(periodo)
}

// ValidatePeriod rejects before anything is persisted.
func ValidatePeriod(periodo string, periodicidad Periodicity) error {
	if !IsValidPeriod(periodo, periodicidad) {
		return utils.NewValidationError("periodo %q no es válido para periodicidad %q", periodo, periodicidad)
	}
	return nil
}
