package models

import "testing"

func TestIsValidPeriod_PatternsPerPeriodicity(t *testing.T) {
	cases := []struct {
		periodo      string
		periodicidad Periodicity
		valid        bool
	}{
		{"2024-01", PeriodicityMensual, true},
		{"2024-12", PeriodicityMensual, true},
		{"2024-13", PeriodicityMensual, false},
		{"2024-1", PeriodicityMensual, false},
		{"2024Q1", PeriodicityTrimestral, true},
		{"2024Q4", PeriodicityTrimestral, true},
		{"2024Q5", PeriodicityTrimestral, false},
		{"2024-01", PeriodicityTrimestral, false},
		{"2024S1", PeriodicitySemestral, true},
		{"2024S2", PeriodicitySemestral, true},
		{"2024S3", PeriodicitySemestral, false},
		{"2024Q1", PeriodicitySemestral, false},
		{"2024", PeriodicityAnual, true},
		{"2024-01", PeriodicityAnual, false},
		{"24", PeriodicityAnual, false},
	}
	for _, tc := range cases {
		got := IsValidPeriod(tc.periodo, tc.periodicidad)
		if got != tc.valid {
			t.Fatalf("IsValidPeriod(%q, %q) = %v, expected %v", tc.periodo, tc.periodicidad, got, tc.valid)
		}
	}
}

func TestIsValidPeriod_SentinelsBypassPatterns(t *testing.T) {
	// The plan-level sentinel periods are valid for every periodicity even
	// when they do not match its pattern.
	for _, periodicidad := range []Periodicity{PeriodicityMensual, PeriodicityTrimestral, PeriodicitySemestral, PeriodicityAnual} {
		if !IsValidPeriod(PeriodoPlanAnual, periodicidad) {
			t.Fatalf("IsValidPeriod(%q, %q) expected true", PeriodoPlanAnual, periodicidad)
		}
		if !IsValidPeriod(PeriodoPlanCompleto, periodicidad) {
			t.Fatalf("IsValidPeriod(%q, %q) expected true", PeriodoPlanCompleto, periodicidad)
		}
	}
}

func TestValidatePeriod_ReturnsValidationError(t *testing.T) {
	if err := ValidatePeriod("2024-01", PeriodicityMensual); err != nil {
		t.Fatalf("ValidatePeriod valid period returned error: %v", err)
	}
	if err := ValidatePeriod("enero 2024", PeriodicityMensual); err == nil {
		t.Fatal("ValidatePeriod expected error for malformed period")
	}
}
