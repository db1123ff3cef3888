package sheetsync

import (
	"strings"
	"testing"
)

func TestResolveTabName_KnownMinistries(t *testing.T) {
	cases := []struct {
		ministerio string
		tab        string
	}{
		{"Ministerio de Salud", "Salud"},
		{"Jefatura de Gabinete", "Jefatura_Gabinete"},
		{"Ministerio de Desarrollo Social", "Desarrollo_Social"},
	}
	for _, tc := range cases {
		if got := ResolveTabName(tc.ministerio); got != tc.tab {
			t.Fatalf("ResolveTabName(%q) = %q, expected %q", tc.ministerio, got, tc.tab)
		}
	}
}

func TestResolveTabName_SanitizeFallback(t *testing.T) {
	cases := []struct {
		ministerio string
		tab        string
	}{
		{"Secretaría de Ambiente", "Secretaría_de_Ambiente"},
		{"Niñez y Familia", "Niñez_y_Familia"},
		{"Obras Públicas (zona sur)", "Obras_Públicas_zona_sur"},
		{"  Turismo  ", "Turismo"},
	}
	for _, tc := range cases {
		if got := ResolveTabName(tc.ministerio); got != tc.tab {
			t.Fatalf("ResolveTabName(%q) = %q, expected %q", tc.ministerio, got, tc.tab)
		}
	}
}

func TestSanitizeTabName_Truncates(t *testing.T) {
	long := strings.Repeat("Ministerio ", 20)
	got := sanitizeTabName(long)
	if len([]rune(got)) != maxTabNameLength {
		t.Fatalf("sanitized length = %d, expected %d", len([]rune(got)), maxTabNameLength)
	}
}

func TestMonthName(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"1", "Enero"},
		{"12", "Diciembre"},
		{"enero", "Enero"},
		{"SEPTIEMBRE", "Septiembre"},
		{"", ""},
		{"13", "13"},
		{"2024Q1", "2024Q1"},
	}
	for _, tc := range cases {
		if got := MonthName(tc.in); got != tc.out {
			t.Fatalf("MonthName(%q) = %q, expected %q", tc.in, got, tc.out)
		}
	}
}
