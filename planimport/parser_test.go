package planimport

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheet string, rows [][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("SetSheetName: %v", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestParseWorkbook_MergedCommitments(t *testing.T) {
	rows := [][]interface{}{
		{"Ministerio", "Compromisos", "Indicadores", "Meta", "", ""},
		{"", "", "", "", "Enero", "Febrero"},
		// Header leakage from the merged region; must not open a commitment.
		{"", "Compromisos", "", "", "", ""},
		{"", "A) Plan de vacunación provincial", "Porcentaje de población vacunada", "", "39%", ""},
		{"", "", "Centros de vacunación habilitados", "", "", ""},
		{"", "", "Campañas de difusión realizadas", "", "", ""},
		{"", "B) Red de atención primaria", "Casos atendidos en centros nuevos", "", "", "4 casos"},
		{"", "", "Centros de salud renovados", "", "0", "-"},
	}
	reader := buildWorkbook(t, "Salud", rows)

	plans, importErrors, err := ParseWorkbook(reader)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if len(importErrors) != 0 {
		t.Fatalf("expected no sheet errors, got %v", importErrors)
	}
	if len(plans) != 1 {
		t.Fatalf("expected 1 sheet plan, got %d", len(plans))
	}

	plan := plans[0]
	if plan.Ministerio != "Salud" {
		t.Fatalf("ministerio = %q, expected Salud", plan.Ministerio)
	}
	if len(plan.Compromisos) != 2 {
		t.Fatalf("expected 2 commitments, got %d", len(plan.Compromisos))
	}

	first := plan.Compromisos[0]
	if first.Titulo != "A) Plan de vacunación provincial" {
		t.Fatalf("first commitment title = %q", first.Titulo)
	}
	if len(first.Indicadores) != 3 {
		t.Fatalf("first commitment expected 3 indicators, got %d: %v", len(first.Indicadores), first.Indicadores)
	}
	if got := first.Valores["enero"]; got != 0.39 {
		t.Fatalf("first commitment enero = %v, expected 0.39 from \"39%%\"", got)
	}

	second := plan.Compromisos[1]
	if second.Titulo != "B) Red de atención primaria" {
		t.Fatalf("second commitment title = %q", second.Titulo)
	}
	if len(second.Indicadores) != 2 {
		t.Fatalf("second commitment expected 2 indicators, got %d: %v", len(second.Indicadores), second.Indicadores)
	}
	if got := second.Valores["febrero"]; got != 4 {
		t.Fatalf("second commitment febrero = %v, expected 4 from \"4 casos\"", got)
	}
	// "0" and "-" never store a value.
	if _, ok := second.Valores["enero"]; ok {
		t.Fatalf("second commitment should have no enero value, got %v", second.Valores["enero"])
	}
}

func TestParseWorkbook_ShortSheetReported(t *testing.T) {
	reader := buildWorkbook(t, "Vacía", [][]interface{}{{"solo una fila"}})
	plans, importErrors, err := ParseWorkbook(reader)
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if len(plans) != 0 {
		t.Fatalf("expected no plans, got %d", len(plans))
	}
	if len(importErrors) != 1 || importErrors[0].Hoja != "Vacía" {
		t.Fatalf("expected one error for sheet Vacía, got %v", importErrors)
	}
}

func TestExtractNumber(t *testing.T) {
	cases := []struct {
		cell  string
		value float64
		ok    bool
	}{
		{"42", 42, true},
		{"39%", 0.39, true},
		{"4 casos", 4, true},
		{"12,5", 12.5, true},
		{"meta: 80% de cobertura", 0.8, true},
		{"0", 0, false},
		{"-", 0, false},
		{"", 0, false},
		{"sin dato", 0, false},
	}
	for _, tc := range cases {
		value, ok := extractNumber(tc.cell)
		if ok != tc.ok || (ok && value != tc.value) {
			t.Fatalf("extractNumber(%q) = (%v, %v), expected (%v, %v)", tc.cell, value, ok, tc.value, tc.ok)
		}
	}
}

func TestMonthFromHeader(t *testing.T) {
	cases := []struct {
		header    string
		canonical string
		ok        bool
	}{
		{"Enero", "enero", true},
		{"ENE", "enero", true},
		{"Feb", "febrero", true},
		{"February", "febrero", true},
		{"Setiembre", "septiembre", true},
		{"dic-23", "diciembre", true},
		{"Meta anual", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		canonical, ok := monthFromHeader(tc.header)
		if ok != tc.ok || canonical != tc.canonical {
			t.Fatalf("monthFromHeader(%q) = (%q, %v), expected (%q, %v)", tc.header, canonical, ok, tc.canonical, tc.ok)
		}
	}
}

func TestIsNewCommitment(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"A) Plan de vacunación", true},
		{"1. Obra pública", true},
		{"3) Becas escolares", true},
		{"12 Viviendas nuevas", true},
		{"Compromisos", false},
		{"Ministerio de Salud", false},
		{"A través de convenios", false},
		{"", false},
		{"1.", false},
		{"Porcentaje de avance", false},
	}
	for _, tc := range cases {
		if got := isNewCommitment(tc.text); got != tc.want {
			t.Fatalf("isNewCommitment(%q) = %v, expected %v", tc.text, got, tc.want)
		}
	}
}
