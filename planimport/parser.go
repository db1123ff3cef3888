package planimport

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// columnLayout is the per-sheet column geometry: where the commitment and
// indicator columns live and where the month columns begin.
type columnLayout struct {
	Compromiso int
	Indicador  int
	MesInicio  int
}

var defaultLayout = columnLayout{Compromiso: 1, Indicador: 2, MesInicio: 4}

// A few ministries hand in sheets with shifted columns. Keyed by lowercase
// sheet name.
var sheetOverrides = map[string]columnLayout{
	"jefatura de gabinete": {Compromiso: 2, Indicador: 3, MesInicio: 5},
	"seguridad":            {Compromiso: 1, Indicador: 3, MesInicio: 5},
}

// spanishMonths in calendar order; index+1 is the month number.
var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// monthAliases maps header spellings, Spanish and English, full and
// abbreviated, onto the canonical Spanish month name. Ordered so matching is
// deterministic.
var monthAliases = []struct {
	Alias     string
	Canonical string
}{
	{"enero", "enero"}, {"ene", "enero"}, {"january", "enero"}, {"jan", "enero"},
	{"febrero", "febrero"}, {"feb", "febrero"}, {"february", "febrero"},
	{"marzo", "marzo"}, {"mar", "marzo"}, {"march", "marzo"},
	{"abril", "abril"}, {"abr", "abril"}, {"april", "abril"}, {"apr", "abril"},
	{"mayo", "mayo"}, {"may", "mayo"},
	{"junio", "junio"}, {"jun", "junio"}, {"june", "junio"},
	{"julio", "julio"}, {"jul", "julio"}, {"july", "julio"},
	{"agosto", "agosto"}, {"ago", "agosto"}, {"august", "agosto"}, {"aug", "agosto"},
	{"septiembre", "septiembre"}, {"setiembre", "septiembre"}, {"sep", "septiembre"}, {"september", "septiembre"},
	{"octubre", "octubre"}, {"oct", "octubre"}, {"october", "octubre"},
	{"noviembre", "noviembre"}, {"nov", "noviembre"}, {"november", "noviembre"},
	{"diciembre", "diciembre"}, {"dic", "diciembre"}, {"dec", "diciembre"},
}

// MonthNumber maps a canonical Spanish month name to its 1-12 number.
func MonthNumber(canonical string) (int, bool) {
	for i, name := range spanishMonths {
		if name == canonical {
			return i + 1, true
		}
	}
	return 0, false
}

func monthFromHeader(header string) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return "", false
	}
	for _, entry := range monthAliases {
		if strings.Contains(h, entry.Alias) {
			return entry.Canonical, true
		}
	}
	return "", false
}

// Rows whose commitment/indicator cell is one of these are header leakage
// from the merged regions above the data, never content.
var headerLikePrefixes = []string{
	"compromisos", "ministerio", "area", "área", "a través de", "a traves de",
}

func isHeaderLike(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, prefix := range headerLikePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// The numbering conventions the authoring ministries actually use for
// commitment rows: "A)", "1.", "1)", "1 " and a bare leading digit.
var commitmentNumberings = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]\)`),
	regexp.MustCompile(`^\d+\.`),
	regexp.MustCompile(`^\d+\)`),
	regexp.MustCompile(`^\d+\s`),
	regexp.MustCompile(`^\d`),
}

func matchesCommitmentNumbering(text string) bool {
	trimmed := strings.TrimSpace(text)
	for _, pattern := range commitmentNumberings {
		if pattern.MatchString(trimmed) {
			return true
		}
	}
	return false
}

func isNewCommitment(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || isHeaderLike(trimmed) || len([]rune(trimmed)) <= 3 {
		return false
	}
	return matchesCommitmentNumbering(trimmed)
}

func isIndicatorText(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || isHeaderLike(trimmed) || len([]rune(trimmed)) <= 3 {
		return false
	}
	// Commitment text leaking into the indicator column keeps its numbering.
	return !matchesCommitmentNumbering(trimmed)
}

var numberPattern = regexp.MustCompile(`[-+]?\d+(?:[.,]\d+)?`)

// extractNumber pulls a numeric value out of a cell, accepting a literal
// number or the first number embedded in text ("39%", "4 casos"). A % suffix
// divides by 100. Zero and non-numeric cells yield no value.
func extractNumber(cell string) (float64, bool) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return 0, false
	}
	match := numberPattern.FindString(trimmed)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.Replace(match, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	if strings.Contains(trimmed, "%") {
		value = value / 100
	}
	if value == 0 {
		return 0, false
	}
	return value, true
}

type scanState int

const (
	stateNoCommitment scanState = iota
	stateInCommitment
)

// sheetScanner carries the merged-cell accumulator: the commitment last seen
// in the commitments column stays current until a new numbered row replaces
// it. Flush happens on that replacement and once more at end of sheet.
type sheetScanner struct {
	state   scanState
	current Compromiso
	out     []Compromiso
}

func (s *sheetScanner) startCommitment(title string) {
	s.flush()
	s.current = Compromiso{
		Titulo:      strings.TrimSpace(title),
		Indicadores: nil,
		Valores:     map[string]float64{},
	}
	s.state = stateInCommitment
}

func (s *sheetScanner) addIndicator(text string) {
	if s.state != stateInCommitment {
		return
	}
	s.current.Indicadores = append(s.current.Indicadores, strings.TrimSpace(text))
}

func (s *sheetScanner) addValue(month string, value float64) {
	if s.state != stateInCommitment {
		return
	}
	s.current.Valores[month] = value
}

// flush commits the open commitment when it has at least one indicator.
func (s *sheetScanner) flush() {
	if s.state == stateInCommitment && len(s.current.Indicadores) > 0 {
		s.out = append(s.out, s.current)
	}
	s.current = Compromiso{}
	s.state = stateNoCommitment
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// resolveLayout locates the commitment, indicator and first month columns by
// header text, falling back to fixed positions and per-sheet overrides when
// the headers cannot be located.
func resolveLayout(sheetName string, rows [][]string) columnLayout {
	layout := defaultLayout
	if override, ok := sheetOverrides[strings.ToLower(strings.TrimSpace(sheetName))]; ok {
		layout = override
	}

	compromiso, indicador, mesInicio := -1, -1, -1
	for i, header := range rows[0] {
		lower := strings.ToLower(header)
		if compromiso < 0 && strings.Contains(lower, "compromiso") {
			compromiso = i
		}
		if indicador < 0 && strings.Contains(lower, "indicador") {
			indicador = i
		}
	}
	for i, header := range rows[1] {
		if _, ok := monthFromHeader(header); ok {
			mesInicio = i
			break
		}
	}

	if compromiso >= 0 {
		layout.Compromiso = compromiso
	}
	if indicador >= 0 {
		layout.Indicador = indicador
	}
	if mesInicio >= 0 {
		layout.MesInicio = mesInicio
	}
	return layout
}

func parseSheet(sheetName string, rows [][]string) SheetPlan {
	plan := SheetPlan{Ministerio: strings.TrimSpace(sheetName)}
	if len(rows) < 2 {
		return plan
	}

	layout := resolveLayout(sheetName, rows)

	// Column index -> canonical month, resolved once from the month header row.
	monthCols := map[int]string{}
	for i := layout.MesInicio; i < len(rows[1]); i++ {
		if month, ok := monthFromHeader(rows[1][i]); ok {
			monthCols[i] = month
		}
	}

	scanner := sheetScanner{}
	for _, row := range rows[2:] {
		if cell := cellAt(row, layout.Compromiso); isNewCommitment(cell) {
			scanner.startCommitment(cell)
		}
		cell := cellAt(row, layout.Indicador)
		if !isIndicatorText(cell) {
			continue
		}
		scanner.addIndicator(cell)
		for col := layout.MesInicio; col < len(row); col++ {
			month, ok := monthCols[col]
			if !ok {
				continue
			}
			if value, ok := extractNumber(row[col]); ok {
				scanner.addValue(month, value)
			}
		}
	}
	scanner.flush()

	plan.Compromisos = scanner.out
	return plan
}

// ParseWorkbook reads an uploaded xlsx workbook, one sheet per ministry, and
// recovers the commitment groupings of every sheet. Sheets that cannot be
// read or are too short are reported in the error list; they never fail the
// workbook as a whole.
func ParseWorkbook(r io.Reader) ([]SheetPlan, []ImportError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var plans []SheetPlan
	var importErrors []ImportError
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			importErrors = append(importErrors, ImportError{Hoja: sheetName, Detalle: err.Error()})
			continue
		}
		if len(rows) < 2 {
			importErrors = append(importErrors, ImportError{Hoja: sheetName, Detalle: "la hoja no tiene filas de encabezado"})
			continue
		}
		plans = append(plans, parseSheet(sheetName, rows))
	}
	return plans, importErrors, nil
}
