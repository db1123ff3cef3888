// Package planimport recovers structured commitment/indicator groupings from
// manually authored ministry workbooks and loads them as pending cargas.
package planimport

// Compromiso is one policy commitment recovered from a sheet, with the
// indicator rows grouped under it and the monthly values found on those rows.
type Compromiso struct {
	Titulo      string             `json:"titulo"`
	Indicadores []string           `json:"indicadores"`
	Valores     map[string]float64 `json:"valores"`
}

// SheetPlan is the parsed content of one sheet. Each sheet represents one
// ministry; the sheet name is the ministry name.
type SheetPlan struct {
	Ministerio  string       `json:"ministerio"`
	Compromisos []Compromiso `json:"compromisos"`
}

type ImportError struct {
	Hoja    string `json:"hoja"`
	Detalle string `json:"detalle"`
}

// ImportSummary reports what an import pass did. Parsing degrades gracefully,
// unrecognized rows are skipped rather than failing the whole workbook.
type ImportSummary struct {
	Hojas         int           `json:"hojas"`
	Ministerios   int           `json:"ministerios"`
	Lineas        int           `json:"lineas"`
	Indicadores   int           `json:"indicadores"`
	Cargas        int           `json:"cargas"`
	Omitidos      int           `json:"omitidos"`
	Errores       []ImportError `json:"errores"`
	ArchivoGCS    string        `json:"archivo_gcs,omitempty"`
	CorrelationId string        `json:"correlation_id,omitempty"`
}
