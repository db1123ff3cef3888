package planimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"bitbucket.org/gobdata/seguimiento_backend/models"
	"bitbucket.org/gobdata/seguimiento_backend/utils"
	"github.com/shopspring/decimal"
)

// importYear resolves the reporting year the workbook covers. The workbooks
// carry month headers only, never a year.
func importYear() int {
	if raw := os.Getenv("IMPORT_YEAR"); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil && year > 2000 {
			return year
		}
	}
	return time.Now().Year()
}

// ImportWorkbook parses the workbook and loads it into the catalog: one
// ministry per sheet, one linea per commitment, one indicador per indicator
// row, and one pending carga per monthly value on the commitment's first
// indicator. Existing open cargas are skipped and counted, never overwritten.
func ImportWorkbook(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	plans, parseErrors, err := ParseWorkbook(r)
	if err != nil {
		return nil, utils.NewValidationError("el archivo no es un workbook xlsx legible: %v", err)
	}

	year := importYear()
	summary := ImportSummary{
		Hojas:   len(plans),
		Errores: parseErrors,
	}
	if correlationId, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		summary.CorrelationId = correlationId
	}

	for _, plan := range plans {
		ministerio, err := models.GetOrCreateMinisterio(ctx, plan.Ministerio)
		if err != nil {
			summary.Errores = append(summary.Errores, ImportError{Hoja: plan.Ministerio, Detalle: err.Error()})
			continue
		}
		summary.Ministerios++

		for _, compromiso := range plan.Compromisos {
			linea, err := models.GetOrCreateLinea(ctx, ministerio.ID, compromiso.Titulo)
			if err != nil {
				summary.Errores = append(summary.Errores, ImportError{Hoja: plan.Ministerio, Detalle: err.Error()})
				continue
			}
			summary.Lineas++

			var first *models.Indicador
			for _, nombre := range compromiso.Indicadores {
				indicador, err := models.GetOrCreateIndicador(ctx, linea.ID, nombre)
				if err != nil {
					summary.Errores = append(summary.Errores, ImportError{Hoja: plan.Ministerio, Detalle: err.Error()})
					continue
				}
				summary.Indicadores++
				if first == nil {
					first = indicador
				}
			}
			if first == nil {
				continue
			}

			// Monthly values hang off the commitment; they are loaded as
			// pending cargas on its first indicator.
			for month, value := range compromiso.Valores {
				monthNumber, ok := MonthNumber(month)
				if !ok {
					continue
				}
				input := models.NewCarga{
					IndicadorId: first.ID,
					Periodo:     fmt.Sprintf("%d-%02d", year, monthNumber),
					Mes:         month,
					Valor:       decimal.NewFromFloat(value),
					Fuente:      "importación de plan",
					Enviar:      utils.NewTrue(),
				}
				_, err := models.CreateCarga(ctx, &input)
				if err != nil {
					var precondition *utils.PreconditionError
					if errors.As(err, &precondition) {
						summary.Omitidos++
						continue
					}
					summary.Errores = append(summary.Errores, ImportError{Hoja: plan.Ministerio, Detalle: err.Error()})
					continue
				}
				summary.Cargas++
			}
		}
	}

	return &summary, nil
}
