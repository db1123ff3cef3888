package sheetsync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bitbucket.org/gobdata/seguimiento_backend/config"
	"bitbucket.org/gobdata/seguimiento_backend/models"
	"bitbucket.org/gobdata/seguimiento_backend/utils"
	"github.com/bsm/redislock"
)

// factHeader is the fixed column contract of every ministry tab. Column
// positions are load-bearing: row location matches on columns A (indicator
// id), H (periodo) and I (mes), so reordering requires a header migration.
var factHeader = []interface{}{
	"ID Indicador", "Indicador", "ID Línea", "Línea", "ID Ministerio", "Ministerio",
	"Periodicidad", "Periodo", "Mes", "Valor", "Unidad", "Meta", "Fuente",
	"Responsable", "Email Responsable", "Observaciones", "Estado", "Publicado", "Actualizado",
}

const (
	colIndicadorId = 0
	colPeriodo     = 7
	colMes         = 8
)

type Worker struct {
	Service SheetService
	Retry   RetryPolicy
}

func NewWorker() (*Worker, error) {
	service, err := NewGoogleSheetService()
	if err != nil {
		return nil, err
	}
	return &Worker{Service: service, Retry: DefaultRetryPolicy()}, nil
}

func cellString(row []interface{}, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return fmt.Sprint(row[idx])
}

func buildFactRow(carga *models.Carga, indicador *models.Indicador, linea *models.Linea, ministerio *models.Ministerio) []interface{} {
	meta := ""
	if carga.Meta != nil {
		meta = carga.Meta.String()
	}
	publicado := "NO"
	if carga.Publicado != nil && *carga.Publicado {
		publicado = "SI"
	}
	return []interface{}{
		carga.IndicadorId,
		indicador.Nombre,
		carga.LineaId,
		linea.Titulo,
		carga.MinisterioId,
		ministerio.Nombre,
		string(carga.Periodicidad),
		carga.Periodo,
		MonthName(carga.Mes),
		carga.Valor.String(),
		carga.Unidad,
		meta,
		carga.Fuente,
		carga.Responsable,
		carga.EmailResponsable,
		carga.Observaciones,
		string(carga.Estado),
		publicado,
		carga.UpdatedAt.Format(time.RFC3339),
	}
}

func headerRange(tab string) string { return fmt.Sprintf("'%s'!A1:S1", tab) }
func dataRange(tab string) string   { return fmt.Sprintf("'%s'!A:S", tab) }
func rowRange(tab string, rowNumber int) string {
	return fmt.Sprintf("'%s'!A%d:S%d", tab, rowNumber, rowNumber)
}

func headerMatches(current []interface{}) bool {
	if len(current) != len(factHeader) {
		return false
	}
	for i := range factHeader {
		if cellString(current, i) != fmt.Sprint(factHeader[i]) {
			return false
		}
	}
	return true
}

// ensureTabWithHeader provisions the destination tab and keeps its header row
// on the current contract. Rewriting a drifted header is idempotent.
func (w *Worker) ensureTabWithHeader(ctx context.Context, tab string) error {
	exists, err := w.Service.TabExists(ctx, tab)
	if err != nil {
		return err
	}
	if !exists {
		if err := w.Service.CreateTab(ctx, tab); err != nil {
			return err
		}
		return w.Service.UpdateValues(ctx, headerRange(tab), [][]interface{}{factHeader})
	}

	rows, err := w.Service.GetValues(ctx, headerRange(tab))
	if err != nil {
		return err
	}
	if len(rows) == 0 || !headerMatches(rows[0]) {
		return w.Service.UpdateValues(ctx, headerRange(tab), [][]interface{}{factHeader})
	}
	return nil
}

// locateRow scans the tab for the row matching the record's (indicator id,
// periodo, mes) triple. Returns the 1-based spreadsheet row number.
func (w *Worker) locateRow(ctx context.Context, tab string, indicadorId int, periodo string, mes string) (int, bool, error) {
	rows, err := w.Service.GetValues(ctx, dataRange(tab))
	if err != nil {
		return 0, false, err
	}
	wantId := fmt.Sprint(indicadorId)
	wantMes := MonthName(mes)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if cellString(row, colIndicadorId) == wantId &&
			cellString(row, colPeriodo) == periodo &&
			cellString(row, colMes) == wantMes {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

func (w *Worker) upsertRow(ctx context.Context, tab string, carga *models.Carga, row []interface{}) error {
	if err := w.ensureTabWithHeader(ctx, tab); err != nil {
		return err
	}
	rowNumber, found, err := w.locateRow(ctx, tab, carga.IndicadorId, carga.Periodo, carga.Mes)
	if err != nil {
		return err
	}
	if found {
		return w.Service.UpdateValues(ctx, rowRange(tab, rowNumber), [][]interface{}{row})
	}
	return w.Service.AppendValues(ctx, dataRange(tab), [][]interface{}{row})
}

// UpsertCargaFact projects one validated carga into its ministry tab,
// updating the matching row in place or appending a new one. The whole write
// sequence runs under the retry policy; the last error is returned for the
// caller to log and absorb.
func (w *Worker) UpsertCargaFact(ctx context.Context, carga *models.Carga) error {
	indicador, err := models.GetIndicador(ctx, carga.IndicadorId)
	if err != nil {
		return err
	}
	linea, err := models.GetLinea(ctx, carga.LineaId)
	if err != nil {
		return err
	}
	ministerio, err := models.GetMinisterio(ctx, carga.MinisterioId)
	if err != nil {
		return err
	}

	tab := ResolveTabName(ministerio.Nombre)
	row := buildFactRow(carga, indicador, linea, ministerio)

	err = w.Retry.Run(ctx, func(ctx context.Context) error {
		return w.upsertRow(ctx, tab, carga, row)
	})
	if err != nil {
		return utils.NewTransientSyncError(err, "upsert of carga %d into tab %s failed", carga.ID, tab)
	}
	return nil
}

// ProcessSyncMessage handles one Pub/Sub delivery: a bulk resync when the
// message carries a run id, otherwise a single validated carga.
func (w *Worker) ProcessSyncMessage(ctx context.Context, msg config.CargaSyncMessage) error {
	if msg.RunId != 0 {
		run, err := models.GetSheetSyncRun(ctx, msg.RunId)
		if err != nil {
			return err
		}
		return w.ProcessResyncRun(ctx, run)
	}
	if msg.CargaId == 0 {
		return utils.NewValidationError("sync message carries neither run_id nor carga_id")
	}
	return w.processSingleCarga(ctx, msg)
}

func (w *Worker) processSingleCarga(ctx context.Context, msg config.CargaSyncMessage) error {
	logger := config.GetLogger()

	carga, err := models.GetCarga(ctx, msg.CargaId)
	if err != nil {
		return err
	}
	if carga.Estado != models.CargaStatusValidated {
		// Stale delivery, the carga moved on.
		return nil
	}

	run, err := models.CreateSheetSyncRun(ctx, models.SyncTriggeredSystem, msg.CorrelationId)
	if err != nil {
		return err
	}
	if err := models.MarkSheetSyncRunRunning(ctx, run); err != nil {
		return err
	}

	syncErr := w.UpsertCargaFact(ctx, carga)
	if syncErr != nil {
		config.LogError(logger, "worker.go", "processSingleCarga", "UpsertCargaFact", carga.ID, syncErr)
		_ = models.CreateSheetSyncError(ctx, run.ID, carga.ID, "", "upsert_failed", syncErr.Error(), true)
		return models.FinishSheetSyncRun(ctx, run, models.SyncRunStatusFailed, 0, 1, nil)
	}
	return models.FinishSheetSyncRun(ctx, run, models.SyncRunStatusSuccess, 1, 0, nil)
}

// ProcessResyncRun replays every validated carga into the spreadsheet. Tabs
// are processed one at a time under a per-tab lock so the row-locate-then-
// write sequence never races another resync in this deployment.
func (w *Worker) ProcessResyncRun(ctx context.Context, run *models.SheetSyncRun) error {
	logger := config.GetLogger()

	switch run.Status {
	case models.SyncRunStatusSuccess, models.SyncRunStatusFailed, models.SyncRunStatusPartial:
		// Redelivered message for a settled run.
		return nil
	}

	if err := models.MarkSheetSyncRunRunning(ctx, run); err != nil {
		return err
	}

	if err := w.Service.Preflight(ctx); err != nil {
		config.LogError(logger, "worker.go", "ProcessResyncRun", "Preflight", run.ID, err)
		_ = models.CreateSheetSyncError(ctx, run.ID, 0, "", "preflight_failed", err.Error(), true)
		return models.FinishSheetSyncRun(ctx, run, models.SyncRunStatusFailed, 0, 1, nil)
	}

	estado := models.CargaStatusValidated
	cargas, err := models.GetCargas(ctx, models.CargaFilter{Estado: &estado})
	if err != nil {
		_ = models.CreateSheetSyncError(ctx, run.ID, 0, "", "load_failed", err.Error(), false)
		return models.FinishSheetSyncRun(ctx, run, models.SyncRunStatusFailed, 0, 1, nil)
	}

	// Group by destination tab so each tab is written by exactly one loop.
	byTab := map[string][]*models.Carga{}
	tabOrder := []string{}
	for _, carga := range cargas {
		ministerio, err := models.GetMinisterio(ctx, carga.MinisterioId)
		if err != nil {
			_ = models.CreateSheetSyncError(ctx, run.ID, carga.ID, "", "ministerio_not_found", err.Error(), false)
			continue
		}
		tab := ResolveTabName(ministerio.Nombre)
		if _, ok := byTab[tab]; !ok {
			tabOrder = append(tabOrder, tab)
		}
		byTab[tab] = append(byTab[tab], carga)
	}

	synced := 0
	errorCount := 0
	stats := map[string]int{}

	for _, tab := range tabOrder {
		lock := w.obtainTabLock(ctx, tab)
		for _, carga := range byTab[tab] {
			if err := w.UpsertCargaFact(ctx, carga); err != nil {
				errorCount++
				config.LogError(logger, "worker.go", "ProcessResyncRun", "UpsertCargaFact", carga.ID, err)
				_ = models.CreateSheetSyncError(ctx, run.ID, carga.ID, tab, "upsert_failed", err.Error(), true)
				continue
			}
			synced++
			stats[tab]++
		}
		if lock != nil {
			_ = lock.Release(ctx)
		}
	}

	status := models.SyncRunStatusSuccess
	if errorCount > 0 && synced == 0 {
		status = models.SyncRunStatusFailed
	} else if errorCount > 0 {
		status = models.SyncRunStatusPartial
	}

	statsJSON, _ := json.Marshal(stats)
	return models.FinishSheetSyncRun(ctx, run, status, synced, errorCount, statsJSON)
}

// obtainTabLock serializes writers of one tab. Redis being down degrades to
// unlocked best-effort writes rather than blocking the resync.
func (w *Worker) obtainTabLock(ctx context.Context, tab string) *redislock.Lock {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil
	}
	lock, err := locker.Obtain(ctx, "sheetsync:tab:"+tab, 2*time.Minute, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(500*time.Millisecond), 20),
	})
	if err != nil {
		config.LogError(config.GetLogger(), "worker.go", "obtainTabLock", "Obtain", tab, err)
		return nil
	}
	return lock
}
