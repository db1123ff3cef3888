package models

import (
	"context"
	"time"

	"bitbucket.org/gobdata/seguimiento_backend/config"
	"bitbucket.org/gobdata/seguimiento_backend/utils"
)

const (
	SyncRunStatusQueued  = "queued"
	SyncRunStatusRunning = "running"
	SyncRunStatusSuccess = "success"
	SyncRunStatusFailed  = "failed"
	SyncRunStatusPartial = "partial"
)

const (
	SyncTriggeredManual = "manual"
	SyncTriggeredRetry  = "retry"
	SyncTriggeredSystem = "system"
)

// SheetSyncRun records one projection pass against the published spreadsheet,
// either a single-carga push or a bulk resync.
type SheetSyncRun struct {
	ID            uint       `gorm:"primary_key" json:"id"`
	Status        string     `gorm:"size:20;not null;index" json:"status"`
	TriggeredBy   string     `gorm:"size:20" json:"triggered_by"`
	CorrelationId string     `gorm:"size:64;index" json:"correlation_id"`
	RecordsSynced int        `json:"records_synced"`
	ErrorCount    int        `json:"error_count"`
	StatsJSON     []byte     `gorm:"type:json" json:"stats"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	DurationMs    int64      `json:"duration_ms"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type SheetSyncError struct {
	ID        uint      `gorm:"primary_key" json:"id"`
	SyncRunId uint      `gorm:"index;not null" json:"sync_run_id"`
	CargaId   int       `gorm:"index" json:"carga_id"`
	TabName   string    `gorm:"size:100" json:"tab_name"`
	ErrorCode string    `gorm:"size:64" json:"error_code"`
	Message   string    `gorm:"type:text" json:"message"`
	Retryable bool      `gorm:"default:false" json:"retryable"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func CreateSheetSyncRun(ctx context.Context, triggeredBy string, correlationId string) (*SheetSyncRun, error) {
	run := SheetSyncRun{
		Status:        SyncRunStatusQueued,
		TriggeredBy:   triggeredBy,
		CorrelationId: correlationId,
	}
	db := config.GetDB()
	// db action
	err := db.WithContext(ctx).Create(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func GetSheetSyncRun(ctx context.Context, id uint) (*SheetSyncRun, error) {
	var run SheetSyncRun
	db := config.GetDB()
	err := db.WithContext(ctx).Where("id = ?", id).Take(&run).Error
	if err != nil {
		return nil, utils.NewNotFoundError("sync run %d not found", id)
	}
	return &run, nil
}

func GetSheetSyncRuns(ctx context.Context, limit int) ([]*SheetSyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = config.SearchLimit
	}
	var runs []*SheetSyncRun
	db := config.GetDB()
	err := db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// GetLastSheetSyncRun returns the most recent run, or nil when no run has been
// recorded yet.
func GetLastSheetSyncRun(ctx context.Context) (*SheetSyncRun, error) {
	runs, err := GetSheetSyncRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

func MarkSheetSyncRunRunning(ctx context.Context, run *SheetSyncRun) error {
	now := time.Now()
	startedAt := run.StartedAt
	if startedAt == nil {
		startedAt = &now
	}
	db := config.GetDB()
	// db action
	err := db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"status":     SyncRunStatusRunning,
		"started_at": startedAt,
	}).Error
	if err != nil {
		return err
	}
	run.Status = SyncRunStatusRunning
	run.StartedAt = startedAt
	return nil
}

func FinishSheetSyncRun(ctx context.Context, run *SheetSyncRun, status string, recordsSynced int, errorCount int, statsJSON []byte) error {
	finishedAt := time.Now()
	var durationMs int64
	if run.StartedAt != nil {
		durationMs = finishedAt.Sub(*run.StartedAt).Milliseconds()
	}
	db := config.GetDB()
	// db action
	err := db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"status":         status,
		"finished_at":    finishedAt,
		"duration_ms":    durationMs,
		"records_synced": recordsSynced,
		"error_count":    errorCount,
		"stats_json":     statsJSON,
	}).Error
	if err != nil {
		return err
	}
	run.Status = status
	run.FinishedAt = &finishedAt
	run.DurationMs = durationMs
	run.RecordsSynced = recordsSynced
	run.ErrorCount = errorCount
	run.StatsJSON = statsJSON
	return nil
}

func CreateSheetSyncError(ctx context.Context, runId uint, cargaId int, tabName string, code string, message string, retryable bool) error {
	syncErr := SheetSyncError{
		SyncRunId: runId,
		CargaId:   cargaId,
		TabName:   tabName,
		ErrorCode: code,
		Message:   message,
		Retryable: retryable,
	}
	db := config.GetDB()
	// db action
	return db.WithContext(ctx).Create(&syncErr).Error
}

func GetSheetSyncErrors(ctx context.Context, runId uint) ([]*SheetSyncError, error) {
	var errorsList []*SheetSyncError
	db := config.GetDB()
	err := db.WithContext(ctx).Where("sync_run_id = ?", runId).Order("id ASC").Find(&errorsList).Error
	if err != nil {
		return nil, err
	}
	return errorsList, nil
}
