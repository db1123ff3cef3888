package sheetsync

import (
	"net/http"
	"strconv"

	"bitbucket.org/gobdata/seguimiento_backend/config"
	"bitbucket.org/gobdata/seguimiento_backend/models"
	"bitbucket.org/gobdata/seguimiento_backend/utils"
	"github.com/gin-gonic/gin"
)

func requireReviewer(c *gin.Context) bool {
	role, _ := utils.GetRoleFromContext(c.Request.Context())
	if !models.UserRole(role).IsReviewer() {
		c.JSON(http.StatusForbidden, gin.H{"error": "reviewer role required"})
		return false
	}
	return true
}

func mapRunToResponse(run *models.SheetSyncRun) SyncRunResponse {
	return SyncRunResponse{
		ID:            run.ID,
		Status:        run.Status,
		TriggeredBy:   run.TriggeredBy,
		CorrelationId: run.CorrelationId,
		RecordsSynced: run.RecordsSynced,
		ErrorCount:    run.ErrorCount,
		StartedAt:     formatTime(run.StartedAt),
		FinishedAt:    formatTime(run.FinishedAt),
		DurationMs:    run.DurationMs,
	}
}

func mapErrors(errorsList []*models.SheetSyncError) []SyncErrorResponse {
	out := make([]SyncErrorResponse, 0, len(errorsList))
	for _, e := range errorsList {
		out = append(out, SyncErrorResponse{
			CargaId:   e.CargaId,
			TabName:   e.TabName,
			ErrorCode: e.ErrorCode,
			Message:   e.Message,
			Retryable: e.Retryable,
		})
	}
	return out
}

func StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		last, err := models.GetLastSheetSyncRun(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp := StatusResponse{Enabled: config.SheetSyncEnabled()}
		if last != nil {
			run := mapRunToResponse(last)
			resp.LastRun = &run
		}
		c.JSON(http.StatusOK, resp)
	}
}

// TriggerResyncHandler queues a bulk resync: one run row, one Pub/Sub
// message. The worker behind the push endpoint does the actual writing.
func TriggerResyncHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireReviewer(c) {
			return
		}
		ctx := c.Request.Context()
		correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

		run, err := models.CreateSheetSyncRun(ctx, models.SyncTriggeredManual, correlationId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		_, err = config.PublishCargaSync(ctx, config.CargaSyncMessage{
			RunId:         run.ID,
			CorrelationId: correlationId,
		})
		if err != nil {
			config.LogError(config.GetLogger(), "handlers.go", "TriggerResyncHandler", "PublishCargaSync", run.ID, err)
			_ = models.FinishSheetSyncRun(ctx, run, models.SyncRunStatusFailed, 0, 1, nil)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not queue the resync"})
			return
		}

		c.JSON(http.StatusAccepted, mapRunToResponse(run))
	}
}

func HistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		runs, err := models.GetSheetSyncRuns(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out := make([]SyncRunResponse, 0, len(runs))
		for _, run := range runs {
			out = append(out, mapRunToResponse(run))
		}
		c.JSON(http.StatusOK, gin.H{"runs": out})
	}
}

func RunDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}
		ctx := c.Request.Context()
		run, err := models.GetSheetSyncRun(ctx, uint(id))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		errorsList, err := models.GetSheetSyncErrors(ctx, run.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, RunDetailResponse{
			Run:    mapRunToResponse(run),
			Errors: mapErrors(errorsList),
		})
	}
}
