// Package sheetsync projects validated cargas into the published Google
// spreadsheet, one tab per ministry, one fact row per (indicador, periodo,
// mes). The projection is best-effort: its failures are logged and recorded,
// never surfaced to the review workflow.
package sheetsync

import "time"

// PubSubPushEnvelope is the wire shape of a Pub/Sub push delivery.
type PubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

type SyncRunResponse struct {
	ID            uint   `json:"id"`
	Status        string `json:"status"`
	TriggeredBy   string `json:"triggered_by"`
	CorrelationId string `json:"correlation_id"`
	RecordsSynced int    `json:"records_synced"`
	ErrorCount    int    `json:"error_count"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at"`
	DurationMs    int64  `json:"duration_ms"`
}

type SyncErrorResponse struct {
	CargaId   int    `json:"carga_id"`
	TabName   string `json:"tab_name"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type StatusResponse struct {
	Enabled bool             `json:"enabled"`
	LastRun *SyncRunResponse `json:"last_run"`
}

type RunDetailResponse struct {
	Run    SyncRunResponse     `json:"run"`
	Errors []SyncErrorResponse `json:"errors"`
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
