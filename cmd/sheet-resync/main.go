// sheet-resync replays every validated carga into the published spreadsheet
// in-process, without going through Pub/Sub. Meant for backfills and for
// repairing a spreadsheet someone edited by hand.
//
// Usage (from backend directory):
//
//	DB_* SHEETS_SPREADSHEET_ID=... go run ./cmd/sheet-resync
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/gobdata/seguimiento_backend/config"
	"bitbucket.org/gobdata/seguimiento_backend/models"
	"bitbucket.org/gobdata/seguimiento_backend/sheetsync"
	"github.com/google/uuid"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	worker, err := sheetsync.NewWorker()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build sheet worker: %v\n", err)
		os.Exit(1)
	}

	run, err := models.CreateSheetSyncRun(ctx, models.SyncTriggeredManual, uuid.NewString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not record sync run: %v\n", err)
		os.Exit(1)
	}

	if err := worker.ProcessResyncRun(ctx, run); err != nil {
		fmt.Fprintf(os.Stderr, "resync run %d failed: %v\n", run.ID, err)
		os.Exit(1)
	}

	fmt.Printf("resync run %d finished: status=%s synced=%d errors=%d\n",
		run.ID, run.Status, run.RecordsSynced, run.ErrorCount)
}
