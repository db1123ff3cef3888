package config

import (
	"os"
	"strings"
)

// SheetSyncEnabled gates the validated-carga -> spreadsheet projection.
// Disable in environments without Google credentials.
//
// Set via env:
// - SHEET_SYNC_ENABLED=false
func SheetSyncEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("SHEET_SYNC_ENABLED")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// SheetSyncCreateTopic gates creating the sync topic on first publish.
// Useful on fresh projects; production topics are provisioned out of band.
//
// Set via env:
// - SHEETSYNC_CREATE_TOPIC=true
func SheetSyncCreateTopic() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("SHEETSYNC_CREATE_TOPIC")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// ImportArchiveEnabled gates archiving uploaded workbooks to Cloud Storage
// before they are parsed. Archiving is best-effort either way.
//
// Set via env:
// - IMPORT_ARCHIVE_GCS=true
func ImportArchiveEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("IMPORT_ARCHIVE_GCS")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
