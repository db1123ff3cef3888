package config

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var (
	sheetsService   *sheets.Service
	sheetsServiceMu sync.Mutex
)

// GetSheetsService returns a cached Google Sheets API service.
// Uses Application Default Credentials unless SHEETS_CREDENTIALS_JSON is provided.
func GetSheetsService(ctx context.Context) (*sheets.Service, error) {
	sheetsServiceMu.Lock()
	defer sheetsServiceMu.Unlock()

	if sheetsService != nil {
		return sheetsService, nil
	}

	var (
		svc *sheets.Service
		err error
	)
	if credJSON := strings.TrimSpace(os.Getenv("SHEETS_CREDENTIALS_JSON")); credJSON != "" {
		svc, err = sheets.NewService(ctx, option.WithCredentialsJSON([]byte(credJSON)), option.WithScopes(sheets.SpreadsheetsScope))
	} else {
		svc, err = sheets.NewService(ctx, option.WithScopes(sheets.SpreadsheetsScope))
	}
	if err != nil {
		return nil, err
	}
	sheetsService = svc
	return sheetsService, nil
}

// ResetSheetsService drops the cached service so the next call rebuilds it
// with fresh credentials. Used by the synchronizer's retry loop when a call
// fails with an expired/invalid credential.
func ResetSheetsService() {
	sheetsServiceMu.Lock()
	sheetsService = nil
	sheetsServiceMu.Unlock()
}

func SpreadsheetId() (string, error) {
	id := strings.TrimSpace(os.Getenv("SHEETS_SPREADSHEET_ID"))
	if id == "" {
		return "", errors.New("SHEETS_SPREADSHEET_ID is required")
	}
	return id, nil
}
