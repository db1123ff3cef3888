package sheetsync

import (
	"context"

	"bitbucket.org/gobdata/seguimiento_backend/config"
	"google.golang.org/api/sheets/v4"
)

// SheetService is the slice of the spreadsheet API the synchronizer needs.
// The worker talks only to this interface so it can run against a fake in
// tests.
type SheetService interface {
	// Preflight checks that the spreadsheet is reachable at all.
	Preflight(ctx context.Context) error
	TabExists(ctx context.Context, tab string) (bool, error)
	CreateTab(ctx context.Context, tab string) error
	// GetValues returns the cell grid for an A1 range.
	GetValues(ctx context.Context, rangeA1 string) ([][]interface{}, error)
	// UpdateValues overwrites the cells of an A1 range.
	UpdateValues(ctx context.Context, rangeA1 string, values [][]interface{}) error
	// AppendValues appends rows after the last data row of an A1 range.
	AppendValues(ctx context.Context, rangeA1 string, values [][]interface{}) error
}

type googleSheetService struct {
	spreadsheetId string
}

// NewGoogleSheetService returns the production SheetService bound to the
// configured spreadsheet.
func NewGoogleSheetService() (SheetService, error) {
	spreadsheetId, err := config.SpreadsheetId()
	if err != nil {
		return nil, err
	}
	return &googleSheetService{spreadsheetId: spreadsheetId}, nil
}

func (s *googleSheetService) service(ctx context.Context) (*sheets.Service, error) {
	return config.GetSheetsService(ctx)
}

func (s *googleSheetService) Preflight(ctx context.Context) error {
	svc, err := s.service(ctx)
	if err != nil {
		return err
	}
	_, err = svc.Spreadsheets.Get(s.spreadsheetId).Fields("spreadsheetId").Context(ctx).Do()
	return err
}

func (s *googleSheetService) TabExists(ctx context.Context, tab string) (bool, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return false, err
	}
	meta, err := svc.Spreadsheets.Get(s.spreadsheetId).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, err
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == tab {
			return true, nil
		}
	}
	return false, nil
}

func (s *googleSheetService) CreateTab(ctx context.Context, tab string) error {
	svc, err := s.service(ctx)
	if err != nil {
		return err
	}
	request := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: tab},
				},
			},
		},
	}
	_, err = svc.Spreadsheets.BatchUpdate(s.spreadsheetId, request).Context(ctx).Do()
	return err
}

func (s *googleSheetService) GetValues(ctx context.Context, rangeA1 string) ([][]interface{}, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := svc.Spreadsheets.Values.Get(s.spreadsheetId, rangeA1).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *googleSheetService) UpdateValues(ctx context.Context, rangeA1 string, values [][]interface{}) error {
	svc, err := s.service(ctx)
	if err != nil {
		return err
	}
	body := &sheets.ValueRange{Values: values}
	_, err = svc.Spreadsheets.Values.Update(s.spreadsheetId, rangeA1, body).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

func (s *googleSheetService) AppendValues(ctx context.Context, rangeA1 string, values [][]interface{}) error {
	svc, err := s.service(ctx)
	if err != nil {
		return err
	}
	body := &sheets.ValueRange{Values: values}
	_, err = svc.Spreadsheets.Values.Append(s.spreadsheetId, rangeA1, body).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}
