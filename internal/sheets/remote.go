package sheets

import (
	"context"

	"gsheet-api/internal/models"
	"gsheet-api/internal/rangemap"
)

// ValueInputRaw stores values exactly as sent, without formula parsing.
const ValueInputRaw = "RAW"

// SpreadsheetQuery selects the spreadsheets visible to the service account.
const SpreadsheetQuery = "trashed = false and mimeType = 'application/vnd.google-apps.spreadsheet'"

// Remote is the part of the spreadsheet service this API consumes.
// Errors are *apperr.Error of kind UPSTREAM_ERROR when the call failed
// remotely.
type Remote interface {
	ListSpreadsheetFiles(ctx context.Context, query string) ([]models.SpreadsheetFile, error)
	GetSheetsMetadata(ctx context.Context, spreadsheetID string) ([]models.SheetInfo, error)
	// BatchGetRanges returns one grid per requested range, in order.
	BatchGetRanges(ctx context.Context, spreadsheetID string, ranges []string) ([]rangemap.Grid, error)
	GetRange(ctx context.Context, spreadsheetID, rng string) (rangemap.Grid, error)
	BatchUpdateValues(ctx context.Context, spreadsheetID, valueInputOption string, data []rangemap.ValueWrite) ([]models.UpdatedRange, error)
	AppendValues(ctx context.Context, spreadsheetID, rng, valueInputOption string, values rangemap.Grid) (models.AppendResult, error)
	// BatchUpdateStructure applies row deletions in the given order.
	BatchUpdateStructure(ctx context.Context, spreadsheetID string, deletes []rangemap.DeleteRange) error
}
