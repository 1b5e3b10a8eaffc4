package sheets

import (
	"context"
	"time"

	drivev3 "google.golang.org/api/drive/v3"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"gsheet-api/internal/apperr"
	"gsheet-api/internal/models"
	"gsheet-api/internal/rangemap"
)

func (c *Client) ListSpreadsheetFiles(ctx context.Context, query string) ([]models.SpreadsheetFile, error) {
	files := []models.SpreadsheetFile{}
	err := c.drive.Files.List().
		Q(query).
		Fields("nextPageToken, files(id, name, modifiedTime)").
		Spaces("drive").
		PageSize(1000).
		Pages(ctx, func(fl *drivev3.FileList) error {
			for _, f := range fl.Files {
				files = append(files, models.SpreadsheetFile{ID: f.Id, Name: f.Name, ModifiedTime: f.ModifiedTime})
			}
			return nil
		})
	if err != nil {
		return nil, c.upstream("files.list", err)
	}
	return files, nil
}

func (c *Client) GetSheetsMetadata(ctx context.Context, spreadsheetID string) ([]models.SheetInfo, error) {
	resp, err := c.srv.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return nil, c.upstream("spreadsheets.get", err)
	}
	out := make([]models.SheetInfo, 0, len(resp.Sheets))
	for _, sh := range resp.Sheets {
		p := sh.Properties
		if p == nil {
			continue
		}
		info := models.SheetInfo{Title: p.Title, Index: p.Index, SheetID: p.SheetId}
		if gp := p.GridProperties; gp != nil {
			info.RowCount = gp.RowCount
			info.ColumnCount = gp.ColumnCount
		}
		out = append(out, info)
	}
	return out, nil
}

func (c *Client) BatchGetRanges(ctx context.Context, spreadsheetID string, ranges []string) ([]rangemap.Grid, error) {
	resp, err := c.srv.Spreadsheets.Values.BatchGet(spreadsheetID).
		Ranges(ranges...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, c.upstream("values.batchGet", err)
	}
	out := make([]rangemap.Grid, len(ranges))
	for i, vr := range resp.ValueRanges {
		if i < len(out) && vr != nil {
			out[i] = vr.Values
		}
	}
	return out, nil
}

func (c *Client) GetRange(ctx context.Context, spreadsheetID, rng string) (rangemap.Grid, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, c.upstream("values.get", err)
	}
	return resp.Values, nil
}

func (c *Client) BatchUpdateValues(ctx context.Context, spreadsheetID, valueInputOption string, data []rangemap.ValueWrite) ([]models.UpdatedRange, error) {
	req := &sheetsv4.BatchUpdateValuesRequest{
		ValueInputOption: valueInputOption,
		Data:             make([]*sheetsv4.ValueRange, 0, len(data)),
	}
	for _, d := range data {
		req.Data = append(req.Data, &sheetsv4.ValueRange{Range: d.Range, Values: d.Values})
	}
	resp, err := c.srv.Spreadsheets.Values.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return nil, c.upstream("values.batchUpdate", err)
	}
	out := make([]models.UpdatedRange, 0, len(resp.Responses))
	for _, r := range resp.Responses {
		out = append(out, models.UpdatedRange{
			SpreadsheetID:  r.SpreadsheetId,
			UpdatedRange:   r.UpdatedRange,
			UpdatedRows:    r.UpdatedRows,
			UpdatedColumns: r.UpdatedColumns,
			UpdatedCells:   r.UpdatedCells,
		})
	}
	return out, nil
}

func (c *Client) AppendValues(ctx context.Context, spreadsheetID, rng, valueInputOption string, values rangemap.Grid) (models.AppendResult, error) {
	vr := &sheetsv4.ValueRange{Values: values}
	resp, err := c.srv.Spreadsheets.Values.Append(spreadsheetID, rng, vr).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		IncludeValuesInResponse(true).
		Context(ctx).
		Do()
	if err != nil {
		return models.AppendResult{}, c.upstream("values.append", err)
	}
	res := models.AppendResult{TableRange: resp.TableRange}
	if u := resp.Updates; u != nil {
		res.UpdatedRange = u.UpdatedRange
		res.UpdatedRows = u.UpdatedRows
	}
	return res, nil
}

func (c *Client) BatchUpdateStructure(ctx context.Context, spreadsheetID string, deletes []rangemap.DeleteRange) error {
	req := &sheetsv4.BatchUpdateSpreadsheetRequest{
		Requests: make([]*sheetsv4.Request, 0, len(deletes)),
	}
	for _, d := range deletes {
		req.Requests = append(req.Requests, &sheetsv4.Request{
			DeleteDimension: &sheetsv4.DeleteDimensionRequest{
				Range: &sheetsv4.DimensionRange{
					SheetId:         d.SheetID,
					Dimension:       "ROWS",
					StartIndex:      d.StartIndex,
					EndIndex:        d.EndIndex,
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		})
	}
	if _, err := c.srv.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return c.upstream("spreadsheets.batchUpdate", err)
	}
	return nil
}

func (c *Client) upstream(call string, err error) error {
	c.log.Debug().Str("call", call).Err(err).Msg("spreadsheet service call failed")
	return apperr.FromUpstream(err)
}

// Ping checks that the credentials can reach Drive. Used at startup.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	_, err := c.drive.About.Get().Fields("user(emailAddress)").Context(ctx).Do()
	if err != nil {
		return c.upstream("about.get", err)
	}
	return nil
}
