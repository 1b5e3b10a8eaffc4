// Package gsheet sequences spreadsheet service calls for each REST
// operation. Every call re-reads the header it needs; nothing is cached
// between requests.
package gsheet

import (
	"context"

	"github.com/rs/zerolog"

	"gsheet-api/internal/apperr"
	"gsheet-api/internal/models"
	"gsheet-api/internal/rangemap"
	"gsheet-api/internal/sheets"
)

type Options struct {
	// MaxColumns bounds header and row scans unless a request overrides it.
	MaxColumns     int
	DefaultPerPage int
	// SkipBlankRows drops all-null records from listings.
	SkipBlankRows bool
}

type Service struct {
	remote sheets.Remote
	opts   Options
	log    zerolog.Logger
}

func New(remote sheets.Remote, opts Options, log zerolog.Logger) *Service {
	if opts.MaxColumns < 1 {
		opts.MaxColumns = rangemap.DefaultMaxColumns
	}
	if opts.DefaultPerPage < 1 {
		opts.DefaultPerPage = rangemap.DefaultPerPage
	}
	return &Service{remote: remote, opts: opts, log: log}
}

// ListQuery holds the optional listing parameters. Zero values mean
// defaults; pointers distinguish "absent" from zero.
type ListQuery struct {
	Offset       int
	PerPage      int
	ReturnColumn *int
	ColumnCount  int
	SkipBlank    *bool
}

func (s *Service) ListSpreadsheets(ctx context.Context) ([]models.SpreadsheetFile, error) {
	return s.remote.ListSpreadsheetFiles(ctx, sheets.SpreadsheetQuery)
}

func (s *Service) ListSheets(ctx context.Context, spreadsheetID string) ([]models.SheetInfo, error) {
	if spreadsheetID == "" {
		return nil, apperr.MissingParameter("spreadsheetId")
	}
	return s.remote.GetSheetsMetadata(ctx, spreadsheetID)
}

func (s *Service) ListRows(ctx context.Context, spreadsheetID, sheet string, q ListQuery) (*models.Page, error) {
	if err := requireSheet(spreadsheetID, sheet); err != nil {
		return nil, err
	}
	maxCol := s.opts.MaxColumns
	if q.ColumnCount != 0 {
		if q.ColumnCount < 1 {
			return nil, apperr.InvalidParameter("columnCount must be positive, got %d", q.ColumnCount)
		}
		maxCol = q.ColumnCount
	}
	if q.ReturnColumn != nil && *q.ReturnColumn < 0 {
		return nil, apperr.InvalidParameter("returnColumn must not be negative, got %d", *q.ReturnColumn)
	}
	win, err := rangemap.NewWindow(q.Offset, q.PerPage, s.opts.DefaultPerPage)
	if err != nil {
		return nil, apperr.InvalidParameter("%v", err)
	}

	ranges := []string{
		rangemap.HeaderRange(sheet, maxCol),
		rangemap.CountRange(sheet),
		win.DataRange(sheet, maxCol),
	}
	s.log.Debug().Str("spreadsheet", spreadsheetID).Strs("ranges", ranges).Msg("list rows")
	grids, err := s.remote.BatchGetRanges(ctx, spreadsheetID, ranges)
	if err != nil {
		return nil, err
	}
	if len(grids) != len(ranges) {
		return nil, apperr.Upstream("Unexpected number of ranges in response", 0, nil)
	}

	header := rangemap.NewHeader(rangemap.FirstRow(grids[0]))
	total := rangemap.CountItems(grids[1])
	rows := grids[2]

	page := &models.Page{
		Columns: rangemap.ColumnRanges(sheet, header),
		Pagination: models.Pagination{
			PerPage:    win.PerPage,
			Range:      ranges[2],
			Offset:     win.Offset,
			TotalItems: total,
			HaveNext:   win.HaveNext(total),
		},
		Data: make([]any, 0, len(rows)),
	}

	if q.ReturnColumn != nil {
		for _, raw := range rows {
			page.Data = append(page.Data, rangemap.RawCell(raw, *q.ReturnColumn))
		}
		return page, nil
	}

	if header.IsEmpty() {
		if len(rows) == 0 {
			return page, nil
		}
		return nil, apperr.HeaderMissing(sheet)
	}
	skip := s.opts.SkipBlankRows
	if q.SkipBlank != nil {
		skip = *q.SkipBlank
	}
	for i, raw := range rows {
		rec := rangemap.DecodeRow(header, raw, win.FirstRow()+i)
		if skip && rec.IsBlank() {
			continue
		}
		page.Data = append(page.Data, rec)
	}
	return page, nil
}

func (s *Service) GetRow(ctx context.Context, spreadsheetID, sheet string, row int) (rangemap.Record, error) {
	if err := requireSheet(spreadsheetID, sheet); err != nil {
		return rangemap.Record{}, err
	}
	if err := requireRows(row); err != nil {
		return rangemap.Record{}, err
	}
	ranges := []string{
		rangemap.HeaderRange(sheet, s.opts.MaxColumns),
		rangemap.RowRange(sheet, row, s.opts.MaxColumns),
	}
	grids, err := s.remote.BatchGetRanges(ctx, spreadsheetID, ranges)
	if err != nil {
		return rangemap.Record{}, err
	}
	if len(grids) != len(ranges) {
		return rangemap.Record{}, apperr.Upstream("Unexpected number of ranges in response", 0, nil)
	}
	header := rangemap.NewHeader(rangemap.FirstRow(grids[0]))
	if header.IsEmpty() {
		return rangemap.Record{}, apperr.HeaderMissing(sheet)
	}
	return rangemap.DecodeRow(header, rangemap.FirstRow(grids[1]), row), nil
}

// UpdateRows writes every patch in one batch, extending the header with
// columns none of the patches' rows had yet.
func (s *Service) UpdateRows(ctx context.Context, spreadsheetID, sheet string, patches []RowPatch) ([]models.UpdatedRange, error) {
	if err := requireSheet(spreadsheetID, sheet); err != nil {
		return nil, err
	}
	cells := make([]rangemap.Cells, 0, len(patches))
	n := 0
	for _, p := range patches {
		if err := requireRows(p.Row); err != nil {
			return nil, err
		}
		cells = append(cells, p.Cells)
		n += len(p.Cells)
	}
	if n == 0 {
		return nil, apperr.InvalidBody("Nothing to update")
	}

	header, err := s.header(ctx, spreadsheetID, sheet)
	if err != nil {
		return nil, err
	}
	alloc := rangemap.MergeColumns(header, cells...)
	if err := s.checkRoom(alloc); err != nil {
		return nil, err
	}
	data := alloc.HeaderWrites(sheet)
	for _, p := range patches {
		data = append(data, alloc.CellWrites(sheet, p.Row, p.Cells)...)
	}
	s.log.Debug().Str("spreadsheet", spreadsheetID).Int("cells", len(data)).Int("newColumns", len(alloc.Added())).Msg("update rows")
	return s.remote.BatchUpdateValues(ctx, spreadsheetID, sheets.ValueInputRaw, data)
}

// UpdateRow is UpdateRows for a single row.
func (s *Service) UpdateRow(ctx context.Context, spreadsheetID, sheet string, row int, cells rangemap.Cells) ([]models.UpdatedRange, error) {
	return s.UpdateRows(ctx, spreadsheetID, sheet, []RowPatch{{Row: row, Cells: cells}})
}

// AppendRows appends records below the last row. Unknown keys first get
// header cells, allocated once for the whole batch.
func (s *Service) AppendRows(ctx context.Context, spreadsheetID, sheet string, records []rangemap.Cells) ([]models.AppendedRecord, error) {
	if err := requireSheet(spreadsheetID, sheet); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperr.InvalidBody("Nothing to append")
	}

	header, err := s.header(ctx, spreadsheetID, sheet)
	if err != nil {
		return nil, err
	}
	alloc := rangemap.MergeColumns(header, records...)
	if err := s.checkRoom(alloc); err != nil {
		return nil, err
	}
	if added := alloc.HeaderWrites(sheet); len(added) > 0 {
		s.log.Debug().Str("spreadsheet", spreadsheetID).Int("newColumns", len(added)).Msg("extend header")
		if _, err := s.remote.BatchUpdateValues(ctx, spreadsheetID, sheets.ValueInputRaw, added); err != nil {
			return nil, err
		}
	}

	columns := alloc.Columns()
	values := make(rangemap.Grid, 0, len(records))
	for _, rec := range records {
		values = append(values, rangemap.EncodeRow(columns, rec))
	}
	res, err := s.remote.AppendValues(ctx, spreadsheetID, rangemap.SheetRange(sheet, s.opts.MaxColumns), sheets.ValueInputRaw, values)
	if err != nil {
		return nil, err
	}
	first, err := rangemap.ParseUpdatedRow(res.UpdatedRange)
	if err != nil {
		return nil, apperr.Upstream("Unexpected append response", 0, err)
	}

	out := make([]models.AppendedRecord, len(records))
	for i, rec := range records {
		out[i] = models.AppendedRecord{RowNumber: first + i, Cells: rec}
	}
	return out, nil
}

// DeleteRows removes rows highest first so pending row numbers stay valid.
func (s *Service) DeleteRows(ctx context.Context, spreadsheetID, sheet string, rows []int) (*models.DeleteResult, error) {
	if err := requireSheet(spreadsheetID, sheet); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.InvalidBody("Nothing to delete")
	}
	if err := requireRows(rows...); err != nil {
		return nil, err
	}

	infos, err := s.remote.GetSheetsMetadata(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}
	sheetID, ok := findSheet(infos, sheet)
	if !ok {
		return nil, apperr.SheetNotFound()
	}

	reqs := rangemap.DeleteRequests(sheetID, rows)
	if err := s.remote.BatchUpdateStructure(ctx, spreadsheetID, reqs); err != nil {
		return nil, err
	}
	res := &models.DeleteResult{SheetID: sheetID, DeletedRows: make([]int, len(reqs))}
	for i, r := range reqs {
		res.DeletedRows[i] = r.Row()
	}
	return res, nil
}

func (s *Service) header(ctx context.Context, spreadsheetID, sheet string) (rangemap.Header, error) {
	g, err := s.remote.GetRange(ctx, spreadsheetID, rangemap.HeaderRange(sheet, s.opts.MaxColumns))
	if err != nil {
		return rangemap.Header{}, err
	}
	return rangemap.NewHeader(rangemap.FirstRow(g)), nil
}

// checkRoom refuses new columns past MaxColumns. The header is only read up
// to that bound, so a cell beyond it may already hold a name that a header
// write would overwrite.
func (s *Service) checkRoom(alloc rangemap.Allocation) error {
	added := alloc.Added()
	if len(added) == 0 {
		return nil
	}
	if last := added[len(added)-1]; last.Index > s.opts.MaxColumns {
		return apperr.InvalidBody("Cannot add column %q: header would pass the %d column limit", last.Name, s.opts.MaxColumns)
	}
	return nil
}

func findSheet(infos []models.SheetInfo, title string) (int64, bool) {
	for _, in := range infos {
		if in.Title == title {
			return in.SheetID, true
		}
	}
	return 0, false
}

func requireSheet(spreadsheetID, sheet string) error {
	if spreadsheetID == "" {
		return apperr.MissingParameter("spreadsheetId")
	}
	if sheet == "" {
		return apperr.MissingParameter("sheetName")
	}
	return nil
}

func requireRows(rows ...int) error {
	for _, r := range rows {
		if r < rangemap.FirstDataRow {
			return apperr.InvalidParameter("rowNumber must be at least %d, got %d", rangemap.FirstDataRow, r)
		}
	}
	return nil
}
