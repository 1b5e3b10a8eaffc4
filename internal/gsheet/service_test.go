package gsheet

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gsheet-api/internal/apperr"
	"gsheet-api/internal/models"
	"gsheet-api/internal/rangemap"
	"gsheet-api/internal/sheets"
)

type mockRemote struct{ mock.Mock }

var _ sheets.Remote = (*mockRemote)(nil)

func (m *mockRemote) ListSpreadsheetFiles(ctx context.Context, query string) ([]models.SpreadsheetFile, error) {
	args := m.Called(ctx, query)
	files, _ := args.Get(0).([]models.SpreadsheetFile)
	return files, args.Error(1)
}

func (m *mockRemote) GetSheetsMetadata(ctx context.Context, spreadsheetID string) ([]models.SheetInfo, error) {
	args := m.Called(ctx, spreadsheetID)
	infos, _ := args.Get(0).([]models.SheetInfo)
	return infos, args.Error(1)
}

func (m *mockRemote) BatchGetRanges(ctx context.Context, spreadsheetID string, ranges []string) ([]rangemap.Grid, error) {
	args := m.Called(ctx, spreadsheetID, ranges)
	grids, _ := args.Get(0).([]rangemap.Grid)
	return grids, args.Error(1)
}

func (m *mockRemote) GetRange(ctx context.Context, spreadsheetID, rng string) (rangemap.Grid, error) {
	args := m.Called(ctx, spreadsheetID, rng)
	g, _ := args.Get(0).(rangemap.Grid)
	return g, args.Error(1)
}

func (m *mockRemote) BatchUpdateValues(ctx context.Context, spreadsheetID, valueInputOption string, data []rangemap.ValueWrite) ([]models.UpdatedRange, error) {
	args := m.Called(ctx, spreadsheetID, valueInputOption, data)
	out, _ := args.Get(0).([]models.UpdatedRange)
	return out, args.Error(1)
}

func (m *mockRemote) AppendValues(ctx context.Context, spreadsheetID, rng, valueInputOption string, values rangemap.Grid) (models.AppendResult, error) {
	args := m.Called(ctx, spreadsheetID, rng, valueInputOption, values)
	res, _ := args.Get(0).(models.AppendResult)
	return res, args.Error(1)
}

func (m *mockRemote) BatchUpdateStructure(ctx context.Context, spreadsheetID string, deletes []rangemap.DeleteRange) error {
	args := m.Called(ctx, spreadsheetID, deletes)
	return args.Error(0)
}

func newTestService(remote sheets.Remote) *Service {
	return New(remote, Options{}, zerolog.Nop())
}

var header = rangemap.Grid{{"id", "name", "age"}}

func TestListRows(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{}
	remote.On("BatchGetRanges", ctx, "sid", []string{"Sheet1!A1:EE1", "Sheet1!A2:A", "Sheet1!A2:EE3"}).
		Return([]rangemap.Grid{
			header,
			{{"1"}, {"2"}, {"3"}, {"4"}},
			{{"1", "Ann", "30"}, {"2", "Bob"}},
		}, nil).Once()

	page, err := newTestService(remote).ListRows(ctx, "sid", "Sheet1", ListQuery{PerPage: 2})
	require.NoError(t, err)
	remote.AssertExpectations(t)

	assert.Equal(t, map[string]string{"id": "Sheet1!A", "name": "Sheet1!B", "age": "Sheet1!C"}, page.Columns.Map())
	assert.Equal(t, models.Pagination{PerPage: 2, Range: "Sheet1!A2:EE3", Offset: 2, TotalItems: 4, HaveNext: false}, page.Pagination)

	b, err := json.Marshal(page.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"rowNumber":2,"id":1,"name":"Ann","age":30},
		{"rowNumber":3,"id":2,"name":"Bob","age":null}
	]`, string(b))
}

func TestListRowsHaveNext(t *testing.T) {
	ctx := context.Background()
	count := make(rangemap.Grid, 6)
	for i := range count {
		count[i] = []any{"x"}
	}
	remote := &mockRemote{}
	remote.On("BatchGetRanges", ctx, "sid", mock.Anything).
		Return([]rangemap.Grid{header, count, {{"1"}}}, nil)

	page, err := newTestService(remote).ListRows(ctx, "sid", "Sheet1", ListQuery{Offset: 2, PerPage: 3})
	require.NoError(t, err)
	assert.True(t, page.Pagination.HaveNext)
}

func TestListRowsReturnColumn(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{}
	remote.On("BatchGetRanges", ctx, "sid", []string{"Data!A1:C1", "Data!A2:A", "Data!A2:C1001"}).
		Return([]rangemap.Grid{nil, nil, {{"a", "b"}, {"c"}}}, nil)

	col := 1
	page, err := newTestService(remote).ListRows(ctx, "sid", "Data", ListQuery{ReturnColumn: &col, ColumnCount: 3})
	require.NoError(t, err)
	assert.Equal(t, []any{"b", nil}, page.Data)
}

func TestListRowsSkipBlank(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{}
	remote.On("BatchGetRanges", ctx, "sid", mock.Anything).
		Return([]rangemap.Grid{header, {{"1"}, {"3"}}, {{"1"}, {}, {"3"}}}, nil)

	skip := true
	page, err := newTestService(remote).ListRows(ctx, "sid", "Sheet1", ListQuery{SkipBlank: &skip})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, 4, page.Data[1].(rangemap.Record).RowNumber)
	assert.Equal(t, 2, page.Pagination.TotalItems)
}

func TestListRowsHeaderMissing(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{}
	remote.On("BatchGetRanges", ctx, "sid", mock.Anything).
		Return([]rangemap.Grid{nil, {{"x"}}, {{"x"}}}, nil).Once()
	_, err := newTestService(remote).ListRows(ctx, "sid", "Sheet1", ListQuery{})
	assert.Equal(t, apperr.KindHeaderMissing, apperr.KindOf(err))

	remote = &mockRemote{}
	remote.On("BatchGetRanges", ctx, "sid", mock.Anything).
		Return([]rangemap.Grid{nil, nil, nil}, nil).Once()
	page, err := newTestService(remote).ListRows(ctx, "sid", "Sheet1", ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
}

func TestListRowsValidation(t *testing.T) {
	svc := newTestService(&mockRemote{})
	ctx := context.Background()

	_, err := svc.ListRows(ctx, "", "Sheet1", ListQuery{})
	assert.Equal(t, apperr.KindMissingParameter, apperr.KindOf(err))
	_, err = svc.ListRows(ctx, "sid", "", ListQuery{})
	assert.Equal(t, apperr.KindMissingParameter, apperr.KindOf(err))
	_, err = svc.ListRows(ctx, "sid", "Sheet1", ListQuery{Offset: -1})
	assert.Equal(t, apperr.KindInvalidParameter, apperr.KindOf(err))
	_, err = svc.ListRows(ctx, "sid", "Sheet1", ListQuery{ColumnCount: -4})
	assert.Equal(t, apperr.KindInvalidParameter, apperr.KindOf(err))
}

func TestGetRow(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{}
	remote.On("BatchGetRanges", ctx, "sid", []string{"'My Sheet'!A1:EE1", "'My Sheet'!A9:EE9"}).
		Return([]rangemap.Grid{header, nil}, nil)

	rec, err := newTestService(remote).GetRow(ctx, "sid", "My Sheet", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, rec.RowNumber)
	assert.Len(t, rec.Fields, 3)
	assert.True(t, rec.IsBlank())

	_, err = newTestService(remote).GetRow(ctx, "sid", "My Sheet", 1)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestUpdateRowsAllocatesOnce(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{}
	remote.On("GetRange", ctx, "sid", "Sheet1!A1:EE1").Return(header, nil)
	want := []rangemap.ValueWrite{
		{Range: "Sheet1!D1", Values: rangemap.Grid{{"score"}}},
		{Range: "Sheet1!B2", Values: rangemap.Grid{{"Ann"}}},
		{Range: "Sheet1!D2", Values: rangemap.Grid{{json.Number("9")}}},
		{Range: "Sheet1!D5", Values: rangemap.Grid{{""}}},
	}
	remote.On("BatchUpdateValues", ctx, "sid", sheets.ValueInputRaw, want).
		Return([]models.UpdatedRange{{UpdatedRange: "Sheet1!D1"}}, nil).Once()

	patches, err := ParseRowPatches([]byte(`{"2":{"name":"Ann","score":9},"5":{"score":null}}`))
	require.NoError(t, err)
	res, err := newTestService(remote).UpdateRows(ctx, "sid", "Sheet1", patches)
	require.NoError(t, err)
	assert.Len(t, res, 1)
	remote.AssertExpectations(t)
}

func TestUpdateRowsNothingToDo(t *testing.T) {
	svc := newTestService(&mockRemote{})
	_, err := svc.UpdateRow(context.Background(), "sid", "Sheet1", 2, nil)
	assert.Equal(t, apperr.KindInvalidBody, apperr.KindOf(err))
}

func TestAppendRows(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{}
	remote.On("GetRange", ctx, "sid", "Sheet1!A1:EE1").Return(header, nil)
	remote.On("BatchUpdateValues", ctx, "sid", sheets.ValueInputRaw, []rangemap.ValueWrite{
		{Range: "Sheet1!D1", Values: rangemap.Grid{{"city"}}},
	}).Return(nil, nil).Once()
	remote.On("AppendValues", ctx, "sid", "Sheet1!A:EE", sheets.ValueInputRaw, rangemap.Grid{
		{json.Number("0"), "Ann", "", ""},
		{"", "", false, "Oslo"},
	}).Return(models.AppendResult{UpdatedRange: "Sheet1!A7:D8"}, nil).Once()

	recs, many, err := ParseRecords([]byte(`[{"id":0,"name":"Ann","age":null},{"city":"Oslo","age":false}]`))
	require.NoError(t, err)
	require.True(t, many)

	out, err := newTestService(remote).AppendRows(ctx, "sid", "Sheet1", recs)
	require.NoError(t, err)
	remote.AssertExpectations(t)
	require.Len(t, out, 2)
	assert.Equal(t, 7, out[0].RowNumber)
	assert.Equal(t, 8, out[1].RowNumber)

	b, err := json.Marshal(out[1])
	require.NoError(t, err)
	assert.Equal(t, `{"city":"Oslo","age":false,"rowNumber":8}`, string(b))
}

func TestAppendRowsKnownColumnsSkipsHeaderWrite(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{}
	remote.On("GetRange", ctx, "sid", mock.Anything).Return(header, nil)
	remote.On("AppendValues", ctx, "sid", mock.Anything, sheets.ValueInputRaw, mock.Anything).
		Return(models.AppendResult{UpdatedRange: "Sheet1!A2:C2"}, nil)

	out, err := newTestService(remote).AppendRows(ctx, "sid", "Sheet1", []rangemap.Cells{{{Name: "id", Value: "1"}}})
	require.NoError(t, err)
	assert.Equal(t, 2, out[0].RowNumber)
	remote.AssertNotCalled(t, "BatchUpdateValues", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Two appends that both read the header before either writes it allocate
// the same new column. Nothing serializes them; the second header write
// simply lands on the same cell.
func TestAppendRowsConcurrentAllocationOverlaps(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{}
	remote.On("GetRange", ctx, "sid", mock.Anything).Return(header, nil)
	var writes [][]rangemap.ValueWrite
	remote.On("BatchUpdateValues", ctx, "sid", sheets.ValueInputRaw, mock.Anything).
		Run(func(args mock.Arguments) {
			writes = append(writes, args.Get(3).([]rangemap.ValueWrite))
		}).Return(nil, nil)
	remote.On("AppendValues", ctx, "sid", mock.Anything, sheets.ValueInputRaw, mock.Anything).
		Return(models.AppendResult{UpdatedRange: "Sheet1!A2:D2"}, nil)

	svc := newTestService(remote)
	_, err := svc.AppendRows(ctx, "sid", "Sheet1", []rangemap.Cells{{{Name: "a", Value: "1"}}})
	require.NoError(t, err)
	_, err = svc.AppendRows(ctx, "sid", "Sheet1", []rangemap.Cells{{{Name: "b", Value: "2"}}})
	require.NoError(t, err)

	require.Len(t, writes, 2)
	assert.Equal(t, writes[0][0].Range, writes[1][0].Range)
}

func TestAppendRowsBadUpdatedRange(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{}
	remote.On("GetRange", ctx, "sid", mock.Anything).Return(header, nil)
	remote.On("AppendValues", ctx, "sid", mock.Anything, mock.Anything, mock.Anything).
		Return(models.AppendResult{}, nil)

	_, err := newTestService(remote).AppendRows(ctx, "sid", "Sheet1", []rangemap.Cells{{{Name: "id", Value: "1"}}})
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}

func TestDeleteRows(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{}
	remote.On("GetSheetsMetadata", ctx, "sid").Return([]models.SheetInfo{
		{Title: "Sheet1", SheetID: 0},
		{Title: "Archive", SheetID: 42},
	}, nil)
	remote.On("BatchUpdateStructure", ctx, "sid", []rangemap.DeleteRange{
		{SheetID: 42, StartIndex: 6, EndIndex: 7},
		{SheetID: 42, StartIndex: 4, EndIndex: 5},
		{SheetID: 42, StartIndex: 2, EndIndex: 3},
	}).Return(nil).Once()

	res, err := newTestService(remote).DeleteRows(ctx, "sid", "Archive", []int{3, 7, 5, 7})
	require.NoError(t, err)
	assert.Equal(t, &models.DeleteResult{SheetID: 42, DeletedRows: []int{7, 5, 3}}, res)
	remote.AssertExpectations(t)
}

func TestDeleteRowsUnknownSheet(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{}
	remote.On("GetSheetsMetadata", ctx, "sid").Return([]models.SheetInfo{{Title: "Sheet1"}}, nil)

	_, err := newTestService(remote).DeleteRows(ctx, "sid", "Nope", []int{2})
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
	remote.AssertNotCalled(t, "BatchUpdateStructure", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteRowsRejectsHeaderRow(t *testing.T) {
	_, err := newTestService(&mockRemote{}).DeleteRows(context.Background(), "sid", "Sheet1", []int{1})
	assert.Equal(t, apperr.KindInvalidParameter, apperr.KindOf(err))
}

func TestUpstreamErrorPassesThrough(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{}
	upstream := apperr.Upstream("Requested entity was not found.", http.StatusNotFound, nil)
	remote.On("ListSpreadsheetFiles", ctx, sheets.SpreadsheetQuery).Return(nil, upstream)

	_, err := newTestService(remote).ListSpreadsheets(ctx)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
	assert.Equal(t, "Requested entity was not found.", apperr.MessageOf(err))
}

func TestNewColumnsPastLimitAreRefused(t *testing.T) {
	ctx := context.Background()
	remote := &mockRemote{}
	remote.On("GetRange", ctx, "sid", "Sheet1!A1:C1").Return(header, nil)
	svc := New(remote, Options{MaxColumns: 3}, zerolog.Nop())

	_, err := svc.AppendRows(ctx, "sid", "Sheet1", []rangemap.Cells{{{Name: "city", Value: "Oslo"}}})
	assert.Equal(t, apperr.KindInvalidBody, apperr.KindOf(err))
	assert.Contains(t, apperr.MessageOf(err), `"city"`)

	_, err = svc.UpdateRow(ctx, "sid", "Sheet1", 2, rangemap.Cells{{Name: "city", Value: "Oslo"}})
	assert.Equal(t, apperr.KindInvalidBody, apperr.KindOf(err))

	remote.AssertNotCalled(t, "BatchUpdateValues", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	remote.AssertNotCalled(t, "AppendValues", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	remote.On("AppendValues", ctx, "sid", "Sheet1!A:C", sheets.ValueInputRaw, rangemap.Grid{{"", "Ann", ""}}).
		Return(models.AppendResult{UpdatedRange: "Sheet1!A4:C4"}, nil).Once()
	out, err := svc.AppendRows(ctx, "sid", "Sheet1", []rangemap.Cells{{{Name: "name", Value: "Ann"}}})
	require.NoError(t, err)
	assert.Equal(t, 4, out[0].RowNumber)
}
