package server

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gsheet-api/internal/apperr"
	"gsheet-api/internal/gsheet"
	"gsheet-api/internal/util"
)

func (s *Server) listSpreadsheets(w http.ResponseWriter, r *http.Request) {
	files, err := s.svc.ListSpreadsheets(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) listSheets(w http.ResponseWriter, r *http.Request) {
	infos, err := s.svc.ListSheets(r.Context(), pathParam(r, "spreadsheetId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) listRows(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.svc.ListRows(r.Context(), pathParam(r, "spreadsheetId"), pathParam(r, "sheetName"), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) getRow(w http.ResponseWriter, r *http.Request) {
	row, err := gsheet.ParseRowNumber(pathParam(r, "rowNumber"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rec, err := s.svc.GetRow(r.Context(), pathParam(r, "spreadsheetId"), pathParam(r, "sheetName"), row)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) updateRow(w http.ResponseWriter, r *http.Request) {
	row, err := gsheet.ParseRowNumber(pathParam(r, "rowNumber"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	body, err := readBody(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cells, err := gsheet.ParseCells(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.UpdateRow(r.Context(), pathParam(r, "spreadsheetId"), pathParam(r, "sheetName"), row, cells)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) updateRows(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	patches, err := gsheet.ParseRowPatches(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.UpdateRows(r.Context(), pathParam(r, "spreadsheetId"), pathParam(r, "sheetName"), patches)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) appendRows(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	recs, many, err := gsheet.ParseRecords(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.svc.AppendRows(r.Context(), pathParam(r, "spreadsheetId"), pathParam(r, "sheetName"), recs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if many {
		writeJSON(w, http.StatusOK, out)
		return
	}
	writeJSON(w, http.StatusOK, out[0])
}

func (s *Server) deleteRow(w http.ResponseWriter, r *http.Request) {
	row, err := gsheet.ParseRowNumber(pathParam(r, "rowNumber"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.deleteAndRespond(w, r, []int{row})
}

func (s *Server) deleteRows(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rows, err := gsheet.ParseRowNumbers(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.deleteAndRespond(w, r, rows)
}

func (s *Server) deleteAndRespond(w http.ResponseWriter, r *http.Request, rows []int) {
	res, err := s.svc.DeleteRows(r.Context(), pathParam(r, "spreadsheetId"), pathParam(r, "sheetName"), rows)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// pathParam returns a decoded route parameter. chi matches against the raw
// path when it holds escapes such as %2F, leaving them in the value.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath != "" {
		if u, err := url.PathUnescape(v); err == nil {
			v = u
		}
	}
	return v
}

func readBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, apperr.New(apperr.KindBodyTooLarge, "Body exceeds "+strconv.FormatInt(mbe.Limit, 10)+" bytes")
		}
		return nil, apperr.Wrap(apperr.KindInvalidBody, "Cannot read body", err)
	}
	return b, nil
}

func listQuery(v url.Values) (gsheet.ListQuery, error) {
	var (
		q   gsheet.ListQuery
		err error
	)
	if q.Offset, _, err = intParam(v, "offset"); err != nil {
		return q, err
	}
	if q.PerPage, _, err = intParam(v, "perPage"); err != nil {
		return q, err
	}
	if q.ColumnCount, _, err = intParam(v, "columnCount"); err != nil {
		return q, err
	}
	if q.Offset == 0 && v.Get("offset") != "" {
		return q, apperr.InvalidParameter("offset must be at least 1")
	}
	if q.PerPage == 0 && v.Get("perPage") != "" {
		return q, apperr.InvalidParameter("perPage must be at least 1")
	}
	if q.ColumnCount == 0 && v.Get("columnCount") != "" {
		return q, apperr.InvalidParameter("columnCount must be at least 1")
	}
	col, ok, err := intParam(v, "returnColumn")
	if err != nil {
		return q, err
	}
	if ok {
		q.ReturnColumn = &col
	}
	if raw := v.Get("skipBlank"); raw != "" {
		b := util.ParseBool(raw, false)
		q.SkipBlank = &b
	}
	return q, nil
}

func intParam(v url.Values, name string) (int, bool, error) {
	raw := v.Get(name)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, apperr.InvalidParameter("%s must be an integer, got %q", name, raw)
	}
	return n, true, nil
}
