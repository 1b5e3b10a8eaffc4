package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"gsheet-api/internal/apperr"
	"gsheet-api/internal/util"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorPage struct {
	Error  string      `json:"error"`
	Status int         `json:"status,omitempty"`
	Kind   apperr.Kind `json:"kind,omitempty"`
	Cause  string      `json:"cause,omitempty"`
}

// fail renders err. 5xx errors are logged and sent to the notifier; in
// production their message is hidden from the caller.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusOf(err)
	page := errorPage{Error: apperr.MessageOf(err)}

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Int("status", status).
			Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		s.alert(r, status, err)
	}

	if s.cfg.Production {
		if status >= http.StatusInternalServerError {
			page.Error = "Internal server error"
		}
	} else {
		page.Status = status
		page.Kind = apperr.KindOf(err)
		if cause := errorsCause(err); cause != nil {
			page.Cause = cause.Error()
		}
	}
	writeJSON(w, status, page)
}

func (s *Server) alert(r *http.Request, status int, err error) {
	text := fmt.Sprintf("gsheet-api %s %s -> %d\nrequest %s at %s\n%v",
		r.Method, r.URL.Path, status, middleware.GetReqID(r.Context()), util.NowISO(), err)
	log := s.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.Notify(ctx, text); err != nil {
			log.Warn().Err(err).Msg("notify")
		}
	}()
}

func errorsCause(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Cause
	}
	return nil
}
