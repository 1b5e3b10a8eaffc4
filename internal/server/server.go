package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"gsheet-api/internal/apperr"
	"gsheet-api/internal/config"
	"gsheet-api/internal/gsheet"
	"gsheet-api/internal/notify"
	"gsheet-api/internal/util"
)

type Server struct {
	cfg      config.Config
	svc      *gsheet.Service
	log      zerolog.Logger
	notifier notify.Notifier
}

func New(cfg config.Config, svc *gsheet.Service, log zerolog.Logger, n notify.Notifier) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewHandler(cfg, svc, log, n),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}
}

func NewHandler(cfg config.Config, svc *gsheet.Service, log zerolog.Logger, n notify.Notifier) http.Handler {
	if n == nil {
		n = notify.Nop{}
	}
	s := &Server{cfg: cfg, svc: svc, log: log, notifier: n}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(redirectSlashes)
	r.Use(middleware.Compress(5))
	if cfg.BodyLimit > 0 {
		r.Use(middleware.RequestSize(cfg.BodyLimit))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, apperr.NotFound())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, apperr.New(apperr.KindMethodNotAllowed, "Method not allowed"))
	})

	r.Get("/~health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(s.auth)

		r.Get("/", s.listSpreadsheets)
		r.Route("/{spreadsheetId:[a-zA-Z0-9_-]+}", func(r chi.Router) {
			r.Get("/", s.listSheets)
			r.Route("/{sheetName}", func(r chi.Router) {
				r.Get("/", s.listRows)
				r.Put("/", s.updateRows)
				r.Post("/", s.appendRows)
				r.Delete("/", s.deleteRows)

				r.Get("/{rowNumber}", s.getRow)
				r.Put("/{rowNumber}", s.updateRow)
				r.Delete("/{rowNumber}", s.deleteRow)
			})
		})
	})
	return r
}

// auth rejects a request before any spreadsheet call when a configured key
// does not match.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if k := s.cfg.PrivateAPIKey; k != "" && !util.SecretEqual(k, r.Header.Get("X-Private-Api-Key")) {
			s.fail(w, r, apperr.Unauthorized())
			return
		}
		if k := s.cfg.PrivateAPIKeyQuery; k != "" && !util.SecretEqual(k, r.URL.Query().Get("key")) {
			s.fail(w, r, apperr.Unauthorized())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// redirectSlashes answers a path with a trailing slash by a 301 to the same
// path without it. The target is relative and keeps the escaped path, so
// "%2F" inside a segment survives and the Host header never reaches it.
func redirectSlashes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.EscapedPath()
		if len(p) > 1 && strings.HasSuffix(p, "/") {
			target := "/" + strings.TrimLeft(strings.TrimSuffix(p, "/"), "/")
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			w.Header().Set("Location", target)
			w.WriteHeader(http.StatusMovedPermanently)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			l := log.With().Str("req_id", middleware.GetReqID(r.Context())).Logger()
			r = r.WithContext(l.WithContext(r.Context()))

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				l.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
