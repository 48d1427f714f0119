package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"gofinances/internal/core"
	"gofinances/internal/dashboard"
	applog "gofinances/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

type pageData struct {
	Locale string
	State  dashboard.State
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	st, locale := s.snapshot(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", pageData{Locale: locale, State: st}); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard template execution failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpRender)
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

// handleDashboard returns the current dashboard state. With ?locale= the
// stored data is re-aggregated for that locale without touching the shared
// state. A failed load is reported in the body, not the status code.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if locale := strings.TrimSpace(r.URL.Query().Get("locale")); locale != "" {
		if _, err := s.formats.Lookup(locale); err != nil {
			writeError(w, http.StatusBadRequest, "unsupported locale")
			return
		}
	}
	st, _ := s.snapshot(r)
	writeJSON(w, http.StatusOK, st)
}

// handleFocus reloads the dashboard as when the screen regains focus.
func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	st, err := s.screen.Focus(r.Context())
	if err != nil && r.Context().Err() != nil {
		// Client went away; the load continues for other observers.
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if s.recorder == nil {
		writeError(w, http.StatusNotImplemented, "recording transactions is disabled")
		return
	}

	var in core.NewTransaction
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	logger := applog.FromContext(r.Context())
	rec, err := s.recorder.Record(r.Context(), in)
	if err != nil {
		if errors.Is(err, core.ErrInvalidRecord) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		logger.ErrorContext(r.Context(), "Failed to record transaction",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpRecord)
		writeError(w, http.StatusInternalServerError, "could not save the transaction")
		return
	}

	if s.refreshOnRecord {
		if _, err := s.screen.Focus(r.Context()); err != nil {
			logger.WarnContext(r.Context(), "Dashboard refresh after record failed", applog.FieldError, err)
		}
	}
	writeJSON(w, http.StatusCreated, rec)
}

// snapshot returns the shared state, or a one-off aggregation when the
// request asks for a locale other than the server default.
func (s *Server) snapshot(r *http.Request) (dashboard.State, string) {
	def := s.formats.Default()
	locale := strings.TrimSpace(r.URL.Query().Get("locale"))
	st := s.screen.State()
	if locale == "" {
		return st, def.Locale()
	}

	f, err := s.formats.Lookup(locale)
	if err != nil || f.Locale() == s.screen.Loader().Formatter().Locale() {
		return st, def.Locale()
	}

	res, err := s.screen.Loader().Compute(r.Context(), f)
	if err != nil {
		return dashboard.State{
			Status:       dashboard.StatusFailed,
			Transactions: []core.FormattedTransaction{},
			Error:        dashboard.UserMessage(err),
			Generation:   st.Generation,
		}, f.Locale()
	}
	return dashboard.State{
		Status:       dashboard.StatusReady,
		Transactions: res.Transactions,
		Highlights:   res.Highlights,
		Generation:   st.Generation,
	}, f.Locale()
}
