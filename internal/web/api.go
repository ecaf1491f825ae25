package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/p-n-ai/f1-academy/internal/academy"
	"github.com/p-n-ai/f1-academy/internal/session"
)

type errResp struct {
	Error string `json:"error"`
}

type createSessionResp struct {
	ID   string       `json:"id"`
	View academy.View `json:"view"`
}

// ListModulesHandler serves the module catalog in display order.
func ListModulesHandler(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, reg.Catalog().Modules())
	}
}

// CreateSessionHandler starts a session and returns its ID with the home view.
func CreateSessionHandler(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := reg.Create()
		writeJSON(w, http.StatusCreated, createSessionResp{ID: s.ID, View: s.View()})
	}
}

// GetSessionHandler returns the current view of a session.
func GetSessionHandler(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := reg.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeErr(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.View())
	}
}

// DeleteSessionHandler discards a session and closes its subscribers.
func DeleteSessionHandler(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := reg.Delete(chi.URLParam(r, "sessionID")); err != nil {
			writeErr(w, statusFor(err), err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ApplyActionHandler applies one JSON-encoded session.Action and returns
// the resulting view. Precondition failures map to 4xx via statusFor.
func ApplyActionHandler(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := reg.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeErr(w, statusFor(err), err.Error())
			return
		}

		var a session.Action
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&a); err != nil {
			writeErr(w, http.StatusBadRequest, "malformed action")
			return
		}

		v, err := s.Apply(a)
		if err != nil {
			writeErr(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrClosed),
		errors.Is(err, academy.ErrUnknownModule):
		return http.StatusNotFound
	case errors.Is(err, academy.ErrUnknownTab),
		errors.Is(err, academy.ErrOptionOutOfRange),
		errors.Is(err, session.ErrMissingOption),
		errors.Is(err, session.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, academy.ErrModuleUnavailable),
		errors.Is(err, academy.ErrNoActiveModule),
		errors.Is(err, academy.ErrQuizNotShown):
		return http.StatusConflict
	default:
		slog.Error("unexpected action error", "error", err)
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResp{Error: msg})
}
