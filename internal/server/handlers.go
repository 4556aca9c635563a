package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonwraymond/tooldiscovery/tooldoc"

	"github.com/jonwraymond/snippetexec/analytics"
	"github.com/jonwraymond/snippetexec/exec"
	"github.com/jonwraymond/snippetexec/runtime"
)

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Execution ---

type executeRequest struct {
	Code      string   `json:"code"`
	TimeoutMs int64    `json:"timeoutMs,omitempty"`
	Profile   string   `json:"profile,omitempty"`
	MaxCalls  int      `json:"maxCalls,omitempty"`
	Allow     []string `json:"allow,omitempty"`
	Legacy    bool     `json:"legacy,omitempty"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.Profile != "" && !runtime.SecurityProfile(req.Profile).IsValid() {
		writeError(w, http.StatusBadRequest, "unknown profile: "+req.Profile)
		return
	}
	if req.TimeoutMs < 0 || req.MaxCalls < 0 {
		writeError(w, http.StatusBadRequest, "limits must not be negative")
		return
	}

	if req.Legacy {
		writeJSON(w, http.StatusOK, s.engine.ExecuteLegacy(r.Context(), req.Code))
		return
	}

	res, err := s.engine.ExecuteParams(r.Context(), exec.Params{
		Code:     req.Code,
		Timeout:  time.Duration(req.TimeoutMs) * time.Millisecond,
		Profile:  runtime.SecurityProfile(req.Profile),
		MaxCalls: req.MaxCalls,
		Allow:    req.Allow,
		Metadata: map[string]any{"request_id": middleware.GetReqID(r.Context())},
	})
	if err != nil {
		s.logger.Error("execution failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- Functions ---

func (s *Server) handleListFunctions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusOK, s.engine.Functions())
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit: "+raw)
			return
		}
		limit = n
	}
	hits, err := s.engine.SearchFunctions(r.Context(), q, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hits == nil {
		hits = []exec.FunctionSummary{}
	}
	writeJSON(w, http.StatusOK, hits)
}

func (s *Server) handleDescribeFunction(w http.ResponseWriter, r *http.Request) {
	level := tooldoc.DetailSummary
	if r.URL.Query().Get("detail") == "full" {
		level = tooldoc.DetailFull
	}
	doc, err := s.engine.DescribeFunction(r.Context(), chi.URLParam(r, "id"), level)
	switch {
	case errors.Is(err, analytics.ErrFunctionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, doc)
	}
}
