// Package devserver is a local stand-in for the catalog backend. It serves the same
// crudLabelsValues endpoint from a SQLite database so the editor can be exercised
// without the production platform.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"catalog-editor/internal/model"
)

const endpointPath = "/api/cat/crudLabelsValues"

type Server struct {
	db  *DB
	log zerolog.Logger
}

func NewServer(db *DB, log zerolog.Logger) *Server {
	return &Server{db: db, log: log}
}

// Router exposes the bare routes, without CORS or access logging.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(endpointPath, s.handleCatalog).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	return r
}

// Handler wraps the router with CORS and a combined access log written to the logger.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.CombinedLoggingHandler(s.log, cors(s.Router()))
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info().Str("addr", addr).Msg("dev server listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type dataRes[T any] struct {
	DataRes T `json:"dataRes"`
}

type envelope[T any] struct {
	Success    bool         `json:"success"`
	Data       []dataRes[T] `json:"data"`
	MessageUSR string       `json:"messageUSR,omitempty"`
}

// frameworkEnvelope mirrors the platform's unhandled-error shape.
type frameworkEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type crudRequest struct {
	Operations []model.Operation `json:"operations"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	switch process := r.URL.Query().Get("ProcessType"); process {
	case "GetAll":
		s.handleGetAll(w, r)
	case "CRUD":
		s.handleCRUD(w, r)
	default:
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown ProcessType "+process)
	}
}

func (s *Server) handleGetAll(w http.ResponseWriter, r *http.Request) {
	labels, err := s.db.Labels(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("load catalog")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	out := make([]model.Fields, 0, len(labels))
	for _, l := range labels {
		f := model.LabelFields(l)
		vals := make([]model.Fields, 0, len(l.Values))
		for _, v := range l.Values {
			vals = append(vals, model.ValueFields(v))
		}
		f["valores"] = vals
		out = append(out, f)
	}
	respondJSON(w, http.StatusOK, envelope[[]model.Fields]{
		Success: true,
		Data:    []dataRes[[]model.Fields]{{DataRes: out}},
	})
}

func (s *Server) handleCRUD(w http.ResponseWriter, r *http.Request) {
	var req crudRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}
	results, ok, err := s.db.Apply(r.Context(), req.Operations)
	if err != nil {
		s.log.Error().Err(err).Int("operations", len(req.Operations)).Msg("apply batch")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	env := envelope[[]OpResult]{Success: ok, Data: []dataRes[[]OpResult]{{DataRes: results}}}
	if !ok {
		env.MessageUSR = "batch rejected"
		s.log.Warn().Int("operations", len(req.Operations)).Msg("batch rejected")
	} else {
		s.log.Info().Int("operations", len(req.Operations)).Msg("batch applied")
	}
	respondJSON(w, http.StatusOK, env)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	var env frameworkEnvelope
	env.Error.Code = code
	env.Error.Message = message
	respondJSON(w, status, env)
}
