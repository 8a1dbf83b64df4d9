package http

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"classroom-game-service/internal/app"
	"classroom-game-service/internal/domain"
	"classroom-game-service/internal/metrics"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Options configures the HTTP surface.
type Options struct {
	Registry *app.Registry
	Metrics  *metrics.Metrics // optional
	Logger   zerolog.Logger
	// EventsPerSecond and EventBurst bound inbound websocket events per connection.
	EventsPerSecond float64
	EventBurst      int
}

type Server struct {
	reg     *app.Registry
	metrics *metrics.Metrics
	log     zerolog.Logger
	ws      *WSHandler
}

func NewServer(opts Options) *Server {
	return &Server{
		reg:     opts.Registry,
		metrics: opts.Metrics,
		log:     opts.Logger,
		ws:      NewWSHandler(opts.Registry, opts.Metrics, opts.Logger, opts.EventsPerSecond, opts.EventBurst),
	}
}

// Router wires every route.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.observe)
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/rooms", s.createRoom).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{code}", s.getRoom).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{code}", s.closeRoom).Methods(http.MethodDelete)
	r.HandleFunc("/rooms/{code}/results", s.getResults).Methods(http.MethodGet)
	r.HandleFunc("/ws/{code}", s.ws.ServeWS).Methods(http.MethodGet)
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rooms": s.reg.Len()})
}

type createRoomRequest struct {
	Code      string            `json:"code"`
	OwnerID   string            `json:"ownerId"`
	Mode      domain.Mode       `json:"mode"`
	QuizID    string            `json:"quizId"`
	BoardID   string            `json:"boardId"`
	Questions []domain.Question `json:"questions"`
	Board     *domain.Board     `json:"board"`
	// Config overrides individual server defaults.
	Config json.RawMessage `json:"config"`
}

type createRoomResponse struct {
	Code      string    `json:"code"`
	SessionID string    `json:"sessionId"`
	State     app.State `json:"state"`
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err))
		return
	}
	cfg := s.reg.Defaults()
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeError(w, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err))
			return
		}
	}
	room, err := s.reg.Create(r.Context(), app.CreateRequest{
		Code:      req.Code,
		OwnerID:   req.OwnerID,
		Mode:      req.Mode,
		QuizID:    req.QuizID,
		BoardID:   req.BoardID,
		Questions: req.Questions,
		Board:     req.Board,
		Config:    &cfg,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	state, err := room.State()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createRoomResponse{Code: state.Code, SessionID: state.SessionID, State: state})
}

func (s *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.reg.Get(mux.Vars(r)["code"])
	if err != nil {
		writeError(w, err)
		return
	}
	state, err := room.State()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) closeRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.reg.Close(mux.Vars(r)["code"], r.URL.Query().Get("ownerId")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.reg.Results(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig), errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrBoardNotFound), errors.Is(err, domain.ErrResultsNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRoomClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: domain.ReasonCode(err), Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// observe records per-route latency and logs non-websocket requests.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := r.URL.Path
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(route, rec.status, started)
		}
		s.log.Debug().Str("method", r.Method).Str("route", route).Int("status", rec.status).
			Dur("took", time.Since(started)).Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
