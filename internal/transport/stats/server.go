// Package stats serves usage statistics over HTTP.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sandevgo/teambot/internal/config"
	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/pkg/log"
)

// RequestView is one user request as returned by /requests_by_date.
type RequestView struct {
	UserID         int64     `json:"user_id"`
	GroupID        int64     `json:"group_id"`
	IsGroup        bool      `json:"is_group"`
	Timestamp      time.Time `json:"timestamp"`
	MessageContent string    `json:"message_content"`
}

type errorBody struct {
	Message string `json:"message"`
}

type Server struct {
	repo   core.StatsRepository
	server *http.Server
}

func NewServer(cfg *config.StatsConfig, repo core.StatsRepository) *Server {
	s := &Server{repo: repo}
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /requests_by_date", s.requestsByDate)
	mux.HandleFunc("GET /user_stats_by_date", s.userStatsByDate)
	return mux
}

func (s *Server) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	logger.Info().Str("addr", s.server.Addr).Msg("starting stats server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("stats server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) requestsByDate(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDate(w, r)
	if !ok {
		return
	}

	msgs, err := s.repo.RequestsByDate(r.Context(), day)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	views := make([]RequestView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, RequestView{
			UserID:         m.Key.UserID,
			GroupID:        m.Key.GroupID,
			IsGroup:        m.Key.IsGroup(),
			Timestamp:      m.CreatedAt.UTC(),
			MessageContent: m.Content,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) userStatsByDate(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDate(w, r)
	if !ok {
		return
	}

	stats, err := s.repo.UserStatsByDate(r.Context(), day)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if stats == nil {
		stats = []core.UserStats{}
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Date parameter is required"})
		return time.Time{}, false
	}

	day, err := core.ParseDay(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Invalid date format. Use YYYY-MM-DD"})
		return time.Time{}, false
	}
	return day, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	log.FromCtx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("stats query failed")
	writeJSON(w, http.StatusInternalServerError, errorBody{Message: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
