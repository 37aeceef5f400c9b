package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SAMahlangu/Sindiswa/internal/cache"
	"github.com/SAMahlangu/Sindiswa/internal/config"
	"github.com/SAMahlangu/Sindiswa/internal/db"
	"github.com/SAMahlangu/Sindiswa/internal/middleware"
	"github.com/SAMahlangu/Sindiswa/internal/validation"
)

type Server struct {
	Cfg   *config.Config
	Cols  *db.Collections
	Val   *validation.Validator
	Log   *slog.Logger
	Cache cache.Cache
}

func (s *Server) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return s.Log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return s.Log.With(slog.String("request_id", id))
	}
	return s.Log
}
