// Package routes wires the REST surface: content data, filters, video
// library, YouTube downloads and auth, all speaking a common JSON
// envelope.
package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/shortssprint/shortssprint/internal/api"
	"github.com/shortssprint/shortssprint/internal/auth"
	"github.com/shortssprint/shortssprint/internal/config"
	"github.com/shortssprint/shortssprint/internal/drive"
	appmw "github.com/shortssprint/shortssprint/internal/http/middleware"
	"github.com/shortssprint/shortssprint/internal/jobs"
	"github.com/shortssprint/shortssprint/internal/metrics"
	"github.com/shortssprint/shortssprint/internal/sheets"
	"github.com/shortssprint/shortssprint/internal/video"
)

type Server struct {
	Router     *chi.Mux
	Reader     *sheets.Reader
	Writer     *sheets.Writer
	Store      *video.Store
	Downloader *video.Downloader
	Uploader   *drive.Uploader
	Registry   *jobs.Registry
	Runner     *jobs.Runner // nil in serverless mode
	Tokens     *auth.TokenIssuer
	Google     *auth.GoogleVerifier
	Counters   *metrics.Counters
	Log        zerolog.Logger
	Domains    []string
}

type ServerOptions struct {
	Reader     *sheets.Reader
	Writer     *sheets.Writer
	Store      *video.Store
	Downloader *video.Downloader
	Uploader   *drive.Uploader
	Registry   *jobs.Registry
	Runner     *jobs.Runner
	Tokens     *auth.TokenIssuer
	Google     *auth.GoogleVerifier
	Cfg        config.Config
	Log        zerolog.Logger
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.Cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		Router:     r,
		Reader:     opts.Reader,
		Writer:     opts.Writer,
		Store:      opts.Store,
		Downloader: opts.Downloader,
		Uploader:   opts.Uploader,
		Registry:   opts.Registry,
		Runner:     opts.Runner,
		Tokens:     opts.Tokens,
		Google:     opts.Google,
		Counters:   &metrics.Counters{},
		Log:        opts.Log,
		Domains:    opts.Cfg.Auth.AllowedDomains,
	}
	r.Use(s.Counters.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/", s.handleHome)
	r.Get("/health", s.handleHealth)
	r.Get("/api/health", s.handleHealth)
	r.Get("/health/detailed", s.handleHealthDetailed)
	r.Get("/metrics", s.handleMetrics)
	r.Post("/cache/clear", s.handleCacheClear)

	r.Get("/api/data", s.handleData)
	r.Get("/api/filters", s.handleFilters)
	r.Post("/api/add", s.handleAdd)
	r.Put("/api/update/{row}", s.handleUpdate)
	r.Delete("/api/delete/{row}", s.handleDelete)
	r.Post("/api/ticket", s.handleTicket)

	r.Get("/api/categories", s.handleCategories)
	r.Get("/api/exams", s.handleExams)

	r.Post("/api/upload-video", s.handleUploadVideo)
	r.Get("/api/videos/list", s.handleListVideos)
	r.Get("/api/video-info/{filename}", s.handleVideoInfo)
	r.Get("/api/videos/storage-stats", s.handleStorageStats)
	r.Post("/api/download-youtube", s.handleDownloadYoutube)
	r.Get("/api/download-youtube/status/{id}", s.handleDownloadStatus)
	r.Post("/api/download-youtube/cleanup", s.handleDownloadCleanup)

	r.Post("/api/auth/signup", s.handleSignup)
	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/google-login", s.handleGoogleLogin)
	r.Get("/api/auth/allowed-domains", s.handleAllowedDomains)

	r.Group(func(pr chi.Router) {
		pr.Use(appmw.RequireAuth(s.Tokens))
		pr.Get("/api/auth/verify", s.handleVerifyToken)
		pr.Get("/api/auth/me", s.handleMe)
	})

	return s
}

// writeJSON sends payload with success=true folded into the envelope.
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	if _, ok := payload["success"]; !ok {
		payload["success"] = true
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.Log.Error().Err(err).Msg("encode response")
	}
}

// writeError maps a classified error onto the failure envelope. Errors
// without a kind become opaque 500s.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := api.KindOf(err)
	status := http.StatusInternalServerError
	message := "internal server error"
	if kind != "" {
		status = kind.HTTPStatus()
		var e *api.Error
		if errors.As(err, &e) {
			message = e.Message
		}
	} else {
		s.Log.Error().Err(err).Msg("unclassified handler error")
		kind = "internal_error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   string(kind),
		"message": message,
	})
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeError(w, api.E(api.KindValidation, msg))
}
