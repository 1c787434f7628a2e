package httpadapter

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"labelcheck/internal/metrics"
	"labelcheck/internal/ports"
	"labelcheck/internal/services/assessment"
	"labelcheck/internal/uploads"
)

const sessionCookie = "labelcheck_session"

type Options struct {
	Limits        uploads.Limits
	CORSOrigins   []string
	SecureCookies bool
}

// Server serves the HTTP API. auth and reports are nil when no store is
// configured; analysis keeps working without them.
type Server struct {
	assess  *assessment.Service
	auth    ports.Auth
	reports ports.Reports
	metrics *metrics.Metrics
	log     *zap.Logger
	opts    Options
}

func New(assess *assessment.Service, auth ports.Auth, reports ports.Reports, m *metrics.Metrics, log *zap.Logger, opts Options) *Server {
	return &Server{assess: assess, auth: auth, reports: reports, metrics: m, log: log, opts: opts}
}

func (s *Server) storeConfigured() bool { return s.auth != nil && s.reports != nil }

// Routes returns the API router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(corsOptions(s.opts.CORSOrigins)))
	r.Use(s.loadSession)

	r.Get("/health", s.health)
	r.Handle("/metrics", s.metrics.Handler())

	r.Post("/analyze", s.analyze)
	r.Post("/extract", s.extract)
	r.Post("/analyze-confirmed", s.analyzeConfirmed)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/me", s.me)
		r.Group(func(r chi.Router) {
			r.Use(s.requireStore)
			r.Post("/register", s.register)
			r.Post("/login", s.login)
			r.With(s.requireUser).Post("/logout", s.logout)
		})
	})

	r.Route("/reports", func(r chi.Router) {
		r.Use(s.requireStore, s.requireUser)
		r.Post("/", s.saveReport)
		r.Get("/", s.listReports)
		r.Get("/{id}", s.getReport)
		r.Delete("/{id}", s.deleteReport)
	})
	return r
}

// corsOptions allows credentials only for an explicit origin list; for "*"
// go-chi/cors echoes whatever origin the caller sends.
func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           300,
	}
}

type healthResponse struct {
	Status          string `json:"status"`
	ModelConfigured bool   `json:"modelConfigured"`
	StoreConfigured bool   `json:"storeConfigured"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{
		Status:          "ok",
		ModelConfigured: s.assess.Live(),
		StoreConfigured: s.storeConfigured(),
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}
