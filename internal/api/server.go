// Package api exposes the student-facing REST API: authentication, quizzes,
// quiz attempts with university recommendations, AI major suggestions and
// catalog search.
package api

import (
	"context"
	"net/http"
	"time"

	"edupath-ksa/internal/advisor"
	"edupath-ksa/internal/auth"
	"edupath-ksa/internal/common/config"
	"edupath-ksa/internal/common/logger"
	"edupath-ksa/internal/common/observability"
	"edupath-ksa/internal/notify"
	"edupath-ksa/internal/recommender"
	"edupath-ksa/internal/search"
	"edupath-ksa/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Store is the persistence the handlers need. *store.Store implements it.
type Store interface {
	CreateUser(ctx context.Context, u *store.User) error
	GetUser(ctx context.Context, id int64) (*store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	ListQuizzes(ctx context.Context, activeOnly bool) ([]store.Quiz, error)
	GetQuiz(ctx context.Context, id int64) (*store.Quiz, error)
	CreateQuiz(ctx context.Context, q *store.Quiz) error
	AddQuestion(ctx context.Context, q *store.Question) error
	SaveAttempt(ctx context.Context, a *store.Attempt) error
	LatestAttempt(ctx context.Context, userID, quizID int64) (*store.Attempt, error)
	ListAttempts(ctx context.Context, userID int64, limit int) ([]store.Attempt, error)
	GetAttempt(ctx context.Context, id int64) (*store.Attempt, error)
}

type Advisor interface {
	Suggest(ctx context.Context, userID int64, req advisor.Request) (*advisor.Suggestion, error)
}

type Searcher interface {
	Search(ctx context.Context, query string, size int) (*search.Result, error)
}

type Notifier interface {
	NotifyResults(ctx context.Context, to notify.Recipient, s notify.Summary) (*notify.Delivery, error)
}

// Checker is one dependency checked by /ready.
type Checker interface {
	Ping(ctx context.Context) error
}

// Options wires the server. Advisor, Notifier, Redis and Observability are optional.
type Options struct {
	Config        config.ServerConfig
	Uploads       config.UploadsConfig
	Store         Store
	Engine        *recommender.Engine
	Tokens        *auth.TokenManager
	Advisor       Advisor
	Search        Searcher
	Notifier      Notifier
	Redis         redis.Cmdable
	Observability *observability.Observability
	Checks        map[string]Checker
	Logger        logger.Logger
}

type Server struct {
	cfg      config.ServerConfig
	uploads  config.UploadsConfig
	store    Store
	engine   *recommender.Engine
	tokens   *auth.TokenManager
	advisor  Advisor
	search   Searcher
	notifier Notifier
	limiter  *RateLimiter
	obs      *observability.Observability
	checks   map[string]Checker
	logger   logger.Logger

	notifyTimeout time.Duration
}

func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"component": "api"})

	s := &Server{
		cfg:           opts.Config,
		uploads:       opts.Uploads,
		store:         opts.Store,
		engine:        opts.Engine,
		tokens:        opts.Tokens,
		advisor:       opts.Advisor,
		search:        opts.Search,
		notifier:      opts.Notifier,
		obs:           opts.Observability,
		checks:        opts.Checks,
		logger:        log,
		notifyTimeout: 30 * time.Second,
	}
	if s.engine == nil {
		s.engine = recommender.NewEngine(nil, 0)
	}
	if opts.Redis != nil {
		s.limiter = NewRateLimiter(opts.Redis, opts.Config.RateLimit.Requests,
			config.GetSeconds(opts.Config.RateLimit.Window), log)
	}
	return s
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(RequestID)
	r.Use(CORS(s.cfg.AllowedOrigins))
	r.Use(s.recoverer)
	r.Use(s.requestLogger)
	r.Use(Instrument)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}

		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)

		r.Get("/quizzes", s.handleListQuizzes)
		r.Get("/quizzes/{id}", s.handleGetQuiz)

		r.Post("/recommendations", s.handleRecommend)
		r.Get("/universities", s.handleUniversities)
		r.Get("/search", s.handleSearch)
		r.Post("/eligibility", s.handleEligibility)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)

			r.Post("/quiz-attempts", s.handleCreateAttempt)
			r.Get("/quiz-attempts/latest", s.handleLatestAttempt)
			r.Get("/quiz-attempts", s.handleListAttempts)
			r.Get("/quiz-attempts/{id}", s.handleGetAttempt)

			r.Post("/ai/suggest-major", s.handleSuggestMajor)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/quizzes", s.handleCreateQuiz)
				r.Post("/quizzes/{id}/questions", s.handleAddQuestion)
			})
		})
	})

	return r
}

// HTTPServer returns a configured *http.Server for the router.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Router(),
		ReadTimeout:  config.GetDuration(s.cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(s.cfg.WriteTimeout),
	}
}
