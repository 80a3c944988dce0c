package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/metrics"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	appweb "expenses/web"
)

// CategoryService is the category side of the service layer.
type CategoryService interface {
	CreateCategory(ctx context.Context, in core.CategoryInput) ([]core.Category, error)
	UpdateCategory(ctx context.Context, id int64, in core.CategoryInput) (core.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	ListCategoriesByName(ctx context.Context) ([]core.Category, error)
}

// ExpenseService is the expense side of the service layer.
type ExpenseService interface {
	CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error)
	UpdateExpense(ctx context.Context, id int64, in core.ExpenseInput) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	ListExpenses(ctx context.Context) ([]core.ExpenseListing, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures NewServer. Categories and Expenses are required.
type Options struct {
	Addr               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	RateLimitPerMinute int
	// TrustedProxies extends the proxy networks whose X-Forwarded-For
	// header is believed.
	TrustedProxies []string

	Categories CategoryService
	Expenses   ExpenseService
	Ready      Pinger
	Logger     *applog.Logger
	Metrics    *metrics.Metrics
}

// Names of the routes that mutate on GET.
const (
	routeDeleteCategory = "category.delete"
	routeDeleteExpense  = "expense.delete"
)

type Server struct {
	http.Server
	templates  *template.Template
	categories CategoryService
	expenses   ExpenseService
	ready      Pinger
	logger     *applog.Logger
	metrics    *metrics.Metrics
	limiter    *ratelimit.Limiter
	router     *mux.Router

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	s := &Server{
		categories: opts.Categories,
		expenses:   opts.Expenses,
		ready:      opts.Ready,
		logger:     opts.Logger.WithComponent(applog.ComponentHTTP),
		metrics:    opts.Metrics,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		router:     mux.NewRouter(),
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	} else {
		s.templates = t
	}

	s.routes()

	detector := security.NewDetector(s.metrics.Suspicious)
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}
	s.metrics.TrackRateLimitClients(s.limiter.ActiveClients)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(trace.Options{
		Logger:     opts.Logger,
		ExtractIP:  detector.ExtractClientIP,
		RouteLabel: s.routeLabel,
		Recorder:   s.metrics,
	})

	var handler http.Handler = s.router
	handler = s.limiter.Middleware(detector.ExtractClientIP, s.isMutating, s.onRateLimit)(handler)
	handler = headers.Middleware(handler)
	handler = detector.Middleware(handler)
	handler = tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	r := s.router
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		newResponse(w, r).Text(http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		newResponse(w, r).Text(http.StatusMethodNotAllowed, "Method not allowed")
	})

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.PathPrefix("/static/").Methods(http.MethodGet, http.MethodHead).
			Handler(security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet, http.MethodHead)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/add", s.handleCategories).Methods(http.MethodGet)
	r.HandleFunc("/add", s.handleCreateCategory).Methods(http.MethodPost)
	r.HandleFunc("/edit/{id:[0-9]+}", s.handleEditCategory).Methods(http.MethodGet)
	r.HandleFunc("/edit/{id:[0-9]+}", s.handleUpdateCategory).Methods(http.MethodPost)
	r.HandleFunc("/delete/{id:[0-9]+}", s.handleDeleteCategory).Methods(http.MethodGet, http.MethodPost).Name(routeDeleteCategory)

	r.HandleFunc("/", s.handleExpenses).Methods(http.MethodGet)
	r.HandleFunc("/expenses", s.handleExpenses).Methods(http.MethodGet)
	r.HandleFunc("/expenses/add", s.handleNewExpense).Methods(http.MethodGet)
	r.HandleFunc("/expenses/add", s.handleCreateExpense).Methods(http.MethodPost)
	r.HandleFunc("/expenses/edit/{id:[0-9]+}", s.handleEditExpense).Methods(http.MethodGet)
	r.HandleFunc("/expenses/edit/{id:[0-9]+}", s.handleUpdateExpense).Methods(http.MethodPost)
	r.HandleFunc("/expenses/delete/{id:[0-9]+}", s.handleDeleteExpense).Methods(http.MethodGet, http.MethodPost).Name(routeDeleteExpense)
}

// routeLabel returns the matched path template so that metrics are not
// labelled by record id.
func (s *Server) routeLabel(r *http.Request) string {
	var match mux.RouteMatch
	if s.router.Match(r, &match) && match.Route != nil {
		if tpl, err := match.Route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// isMutating selects the requests that count against the rate limit: every
// non-read method, plus the delete routes which also answer GET.
func (s *Server) isMutating(r *http.Request) bool {
	if ratelimit.IsMutating(r) {
		return true
	}
	var match mux.RouteMatch
	if !s.router.Match(r, &match) || match.Route == nil {
		return false
	}
	switch match.Route.GetName() {
	case routeDeleteCategory, routeDeleteExpense:
		return true
	}
	return false
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.metrics.RateLimited()
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	newResponse(w, r).Text(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// Shutdown stops background routines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Readiness check failed",
				applog.FieldComponent, applog.ComponentStorage,
				applog.FieldError, err)
			newResponse(w, r).Text(http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	newResponse(w, r).Text(http.StatusOK, "ready")
}
