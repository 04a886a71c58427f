package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"receipts/internal/blob"
	"receipts/internal/cache"
	"receipts/internal/core"
	"receipts/internal/log"
	"receipts/internal/middleware/ratelimit"
	"receipts/internal/middleware/security"
	"receipts/internal/middleware/trace"
)

// Ledger is the service the API drives. *services.ReceiptService
// implements it.
type Ledger interface {
	List() []core.Receipt
	Get(id string) (core.Receipt, error)
	NextReceiptNo() string
	Revision() uint64
	Summary() core.FinancialSummary
	Dashboard() (core.Dashboard, uint64)
	Create(ctx context.Context, in core.ReceiptInput) (core.Receipt, error)
	Update(ctx context.Context, id string, in core.ReceiptInput) (core.Receipt, error)
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, records []core.Receipt) error
	Wipe(ctx context.Context) error
}

// Options configures the optional parts of a Server. The zero value is
// usable.
type Options struct {
	Logger *log.Logger
	// Pinger backs /readyz. Nil means always ready.
	Pinger    blob.Pinger
	RateLimit ratelimit.Config
	// DashboardTTL bounds how long a memoized dashboard is kept.
	DashboardTTL time.Duration
	Now          func() time.Time
}

type Server struct {
	http.Server
	ledger    Ledger
	pinger    blob.Pinger
	validate  *validator.Validate
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	dashboard *cache.RevisionMemo[core.Dashboard]
	caches    *cache.Manager
	now       func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Call Shutdown to stop it and its background cleanup.
func NewServer(addr string, ledger Ledger, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.FromContext(context.Background())
	}
	if opts.DashboardTTL <= 0 {
		opts.DashboardTTL = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		ledger:    ledger,
		pinger:    opts.Pinger,
		validate:  newValidator(),
		limiter:   ratelimit.NewLimiter(opts.RateLimit),
		detector:  security.NewDetector(),
		dashboard: cache.NewRevisionMemo[core.Dashboard](8, opts.DashboardTTL),
		caches:    cache.NewManager(logger.Logger),
		now:       opts.Now,
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.detector.DetectSuspiciousRequest)
	s.caches.Register(s.dashboard)
	s.caches.StartCleanup(opts.DashboardTTL)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/receipts", s.handleListReceipts)
	mux.HandleFunc("POST /api/receipts", s.handleCreateReceipt)
	mux.HandleFunc("DELETE /api/receipts", s.handleWipe)
	mux.HandleFunc("GET /api/receipts/next-number", s.handleNextNumber)
	mux.HandleFunc("GET /api/receipts/{id}", s.handleGetReceipt)
	mux.HandleFunc("PUT /api/receipts/{id}", s.handleUpdateReceipt)
	mux.HandleFunc("DELETE /api/receipts/{id}", s.handleDeleteReceipt)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/dashboard/summary", s.handleSummary)

	mux.HandleFunc("GET /api/backup", s.handleBackupDownload)
	mux.HandleFunc("POST /api/backup", s.handleBackupImport)
	mux.HandleFunc("GET /api/backup/schema", s.handleBackupSchema)
	mux.HandleFunc("GET /api/export.xlsx", s.handleExportXLSX)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops background cleanup and gracefully shuts down the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
	})
	return s.Server.Shutdown(ctx)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log.FromContext(ctx).WithComponent(log.ComponentRateLimit).WarnContext(ctx, "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

// handleReady pings the ledger backend when it supports it.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed",
				log.FieldErrorType, log.ErrorTypeStorage,
				log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "storage unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

// isClientError reports ledger errors caused by request content.
func isClientError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidAmount,
		core.ErrInvalidQuantity,
		core.ErrInvalidStatus,
		core.ErrEmptyName,
		core.ErrEmptyDescription,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
