package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"hauler/internal/ingest"
	"hauler/internal/model"
)

// Arbitrage is the query surface the API exposes to callers.
type Arbitrage interface {
	Summarize(ctx context.Context, query string) ([]model.CommoditySummary, error)
	BestRoutes(ctx context.Context, topN int, quantity float64, system string, allowCrossSystem bool) ([]model.RouteProposal, error)
	BestQuote(ctx context.Context, commodityID *int64, name string) (*model.BestQuote, error)
}

// Catalog lists reference commodity metadata.
type Catalog interface {
	ListCatalogEntries(ctx context.Context, query string) ([]model.CatalogEntry, error)
}

// Ingestor is the refresh/diagnostics surface exposed to admin callers.
type Ingestor interface {
	Refresh(ctx context.Context) (int, error)
	RefreshCatalog(ctx context.Context) (int, error)
	RefreshByCommodity(ctx context.Context) (int, error)
	Diagnostics(ctx context.Context) (*ingest.Diagnostics, error)
	ProbeCommodity(ctx context.Context, commodityID int64) (*ingest.CommodityProbe, error)
}

// Server serves the HTTP API. Entitlement is a precondition established by
// the upstream auth layer and received per request; it is never derived here.
type Server struct {
	logger  *slog.Logger
	engine  Arbitrage
	ingest  Ingestor
	catalog Catalog
	router  *gin.Engine
}

// NewServer creates the Server and registers all routes.
func NewServer(logger *slog.Logger, engine Arbitrage, ing Ingestor, catalog Catalog) *Server {
	s := &Server{
		logger:  logger,
		engine:  engine,
		ingest:  ing,
		catalog: catalog,
		router:  gin.New(),
	}
	s.router.Use(gin.Recovery())
	s.routes()
	return s
}

// Handler exposes the underlying router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(cors())

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := s.router.Group("/api/public")
	public.GET("/commodities/names", s.catalogNames)

	tools := s.router.Group("/api/tools", requireEntitlement("member", "admin"))
	tools.GET("/commodities", s.commodities)
	tools.POST("/routes", s.routesHandler)
	tools.GET("/commodities/best", s.best)

	admin := s.router.Group("/api/admin", requireEntitlement("admin"))
	admin.POST("/commodities/refresh", s.refresh)
	admin.POST("/commodities/refresh-by-commodity", s.refreshByCommodity)
	admin.POST("/commodities/catalog/refresh", s.refreshCatalog)
	admin.GET("/commodities/diagnostics", s.diagnostics)
	admin.GET("/commodities/probe", s.probeCommodity)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// entitlementHeader carries the caller's entitlement, set by the upstream
// auth layer.
const entitlementHeader = "X-Caller-Entitlement"

func requireEntitlement(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := allowed[c.GetHeader(entitlementHeader)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+entitlementHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
