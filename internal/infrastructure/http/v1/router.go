package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"memorial/internal/core/validation"
	"memorial/internal/domain"
	"memorial/internal/domain/audit"
	"memorial/internal/domain/billing"
	"memorial/internal/domain/catalog"
	"memorial/internal/domain/clients"
	"memorial/internal/domain/reports"
	"memorial/internal/infrastructure/http/v1/dto"
	"memorial/internal/infrastructure/http/v1/handlers"
	"memorial/internal/infrastructure/http/v1/middleware"
	"memorial/pkg/logger"
)

// RouterConfig holds the services exposed over HTTP.
type RouterConfig struct {
	Logger *logger.Logger

	// Database backs the readiness probe; nil for the in-memory store.
	Database      handlers.Database
	StorageDriver string
	Version       string

	// ReleaseMode switches gin to release mode.
	ReleaseMode bool

	Billing *billing.Service
	Catalog *catalog.Service
	Clients *clients.Service
	Reports *reports.Service
	Audit   *audit.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(validation.JSONFieldName)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Database, cfg.StorageDriver, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Agent())
	{
		baseHandler := handlers.NewBaseHandler()
		registerCatalogRoutes(api, baseHandler, cfg)
		registerClientRoutes(api, baseHandler, cfg)
		registerContractRoutes(api, baseHandler, cfg)
		registerReportRoutes(api, baseHandler, cfg)
	}

	return router
}

// registerCatalogRoutes registers catalog item endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewRecordHandler(base, handlers.RecordHandlerConfig[*catalog.Item, dto.CreateCatalogItemRequest]{
		Service:      cfg.Catalog.RecordService,
		MapCreateDTO: dto.CreateCatalogItemRequest.ToEntity,
		MapToDTO:     func(i *catalog.Item) any { return dto.FromCatalogItem(i) },
		ListFilter: func(c *gin.Context, filter *domain.ListFilter) {
			*filter = filter.Where("type", c.Query("type"))
		},
	})
	RegisterRecordRoutes(rg.Group("/catalog"), handler)
}

// registerClientRoutes registers client endpoints.
func registerClientRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewRecordHandler(base, handlers.RecordHandlerConfig[*clients.Client, dto.CreateClientRequest]{
		Service:      cfg.Clients.RecordService,
		MapCreateDTO: dto.CreateClientRequest.ToEntity,
		MapToDTO:     func(c *clients.Client) any { return dto.FromClient(c) },
	})
	RegisterRecordRoutes(rg.Group("/clients"), handler)
}

// registerContractRoutes registers contract, payment and terms endpoints.
func registerContractRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewContractsHandler(base, handlers.ContractsHandlerConfig{
		Service: cfg.Billing,
		Catalog: cfg.Catalog,
		Clients: cfg.Clients,
		Audit:   cfg.Audit,
	})
	handler.RegisterRoutes(rg.Group("/contracts"))
	rg.POST("/terms/preview", handler.PreviewTerms)
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewReportsHandler(base, cfg.Reports)
	handler.RegisterRoutes(rg.Group("/reports"))
}
