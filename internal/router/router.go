package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "photopass/internal/apidocs"
	"photopass/internal/handler"
	"photopass/internal/middleware"
)

// UploadPath is the ingestion route. Its preflight is answered by
// handler.UploadHandler.Preflight.
const UploadPath = "/api/upload"

// Options holds the optional pieces of the HTTP surface.
type Options struct {
	// CORS is installed globally when non-nil.
	CORS gin.HandlerFunc
	// Metrics is served at MetricsPath when non-nil.
	Metrics     http.Handler
	MetricsPath string
	// Swagger enables the API documentation UI under /swagger.
	Swagger bool
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	uploadH *handler.UploadHandler,
	conversionH *handler.ConversionHandler,
	healthH *handler.HealthHandler,
	opts Options,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	if opts.CORS != nil {
		r.Use(opts.CORS)
	}

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	if opts.Metrics != nil && opts.MetricsPath != "" {
		r.GET(opts.MetricsPath, gin.WrapH(opts.Metrics))
	}
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/api")

	// Upload ingestion
	api.POST("/upload", uploadH.Upload)
	api.OPTIONS("/upload", uploadH.Preflight)
	api.Match([]string{
		http.MethodGet,
		http.MethodHead,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}, "/upload", uploadH.MethodNotAllowed)

	// Converted object lookup
	api.GET("/converted", conversionH.Status)
	api.GET("/converted/wait", conversionH.Wait)

	return r
}
