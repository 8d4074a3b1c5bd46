package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS returns a middleware that answers preflight requests and decorates
// responses with Cross-Origin Resource Sharing headers. A "*" entry allows
// every origin. When every origin is allowed, OPTIONS requests on
// routePreflights are left to the route's own handler.
func CORS(allowedOrigins []string, routePreflights ...string) (gin.HandlerFunc, error) {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With", "X-Request-ID"}
	cfg.ExposeHeaders = []string{"X-Request-ID"}
	cfg.MaxAge = 12 * time.Hour
	cfg.OptionsResponseStatusCode = http.StatusOK

	allowAll := len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
			break
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}

	// cors.New panics on an invalid config.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	handler := cors.New(cfg)
	if !allowAll || len(routePreflights) == 0 {
		return handler, nil
	}

	exempt := make(map[string]bool, len(routePreflights))
	for _, path := range routePreflights {
		exempt[path] = true
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions && exempt[c.FullPath()] {
			return
		}
		handler(c)
	}, nil
}
