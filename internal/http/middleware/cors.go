package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/northpeak/logistics-api/internal/config"
	"go.uber.org/zap"
)

// CORS builds the cross-origin policy from configuration. An explicit
// origin list wins; a "*" entry or an empty list in development allows
// every origin, and an empty list in production denies all of them.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	allowAny := func(r *http.Request, origin string) bool { return origin != "" }
	denyAll := func(r *http.Request, origin string) bool { return false }
	devLike := environment == "development" || environment == "local" || environment == ""

	switch {
	case containsWildcard(cfg.AllowedOrigins):
		if !devLike {
			logger.Warn("wildcard CORS origin outside development",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = allowAny

	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS origins configured", zap.Strings("origins", cfg.AllowedOrigins))

	case devLike:
		options.AllowOriginFunc = allowAny
		logger.Info("CORS allowing all origins in development")

	default:
		// An empty AllowedOrigins list would default to "*" inside the
		// cors package, so production without configured origins must
		// deny explicitly.
		options.AllowOriginFunc = denyAll
		logger.Warn("no CORS origins configured, denying cross-origin requests",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
