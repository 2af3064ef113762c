package middleware

import (
	"fmt"
	"net/http"

	"github.com/northpeak/logistics-api/internal/config"
)

// SecurityHeaders stamps the configured browser security headers on
// every response and strips the ones that advertise the server.
func SecurityHeaders(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	hsts := ""
	if cfg.EnableHSTS {
		hsts = fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			if cfg.ContentTypeNosniff {
				h.Set("X-Content-Type-Options", "nosniff")
			}
			setIfConfigured(h, "X-Frame-Options", cfg.FrameOptions)
			setIfConfigured(h, "X-XSS-Protection", cfg.XSSProtection)
			setIfConfigured(h, "Content-Security-Policy", cfg.ContentSecurityPolicy)
			setIfConfigured(h, "Referrer-Policy", cfg.ReferrerPolicy)
			setIfConfigured(h, "Permissions-Policy", cfg.PermissionsPolicy)
			setIfConfigured(h, "Strict-Transport-Security", hsts)

			h.Del("X-Powered-By")
			h.Del("Server")

			next.ServeHTTP(w, r)
		})
	}
}

func setIfConfigured(h http.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}
