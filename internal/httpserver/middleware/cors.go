package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/Napiersnotes/Dandelions/internal/config"
)

// CORS creates a middleware that handles Cross-Origin Resource Sharing
// using the github.com/rs/cors library. The dashboard is browser-facing, so
// the policy is configuration-driven.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		// Return no-op middleware if config is nil.
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	return func(next http.Handler) http.Handler {
		return c.Handler(next)
	}
}
