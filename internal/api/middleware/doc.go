// Package middleware provides the HTTP middleware for the embed host's
// control API.
//
//   - CORS: the host UI runs in a web view with its own origin
//   - RateLimit: per-client token bucket, evicting idle clients
//   - RequestLogger: one structured zap line per request
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
