// Package middleware provides the gin middleware of the preview API:
// CORS and per-client rate limiting.
package middleware
