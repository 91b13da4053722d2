// Package main is the entry point for the sketchbox preview server.
//
// The server runs untrusted p5-style and three-style programs on headless
// pages and exposes the create, share, open, feed and mood flows of the
// animation service on top of them.
//
// Configuration:
//   - Environment variables (see internal/infrastructure/config)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -api https://animations.example.com/api
//
//	# Development mode (console logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
