// Package config provides 12-factor configuration management for sketchbox.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Sandbox: Execution budget, settle delays, frame rate and mount size
//   - API: Upstream animation service location, timeout and retries
//   - Studio: Fix round-trips after a failed run
//   - Generator: Direct model backend
//   - Storage: Local history database and credential file
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS, SHUTDOWN_TIMEOUT, LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - SANDBOX_EXEC_TIMEOUT, SANDBOX_SETTLE_2D, SANDBOX_SETTLE_3D, SANDBOX_FPS
//   - SANDBOX_MOUNT_WIDTH, SANDBOX_MOUNT_HEIGHT, SANDBOX_MAX_DURATION
//   - API_BASE_URL, API_TIMEOUT, API_RETRIES, API_RPS, FIX_ATTEMPTS
//   - ANTHROPIC_API_KEY, GENERATOR_MODEL, GENERATOR_MAX_TOKENS
//   - HISTORY_DB, CREDENTIALS_FILE
package config
