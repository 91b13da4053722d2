// Package logging wraps zap with the constructors the binaries share.
//
// Production loggers write JSON; development loggers write colored console
// lines. The CLI points its logger at stderr so command output on stdout
// stays machine-readable. Components take a *Logger and call OrNop so a nil
// logger is always safe to pass in tests.
//
//	logger, err := logging.New(logging.Config{Level: "debug", Development: true})
//	preview := logger.Named("preview")
//	preview.Info("Preview finished", zap.String("outcome", "live"))
package logging
