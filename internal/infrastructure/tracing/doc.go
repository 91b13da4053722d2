/*
Package tracing provides lightweight request tracing.

Spans carry prefixed ULID trace and span ids, propagate through
context.Context and the X-Trace-ID / X-Span-ID headers, and are logged by a
buffered background collector through zap.

# Usage

	tracer := tracing.New("sketchbox", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	err := tracer.Trace(ctx, "studio.generate", func(ctx context.Context) error {
		return generate(ctx)
	})

	// Outbound requests
	tracing.Inject(ctx, req.Header)

The collector buffers 1000 spans and drops new ones when full.
*/
package tracing
