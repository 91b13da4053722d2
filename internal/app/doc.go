// Package app wires the long-lived components of a sketchbox process.
//
// Both the HTTP server and the CLI build an App from configuration: metrics
// on a private Prometheus registry, the tracer, analytics, the preview
// harness, the animation service client (or the direct generator when an
// API key is configured), the credential store, local run history and the
// studio that ties them together.
//
// Example Usage:
//
//	a, err := app.New(config.LoadOrDefault(), logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Close()
//	creation, err := a.Studio.Create(ctx, "a spinning cube")
package app
