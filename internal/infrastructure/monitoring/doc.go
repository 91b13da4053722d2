/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the sketch
sandbox, tracking HTTP requests, sandbox runs, upstream service calls and
WebSocket streams. Metrics implements sandbox.Recorder, so runners report
into it directly.

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	router.Use(monitoring.Middleware(metrics))

	env := sandbox.NewEnv(page, log, metrics)

	timer := monitoring.NewTimer(metrics, "api", "generate")
	// ... perform call ...
	timer.Stop("success")

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
