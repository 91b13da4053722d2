// Package server assembles the sketchbox HTTP server.
//
// Routes:
//
//	GET  /                 liveness
//	GET  /health           component availability and counters
//	GET  /metrics          Prometheus exposition
//	POST /preview          run a program headlessly for N frames
//	GET  /stream           WebSocket live preview
//	POST /create           generate, preview and fix a program
//	POST /share            save a program, returns its id
//	GET  /animation/:id    open a shared program
//	GET  /feed             open a random shared program
//	POST /mood             record a mood
//	GET  /history          list local runs
//	GET  /history/:id      one local run by id or prefix
//
// Responses other than the stream are gzip-compressed when the client
// accepts it.
package server
