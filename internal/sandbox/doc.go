/*
Package sandbox runs untrusted visual sketch programs against a headless page.

# Overview

A page (see package host) owns one JavaScript realm, one event loop and one
window. Sketch programs come in two flavours, each served by its own runner:

  - sketch: 2D programs written against a p5-style global drawing API
  - scene:  3D programs written against a three-style scene graph API

Both runners share the contract defined here:

	Run(source, mount, onError)
	Dispose()

Nothing thrown by a program crosses Run. Every failure is delivered to
onError as one of MalformedSourceError, ExecutionError, FrameError or
RenderSurfaceMissingError.

# Lifecycle

	Idle -> Preparing -> Executing -> Error
	                               -> Live -> TornDown

A page has exactly one Slot. Starting any runner tears down whatever instance
currently holds the slot, whichever kind it is, before the new program is
prepared. Names a runner installs on the global object are recorded in a
BindingTable and reverted on teardown.

# Usage

	page := host.NewPage(host.DefaultPageConfig(), logger)
	env := sandbox.NewEnv(page, logger, metrics)
	runner := sketch.New(env, sketch.DefaultOptions())

	mount := page.Document.CreateMount("animation-container", 400, 400)
	runner.Run(source, mount, func(msg string) { log.Println(msg) })
	page.Loop.Advance(time.Second, time.Second/60)
	runner.Dispose()
*/
package sandbox
