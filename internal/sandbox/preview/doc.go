// Package preview runs programs on headless pages outside a browser.
//
// A Session keeps one page alive and steps it frame by frame, which is what
// the live stream uses. A Harness creates a fresh session per request, steps
// a fixed number of frames and reports the outcome together with host-side
// frame cost statistics.
package preview
