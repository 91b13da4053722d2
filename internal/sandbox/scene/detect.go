package scene

import "regexp"

// The predicates below are textual heuristics, not a parse. Keep every
// source inspection of the runner behind them.

var (
	ownScene    = regexp.MustCompile(`new\s+THREE\s*\.\s*Scene\s*\(`)
	ownRenderer = regexp.MustCompile(`new\s+THREE\s*\.\s*WebGLRenderer\s*\(`)
	ownCamera   = regexp.MustCompile(`new\s+THREE\s*\.\s*(?:Perspective|Orthographic)Camera\s*\(`)
	ownLoop     = regexp.MustCompile(`requestAnimationFrame\s*\(|setAnimationLoop\s*\(|\banimate\s*\(\s*\)`)
)

// SelfManaged reports whether source constructs its own scene, renderer or
// camera and so sets itself up.
func SelfManaged(source string) bool {
	return ownScene.MatchString(source) || ownRenderer.MatchString(source) || ownCamera.MatchString(source)
}

// DrivesOwnLoop reports whether source schedules its own frames.
func DrivesOwnLoop(source string) bool {
	return ownLoop.MatchString(source)
}
