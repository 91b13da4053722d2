package generator

import "fmt"

const systemPrompt = `You write short browser animations.

Reply with one program inside <code></code> tags and nothing else.

For 2D animations use p5.js in global mode: declare function setup() and
function draw() at top level, call createCanvas(windowWidth, windowHeight)
or a fixed size in setup, and never wrap the program in new p5(...).

For 3D animations use three.js through the global THREE. You may use the
provided scene, camera and renderer, or build your own scene, camera and
WebGLRenderer and append renderer.domElement to
document.getElementById('animation-container'). Drive motion with
requestAnimationFrame or renderer.setAnimationLoop.

Do not load external assets, fonts or scripts. Keep the program under 200 lines.`

func generatePrompt(description string) string {
	return fmt.Sprintf("Create an animation of: %s", description)
}

func fixPrompt(code, message string) string {
	return fmt.Sprintf(`This animation failed with the error:

%s

Return a corrected version of the whole program.

<broken>
%s
</broken>`, message, code)
}
