package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelfManaged(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"const scene = new THREE.Scene();", true},
		{"const r = new THREE.WebGLRenderer({ antialias: true });", true},
		{"const c = new THREE.PerspectiveCamera(75, 1, 0.1, 1000);", true},
		{"const c = new THREE . OrthographicCamera(-1, 1, 1, -1);", true},
		{"scene.add(new THREE.Mesh(new THREE.BoxGeometry(), new THREE.MeshBasicMaterial()));", false},
		{"// uses the provided scene and camera\ncamera.position.z = 3;", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SelfManaged(tt.src), tt.src)
	}
}

func TestDrivesOwnLoop(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"function animate() { requestAnimationFrame(animate); }", true},
		{"renderer.setAnimationLoop(tick);", true},
		{"animate();", true},
		{"const animated = true; reanimate(x);", false},
		{"scene.add(mesh);", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DrivesOwnLoop(tt.src), tt.src)
	}
}
