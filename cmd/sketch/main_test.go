package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		jsonFlag = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.js")
	require.NoError(t, os.WriteFile(path, []byte("function setup() {}"), 0o644))

	src, err := readSource(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "function setup() {}", src)

	src, err = readSource("-", strings.NewReader("function draw() {}"))
	require.NoError(t, err)
	assert.Equal(t, "function draw() {}", src)

	_, err = readSource("-", strings.NewReader("  \n"))
	assert.Error(t, err)

	_, err = readSource(filepath.Join(dir, "missing.js"), nil)
	assert.Error(t, err)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "hist_01J9Z3K4QW", shortID("hist_01J9Z3K4QW"))
	assert.Equal(t, "hist_01J9Z3K4QWABCDE", shortID("hist_01J9Z3K4QWABCDEFGHJKMNPQRSTV"))
}

func TestRunAndHistory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SKETCHBOX_HOME", home)
	t.Setenv("API_BASE_URL", "http://127.0.0.1:1")

	prog := filepath.Join(home, "dots.js")
	require.NoError(t, os.WriteFile(prog,
		[]byte(`function setup() { createCanvas(120, 80); }`), 0o644))

	out, err := execute(t, "run", prog)
	require.NoError(t, err)
	assert.Contains(t, out, "sketch")
	assert.Contains(t, out, "live")
	assert.Contains(t, out, "120x80")

	out, err = execute(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "hist_")
	assert.Contains(t, out, "dots.js")
}

func TestRunBrokenProgramFails(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SKETCHBOX_HOME", home)

	prog := filepath.Join(home, "broken.js")
	require.NoError(t, os.WriteFile(prog, []byte(`function setup( {`), 0o644))

	out, err := execute(t, "run", prog)
	assert.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "outcome    error")
	assert.Contains(t, out, "Error in animation code: SyntaxError")
	assert.NotContains(t, out, "Malformed animation code")
}

func TestRunUnterminatedWrapperIsMalformed(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SKETCHBOX_HOME", home)

	prog := filepath.Join(home, "wrapped.js")
	require.NoError(t, os.WriteFile(prog, []byte(`new p5(function(p){`), 0o644))

	out, err := execute(t, "run", prog)
	assert.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "outcome    malformed")
	assert.Contains(t, out, "Malformed animation code")
}

func TestMoodHelpListsMoods(t *testing.T) {
	assert.Contains(t, moodCmd.Long, "happy")
	assert.Contains(t, moodCmd.Long, "bored")
}

func TestReadSourceHTMLPage(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head>
  <script src="https://cdn.jsdelivr.net/npm/p5/lib/p5.min.js"></script>
  <script type="text/plain">not code</script>
</head>
<body>
  <script>let x = 0;</script>
  <script>function setup() { createCanvas(50, 50); }</script>
</body>
</html>`
	src, err := readSource("-", strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "let x = 0;\n\nfunction setup() { createCanvas(50, 50); }", src)

	_, err = readSource("-", strings.NewReader(`<html><body><p>hi</p></body></html>`))
	assert.ErrorContains(t, err, "no inline scripts")
}

func TestReadSourceRejectsBinary(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")
	_, err := readSource("-", bytes.NewReader(png))
	assert.ErrorContains(t, err, "image/png")
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.js", "nested/b.js", "nested/deeper/c.js", "notes.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("function setup() {}"), 0o644))
	}

	files, err := expand([]string{filepath.Join(dir, "**", "*.js"), filepath.Join(dir, "a.js")})
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "a.js"), files[0])

	files, err = expand([]string{filepath.Join(dir, "*.md")})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCheckReportsFailures(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SKETCHBOX_HOME", home)

	require.NoError(t, os.WriteFile(filepath.Join(home, "good.js"),
		[]byte(`function setup() { createCanvas(10, 10); }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(home, "bad.js"),
		[]byte(`function setup( {`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(home, "wrapped.js"),
		[]byte(`new p5(function(p){`), 0o644))

	out, err := execute(t, "check", filepath.Join(home, "*.js"))
	require.Error(t, err)
	assert.Contains(t, out, "2 failed")
	assert.Contains(t, out, "Error in animation code: SyntaxError")
	assert.Contains(t, out, "Malformed animation code")
	assert.Contains(t, out, "malformed")
}
