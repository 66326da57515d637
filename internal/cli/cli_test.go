package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/archflow/pkg/diagram"
	"github.com/matzehuels/archflow/pkg/errors"
	"github.com/matzehuels/archflow/pkg/viewport"
)

const chainJSON = `{
  "nodes": [
    {"id": "a", "type": "component", "label": "Alpha"},
    {"id": "b", "type": "component", "label": "Beta"},
    {"id": "c", "type": "datastore", "label": "Gamma"}
  ],
  "edges": [
    {"id": "ab", "source": "a", "target": "b", "label": "calls"},
    {"id": "bc", "source": "b", "target": "c"}
  ]
}`

const chainYAML = `nodes:
  - {id: a, type: component, label: Alpha}
  - {id: b, type: component, label: Beta}
edges:
  - {id: ab, source: a, target: b}
`

// isolate points config and cache lookups at empty temp directories.
func isolate(t *testing.T) (cacheHome string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cacheHome = t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	return cacheHome
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func centers(t *testing.T, path string) map[string]diagram.Point {
	t.Helper()
	d, err := diagram.ReadFile(path)
	require.NoError(t, err)
	out := map[string]diagram.Point{}
	for _, n := range d.Nodes {
		out[n.ID] = n.Center()
	}
	return out
}

func TestLayoutCommand(t *testing.T) {
	isolate(t)
	in := writeInput(t, "chain.json", chainJSON)
	out := filepath.Join(t.TempDir(), "out.json")

	_, err := execute(t, "layout", in, "-o", out, "--rankdir", "LR", "--no-cache")
	require.NoError(t, err)

	c := centers(t, out)
	assert.Less(t, c["a"].X, c["b"].X)
	assert.Less(t, c["b"].X, c["c"].X)
}

func TestLayoutCommandDefaultOutput(t *testing.T) {
	isolate(t)
	in := writeInput(t, "chain.yaml", chainYAML)

	_, err := execute(t, "layout", in, "--no-cache")
	require.NoError(t, err)

	c := centers(t, filepath.Join(filepath.Dir(in), "chain.layout.yaml"))
	assert.Less(t, c["a"].Y, c["b"].Y, "top to bottom by default")
}

func TestLayoutCommandErrors(t *testing.T) {
	isolate(t)
	dangling := writeInput(t, "dangling.json", `{"nodes": [{"id": "a"}], "edges": [{"id": "x", "source": "a", "target": "ghost"}]}`)

	_, err := execute(t, "layout", dangling, "--strict", "--no-cache")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidReference))

	_, err = execute(t, "layout", dangling, "--rankdir", "BT", "--no-cache")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidRankdir))

	_, err = execute(t, "layout", filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestLayoutSettingsPrecedence(t *testing.T) {
	isolate(t)
	in := writeInput(t, "chain.json", chainJSON)
	cfg := writeInput(t, "archflow.toml", "[layout]\nrankdir = \"LR\"\n")
	out := filepath.Join(t.TempDir(), "out.json")

	_, err := execute(t, "--config", cfg, "layout", in, "-o", out, "--no-cache")
	require.NoError(t, err)
	c := centers(t, out)
	assert.Less(t, c["a"].X, c["b"].X, "config file sets LR")

	t.Setenv("ARCHFLOW_RANKDIR", "TB")
	_, err = execute(t, "--config", cfg, "layout", in, "-o", out, "--no-cache")
	require.NoError(t, err)
	c = centers(t, out)
	assert.Less(t, c["a"].Y, c["b"].Y, "environment wins over the file")

	_, err = execute(t, "--config", cfg, "layout", in, "-o", out, "--no-cache", "--rankdir", "LR")
	require.NoError(t, err)
	c = centers(t, out)
	assert.Less(t, c["a"].X, c["b"].X, "flags win over the environment")
}

func TestFitCommand(t *testing.T) {
	isolate(t)
	in := writeInput(t, "laid.json", `{"nodes": [{"id": "a", "type": "component", "x": 0, "y": 0, "width": 100, "height": 50}], "edges": []}`)

	out, err := execute(t, "fit", in, "--width", "800", "--height", "600")
	require.NoError(t, err)

	var tr viewport.Transform
	require.NoError(t, json.Unmarshal([]byte(out), &tr))
	assert.Equal(t, viewport.Transform{X: 350, Y: 275, Scale: 1}, tr)
}

func TestFitCommandInvalid(t *testing.T) {
	isolate(t)
	in := writeInput(t, "laid.json", `{"nodes": [], "edges": []}`)

	_, err := execute(t, "fit", in, "--width", "800", "--height", "600", "--min-scale", "2", "--max-scale", "1")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOption))

	_, err = execute(t, "fit", in, "--width", "800", "--height", "600", "--insets", "1,2")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOption))

	_, err = execute(t, "fit", in, "--height", "600")
	assert.Error(t, err, "width is required")
}

func TestZoomCommand(t *testing.T) {
	isolate(t)
	tests := []struct {
		name string
		args []string
		want viewport.Transform
	}{
		{"focal", []string{"--factor", "2", "--focal", "100,100"}, viewport.Transform{X: -100, Y: -100, Scale: 2}},
		{"center", []string{"--factor", "2"}, viewport.Transform{X: -400, Y: -300, Scale: 2}},
		{"clamped", []string{"--scale", "10", "--factor", "2"}, viewport.Transform{X: 280, Y: 210, Scale: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"zoom", "--width", "800", "--height", "600"}, tt.args...)
			out, err := execute(t, args...)
			require.NoError(t, err)

			var tr viewport.Transform
			require.NoError(t, json.Unmarshal([]byte(out), &tr))
			assert.InDelta(t, tt.want.X, tr.X, 1e-9)
			assert.InDelta(t, tt.want.Y, tr.Y, 1e-9)
			assert.InDelta(t, tt.want.Scale, tr.Scale, 1e-9)
		})
	}
}

func TestZoomCommandInvalid(t *testing.T) {
	isolate(t)
	for _, args := range [][]string{
		{"--factor", "0"},
		{"--factor", "-2"},
		{"--factor", "2", "--focal", "100"},
	} {
		_, err := execute(t, append([]string{"zoom", "--width", "800", "--height", "600"}, args...)...)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidOption), "%v: %v", args, err)
	}
}

func TestRenderCommandDOT(t *testing.T) {
	isolate(t)
	in := writeInput(t, "chain.json", chainJSON)
	out := filepath.Join(t.TempDir(), "chain.dot")

	_, err := execute(t, "render", in, "-o", out, "--no-cache")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph G {")
	assert.Contains(t, string(data), `label="Alpha"`)
}

func TestRenderFormat(t *testing.T) {
	tests := []struct {
		flag, output, want string
		wantErr            bool
	}{
		{"", "out.svg", "svg", false},
		{"", "out.DOT", "dot", false},
		{"", "out.gv", "dot", false},
		{"", "out.yml", "yaml", false},
		{"json", "out.txt", "json", false},
		{"", "out.png", "", true},
	}
	for _, tt := range tests {
		got, err := renderFormat(tt.flag, tt.output)
		if tt.wantErr {
			assert.Error(t, err, tt.output)
			continue
		}
		require.NoError(t, err, tt.output)
		assert.Equal(t, tt.want, got, tt.output)
	}
}

func TestLayoutOutputPath(t *testing.T) {
	assert.Equal(t, "d/arch.layout.json", layoutOutputPath("d/arch.json"))
	assert.Equal(t, "d/arch.layout.yml", layoutOutputPath("d/arch.yml"))
	assert.Equal(t, "arch.layout.json", layoutOutputPath("arch"))
}

func TestCacheCommands(t *testing.T) {
	cacheHome := isolate(t)
	dir := filepath.Join(cacheHome, "archflow")

	out, err := execute(t, "cache", "path")
	require.NoError(t, err)
	assert.Equal(t, dir, strings.TrimSpace(out))

	_, err = execute(t, "cache", "clear")
	require.NoError(t, err, "clearing a missing cache is fine")

	in := writeInput(t, "chain.json", chainJSON)
	_, err = execute(t, "layout", in, "-o", filepath.Join(t.TempDir(), "out.json"))
	require.NoError(t, err)

	entries, _ := filepath.Glob(filepath.Join(dir, "*", "*.json"))
	require.Len(t, entries, 1)

	_, err = execute(t, "cache", "stats")
	require.NoError(t, err)
	_, err = execute(t, "cache", "prune")
	require.NoError(t, err)
	entries, _ = filepath.Glob(filepath.Join(dir, "*", "*.json"))
	assert.Len(t, entries, 1, "fresh entries survive prune")

	_, err = execute(t, "cache", "clear")
	require.NoError(t, err)
	entries, _ = filepath.Glob(filepath.Join(dir, "*", "*.json"))
	assert.Empty(t, entries)
}

func TestCacheDirFromConfig(t *testing.T) {
	isolate(t)
	custom := t.TempDir()
	t.Setenv("ARCHFLOW_CACHE_DIR", custom)

	out, err := execute(t, "cache", "path")
	require.NoError(t, err)
	assert.Equal(t, custom, strings.TrimSpace(out))
}

func TestCompletionCommand(t *testing.T) {
	isolate(t)
	out, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "archflow")

	_, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KiB", formatBytes(1536))
	assert.Equal(t, "2.0 MiB", formatBytes(2<<20))
}
