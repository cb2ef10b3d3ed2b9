package templates

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emsipi/cli/internal/probe"
	"github.com/emsipi/cli/internal/raw"
	"github.com/emsipi/cli/internal/resolve"
	"github.com/emsipi/cli/internal/testutil"
)

const workDir = "/work/weather-server"

func resolved(t *testing.T, files map[string]string, layer map[string]any) *resolve.ResolvedConfiguration {
	t.Helper()
	r, err := resolve.NewResolver()
	require.NoError(t, err)
	store := raw.NewStore()
	store.SetLayer(raw.OriginPublic, layer)
	p, err := probe.Capture(context.Background(), workDir, testutil.NewMemFiles(files), resolve.ConfiguredDockerfile(store))
	require.NoError(t, err)

	cfg, report := r.Resolve(store, p)
	require.NotNil(t, cfg, "issues: %v", report.Issues)
	return cfg
}

func TestNewRenderer_EmbedsRegisteredTemplates(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	assert.ElementsMatch(t, []string{"node.Dockerfile", "python.Dockerfile"}, names)
	for _, tmpl := range List() {
		assert.Contains(t, names, tmpl.Name)
	}
}

func TestGet_UnknownRuntime(t *testing.T) {
	_, err := Get(resolve.Runtime("ruby"))
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		layer    map[string]any
		template string
		contains []string
		excludes []string
	}{
		{
			name:     "python with uv.lock",
			files:    map[string]string{"uv.lock": "requires-python = \">=3.12\"\n"},
			layer:    map[string]any{"server-file": "server.py"},
			template: "python.Dockerfile",
			contains: []string{
				"FROM python:3.12-slim",
				"COPY uv.lock ./",
				"RUN uv sync --frozen",
				`CMD ["uv","run","server.py"]`,
				"EXPOSE 8080",
			},
		},
		{
			name:     "python with requirements.txt",
			files:    map[string]string{"requirements.txt": "mcp\n"},
			layer:    map[string]any{"server-file": "./src/server.py", "python-version": "3.11"},
			template: "python.Dockerfile",
			contains: []string{
				"FROM python:3.11-slim",
				"COPY requirements.txt ./",
				"RUN uv pip install --system -r requirements.txt",
				`CMD ["uv","run","src/server.py"]`,
			},
		},
		{
			name: "python with pyproject dependencies",
			files: map[string]string{
				"pyproject.toml": "[project]\nrequires-python = \">=3.10\"\ndependencies = [\"mcp\"]\n",
			},
			layer:    map[string]any{"server-command": `python -m weather --name "my server"`},
			template: "python.Dockerfile",
			contains: []string{
				"FROM python:3.10-slim",
				"COPY pyproject.toml ./",
				"RUN uv sync\n",
				`CMD ["python","-m","weather","--name","my server"]`,
			},
		},
		{
			name:     "node with build",
			files:    map[string]string{"package.json": "{}"},
			layer:    map[string]any{"server-file": "build/index.js", "node-version": 22, "run-npm-build": true},
			template: "node.Dockerfile",
			contains: []string{
				"FROM node:22-alpine AS builder",
				"FROM node:22-alpine AS runner",
				"RUN npm run build",
				`CMD ["node","build/index.js"]`,
			},
		},
		{
			name:     "node without build",
			files:    map[string]string{"package.json": "{}"},
			layer:    map[string]any{"server-file": "index.js", "node-version": "20"},
			template: "node.Dockerfile",
			contains: []string{"FROM node:20-alpine AS builder"},
			excludes: []string{"npm run build"},
		},
		{
			name:  "environment variables sorted and quoted",
			files: map[string]string{"package.json": "{}"},
			layer: map[string]any{
				"server-file":  "index.js",
				"node-version": "20",
				"environment-variables": map[string]any{
					"LOG_LEVEL": "debug",
					"API_URL":   "https://example.com/a b",
					"RETRIES":   3,
				},
			},
			template: "node.Dockerfile",
			contains: []string{
				"ENV API_URL=\"https://example.com/a b\"\nENV LOG_LEVEL=\"debug\"\nENV RETRIES=\"3\"",
			},
		},
	}

	r, err := NewRenderer()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := resolved(t, tt.files, tt.layer)

			content, tmpl, err := r.Render(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.template, tmpl.Name)

			text := string(content)
			firstLine, _, _ := strings.Cut(text, "\n")
			assert.Equal(t, resolve.GenerationMarker, firstLine)
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, text, unwanted)
			}
		})
	}
}

func TestRender_UnterminatedQuote(t *testing.T) {
	cfg := resolved(t, map[string]string{"package.json": "{}"},
		map[string]any{"server-command": `node "index.js`, "runtime": "node", "node-version": "20"})

	r, err := NewRenderer()
	require.NoError(t, err)
	_, _, err = r.Render(cfg)
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	node := map[string]string{"package.json": "{}"}

	t.Run("writes when generation is allowed", func(t *testing.T) {
		dir := t.TempDir()
		cfg := resolved(t, node, map[string]any{"server-file": "index.js", "node-version": "20", "dockerfile": "docker/Dockerfile"})
		require.True(t, cfg.DoGenerateDockerfile)

		g, err := NewGenerator(GenerateOptions{Dir: dir})
		require.NoError(t, err)
		res, err := g.Generate(cfg)
		require.NoError(t, err)
		assert.True(t, res.Written)

		written, err := os.ReadFile(filepath.Join(dir, "docker", "Dockerfile"))
		require.NoError(t, err)
		assert.Equal(t, res.Content, written)
	})

	t.Run("keeps user-maintained Dockerfile", func(t *testing.T) {
		dir := t.TempDir()
		original := "FROM scratch\n"
		path := testutil.WriteFile(t, dir, "Dockerfile", original)

		files := map[string]string{"package.json": "{}", "Dockerfile": original}
		cfg := resolved(t, files, map[string]any{"server-file": "index.js", "node-version": "20"})
		require.False(t, cfg.DoGenerateDockerfile)

		g, err := NewGenerator(GenerateOptions{Dir: dir})
		require.NoError(t, err)
		res, err := g.Generate(cfg)
		require.NoError(t, err)
		assert.False(t, res.Written)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, original, string(content))
	})

	t.Run("force overwrites", func(t *testing.T) {
		dir := t.TempDir()
		path := testutil.WriteFile(t, dir, "Dockerfile", "FROM scratch\n")

		files := map[string]string{"package.json": "{}", "Dockerfile": "FROM scratch\n"}
		cfg := resolved(t, files, map[string]any{"server-file": "index.js", "node-version": "20"})

		g, err := NewGenerator(GenerateOptions{Dir: dir, Force: true})
		require.NoError(t, err)
		res, err := g.Generate(cfg)
		require.NoError(t, err)
		assert.True(t, res.Written)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(content), resolve.GenerationMarker))
	})
}
