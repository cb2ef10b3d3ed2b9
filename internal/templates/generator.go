package templates

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/emsipi/cli/internal/output"
	"github.com/emsipi/cli/internal/resolve"
)

// Generator writes the Dockerfile for a resolved configuration.
type Generator struct {
	opts     GenerateOptions
	renderer *Renderer
}

// NewGenerator creates a new generator with the given options.
func NewGenerator(opts GenerateOptions) (*Generator, error) {
	r, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Generator{opts: opts, renderer: r}, nil
}

// Generate renders the Dockerfile and writes it unless the configured
// Dockerfile exists without the generation marker.
func (g *Generator) Generate(cfg *resolve.ResolvedConfiguration) (*GenerateResult, error) {
	content, tmpl, err := g.renderer.Render(cfg)
	if err != nil {
		return nil, fmt.Errorf("rendering Dockerfile: %w", err)
	}
	result := &GenerateResult{Path: cfg.Dockerfile, Template: tmpl.Name, Content: content}

	if !cfg.DoGenerateDockerfile && !g.opts.Force {
		output.Debug("keeping user-maintained Dockerfile", "path", cfg.Dockerfile)
		return result, nil
	}

	target := cfg.Dockerfile
	if !filepath.IsAbs(target) {
		target = filepath.Join(g.opts.Dir, target)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", target, err)
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", target, err)
	}

	output.Debug("generated Dockerfile", "path", target, "template", tmpl.Name)
	result.Written = true
	return result, nil
}
