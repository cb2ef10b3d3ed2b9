package templates

import (
	"fmt"

	"github.com/emsipi/cli/internal/resolve"
)

// Template describes the Dockerfile template used for one runtime.
type Template struct {
	Name        string
	Runtime     resolve.Runtime
	Description string
}

var registry = map[resolve.Runtime]Template{
	resolve.RuntimePython: {
		Name:        "python.Dockerfile",
		Runtime:     resolve.RuntimePython,
		Description: "python slim image, dependencies installed with uv",
	},
	resolve.RuntimeNode: {
		Name:        "node.Dockerfile",
		Runtime:     resolve.RuntimeNode,
		Description: "two-stage node alpine image",
	},
}

// Get returns the template for a runtime.
func Get(rt resolve.Runtime) (Template, error) {
	t, ok := registry[rt]
	if !ok {
		return Template{}, fmt.Errorf("no Dockerfile template for runtime %q", rt)
	}
	return t, nil
}

// List returns all templates in runtime order.
func List() []Template {
	return []Template{registry[resolve.RuntimePython], registry[resolve.RuntimeNode]}
}
