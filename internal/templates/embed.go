package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"text/template"
)

//go:embed dockerfiles/*.tmpl
var dockerfileFS embed.FS

const templateDir = "dockerfiles"

var funcs = template.FuncMap{
	"join":  strings.Join,
	"quote": strconv.Quote,
}

// parseAll parses every embedded Dockerfile template, keyed by file name
// without the .tmpl suffix.
func parseAll() (map[string]*template.Template, error) {
	entries, err := fs.ReadDir(dockerfileFS, templateDir)
	if err != nil {
		return nil, fmt.Errorf("reading embedded templates: %w", err)
	}

	parsed := make(map[string]*template.Template, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".tmpl") {
			continue
		}
		content, err := fs.ReadFile(dockerfileFS, templateDir+"/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", e.Name(), err)
		}
		name := strings.TrimSuffix(e.Name(), ".tmpl")
		tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", e.Name(), err)
		}
		parsed[name] = tmpl
	}
	return parsed, nil
}
