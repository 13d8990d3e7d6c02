package handlers

import (
	"fmt"
	"html/template"
	"path/filepath"
)

// LoadTemplates parses the layout and every page template in templatesPath
func LoadTemplates(templatesPath string) (*template.Template, error) {
	pattern := filepath.Join(templatesPath, "*.tmpl")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found in %s", templatesPath)
	}

	funcMap := template.FuncMap{
		"percentClass": func(p int) string {
			switch {
			case p >= 80:
				return "score-high"
			case p >= 50:
				return "score-mid"
			default:
				return "score-low"
			}
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return tmpl, nil
}
