package webserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

// Renderer produces page markup from a template name and its values.
// Handlers depend on this interface; the concrete implementation is a
// collaborator they do not own.
type Renderer interface {
	Render(name string, data any) ([]byte, error)
}

//go:embed templates/*.html
var templateFS embed.FS

// TemplateRenderer renders the embedded HTML templates. html/template
// escapes every interpolated value, which covers the escaping the pages
// require.
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses the embedded templates.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &TemplateRenderer{templates: tmpl}, nil
}

func (r *TemplateRenderer) Render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
