package view

import (
	"embed"
	"html/template"
	"sync"
)

// Template names.
const (
	PageTemplate    = "console.html"
	TableTemplate   = "table"
	ItemsTemplate   = "items"
	CatalogTemplate = "catalog"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	templatesOnce sync.Once
	templates     *template.Template
)

// Templates returns the parsed console templates. They are parsed once.
func Templates() *template.Template {
	templatesOnce.Do(func() {
		templates = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
	})
	return templates
}
