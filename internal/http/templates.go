package http

import (
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templateFuncs = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2 Jan 2006")
	},
	"join": func(values []string) string {
		return strings.Join(values, ", ")
	},
}

// loadTemplates parses the embedded page templates. Each page is addressed
// by its file name, e.g. "announcements.html".
func loadTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
}
