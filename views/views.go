// Package views holds the HTML templates, embedded into the binary so the
// server and the handler tests render the same pages.
package views

import (
	"embed"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var files embed.FS

// Parse builds the template set. Dates are shown in loc.
func Parse(loc *time.Location) (*template.Template, error) {
	if loc == nil {
		loc = time.UTC
	}

	funcs := template.FuncMap{
		"date": func(t time.Time) string {
			return t.In(loc).Format("02.01.2006 15:04")
		},
		"now": func() time.Time {
			return time.Now()
		},
	}

	return template.New("").Funcs(funcs).ParseFS(files, "templates/*.html")
}

// Load parses the templates and installs them on router.
func Load(router *gin.Engine, loc *time.Location) error {
	tmpl, err := Parse(loc)
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)
	return nil
}
