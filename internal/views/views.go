package views

import (
	"embed"
	"html/template"

	"github.com/shopspring/decimal"
)

//go:embed email/*.html
var FS embed.FS

var funcMap = template.FuncMap{
	"usd": USD,
}

// USD formats cents as a dollar amount.
func USD(cents int64) string {
	return "$" + decimal.New(cents, -2).StringFixed(2)
}

// EmailTemplates parses the embedded transactional email templates.
func EmailTemplates() (*template.Template, error) {
	return template.New("email").Funcs(funcMap).ParseFS(FS, "email/*.html")
}
