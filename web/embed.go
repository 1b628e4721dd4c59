// Package web holds the HTML templates and static assets compiled into the binary.
package web

import (
	"embed"
	"html/template"
	iofs "io/fs"
)

//go:embed templates/*.html static
var content embed.FS

// Templates parses every page template with funcs available to all of them.
func Templates(funcs template.FuncMap) (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(content, "templates/*.html")
}

// Static returns the asset tree served under /_static.
func Static() iofs.FS {
	sub, err := iofs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
