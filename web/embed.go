// Package web embeds the NeuroSense page templates and stylesheet.
package web

import "embed"

// TemplatesFS contains the layouts, pages and partials.
//
//go:embed all:templates
var TemplatesFS embed.FS

// StaticFS contains the stylesheet served under /static/.
//
//go:embed all:static
var StaticFS embed.FS
