// Package web holds the dashboard's HTML templates and static assets.
package web

import "embed"

// EmbeddedFS contains templates/ and static/.
//
//go:embed templates static
var EmbeddedFS embed.FS
