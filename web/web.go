package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var content embed.FS

// Assets returns the page templates and static files.
func Assets() fs.FS {
	return content
}
