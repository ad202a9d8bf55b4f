// Package web holds the companion pages served next to the relay.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var static embed.FS

// Static returns the page tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		// static/ is embedded at build time, so this cannot fail.
		panic(err)
	}
	return sub
}
