//go:build !dev

package main

import (
	"embed"
	"io/fs"
)

// uiBuild is the production build of the coffee machine UI.
//
//go:embed frontend/dist
var uiBuild embed.FS

// getFrontendFS returns the embedded UI rooted at its dist directory so the
// dev server serves it without the live reload watcher.
func getFrontendFS() (fs.FS, error) {
	return fs.Sub(uiBuild, "frontend/dist")
}
