//go:build dev

package main

import "io/fs"

// getFrontendFS returns nil in dev builds so the dev server reads
// frontend/dist from disk with live reload.
func getFrontendFS() (fs.FS, error) {
	return nil, nil
}
