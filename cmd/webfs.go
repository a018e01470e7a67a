package cmd

import "io/fs"

// WebFS is set by main() before Execute() is called.
// It holds the embedded frontend build; nil means assets are read from disk.
var WebFS fs.FS
