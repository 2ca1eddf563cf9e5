package appfs

import "embed"

// FS holds all embedded app files (database migrations).
//
//go:embed migrations
var FS embed.FS
