package appfs

import "embed"

// FS holds the files shipped inside the binaries: email templates and SQL schemas.
//
//go:embed all:templates sql
var FS embed.FS
