// Package scripts embeds the default bucking scripts.
package scripts

import "embed"

// FS holds the built-in .risor scripts.
//
//go:embed *.risor
var FS embed.FS
