// Package content embeds the default monster and item templates.
package content

import "embed"

// FS holds monsters/*.yaml and items/*.yaml.
//
//go:embed monsters/*.yaml items/*.yaml
var FS embed.FS
