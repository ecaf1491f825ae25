// Package defaults embeds the built-in F1 Academy content set.
package defaults

import "embed"

// FS holds one YAML file per module.
//
//go:embed *.yaml
var FS embed.FS
