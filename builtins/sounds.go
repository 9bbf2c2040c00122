// Package builtins holds the default button manifest compiled into the
// binary.  The clips it names are served from the configured sounds
// directory.
package builtins

import (
	_ "embed"
)

//go:embed buttons.json
var buttonsJSON []byte

// ButtonsJSON returns a copy of the built-in manifest.
func ButtonsJSON() []byte {
	return append([]byte(nil), buttonsJSON...)
}
