// Package assets holds the files compiled into clicktunesd: the page
// template, and the script and stylesheet served under /fs/.
package assets

import (
	"embed"
)

//go:embed fs/*
var FS embed.FS

//go:embed templates/*
var Templates embed.FS
