// Package assets embeds the single page application.
package assets

import _ "embed"

// Index is the page built by cmd/minify.
//
//go:embed index.html
var Index []byte

// Favicon is the site icon.
//
//go:embed marker.svg
var Favicon []byte
