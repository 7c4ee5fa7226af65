// Package render draws the marker icons shown for placed sensors.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"
	"sync"

	"github.com/chai2010/webp"
	"golang.org/x/image/colornames"
	xdraw "golang.org/x/image/draw"
)

// supersample is the oversize factor used before downscaling for smooth edges.
const supersample = 4

// ParseColor accepts a CSS color name or a #rgb / #rrggbb hex value.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}

	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("unknown color %q", s)
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}

	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Marker draws a filled disc with a white outline on a transparent square.
func Marker(fill color.Color, size int) image.Image {
	big := size * supersample
	src := image.NewRGBA(image.Rect(0, 0, big, big))

	center := float64(big) / 2
	outer := center - float64(supersample)
	inner := outer - float64(2*supersample)

	for y := 0; y < big; y++ {
		for x := 0; x < big; x++ {
			dx := float64(x) + 0.5 - center
			dy := float64(y) + 0.5 - center
			d2 := dx*dx + dy*dy

			switch {
			case d2 <= inner*inner:
				src.Set(x, y, fill)
			case d2 <= outer*outer:
				src.Set(x, y, color.White)
			}
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	return dst
}

// IconCache renders marker icons once per color and keeps the WebP bytes.
type IconCache struct {
	icons map[string][]byte
	size  int
	mu    sync.Mutex
}

// NewIconCache creates a cache of icons size pixels wide.
func NewIconCache(size int) *IconCache {
	if size <= 0 {
		size = 24
	}
	return &IconCache{size: size, icons: make(map[string][]byte)}
}

// Get returns the WebP encoded marker for a color.
func (c *IconCache) Get(colorName string) ([]byte, error) {
	key := strings.ToLower(strings.TrimSpace(colorName))

	c.mu.Lock()
	defer c.mu.Unlock()

	if data, ok := c.icons[key]; ok {
		return data, nil
	}

	fill, err := ParseColor(key)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, Marker(fill, c.size), &webp.Options{Lossless: true}); err != nil {
		return nil, fmt.Errorf("encode marker: %w", err)
	}

	c.icons[key] = buf.Bytes()
	return c.icons[key], nil
}
