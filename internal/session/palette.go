package session

// Palette assigns display colors to sensor names.
type Palette struct {
	colors   map[string]string
	fallback string
}

// NewPalette builds a palette; names missing from colors get fallback.
func NewPalette(colors map[string]string, fallback string) Palette {
	return Palette{colors: colors, fallback: fallback}
}

// ColorFor returns the color of a sensor.
func (p Palette) ColorFor(name string) string {
	if c, ok := p.colors[name]; ok && c != "" {
		return c
	}
	return p.fallback
}
