package scene

import (
	"fmt"
	"image/color"
	"strings"
)

var (
	White  = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	Black  = color.NRGBA{A: 0xFF}
	BlueC  = color.NRGBA{R: 0x58, G: 0xC4, B: 0xDD, A: 0xFF}
	Yellow = color.NRGBA{R: 0xFF, G: 0xFF, B: 0x00, A: 0xFF}
	Gray   = color.NRGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xFF}
)

// ParseHex parses "#RRGGBB" or "#RRGGBBAA".
func ParseHex(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var c color.NRGBA
	switch len(s) {
	case 6:
		c.A = 0xFF
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
			return c, fmt.Errorf("parse colour %q: %w", s, err)
		}
	case 8:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A); err != nil {
			return c, fmt.Errorf("parse colour %q: %w", s, err)
		}
	default:
		return c, fmt.Errorf("parse colour %q: expected 6 or 8 hex digits", s)
	}
	return c, nil
}

// LerpColor blends two colours component-wise.
func LerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		v := float64(x) + (float64(y)-float64(x))*t + 0.5
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint8(v)
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
