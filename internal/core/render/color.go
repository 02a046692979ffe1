package render

import (
	"image/color"
	"strconv"

	"drawboard/pkg/validation"
)

// ParseColor parses #rgb or #rrggbb. Anything else yields opaque black.
func ParseColor(s string) color.NRGBA {
	black := color.NRGBA{A: 0xff}
	if validation.ValidateColor(s) != nil {
		return black
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return black
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
