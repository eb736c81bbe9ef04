package render

import (
	"fmt"
	"strconv"
)

// Alpha applied to interaction edges and pulse rings (0x40 of 0xff).
const translucent uint8 = 0x40

// Hue maps a resonance frequency to an HSL hue in degrees. The mapping is
// deliberately unbounded: CSS wraps hues above 360.
func Hue(freq float64) float64 {
	return freq / 3
}

// HSL formats an opaque CSS hsl() colour. Saturation and lightness are
// percentages.
func HSL(h, s, l float64) string {
	return fmt.Sprintf("hsl(%s, %s%%, %s%%)", num(h), num(s), num(l))
}

// HSLA formats a CSS hsla() colour with an 8-bit alpha.
func HSLA(h, s, l float64, alpha uint8) string {
	return fmt.Sprintf("hsla(%s, %s%%, %s%%, %s)", num(h), num(s), num(l), alphaFraction(alpha))
}

// WithAlpha appends an 8-bit alpha to a #rrggbb colour. Other inputs are
// returned unchanged.
func WithAlpha(hex string, alpha uint8) string {
	if len(hex) != 7 || hex[0] != '#' {
		return hex
	}
	return fmt.Sprintf("%s%02x", hex, alpha)
}

func alphaFraction(alpha uint8) string {
	return strconv.FormatFloat(float64(alpha)/0xff, 'f', 3, 64)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
