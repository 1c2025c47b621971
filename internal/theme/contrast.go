// Package theme validates event branding colors against WCAG contrast rules
// before they reach volunteer-facing pages.
package theme

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// WCAG 2.1 contrast thresholds for normal text.
const (
	MinContrastAA  = 4.5
	MinContrastAAA = 7.0
)

var ErrInvalidColor = errors.New("invalid hex color")

// Color is an sRGB color parsed from a hex string.
type Color struct {
	R, G, B uint8
}

// ParseHex accepts "#RRGGBB", "RRGGBB", "#RGB" and "RGB".
func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		expanded := make([]byte, 6)
		for i := 0; i < 3; i++ {
			expanded[2*i] = s[i]
			expanded[2*i+1] = s[i]
		}
		s = string(expanded)
	case 6:
	default:
		return Color{}, ErrInvalidColor
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, ErrInvalidColor
	}
	return Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

// RelativeLuminance implements the WCAG 2.1 formula.
func (c Color) RelativeLuminance() float64 {
	return 0.2126*channel(c.R) + 0.7152*channel(c.G) + 0.0722*channel(c.B)
}

func channel(v uint8) float64 {
	s := float64(v) / 255.0
	if s <= 0.03928 {
		return s / 12.92
	}
	return math.Pow((s+0.055)/1.055, 2.4)
}

// ContrastRatio returns the WCAG contrast ratio between two colors, in the
// range [1, 21].
func ContrastRatio(a, b Color) float64 {
	la := a.RelativeLuminance()
	lb := b.RelativeLuminance()
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// Theme is an event's color scheme.
type Theme struct {
	Background string `json:"background"`
	Text       string `json:"text"`
	Accent     string `json:"accent"`
}

// ValidationResult reports the contrast checks for a theme.
type ValidationResult struct {
	TextContrast   float64 `json:"textContrast"`
	AccentContrast float64 `json:"accentContrast"`
	PassesAA       bool    `json:"passesAA"`
	PassesAAA      bool    `json:"passesAAA"`
}

// Validate checks text and accent colors against the background. Text must
// meet AA; the accent is measured but only reported.
func Validate(t *Theme) (*ValidationResult, error) {
	bg, err := ParseHex(t.Background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	text, err := ParseHex(t.Text)
	if err != nil {
		return nil, fmt.Errorf("text: %w", err)
	}
	accent, err := ParseHex(t.Accent)
	if err != nil {
		return nil, fmt.Errorf("accent: %w", err)
	}

	textRatio := ContrastRatio(bg, text)
	accentRatio := ContrastRatio(bg, accent)

	return &ValidationResult{
		TextContrast:   textRatio,
		AccentContrast: accentRatio,
		PassesAA:       textRatio >= MinContrastAA,
		PassesAAA:      textRatio >= MinContrastAAA,
	}, nil
}
