package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#1A2B3C")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0x1A, G: 0x2B, B: 0x3C}, c)

	// Short form expands each digit.
	c, err = ParseHex("#abc")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0xAA, G: 0xBB, B: 0xCC}, c)

	// Leading hash is optional.
	c, err = ParseHex("ffffff")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 255, G: 255, B: 255}, c)

	for _, bad := range []string{"", "#12", "#12345", "#gggggg", "not a color"} {
		_, err := ParseHex(bad)
		assert.ErrorIs(t, err, ErrInvalidColor, "input %q", bad)
	}
}

func TestContrastRatioBlackOnWhite(t *testing.T) {
	white := Color{255, 255, 255}
	black := Color{0, 0, 0}

	assert.InDelta(t, 21.0, ContrastRatio(white, black), 0.01)
	// Order must not matter.
	assert.InDelta(t, 21.0, ContrastRatio(black, white), 0.01)
	assert.InDelta(t, 1.0, ContrastRatio(white, white), 0.001)
}

func TestValidateThresholds(t *testing.T) {
	// Black on white clears AAA.
	result, err := Validate(&Theme{Background: "#ffffff", Text: "#000000", Accent: "#767676"})
	require.NoError(t, err)
	assert.True(t, result.PassesAA)
	assert.True(t, result.PassesAAA)
	assert.InDelta(t, 21.0, result.TextContrast, 0.01)

	// #767676 on white is roughly 4.54:1, AA but not AAA.
	result, err = Validate(&Theme{Background: "#ffffff", Text: "#767676", Accent: "#000000"})
	require.NoError(t, err)
	assert.True(t, result.PassesAA)
	assert.False(t, result.PassesAAA)

	// Light grey on white fails both.
	result, err = Validate(&Theme{Background: "#ffffff", Text: "#cccccc", Accent: "#000000"})
	require.NoError(t, err)
	assert.False(t, result.PassesAA)
	assert.False(t, result.PassesAAA)
}

func TestValidateInvalidColor(t *testing.T) {
	_, err := Validate(&Theme{Background: "#ffffff", Text: "oops", Accent: "#000000"})
	assert.ErrorIs(t, err, ErrInvalidColor)
}
