package vm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFramebuffer_DrawSprite(t *testing.T) {
	assert := assert.New(t)

	var fb Framebuffer
	collision := fb.drawSprite(1, 2, []uint8{0xC0, 0x81}, false)
	assert.False(collision)

	assert.True(fb.Pixel(1, 2))
	assert.True(fb.Pixel(2, 2))
	assert.False(fb.Pixel(3, 2))
	assert.True(fb.Pixel(1, 3))
	assert.True(fb.Pixel(8, 3))
	assert.False(fb.Pixel(0, 2))
}

func TestFramebuffer_DrawTwiceRestores(t *testing.T) {
	assert := assert.New(t)

	var fb Framebuffer
	sprite := chip8Font[0:FontGlyphSize]

	assert.False(fb.drawSprite(10, 10, sprite, false))
	assert.False(fb.IsClear())

	assert.True(fb.drawSprite(10, 10, sprite, false))
	assert.True(fb.IsClear())
}

func TestFramebuffer_Wrap(t *testing.T) {
	assert := assert.New(t)

	var fb Framebuffer
	fb.drawSprite(62, 31, []uint8{0xFF, 0x80}, false)

	assert.True(fb.Pixel(62, 31))
	assert.True(fb.Pixel(63, 31))
	for x := 0; x < 6; x++ {
		assert.True(fb.Pixel(x, 31), "x=%d", x)
	}
	assert.False(fb.Pixel(6, 31))

	// Second row wraps to the top.
	assert.True(fb.Pixel(62, 0))
}

func TestFramebuffer_Clip(t *testing.T) {
	assert := assert.New(t)

	var fb Framebuffer
	fb.drawSprite(62, 31, []uint8{0xFF, 0x80}, true)

	assert.True(fb.Pixel(62, 31))
	assert.True(fb.Pixel(63, 31))
	for x := 0; x < 8; x++ {
		assert.False(fb.Pixel(x, 31), "x=%d", x)
	}
	assert.False(fb.Pixel(62, 0))
}

func TestFramebuffer_OriginWraps(t *testing.T) {
	for _, clip := range []bool{false, true} {
		var fb Framebuffer
		fb.drawSprite(70, 33, []uint8{0x80}, clip)

		assert.True(t, fb.Pixel(6, 1), "clip=%t", clip)
	}
}

func TestFramebuffer_Pixel(t *testing.T) {
	var fb Framebuffer
	fb[0] = 1

	assert.True(t, fb.Pixel(0, 0))
	assert.True(t, fb.Pixel(ScreenWidth, ScreenHeight))
	assert.False(t, fb.Pixel(1, 0))
}

func TestFramebuffer_Clear(t *testing.T) {
	var fb Framebuffer
	fb.drawSprite(0, 0, []uint8{0xFF}, false)

	fb.Clear()

	assert.True(t, fb.IsClear())
}

func TestFramebuffer_String(t *testing.T) {
	assert := assert.New(t)

	var fb Framebuffer
	fb.drawSprite(0, 0, []uint8{0xF0}, false)

	lines := strings.Split(strings.TrimSuffix(fb.String(), "\n"), "\n")
	assert.Len(lines, ScreenHeight)
	for _, line := range lines {
		assert.Len(line, ScreenWidth)
	}

	assert.Equal("####"+strings.Repeat(".", ScreenWidth-4), lines[0])
	assert.Equal(strings.Repeat(".", ScreenWidth), lines[1])
}
