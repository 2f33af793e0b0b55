package vm

import "strings"

// Framebuffer is the 64x32 monochrome display, one byte (0 or 1) per pixel,
// row-major.
type Framebuffer [ScreenWidth * ScreenHeight]uint8

func (fb *Framebuffer) Clear() {
	*fb = Framebuffer{}
}

// Pixel reports whether the pixel at (x, y) is set. Coordinates wrap.
func (fb *Framebuffer) Pixel(x, y int) bool {
	return fb[getScreenAddr(uint16(x), uint16(y))] != 0
}

// IsClear reports whether no pixel is set.
func (fb *Framebuffer) IsClear() bool {
	for _, p := range fb {
		if p != 0 {
			return false
		}
	}
	return true
}

// drawSprite XORs the 8-pixel-wide rows onto the display with the top-left
// corner at (x, y) and reports whether any set pixel was cleared.
// The origin always wraps; with clip set, pixels past the right or bottom edge
// are dropped instead of wrapping.
func (fb *Framebuffer) drawSprite(x, y uint8, rows []uint8, clip bool) bool {
	xLocation := uint16(x) % ScreenWidth
	yLocation := uint16(y) % ScreenHeight

	collision := false
	for row, pixels := range rows {
		py := yLocation + uint16(row)
		if clip && py >= ScreenHeight {
			break
		}

		const width = uint16(8)
		for col := uint16(0); col < width; col++ {
			if pixels&(0x80>>col) == 0 {
				continue
			}

			px := xLocation + col
			if clip && px >= ScreenWidth {
				break
			}

			screenAddr := getScreenAddr(px, py)
			if fb[screenAddr] != 0 {
				collision = true
			}
			fb[screenAddr] ^= 1
		}
	}

	return collision
}

// String renders the display as text, '#' for set and '.' for clear pixels,
// one line per row.
func (fb *Framebuffer) String() string {
	var sb strings.Builder
	sb.Grow((ScreenWidth + 1) * ScreenHeight)

	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			if fb[x+y*ScreenWidth] != 0 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

func getScreenAddr(x, y uint16) uint16 {
	x %= ScreenWidth
	y %= ScreenHeight

	screenAddr := ScreenWidth*(y) + x
	return screenAddr
}
