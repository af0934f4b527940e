package vm

import (
	"fmt"
)

const (
	FONT_START      = 0x000 // Load address of the built-in font.
	FONT_GLYPH_SIZE = 5     // Bytes per font glyph.
)

var _font_defines = map[string]string{
	"FONT_START":      fmt.Sprintf("0x%x", FONT_START),
	"FONT_GLYPH_SIZE": fmt.Sprintf("0x%x", FONT_GLYPH_SIZE),
}

// fontSprites is the built-in glyph set for the hex digits, loaded at
// FONT_START on every reset. Each glyph is FONT_GLYPH_SIZE rows of one
// byte, drawn most significant bit leftmost.
var fontSprites = [16 * FONT_GLYPH_SIZE]uint8{
	0xf0, 0x90, 0x90, 0x90, 0xf0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xf0, 0x10, 0xf0, 0x80, 0xf0, // 2
	0xf0, 0x10, 0xf0, 0x10, 0xf0, // 3
	0x90, 0x90, 0xf0, 0x10, 0x10, // 4
	0xf0, 0x80, 0xf0, 0x10, 0xf0, // 5
	0xf0, 0x80, 0xf0, 0x90, 0xf0, // 6
	0xf0, 0x10, 0x20, 0x40, 0x40, // 7
	0xf0, 0x90, 0xf0, 0x90, 0xf0, // 8
	0xf0, 0x90, 0xf0, 0x10, 0xf0, // 9
	0xf0, 0x90, 0xf0, 0x90, 0x90, // a
	0xe0, 0x90, 0xe0, 0x90, 0xe0, // b
	0xf0, 0x80, 0x80, 0x80, 0xf0, // c
	0xe0, 0x90, 0x90, 0x90, 0xe0, // d
	0xf0, 0x80, 0xf0, 0x80, 0xf0, // e
	0xf0, 0x80, 0xf0, 0x80, 0x80, // f
}
