package vm

import (
	"fmt"
)

// Code represents a single 16-bit instruction word, stored big-endian
// in machine memory.
type Code uint16

// MakeCode creates an instruction word from four nibbles.
func MakeCode(op, x, y, n uint8) Code {
	return Code(uint16(op&0xf)<<12 | uint16(x&0xf)<<8 | uint16(y&0xf)<<4 | uint16(n&0xf))
}

// MakeCodeNn creates an instruction word from an opcode nibble, a
// register index, and an immediate byte.
func MakeCodeNn(op, x, nn uint8) Code {
	return Code(uint16(op&0xf)<<12 | uint16(x&0xf)<<8 | uint16(nn))
}

// MakeCodeNnn creates an instruction word from an opcode nibble and an
// address.
func MakeCodeNnn(op uint8, nnn uint16) Code {
	return Code(uint16(op&0xf)<<12 | nnn&0xfff)
}

// Op returns the major opcode nibble (bits 12-15).
func (code Code) Op() uint8 {
	return uint8(code >> 12)
}

// X returns the first register index (bits 8-11).
func (code Code) X() uint8 {
	return uint8(code>>8) & 0xf
}

// Y returns the second register index (bits 4-7).
func (code Code) Y() uint8 {
	return uint8(code>>4) & 0xf
}

// N returns the low nibble operand (bits 0-3).
func (code Code) N() uint8 {
	return uint8(code) & 0xf
}

// Nn returns the immediate byte operand (bits 0-7).
func (code Code) Nn() uint8 {
	return uint8(code)
}

// Nnn returns the address operand (bits 0-11).
func (code Code) Nnn() uint16 {
	return uint16(code) & 0xfff
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	x := code.X()
	y := code.Y()
	n := code.N()
	nn := code.Nn()
	nnn := code.Nnn()

	switch code.Op() {
	case 0x0:
		switch code {
		case 0x00e0:
			out = "cls"
		case 0x00ee:
			out = "ret"
		default:
			out = fmt.Sprintf("sys 0x%03x", nnn)
		}
	case 0x1:
		out = fmt.Sprintf("jp 0x%03x", nnn)
	case 0x2:
		out = fmt.Sprintf("call 0x%03x", nnn)
	case 0x3:
		out = fmt.Sprintf("se v%x, 0x%02x", x, nn)
	case 0x4:
		out = fmt.Sprintf("sne v%x, 0x%02x", x, nn)
	case 0x5:
		if n == 0 {
			out = fmt.Sprintf("se v%x, v%x", x, y)
		}
	case 0x6:
		out = fmt.Sprintf("ld v%x, 0x%02x", x, nn)
	case 0x7:
		out = fmt.Sprintf("add v%x, 0x%02x", x, nn)
	case 0x8:
		switch n {
		case 0x0:
			out = fmt.Sprintf("ld v%x, v%x", x, y)
		case 0x1:
			out = fmt.Sprintf("or v%x, v%x", x, y)
		case 0x2:
			out = fmt.Sprintf("and v%x, v%x", x, y)
		case 0x3:
			out = fmt.Sprintf("xor v%x, v%x", x, y)
		case 0x4:
			out = fmt.Sprintf("add v%x, v%x", x, y)
		case 0x5:
			out = fmt.Sprintf("sub v%x, v%x", x, y)
		case 0x6:
			out = fmt.Sprintf("shr v%x", x)
		case 0x7:
			out = fmt.Sprintf("subn v%x, v%x", x, y)
		case 0xe:
			out = fmt.Sprintf("shl v%x", x)
		}
	case 0x9:
		if n == 0 {
			out = fmt.Sprintf("sne v%x, v%x", x, y)
		}
	case 0xa:
		out = fmt.Sprintf("ld i, 0x%03x", nnn)
	case 0xb:
		out = fmt.Sprintf("jp v0, 0x%03x", nnn)
	case 0xc:
		out = fmt.Sprintf("rnd v%x, 0x%02x", x, nn)
	case 0xd:
		out = fmt.Sprintf("drw v%x, v%x, %d", x, y, n)
	case 0xe:
		switch nn {
		case 0x9e:
			out = fmt.Sprintf("skp v%x", x)
		case 0xa1:
			out = fmt.Sprintf("sknp v%x", x)
		}
	case 0xf:
		switch nn {
		case 0x07:
			out = fmt.Sprintf("ld v%x, dt", x)
		case 0x0a:
			out = fmt.Sprintf("ld v%x, k", x)
		case 0x15:
			out = fmt.Sprintf("ld dt, v%x", x)
		case 0x18:
			out = fmt.Sprintf("ld st, v%x", x)
		case 0x1e:
			out = fmt.Sprintf("add i, v%x", x)
		case 0x29:
			out = fmt.Sprintf("ld f, v%x", x)
		case 0x33:
			out = fmt.Sprintf("ld b, v%x", x)
		case 0x55:
			out = fmt.Sprintf("ld [i], v%x", x)
		case 0x65:
			out = fmt.Sprintf("ld v%x, [i]", x)
		}
	}

	if out == "" {
		out = fmt.Sprintf(".db 0x%02x, 0x%02x", uint8(code>>8), uint8(code))
	}

	return
}
