package vm

import (
	"fmt"
	"iter"
	"strings"
)

// Opcode represents a line of assembled code with its source location
// and generated bytes.
type Opcode struct {
	LineNo    int
	Addr      int
	Words     []string
	Bytes     []byte
	LinkLabel string
}

// Program is an assembled program listing.
type Program struct {
	Opcodes []Opcode
}

// Debug locates the listing entry covering a machine address.
type Debug struct {
	*Opcode
	Index int
}

func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(addr) >= op.Addr && int(addr) < op.Addr+len(op.Bytes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr) - op.Addr,
			}
			break
		}
	}

	return
}

// Binary returns the program image, loadable at PROGRAM_START.
func (prog *Program) Binary() (bin []byte) {
	for _, op := range prog.Opcodes {
		bin = append(bin, op.Bytes...)
	}

	return
}

// Codes returns an iterator over the aligned instruction words of the
// program. Odd trailing bytes of .db runs are padded with zero.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(addr uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			for n := 0; n < len(op.Bytes); n += 2 {
				var lo uint8
				if n+1 < len(op.Bytes) {
					lo = op.Bytes[n+1]
				}
				code := Code(uint16(op.Bytes[n])<<8 | uint16(lo))
				if !yield(uint16(op.Addr+n), code) {
					return
				}
			}
		}
	}
}

// String returns the program listing.
func (prog *Program) String() (text string) {
	for _, op := range prog.Opcodes {
		text += fmt.Sprintf("%03x: % -12x %v\n", op.Addr, op.Bytes, strings.Join(op.Words, " "))
	}

	return
}
