package vm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Addr: 0x200, Words: []string{"ld", "v0", "0x10"},
				Bytes: []byte{0x60, 0x10}},
			{LineNo: 2, Addr: 0x202, Words: []string{"ld", "v1", "0x20"},
				Bytes: []byte{0x61, 0x20}},
			{LineNo: 3, Addr: 0x204, Words: []string{"add", "v0", "v1"},
				Bytes: []byte{0x80, 0x14}},
		},
	}

	dbg := prog.Debug(0x200)
	assert.NotNil(dbg.Opcode)
	assert.Equal(1, dbg.Opcode.LineNo)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(0x203)
	assert.NotNil(dbg.Opcode)
	assert.Equal(2, dbg.Opcode.LineNo)
	assert.Equal(1, dbg.Index)

	dbg = prog.Debug(0x204)
	assert.NotNil(dbg.Opcode)
	assert.Equal(3, dbg.Opcode.LineNo)
	assert.Equal(0, dbg.Index)
}

func TestProgram_Debug_NotFound(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Addr: 0x200, Words: []string{"ld", "v0", "0x10"},
				Bytes: []byte{0x60, 0x10}},
		},
	}

	dbg := prog.Debug(0x1ff)
	assert.Nil(dbg.Opcode)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(0x202)
	assert.Nil(dbg.Opcode)
	assert.Equal(0, dbg.Index)
}

func TestProgram_Debug_DbRun(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Addr: 0x200, Words: []string{".db", "0xf0", "0x90", "0xf0"},
				Bytes: []byte{0xf0, 0x90, 0xf0}},
			{LineNo: 2, Addr: 0x203, Words: []string{"ld", "v0", "0x10"},
				Bytes: []byte{0x60, 0x10}},
		},
	}

	dbg := prog.Debug(0x200)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(0x201)
	assert.Equal(1, dbg.Index)

	dbg = prog.Debug(0x202)
	assert.Equal(2, dbg.Index)

	dbg = prog.Debug(0x203)
	assert.Equal(2, dbg.Opcode.LineNo)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(0x205)
	assert.Nil(dbg.Opcode)
}

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Addr: 0x200, Words: []string{"ld", "v0", "0x10"},
				Bytes: []byte{0x60, 0x10}},
			{LineNo: 2, Addr: 0x202, Words: []string{".db", "0xaa"},
				Bytes: []byte{0xaa}},
			{LineNo: 3, Addr: 0x203, Words: []string{"ld", "v1", "0x20"},
				Bytes: []byte{0x61, 0x20}},
		},
	}

	bin := prog.Binary()
	assert.Equal([]byte{0x60, 0x10, 0xaa, 0x61, 0x20}, bin)
}

func TestProgram_Codes(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Addr: 0x200, Words: []string{"ld", "v0", "0x10"},
				Bytes: []byte{0x60, 0x10}},
			{LineNo: 2, Addr: 0x202, Words: []string{"ld", "v1", "0x20"},
				Bytes: []byte{0x61, 0x20}},
			{LineNo: 3, Addr: 0x204, Words: []string{"add", "v0", "v1"},
				Bytes: []byte{0x80, 0x14}},
		},
	}

	addrs := []uint16{}
	codes := []Code{}
	for addr, code := range prog.Codes() {
		addrs = append(addrs, addr)
		codes = append(codes, code)
	}

	assert.Equal([]uint16{0x200, 0x202, 0x204}, addrs)
	assert.Equal([]Code{0x6010, 0x6120, 0x8014}, codes)
}

func TestProgram_Codes_OddTail(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Addr: 0x200, Words: []string{".db", "0xf0", "0x90", "0xf0"},
				Bytes: []byte{0xf0, 0x90, 0xf0}},
			{LineNo: 2, Addr: 0x203, Words: []string{"ld", "v0", "0x12"},
				Bytes: []byte{0x60, 0x12}},
		},
	}

	addrs := []uint16{}
	codes := []Code{}
	for addr, code := range prog.Codes() {
		addrs = append(addrs, addr)
		codes = append(codes, code)
	}

	// The odd trailing byte pads to a full word.
	assert.Equal([]uint16{0x200, 0x202, 0x203}, addrs)
	assert.Equal([]Code{0xf090, 0xf000, 0x6012}, codes)
}

func TestProgram_Codes_EarlyReturn(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Addr: 0x200, Words: []string{"ld", "v0", "0x10"},
				Bytes: []byte{0x60, 0x10}},
			{LineNo: 2, Addr: 0x202, Words: []string{"ld", "v1", "0x20"},
				Bytes: []byte{0x61, 0x20}},
		},
	}

	count := 0
	for range prog.Codes() {
		count++
		if count == 1 {
			break
		}
	}

	assert.Equal(1, count)
}

func TestProgram_Codes_Empty(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{},
	}

	count := 0
	for range prog.Codes() {
		count++
	}

	assert.Equal(0, count)
}

func TestProgram_String(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Addr: 0x200, Words: []string{"ld", "v0", "0x10"},
				Bytes: []byte{0x60, 0x10}},
			{LineNo: 2, Addr: 0x202, Words: []string{"jp", "loop"},
				Bytes: []byte{0x12, 0x00}, LinkLabel: "loop"},
		},
	}

	listing := prog.String()
	assert.Contains(listing, "200:")
	assert.Contains(listing, "ld v0 0x10")
	assert.Contains(listing, "202:")
	assert.Contains(listing, "jp loop")
}

func TestProgram_Integration_ParseAndDebug(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := strings.Join([]string{
		"table: .db 0x01, 0x02, 0x03",
		"ld v0, 0x10",
		"jp 0x200",
	}, "\n")

	prog, err := asm.Parse(strings.NewReader(program))
	assert.NoError(err)

	dbg := prog.Debug(0x201)
	assert.NotNil(dbg.Opcode)
	assert.Equal(1, dbg.Opcode.LineNo)
	assert.Equal(1, dbg.Index)

	dbg = prog.Debug(0x203)
	assert.NotNil(dbg.Opcode)
	assert.Equal(2, dbg.Opcode.LineNo)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(0x206)
	assert.NotNil(dbg.Opcode)
	assert.Equal(3, dbg.Opcode.LineNo)

	dbg = prog.Debug(0x208)
	assert.Nil(dbg.Opcode)
}
