// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a single pass macro assembler for the CHIP-8 machine.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of jump labels to machine addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regOf returns the register index of a v0..vf word.
func regOf(word string) (reg uint8, ok bool) {
	if len(word) != 2 {
		return
	}

	word = strings.ToLower(word)
	if word[0] != 'v' {
		return
	}

	switch {
	case word[1] >= '0' && word[1] <= '9':
		reg = word[1] - '0'
	case word[1] >= 'a' && word[1] <= 'f':
		reg = word[1] - 'a' + 10
	default:
		return
	}

	ok = true

	return
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint16, err error) {
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) > 0 && word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(word[1 : len(word)-1])
		return
	}
	v64, err := strconv.ParseInt(word, 0, 17)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if v64 < 0 {
		value = uint16(0xffff + (v64 + 1))
	} else {
		value = uint16(v64)
	}

	if invert {
		value = ^value
	}

	return
}

// byteOf returns the value of a word, limited to a byte operand.
func (asm *Assembler) byteOf(word string) (value uint8, err error) {
	v16, err := asm.valueOf(word)
	if err != nil {
		return
	}
	if v16 > 0xff {
		err = ErrValueRange
		return
	}

	value = uint8(v16)

	return
}

// nibbleOf returns the value of a word, limited to a nibble operand.
func (asm *Assembler) nibbleOf(word string) (value uint8, err error) {
	v16, err := asm.valueOf(word)
	if err != nil {
		return
	}
	if v16 > 0xf {
		err = ErrValueRange
		return
	}

	value = uint8(v16)

	return
}

// addrOf resolves an address operand: either a numeric value, or a
// label reference to be patched in the final link pass.
func (asm *Assembler) addrOf(word string) (addr uint16, label string, err error) {
	addr, err = asm.valueOf(word)
	if err == nil {
		if addr > 0xfff {
			addr = 0
			err = ErrValueRange
		}
		return
	}

	var badNumber ErrParseNumber
	if !errors.As(err, &badNumber) {
		return
	}

	err = nil
	label = word

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint16, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value16 uint16
		value16, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(value16))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint16(st_int64)
	return
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	// Commas are word separators. Normalized after $() evaluation, so
	// expressions keep their argument commas.
	line = strings.ReplaceAll(line, ",", " ")

	words = slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if len(words) > 0 && strings.ToLower(words[0]) == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		if len(word) == 0 {
			continue
		}

		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddr()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]
		invocation := lineno

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			// Local @ labels are scoped to one expansion.
			line = strings.ReplaceAll(line, "@", fmt.Sprintf("%v_%v_", name, invocation))
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, macro.LineNo+n)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddr gets the machine address of the next emitted byte.
func (asm *Assembler) currentAddr() int {
	if len(asm.Opcode) == 0 {
		return PROGRAM_START
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Addr + len(last.Bytes)
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		all_words := strings.Split(line, " ")

		var words []string
		for _, single := range all_words {
			if len(single) > 0 {
				words = append(words, single)
			}
		}

		// .macro NAME arg...
		if len(words) > 0 && strings.ToLower(words[0]) == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && strings.ToLower(words[0]) == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			err = ErrLabelMissing(label)
			return
		}
		if len(op.Bytes) < 2 {
			log.Fatalf("Unable to link label '%s' to line %d: %v", label, op.LineNo, op.Words)
		}
		op.Bytes[0] |= uint8((addr >> 8) & 0xf)
		op.Bytes[1] |= uint8(addr & 0xff)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// aluN maps two-register operation names to their 8xyn selector.
var aluN = map[string]uint8{
	"or":   0x1,
	"and":  0x2,
	"xor":  0x3,
	"sub":  0x5,
	"subn": 0x7,
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var bytes []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if len(bytes) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Addr: asm.currentAddr(), Words: initial_words, Bytes: bytes, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	emit := func(code Code) {
		bytes = append(bytes, uint8(code>>8), uint8(code))
	}

	mnemonic := strings.ToLower(words[0])
	args := words[1:]

	switch mnemonic {
	case ".db":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, arg := range args {
			var value uint8
			value, err = asm.byteOf(arg)
			if err != nil {
				return
			}
			bytes = append(bytes, value)
		}
	case "cls":
		if len(args) != 0 {
			err = ErrOpcodeExtraArgs
			return
		}
		emit(0x00e0)
	case "ret":
		if len(args) != 0 {
			err = ErrOpcodeExtraArgs
			return
		}
		emit(0x00ee)
	case "sys", "call":
		if len(args) < 1 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		op := uint8(0x0)
		if mnemonic == "call" {
			op = 0x2
		}
		var addr uint16
		addr, label, err = asm.addrOf(args[0])
		if err != nil {
			return
		}
		emit(MakeCodeNnn(op, addr))
	case "jp":
		// jp nnn, or jp v0, nnn
		switch len(args) {
		case 1:
			var addr uint16
			addr, label, err = asm.addrOf(args[0])
			if err != nil {
				return
			}
			emit(MakeCodeNnn(0x1, addr))
		case 2:
			reg, ok := regOf(args[0])
			if !ok || reg != 0 {
				err = ErrRegisterInvalid
				return
			}
			var addr uint16
			addr, label, err = asm.addrOf(args[1])
			if err != nil {
				return
			}
			emit(MakeCodeNnn(0xb, addr))
		case 0:
			err = ErrOpcodeValueMissing
		default:
			err = ErrOpcodeExtraArgs
		}
	case "se", "sne":
		if len(args) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 2 {
			err = ErrOpcodeExtraArgs
			return
		}
		x, ok := regOf(args[0])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		imm := uint8(0x3)
		reg := uint8(0x5)
		if mnemonic == "sne" {
			imm, reg = 0x4, 0x9
		}
		y, ok := regOf(args[1])
		if ok {
			emit(MakeCode(reg, x, y, 0))
		} else {
			var nn uint8
			nn, err = asm.byteOf(args[1])
			if err != nil {
				return
			}
			emit(MakeCodeNn(imm, x, nn))
		}
	case "add":
		// add vx, nn, or add vx, vy, or add i, vx
		if len(args) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 2 {
			err = ErrOpcodeExtraArgs
			return
		}
		if strings.ToLower(args[0]) == "i" {
			x, ok := regOf(args[1])
			if !ok {
				err = ErrRegisterInvalid
				return
			}
			emit(MakeCodeNn(0xf, x, 0x1e))
			return
		}
		x, ok := regOf(args[0])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		y, ok := regOf(args[1])
		if ok {
			emit(MakeCode(0x8, x, y, 0x4))
		} else {
			var nn uint8
			nn, err = asm.byteOf(args[1])
			if err != nil {
				return
			}
			emit(MakeCodeNn(0x7, x, nn))
		}
	case "or", "and", "xor", "sub", "subn":
		if len(args) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 2 {
			err = ErrOpcodeExtraArgs
			return
		}
		x, ok := regOf(args[0])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		y, ok := regOf(args[1])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		emit(MakeCode(0x8, x, y, aluN[mnemonic]))
	case "shr", "shl":
		// shr vx, or shr vx, vy
		if len(args) < 1 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 2 {
			err = ErrOpcodeExtraArgs
			return
		}
		x, ok := regOf(args[0])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		var y uint8
		if len(args) == 2 {
			y, ok = regOf(args[1])
			if !ok {
				err = ErrRegisterInvalid
				return
			}
		}
		n := uint8(0x6)
		if mnemonic == "shl" {
			n = 0xe
		}
		emit(MakeCode(0x8, x, y, n))
	case "rnd":
		if len(args) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 2 {
			err = ErrOpcodeExtraArgs
			return
		}
		x, ok := regOf(args[0])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		var nn uint8
		nn, err = asm.byteOf(args[1])
		if err != nil {
			return
		}
		emit(MakeCodeNn(0xc, x, nn))
	case "drw":
		if len(args) < 3 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 3 {
			err = ErrOpcodeExtraArgs
			return
		}
		x, ok := regOf(args[0])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		y, ok := regOf(args[1])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		var n uint8
		n, err = asm.nibbleOf(args[2])
		if err != nil {
			return
		}
		emit(MakeCode(0xd, x, y, n))
	case "skp", "sknp":
		if len(args) < 1 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		x, ok := regOf(args[0])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		nn := uint8(0x9e)
		if mnemonic == "sknp" {
			nn = 0xa1
		}
		emit(MakeCodeNn(0xe, x, nn))
	case "ld":
		var code Code
		code, label, err = asm.parseLd(args)
		if err != nil {
			return
		}
		emit(code)
	default:
		err = ErrInstructionInvalid
		return
	}

	return
}

// parseLd decodes the many operand forms of the ld instruction.
func (asm *Assembler) parseLd(args []string) (code Code, label string, err error) {
	if len(args) < 2 {
		err = ErrOpcodeValueMissing
		return
	}
	if len(args) > 2 {
		err = ErrOpcodeExtraArgs
		return
	}

	dst := strings.ToLower(args[0])
	src := strings.ToLower(args[1])

	x, x_ok := regOf(args[0])
	y, y_ok := regOf(args[1])

	switch {
	case dst == "i":
		var addr uint16
		addr, label, err = asm.addrOf(args[1])
		if err != nil {
			return
		}
		code = MakeCodeNnn(0xa, addr)
	case dst == "dt":
		if !y_ok {
			err = ErrRegisterInvalid
			return
		}
		code = MakeCodeNn(0xf, y, 0x15)
	case dst == "st":
		if !y_ok {
			err = ErrRegisterInvalid
			return
		}
		code = MakeCodeNn(0xf, y, 0x18)
	case dst == "f":
		if !y_ok {
			err = ErrRegisterInvalid
			return
		}
		code = MakeCodeNn(0xf, y, 0x29)
	case dst == "b":
		if !y_ok {
			err = ErrRegisterInvalid
			return
		}
		code = MakeCodeNn(0xf, y, 0x33)
	case dst == "[i]":
		if !y_ok {
			err = ErrRegisterInvalid
			return
		}
		code = MakeCodeNn(0xf, y, 0x55)
	case !x_ok:
		err = ErrTargetInvalid
	case src == "dt":
		code = MakeCodeNn(0xf, x, 0x07)
	case src == "k":
		code = MakeCodeNn(0xf, x, 0x0a)
	case src == "[i]":
		code = MakeCodeNn(0xf, x, 0x65)
	case y_ok:
		code = MakeCode(0x8, x, y, 0x0)
	default:
		var nn uint8
		nn, err = asm.byteOf(args[1])
		if err != nil {
			return
		}
		code = MakeCodeNn(0x6, x, nn)
	}

	return
}
