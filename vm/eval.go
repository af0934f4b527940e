package vm

import (
	"errors"
	"log"
)

// flag converts a comparison result to a vf register value.
func flag(set bool) (value uint8) {
	if set {
		value = 1
	}

	return
}

// eval fetches, decodes, and executes the instruction at the program
// counter. All memory indexes wrap modulo MEMORY_SIZE. Control flow
// accounts for the unconditional advance in Tick: jumps land two bytes
// short of their target, and skips advance here.
func (vm *Vm) eval() (err error) {
	addr := vm.Pc & (MEMORY_SIZE - 1)
	hi := uint16(vm.Memory[addr])
	lo := uint16(vm.Memory[(vm.Pc+1)&(MEMORY_SIZE-1)])
	code := Code(hi<<8 | lo)

	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode{Addr: addr, Code: code}, err)
		}
	}()

	if vm.Verbose {
		log.Printf("%03x: %v", addr, code)
	}

	x := code.X()
	y := code.Y()
	n := code.N()
	nn := code.Nn()
	nnn := code.Nnn()

	switch code.Op() {
	case 0x0:
		switch code {
		case 0x00e0: // cls
			width, height := vm.hw.VideoSize()
			for py := uint8(0); py < height; py++ {
				for px := uint8(0); px < width; px++ {
					vm.hw.SetPixel(px, py, false)
				}
			}
		case 0x00ee: // ret
			vm.jump(vm.Stack.Pop())
		default: // sys nnn
			err = ErrOpcodeSys
		}
	case 0x1: // jp nnn
		vm.jump(nnn - 2)
	case 0x2: // call nnn
		vm.Stack.Push(vm.Pc)
		vm.jump(nnn - 2)
	case 0x3: // se vx, nn
		if vm.V[x] == nn {
			vm.next()
		}
	case 0x4: // sne vx, nn
		if vm.V[x] != nn {
			vm.next()
		}
	case 0x5: // se vx, vy
		if n != 0 {
			err = ErrOpcodeDecode
			return
		}
		if vm.V[x] == vm.V[y] {
			vm.next()
		}
	case 0x6: // ld vx, nn
		vm.V[x] = nn
	case 0x7: // add vx, nn
		vm.V[x] += nn
	case 0x8:
		err = vm.alu(code)
	case 0x9: // sne vx, vy
		if n != 0 {
			err = ErrOpcodeDecode
			return
		}
		if vm.V[x] != vm.V[y] {
			vm.next()
		}
	case 0xa: // ld i, nnn
		vm.I = nnn
	case 0xb: // jp v0, nnn
		vm.jump(nnn + uint16(vm.V[0]) - 2)
	case 0xc: // rnd vx, nn
		vm.V[x] = vm.hw.Rand() & nn
	case 0xd: // drw vx, vy, n
		vm.draw(vm.V[x], vm.V[y], n)
	case 0xe:
		switch nn {
		case 0x9e: // skp vx
			if vm.hw.Key(vm.V[x] & 0xf) {
				vm.next()
			}
		case 0xa1: // sknp vx
			if !vm.hw.Key(vm.V[x] & 0xf) {
				vm.next()
			}
		default:
			err = ErrOpcodeDecode
		}
	case 0xf:
		switch nn {
		case 0x07: // ld vx, dt
			vm.V[x] = vm.Dt
		case 0x0a: // ld vx, k
			vm.V[x] = vm.waitkey()
		case 0x15: // ld dt, vx
			vm.Dt = vm.V[x]
		case 0x18: // ld st, vx
			vm.St = vm.V[x]
		case 0x1e: // add i, vx
			vm.I += uint16(vm.V[x])
		case 0x29: // ld f, vx
			vm.I = FONT_START + uint16(vm.V[x])*FONT_GLYPH_SIZE
		case 0x33: // ld b, vx
			bcd := vm.V[x]
			vm.Memory[vm.I&(MEMORY_SIZE-1)] = bcd / 100 % 10
			vm.Memory[(vm.I+1)&(MEMORY_SIZE-1)] = bcd / 10 % 10
			vm.Memory[(vm.I+2)&(MEMORY_SIZE-1)] = bcd % 10
		case 0x55: // ld [i], vx
			for r := uint16(0); r <= uint16(x); r++ {
				vm.Memory[(vm.I+r)&(MEMORY_SIZE-1)] = vm.V[r]
			}
		case 0x65: // ld vx, [i]
			for r := uint16(0); r <= uint16(x); r++ {
				vm.V[r] = vm.Memory[(vm.I+r)&(MEMORY_SIZE-1)]
			}
		default:
			err = ErrOpcodeDecode
		}
	default:
		err = ErrOpcodeDecode
	}

	return
}

// alu executes the 8xyn register operation family. The arithmetic
// operations write the result before the flag; the shifts write the
// flag before the result. Both orders are observable when vf is the
// destination.
func (vm *Vm) alu(code Code) (err error) {
	x := code.X()
	y := code.Y()

	switch code.N() {
	case 0x0: // ld vx, vy
		vm.V[x] = vm.V[y]
	case 0x1: // or vx, vy
		vm.V[x] |= vm.V[y]
	case 0x2: // and vx, vy
		vm.V[x] &= vm.V[y]
	case 0x3: // xor vx, vy
		vm.V[x] ^= vm.V[y]
	case 0x4: // add vx, vy
		sum := uint16(vm.V[x]) + uint16(vm.V[y])
		vm.V[x] = uint8(sum)
		vm.V[0xf] = uint8(sum >> 8)
	case 0x5: // sub vx, vy
		borrow := vm.V[y] > vm.V[x]
		vm.V[x] -= vm.V[y]
		vm.V[0xf] = flag(!borrow)
	case 0x6: // shr vx
		vm.V[0xf] = vm.V[x] & 1
		vm.V[x] >>= 1
	case 0x7: // subn vx, vy
		borrow := vm.V[x] > vm.V[y]
		vm.V[x] = vm.V[y] - vm.V[x]
		vm.V[0xf] = flag(!borrow)
	case 0xe: // shl vx
		vm.V[0xf] = vm.V[x] >> 7
		vm.V[x] <<= 1
	default:
		err = ErrOpcodeDecode
	}

	return
}

// draw blits an n-row sprite at memory index i to the video surface.
// Pixels are XORed on, coordinates wrap at the surface edges, and vf
// reports whether any lit pixel was erased.
func (vm *Vm) draw(basex, basey, n uint8) {
	width, height := vm.hw.VideoSize()

	vm.V[0xf] = 0
	for row := uint16(0); row < uint16(n); row++ {
		bits := vm.Memory[(vm.I+row)&(MEMORY_SIZE-1)]
		py := uint8((uint16(basey) + row) % uint16(height))

		for col := uint16(0); col < 8; col++ {
			px := uint8((uint16(basex) + col) % uint16(width))
			src := bits&(1<<(7-col)) != 0
			dst := vm.hw.Pixel(px, py)

			if src && dst {
				vm.V[0xf] = 1
			}
			vm.hw.SetPixel(px, py, src != dst)
		}
	}
}
