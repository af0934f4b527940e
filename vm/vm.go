package vm

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/chip8/internal"
)

// Machine geometry and timing constants.
const (
	MEMORY_SIZE   = 4096                        // Bytes of addressable memory.
	PROGRAM_START = 0x200                       // Load address for program images.
	PROGRAM_LIMIT = MEMORY_SIZE - PROGRAM_START // Largest loadable program image.
	VIDEO_WIDTH   = 64                          // Video surface width in pixels.
	VIDEO_HEIGHT  = 32                          // Video surface height in pixels.
	TIMER_PERIOD  = uint64(1000_000_000 / 60)   // Nanoseconds per timer tick.
)

var _vm_defines = map[string]string{
	"MEMORY_SIZE":   fmt.Sprintf("0x%x", MEMORY_SIZE),
	"PROGRAM_START": fmt.Sprintf("0x%x", PROGRAM_START),
	"PROGRAM_LIMIT": fmt.Sprintf("0x%x", PROGRAM_LIMIT),
	"VIDEO_WIDTH":   fmt.Sprintf("0x%x", VIDEO_WIDTH),
	"VIDEO_HEIGHT":  fmt.Sprintf("0x%x", VIDEO_HEIGHT),
}

// Defines for the machine, usable as assembler predefines.
func Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_vm_defines), maps.All(_font_defines))
}

// Vm is the simulation context for the CHIP-8 machine.
type Vm struct {
	Verbose bool // Set to enable verbose logging.

	V      [16]uint8          // General registers; vf doubles as the flag.
	I      uint16             // Index register.
	Pc     uint16             // Program counter.
	Dt     uint8              // Delay timer.
	St     uint8              // Sound timer.
	Stack  Stack              // Call stack.
	Memory [MEMORY_SIZE]uint8 // Main memory.

	hw      Hardware
	running bool
	time    uint64 // Clock reading at the previous timer tick.
	timeSet bool
}

// NewVm creates a new machine attached to the given hardware.
func NewVm(hw Hardware) (vm *Vm) {
	vm = &Vm{hw: hw}

	return
}

// Reset the machine state.
// - Clears the registers, timers, stack, and memory.
// - Loads the font at FONT_START.
// - Establishes the video surface.
// - Sets the program counter to PROGRAM_START.
func (vm *Vm) Reset() {
	if vm.Verbose {
		log.Printf("vm: reset")
	}

	clear(vm.V[:])
	vm.I = 0
	vm.Dt = 0
	vm.St = 0
	vm.Stack.Reset()
	clear(vm.Memory[:])
	vm.time = 0
	vm.timeSet = false

	copy(vm.Memory[FONT_START:], fontSprites[:])
	vm.hw.SetVideoSize(VIDEO_WIDTH, VIDEO_HEIGHT)
	vm.Pc = PROGRAM_START

	vm.running = true
}

// Load copies a program image to PROGRAM_START. Images longer than
// PROGRAM_LIMIT are truncated to fit.
func (vm *Vm) Load(program []byte) {
	copy(vm.Memory[PROGRAM_START:], program)
}

// Run resets the machine, loads the program image, and evaluates
// instructions until the hardware requests shutdown or an instruction
// is refused.
func (vm *Vm) Run(program []byte) (err error) {
	vm.Reset()
	vm.Load(program)

	for vm.running {
		err = vm.Tick()
		if err != nil {
			return
		}
	}

	return
}

// Tick runs a single scheduling step and instruction cycle.
func (vm *Vm) Tick() (err error) {
	vm.sched()

	err = vm.eval()
	if err != nil {
		return
	}

	vm.next()

	return
}

// jump sets the program counter directly.
func (vm *Vm) jump(pc uint16) {
	vm.Pc = pc
}

// next advances the program counter past the current instruction.
func (vm *Vm) next() {
	vm.jump(vm.Pc + 2)
}

func (vm *Vm) shutdown() {
	if vm.Verbose {
		log.Printf("vm: shutdown")
	}

	vm.running = false
}

// sched runs one scheduling step: hardware pacing, then the 60 Hz
// timer tick. The timers tick at most once per step; a long gap
// between steps is never batched into multiple ticks.
func (vm *Vm) sched() {
	if vm.hw.Step() {
		vm.shutdown()
	}

	now := vm.hw.Clock()
	if !vm.timeSet {
		vm.time = now
		vm.timeSet = true
		return
	}

	if now-vm.time >= TIMER_PERIOD {
		vm.tick()
		vm.time = now
	}
}

// tick decrements the countdown timers. The beep fires when the sound
// timer decrements to exactly zero.
func (vm *Vm) tick() {
	if vm.Dt > 0 {
		vm.Dt--
	}

	if vm.St > 0 {
		vm.St--
		if vm.St == 0 {
			vm.hw.Beep()
		}
	}
}

// waitkey polls for a held key, lowest key first, while the timers
// keep running. Keys 0x0 through 0xe are scanned; 0xf is not. Returns
// the space character if shutdown is requested while waiting.
func (vm *Vm) waitkey() (key uint8) {
	for vm.running {
		vm.sched()

		for key = 0; key < 0xf; key++ {
			if vm.hw.Key(key) {
				return
			}
		}
	}

	return ' '
}

// String returns the current machine state as a string.
func (vm *Vm) String() (text string) {
	for n := range vm.V {
		text += fmt.Sprintf("  v%x: 0x%02x\n", n, vm.V[n])
	}
	text += fmt.Sprintf("   i: 0x%04x\n", vm.I)
	text += fmt.Sprintf("  pc: 0x%04x\n", vm.Pc)
	text += fmt.Sprintf("  dt: 0x%02x\n", vm.Dt)
	text += fmt.Sprintf("  st: 0x%02x\n", vm.St)
	text += fmt.Sprintf("  sp: 0x%02x top: 0x%04x\n", vm.Stack.Sp, vm.Stack.Peek())

	return
}
