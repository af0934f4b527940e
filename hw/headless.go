package hw

import (
	"math/rand/v2"

	"github.com/ezrec/chip8/vm"
)

// Headless runs the machine without a terminal. The clock is synthetic
// and the random source is seeded, so a run with the same seed, clock
// step, and program replays identically.
type Headless struct {
	Seed      uint64 // Seed for the random source.
	ClockStep uint64 // Nanoseconds the clock advances per step.
	Limit     uint   // Step budget. Zero runs without a limit.

	Keys  [16]bool // Currently held keys.
	Steps uint     // Machine steps taken so far.
	Beeps uint     // Beeps requested so far.

	rng    *rand.Rand
	clock  uint64
	width  uint8
	height uint8
	pixels []bool
}

var _ vm.Hardware = (*Headless)(nil)

func (hl *Headless) Rand() uint8 {
	if hl.rng == nil {
		hl.rng = rand.New(rand.NewPCG(hl.Seed, hl.Seed))
	}
	return uint8(hl.rng.UintN(256))
}

func (hl *Headless) Key(key uint8) bool {
	return hl.Keys[key&0xf]
}

func (hl *Headless) SetPixel(x, y uint8, on bool) {
	if x >= hl.width || y >= hl.height {
		return
	}
	hl.pixels[int(y)*int(hl.width)+int(x)] = on
}

func (hl *Headless) Pixel(x, y uint8) bool {
	if x >= hl.width || y >= hl.height {
		return false
	}
	return hl.pixels[int(y)*int(hl.width)+int(x)]
}

func (hl *Headless) SetVideoSize(width, height uint8) {
	hl.width = width
	hl.height = height
	hl.pixels = make([]bool, int(width)*int(height))
}

func (hl *Headless) VideoSize() (width, height uint8) {
	return hl.width, hl.height
}

func (hl *Headless) Clock() uint64 {
	return hl.clock
}

func (hl *Headless) Beep() {
	hl.Beeps++
}

func (hl *Headless) Step() bool {
	hl.Steps++
	hl.clock += hl.ClockStep

	return hl.Limit > 0 && hl.Steps >= hl.Limit
}
