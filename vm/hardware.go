package vm

// Hardware defines the platform capabilities the machine requires.
// One implementation backs one machine, and every call arrives on the
// goroutine that called Run.
type Hardware interface {
	// Rand returns a uniformly distributed random byte.
	Rand() uint8
	// Key reports whether the hex key 0x0..0xf is currently held.
	Key(key uint8) bool
	// SetPixel writes a single pixel of the video surface.
	SetPixel(x, y uint8, on bool)
	// Pixel reads a single pixel of the video surface.
	Pixel(x, y uint8) bool
	// SetVideoSize establishes the video surface, clearing it.
	SetVideoSize(width, height uint8)
	// VideoSize returns the established video surface size.
	VideoSize() (width, height uint8)
	// Clock returns a monotonic clock reading in nanoseconds.
	Clock() uint64
	// Beep plays the machine beep.
	Beep()
	// Step paces the machine, once per scheduling step. The adapter may
	// present a frame, pump input, and sleep here. Returns true to
	// request shutdown.
	Step() bool
}
