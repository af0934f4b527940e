// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package hw

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ezrec/chip8/vm"
)

const (
	DEFAULT_HZ   = 1000                   // Default machine step rate, in steps per second.
	KEY_HOLD     = 100 * time.Millisecond // How long a received key press stays held.
	FRAME_PERIOD = time.Second / 60       // Terminal repaint period.
)

// COSMAC VIP hex pad, mapped onto the left hand of a QWERTY layout.
var termKeys = map[byte]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
	'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
}

// Term is a terminal front panel. It owns the video surface, polls the
// keyboard, paces the machine, and repaints at most once per frame.
//
// A raw terminal only reports key presses, never releases, so each
// press holds its key for KEY_HOLD before it decays.
type Term struct {
	Hz uint // Machine steps per second. Zero selects DEFAULT_HZ.

	in      *os.File
	out     *os.File
	restore *unix.Termios
	start   time.Time
	held    [16]time.Time // Expiry time of each held key.

	width   uint8
	height  uint8
	pixels  []bool
	dirty   bool
	painted time.Time

	shutdown bool
}

var _ vm.Hardware = (*Term)(nil)

// NewTerm puts the controlling terminal into raw mode and takes over
// the display. Close restores it.
func NewTerm() (term *Term, err error) {
	term = &Term{
		Hz:    DEFAULT_HZ,
		in:    os.Stdin,
		out:   os.Stdout,
		start: time.Now(),
	}

	termios, err := unix.IoctlGetTermios(int(term.in.Fd()), unix.TCGETS)
	if err != nil {
		return
	}

	saved := *termios
	term.restore = &saved

	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = 0

	err = unix.IoctlSetTermios(int(term.in.Fd()), unix.TCSETS, termios)
	if err != nil {
		return
	}

	fmt.Fprint(term.out, "\033[2J\033[?25l")

	return
}

// Close restores the terminal state and cursor.
func (term *Term) Close() (err error) {
	fmt.Fprint(term.out, "\033[?25h\033[2J\033[H")

	if term.restore != nil {
		err = unix.IoctlSetTermios(int(term.in.Fd()), unix.TCSETS, term.restore)
		term.restore = nil
	}

	return
}

// pump drains any pending keyboard bytes. Esc or Ctrl-C request
// shutdown; pad keys are held until their expiry.
func (term *Term) pump() {
	var buf [16]byte

	for {
		n, err := unix.Read(int(term.in.Fd()), buf[:])
		if err != nil || n <= 0 {
			return
		}

		deadline := time.Now().Add(KEY_HOLD)
		for _, ch := range buf[:n] {
			if ch == 0x1b || ch == 0x03 {
				term.shutdown = true
				continue
			}
			if ch >= 'A' && ch <= 'Z' {
				ch |= 0x20
			}
			key, ok := termKeys[ch]
			if ok {
				term.held[key] = deadline
			}
		}
	}
}

// paint redraws the whole surface from the home position. Two cells
// per pixel keeps the aspect ratio near square.
func (term *Term) paint() {
	var sb strings.Builder

	sb.WriteString("\033[H")
	for y := uint8(0); y < term.height; y++ {
		for x := uint8(0); x < term.width; x++ {
			if term.pixels[int(y)*int(term.width)+int(x)] {
				sb.WriteString("██")
			} else {
				sb.WriteString("  ")
			}
		}
		sb.WriteString("\r\n")
	}

	fmt.Fprint(term.out, sb.String())
}

func (term *Term) Rand() uint8 {
	return uint8(rand.UintN(256))
}

func (term *Term) Key(key uint8) bool {
	return time.Now().Before(term.held[key&0xf])
}

func (term *Term) SetPixel(x, y uint8, on bool) {
	if x >= term.width || y >= term.height {
		return
	}
	term.pixels[int(y)*int(term.width)+int(x)] = on
	term.dirty = true
}

func (term *Term) Pixel(x, y uint8) bool {
	if x >= term.width || y >= term.height {
		return false
	}
	return term.pixels[int(y)*int(term.width)+int(x)]
}

func (term *Term) SetVideoSize(width, height uint8) {
	term.width = width
	term.height = height
	term.pixels = make([]bool, int(width)*int(height))
	term.dirty = true
}

func (term *Term) VideoSize() (width, height uint8) {
	return term.width, term.height
}

func (term *Term) Clock() uint64 {
	return uint64(time.Since(term.start))
}

func (term *Term) Beep() {
	fmt.Fprint(term.out, "\a")
}

func (term *Term) Step() bool {
	hz := term.Hz
	if hz == 0 {
		hz = DEFAULT_HZ
	}
	time.Sleep(time.Second / time.Duration(hz))

	term.pump()

	now := time.Now()
	if term.dirty && now.Sub(term.painted) >= FRAME_PERIOD {
		term.paint()
		term.painted = now
		term.dirty = false
	}

	return term.shutdown
}
