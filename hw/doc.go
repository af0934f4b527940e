// Package hw provides hardware adapters for the CHIP-8 machine.
//
// Term drives an ANSI terminal as the front panel, with the video
// surface painted in cells and the hex keypad mapped onto the left
// hand of a QWERTY layout. Headless runs the machine with a synthetic
// clock and a seeded random source for repeatable batch runs.
package hw
