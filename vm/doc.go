// Package vm implements the virtual machine and assembler for the CHIP-8
// fantasy computer.
//
// The machine consists of 4096 bytes of memory, sixteen 8-bit registers
// (v0-vf, with vf doubling as the arithmetic flag), a 16-bit index register
// (i), a 16-entry call stack, and two countdown timers ticking at 60 Hz.
// Video, keyboard, sound, randomness, and pacing are supplied by a Hardware
// implementation; the interpreter itself owns no platform state.
//
// The assembler provides an assembly language for the CHIP-8 instruction set,
// supporting macros, labels, equates, and compile-time expression evaluation.
package vm
