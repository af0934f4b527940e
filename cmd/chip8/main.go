// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ezrec/chip8/hw"
	"github.com/ezrec/chip8/vm"
)

func main() {
	var compile string
	var output string
	var save bool
	var logfile string
	var hz uint
	var headless bool
	var steps uint
	var seed uint64
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file to assemble")
	flag.StringVar(&output, "o", "", "File to write the assembled ROM to")
	flag.BoolVar(&save, "s", false, "Assemble only, do not execute")
	flag.StringVar(&logfile, "log", "", "File to send log output to")
	flag.UintVar(&hz, "hz", hw.DEFAULT_HZ, "Machine steps per second")
	flag.BoolVar(&headless, "headless", false, "Run without a terminal display")
	flag.UintVar(&steps, "steps", 0, "Step budget for headless runs, 0 for unlimited")
	flag.Uint64Var(&seed, "seed", 0, "Random seed for headless runs")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() > 1 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args()[1:])
	}

	if len(logfile) != 0 {
		lf, err := os.Create(logfile)
		if err != nil {
			log.Fatalf("%v: %v", logfile, err)
		}
		defer lf.Close()
		log.SetOutput(lf)
	}

	var rom []byte
	prog := &vm.Program{}

	// Assemble a new ROM.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &vm.Assembler{Verbose: verbose}
		for name, value := range vm.Defines() {
			asm.Predefine(name, value)
		}

		prog, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		if verbose {
			log.Printf("listing:\n%v", prog)
		}

		rom = prog.Binary()
	} else if flag.NArg() == 1 {
		var err error
		rom, err = os.ReadFile(flag.Arg(0))
		if err != nil {
			log.Fatalf("%v: %v", flag.Arg(0), err)
		}
	} else {
		log.Fatalf("%v: no program; name a ROM file or assemble one with -c", os.Args[0])
	}

	if len(rom) > vm.PROGRAM_LIMIT {
		log.Fatalf("%v: %v", os.Args[0], vm.ErrProgramTooLarge)
	}

	if len(output) != 0 {
		err := os.WriteFile(output, rom, 0o666)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
	}

	if save {
		return
	}

	if hz == 0 {
		hz = hw.DEFAULT_HZ
	}

	var machine *vm.Vm
	var term *hw.Term
	var err error

	if headless {
		machine = vm.NewVm(&hw.Headless{
			Seed:      seed,
			ClockStep: uint64(time.Second) / uint64(hz),
			Limit:     steps,
		})
	} else {
		term, err = hw.NewTerm()
		if err != nil {
			log.Fatalf("%v: %v", os.Args[0], err)
		}
		term.Hz = hz
		machine = vm.NewVm(term)
	}

	machine.Verbose = verbose

	err = machine.Run(rom)

	if term != nil {
		// Restore the terminal before reporting anything.
		term.Close()
	}

	if err != nil {
		log.Printf("%v", err)

		var bad vm.ErrOpcode
		if errors.As(err, &bad) {
			dbg := prog.Debug(bad.Addr)
			if dbg.Opcode != nil {
				log.Printf("%v:%d: %v", compile, dbg.LineNo, strings.Join(dbg.Words, " "))
			}
		}

		log.Printf("%v", machine)
		os.Exit(1)
	}
}
