// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fmc2-shell provides an interactive shell to drive the FMC2 EBI
// controller: load a bank configuration, apply it, inspect the registers
// and exercise suspend/resume.
package main // import "github.com/go-fmc/fmc2/cmd/fmc2-shell"

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/go-fmc/fmc2/ebi"
)

func main() {
	var (
		devmem = flag.String("dev-mem", "/dev/mem", "memory device to mmap")
		base   = flag.Int64("base", 0x58002000, "base address of the FMC2 register block")
		rate   = flag.Uint64("clk", 100000000, "FMC2 bus clock rate (Hz)")
	)

	log.SetPrefix("fmc2-shell: ")
	log.SetFlags(0)

	flag.Parse()

	err := run(*devmem, *base, *rate)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(devmem string, base int64, rate uint64) error {
	term := liner.NewLiner()
	defer term.Close()
	term.SetCtrlCAborts(true)

	sh := shell{
		devmem: devmem,
		base:   base,
		rate:   rate,
	}
	defer sh.close()

	for {
		line, err := term.Prompt("fmc2>> ")
		switch {
		case err == io.EOF || err == liner.ErrPromptAborted:
			fmt.Println()
			return nil
		case err != nil:
			return fmt.Errorf("could not read line: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		term.AppendHistory(line)

		quit, err := sh.exec(line)
		if err != nil {
			log.Printf("%+v", err)
		}
		if quit {
			return nil
		}
	}
}

type shell struct {
	devmem string
	base   int64
	rate   uint64

	cfg *ebi.Config
	ctl *ebi.Controller
}

func (sh *shell) exec(line string) (bool, error) {
	args := strings.Fields(line)
	switch args[0] {
	case "help":
		fmt.Print(`commands:
  load <file>   load a JSON bank configuration
  configure     apply the loaded configuration
  dump          dump the chip-select registers
  suspend       power the controller down
  resume        restore the configuration and power up
  remove        tear the configuration down
  quit          exit the shell
`)
		return false, nil

	case "load":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: load <file>")
		}
		cfg, err := ebi.LoadConfig(args[1])
		if err != nil {
			return false, err
		}
		sh.cfg = cfg
		fmt.Printf("loaded %d bank(s)\n", len(cfg.Banks))
		return false, nil

	case "configure":
		if sh.cfg == nil {
			return false, fmt.Errorf("no configuration loaded")
		}
		if sh.ctl == nil {
			clk := ebi.ClockFunc(func() uint64 { return sh.rate })
			ctl, err := ebi.Open(sh.devmem, sh.base, clk, new(ebi.Shared))
			if err != nil {
				return false, err
			}
			sh.ctl = ctl
		}
		return false, sh.ctl.Configure(sh.cfg)

	case "dump":
		if sh.ctl == nil {
			return false, fmt.Errorf("controller not configured")
		}
		return false, sh.ctl.DumpRegisters(os.Stdout)

	case "suspend":
		if sh.ctl == nil {
			return false, fmt.Errorf("controller not configured")
		}
		return false, sh.ctl.Suspend()

	case "resume":
		if sh.ctl == nil {
			return false, fmt.Errorf("controller not configured")
		}
		return false, sh.ctl.Resume()

	case "remove":
		if sh.ctl == nil {
			return false, fmt.Errorf("controller not configured")
		}
		sh.ctl.Remove()
		return false, nil

	case "quit", "exit":
		return true, nil
	}
	return false, fmt.Errorf("unknown command %q (try \"help\")", args[0])
}

func (sh *shell) close() {
	if sh.ctl == nil {
		return
	}
	err := sh.ctl.Close()
	if err != nil {
		log.Printf("could not close controller: %+v", err)
	}
	sh.ctl = nil
}
