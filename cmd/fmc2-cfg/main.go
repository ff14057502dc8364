// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fmc2-cfg applies a bank configuration to the FMC2 EBI
// controller. The configuration comes either from a JSON file or from
// the boards database, using the board identifier stored in the carrier
// EEPROM.
package main // import "github.com/go-fmc/fmc2/cmd/fmc2-cfg"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-fmc/fmc2/cfgdb"
	"github.com/go-fmc/fmc2/ebi"
	"github.com/go-fmc/fmc2/eeprom"
)

func main() {
	var (
		cfgFile = flag.String("cfg", "", "path to the JSON bank configuration")
		dbName  = flag.String("db", "", "boards database to fetch the profile from")
		devmem  = flag.String("dev-mem", "/dev/mem", "memory device to mmap")
		base    = flag.Int64("base", 0x58002000, "base address of the FMC2 register block")
		rate    = flag.Uint64("clk", 100000000, "FMC2 bus clock rate (Hz)")
		i2cBus  = flag.Int("i2c-bus", 0, "SMBus of the identification EEPROM")
		i2cAddr = flag.Int("i2c-addr", 0x50, "SMBus address of the identification EEPROM")
		dump    = flag.Bool("dump", false, "dump the chip-select registers after configuration")
	)

	log.SetPrefix("fmc2-cfg: ")
	log.SetFlags(0)

	flag.Parse()

	if *cfgFile == "" && *dbName == "" {
		flag.Usage()
		log.Fatalf("missing configuration source (-cfg or -db)")
	}

	err := run(*cfgFile, *dbName, *devmem, *base, *rate, *i2cBus, *i2cAddr, *dump)
	if err != nil {
		log.Fatalf("could not configure FMC2 EBI: %+v", err)
	}
}

func run(cfgFile, dbName, devmem string, base int64, rate uint64, i2cBus, i2cAddr int, dump bool) error {
	cfg, err := loadConfig(cfgFile, dbName, i2cBus, i2cAddr)
	if err != nil {
		return err
	}

	clk := ebi.ClockFunc(func() uint64 { return rate })
	ctl, err := ebi.Open(devmem, base, clk, new(ebi.Shared))
	if err != nil {
		return fmt.Errorf("could not open FMC2 controller: %w", err)
	}
	defer ctl.Close()

	err = ctl.Configure(cfg)
	if err != nil {
		return fmt.Errorf("could not apply bank configuration: %w", err)
	}
	log.Printf("configured %d bank(s)", len(cfg.Banks))

	if dump {
		err = ctl.DumpRegisters(os.Stdout)
		if err != nil {
			return fmt.Errorf("could not dump registers: %w", err)
		}
	}
	return nil
}

func loadConfig(cfgFile, dbName string, i2cBus, i2cAddr int) (*ebi.Config, error) {
	if cfgFile != "" {
		cfg, err := ebi.LoadConfig(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("could not load config file: %w", err)
		}
		return cfg, nil
	}

	eep, err := eeprom.Open(i2cBus, i2cAddr)
	if err != nil {
		return nil, fmt.Errorf("could not open board EEPROM: %w", err)
	}
	defer eep.Close()

	boardID, err := eep.BoardID()
	if err != nil {
		return nil, fmt.Errorf("could not read board-id: %w", err)
	}
	log.Printf("board-id: 0x%08x", boardID)

	db, err := cfgdb.Open(dbName)
	if err != nil {
		return nil, fmt.Errorf("could not open boards db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	name, err := db.ProfileFor(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("could not get profile for board 0x%08x: %w", boardID, err)
	}
	if name == "" {
		name, err = db.LastProfile(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not get last profile: %w", err)
		}
	}
	log.Printf("profile: %q", name)

	cfg, err := db.Profile(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("could not get profile %q: %w", name, err)
	}
	return cfg, nil
}
