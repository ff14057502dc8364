// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fmc2-sql inspects the bank profiles stored in the boards
// database.
package main // import "github.com/go-fmc/fmc2/cmd/fmc2-sql"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/go-fmc/fmc2/cfgdb"
	_ "github.com/go-sql-driver/mysql"
)

const (
	dbname = "fmc2boards"
)

func main() {
	log.SetPrefix("fmc2-sql: ")
	log.SetFlags(0)

	var (
		profile = flag.String("profile", "", "bank profile to inspect")
		board   = flag.Uint("board", 0, "board identifier to inspect")
	)

	flag.Parse()

	db, err := cfgdb.Open(dbname)
	if err != nil {
		log.Fatalf("could not open boards db: %+v", err)
	}
	defer db.Close()

	err = doQuery(db, *profile, uint32(*board))
	if err != nil {
		log.Fatalf("could not do query: %+v", err)
	}
}

func doQuery(db *cfgdb.DB, profile string, board uint32) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if profile == "" && board != 0 {
		v, err := db.ProfileFor(ctx, board)
		if err != nil {
			return fmt.Errorf("could not get profile for board %d: %w", board, err)
		}
		profile = v
		log.Printf("board %d profile: %q", board, profile)
	}

	if profile == "" {
		v, err := db.LastProfile(ctx)
		if err != nil {
			return fmt.Errorf("could not get last profile value: %w", err)
		}
		profile = v
		log.Printf("profile: %q", profile)
	}

	cfg, err := db.Profile(ctx, profile)
	if err != nil {
		return fmt.Errorf("could not get profile %q: %w", profile, err)
	}

	log.Printf("banks: %d", len(cfg.Banks))
	for _, bank := range cfg.Banks {
		log.Printf(">>> slot=%d flags=%v", bank.Slot, bank.Flags)
		for k, v := range bank.Props {
			log.Printf("    %-24s %d", k, v)
		}
	}
	return nil
}
