// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cfgdb retrieves named FMC2 bank profiles from the boards
// configuration database.
package cfgdb // import "github.com/go-fmc/fmc2/cfgdb"

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/go-fmc/fmc2/ebi"
)

const (
	host = "localhost"
)

var (
	usr = "username"
	pwd = "s3cr3t"

	drvName = "mysql"
)

// DB exposes convenience methods to retrieve bank profiles from the
// boards database.
type DB struct {
	db   *sql.DB
	name string
}

// Open opens a connection to the boards database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("cfgdb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		return nil, fmt.Errorf("cfgdb: could not ping %q db: %w", dbname, err)
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("cfgdb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// LastProfile returns the name of the most recently registered bank
// profile.
func (db *DB) LastProfile(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	name := ""
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT name FROM profiles ORDER BY datetime DESC LIMIT 1",
	)
	if err != nil {
		return name, fmt.Errorf("cfgdb: could not query last profile: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(&name)
		if err != nil {
			return name, fmt.Errorf("cfgdb: could not get last profile value: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return name, fmt.Errorf("cfgdb: could not scan db for last profile: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return name, fmt.Errorf("cfgdb: context error while retrieving last profile: %w", err)
	}

	return name, nil
}

// ProfileFor returns the name of the bank profile registered for the
// board boardID.
func (db *DB) ProfileFor(ctx context.Context, boardID uint32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	name := ""
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT profile FROM boards WHERE identifier=?",
		boardID,
	)
	if err != nil {
		return name, fmt.Errorf("cfgdb: could not query profile for board %d: %w", boardID, err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(&name)
		if err != nil {
			return name, fmt.Errorf("cfgdb: could not get profile for board %d: %w", boardID, err)
		}
	}

	if err := rows.Err(); err != nil {
		return name, fmt.Errorf("cfgdb: could not scan db for board %d: %w", boardID, err)
	}

	if err := ctx.Err(); err != nil {
		return name, fmt.Errorf("cfgdb: context error while retrieving board %d: %w", boardID, err)
	}

	return name, nil
}

// Profile returns the bank configuration stored under the profile name.
// Flags and properties are stored as JSON columns.
func (db *DB) Profile(ctx context.Context, name string) (*ebi.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := db.db.QueryContext(
		ctx,
		`
SELECT banks.slot, banks.flags, banks.props FROM banks
JOIN profiles ON profiles.identifier=banks.profile
WHERE profiles.name=?
ORDER BY banks.slot
`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("cfgdb: could not run profile query: %w", err)
	}
	defer rows.Close()

	var cfg ebi.Config
	i := 0
	for rows.Next() {
		var (
			bank  ebi.Bank
			flags string
			props string
		)
		err = rows.Scan(&bank.Slot, &flags, &props)
		if err != nil {
			return nil, fmt.Errorf("cfgdb: could not scan row %d of profile %q: %w", i, name, err)
		}
		i++

		if flags != "" {
			err = json.Unmarshal([]byte(flags), &bank.Flags)
			if err != nil {
				return nil, fmt.Errorf("cfgdb: could not decode flags of profile %q slot %d: %w", name, bank.Slot, err)
			}
		}
		if props != "" {
			err = json.Unmarshal([]byte(props), &bank.Props)
			if err != nil {
				return nil, fmt.Errorf("cfgdb: could not decode props of profile %q slot %d: %w", name, bank.Slot, err)
			}
		}

		cfg.Banks = append(cfg.Banks, bank)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cfgdb: could not scan db for profile %q: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("cfgdb: context error while retrieving profile %q: %w", name, err)
	}

	return &cfg, nil
}
