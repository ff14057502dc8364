// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfgdb

import (
	"context"
	"database/sql/driver"
	"reflect"
	"testing"

	"github.com/go-fmc/fmc2/ebi"
	"github.com/go-fmc/fmc2/internal/fakedb"
)

func init() {
	drvName = "fakedb"
}

func TestOpen(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open cfgdb: %+v", err)
	}
	defer db.Close()
}

func TestLastProfile(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open cfgdb: %+v", err)
	}
	defer db.Close()

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"name"},
		Values: [][]driver.Value{
			{"psram-burst-2021"},
		},
	}, func(ctx context.Context) error {
		name, err := db.LastProfile(ctx)
		if err != nil {
			t.Fatalf("could not retrieve last profile: %+v", err)
		}

		if got, want := name, "psram-burst-2021"; got != want {
			t.Fatalf("invalid last profile: got=%q, want=%q", got, want)
		}
		return nil
	})
}

func TestProfileFor(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open cfgdb: %+v", err)
	}
	defer db.Close()

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"profile"},
		Values: [][]driver.Value{
			{"nor-async-2021"},
		},
	}, func(ctx context.Context) error {
		name, err := db.ProfileFor(ctx, 42)
		if err != nil {
			t.Fatalf("could not retrieve profile for board: %+v", err)
		}

		if got, want := name, "nor-async-2021"; got != want {
			t.Fatalf("invalid profile: got=%q, want=%q", got, want)
		}
		return nil
	})
}

func TestProfile(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open cfgdb: %+v", err)
	}
	defer db.Close()

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"slot", "flags", "props"},
		Values: [][]driver.Value{
			{
				uint32(0),
				`["cclk-enable","wait-enable"]`,
				`{"transaction-type":10,"clk-period-ns":20,"data-latency":2}`,
			},
			{
				uint32(1),
				"",
				`{"transaction-type":4,"data-setup-ns":60}`,
			},
		},
	}, func(ctx context.Context) error {
		cfg, err := db.Profile(ctx, "nor-async-2021")
		if err != nil {
			t.Fatalf("could not retrieve profile: %+v", err)
		}

		want := &ebi.Config{Banks: []ebi.Bank{
			{
				Slot:  0,
				Flags: []string{"cclk-enable", "wait-enable"},
				Props: map[string]uint32{
					"transaction-type": 10,
					"clk-period-ns":    20,
					"data-latency":     2,
				},
			},
			{
				Slot: 1,
				Props: map[string]uint32{
					"transaction-type": 4,
					"data-setup-ns":    60,
				},
			},
		}}
		if !reflect.DeepEqual(cfg, want) {
			t.Fatalf("invalid profile:\ngot= %#v\nwant=%#v", cfg, want)
		}
		return nil
	})
}

func TestQueryContext(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open cfgdb: %+v", err)
	}
	defer db.Close()

	const queryLastProfile = "SELECT name FROM profiles ORDER BY datetime DESC LIMIT 1"

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"name"},
		Values: [][]driver.Value{
			{"psram-burst-2021"},
		},
	}, func(ctx context.Context) error {
		rows, err := db.QueryContext(ctx, queryLastProfile)
		if err != nil {
			t.Fatalf("could not execute query %q: %+v", queryLastProfile, err)
		}
		defer rows.Close()

		var name string
		for rows.Next() {
			err = rows.Scan(&name)
			if err != nil {
				t.Fatalf("could not scan profile name: %+v", err)
			}
		}

		if err := rows.Err(); err != nil {
			t.Fatalf("could not scan profile name: %+v", err)
		}

		if got, want := name, "psram-burst-2021"; got != want {
			t.Fatalf("invalid profile name: got=%q, want=%q", got, want)
		}
		return nil
	})
}
