// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedb provides an in-memory database/sql driver, serving
// canned rows to exercise SQL client code under test.
package fakedb // import "github.com/go-fmc/fmc2/internal/fakedb"

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"sync"
)

var query struct {
	mu   sync.Mutex
	rows Rows
}

// Run installs rows as the result of every query issued while f runs.
func Run(ctx context.Context, rows Rows, f func(ctx context.Context) error) error {
	query.mu.Lock()
	defer query.mu.Unlock()
	query.rows = rows

	return f(ctx)
}

func init() {
	sql.Register("fakedb", &Driver{})
}

type Driver struct{}

func (drv *Driver) Open(name string) (driver.Conn, error) {
	return &Conn{}, nil
}

type Conn struct{}

func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return &Stmt{}, nil
}

func (c *Conn) Close() error {
	return nil
}

func (c *Conn) Begin() (driver.Tx, error) {
	panic("not implemented")
}

type Stmt struct{}

func (stmt *Stmt) Close() error {
	return nil
}

// NumInput returns -1: the fake does not know (nor check) the number of
// placeholder parameters.
func (stmt *Stmt) NumInput() int {
	return -1
}

func (stmt *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	panic("not implemented")
}

func (stmt *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return &query.rows, nil
}

// Rows is the canned result set served by the driver.
type Rows struct {
	Names  []string
	Values [][]driver.Value
}

func (rows *Rows) Columns() []string {
	return rows.Names
}

func (rows *Rows) Close() error {
	return nil
}

func (rows *Rows) Next(dest []driver.Value) error {
	if len(rows.Values) == 0 {
		return io.EOF
	}
	copy(dest, rows.Values[0])
	rows.Values = rows.Values[1:]
	return nil
}

var (
	_ driver.Driver = (*Driver)(nil)
	_ driver.Conn   = (*Conn)(nil)
	_ driver.Stmt   = (*Stmt)(nil)
	_ driver.Rows   = (*Rows)(nil)
)
