// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eeprom

import (
	"fmt"
	"strings"
	"testing"
)

type fakeConn struct {
	regs map[uint8]uint8
	errs map[uint8]error
}

func (c *fakeConn) ReadReg(addr, reg uint8) (uint8, error) {
	if err, ok := c.errs[reg]; ok {
		return 0, err
	}
	return c.regs[reg], nil
}

func (c *fakeConn) Close() error { return nil }

func newFakeConn() *fakeConn {
	return &fakeConn{
		regs: map[uint8]uint8{
			regMagic0: magic0,
			regMagic1: magic1,
			regID:     0x00,
			regID + 1: 0x01,
			regID + 2: 0xbe,
			regID + 3: 0xef,
			regRev:    0x2a,
		},
	}
}

func TestBoardID(t *testing.T) {
	dev := &Device{conn: newFakeConn(), addr: 0x50}
	if err := dev.checkMagic(); err != nil {
		t.Fatalf("could not check magic: %+v", err)
	}

	id, err := dev.BoardID()
	if err != nil {
		t.Fatalf("could not read board-id: %+v", err)
	}
	if got, want := id, uint32(0x0001beef); got != want {
		t.Fatalf("invalid board-id: got=0x%08x, want=0x%08x", got, want)
	}

	rev, err := dev.Revision()
	if err != nil {
		t.Fatalf("could not read revision: %+v", err)
	}
	if got, want := rev, uint8(0x2a); got != want {
		t.Fatalf("invalid revision: got=%d, want=%d", got, want)
	}
}

func TestBadMagic(t *testing.T) {
	conn := newFakeConn()
	conn.regs[regMagic1] = 0xff

	dev := &Device{conn: conn, addr: 0x50}
	err := dev.checkMagic()
	if err == nil {
		t.Fatalf("expected an error for an invalid magic")
	}
	if !strings.Contains(err.Error(), "invalid magic") {
		t.Fatalf("invalid error: %+v", err)
	}
}

func TestReadError(t *testing.T) {
	conn := newFakeConn()
	conn.errs = map[uint8]error{
		regID + 2: fmt.Errorf("i2c timeout"),
	}

	dev := &Device{conn: conn, addr: 0x50}
	_, err := dev.BoardID()
	if err == nil {
		t.Fatalf("expected an error on a failing bus")
	}
}
