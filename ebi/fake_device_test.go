// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ebi

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"

	"github.com/go-fmc/fmc2/ebi/internal/regs"
)

// fakeRegs is an in-memory stand-in for the mmap'd FMC2 register block.
type fakeRegs struct {
	buf [regs.Span]byte
}

func (f *fakeRegs) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || int64(len(f.buf)) < off {
		return 0, fmt.Errorf("fake: invalid ReadAt offset %d", off)
	}
	n := copy(p, f.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *fakeRegs) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || int64(len(f.buf)) < off {
		return 0, fmt.Errorf("fake: invalid WriteAt offset %d", off)
	}
	n := copy(f.buf[off:], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func (f *fakeRegs) u32(off int64) uint32 {
	return binary.LittleEndian.Uint32(f.buf[off : off+4])
}

func (f *fakeRegs) setU32(off int64, v uint32) {
	binary.LittleEndian.PutUint32(f.buf[off:off+4], v)
}

// brokenRegs fails every register write past the first n, to exercise the
// error paths of the controller.
type brokenRegs struct {
	fakeRegs
	n int
}

func (f *brokenRegs) WriteAt(p []byte, off int64) (int, error) {
	if f.n <= 0 {
		return 0, fmt.Errorf("fake: write failed at offset 0x%x", off)
	}
	f.n--
	return f.fakeRegs.WriteAt(p, off)
}

// flakyRegs fails every register read past the first n.
type flakyRegs struct {
	fakeRegs
	n int
}

func (f *flakyRegs) ReadAt(p []byte, off int64) (int, error) {
	if f.n <= 0 {
		return 0, fmt.Errorf("fake: read failed at offset 0x%x", off)
	}
	f.n--
	return f.fakeRegs.ReadAt(p, off)
}

// clk100MHz gives a 10ns bus-clock cycle, convenient for timing checks.
var clk100MHz = ClockFunc(func() uint64 { return 100000000 })

func newTestController(rw rwer) *Controller {
	return New(rw, clk100MHz, new(Shared),
		WithLogger(log.New(io.Discard, "ebi: ", 0)),
	)
}
