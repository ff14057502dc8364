// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ebi

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
)

// rwer is the register-store contract: the FMC2 register block exposed as
// an addressable byte window, either the mmap'd hardware or an in-memory
// fake under test.
type rwer interface {
	io.ReaderAt
	io.WriterAt
}

func (c *Controller) readReg(off int64) uint32 {
	if c.err != nil {
		return 0
	}
	_, c.err = c.rw.ReadAt(c.xbuf[:4], off)
	if c.err != nil {
		c.err = fmt.Errorf("ebi: could not read register 0x%x: %w", off, c.err)
		return 0
	}
	return binary.LittleEndian.Uint32(c.xbuf[:4])
}

func (c *Controller) writeReg(off int64, v uint32) {
	if c.err != nil {
		return
	}
	binary.LittleEndian.PutUint32(c.xbuf[:4], v)
	_, c.err = c.rw.WriteAt(c.xbuf[:4], off)
	if c.err != nil {
		c.err = fmt.Errorf("ebi: could not write register 0x%x: %w", off, c.err)
	}
}

// updateBits performs a masked read-modify-write of the register at off.
func (c *Controller) updateBits(off int64, mask, v uint32) {
	reg := c.readReg(off)
	reg &= ^mask
	reg |= v & mask
	c.writeReg(off, reg)
}

// fieldPrep shifts v into the register field selected by mask.
func fieldPrep(mask, v uint32) uint32 {
	return (v << uint(bits.TrailingZeros32(mask))) & mask
}

// fieldGet extracts the register field selected by mask from reg.
func fieldGet(mask, reg uint32) uint32 {
	return (reg & mask) >> uint(bits.TrailingZeros32(mask))
}
