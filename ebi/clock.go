// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ebi

// Clock reports the rate of the bus clock feeding the FMC2 controller.
// The clock must be prepared and enabled for the whole duration of a
// Configure call.
type Clock interface {
	Rate() uint64 // Hz
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() uint64

func (f ClockFunc) Rate() uint64 { return f() }

const psPerSec = 1000000000000

// nsToCycles converts a duration in nanoseconds to a number of bus-clock
// cycles, rounding up: under-counting a setup or hold time corrupts data
// on the external bus, over-counting only costs performance.
func (c *Controller) nsToCycles(ns uint32) uint32 {
	hclkp := psPerSec / c.clk.Rate() // bus clock period, in ps
	return uint32((uint64(ns)*1000 + hclkp - 1) / hclkp)
}
