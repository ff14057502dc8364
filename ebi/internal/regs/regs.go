// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regs holds the register map of the FMC2 external-bus interface
// controller: offsets within the mmap'd register block and the bitfield
// layout of each register.
package regs // import "github.com/go-fmc/fmc2/ebi/internal/regs"

// Span is the size of the FMC2 register window.
const Span = 0x400

// Controller register offsets.
const (
	BCR1    = 0x000 // chip-select control, bank 0 (carries the global bits)
	BTR1    = 0x004 // chip-select read timings, bank 0
	PCSCNTR = 0x020 // chip-select low-pulse counter, shared by all banks
	BWTR1   = 0x104 // chip-select write timings, bank 0
)

// BCR returns the offset of the control register of chip-select cs.
func BCR(cs int) int64 { return int64(cs)*0x8 + BCR1 }

// BTR returns the offset of the read-timing register of chip-select cs.
func BTR(cs int) int64 { return int64(cs)*0x8 + BTR1 }

// BWTR returns the offset of the write-timing register of chip-select cs.
func BWTR(cs int) int64 { return int64(cs)*0x8 + BWTR1 }

// Register: BCR1.
const (
	BCR1_CCLKEN = 1 << 20 // continuous clock enable, bank 0 only
	BCR1_FMC2EN = 1 << 31 // controller enable
)

// Register: BCRx.
const (
	BCR_MBKEN     = 1 << 0 // bank enable
	BCR_MUXEN     = 1 << 1 // address/data multiplex enable
	BCR_MTYP      = 0x3 << 2
	BCR_MWID      = 0x3 << 4
	BCR_FACCEN    = 1 << 6 // NOR flash access enable
	BCR_BURSTEN   = 1 << 8 // synchronous (burst) read enable
	BCR_WAITPOL   = 1 << 9
	BCR_WAITCFG   = 1 << 11
	BCR_WREN      = 1 << 12
	BCR_WAITEN    = 1 << 13
	BCR_EXTMOD    = 1 << 14 // extended mode: split read/write timings
	BCR_ASYNCWAIT = 1 << 15
	BCR_CPSIZE    = 0x7 << 16
	BCR_CBURSTRW  = 1 << 19 // synchronous (burst) write enable
	BCR_NBLSET    = 0x3 << 22
)

// Register: BTRx/BWTRx.
const (
	BXTR_ADDSET  = 0xf << 0
	BXTR_ADDHLD  = 0xf << 4
	BXTR_DATAST  = 0xff << 8
	BXTR_BUSTURN = 0xf << 16
	BTR_CLKDIV   = 0xf << 20 // BTRx only
	BTR_DATLAT   = 0xf << 24 // BTRx only
	BXTR_ACCMOD  = 0x3 << 28
	BXTR_DATAHLD = 0x3 << 30
)

// Register: PCSCNTR.
const (
	PCSCNTR_CSCOUNT = 0xffff
)

// PCSCNTR_CNTBEN returns the counter-enable bit of chip-select cs.
func PCSCNTR_CNTBEN(cs int) uint32 { return 1 << (16 + cs) }

// MTYP memory-type codes.
const (
	MTYP_SRAM  = 0x0
	MTYP_PSRAM = 0x1
	MTYP_NOR   = 0x2
)

// MWID bus-width codes.
const (
	MWID_8  = 0x0
	MWID_16 = 0x1
)

// CPSIZE page-size codes.
const (
	CPSIZE_0    = 0x0
	CPSIZE_128  = 0x1
	CPSIZE_256  = 0x2
	CPSIZE_512  = 0x3
	CPSIZE_1024 = 0x4
)

// ACCMOD extended-mode access codes.
const (
	EXTMOD_A = 0x0
	EXTMOD_B = 0x1
	EXTMOD_C = 0x2
	EXTMOD_D = 0x3
)

// Field maxima.
const (
	NBLSET_MAX  = 0x3
	ADDSET_MAX  = 0xf
	ADDHLD_MAX  = 0xf
	DATAST_MAX  = 0xff
	BUSTURN_MAX = 0xf
	DATAHLD_MAX = 0x3
	CLKDIV_MAX  = 0xf
	DATLAT_MAX  = 0xf
	CSCOUNT_MAX = 0xff
)
