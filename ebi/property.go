// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ebi

import (
	"fmt"

	"github.com/go-fmc/fmc2/ebi/internal/regs"
)

type regType int

const (
	regBCR regType = iota + 1
	regBTR
	regBWTR
	regPCSCNTR
)

func regFor(rt regType, cs int) (int64, error) {
	switch rt {
	case regBCR:
		return regs.BCR(cs), nil
	case regBTR:
		return regs.BTR(cs), nil
	case regBWTR:
		return regs.BWTR(cs), nil
	case regPCSCNTR:
		return regs.PCSCNTR, nil
	}
	return 0, fmt.Errorf("unknown register type %d", rt)
}

// property describes one named bank property: which register field it
// drives, its default, whether it applies to the transaction type already
// programmed, and how its value is converted and written.
type property struct {
	name  string
	bprop bool // set by presence in Bank.Flags
	mprop bool // configuration must define it
	reg   regType
	mask  uint32
	reset uint32

	check func(c *Controller, p *property, cs int) bool
	calc  func(c *Controller, ns uint32) uint32
	apply func(c *Controller, p *property, cs int, v uint32) error
}

// propTable lists the bank properties in the order they must be applied:
// transaction-type comes first as the checks and clamps of every later
// property depend on the mode bits it programs.
var propTable = []property{
	{
		name:  "transaction-type",
		mprop: true,
		apply: (*Controller).setTransType,
	},
	{
		name:  "cclk-enable",
		bprop: true,
		reg:   regBCR,
		mask:  regs.BCR1_CCLKEN,
		check: (*Controller).checkCClk,
		apply: (*Controller).setBitField,
	},
	{
		name:  "mux-enable",
		bprop: true,
		reg:   regBCR,
		mask:  regs.BCR_MUXEN,
		check: (*Controller).checkMux,
		apply: (*Controller).setBitField,
	},
	{
		name:  "buswidth",
		reset: 16,
		apply: (*Controller).setBusWidth,
	},
	{
		name:  "waitpol-high",
		bprop: true,
		reg:   regBCR,
		mask:  regs.BCR_WAITPOL,
		apply: (*Controller).setBitField,
	},
	{
		name:  "waitcfg-enable",
		bprop: true,
		reg:   regBCR,
		mask:  regs.BCR_WAITCFG,
		check: (*Controller).checkWaitCfg,
		apply: (*Controller).setBitField,
	},
	{
		name:  "wait-enable",
		bprop: true,
		reg:   regBCR,
		mask:  regs.BCR_WAITEN,
		check: (*Controller).checkSyncTrans,
		apply: (*Controller).setBitField,
	},
	{
		name:  "asyncwait-enable",
		bprop: true,
		reg:   regBCR,
		mask:  regs.BCR_ASYNCWAIT,
		check: (*Controller).checkAsyncTrans,
		apply: (*Controller).setBitField,
	},
	{
		name:  "cpsize",
		check: (*Controller).checkCpSize,
		apply: (*Controller).setCpSize,
	},
	{
		name:  "byte-lane-setup-ns",
		calc:  (*Controller).nsToCycles,
		apply: (*Controller).setBLSetup,
	},
	{
		name:  "address-setup-ns",
		reg:   regBTR,
		reset: regs.ADDSET_MAX,
		check: (*Controller).checkAsyncTrans,
		calc:  (*Controller).nsToCycles,
		apply: (*Controller).setAddressSetup,
	},
	{
		name:  "address-hold-ns",
		reg:   regBTR,
		reset: regs.ADDHLD_MAX,
		check: (*Controller).checkAddressHold,
		calc:  (*Controller).nsToCycles,
		apply: (*Controller).setAddressHold,
	},
	{
		name:  "data-setup-ns",
		reg:   regBTR,
		reset: regs.DATAST_MAX,
		check: (*Controller).checkAsyncTrans,
		calc:  (*Controller).nsToCycles,
		apply: (*Controller).setDataSetup,
	},
	{
		name:  "bus-turnaround-ns",
		reg:   regBTR,
		reset: regs.BUSTURN_MAX + 1,
		calc:  (*Controller).nsToCycles,
		apply: (*Controller).setBusTurnaround,
	},
	{
		name:  "data-hold-ns",
		reg:   regBTR,
		check: (*Controller).checkAsyncTrans,
		calc:  (*Controller).nsToCycles,
		apply: (*Controller).setDataHold,
	},
	{
		name:  "clk-period-ns",
		reset: regs.CLKDIV_MAX + 1,
		check: (*Controller).checkClkPeriod,
		calc:  (*Controller).nsToCycles,
		apply: (*Controller).setClkPeriod,
	},
	{
		name:  "data-latency",
		check: (*Controller).checkSyncTrans,
		apply: (*Controller).setDataLatency,
	},
	{
		name:  "write-address-setup-ns",
		reg:   regBWTR,
		reset: regs.ADDSET_MAX,
		check: (*Controller).checkAsyncTrans,
		calc:  (*Controller).nsToCycles,
		apply: (*Controller).setAddressSetup,
	},
	{
		name:  "write-address-hold-ns",
		reg:   regBWTR,
		reset: regs.ADDHLD_MAX,
		check: (*Controller).checkAddressHold,
		calc:  (*Controller).nsToCycles,
		apply: (*Controller).setAddressHold,
	},
	{
		name:  "write-data-setup-ns",
		reg:   regBWTR,
		reset: regs.DATAST_MAX,
		check: (*Controller).checkAsyncTrans,
		calc:  (*Controller).nsToCycles,
		apply: (*Controller).setDataSetup,
	},
	{
		name:  "write-bus-turnaround-ns",
		reg:   regBWTR,
		reset: regs.BUSTURN_MAX + 1,
		calc:  (*Controller).nsToCycles,
		apply: (*Controller).setBusTurnaround,
	},
	{
		name:  "write-data-hold-ns",
		reg:   regBWTR,
		check: (*Controller).checkAsyncTrans,
		calc:  (*Controller).nsToCycles,
		apply: (*Controller).setDataHold,
	},
	{
		name:  "max-low-pulse-ns",
		calc:  (*Controller).nsToCycles,
		apply: (*Controller).setMaxLowPulse,
	},
}

// resolveProp resolves the value of p for the bank at cs and applies it.
// A property whose check rejects the programmed transaction type is
// skipped without error.
func (c *Controller) resolveProp(p *property, bank *Bank, cs int) error {
	if p.check != nil && !p.check(c, p, cs) {
		return c.err
	}

	var v uint32
	switch {
	case p.bprop:
		set := bank.flag(p.name)
		if p.mprop && !set {
			return ErrMissingProperty
		}
		if set {
			v = 1
		}
	default:
		raw, ok := bank.prop(p.name)
		switch {
		case !ok && p.mprop:
			return ErrMissingProperty
		case !ok:
			v = p.reset
		case p.calc != nil:
			v = p.calc(c, raw)
		default:
			v = raw
		}
	}

	err := p.apply(c, p, cs, v)
	if err != nil {
		return err
	}
	return c.err
}

// checkMux applies to any memory type but SRAM.
func (c *Controller) checkMux(p *property, cs int) bool {
	bcr := c.readReg(regs.BCR(cs))
	return bcr&regs.BCR_MTYP != 0
}

// checkWaitCfg applies to synchronous NOR transactions only.
func (c *Controller) checkWaitCfg(p *property, cs int) bool {
	bcr := c.readReg(regs.BCR(cs))
	return fieldGet(regs.BCR_MTYP, bcr) == regs.MTYP_NOR &&
		bcr&regs.BCR_BURSTEN != 0
}

// checkSyncTrans applies when synchronous reads are enabled.
func (c *Controller) checkSyncTrans(p *property, cs int) bool {
	bcr := c.readReg(regs.BCR(cs))
	return bcr&regs.BCR_BURSTEN != 0
}

// checkAsyncTrans applies unless both reads and writes are synchronous.
func (c *Controller) checkAsyncTrans(p *property, cs int) bool {
	bcr := c.readReg(regs.BCR(cs))
	return bcr&regs.BCR_BURSTEN == 0 || bcr&regs.BCR_CBURSTRW == 0
}

// checkCpSize applies to synchronous PSRAM transactions only.
func (c *Controller) checkCpSize(p *property, cs int) bool {
	bcr := c.readReg(regs.BCR(cs))
	return fieldGet(regs.BCR_MTYP, bcr) == regs.MTYP_PSRAM &&
		bcr&regs.BCR_BURSTEN != 0
}

// checkAddressHold applies to asynchronous transactions in mode D or with
// a multiplexed bus, the only cases where the address-hold phase exists.
func (c *Controller) checkAddressHold(p *property, cs int) bool {
	bcr := c.readReg(regs.BCR(cs))
	var bxtr uint32
	if p.reg == regBWTR {
		bxtr = c.readReg(regs.BWTR(cs))
	} else {
		bxtr = c.readReg(regs.BTR(cs))
	}
	async := bcr&regs.BCR_BURSTEN == 0 || bcr&regs.BCR_CBURSTRW == 0
	hold := fieldGet(regs.BXTR_ACCMOD, bxtr) == regs.EXTMOD_D ||
		bcr&regs.BCR_MUXEN != 0
	return async && hold
}

// checkClkPeriod applies to synchronous transactions, on bank 0 always
// and on other banks only when the continuous clock is disabled: with
// CCLKEN set the whole controller runs on bank 0's clock divider.
func (c *Controller) checkClkPeriod(p *property, cs int) bool {
	bcr := c.readReg(regs.BCR(cs))
	bcr1 := bcr
	if cs != 0 {
		bcr1 = c.readReg(regs.BCR(0))
	}
	return bcr&regs.BCR_BURSTEN != 0 &&
		(cs == 0 || bcr1&regs.BCR1_CCLKEN == 0)
}

// checkCClk applies on bank 0 only, for synchronous transactions.
func (c *Controller) checkCClk(p *property, cs int) bool {
	if cs != 0 {
		return false
	}
	return c.checkSyncTrans(p, cs)
}

func (c *Controller) setBitField(p *property, cs int, v uint32) error {
	reg, err := regFor(p.reg, cs)
	if err != nil {
		return err
	}
	var bits uint32
	if v != 0 {
		bits = p.mask
	}
	c.updateBits(reg, p.mask, bits)
	return nil
}

// setTransType programs the mode bits of the selected transaction
// profile. The write-timing register is touched only in extended mode,
// then the read timings, then the control register, so that the checks of
// the following properties observe a consistent mode.
func (c *Controller) setTransType(p *property, cs int, v uint32) error {
	var (
		bcr  uint32 = regs.BCR_WREN
		btr  uint32
		bwtr uint32

		bcrMask uint32 = regs.BCR_MUXEN | regs.BCR_MTYP | regs.BCR_FACCEN |
			regs.BCR_WREN | regs.BCR_WAITEN | regs.BCR_BURSTEN |
			regs.BCR_EXTMOD | regs.BCR_CBURSTRW
	)

	switch v {
	case AsyncMode1SRAM:
		bcr |= fieldPrep(regs.BCR_MTYP, regs.MTYP_SRAM)
	case AsyncMode1PSRAM:
		bcr |= fieldPrep(regs.BCR_MTYP, regs.MTYP_PSRAM)
	case AsyncModeASRAM:
		bcr |= fieldPrep(regs.BCR_MTYP, regs.MTYP_SRAM)
		bcr |= regs.BCR_EXTMOD
		btr |= fieldPrep(regs.BXTR_ACCMOD, regs.EXTMOD_A)
		bwtr |= fieldPrep(regs.BXTR_ACCMOD, regs.EXTMOD_A)
	case AsyncModeAPSRAM:
		bcr |= fieldPrep(regs.BCR_MTYP, regs.MTYP_PSRAM)
		bcr |= regs.BCR_EXTMOD
		btr |= fieldPrep(regs.BXTR_ACCMOD, regs.EXTMOD_A)
		bwtr |= fieldPrep(regs.BXTR_ACCMOD, regs.EXTMOD_A)
	case AsyncMode2NOR:
		bcr |= fieldPrep(regs.BCR_MTYP, regs.MTYP_NOR)
		bcr |= regs.BCR_FACCEN
	case AsyncModeBNOR:
		bcr |= fieldPrep(regs.BCR_MTYP, regs.MTYP_NOR)
		bcr |= regs.BCR_FACCEN | regs.BCR_EXTMOD
		btr |= fieldPrep(regs.BXTR_ACCMOD, regs.EXTMOD_B)
		bwtr |= fieldPrep(regs.BXTR_ACCMOD, regs.EXTMOD_B)
	case AsyncModeCNOR:
		bcr |= fieldPrep(regs.BCR_MTYP, regs.MTYP_NOR)
		bcr |= regs.BCR_FACCEN | regs.BCR_EXTMOD
		btr |= fieldPrep(regs.BXTR_ACCMOD, regs.EXTMOD_C)
		bwtr |= fieldPrep(regs.BXTR_ACCMOD, regs.EXTMOD_C)
	case AsyncModeDNOR:
		bcr |= fieldPrep(regs.BCR_MTYP, regs.MTYP_NOR)
		bcr |= regs.BCR_FACCEN | regs.BCR_EXTMOD
		btr |= fieldPrep(regs.BXTR_ACCMOD, regs.EXTMOD_D)
		bwtr |= fieldPrep(regs.BXTR_ACCMOD, regs.EXTMOD_D)
	case SyncReadSyncWritePSRAM:
		bcr |= fieldPrep(regs.BCR_MTYP, regs.MTYP_PSRAM)
		bcr |= regs.BCR_BURSTEN | regs.BCR_CBURSTRW
	case SyncReadAsyncWritePSRAM:
		bcr |= fieldPrep(regs.BCR_MTYP, regs.MTYP_PSRAM)
		bcr |= regs.BCR_BURSTEN
	case SyncReadSyncWriteNOR:
		bcr |= fieldPrep(regs.BCR_MTYP, regs.MTYP_NOR)
		bcr |= regs.BCR_FACCEN | regs.BCR_BURSTEN | regs.BCR_CBURSTRW
	case SyncReadAsyncWriteNOR:
		bcr |= fieldPrep(regs.BCR_MTYP, regs.MTYP_NOR)
		bcr |= regs.BCR_FACCEN | regs.BCR_BURSTEN
	default:
		return fmt.Errorf("transaction type %d: %w", v, ErrInvalidValue)
	}

	if bcr&regs.BCR_EXTMOD != 0 {
		c.updateBits(regs.BWTR(cs), regs.BXTR_ACCMOD, bwtr)
	}
	c.updateBits(regs.BTR(cs), regs.BXTR_ACCMOD, btr)
	c.updateBits(regs.BCR(cs), bcrMask, bcr)
	return nil
}

func (c *Controller) setBusWidth(p *property, cs int, v uint32) error {
	var val uint32
	switch v {
	case 8:
		val = fieldPrep(regs.BCR_MWID, regs.MWID_8)
	case 16:
		val = fieldPrep(regs.BCR_MWID, regs.MWID_16)
	default:
		return fmt.Errorf("buswidth %d: %w", v, ErrInvalidValue)
	}
	c.updateBits(regs.BCR(cs), regs.BCR_MWID, val)
	return nil
}

func (c *Controller) setCpSize(p *property, cs int, v uint32) error {
	var val uint32
	switch v {
	case 0:
		val = fieldPrep(regs.BCR_CPSIZE, regs.CPSIZE_0)
	case 128:
		val = fieldPrep(regs.BCR_CPSIZE, regs.CPSIZE_128)
	case 256:
		val = fieldPrep(regs.BCR_CPSIZE, regs.CPSIZE_256)
	case 512:
		val = fieldPrep(regs.BCR_CPSIZE, regs.CPSIZE_512)
	case 1024:
		val = fieldPrep(regs.BCR_CPSIZE, regs.CPSIZE_1024)
	default:
		return fmt.Errorf("cpsize %d: %w", v, ErrInvalidValue)
	}
	c.updateBits(regs.BCR(cs), regs.BCR_CPSIZE, val)
	return nil
}

func (c *Controller) setBLSetup(p *property, cs int, v uint32) error {
	val := minU32(v, regs.NBLSET_MAX)
	c.updateBits(regs.BCR(cs), regs.BCR_NBLSET, fieldPrep(regs.BCR_NBLSET, val))
	return nil
}

func (c *Controller) setAddressSetup(p *property, cs int, v uint32) error {
	reg, err := regFor(p.reg, cs)
	if err != nil {
		return err
	}
	bcr := c.readReg(regs.BCR(cs))
	var bxtr uint32
	if p.reg == regBWTR {
		bxtr = c.readReg(regs.BWTR(cs))
	} else {
		bxtr = c.readReg(regs.BTR(cs))
	}

	// In mode D and on a multiplexed bus the address-setup phase
	// cannot be zero.
	var val uint32
	if fieldGet(regs.BXTR_ACCMOD, bxtr) == regs.EXTMOD_D ||
		bcr&regs.BCR_MUXEN != 0 {
		val = clampU32(v, 1, regs.ADDSET_MAX)
	} else {
		val = minU32(v, regs.ADDSET_MAX)
	}
	c.updateBits(reg, regs.BXTR_ADDSET, fieldPrep(regs.BXTR_ADDSET, val))
	return nil
}

func (c *Controller) setAddressHold(p *property, cs int, v uint32) error {
	reg, err := regFor(p.reg, cs)
	if err != nil {
		return err
	}
	val := clampU32(v, 1, regs.ADDHLD_MAX)
	c.updateBits(reg, regs.BXTR_ADDHLD, fieldPrep(regs.BXTR_ADDHLD, val))
	return nil
}

func (c *Controller) setDataSetup(p *property, cs int, v uint32) error {
	reg, err := regFor(p.reg, cs)
	if err != nil {
		return err
	}
	val := clampU32(v, 1, regs.DATAST_MAX)
	c.updateBits(reg, regs.BXTR_DATAST, fieldPrep(regs.BXTR_DATAST, val))
	return nil
}

// setBusTurnaround programs the bus-turnaround phase: one cycle is
// always inserted by the controller, so the requested duration is
// shortened by one.
func (c *Controller) setBusTurnaround(p *property, cs int, v uint32) error {
	reg, err := regFor(p.reg, cs)
	if err != nil {
		return err
	}
	var val uint32
	if v != 0 {
		val = minU32(v-1, regs.BUSTURN_MAX)
	}
	c.updateBits(reg, regs.BXTR_BUSTURN, fieldPrep(regs.BXTR_BUSTURN, val))
	return nil
}

func (c *Controller) setDataHold(p *property, cs int, v uint32) error {
	reg, err := regFor(p.reg, cs)
	if err != nil {
		return err
	}
	// On writes one hold cycle is always inserted.
	var val uint32
	if p.reg == regBWTR {
		if v != 0 {
			val = minU32(v-1, regs.DATAHLD_MAX)
		}
	} else {
		val = minU32(v, regs.DATAHLD_MAX)
	}
	c.updateBits(reg, regs.BXTR_DATAHLD, fieldPrep(regs.BXTR_DATAHLD, val))
	return nil
}

// setClkPeriod programs the output clock divider: the divider field holds
// the requested period minus one and cannot be zero.
func (c *Controller) setClkPeriod(p *property, cs int, v uint32) error {
	val := uint32(1)
	if v != 0 {
		val = clampU32(v-1, 1, regs.CLKDIV_MAX)
	}
	c.updateBits(regs.BTR(cs), regs.BTR_CLKDIV, fieldPrep(regs.BTR_CLKDIV, val))
	return nil
}

func (c *Controller) setDataLatency(p *property, cs int, v uint32) error {
	val := minU32(v, regs.DATLAT_MAX)
	c.updateBits(regs.BTR(cs), regs.BTR_DATLAT, fieldPrep(regs.BTR_DATLAT, val))
	return nil
}

// setMaxLowPulse programs the chip-select low-pulse counter, shared by
// all banks: the counter is enabled for this bank, and the counted value
// is only ever shortened so the tightest constraint across banks wins.
func (c *Controller) setMaxLowPulse(p *property, cs int, v uint32) error {
	if v < 1 {
		return nil
	}

	pcscntr := c.readReg(regs.PCSCNTR)
	c.updateBits(regs.PCSCNTR, regs.PCSCNTR_CNTBEN(cs), regs.PCSCNTR_CNTBEN(cs))

	newVal := minU32(v-1, regs.CSCOUNT_MAX)
	oldVal := fieldGet(regs.PCSCNTR_CSCOUNT, pcscntr)
	if oldVal != 0 && newVal > oldVal {
		return nil
	}

	c.updateBits(regs.PCSCNTR, regs.PCSCNTR_CSCOUNT,
		fieldPrep(regs.PCSCNTR_CSCOUNT, newVal))
	return nil
}

func minU32(v, max uint32) uint32 {
	if v > max {
		return max
	}
	return v
}

func clampU32(v, lo, hi uint32) uint32 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
