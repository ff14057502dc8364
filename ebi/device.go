// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ebi

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/go-fmc/fmc2/ebi/internal/regs"
	"github.com/go-fmc/fmc2/internal/mmap"
)

// NumCS is the number of chip-select slots of the FMC2 EBI controller.
const NumCS = 4

// Shared holds the controller-global resources arbitrated between the EBI
// sub-function and the other FMC2 sub-functions (NAND). One Shared value
// must be passed to every Controller backed by the same register block.
type Shared struct {
	nCtrl int32 // sub-functions holding the controller enabled
	nWait int32 // banks driving the NWAIT signal
}

// Controller drives the chip-select banks of one FMC2 EBI register block.
type Controller struct {
	msg *log.Logger
	rw  rwer
	clk Clock
	shr *Shared

	mem struct {
		fd *os.File
		h  *mmap.Handle
	}

	err  error
	xbuf [4]byte

	csAssigned uint8 // bitmask of slots claimed by Configure
	nwaitHeld  bool
	enabled    bool

	save struct {
		bcr     [NumCS]uint32
		btr     [NumCS]uint32
		bwtr    [NumCS]uint32
		pcscntr uint32
	}
}

// New creates a Controller on top of the register store rw, clocked by
// clk, sharing the controller-global state shr.
func New(rw rwer, clk Clock, shr *Shared, opts ...Option) *Controller {
	c := &Controller{
		msg: log.New(os.Stderr, "ebi: ", 0),
		rw:  rw,
		clk: clk,
		shr: shr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open maps the FMC2 register block at offset base of the memory device
// devmem (usually /dev/mem) and returns a Controller driving it.
func Open(devmem string, base int64, clk Clock, shr *Shared, opts ...Option) (*Controller, error) {
	f, err := os.OpenFile(devmem, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("ebi: could not open %q: %w", devmem, err)
	}

	buf, err := unix.Mmap(int(f.Fd()), base, regs.Span,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED,
	)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ebi: could not mmap register block at 0x%x: %w", base, err)
	}

	h := mmap.HandleFrom(buf)
	c := New(h, clk, shr, opts...)
	c.mem.fd = f
	c.mem.h = h
	return c, nil
}

// Close releases the bus resources held by the Controller: it disables
// every bank it configured, releases the NWAIT signal if held, drops the
// controller-enable reference and unmaps the register block.
func (c *Controller) Close() error {
	c.Remove()
	err := c.err

	if c.mem.h != nil {
		if e := c.mem.h.Close(); e != nil && err == nil {
			err = fmt.Errorf("ebi: could not unmap register block: %w", e)
		}
		c.mem.h = nil
	}
	if c.mem.fd != nil {
		if e := c.mem.fd.Close(); e != nil && err == nil {
			err = fmt.Errorf("ebi: could not close memory device: %w", e)
		}
		c.mem.fd = nil
	}
	return err
}

// Configure validates cfg and applies it to the controller registers.
// No register is modified before the whole configuration has been
// validated against the slot and clock constraints; on a property error
// the banks configured so far are disabled again.
func (c *Controller) Configure(cfg *Config) error {
	if cfg == nil || len(cfg.Banks) == 0 {
		return ErrNoBankConfig
	}
	if c.clk == nil || c.clk.Rate() == 0 {
		return ErrClock
	}

	var seen uint8
	for i := range cfg.Banks {
		bank := &cfg.Banks[i]
		if bank.Slot >= NumCS {
			return fmt.Errorf("ebi: bank %d: slot %d: %w", i, bank.Slot, ErrSlotRange)
		}
		if seen&(1<<bank.Slot) != 0 {
			return fmt.Errorf("ebi: bank %d: slot %d: %w", i, bank.Slot, ErrSlotAssigned)
		}
		seen |= 1 << bank.Slot
	}

	for i := range cfg.Banks {
		bank := &cfg.Banks[i]
		err := c.setupCS(bank, int(bank.Slot))
		if err != nil {
			c.disableBanks()
			return fmt.Errorf("ebi: could not configure slot %d: %w", bank.Slot, err)
		}
		c.csAssigned |= 1 << bank.Slot
		c.msg.Printf("configured chip-select %d", bank.Slot)
	}

	if c.nwaitInUse() {
		if atomic.AddInt32(&c.shr.nWait, 1) > 1 {
			atomic.AddInt32(&c.shr.nWait, -1)
			c.disableBanks()
			c.csAssigned = 0
			return ErrResourceConflict
		}
		c.nwaitHeld = true
	}

	c.saveSetup()
	if c.err != nil {
		return c.err
	}
	c.enable()
	if c.err != nil {
		c.disable()
		return c.err
	}
	c.enabled = true
	return nil
}

// setupCS programs one chip-select slot: the bank is kept disabled while
// the properties are resolved in table order, then re-enabled.
func (c *Controller) setupCS(bank *Bank, cs int) error {
	c.setBank(cs, false)
	for i := range propTable {
		p := &propTable[i]
		err := c.resolveProp(p, bank, cs)
		if err != nil {
			return fmt.Errorf("could not set property %q: %w", p.name, err)
		}
	}
	c.setBank(cs, true)
	return c.err
}

func (c *Controller) setBank(cs int, enable bool) {
	var v uint32
	if enable {
		v = regs.BCR_MBKEN
	}
	c.updateBits(regs.BCR(cs), regs.BCR_MBKEN, v)
}

// nwaitInUse reports whether any slot claimed by this Controller drives
// the NWAIT signal, in either synchronous or asynchronous wait mode.
func (c *Controller) nwaitInUse() bool {
	for cs := 0; cs < NumCS; cs++ {
		if c.csAssigned&(1<<cs) == 0 {
			continue
		}
		bcr := c.readReg(regs.BCR(cs))
		if bcr&(regs.BCR_WAITEN|regs.BCR_ASYNCWAIT) != 0 {
			return true
		}
	}
	return false
}

func (c *Controller) disableBanks() {
	for cs := 0; cs < NumCS; cs++ {
		if c.csAssigned&(1<<cs) == 0 {
			continue
		}
		c.setBank(cs, false)
	}
}

func (c *Controller) saveSetup() {
	for cs := 0; cs < NumCS; cs++ {
		c.save.bcr[cs] = c.readReg(regs.BCR(cs))
		c.save.btr[cs] = c.readReg(regs.BTR(cs))
		c.save.bwtr[cs] = c.readReg(regs.BWTR(cs))
	}
	c.save.pcscntr = c.readReg(regs.PCSCNTR)
}

func (c *Controller) restoreSetup() {
	for cs := 0; cs < NumCS; cs++ {
		c.writeReg(regs.BCR(cs), c.save.bcr[cs])
		c.writeReg(regs.BTR(cs), c.save.btr[cs])
		c.writeReg(regs.BWTR(cs), c.save.bwtr[cs])
	}
	c.writeReg(regs.PCSCNTR, c.save.pcscntr)
}

// enable takes a reference on the controller-global enable bit; the first
// reference sets FMC2EN.
func (c *Controller) enable() {
	if atomic.AddInt32(&c.shr.nCtrl, 1) == 1 {
		c.updateBits(regs.BCR(0), regs.BCR1_FMC2EN, regs.BCR1_FMC2EN)
	}
}

// disable drops a reference on the controller-global enable bit; the last
// reference clears FMC2EN.
func (c *Controller) disable() {
	if atomic.AddInt32(&c.shr.nCtrl, -1) == 0 {
		c.updateBits(regs.BCR(0), regs.BCR1_FMC2EN, 0)
	}
}

// DumpRegisters writes a human-readable dump of the chip-select
// registers to w.
func (c *Controller) DumpRegisters(w io.Writer) error {
	for cs := 0; cs < NumCS; cs++ {
		fmt.Fprintf(w, "BCR%d:    0x%08x\n", cs+1, c.readReg(regs.BCR(cs)))
		fmt.Fprintf(w, "BTR%d:    0x%08x\n", cs+1, c.readReg(regs.BTR(cs)))
		fmt.Fprintf(w, "BWTR%d:   0x%08x\n", cs+1, c.readReg(regs.BWTR(cs)))
	}
	fmt.Fprintf(w, "PCSCNTR: 0x%08x\n", c.readReg(regs.PCSCNTR))
	return c.err
}

// Suspend powers the controller interface down before system sleep. The
// register contents saved by Configure are restored by Resume.
func (c *Controller) Suspend() error {
	if !c.enabled {
		return nil
	}
	c.disable()
	return c.err
}

// Resume restores the register contents saved by Configure and powers the
// controller interface back up after system sleep.
func (c *Controller) Resume() error {
	if !c.enabled {
		return nil
	}
	c.restoreSetup()
	c.enable()
	return c.err
}

// Remove tears down the configuration applied by Configure: the NWAIT
// reference is released, the configured banks are disabled and the
// controller-enable reference is dropped.
func (c *Controller) Remove() {
	if c.nwaitHeld {
		atomic.AddInt32(&c.shr.nWait, -1)
		c.nwaitHeld = false
	}
	c.disableBanks()
	if c.enabled {
		c.disable()
		c.enabled = false
	}
	c.csAssigned = 0
}
