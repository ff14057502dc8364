// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package eeprom reads the identification EEPROM of FMC2 carrier boards
// over SMBus. The EEPROM holds a magic marker, the board identifier used
// to look up the bank profile in the boards database, and the hardware
// revision.
package eeprom // import "github.com/go-fmc/fmc2/eeprom"

import (
	"fmt"

	"github.com/go-daq/smbus"
)

// EEPROM layout.
const (
	regMagic0 = 0x00
	regMagic1 = 0x01
	regID     = 0x04 // 4 bytes, big endian
	regRev    = 0x08

	magic0 = 0x46 // 'F'
	magic1 = 0x4d // 'M'
)

type conn interface {
	ReadReg(addr, reg uint8) (uint8, error)
	Close() error
}

// Device gives access to the identification EEPROM of one carrier board.
type Device struct {
	conn conn
	addr uint8
}

// Open connects to the EEPROM at addr on the given SMBus.
func Open(bus, addr int) (*Device, error) {
	c, err := smbus.Open(bus, uint8(addr))
	if err != nil {
		return nil, fmt.Errorf("eeprom: could not open smbus %d: %w", bus, err)
	}

	dev := &Device{conn: c, addr: uint8(addr)}
	err = dev.checkMagic()
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return dev, nil
}

func (dev *Device) Close() error {
	return dev.conn.Close()
}

func (dev *Device) checkMagic() error {
	m0, err := dev.conn.ReadReg(dev.addr, regMagic0)
	if err != nil {
		return fmt.Errorf("eeprom: could not read magic: %w", err)
	}
	m1, err := dev.conn.ReadReg(dev.addr, regMagic1)
	if err != nil {
		return fmt.Errorf("eeprom: could not read magic: %w", err)
	}
	if m0 != magic0 || m1 != magic1 {
		return fmt.Errorf("eeprom: invalid magic 0x%02x%02x", m0, m1)
	}
	return nil
}

// BoardID returns the board identifier stored in the EEPROM.
func (dev *Device) BoardID() (uint32, error) {
	var id uint32
	for i := uint8(0); i < 4; i++ {
		v, err := dev.conn.ReadReg(dev.addr, regID+i)
		if err != nil {
			return 0, fmt.Errorf("eeprom: could not read board-id byte %d: %w", i, err)
		}
		id = id<<8 | uint32(v)
	}
	return id, nil
}

// Revision returns the hardware revision stored in the EEPROM.
func (dev *Device) Revision() (uint8, error) {
	v, err := dev.conn.ReadReg(dev.addr, regRev)
	if err != nil {
		return 0, fmt.Errorf("eeprom: could not read revision: %w", err)
	}
	return v, nil
}
