// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ebi

import "errors"

var (
	// ErrMissingProperty is returned when a mandatory property is not
	// defined in the bank configuration.
	ErrMissingProperty = errors.New("ebi: mandatory property missing")

	// ErrInvalidValue is returned when a property carries a value outside
	// its supported enumeration.
	ErrInvalidValue = errors.New("ebi: invalid property value")

	// ErrResourceConflict is returned when the NWAIT wait line is claimed
	// by more than one enabled bank system-wide.
	ErrResourceConflict = errors.New("ebi: NWAIT signal already in use")

	// ErrSlotAssigned is returned when two banks claim the same
	// chip-select slot.
	ErrSlotAssigned = errors.New("ebi: chip-select already assigned")

	// ErrSlotRange is returned when a bank names a chip-select slot the
	// controller does not have.
	ErrSlotRange = errors.New("ebi: chip-select out of range")

	// ErrNoBankConfig is returned when the configuration holds no bank at
	// all.
	ErrNoBankConfig = errors.New("ebi: no bank configuration found")

	// ErrClock is returned when the bus clock is missing or reports a
	// zero rate.
	ErrClock = errors.New("ebi: bus clock unavailable")
)
