// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ebi configures the chip-select banks of the FMC2 external-bus
// interface controller: it resolves named timing and mode properties into
// bitfield writes on the controller registers.
package ebi // import "github.com/go-fmc/fmc2/ebi"
