// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ebi

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config describes the chip-select banks attached to one FMC2 EBI
// controller.
type Config struct {
	Banks []Bank `json:"banks"`
}

// Bank holds the named properties of one chip-select bank. Boolean
// properties are set by their presence in Flags, whatever their value.
// Scalar properties carry either raw field values or, for names ending
// in "-ns", durations in nanoseconds.
type Bank struct {
	Slot  uint32            `json:"slot"`
	Flags []string          `json:"flags,omitempty"`
	Props map[string]uint32 `json:"props,omitempty"`
}

func (b *Bank) flag(name string) bool {
	for _, f := range b.Flags {
		if f == name {
			return true
		}
	}
	return false
}

func (b *Bank) prop(name string) (uint32, bool) {
	v, ok := b.Props[name]
	return v, ok
}

// Transaction profiles for the "transaction-type" property.
const (
	AsyncMode1SRAM uint32 = iota
	AsyncMode1PSRAM
	AsyncModeASRAM
	AsyncModeAPSRAM
	AsyncMode2NOR
	AsyncModeBNOR
	AsyncModeCNOR
	AsyncModeDNOR
	SyncReadSyncWritePSRAM
	SyncReadAsyncWritePSRAM
	SyncReadSyncWriteNOR
	SyncReadAsyncWriteNOR
)

// LoadConfig reads a bank configuration from the JSON file fname.
func LoadConfig(fname string) (*Config, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("ebi: could not open config file %q: %w", fname, err)
	}
	defer f.Close()

	var cfg Config
	err = json.NewDecoder(f).Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("ebi: could not decode config file %q: %w", fname, err)
	}
	return &cfg, nil
}
