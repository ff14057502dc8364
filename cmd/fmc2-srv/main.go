// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fmc2-srv exposes the FMC2 EBI controller as a TDAQ process, so
// the bank configuration can be driven from a run-control session.
package main // import "github.com/go-fmc/fmc2/cmd/fmc2-srv"

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"

	"github.com/go-fmc/fmc2/ebi"
)

const (
	devmem = "/dev/mem"
	base   = 0x58002000
	rate   = 100000000 // Hz
)

func main() {
	cmd := flags.New()
	if len(cmd.Args) != 1 {
		log.Fatalf("usage: fmc2-srv [tdaq-flags] <config.json>")
	}

	dev := server{
		fname: cmd.Args[0],
	}

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

type server struct {
	fname string
	cfg   *ebi.Config
	ctl   *ebi.Controller
}

func (dev *server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	cfg, err := ebi.LoadConfig(dev.fname)
	if err != nil {
		return fmt.Errorf("could not load config %q: %w", dev.fname, err)
	}
	dev.cfg = cfg
	ctx.Msg.Infof("loaded %d bank(s) from %q", len(cfg.Banks), dev.fname)
	return nil
}

func (dev *server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	if dev.cfg == nil {
		return fmt.Errorf("no bank configuration loaded")
	}

	clk := ebi.ClockFunc(func() uint64 { return rate })
	ctl, err := ebi.Open(devmem, base, clk, new(ebi.Shared))
	if err != nil {
		return fmt.Errorf("could not open FMC2 controller: %w", err)
	}

	err = ctl.Configure(dev.cfg)
	if err != nil {
		_ = ctl.Close()
		return fmt.Errorf("could not apply bank configuration: %w", err)
	}
	dev.ctl = ctl
	return nil
}

func (dev *server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	if dev.ctl == nil {
		return nil
	}
	dev.ctl.Remove()
	err := dev.ctl.Configure(dev.cfg)
	if err != nil {
		return fmt.Errorf("could not re-apply bank configuration: %w", err)
	}
	return nil
}

func (dev *server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	if dev.ctl == nil {
		return fmt.Errorf("controller not initialized")
	}
	return dev.ctl.Resume()
}

func (dev *server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command...")
	if dev.ctl == nil {
		return fmt.Errorf("controller not initialized")
	}
	return dev.ctl.Suspend()
}

func (dev *server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	if dev.ctl == nil {
		return nil
	}
	err := dev.ctl.Close()
	dev.ctl = nil
	return err
}
