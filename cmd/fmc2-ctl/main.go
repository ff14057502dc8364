// Copyright 2021 The go-fmc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fmc2-ctl (re)starts and babysits the FMC2 service processes.
// A process that dies unexpectedly is reported by mail and restarted.
package main // import "github.com/go-fmc/fmc2/cmd/fmc2-ctl"

import (
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sbinet/pmon"
	"golang.org/x/sync/errgroup"
	mail "gopkg.in/gomail.v2"
)

var (
	doMon  = flag.Bool("pmon", false, "enable pmon monitoring")
	doFreq = flag.Duration("freq", 1*time.Second, "pmon frequency")
	logdir = flag.String("logdir", "/var/log/fmc2", "directory for process logs")

	stop = make(chan os.Signal, 1)
)

const maxRestarts = 5

func main() {
	flag.Parse()

	log.SetPrefix("fmc2-ctl: ")
	log.SetFlags(0)

	names := flag.Args()
	if len(names) == 0 {
		names = []string{"fmc2-srv"}
	}

	err := run(*doMon, *doFreq, names, *logdir, stop)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(doMon bool, freq time.Duration, names []string, dir string, stop chan os.Signal) error {
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)

	for _, name := range names {
		kill := exec.Command("killall", filepath.Base(name))
		kill.Stderr = os.Stderr
		kill.Stdout = os.Stdout
		err := kill.Run()
		if err != nil {
			log.Printf("could not kill %q: %+v", name, err)
		}
	}

	var (
		grp  errgroup.Group
		kill = make(chan int)
	)
	for i := range names {
		name := names[i]
		grp.Go(func() error {
			return babysit(name, dir, kill, doMon, freq)
		})
	}

	go func() {
		<-stop
		close(kill)
	}()

	err := grp.Wait()
	if err != nil {
		return fmt.Errorf("could not run FMC2 services: %w", err)
	}
	return nil
}

func babysit(name, dir string, kill chan int, doMon bool, freq time.Duration) error {
	for i := 0; i < maxRestarts; i++ {
		err := start(name, dir, kill, doMon, freq)
		if err == nil {
			return nil
		}
		select {
		case <-kill:
			return nil
		default:
		}
		log.Printf("process %q died (restart %d/%d): %+v", name, i+1, maxRestarts, err)
		alertMail(name, i+1, err)
	}
	return fmt.Errorf("process %q keeps dying, giving up", name)
}

func start(name, dir string, kill chan int, doMon bool, freq time.Duration) error {
	base := filepath.Base(name)
	out, err := os.Create(filepath.Join(dir, base+".log"))
	if err != nil {
		return fmt.Errorf("could not create output log file for %q: %w", name, err)
	}
	defer out.Close()

	cmd := exec.Command(name)
	cmd.Stdout = out
	cmd.Stderr = out

	log.Printf("starting %q...", name)
	err = cmd.Start()
	if err != nil {
		return fmt.Errorf("could not start %q: %w", name, err)
	}

	if doMon {
		p, err := pmon.Monitor(cmd.Process.Pid)
		if err != nil {
			return fmt.Errorf("could not start monitoring %q (pid=%d): %w", name, cmd.Process.Pid, err)
		}
		f, err := os.Create(filepath.Join(dir, base+"-pmon.log"))
		if err != nil {
			return fmt.Errorf("could not create pmon log file for command %q: %w", name, err)
		}
		defer f.Close()
		p.W = f
		p.Freq = freq

		go func() {
			log.Printf("run pmon %q...", name)
			err := p.Run()
			if err != nil {
				log.Printf("could not start monitoring %q: %+v", name, err)
			}
		}()

		defer func() {
			err := p.Kill()
			if err != nil {
				log.Printf("could not stop monitoring %q: %+v", name, err)
			}
		}()
	}

	errch := make(chan error)
	go func() {
		errch <- cmd.Wait()
	}()

	select {
	case <-kill:
		err = cmd.Process.Kill()
		if err != nil {
			return fmt.Errorf("could not kill %q: %+v", name, err)
		}
	case err = <-errch:
		if err != nil {
			return fmt.Errorf("could not run %q: %w", name, err)
		}
	}

	return nil
}

var (
	alertMailUsr  = os.Getenv("MAIL_USERNAME")
	alertMailPwd  = os.Getenv("MAIL_PASSWORD")
	alertMailSrv  = os.Getenv("MAIL_SERVER")
	alertMailPort = atoi(os.Getenv("MAIL_PORT"))
	alertMailTgts = strings.Split(os.Getenv("MAIL_TGTS"), ",")
)

func alertMail(name string, restart int, cause error) {
	if alertMailUsr == "" || alertMailPwd == "" ||
		alertMailSrv == "" || alertMailPort == 0 ||
		len(alertMailTgts) == 0 {
		log.Printf("could not send mail alert: missing credentials")
		return
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", alertMailUsr)
	msg.SetHeader("Bcc", alertMailTgts...)
	msg.SetHeader("Subject", fmt.Sprintf("[fmc2-ctl] process alert: %q", name))
	msg.SetBody("text/plain", fmt.Sprintf("process: %q\nrestart: %d/%d\ncause: %+v",
		name, restart, maxRestarts, cause,
	))

	dial := mail.NewDialer(alertMailSrv, alertMailPort, alertMailUsr, alertMailPwd)
	dial.TLSConfig = &tls.Config{
		InsecureSkipVerify: true,
	}
	err := dial.DialAndSend(msg)
	if err != nil {
		log.Printf("could not send mail alert: %+v", err)
	}
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
