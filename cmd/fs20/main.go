// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

// Command fs20 sends FS20 commands through a transmitter module attached to a gpio pin.
//
//	fs20 -pin GPIO17 -home 0x6342 -addr 0x01 on
//	fs20 -home 0x6342 -addr 0x01 dim 8
//	fs20 -home 0x6342 -addr 0x01 dump
//	fs20 -i
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"
	devices "github.com/tve/fs20devices"
	"github.com/tve/fs20devices/fs20"
	"github.com/tve/fs20devices/led"
	"github.com/tve/fs20devices/thread"
)

// transmitter bundles the FS20 device with an optional LED that is lit while sending.
type transmitter struct {
	dev  *fs20.Dev
	leds *led.Bank
}

func (tx *transmitter) do(home uint16, addr byte, req fs20.Request) error {
	if tx.leds != nil {
		tx.leds.On(1)
		defer tx.leds.Off(1)
	}
	t0 := time.Now()
	err := tx.dev.Do(home, addr, req)
	glog.V(1).Infof("%s to home=%#04x addr=%#02x took %.1fms", req, home, addr,
		time.Since(t0).Seconds()*1000)
	return err
}

func parseCode(name, s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %s %s: %s", name, s, err)
	}
	return v, nil
}

func mainImpl() error {
	pinName := flag.String("pin", "GPIO17", "gpio pin connected to the transmitter's data input")
	homeStr := flag.String("home", "0x0000", "home code, 16 bits")
	addrStr := flag.String("addr", "0x00", "address byte, function group and sub-address")
	repeat := flag.Int("repeat", fs20.DefaultRepeat, "number of copies of each telegram")
	gap := flag.Duration("gap", fs20.DefaultGap, "pause after each copy")
	variantStr := flag.String("variant", "fs20", "protocol variant: fs20 or fht")
	ledPin := flag.String("led", "", "gpio pin of an LED to light while transmitting")
	rt := flag.Bool("rt", true, "transmit from a realtime thread")
	interactive := flag.Bool("i", false, "interactive shell")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] on|off|toggle|dim <level>|cmd <byte>|dump\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	defer glog.Flush()

	home, err := parseCode("home code", *homeStr, 16)
	if err != nil {
		return err
	}
	addr, err := parseCode("address", *addrStr, 8)
	if err != nil {
		return err
	}
	variant, err := fs20.ParseVariant(*variantStr)
	if err != nil {
		return err
	}

	// Work out what to do before touching any hardware.
	var req fs20.Request
	if !*interactive {
		if flag.NArg() == 0 {
			flag.Usage()
			return errors.New("no command given")
		}
		if flag.Arg(0) == "dump" {
			for _, cmd := range []byte{fs20.CmdOff, fs20.CmdOn, fs20.CmdToggle} {
				tg := fs20.Telegram{Home: uint16(home), Addr: byte(addr), Cmd: cmd}
				b, err := fs20.Encode(tg, variant)
				if err != nil {
					return err
				}
				fmt.Printf("%-8s sum=%#02x %s\n", fs20.CommandName(cmd), fs20.Checksum(tg, variant), b)
			}
			return nil
		}
		if req, err = fs20.ParseRequest(flag.Args()...); err != nil {
			return err
		}
	}

	if err := devices.Init(); err != nil {
		return err
	}
	pin, err := devices.OpenOut(*pinName)
	if err != nil {
		return err
	}
	var logger fs20.LogPrintf
	if glog.V(2) {
		logger = glog.Infof
	}
	dev, err := fs20.New(pin, fs20.Opts{Variant: variant, Repeat: *repeat, Gap: *gap, Logger: logger})
	if err != nil {
		return err
	}
	tx := &transmitter{dev: dev}
	if *ledPin != "" {
		p, err := devices.OpenOut(*ledPin)
		if err != nil {
			return err
		}
		tx.leds = &led.Bank{}
		if _, err := tx.leds.Insert(p); err != nil {
			return err
		}
	}

	if *rt {
		if err := thread.Realtime(0); err != nil {
			glog.Warningf("cannot switch to realtime scheduling, timing may suffer: %s", err)
		}
		defer thread.Normal()
	}

	if *interactive {
		return runShell(tx, uint16(home), byte(addr))
	}
	return tx.do(uint16(home), byte(addr), req)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "fs20: %s.\n", err)
		os.Exit(1)
	}
}
