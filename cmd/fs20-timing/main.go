// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

// Command fs20-timing bit-bangs FS20 pulses on a gpio pin and reports how far the actual pulse
// widths stray from the nominal ones. Hook up a scope to see the waveform, or just run it to
// compare the sleepers and the effect of realtime scheduling:
//
//	fs20-timing -pin GPIO17 -n 2000 -sleeper spin -rt
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	devices "github.com/tve/fs20devices"
	"github.com/tve/fs20devices/fs20"
	"github.com/tve/fs20devices/thread"
	"periph.io/x/periph/conn/gpio"
)

// stats summarizes the deviation of measured half-bits from the nominal width.
type stats struct {
	n        int
	min, max time.Duration // extreme deviations
	sum      time.Duration // of absolute deviations
}

func (s *stats) add(d time.Duration) {
	if s.n == 0 || d < s.min {
		s.min = d
	}
	if s.n == 0 || d > s.max {
		s.max = d
	}
	if d < 0 {
		d = -d
	}
	s.sum += d
	s.n++
}

func (s *stats) String() string {
	if s.n == 0 {
		return "no samples"
	}
	return fmt.Sprintf("%d half-bits, deviation min %s max %s mean abs %s",
		s.n, s.min, s.max, s.sum/time.Duration(s.n))
}

// measure sends n pulses of width w (high then low) and records how long each half took.
func measure(pin devices.OutPin, sl devices.Sleeper, now func() time.Time, w time.Duration, n int) (*stats, error) {
	s := &stats{}
	for i := 0; i < n; i++ {
		t0 := now()
		if err := pin.Out(gpio.High); err != nil {
			return s, err
		}
		sl.Sleep(w)
		t1 := now()
		if err := pin.Out(gpio.Low); err != nil {
			return s, err
		}
		sl.Sleep(w)
		t2 := now()
		s.add(t1.Sub(t0) - w)
		s.add(t2.Sub(t1) - w)
	}
	return s, nil
}

func sleeper(name string) (devices.Sleeper, error) {
	switch name {
	case "spin":
		return devices.Spin{}, nil
	case "sleep":
		return devices.Relaxed{}, nil
	}
	return nil, fmt.Errorf("unknown sleeper %s, use spin or sleep", name)
}

func mainImpl() error {
	pinName := flag.String("pin", "GPIO17", "gpio pin to write to")
	n := flag.Int("n", 1000, "number of pulses per width")
	slName := flag.String("sleeper", "spin", "delay primitive: spin or sleep")
	rt := flag.Bool("rt", false, "run from a realtime thread")
	flag.Parse()
	defer glog.Flush()
	if *n < 1 {
		return errors.New("-n must be positive")
	}
	sl, err := sleeper(*slName)
	if err != nil {
		return err
	}

	if err := devices.Init(); err != nil {
		return err
	}
	p, err := devices.OpenOut(*pinName)
	if err != nil {
		return err
	}
	if *rt {
		if err := thread.Realtime(0); err != nil {
			return err
		}
		defer thread.Normal()
	}

	for _, w := range []time.Duration{fs20.ZeroWidth, fs20.OneWidth} {
		glog.V(1).Infof("sending %d pulses of %s on %s", *n, w, p)
		s, err := measure(p, sl, time.Now, w, *n)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", w, s)
	}
	return p.Out(gpio.Low)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "fs20-timing: %s.\n", err)
		os.Exit(1)
	}
}
