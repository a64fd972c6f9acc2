// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package devices

import (
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/host/cpu"
)

// OutPin is the part of a gpio pin the drivers in this repo need: drive it to a level. A
// periph gpio.PinOut satisfies it, so does the embd shim.
type OutPin interface {
	Out(l gpio.Level) error
	String() string
}

// Sleeper pauses the caller for a duration. Waveform generators use it between pin writes, so
// its accuracy directly determines the accuracy of the waveform.
type Sleeper interface {
	Sleep(d time.Duration)
}

// Spin is a Sleeper using periph's cpu.Nanospin. The Go scheduler easily overshoots a
// time.Sleep of a few hundred microseconds by a lot, Nanospin doesn't go through the scheduler
// (it can still get preempted, see the thread package).
type Spin struct{}

// Sleep waits for d.
func (Spin) Sleep(d time.Duration) { cpu.Nanospin(d) }

// Relaxed is a Sleeper using time.Sleep, only suitable for coarse timing.
type Relaxed struct{}

// Sleep sleeps for d.
func (Relaxed) Sleep(d time.Duration) { time.Sleep(d) }
