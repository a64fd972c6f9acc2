// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// The fs20 package drives an FS20 transmitter module, such as the ELV TX868-75, connected to a
// gpio pin.
//
// FS20 is the 868.35Mhz home automation protocol used by ELV/eQ-3 wireless power switches and
// dimmers. The transmitter module does 100% ASK modulation: its data input keys the carrier on and
// off, so the driver produces the bit stream in software by toggling the pin and timing the
// pulses. A zero bit is 400us high followed by 400us low, a one bit is 600us high and 600us low.
//
// A telegram consists of 12 zero sync bits, a one start bit, the two home code bytes, the
// address byte, the command byte, and a checksum byte, each byte sent MSB first and followed by
// a parity bit, and finally a zero end bit:
//
//   Sync:12 - 1 - HC1:8 P - HC2:8 P - Addr:8 P - Cmd:8 P - Sum:8 P - 0
//
// There is no acknowledgment, so Send repeats the telegram (3 times by default) with a short
// pause after each copy.
//
// The transmit functions block for the duration of the waveform, which is about 60ms per
// telegram. The timing is only as good as the Sleeper: the default spins on the CPU, and the
// tools in this repo additionally move the transmitting goroutine to a realtime thread (see the
// thread package). Jitter is not detected.
//
// A Dev may be used from multiple goroutines, transmissions are serialized.
package fs20

import (
	"errors"
	"fmt"
	"sync"
	"time"

	devices "github.com/tve/fs20devices"
	"periph.io/x/periph/conn/gpio"
)

// Pulse widths. Each bit is the pulse width high followed by the same width low.
const (
	ZeroWidth = 400 * time.Microsecond
	OneWidth  = 600 * time.Microsecond
)

// Defaults for Opts.
const (
	DefaultRepeat = 3
	DefaultGap    = 8000 * time.Microsecond
)

// Errors returned by the driver.
var (
	ErrNoPin    = errors.New("fs20: no data pin")
	ErrDimLevel = errors.New("fs20: dim level out of range")
)

// LogPrintf is a function used by the driver to print logging info.
type LogPrintf func(format string, v ...interface{})

// Opts contains options used when initializing a Dev. The zero value is valid.
type Opts struct {
	Variant Variant         // protocol variant, FS20 if zero
	Repeat  int             // number of copies sent by Send, DefaultRepeat if zero
	Gap     time.Duration   // pause after each copy, DefaultGap if zero
	Sleeper devices.Sleeper // delay primitive, devices.Spin if nil
	Logger  LogPrintf       // function to use for logging
}

// Dev represents an FS20 transmitter attached to a gpio pin.
type Dev struct {
	pin     devices.OutPin
	variant Variant
	repeat  int
	gap     time.Duration
	sleep   devices.Sleeper
	log     LogPrintf

	mu  sync.Mutex // serializes transmissions
	buf Buffer     // telegram being sent
}

// New initializes a Dev and drives the data pin low. The returned error reflects whether the pin
// could actually be driven.
func New(pin devices.OutPin, opts Opts) (*Dev, error) {
	if pin == nil {
		return nil, ErrNoPin
	}
	d := &Dev{
		pin:     pin,
		variant: opts.Variant,
		repeat:  opts.Repeat,
		gap:     opts.Gap,
		sleep:   opts.Sleeper,
		log:     func(format string, v ...interface{}) {},
	}
	if d.variant == 0 {
		d.variant = FS20
	}
	if d.repeat <= 0 {
		d.repeat = DefaultRepeat
	}
	if d.gap <= 0 {
		d.gap = DefaultGap
	}
	if d.sleep == nil {
		d.sleep = devices.Spin{}
	}
	if opts.Logger != nil {
		d.log = func(format string, v ...interface{}) {
			opts.Logger("fs20: "+format, v...)
		}
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("fs20: cannot drive %s: %w", pin, err)
	}
	d.log("%s transmitter on %s, %d copies, %s gap", d.variant, pin, d.repeat, d.gap)
	return d, nil
}

// Send transmits a telegram with the raw command byte, repeated as configured. Each copy is
// followed by the configured gap.
func (d *Dev) Send(home uint16, addr, cmd byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t := Telegram{Home: home, Addr: addr, Cmd: cmd}
	d.log("send %s", t)
	for i := 0; i < d.repeat; i++ {
		if err := d.buf.Assemble(t, d.variant); err != nil {
			return err
		}
		if err := d.transmit(&d.buf); err != nil {
			return err
		}
		d.sleep.Sleep(d.gap)
	}
	return nil
}

// Switch turns an actor on or off.
func (d *Dev) Switch(home uint16, addr byte, on bool) error {
	if on {
		return d.Send(home, addr, CmdOn)
	}
	return d.Send(home, addr, CmdOff)
}

// Toggle toggles an actor between on and off.
func (d *Dev) Toggle(home uint16, addr byte) error {
	return d.Send(home, addr, CmdToggle)
}

// Dim accepts a level in the range 0..16 (0x10) and, for now, sends a toggle command. Levels
// above 16 are rejected with ErrDimLevel and nothing is sent.
// TODO: send the level as dim command once the mapping for 0 and 16 is confirmed on real dimmers.
func (d *Dev) Dim(home uint16, addr byte, level byte) error {
	if level > CmdOn {
		return fmt.Errorf("%w: %d", ErrDimLevel, level)
	}
	return d.Send(home, addr, CmdToggle)
}

// Transmit sends the contents of a buffer once, stopping at the End marker or at the end of
// the pushed symbols. It does nothing for an empty buffer.
func (d *Dev) Transmit(b *Buffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transmit(b)
}

func (d *Dev) transmit(b *Buffer) error {
	for _, s := range b.Symbols() {
		var w time.Duration
		switch s {
		case Zero:
			w = ZeroWidth
		case One:
			w = OneWidth
		case End:
			return nil
		default:
			continue
		}
		if err := d.pin.Out(gpio.High); err != nil {
			d.pin.Out(gpio.Low)
			return fmt.Errorf("fs20: tx on %s: %w", d.pin, err)
		}
		d.sleep.Sleep(w)
		if err := d.pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("fs20: tx on %s: %w", d.pin, err)
		}
		d.sleep.Sleep(w)
	}
	return nil
}
