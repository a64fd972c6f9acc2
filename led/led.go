// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// The led package manages a small bank of LEDs, each attached to its own gpio pin, and remembers
// whether each one is on so it can be toggled without reading the pin back.
//
// LEDs are numbered from 1 in the order they are inserted, matching the labels usually printed
// next to them.
package led

import (
	"errors"
	"fmt"

	devices "github.com/tve/fs20devices"
	"periph.io/x/periph/conn/gpio"
)

// Max is the number of LEDs a Bank can hold.
const Max = 8

// Errors returned by Bank.
var (
	ErrFull  = errors.New("led: bank is full")
	ErrRange = errors.New("led: no such LED")
)

// Bank is a set of up to Max LEDs. The zero value is an empty bank.
type Bank struct {
	pins [Max]devices.OutPin
	on   [Max]bool
	n    int
}

// Insert adds an LED, switches it off, and returns its number.
func (b *Bank) Insert(pin devices.OutPin) (int, error) {
	if b.n >= Max {
		return 0, ErrFull
	}
	if err := pin.Out(gpio.Low); err != nil {
		return 0, fmt.Errorf("led: %s: %w", pin, err)
	}
	b.pins[b.n] = pin
	b.on[b.n] = false
	b.n++
	return b.n, nil
}

// Len returns the number of LEDs in the bank.
func (b *Bank) Len() int { return b.n }

// SwitchPower turns LED i on or off.
func (b *Bank) SwitchPower(i int, on bool) error {
	if i < 1 || i > b.n {
		return fmt.Errorf("%w: %d", ErrRange, i)
	}
	i--
	if err := b.pins[i].Out(gpio.Level(on)); err != nil {
		return fmt.Errorf("led: %s: %w", b.pins[i], err)
	}
	b.on[i] = on
	return nil
}

// On turns LED i on.
func (b *Bank) On(i int) error { return b.SwitchPower(i, true) }

// Off turns LED i off.
func (b *Bank) Off(i int) error { return b.SwitchPower(i, false) }

// Toggle flips LED i.
func (b *Bank) Toggle(i int) error {
	if i < 1 || i > b.n {
		return fmt.Errorf("%w: %d", ErrRange, i)
	}
	return b.SwitchPower(i, !b.on[i-1])
}

// State returns whether LED i is on, LEDs that don't exist are off.
func (b *Bank) State(i int) bool {
	if i < 1 || i > b.n {
		return false
	}
	return b.on[i-1]
}
