// Copyright 2016 by Thorsten von Eicken, see LICENSE file

//go:build embd

package devices

// stuff in here is a hack to be able to switch between periph and embd, build with -tags embd
// to get the embd flavor.

import (
	"fmt"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/rpi"
	"periph.io/x/periph/conn/gpio"
)

// Init initializes embd's gpio driver.
func Init() error {
	if err := embd.InitGPIO(); err != nil {
		return fmt.Errorf("embd: %v", err)
	}
	return nil
}

// OpenOut opens an embd digital pin by name, switches it to output, and drives it low.
func OpenOut(name string) (OutPin, error) {
	p, err := embd.NewDigitalPin(name)
	if err != nil {
		return nil, fmt.Errorf("NewDigitalPin: %s", err)
	}
	if err := p.SetDirection(embd.Out); err != nil {
		return nil, fmt.Errorf("pin %s: %v", name, err)
	}
	g := &gpioOut{p: p, name: name}
	if err := g.Out(gpio.Low); err != nil {
		return nil, err
	}
	return g, nil
}

//===== output pin shim for embd

type gpioOut struct {
	p    embd.DigitalPin
	name string
}

func (g *gpioOut) Out(l gpio.Level) error {
	v := embd.Low
	if l == gpio.High {
		v = embd.High
	}
	return g.p.Write(v)
}

func (g *gpioOut) String() string {
	return fmt.Sprintf("%s(%d)", g.name, g.p.N())
}
