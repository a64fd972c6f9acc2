// Copyright 2016 by Thorsten von Eicken, see LICENSE file

//go:build !embd

package devices

import (
	"fmt"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

// Init loads the periph host drivers. It must be called once before OpenOut.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph: %v", err)
	}
	return nil
}

// OpenOut looks up a gpio pin by name (e.g. "GPIO17" or "XIO-P0") and drives it low.
func OpenOut(name string) (OutPin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("cannot open pin %s", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("pin %s: %v", name, err)
	}
	return p, nil
}
