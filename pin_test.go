// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package devices

import (
	"testing"
	"time"

	"periph.io/x/periph/conn/gpio/gpiotest"
)

// the fakes used by the driver tests must keep satisfying OutPin
var _ OutPin = &gpiotest.Pin{}

func TestSleepers(t *testing.T) {
	for n, s := range map[string]Sleeper{"spin": Spin{}, "relaxed": Relaxed{}} {
		t0 := time.Now()
		s.Sleep(400 * time.Microsecond)
		if dt := time.Since(t0); dt < 400*time.Microsecond {
			t.Errorf("%s: slept %s, expected at least 400us", n, dt)
		}
	}
}
