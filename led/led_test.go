// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package led

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpiotest"
)

func TestBank(t *testing.T) {
	var b Bank
	pins := make([]*gpiotest.Pin, Max)
	for i := range pins {
		pins[i] = &gpiotest.Pin{N: fmt.Sprintf("GPIO%d", i), Num: i, L: gpio.High}
		n, err := b.Insert(pins[i])
		require.NoError(t, err)
		require.Equal(t, i+1, n)
		require.Equal(t, gpio.Low, pins[i].L, "inserted LED must be off")
	}
	_, err := b.Insert(&gpiotest.Pin{N: "GPIO99"})
	require.Equal(t, ErrFull, err)
	require.Equal(t, Max, b.Len())

	require.NoError(t, b.On(3))
	require.Equal(t, gpio.High, pins[2].L)
	require.True(t, b.State(3))
	require.False(t, b.State(2))

	require.NoError(t, b.Toggle(3))
	require.Equal(t, gpio.Low, pins[2].L)
	require.NoError(t, b.Toggle(3))
	require.Equal(t, gpio.High, pins[2].L)
	require.NoError(t, b.Off(3))
	require.False(t, b.State(3))

	require.NoError(t, b.SwitchPower(Max, true))
	require.Equal(t, gpio.High, pins[Max-1].L)
}

func TestRange(t *testing.T) {
	var b Bank
	_, err := b.Insert(&gpiotest.Pin{N: "GPIO4", Num: 4})
	require.NoError(t, err)
	for _, i := range []int{-1, 0, 2, Max + 1} {
		require.True(t, errors.Is(b.On(i), ErrRange), "LED %d", i)
		require.True(t, errors.Is(b.Toggle(i), ErrRange), "LED %d", i)
		require.False(t, b.State(i))
	}
}
