// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package fs20

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpiotest"
)

// event is a pin write or a sleep recorded by scope.
type event struct {
	sleep bool
	level gpio.Level
	dur   time.Duration
}

// scope is a fake pin that also acts as the Sleeper, so it sees the waveform in order.
type scope struct {
	gpiotest.Pin
	events []event
	outs   int
	failAt int // fail the n-th pin write, 0 for never
}

func newScope() *scope {
	return &scope{Pin: gpiotest.Pin{N: "GPIO17", Num: 17, L: gpio.High}}
}

func (s *scope) Out(l gpio.Level) error {
	s.outs++
	if s.failAt != 0 && s.outs == s.failAt {
		return errors.New("pin is stuck")
	}
	s.events = append(s.events, event{level: l})
	return s.Pin.Out(l)
}

func (s *scope) Sleep(d time.Duration) {
	s.events = append(s.events, event{sleep: true, dur: d})
}

// decode turns the recorded events into '0' and '1' for each pulse and 'G' for each gap.
func (s *scope) decode(t *testing.T, gap time.Duration) string {
	var sb strings.Builder
	ev := s.events
	for i := 0; i < len(ev); {
		if ev[i].sleep {
			require.Equal(t, gap, ev[i].dur, "gap at event %d", i)
			sb.WriteByte('G')
			i++
			continue
		}
		require.True(t, i+3 < len(ev), "truncated pulse at event %d", i)
		hi, w1, lo, w2 := ev[i], ev[i+1], ev[i+2], ev[i+3]
		require.False(t, hi.sleep || lo.sleep || !w1.sleep || !w2.sleep, "bad pulse at event %d", i)
		require.Equal(t, gpio.High, hi.level, "event %d", i)
		require.Equal(t, gpio.Low, lo.level, "event %d", i+2)
		require.Equal(t, w1.dur, w2.dur, "asymmetric pulse at event %d", i)
		switch w1.dur {
		case ZeroWidth:
			sb.WriteByte('0')
		case OneWidth:
			sb.WriteByte('1')
		default:
			t.Fatalf("pulse width %s at event %d", w1.dur, i)
		}
		i += 4
	}
	return sb.String()
}

func newDev(t *testing.T, s *scope, opts Opts) *Dev {
	opts.Sleeper = s
	d, err := New(s, opts)
	require.NoError(t, err)
	s.events = nil
	return d
}

// telegramBits returns the on-air bits of a telegram, i.e. without the End marker.
func telegramBits(t *testing.T, tg Telegram) string {
	b, err := Encode(tg, FS20)
	require.NoError(t, err)
	return strings.TrimSuffix(b.String(), "E")
}

func TestNew(t *testing.T) {
	s := newScope()
	var logged []string
	_, err := New(s, Opts{Sleeper: s, Logger: func(format string, v ...interface{}) {
		logged = append(logged, fmt.Sprintf(format, v...))
	}})
	require.NoError(t, err)
	require.Equal(t, gpio.Low, s.L)
	require.Equal(t, []event{{level: gpio.Low}}, s.events)
	require.NotEmpty(t, logged)
	require.True(t, strings.HasPrefix(logged[0], "fs20: "), logged[0])

	_, err = New(nil, Opts{})
	require.Equal(t, ErrNoPin, err)

	s = newScope()
	s.failAt = 1
	_, err = New(s, Opts{Sleeper: s})
	require.Error(t, err)
}

func TestTransmitReference(t *testing.T) {
	s := newScope()
	d := newDev(t, s, Opts{})
	b, err := Encode(refTelegram, FS20)
	require.NoError(t, err)

	require.NoError(t, d.Transmit(b))
	require.Equal(t, strings.TrimSuffix(refBits, "E"), s.decode(t, DefaultGap))
	require.Equal(t, gpio.Low, s.L)

	// 51 symbols, 50 of them on the air
	var total time.Duration
	for _, e := range s.events {
		total += e.dur
	}
	ones := strings.Count(refBits, "1")
	require.Equal(t, time.Duration(ones)*2*OneWidth+time.Duration(50-ones)*2*ZeroWidth, total)
}

func TestTransmitEmpty(t *testing.T) {
	s := newScope()
	d := newDev(t, s, Opts{})
	require.NoError(t, d.Transmit(&Buffer{}))
	require.Empty(t, s.events)
}

func TestTransmitStopsAtEnd(t *testing.T) {
	s := newScope()
	d := newDev(t, s, Opts{})
	var b Buffer
	for _, sym := range []Symbol{One, Zero, End, One, One, End, Zero} {
		require.NoError(t, b.Push(sym))
	}
	require.NoError(t, d.Transmit(&b))
	require.Equal(t, "10", s.decode(t, DefaultGap))
}

func TestTransmitWithoutEnd(t *testing.T) {
	s := newScope()
	d := newDev(t, s, Opts{})
	var b Buffer
	b.Push(One)
	b.Push(One)
	// the remaining 94 cleared slots must not go on the air
	require.NoError(t, d.Transmit(&b))
	require.Equal(t, "11", s.decode(t, DefaultGap))
}

func TestTransmitPinError(t *testing.T) {
	s := newScope()
	d := newDev(t, s, Opts{})
	s.failAt = s.outs + 3 // the high of the second bit
	err := d.Send(0x6342, 0x01, CmdOn)
	require.Error(t, err)
	require.Contains(t, err.Error(), "GPIO17")
	require.Equal(t, gpio.Low, s.L)
}

func TestSend(t *testing.T) {
	s := newScope()
	d := newDev(t, s, Opts{})
	require.NoError(t, d.Send(0x6342, 0x01, 0x11))
	bits := strings.TrimSuffix(refBits, "E")
	require.Equal(t, strings.Repeat(bits+"G", 3), s.decode(t, DefaultGap))
}

func TestSendOptions(t *testing.T) {
	s := newScope()
	d := newDev(t, s, Opts{Repeat: 5, Gap: 10 * time.Millisecond, Variant: FHT})
	tg := Telegram{Home: 0x1234, Addr: 0x56, Cmd: CmdOn}
	require.NoError(t, d.Send(tg.Home, tg.Addr, tg.Cmd))

	b, err := Encode(tg, FHT)
	require.NoError(t, err)
	bits := strings.TrimSuffix(b.String(), "E")
	require.Equal(t, strings.Repeat(bits+"G", 5), s.decode(t, 10*time.Millisecond))
	require.NotEqual(t, telegramBits(t, tg), bits)
}

var commands = map[string]struct {
	send func(d *Dev) error
	cmd  byte
}{
	"on":      {func(d *Dev) error { return d.Switch(0xbeef, 0x42, true) }, CmdOn},
	"off":     {func(d *Dev) error { return d.Switch(0xbeef, 0x42, false) }, CmdOff},
	"toggle":  {func(d *Dev) error { return d.Toggle(0xbeef, 0x42) }, CmdToggle},
	"dim-0":   {func(d *Dev) error { return d.Dim(0xbeef, 0x42, 0) }, CmdToggle},
	"dim-5":   {func(d *Dev) error { return d.Dim(0xbeef, 0x42, 5) }, CmdToggle},
	"dim-max": {func(d *Dev) error { return d.Dim(0xbeef, 0x42, 0x10) }, CmdToggle},
}

func TestCommands(t *testing.T) {
	for n, tc := range commands {
		s := newScope()
		d := newDev(t, s, Opts{})
		require.NoError(t, tc.send(d), n)
		bits := telegramBits(t, Telegram{Home: 0xbeef, Addr: 0x42, Cmd: tc.cmd})
		require.Equal(t, strings.Repeat(bits+"G", 3), s.decode(t, DefaultGap), n)
	}
}

func TestDimOutOfRange(t *testing.T) {
	s := newScope()
	d := newDev(t, s, Opts{})
	for _, level := range []byte{0x11, 0x20, 0xff} {
		err := d.Dim(0xbeef, 0x42, level)
		require.True(t, errors.Is(err, ErrDimLevel), "level %d: %v", level, err)
	}
	require.Empty(t, s.events)
}
