// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package fs20

import (
	"fmt"
	"strings"
)

// SyncBits is the number of zero bits preceding the start bit of a telegram. Receivers use them
// to detect the carrier.
const SyncBits = 12

// Variant selects the flavor of the protocol. The variants only differ in the checksum base.
type Variant byte

// Protocol variants.
const (
	FS20 Variant = 0x06 // switches, dimmers, etc
	FHT  Variant = 0x0C // heating controllers
)

func (v Variant) String() string {
	switch v {
	case FS20:
		return "FS20"
	case FHT:
		return "FHT"
	}
	return fmt.Sprintf("Variant(%#02x)", byte(v))
}

// ParseVariant parses a variant name, "fs20" or "fht" in any case. The empty string is FS20.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(s) {
	case "fs20", "":
		return FS20, nil
	case "fht":
		return FHT, nil
	}
	return 0, fmt.Errorf("fs20: unknown protocol variant %q", s)
}

// Commands, i.e. values of the command byte.
//
// Values 0x01 through 0x0F dim to n*6.25%.
const (
	CmdOff       = 0x00 // off
	CmdDimMin    = 0x01 // 6.25%
	CmdDimMax    = 0x0F // 93.75%
	CmdOn        = 0x10 // on, 100%
	CmdOnPrev    = 0x11 // on at the previous dim level
	CmdToggle    = 0x12 // toggle on/off
	CmdDimUp     = 0x13 // one dim step up
	CmdDimDown   = 0x14 // one dim step down
	CmdDimUpDown = 0x15 // dim up and down
	CmdReset     = 0x1B // reset to factory state
)

var cmdNames = map[byte]string{
	CmdOff:       "off",
	CmdOn:        "on",
	CmdOnPrev:    "on-prev",
	CmdToggle:    "toggle",
	CmdDimUp:     "dim-up",
	CmdDimDown:   "dim-down",
	CmdDimUpDown: "dim-updown",
	CmdReset:     "reset",
}

// CommandName returns a short name for a command byte, used in logs and MQTT messages.
func CommandName(cmd byte) string {
	if n, ok := cmdNames[cmd]; ok {
		return n
	}
	if cmd >= CmdDimMin && cmd <= CmdDimMax {
		return fmt.Sprintf("dim-%d", cmd)
	}
	return fmt.Sprintf("cmd-%#02x", cmd)
}

// Telegram is one FS20 message.
//
// The home code selects a group of receivers. The high nibble of the address selects the
// function group (0xF=master) and the low nibble the sub-address (0xF=all).
type Telegram struct {
	Home uint16
	Addr byte
	Cmd  byte
}

// Addr combines a function group and a sub-address into an address byte.
func Addr(group, sub byte) byte { return group<<4 | sub&0xf }

// Group returns the function group of the address.
func (t Telegram) Group() byte { return t.Addr >> 4 }

// Sub returns the sub-address of the address.
func (t Telegram) Sub() byte { return t.Addr & 0xf }

func (t Telegram) String() string {
	return fmt.Sprintf("home=%#04x addr=%#02x cmd=%s", t.Home, t.Addr, CommandName(t.Cmd))
}

// Checksum returns the checksum byte of a telegram for the variant: the 8-bit sum of the variant
// base, both home code bytes, the address and the command.
func Checksum(t Telegram, v Variant) byte {
	return byte(v) + byte(t.Home>>8) + byte(t.Home) + t.Addr + t.Cmd
}

// Assemble resets the buffer and fills it with the complete bit sequence of a telegram:
// sync bits, start bit, home code (high byte first), address, command, checksum, each byte
// followed by its parity bit, then a zero end bit and the End marker.
func (b *Buffer) Assemble(t Telegram, v Variant) error {
	b.Reset()
	for i := 0; i < SyncBits; i++ {
		if err := b.Push(Zero); err != nil {
			return fmt.Errorf("fs20: assembling sync: %w", err)
		}
	}
	if err := b.Push(One); err != nil {
		return fmt.Errorf("fs20: assembling start bit: %w", err)
	}
	for _, by := range []byte{byte(t.Home >> 8), byte(t.Home), t.Addr, t.Cmd, Checksum(t, v)} {
		if err := b.PushByte(by); err != nil {
			return fmt.Errorf("fs20: assembling %#02x: %w", by, err)
		}
	}
	if err := b.Push(Zero); err != nil {
		return fmt.Errorf("fs20: assembling end bit: %w", err)
	}
	if err := b.Push(End); err != nil {
		return fmt.Errorf("fs20: assembling end marker: %w", err)
	}
	return nil
}

// Encode returns a freshly assembled buffer for the telegram.
func Encode(t Telegram, v Variant) (*Buffer, error) {
	b := &Buffer{}
	if err := b.Assemble(t, v); err != nil {
		return nil, err
	}
	return b, nil
}
