// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package fs20

import (
	"fmt"
	"strconv"
	"strings"
)

// Request is a command in textual form, as typed on a command line or received in an MQTT
// payload: "on", "off", "toggle", "dim <level>", or "cmd <byte>" for a raw command byte.
type Request struct {
	Verb string
	Arg  byte // dim level or raw command byte
}

// Verbs understood by ParseRequest.
var Verbs = []string{"on", "off", "toggle", "dim", "cmd"}

// ParseRequest parses a request from words, e.g. ParseRequest("dim", "8") or
// ParseRequest("dim 8"). Numbers may be decimal or 0x-prefixed hex.
func ParseRequest(words ...string) (Request, error) {
	words = strings.Fields(strings.Join(words, " "))
	if len(words) == 0 {
		return Request{}, fmt.Errorf("fs20: empty request")
	}
	r := Request{Verb: strings.ToLower(words[0])}
	switch r.Verb {
	case "on", "off", "toggle":
		if len(words) != 1 {
			return Request{}, fmt.Errorf("fs20: %s takes no argument", r.Verb)
		}
	case "dim", "cmd":
		if len(words) != 2 {
			return Request{}, fmt.Errorf("fs20: %s takes one argument", r.Verb)
		}
		v, err := strconv.ParseUint(words[1], 0, 8)
		if err != nil {
			return Request{}, fmt.Errorf("fs20: cannot parse %s argument %s: %v", r.Verb, words[1], err)
		}
		r.Arg = byte(v)
	default:
		return Request{}, fmt.Errorf("fs20: unknown command %q", words[0])
	}
	return r, nil
}

func (r Request) String() string {
	switch r.Verb {
	case "dim":
		return fmt.Sprintf("dim %d", r.Arg)
	case "cmd":
		return fmt.Sprintf("cmd %#02x", r.Arg)
	}
	return r.Verb
}

// Command returns the command byte sent for the request. A dim level above 16 yields
// ErrDimLevel, as Dim would.
func (r Request) Command() (byte, error) {
	switch r.Verb {
	case "on":
		return CmdOn, nil
	case "off":
		return CmdOff, nil
	case "toggle":
		return CmdToggle, nil
	case "dim":
		if r.Arg > CmdOn {
			return 0, fmt.Errorf("%w: %d", ErrDimLevel, r.Arg)
		}
		return CmdToggle, nil
	case "cmd":
		return r.Arg, nil
	}
	return 0, fmt.Errorf("fs20: unknown command %q", r.Verb)
}

// Do performs a request for the actor at home/addr.
func (d *Dev) Do(home uint16, addr byte, r Request) error {
	switch r.Verb {
	case "on":
		return d.Switch(home, addr, true)
	case "off":
		return d.Switch(home, addr, false)
	case "toggle":
		return d.Toggle(home, addr)
	case "dim":
		return d.Dim(home, addr, r.Arg)
	case "cmd":
		return d.Send(home, addr, r.Arg)
	}
	return fmt.Errorf("fs20: unknown command %q", r.Verb)
}
