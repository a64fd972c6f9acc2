// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"
	"github.com/tve/fs20devices/fs20"
)

// session is the state of the interactive shell: the actor commands go to.
type session struct {
	tx   *transmitter
	home uint16
	addr byte
}

func (s *session) prompt() string {
	return fmt.Sprintf("[%#04x/%#02x] > ", s.home, s.addr)
}

// sendCmd returns the shell command for one of the fs20 request verbs.
func (s *session) sendCmd(verb, help string) *ishell.Cmd {
	return &ishell.Cmd{
		Name: verb,
		Help: help,
		Func: func(c *ishell.Context) {
			req, err := fs20.ParseRequest(append([]string{verb}, c.Args...)...)
			if err != nil {
				c.Err(err)
				return
			}
			if err := s.tx.do(s.home, s.addr, req); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	}
}

// setCmd returns a shell command that changes the home code or the address.
func (s *session) setCmd(name string, bits int, set func(v uint64)) *ishell.Cmd {
	return &ishell.Cmd{
		Name: name,
		Help: fmt.Sprintf("set the %s (%d bits)", name, bits),
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: %s <value>", name))
				return
			}
			v, err := strconv.ParseUint(c.Args[0], 0, bits)
			if err != nil {
				c.Err(err)
				return
			}
			set(v)
			c.SetPrompt(s.prompt())
		},
	}
}

func runShell(tx *transmitter, home uint16, addr byte) error {
	s := &session{tx: tx, home: home, addr: addr}
	sh := ishell.New()
	sh.SetPrompt(s.prompt())

	sh.AddCmd(s.sendCmd("on", "switch the actor on"))
	sh.AddCmd(s.sendCmd("off", "switch the actor off"))
	sh.AddCmd(s.sendCmd("toggle", "toggle the actor"))
	sh.AddCmd(s.sendCmd("dim", "LEVEL: dim the actor, 0..16"))
	sh.AddCmd(s.sendCmd("cmd", "BYTE: send a raw command byte"))
	sh.AddCmd(s.setCmd("home", 16, func(v uint64) { s.home = uint16(v) }))
	sh.AddCmd(s.setCmd("addr", 8, func(v uint64) { s.addr = byte(v) }))
	sh.AddCmd(&ishell.Cmd{
		Name: "dump",
		Help: "print the bits of the telegram for a command byte",
		Func: func(c *ishell.Context) {
			cmd := uint64(fs20.CmdToggle)
			if len(c.Args) > 0 {
				var err error
				if cmd, err = strconv.ParseUint(c.Args[0], 0, 8); err != nil {
					c.Err(err)
					return
				}
			}
			b, err := fs20.Encode(fs20.Telegram{Home: s.home, Addr: s.addr, Cmd: byte(cmd)}, fs20.FS20)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(b.String())
		},
	})

	sh.Println("FS20 transmitter shell, type help for commands")
	sh.Run()
	return nil
}
