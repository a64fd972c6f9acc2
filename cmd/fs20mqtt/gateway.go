// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/tve/fs20devices/fs20"
	"github.com/tve/fs20devices/led"
	"github.com/tve/fs20devices/thread"
)

// TxPacket is the payload expected via MQTT on <prefix>/tx for raw telegrams.
type TxPacket struct {
	Home uint16 `json:"home"`
	Addr byte   `json:"addr"`
	Cmd  byte   `json:"cmd"`
}

// SetPacket is the JSON form of the payload on <prefix>/<device>/set. The plain text form is
// just the command, e.g. "dim 8".
type SetPacket struct {
	Cmd string `json:"cmd"`
}

// SentPacket is published on <prefix>/sent after each transmission and, for named devices,
// retained on <prefix>/<device>/state.
type SentPacket struct {
	Home    uint16    `json:"home"`
	Addr    byte      `json:"addr"`
	Cmd     byte      `json:"cmd"`     // command byte that went on the air
	Command string    `json:"command"` // request as received, e.g. "dim 8"
	Name    string    `json:"name,omitempty"`
	At      time.Time `json:"at"` // end of the transmission
}

// ErrorPacket is published on <prefix>/error when a request cannot be carried out.
type ErrorPacket struct {
	Topic string    `json:"topic"`
	Name  string    `json:"name,omitempty"`
	Error string    `json:"error"`
	At    time.Time `json:"at"`
}

// sender transmits requests, it is implemented by *fs20.Dev.
type sender interface {
	Do(home uint16, addr byte, r fs20.Request) error
}

// publisher is implemented by *mq.
type publisher interface {
	Publish(topic string, payload interface{}, retain bool) error
}

// subscriber is implemented by *mq.
type subscriber interface {
	Subscribe(topic string, h handler) error
}

// job is a request waiting for the transmitter.
type job struct {
	topic string
	name  string
	home  uint16
	addr  byte
	req   fs20.Request
}

// gateway turns MQTT messages into FS20 transmissions. Messages are handled on paho's
// goroutines and queued, a single worker does the actual sending.
type gateway struct {
	prefix   string
	targets  map[string]target
	tx       sender
	pub      publisher
	leds     *led.Bank // optional activity LED
	realtime bool
	queue    chan job
	now      func() time.Time
}

func newGateway(prefix string, targets map[string]target, tx sender, pub publisher, queueLen int) *gateway {
	return &gateway{
		prefix:  prefix,
		targets: targets,
		tx:      tx,
		pub:     pub,
		queue:   make(chan job, queueLen),
		now:     time.Now,
	}
}

// Subscribe hooks the gateway's topics.
func (g *gateway) Subscribe(s subscriber) error {
	if err := s.Subscribe(g.prefix+"/tx", g.handleTx); err != nil {
		return err
	}
	return s.Subscribe(g.prefix+"/+/set", g.handleSet)
}

// handleTx handles a raw telegram.
func (g *gateway) handleTx(topic string, payload []byte) {
	var pkt TxPacket
	if err := json.Unmarshal(payload, &pkt); err != nil {
		g.fail(topic, "", fmt.Errorf("cannot json decode payload: %s", err))
		return
	}
	g.enqueue(job{topic: topic, home: pkt.Home, addr: pkt.Addr,
		req: fs20.Request{Verb: "cmd", Arg: pkt.Cmd}})
}

// handleSet handles a command for a named device.
func (g *gateway) handleSet(topic string, payload []byte) {
	name := strings.TrimSuffix(strings.TrimPrefix(topic, g.prefix+"/"), "/set")
	t, ok := g.targets[name]
	if !ok {
		g.fail(topic, name, fmt.Errorf("unknown device %q", name))
		return
	}
	req, err := parseSet(payload)
	if err != nil {
		g.fail(topic, name, err)
		return
	}
	g.enqueue(job{topic: topic, name: name, home: t.home, addr: t.addr, req: req})
}

// parseSet accepts either a plain text command or a SetPacket.
func parseSet(payload []byte) (fs20.Request, error) {
	text := string(bytes.TrimSpace(payload))
	if strings.HasPrefix(text, "{") {
		var pkt SetPacket
		if err := json.Unmarshal(payload, &pkt); err != nil {
			return fs20.Request{}, fmt.Errorf("cannot json decode payload: %s", err)
		}
		text = pkt.Cmd
	} else if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(payload, &text); err != nil {
			return fs20.Request{}, fmt.Errorf("cannot json decode payload: %s", err)
		}
	}
	return fs20.ParseRequest(text)
}

// enqueue hands a job to the worker without blocking the MQTT client.
func (g *gateway) enqueue(j job) {
	select {
	case g.queue <- j:
	default:
		g.fail(j.topic, j.name, fmt.Errorf("transmit queue full, dropping %s", j.req))
	}
}

// Run is the worker loop, it returns when ctx is done.
func (g *gateway) Run(ctx context.Context) {
	if g.realtime {
		if err := thread.Realtime(0); err != nil {
			glog.Warningf("cannot switch to realtime scheduling, timing may suffer: %s", err)
		} else {
			defer thread.Normal()
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-g.queue:
			g.process(j)
		}
	}
}

func (g *gateway) process(j job) {
	cmd, err := j.req.Command()
	if err != nil {
		g.fail(j.topic, j.name, err)
		return
	}
	if g.leds != nil {
		g.leds.On(1)
	}
	t0 := g.now()
	err = g.tx.Do(j.home, j.addr, j.req)
	if g.leds != nil {
		g.leds.Off(1)
	}
	if err != nil {
		g.fail(j.topic, j.name, err)
		return
	}
	at := g.now()
	glog.V(1).Infof("sent %s to %#04x/%#02x (%s) in %s", j.req, j.home, j.addr, j.name, at.Sub(t0))

	pkt := &SentPacket{Home: j.home, Addr: j.addr, Cmd: cmd, Command: j.req.String(),
		Name: j.name, At: at}
	if err := g.pub.Publish(g.prefix+"/sent", pkt, false); err != nil {
		glog.Errorf("%s", err)
	}
	if j.name != "" {
		if err := g.pub.Publish(g.prefix+"/"+j.name+"/state", pkt, true); err != nil {
			glog.Errorf("%s", err)
		}
	}
}

// fail logs an error and reports it on <prefix>/error.
func (g *gateway) fail(topic, name string, err error) {
	glog.Errorf("%s: %s", topic, err)
	pkt := &ErrorPacket{Topic: topic, Name: name, Error: err.Error(), At: g.now()}
	if err := g.pub.Publish(g.prefix+"/error", pkt, false); err != nil {
		glog.Errorf("%s", err)
	}
}
