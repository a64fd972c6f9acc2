// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

// Command fs20mqtt is a gateway that sends FS20 commands received via MQTT.
//
// Raw telegrams are accepted on <prefix>/tx as {"home":25410,"addr":1,"cmd":16}. Devices named
// in the config file accept "on", "off", "toggle", "dim <n>" or {"cmd":"on"} on
// <prefix>/<device>/set and have their last command retained on <prefix>/<device>/state.
// Every transmission is reported on <prefix>/sent and failures on <prefix>/error.
//
// Example config:
//
//	mqtt:
//	  host: core.local
//	  port: 1883
//	prefix: fs20
//	transmitter:
//	  pin: GPIO17
//	  repeat: 3
//	  gap: 8ms
//	  led: GPIO27
//	devices:
//	  lamp:
//	    home: "0x6342"
//	    addr: "0x01"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	devices "github.com/tve/fs20devices"
	"github.com/tve/fs20devices/fs20"
	"github.com/tve/fs20devices/led"
)

func mainImpl() error {
	confPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()
	defer glog.Flush()

	conf, err := LoadConfig(*confPath)
	if err != nil {
		return err
	}
	var debug fs20.LogPrintf
	if glog.V(2) {
		debug = glog.Infof
	}

	glog.Infof("Opening transmitter on %s", conf.Transmitter.Pin)
	if err := devices.Init(); err != nil {
		return err
	}
	pin, err := devices.OpenOut(conf.Transmitter.Pin)
	if err != nil {
		return err
	}
	variant, _ := fs20.ParseVariant(conf.Transmitter.Variant)
	dev, err := fs20.New(pin, fs20.Opts{
		Variant: variant,
		Repeat:  conf.Transmitter.Repeat,
		Gap:     conf.Transmitter.Gap,
		Logger:  debug,
	})
	if err != nil {
		return err
	}

	mq, err := newMQ(conf.MQTT, debug)
	if err != nil {
		return err
	}
	defer mq.Close()

	gw := newGateway(conf.Prefix, conf.targets(), dev, mq, conf.Transmitter.Queue)
	gw.realtime = conf.Transmitter.Realtime
	if conf.Transmitter.LED != "" {
		p, err := devices.OpenOut(conf.Transmitter.LED)
		if err != nil {
			return err
		}
		gw.leds = &led.Bank{}
		if _, err := gw.leds.Insert(p); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	done := make(chan struct{})
	go func() {
		gw.Run(ctx)
		close(done)
	}()
	if err := gw.Subscribe(mq); err != nil {
		return err
	}
	glog.Infof("Gateway is ready, %d named devices under %s/", len(conf.Devices), conf.Prefix)

	<-done
	glog.Infof("Shutting down")
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		glog.Flush()
		fmt.Fprintf(os.Stderr, "fs20mqtt: %s.\n", err)
		os.Exit(1)
	}
}
