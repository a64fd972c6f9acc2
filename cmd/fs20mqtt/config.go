// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tve/fs20devices/fs20"
	"gopkg.in/yaml.v3"
)

// Config is the gateway configuration, read from a YAML file.
type Config struct {
	MQTT        MqttConfig              `yaml:"mqtt"`
	Prefix      string                  `yaml:"prefix"` // topic prefix, e.g. "fs20"
	Transmitter TransmitterConfig       `yaml:"transmitter"`
	Devices     map[string]DeviceConfig `yaml:"devices"` // named actors, keyed by topic name
}

// MqttConfig describes the broker connection.
type MqttConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	ClientID string `yaml:"client_id"` // derived from the machine id if empty
	QoS      byte   `yaml:"qos"`
}

// TransmitterConfig describes the FS20 transmitter hardware.
type TransmitterConfig struct {
	Pin      string        `yaml:"pin"`
	Variant  string        `yaml:"variant"` // fs20 or fht
	Repeat   int           `yaml:"repeat"`
	Gap      time.Duration `yaml:"gap"`
	LED      string        `yaml:"led"` // optional activity LED pin
	Realtime bool          `yaml:"realtime"`
	Queue    int           `yaml:"queue"` // pending sends before new requests are rejected
}

// DeviceConfig names one actor. Codes are strings so they can be written in hex.
type DeviceConfig struct {
	Home string `yaml:"home"`
	Addr string `yaml:"addr"`
}

// target is a parsed DeviceConfig.
type target struct {
	home uint16
	addr byte
}

// LoadConfig reads the config file at path, or uses the defaults if path is empty, then applies
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		MQTT:   MqttConfig{Host: "localhost", Port: 1883, QoS: 1},
		Prefix: "fs20",
		Transmitter: TransmitterConfig{
			Pin:      "GPIO17",
			Variant:  "fs20",
			Repeat:   fs20.DefaultRepeat,
			Gap:      fs20.DefaultGap,
			Realtime: true,
			Queue:    16,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FS20_MQTT_HOST"); v != "" {
		cfg.MQTT.Host = v
	}
	if v := os.Getenv("FS20_MQTT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Port = p
		}
	}
	if v := os.Getenv("FS20_MQTT_USER"); v != "" {
		cfg.MQTT.User = v
	}
	if v := os.Getenv("FS20_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
	if v := os.Getenv("FS20_PREFIX"); v != "" {
		cfg.Prefix = v
	}
	if v := os.Getenv("FS20_PIN"); v != "" {
		cfg.Transmitter.Pin = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string
	if c.MQTT.Host == "" {
		errs = append(errs, "mqtt.host is required")
	}
	if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
		errs = append(errs, fmt.Sprintf("mqtt.port %d is out of range", c.MQTT.Port))
	}
	if c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Sprintf("mqtt.qos %d must be 0, 1 or 2", c.MQTT.QoS))
	}
	c.Prefix = strings.Trim(c.Prefix, "/")
	if c.Prefix == "" || strings.ContainsAny(c.Prefix, "+#") {
		errs = append(errs, fmt.Sprintf("prefix %q is not a valid topic prefix", c.Prefix))
	}
	if c.Transmitter.Pin == "" {
		errs = append(errs, "transmitter.pin is required")
	}
	if _, err := fs20.ParseVariant(c.Transmitter.Variant); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Transmitter.Repeat < 1 {
		errs = append(errs, "transmitter.repeat must be at least 1")
	}
	if c.Transmitter.Gap <= 0 {
		errs = append(errs, "transmitter.gap must be positive")
	}
	if c.Transmitter.Queue < 1 {
		errs = append(errs, "transmitter.queue must be at least 1")
	}
	for name, d := range c.Devices {
		if name == "" || strings.ContainsAny(name, "/+#") || name == "tx" || name == "sent" ||
			name == "error" {
			errs = append(errs, fmt.Sprintf("device name %q cannot be used in a topic", name))
			continue
		}
		if _, err := d.target(); err != nil {
			errs = append(errs, fmt.Sprintf("device %s: %s", name, err))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// targets returns the parsed device codes, keyed by device name. Validate must have passed.
func (c *Config) targets() map[string]target {
	m := make(map[string]target, len(c.Devices))
	for name, d := range c.Devices {
		t, _ := d.target()
		m[name] = t
	}
	return m
}

func (d DeviceConfig) target() (target, error) {
	h, err := strconv.ParseUint(d.Home, 0, 16)
	if err != nil {
		return target{}, fmt.Errorf("cannot parse home code %q: %s", d.Home, err)
	}
	a, err := strconv.ParseUint(d.Addr, 0, 8)
	if err != nil {
		return target{}, fmt.Errorf("cannot parse address %q: %s", d.Addr, err)
	}
	return target{home: uint16(h), addr: byte(a)}, nil
}
