// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tve/fs20devices/fs20"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "fs20mqtt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  host: broker.local
  port: 1884
  user: fs20
prefix: /home/fs20/
transmitter:
  pin: GPIO22
  variant: fht
  repeat: 5
  gap: 10ms
devices:
  lamp:
    home: "0x6342"
    addr: "0x01"
  heater:
    home: "4660"
    addr: "0xf1"
`)
	conf, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "broker.local", conf.MQTT.Host)
	require.Equal(t, 1884, conf.MQTT.Port)
	require.Equal(t, byte(1), conf.MQTT.QoS)
	require.Equal(t, "home/fs20", conf.Prefix)
	require.Equal(t, "GPIO22", conf.Transmitter.Pin)
	require.Equal(t, 5, conf.Transmitter.Repeat)
	require.Equal(t, 10*time.Millisecond, conf.Transmitter.Gap)
	require.True(t, conf.Transmitter.Realtime)
	require.Equal(t, map[string]target{
		"lamp":   {home: 0x6342, addr: 0x01},
		"heater": {home: 0x1234, addr: 0xf1},
	}, conf.targets())
}

func TestLoadConfigDefaults(t *testing.T) {
	conf, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "localhost", conf.MQTT.Host)
	require.Equal(t, "fs20", conf.Prefix)
	require.Equal(t, fs20.DefaultRepeat, conf.Transmitter.Repeat)
	require.Equal(t, fs20.DefaultGap, conf.Transmitter.Gap)
	require.Empty(t, conf.targets())
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("FS20_MQTT_HOST", "env.local")
	t.Setenv("FS20_MQTT_PORT", "8883")
	t.Setenv("FS20_MQTT_PASSWORD", "secret")
	t.Setenv("FS20_PIN", "GPIO4")
	conf, err := LoadConfig(writeConfig(t, "mqtt:\n  host: file.local\n"))
	require.NoError(t, err)
	require.Equal(t, "env.local", conf.MQTT.Host)
	require.Equal(t, 8883, conf.MQTT.Port)
	require.Equal(t, "secret", conf.MQTT.Password)
	require.Equal(t, "GPIO4", conf.Transmitter.Pin)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig("/nonexistent/fs20mqtt.yaml")
	require.Error(t, err)

	bad := map[string]string{
		"syntax":   "mqtt: [",
		"port":     "mqtt:\n  port: 0\n",
		"qos":      "mqtt:\n  qos: 3\n",
		"prefix":   "prefix: a/+/b\n",
		"variant":  "transmitter:\n  variant: hms\n",
		"repeat":   "transmitter:\n  repeat: -1\n",
		"home":     "devices:\n  lamp:\n    home: \"0x10000\"\n    addr: \"1\"\n",
		"addr":     "devices:\n  lamp:\n    home: \"1\"\n    addr: \"lamp\"\n",
		"reserved": "devices:\n  sent:\n    home: \"1\"\n    addr: \"1\"\n",
		"slash":    "devices:\n  a/b:\n    home: \"1\"\n    addr: \"1\"\n",
	}
	for n, content := range bad {
		_, err := LoadConfig(writeConfig(t, content))
		require.Error(t, err, n)
	}
}
