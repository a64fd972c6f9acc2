// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/tve/fs20devices/fs20"
)

const (
	connectTimeout   = 10 * time.Second
	publishTimeout   = 5 * time.Second
	subscribeTimeout = 2 * time.Second
)

// ErrTimeout is returned when the broker does not complete an operation in time.
var ErrTimeout = errors.New("mqtt: operation timed out")

// handler processes one message received on a subscribed topic.
type handler func(topic string, payload []byte)

// mq is a handle onto a MQTT broker connection. The connection is persistent, i.e.,
// re-establishes itself if there is a disconnect. Subscriptions also get renewed after a reconnect.
type mq struct {
	conn mqtt.Client
	qos  byte

	mu   sync.Mutex
	subs map[string]handler
}

// glogger routes paho's internal logging to glog.
type glogger struct{ sev string }

func (l glogger) Println(v ...interface{}) { l.Printf("%s", fmt.Sprintln(v...)) }
func (l glogger) Printf(format string, v ...interface{}) {
	switch l.sev {
	case "error":
		glog.ErrorDepth(2, fmt.Sprintf("paho: "+format, v...))
	default:
		glog.WarningDepth(2, fmt.Sprintf("paho: "+format, v...))
	}
}

// clientID returns a client id that is stable across restarts of the gateway on this machine.
func clientID() string {
	id, err := machineid.ProtectedID("fs20mqtt")
	if err != nil || len(id) < 12 {
		hostname, _ := os.Hostname()
		return "fs20mqtt-" + hostname
	}
	return "fs20mqtt-" + id[:12]
}

// newMQ connects to a broker and returns a new mq object.
func newMQ(conf MqttConfig, debug fs20.LogPrintf) (*mq, error) {
	id := conf.ClientID
	if id == "" {
		id = clientID()
	}
	if debug != nil {
		debug("Configuring MQTT with client id %s: %s:%d user=%q", id, conf.Host, conf.Port, conf.User)
	}
	mqtt.ERROR = glogger{"error"}
	mqtt.CRITICAL = glogger{"error"}
	mqtt.WARN = glogger{"warn"}

	m := &mq{qos: conf.QoS, subs: make(map[string]handler)}
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", conf.Host, conf.Port)).
		SetClientID(id).
		SetUsername(conf.User).
		SetPassword(conf.Password).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetOnConnectHandler(m.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			glog.Warningf("MQTT connection lost: %s", err)
		})

	m.conn = mqtt.NewClient(opts)
	token := m.conn.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connecting to %s:%d: %w", conf.Host, conf.Port, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to %s:%d: %w", conf.Host, conf.Port, err)
	}
	glog.Infof("MQTT connected to %s:%d as %s", conf.Host, conf.Port, id)
	return m, nil
}

// onConnect renews the subscriptions, the session is not kept by the broker.
func (m *mq) onConnect(c mqtt.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for topic, h := range m.subs {
		c.Subscribe(topic, m.qos, wrap(h))
	}
}

func wrap(h handler) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Topic(), msg.Payload())
	}
}

// Publish publishes a JSON encoded payload.
func (m *mq) Publish(topic string, payload interface{}, retain bool) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload for %s: %w", topic, err)
	}
	token := m.conn.Publish(topic, m.qos, retain, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing to %s: %w", topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Subscribe subscribes to a topic, which may contain wildcards.
func (m *mq) Subscribe(topic string, h handler) error {
	m.mu.Lock()
	m.subs[topic] = h
	m.mu.Unlock()

	token := m.conn.Subscribe(topic, m.qos, wrap(h))
	if !token.WaitTimeout(subscribeTimeout) {
		return fmt.Errorf("subscribing to %s: %w", topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker, giving pending publications some time to complete.
func (m *mq) Close() {
	m.conn.Disconnect(250)
}
