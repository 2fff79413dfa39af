package metrics

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremetrics "github.com/kilianp07/cspbc/core/metrics"
	"github.com/kilianp07/cspbc/infra/logger"
)

// MQTTConfig defines the broker connection of the MQTT sink.
type MQTTConfig struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	Retain      bool   `json:"retain"`
	TimeoutMS   int    `json:"timeout_ms"`
}

type pahoClient interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTTSink publishes check events as JSON messages so dashboards can follow
// a batch live. Topics are <prefix>/checks/<instance>, <prefix>/parse_failures
// and <prefix>/batches.
type MQTTSink struct {
	cli     pahoClient
	prefix  string
	qos     byte
	retain  bool
	timeout time.Duration
	log     logger.Logger
}

// NewMQTTSink connects to the broker.
func NewMQTTSink(cfg MQTTConfig) (*MQTTSink, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt sink: broker is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "cspbc-" + uuid.NewString()
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "cspbc"
	}
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	log := logger.New("mqtt-sink")
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	c := newMQTTClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt sink: connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, err
	}
	return &MQTTSink{
		cli:     c,
		prefix:  strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:     cfg.QoS,
		retain:  cfg.Retain,
		timeout: timeout,
		log:     log,
	}, nil
}

type checkMessage struct {
	RunID       string         `json:"run_id,omitempty"`
	Instance    string         `json:"instance"`
	Variant     string         `json:"variant,omitempty"`
	Activities  int            `json:"activities"`
	CrewMembers int            `json:"crew_members"`
	Pairings    int            `json:"pairings"`
	Feasible    bool           `json:"feasible"`
	Cost        int            `json:"cost"`
	Objective   int            `json:"objective"`
	Violations  map[string]int `json:"violations,omitempty"`
	DurationMS  int64          `json:"duration_ms"`
	Timestamp   int64          `json:"timestamp"`
}

// RecordCheck publishes the event on <prefix>/checks/<instance>.
func (s *MQTTSink) RecordCheck(ev coremetrics.CheckEvent) error {
	return s.publish(s.prefix+"/checks/"+ev.Instance, checkMessage{
		RunID:       ev.RunID,
		Instance:    ev.Instance,
		Variant:     ev.Variant,
		Activities:  ev.Activities,
		CrewMembers: ev.CrewMembers,
		Pairings:    ev.Pairings,
		Feasible:    ev.Feasible,
		Cost:        ev.Cost,
		Objective:   ev.Objective,
		Violations:  ev.Violations,
		DurationMS:  ev.Duration.Milliseconds(),
		Timestamp:   ev.Time.UnixMilli(),
	})
}

// RecordParseFailure publishes on <prefix>/parse_failures.
func (s *MQTTSink) RecordParseFailure(ev coremetrics.ParseFailureEvent) error {
	return s.publish(s.prefix+"/parse_failures", map[string]any{
		"path":      ev.Path,
		"stage":     ev.Stage,
		"error":     ev.Err,
		"timestamp": ev.Time.UnixMilli(),
	})
}

// RecordBatch publishes on <prefix>/batches.
func (s *MQTTSink) RecordBatch(ev coremetrics.BatchEvent) error {
	return s.publish(s.prefix+"/batches", map[string]any{
		"run_id":      ev.RunID,
		"batch":       ev.Name,
		"jobs":        ev.Jobs,
		"feasible":    ev.Feasible,
		"failed":      ev.Failed,
		"duration_ms": ev.Duration.Milliseconds(),
		"timestamp":   ev.Time.UnixMilli(),
	})
}

func (s *MQTTSink) publish(topic string, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	token := s.cli.Publish(topic, s.qos, s.retain, payload)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("mqtt publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		s.log.Errorf("publish %s failed: %v", topic, err)
		return err
	}
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	s.cli.Disconnect(250)
	return nil
}
