package readings

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/gray-logic-device/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-device/internal/metadata"
)

// Reading results used as metric labels.
const (
	resultWritten = "written"
	resultDropped = "dropped"
	resultInvalid = "invalid"
)

var (
	// ErrUnknownDevice is returned for readings from uncached devices.
	ErrUnknownDevice = errors.New("readings: unknown device")

	// ErrUnknownResource is returned for resources the profile does not define.
	ErrUnknownResource = errors.New("readings: unknown resource")

	// ErrDeviceLocked is returned for readings from locked devices.
	ErrDeviceLocked = errors.New("readings: device is locked")

	// ErrInvalidPayload is returned for payloads without a numeric value.
	ErrInvalidPayload = errors.New("readings: invalid payload")
)

// Logger defines the logging interface used by the Ingester.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Subscriber is the MQTT surface the Ingester needs. *mqtt.Client
// satisfies it.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	Topics() mqtt.Topics
	QoS() byte
}

// Cache resolves devices and profiles. *device.Registry satisfies it.
type Cache interface {
	DeviceByName(name string) (*metadata.Device, error)
	Profile(name string) (*metadata.Profile, error)
}

// Transformer converts raw values. *transform.Transformer satisfies it.
type Transformer interface {
	Apply(value float64, pv metadata.PropertyValue) (float64, error)
}

// Writer stores readings. *influxdb.Client satisfies it.
type Writer interface {
	WriteReading(device, resource string, value float64, ts time.Time)
}

// Payload is the JSON body of a reading message.
type Payload struct {
	Value     *float64  `json:"value"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Ingester subscribes to reading topics and writes transformed values.
type Ingester struct {
	sub         Subscriber
	cache       Cache
	transformer Transformer
	writer      Writer

	readings *prometheus.CounterVec
	logger   Logger
}

// NewIngester creates an Ingester and registers its counter with reg. A nil
// reg uses prometheus.DefaultRegisterer.
func NewIngester(sub Subscriber, cache Cache, tr Transformer, w Writer, reg prometheus.Registerer) (*Ingester, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devicesvc",
		Subsystem: "readings",
		Name:      "messages_total",
		Help:      "Reading messages by result.",
	}, []string{"result"})
	if err := reg.Register(counter); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("registering readings counter: %w", err)
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("registering readings counter: %w", err)
		}
		counter = existing
	}

	return &Ingester{
		sub:         sub,
		cache:       cache,
		transformer: tr,
		writer:      w,
		readings:    counter,
		logger:      noopLogger{},
	}, nil
}

// SetLogger sets the logger for the ingester.
func (i *Ingester) SetLogger(logger Logger) {
	i.logger = logger
}

// Start subscribes to every reading topic.
func (i *Ingester) Start() error {
	if err := i.sub.Subscribe(i.sub.Topics().AllReadings(), i.sub.QoS(), i.handleMessage); err != nil {
		return fmt.Errorf("subscribing to readings: %w", err)
	}
	return nil
}

// Stop unsubscribes from reading topics.
func (i *Ingester) Stop() error {
	return i.sub.Unsubscribe(i.sub.Topics().AllReadings())
}

// handleMessage never returns an error: dropped readings are logged here and
// must not reach the MQTT client's error log as faults.
func (i *Ingester) handleMessage(topic string, payload []byte) error {
	if err := i.Ingest(topic, payload); err != nil {
		result := resultDropped
		if errors.Is(err, ErrInvalidPayload) {
			result = resultInvalid
		}
		i.readings.WithLabelValues(result).Inc()
		i.logger.Warn("reading dropped", "topic", topic, "error", err)
		return nil
	}
	i.readings.WithLabelValues(resultWritten).Inc()
	return nil
}

// Ingest processes one reading message.
func (i *Ingester) Ingest(topic string, payload []byte) error {
	deviceName, resourceName, ok := i.sub.Topics().ParseReading(topic)
	if !ok {
		return fmt.Errorf("%w: topic %q", ErrInvalidPayload, topic)
	}

	var p Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.Value == nil {
		return fmt.Errorf("%w: missing value", ErrInvalidPayload)
	}

	d, err := i.cache.DeviceByName(deviceName)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, deviceName)
	}
	if d.Locked() {
		return fmt.Errorf("%w: %s", ErrDeviceLocked, deviceName)
	}

	profile, err := i.cache.Profile(d.ProfileName)
	if err != nil {
		return fmt.Errorf("%w: %s has no cached profile %q", ErrUnknownResource, deviceName, d.ProfileName)
	}
	res, ok := profile.Resource(resourceName)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnknownResource, deviceName, resourceName)
	}

	value, err := i.transformer.Apply(*p.Value, res.Properties)
	if err != nil {
		return fmt.Errorf("transforming %s/%s: %w", deviceName, resourceName, err)
	}

	i.writer.WriteReading(deviceName, resourceName, value, p.Timestamp)
	i.logger.Debug("reading written", "device", deviceName, "resource", resourceName, "value", value)
	return nil
}
