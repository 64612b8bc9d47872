package readings

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-device/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-device/internal/metadata"
	"github.com/nerrad567/gray-logic-device/internal/transform"
)

type fakeCache struct {
	devices  map[string]*metadata.Device
	profiles map[string]*metadata.Profile
}

func (f *fakeCache) DeviceByName(name string) (*metadata.Device, error) {
	if d, ok := f.devices[name]; ok {
		return d, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeCache) Profile(name string) (*metadata.Profile, error) {
	if p, ok := f.profiles[name]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}

type point struct {
	device, resource string
	value            float64
	ts               time.Time
}

type fakeWriter struct {
	mu     sync.Mutex
	points []point
}

func (w *fakeWriter) WriteReading(device, resource string, value float64, ts time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, point{device, resource, value, ts})
}

type fakeSubscriber struct {
	handler      mqtt.MessageHandler
	subscribed   string
	unsubscribed string
}

func (f *fakeSubscriber) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	f.subscribed = topic
	f.handler = handler
	return nil
}

func (f *fakeSubscriber) Unsubscribe(topic string) error {
	f.unsubscribed = topic
	return nil
}

func (f *fakeSubscriber) Topics() mqtt.Topics { return mqtt.NewTopics("devicesvc") }

func (f *fakeSubscriber) QoS() byte { return 1 }

type fixture struct {
	ing    *Ingester
	sub    *fakeSubscriber
	writer *fakeWriter
	flag   *transform.Flag
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cache := &fakeCache{
		devices: map[string]*metadata.Device{
			"thermostat-01": {Name: "thermostat-01", ProfileName: "thermostat"},
			"locked-01":     {Name: "locked-01", ProfileName: "thermostat", AdminState: metadata.AdminStateLocked},
			"orphan-01":     {Name: "orphan-01", ProfileName: "missing"},
		},
		profiles: map[string]*metadata.Profile{
			"thermostat": {Name: "thermostat", DeviceResources: []metadata.DeviceResource{
				{Name: "Temperature", Properties: metadata.PropertyValue{Type: "Float64", Scale: "0.1"}},
			}},
		},
	}
	flag := transform.NewFlag(false)
	sub := &fakeSubscriber{}
	writer := &fakeWriter{}
	ing, err := NewIngester(sub, cache, transform.NewTransformer(flag), writer, prometheus.NewRegistry())
	require.NoError(t, err)
	return &fixture{ing: ing, sub: sub, writer: writer, flag: flag}
}

func TestIngester_StartStop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ing.Start())
	assert.Equal(t, "devicesvc/reading/+/+", f.sub.subscribed)

	require.NoError(t, f.ing.Stop())
	assert.Equal(t, "devicesvc/reading/+/+", f.sub.unsubscribed)
}

func TestIngester_Ingest(t *testing.T) {
	f := newFixture(t)
	ts := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	err := f.ing.Ingest("devicesvc/reading/thermostat-01/Temperature", []byte(`{"value":215,"timestamp":"2026-10-19T12:00:00Z"}`))
	require.NoError(t, err)
	require.Len(t, f.writer.points, 1)
	assert.Equal(t, point{"thermostat-01", "Temperature", 215, ts}, f.writer.points[0])

	f.flag.Set(true)
	err = f.ing.Ingest("devicesvc/reading/thermostat-01/Temperature", []byte(`{"value":215}`))
	require.NoError(t, err)
	require.Len(t, f.writer.points, 2)
	assert.InDelta(t, 21.5, f.writer.points[1].value, 1e-9)
	assert.True(t, f.writer.points[1].ts.IsZero())
}

func TestIngester_Dropped(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		wantErr error
	}{
		{"not a reading topic", "devicesvc/announce/modbus", `{"value":1}`, ErrInvalidPayload},
		{"bad json", "devicesvc/reading/thermostat-01/Temperature", `{`, ErrInvalidPayload},
		{"missing value", "devicesvc/reading/thermostat-01/Temperature", `{}`, ErrInvalidPayload},
		{"unknown device", "devicesvc/reading/ghost/Temperature", `{"value":1}`, ErrUnknownDevice},
		{"locked device", "devicesvc/reading/locked-01/Temperature", `{"value":1}`, ErrDeviceLocked},
		{"uncached profile", "devicesvc/reading/orphan-01/Temperature", `{"value":1}`, ErrUnknownResource},
		{"unknown resource", "devicesvc/reading/thermostat-01/Humidity", `{"value":1}`, ErrUnknownResource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.ing.Ingest(tt.topic, []byte(tt.payload))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.writer.points)
		})
	}
}

func TestIngester_HandleMessageCounts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ing.Start())

	assert.NoError(t, f.sub.handler("devicesvc/reading/thermostat-01/Temperature", []byte(`{"value":1}`)))
	assert.NoError(t, f.sub.handler("devicesvc/reading/ghost/Temperature", []byte(`{"value":1}`)))
	assert.NoError(t, f.sub.handler("devicesvc/reading/thermostat-01/Temperature", []byte(`nope`)))

	assert.Equal(t, 1.0, counterValue(t, f.ing.readings, resultWritten))
	assert.Equal(t, 1.0, counterValue(t, f.ing.readings, resultDropped))
	assert.Equal(t, 1.0, counterValue(t, f.ing.readings, resultInvalid))
}

func TestIngester_TransformError(t *testing.T) {
	cache := &fakeCache{
		devices: map[string]*metadata.Device{"d": {Name: "d", ProfileName: "p"}},
		profiles: map[string]*metadata.Profile{"p": {Name: "p", DeviceResources: []metadata.DeviceResource{
			{Name: "r", Properties: metadata.PropertyValue{Scale: "abc"}},
		}}},
	}
	w := &fakeWriter{}
	ing, err := NewIngester(&fakeSubscriber{}, cache, transform.NewTransformer(transform.NewFlag(true)), w, prometheus.NewRegistry())
	require.NoError(t, err)

	err = ing.Ingest("devicesvc/reading/d/r", []byte(`{"value":1}`))
	assert.ErrorIs(t, err, transform.ErrInvalidModifier)
	assert.Empty(t, w.points)
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, label string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, vec.WithLabelValues(label).Write(&m))
	return m.GetCounter().GetValue()
}
