package influxdb

import (
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-device/internal/infrastructure/config"
)

func TestReadingPoint(t *testing.T) {
	ts := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	p := readingPoint("meter-7", "Power", 230.5, ts)

	if p.Name() != MeasurementReadings {
		t.Errorf("Name() = %q, want %q", p.Name(), MeasurementReadings)
	}
	if !p.Time().Equal(ts) {
		t.Errorf("Time() = %v, want %v", p.Time(), ts)
	}

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	if tags["device"] != "meter-7" || tags["resource"] != "Power" {
		t.Errorf("tags = %v", tags)
	}

	fields := p.FieldList()
	if len(fields) != 1 || fields[0].Key != "value" || fields[0].Value != 230.5 {
		t.Errorf("fields = %+v", fields)
	}
}

func TestReadingPoint_ZeroTimeUsesNow(t *testing.T) {
	before := time.Now()
	p := readingPoint("d", "r", 1, time.Time{})
	if p.Time().Before(before) {
		t.Errorf("Time() = %v, want >= %v", p.Time(), before)
	}
}

func TestWriteOptions(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.InfluxDBConfig
		wantBatch uint
		wantFlush uint
	}{
		{"defaults", config.InfluxDBConfig{}, 100, 10000},
		{"configured", config.InfluxDBConfig{BatchSize: 500, FlushInterval: 2}, 500, 2000},
		{"negative uses defaults", config.InfluxDBConfig{BatchSize: -1, FlushInterval: -5}, 100, 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := writeOptions(tt.cfg)
			if opts.BatchSize() != tt.wantBatch {
				t.Errorf("BatchSize() = %d, want %d", opts.BatchSize(), tt.wantBatch)
			}
			if opts.FlushInterval() != tt.wantFlush {
				t.Errorf("FlushInterval() = %d, want %d", opts.FlushInterval(), tt.wantFlush)
			}
		})
	}
}
