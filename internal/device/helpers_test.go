package device

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-device/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-device/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-device/internal/metadata"
	_ "github.com/nerrad567/gray-logic-device/migrations" // registers the schema
)

// openTestRepo returns a repository over a freshly migrated database.
func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "cache.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	require.NoError(t, db.Migrate(ctx))
	return NewSQLiteRepository(db.DB)
}

func testDevice(id, name string) *metadata.Device {
	return &metadata.Device{
		ID:          id,
		Name:        name,
		AdminState:  metadata.AdminStateUnlocked,
		ProfileName: "thermostat",
		ServiceName: "virtual-device",
		Labels:      []string{"hvac"},
		Protocols: map[string]metadata.ProtocolProperties{
			"modbus": {"Address": "10.0.0.4", "Port": "502"},
		},
	}
}

func testProfile(id, name string) *metadata.Profile {
	return &metadata.Profile{
		ID:   id,
		Name: name,
		DeviceResources: []metadata.DeviceResource{
			{Name: "Temperature", Properties: metadata.PropertyValue{Type: "Float64", Scale: "0.1"}},
		},
	}
}

func testWatcher(id, name string) *metadata.ProvisionWatcher {
	return &metadata.ProvisionWatcher{
		ID:          id,
		Name:        name,
		Identifiers: map[string]string{"Address": `10\.0\.0\..*`},
		ProfileName: "thermostat",
		ServiceName: "virtual-device",
	}
}

type mockMetadata struct {
	mock.Mock
}

func (m *mockMetadata) Device(ctx context.Context, id string) (*metadata.Device, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*metadata.Device)
	return d, args.Error(1)
}

func (m *mockMetadata) Profile(ctx context.Context, id string) (*metadata.Profile, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*metadata.Profile)
	return p, args.Error(1)
}

func (m *mockMetadata) ProfileByName(ctx context.Context, name string) (*metadata.Profile, error) {
	args := m.Called(ctx, name)
	p, _ := args.Get(0).(*metadata.Profile)
	return p, args.Error(1)
}

func (m *mockMetadata) ProvisionWatcher(ctx context.Context, id string) (*metadata.ProvisionWatcher, error) {
	args := m.Called(ctx, id)
	w, _ := args.Get(0).(*metadata.ProvisionWatcher)
	return w, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(topic string, v any) error {
	args := m.Called(topic, v)
	return args.Error(0)
}

func (m *mockPublisher) Topics() mqtt.Topics {
	return mqtt.NewTopics("test")
}

// recordingLogger keeps warn messages for assertions.
type recordingLogger struct {
	noopLogger
	warns []string
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.warns = append(l.warns, msg)
}
