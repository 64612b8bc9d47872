package discovery

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-device/internal/metadata"
)

// defaultScanTimeout bounds a scan when none is configured.
const defaultScanTimeout = 30 * time.Second

// Logger defines the logging interface used by the Scanner.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Cache is the local view of watchers and devices. *device.Registry
// satisfies it.
type Cache interface {
	Watchers() []metadata.ProvisionWatcher
	DeviceByName(name string) (*metadata.Device, error)
}

// Registrar creates devices in the metadata registry. *metadata.Client
// satisfies it.
type Registrar interface {
	AddDevice(ctx context.Context, d metadata.Device) (string, error)
}

// Config configures a Scanner.
type Config struct {
	// ServiceName is assigned to every registered device.
	ServiceName string

	// Timeout bounds one scan, collection and registration included.
	Timeout time.Duration
}

// Scanner runs discovery scans one at a time.
type Scanner struct {
	discoverer Discoverer
	cache      Cache
	registrar  Registrar
	cfg        Config
	metrics    *Metrics

	running atomic.Bool
	wg      sync.WaitGroup

	// base is cancelled by Close to abort a running scan.
	base   context.Context
	cancel context.CancelFunc

	logger Logger
}

// NewScanner creates a Scanner. metrics may be nil.
func NewScanner(d Discoverer, cache Cache, registrar Registrar, cfg Config, metrics *Metrics) *Scanner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultScanTimeout
	}
	base, cancel := context.WithCancel(context.Background())
	return &Scanner{
		discoverer: d,
		cache:      cache,
		registrar:  registrar,
		cfg:        cfg,
		metrics:    metrics,
		base:       base,
		cancel:     cancel,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the scanner.
func (s *Scanner) SetLogger(logger Logger) {
	s.logger = logger
}

// Trigger starts a scan in the background and returns immediately.
// started is false when a scan is already running; the trigger is dropped.
func (s *Scanner) Trigger() (scanID string, started bool) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("discovery already running, trigger ignored")
		s.metrics.scan(resultSkipped)
		return "", false
	}

	scanID = uuid.NewString()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.run(scanID)
	}()
	return scanID, true
}

// Running reports whether a scan is in progress.
func (s *Scanner) Running() bool {
	return s.running.Load()
}

// Wait blocks until the running scan, if any, has finished.
func (s *Scanner) Wait() {
	s.wg.Wait()
}

// Close aborts a running scan and waits for it to return.
func (s *Scanner) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scanner) run(scanID string) {
	ctx, cancel := context.WithTimeout(s.base, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	s.logger.Info("discovery started", "scan_id", scanID, "timeout", s.cfg.Timeout)

	registered, err := s.Scan(ctx)
	if err != nil {
		s.metrics.scan(resultFailed)
		s.logger.Error("discovery failed", "scan_id", scanID, "error", err)
		return
	}

	s.metrics.scan(resultCompleted)
	s.logger.Info("discovery finished",
		"scan_id", scanID,
		"registered", registered,
		"duration", time.Since(start),
	)
}

// Scan runs one scan synchronously and returns the number of devices
// registered. Candidates that fail to register are logged and skipped.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	candidates, err := s.discoverer.Discover(ctx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return 0, err
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return 0, ctx.Err()
	}

	// Registration gets its own budget: collection normally uses the whole
	// scan window.
	regCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	defer cancel()

	watchers := s.cache.Watchers()
	registered := 0
	for _, c := range candidates {
		if c.Name == "" {
			continue
		}
		if _, err := s.cache.DeviceByName(c.Name); err == nil {
			s.metrics.candidate(candidateKnown)
			continue
		}

		w, ok := s.match(c, watchers)
		if !ok {
			s.metrics.candidate(candidateUnmatched)
			s.logger.Debug("candidate matched no provision watcher", "name", c.Name)
			continue
		}

		id, err := s.registrar.AddDevice(regCtx, newDevice(c, w, s.cfg.ServiceName))
		if err != nil {
			s.metrics.candidate(candidateFailed)
			s.logger.Error("registering discovered device failed",
				"name", c.Name,
				"watcher", w.Name,
				"error", err,
			)
			continue
		}

		registered++
		s.metrics.candidate(candidateRegistered)
		s.logger.Info("discovered device registered",
			"name", c.Name,
			"id", id,
			"watcher", w.Name,
		)
	}
	return registered, nil
}

// match returns the first watcher, in name order, that accepts c.
func (s *Scanner) match(c Candidate, watchers []metadata.ProvisionWatcher) (metadata.ProvisionWatcher, bool) {
	for _, w := range watchers {
		ok, err := Matches(c, w)
		if err != nil {
			s.logger.Warn("invalid provision watcher", "watcher", w.Name, "error", err)
			continue
		}
		if ok {
			return w, true
		}
	}
	return metadata.ProvisionWatcher{}, false
}

func newDevice(c Candidate, w metadata.ProvisionWatcher, serviceName string) metadata.Device {
	adminState := w.AdminState
	if adminState == "" {
		adminState = metadata.AdminStateUnlocked
	}
	return metadata.Device{
		Name:           c.Name,
		Description:    c.Description,
		AdminState:     adminState,
		OperatingState: metadata.OperatingStateEnabled,
		Labels:         c.Labels,
		ProfileName:    w.ProfileName,
		ServiceName:    serviceName,
		Protocols:      c.Protocols,
	}
}
