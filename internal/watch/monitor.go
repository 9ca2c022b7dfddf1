// Package watch listens for udev netlink events and triggers an import when
// the configured camera-card device appears. This removes the need for udev
// rules that call the CLI as root.
package watch

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"hotpix/internal/config"
	"hotpix/internal/logging"
	"hotpix/internal/photos"
)

// Handler runs an import against the configured mount point when the watched
// device appears.
type Handler func(ctx context.Context, mountPoint string) (*photos.ImportSession, error)

// Monitor watches for block-device add events matching the configured
// camera-card device.
type Monitor struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler Handler
	device  string

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewMonitor creates a card monitor. Returns nil when watching is disabled or
// no device is configured; a nil Monitor is safe to Start and Stop.
func NewMonitor(cfg *config.Config, logger *slog.Logger, handler Handler) *Monitor {
	if cfg == nil || !cfg.Watch.Enabled {
		return nil
	}
	device := strings.TrimSpace(cfg.Watch.Device)
	if device == "" {
		return nil
	}
	return &Monitor{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "watch"),
		handler: handler,
		device:  device,
	}
}

// Start begins listening for udev netlink events.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; card detection unavailable",
			logging.Error(err),
			logging.String("device", m.device),
		)
		return nil // imports can still be triggered manually
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	// Hand the quit channel to the goroutine so it never reads m.quit
	// without the lock.
	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("card monitor started", logging.String("device", m.device))
	return nil
}

// Stop shuts down the monitor.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("card monitor stopped")
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	matcher := m.buildMatcher()

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, matcher)
	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error", logging.Error(err))
		}
	}
}

// buildMatcher matches block-device appearance events:
// SUBSYSTEM=block, ACTION=add|change.
func (m *Monitor) buildMatcher() netlink.Matcher {
	action := "add|change"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "block",
		},
	})
	return rules
}

func (m *Monitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	devname := m.extractDeviceName(uevent)
	if devname == "" {
		m.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}
	if devname != m.device {
		m.logger.Debug("ignoring event for non-configured device",
			logging.String("device", devname),
			logging.String("configured_device", m.device),
		)
		return
	}

	m.logger.Info("camera card detected",
		logging.String("device", devname),
		logging.String("action", string(uevent.Action)),
	)

	if m.handler == nil {
		return
	}

	session, err := m.handler(ctx, m.cfg.Watch.MountPoint)
	if err != nil {
		m.logger.Warn("card import failed",
			logging.Error(err),
			logging.String("device", devname),
		)
		return
	}
	if session == nil {
		return
	}
	m.logger.Info("card import finished",
		logging.String("device", devname),
		logging.String(logging.FieldSessionID, session.ID),
		logging.Int64("imported", session.ImagesImported),
		logging.Int64("errors", session.ErrorsCount),
	)
}

// extractDeviceName gets the device path from a uevent.
func (m *Monitor) extractDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	if len(parts) == 0 {
		return ""
	}
	return "/dev/" + parts[len(parts)-1]
}
