package watch

import (
	"context"
	"testing"

	"github.com/pilebones/go-udev/netlink"

	"hotpix/internal/config"
	"hotpix/internal/photos"
)

func watchConfig(device string) *config.Config {
	cfg := &config.Config{}
	cfg.Watch.Enabled = true
	cfg.Watch.Device = device
	cfg.Watch.MountPoint = "/mnt/card"
	return cfg
}

func TestNewMonitor(t *testing.T) {
	t.Run("nil config returns nil", func(t *testing.T) {
		if m := NewMonitor(nil, nil, nil); m != nil {
			t.Error("expected nil monitor for nil config")
		}
	})

	t.Run("disabled watch returns nil", func(t *testing.T) {
		cfg := watchConfig("/dev/sdb1")
		cfg.Watch.Enabled = false
		if m := NewMonitor(cfg, nil, nil); m != nil {
			t.Error("expected nil monitor when watch is disabled")
		}
	})

	t.Run("empty device returns nil", func(t *testing.T) {
		if m := NewMonitor(watchConfig("  "), nil, nil); m != nil {
			t.Error("expected nil monitor for empty device")
		}
	})

	t.Run("valid config creates monitor", func(t *testing.T) {
		m := NewMonitor(watchConfig("/dev/sdb1"), nil, nil)
		if m == nil {
			t.Fatal("expected non-nil monitor")
		}
		if m.device != "/dev/sdb1" {
			t.Errorf("expected device /dev/sdb1, got %s", m.device)
		}
	})
}

func TestMonitorLifecycleSafety(t *testing.T) {
	t.Run("nil monitor is safe", func(t *testing.T) {
		var m *Monitor
		if err := m.Start(context.Background()); err != nil {
			t.Fatalf("Start on nil monitor: %v", err)
		}
		m.Stop()
		if m.Running() {
			t.Error("nil monitor cannot be running")
		}
	})

	t.Run("stop on unstarted monitor is safe", func(t *testing.T) {
		m := NewMonitor(watchConfig("/dev/sdb1"), nil, nil)
		m.Stop()
		m.Stop()
		if m.Running() {
			t.Error("unstarted monitor reports running")
		}
	})
}

func TestBuildMatcher(t *testing.T) {
	m := NewMonitor(watchConfig("/dev/sdb1"), nil, nil)
	matcher := m.buildMatcher()
	if matcher == nil {
		t.Fatal("expected non-nil matcher")
	}

	addEvent := netlink.UEvent{
		Action: netlink.ADD,
		Env:    map[string]string{"SUBSYSTEM": "block"},
	}
	if !matcher.Evaluate(addEvent) {
		t.Error("expected matcher to accept block add event")
	}

	removeEvent := netlink.UEvent{
		Action: netlink.REMOVE,
		Env:    map[string]string{"SUBSYSTEM": "block"},
	}
	if matcher.Evaluate(removeEvent) {
		t.Error("expected matcher to reject remove action")
	}

	usbEvent := netlink.UEvent{
		Action: netlink.ADD,
		Env:    map[string]string{"SUBSYSTEM": "usb"},
	}
	if matcher.Evaluate(usbEvent) {
		t.Error("expected matcher to reject non-block subsystem")
	}
}

func TestHandleEvent(t *testing.T) {
	t.Run("ignores event without device name", func(t *testing.T) {
		var called bool
		m := NewMonitor(watchConfig("/dev/sdb1"), nil, func(ctx context.Context, mount string) (*photos.ImportSession, error) {
			called = true
			return nil, nil
		})
		m.handleEvent(context.Background(), netlink.UEvent{Action: netlink.ADD, Env: map[string]string{}})
		if called {
			t.Error("handler called without device name")
		}
	})

	t.Run("ignores non-configured device", func(t *testing.T) {
		var called bool
		m := NewMonitor(watchConfig("/dev/sdb1"), nil, func(ctx context.Context, mount string) (*photos.ImportSession, error) {
			called = true
			return nil, nil
		})
		m.handleEvent(context.Background(), netlink.UEvent{
			Action: netlink.ADD,
			Env:    map[string]string{"DEVNAME": "/dev/sdc1"},
		})
		if called {
			t.Error("handler called for non-configured device")
		}
	})

	t.Run("invokes handler with configured mount point", func(t *testing.T) {
		var gotMount string
		m := NewMonitor(watchConfig("/dev/sdb1"), nil, func(ctx context.Context, mount string) (*photos.ImportSession, error) {
			gotMount = mount
			return &photos.ImportSession{ID: "s1"}, nil
		})
		m.handleEvent(context.Background(), netlink.UEvent{
			Action: netlink.ADD,
			Env:    map[string]string{"DEVNAME": "/dev/sdb1"},
		})
		if gotMount != "/mnt/card" {
			t.Errorf("handler mount point %q, want /mnt/card", gotMount)
		}
	})

	t.Run("derives device from DEVPATH", func(t *testing.T) {
		var called bool
		m := NewMonitor(watchConfig("/dev/sdb1"), nil, func(ctx context.Context, mount string) (*photos.ImportSession, error) {
			called = true
			return nil, nil
		})
		m.handleEvent(context.Background(), netlink.UEvent{
			Action: netlink.ADD,
			Env:    map[string]string{"DEVPATH": "/devices/pci0000:00/usb1/1-1/host2/target2:0:0/2:0:0:0/block/sdb/sdb1"},
		})
		if !called {
			t.Error("handler not called for DEVPATH-derived device")
		}
	})
}
