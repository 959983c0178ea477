package sources

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"mediasort/internal/config"
	"mediasort/internal/logging"
)

// Handler is called for each matched device, e.g. /dev/sdb1.
type Handler func(ctx context.Context, device string)

// Monitor listens for udev netlink events announcing new partitions.
type Monitor struct {
	subsystem string
	devType   string
	logger    *slog.Logger
	handler   Handler

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewMonitor builds a monitor for the configured subsystem and device type.
func NewMonitor(cfg config.Watch, logger *slog.Logger, handler Handler) *Monitor {
	subsystem := strings.TrimSpace(cfg.Subsystem)
	if subsystem == "" {
		subsystem = "block"
	}
	return &Monitor{
		subsystem: subsystem,
		devType:   strings.TrimSpace(cfg.DevType),
		logger:    logging.NewComponentLogger(logger, "watch"),
		handler:   handler,
	}
}

// Start connects to the kernel uevent socket and dispatches events until ctx
// ends or Stop is called.
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
		return err
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.loop(ctx, quit)

	m.logger.Info("hotplug monitor started",
		logging.String(logging.FieldEventType, "watch_started"),
		logging.String("subsystem", m.subsystem),
		logging.String("devtype", m.devType),
	)
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
	m.logger.Info("hotplug monitor stopped", logging.String(logging.FieldEventType, "watch_stopped"))
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

func (m *Monitor) loop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, m.matcher())
	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handle(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("hotplug monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "watch_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "new media may be missed"),
			)
		}
	}
}

// matcher selects "add" events for the configured subsystem and device type.
func (m *Monitor) matcher() netlink.Matcher {
	action := "add"
	env := map[string]string{"SUBSYSTEM": m.subsystem}
	if m.devType != "" {
		env["DEVTYPE"] = m.devType
	}
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env:    env,
	})
	return rules
}

func (m *Monitor) handle(ctx context.Context, uevent netlink.UEvent) {
	device := DeviceName(uevent)
	if device == "" {
		m.logger.Debug("ignoring event without device name", logging.String("kobj", uevent.KObj))
		return
	}
	m.logger.Info("removable media detected",
		logging.String(logging.FieldEventType, "watch_device_added"),
		logging.String("device", device),
	)
	if m.handler != nil {
		m.handler(ctx, device)
	}
}

// DeviceName gets the device path from a uevent.
func DeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if strings.HasPrefix(devname, "/") {
			return devname
		}
		return "/dev/" + devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return "/dev/" + parts[len(parts)-1]
}
