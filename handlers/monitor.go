package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"

	"github.com/voiceast/voiceast/models"
)

// Broadcaster receives monitor alerts. Satisfied by *Hub.
type Broadcaster interface {
	Broadcast(ev models.Event)
}

// ResourceSample is one reading of the machine's health.
type ResourceSample struct {
	CPUPercent     float64
	MemPercent     float64
	BatteryPercent float64
	HasBattery     bool
	Discharging    bool
}

// Sampler produces resource samples. Replaceable in tests.
type Sampler func(ctx context.Context) (ResourceSample, error)

const (
	cpuAlertThreshold     = 90.0
	memAlertThreshold     = 95.0
	batteryAlertThreshold = 20.0
	alertCooldown         = 5 * time.Minute
)

// Monitor watches CPU, RAM, and battery in the background and pushes
// spoken-style alerts to active sessions. Each alert kind has its own
// cooldown so a sustained condition does not spam clients every tick.
type Monitor struct {
	hub      Broadcaster
	sample   Sampler
	interval time.Duration
	cooldown time.Duration

	lastAlert map[string]time.Time
	logger    *zap.Logger
}

func NewMonitor(hub Broadcaster, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Monitor{
		hub:       hub,
		sample:    systemSample,
		interval:  interval,
		cooldown:  alertCooldown,
		lastAlert: make(map[string]time.Time),
		logger:    zap.L().Named("monitor"),
	}
}

// Run blocks until ctx is cancelled. Meant to be launched as a goroutine
// from main.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("system monitor started", zap.Duration("interval", m.interval))
	for {
		select {
		case <-ticker.C:
			m.check(ctx)
		case <-ctx.Done():
			m.logger.Info("system monitor stopped")
			return
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	sample, err := m.sample(ctx)
	if err != nil {
		m.logger.Debug("sampling failed", zap.Error(err))
		return
	}

	if sample.CPUPercent >= cpuAlertThreshold {
		m.alert("cpu", fmt.Sprintf("Heads up: CPU usage is at %.0f percent.", sample.CPUPercent))
	}
	if sample.MemPercent >= memAlertThreshold {
		m.alert("memory", fmt.Sprintf("Heads up: memory usage is at %.0f percent.", sample.MemPercent))
	}
	if sample.HasBattery && sample.Discharging && sample.BatteryPercent <= batteryAlertThreshold {
		m.alert("battery", fmt.Sprintf("Battery is low, %.0f percent remaining. Consider plugging in.", sample.BatteryPercent))
	}
}

// alert broadcasts one alert kind, at most once per cooldown window.
func (m *Monitor) alert(kind, message string) {
	now := time.Now()
	if last, ok := m.lastAlert[kind]; ok && now.Sub(last) < m.cooldown {
		return
	}
	m.lastAlert[kind] = now

	m.logger.Warn("resource alert", zap.String("kind", kind), zap.String("message", message))
	ok := true
	m.hub.Broadcast(models.Event{
		Type:    models.EventResult,
		Success: &ok,
		Message: message,
		Data:    map[string]interface{}{"alert": kind},
	})
}

// systemSample reads live values from the host.
func systemSample(ctx context.Context) (ResourceSample, error) {
	var sample ResourceSample

	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return sample, fmt.Errorf("sampling cpu: %w", err)
	}
	if len(percents) > 0 {
		sample.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return sample, fmt.Errorf("sampling memory: %w", err)
	}
	sample.MemPercent = vm.UsedPercent

	batteries, err := battery.GetAll()
	if err == nil && len(batteries) > 0 {
		b := batteries[0]
		sample.HasBattery = true
		sample.Discharging = b.State.Raw == battery.Discharging
		if b.Full > 0 {
			sample.BatteryPercent = b.Current / b.Full * 100
		}
	}

	return sample, nil
}
