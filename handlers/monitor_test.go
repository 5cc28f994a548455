package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/voiceast/voiceast/models"
)

type fakeBroadcaster struct {
	events []models.Event
}

func (f *fakeBroadcaster) Broadcast(ev models.Event) {
	f.events = append(f.events, ev)
}

func testMonitor(hub Broadcaster, sample Sampler) *Monitor {
	m := NewMonitor(hub, time.Minute)
	m.sample = sample
	return m
}

func TestMonitorAlertsAboveThresholds(t *testing.T) {
	hub := &fakeBroadcaster{}
	m := testMonitor(hub, func(ctx context.Context) (ResourceSample, error) {
		return ResourceSample{
			CPUPercent:     95,
			MemPercent:     97,
			BatteryPercent: 10,
			HasBattery:     true,
			Discharging:    true,
		}, nil
	})

	m.check(context.Background())
	if len(hub.events) != 3 {
		t.Fatalf("got %d alerts, want 3: %+v", len(hub.events), hub.events)
	}
	kinds := map[string]bool{}
	for _, ev := range hub.events {
		if ev.Success == nil || !*ev.Success {
			t.Errorf("alert %v missing explicit success flag", ev.Data["alert"])
		}
		kinds[ev.Data["alert"].(string)] = true
	}
	for _, k := range []string{"cpu", "memory", "battery"} {
		if !kinds[k] {
			t.Errorf("missing %s alert", k)
		}
	}
}

func TestMonitorQuietBelowThresholds(t *testing.T) {
	hub := &fakeBroadcaster{}
	m := testMonitor(hub, func(ctx context.Context) (ResourceSample, error) {
		return ResourceSample{CPUPercent: 40, MemPercent: 60, BatteryPercent: 80, HasBattery: true}, nil
	})

	m.check(context.Background())
	if len(hub.events) != 0 {
		t.Fatalf("alerted below thresholds: %+v", hub.events)
	}
}

func TestMonitorChargingBatteryDoesNotAlert(t *testing.T) {
	hub := &fakeBroadcaster{}
	m := testMonitor(hub, func(ctx context.Context) (ResourceSample, error) {
		return ResourceSample{BatteryPercent: 5, HasBattery: true, Discharging: false}, nil
	})

	m.check(context.Background())
	if len(hub.events) != 0 {
		t.Fatalf("alerted while charging: %+v", hub.events)
	}
}

func TestMonitorCooldown(t *testing.T) {
	hub := &fakeBroadcaster{}
	m := testMonitor(hub, func(ctx context.Context) (ResourceSample, error) {
		return ResourceSample{CPUPercent: 99}, nil
	})

	m.check(context.Background())
	m.check(context.Background())
	m.check(context.Background())
	if len(hub.events) != 1 {
		t.Fatalf("cooldown not applied, got %d alerts", len(hub.events))
	}

	// an expired cooldown lets the alert through again
	m.lastAlert["cpu"] = time.Now().Add(-2 * m.cooldown)
	m.check(context.Background())
	if len(hub.events) != 2 {
		t.Fatalf("expired cooldown did not re-alert, got %d alerts", len(hub.events))
	}
}

func TestMonitorSamplerErrorIsSilent(t *testing.T) {
	hub := &fakeBroadcaster{}
	m := testMonitor(hub, func(ctx context.Context) (ResourceSample, error) {
		return ResourceSample{}, context.DeadlineExceeded
	})

	m.check(context.Background())
	if len(hub.events) != 0 {
		t.Fatalf("alerted on sampler error: %+v", hub.events)
	}
}
