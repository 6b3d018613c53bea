package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"drowse/internal/api"
	"drowse/internal/config"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func thresholds() config.ResourceThresholds {
	return config.DefaultSleepSettings().ResourceThresholds
}

func TestShouldSkipSleepDueToPressure(t *testing.T) {
	tests := []struct {
		name string
		mem  float64
		cpu  float64
		want bool
	}{
		{"quiet host", 40, 10, false},
		{"moderate memory", 60, 10, false},
		{"at threshold", 85, 10, false},
		{"high memory", 90, 10, true},
		{"high cpu", 40, 95, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := api.SystemResources{MemoryPercent: tt.mem, CPUPercent: tt.cpu}
			assert.Equal(t, tt.want, ShouldSkipSleepDueToPressure(snap, thresholds()))
		})
	}
}

func TestPressureLevel(t *testing.T) {
	tests := []struct {
		mem  float64
		want api.PressureLevel
	}{
		{10, api.PressureNone},
		{55, api.PressureLow},
		{75, api.PressureModerate},
		{95, api.PressureHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PressureLevel(api.SystemResources{MemoryPercent: tt.mem}, thresholds()), "mem=%v", tt.mem)
	}
}

func TestIsIdle(t *testing.T) {
	assert.True(t, IsIdle(time.Time{}, time.Minute, now))
	assert.True(t, IsIdle(now.Add(-5*time.Minute), 5*time.Minute, now))
	assert.False(t, IsIdle(now.Add(-299*time.Second), 300*time.Second, now))
}

func enabledPolicy() *config.SleepPolicy {
	return &config.SleepPolicy{
		Enabled:      true,
		IdleTimeout:  config.Duration(300 * time.Second),
		MinSleepTime: config.Duration(60 * time.Second),
	}
}

func TestIsSleepCandidate(t *testing.T) {
	in := SleepInput{State: api.StateRunning, LastAccessed: now.Add(-301 * time.Second), Policy: enabledPolicy(), Now: now}
	assert.True(t, IsSleepCandidate(in))

	in.LastAccessed = now.Add(-10 * time.Second)
	assert.False(t, IsSleepCandidate(in))

	in.LastAccessed = now.Add(-time.Hour)
	in.State = api.StateSleeping
	assert.False(t, IsSleepCandidate(in))

	in.State = api.StateRunning
	in.Policy = &config.SleepPolicy{Enabled: false}
	assert.False(t, IsSleepCandidate(in))
}

func TestEvaluateSleep(t *testing.T) {
	settings := config.DefaultSleepSettings()
	idle := now.Add(-301 * time.Second)
	snap := func(mem float64) *api.SystemResources { return &api.SystemResources{MemoryPercent: mem} }

	tests := []struct {
		name     string
		in       SleepInput
		settings func(*config.GlobalSleepSettings)
		want     Decision
	}{
		{
			name: "eligible under moderate pressure",
			in:   SleepInput{State: api.StateRunning, LastAccessed: idle, Policy: enabledPolicy(), Snapshot: snap(60)},
			want: Decision{Sleep: true, Reason: ReasonEligible},
		},
		{
			name: "no policy",
			in:   SleepInput{State: api.StateRunning, LastAccessed: idle},
			want: Decision{Reason: ReasonPolicyDisabled},
		},
		{
			name: "disabled policy ignores idle time and pressure",
			in:   SleepInput{State: api.StateRunning, LastAccessed: now.Add(-24 * time.Hour), Policy: &config.SleepPolicy{Enabled: false}, Snapshot: snap(1)},
			want: Decision{Reason: ReasonPolicyDisabled},
		},
		{
			name: "not running",
			in:   SleepInput{State: api.StateSleeping, LastAccessed: idle, Policy: enabledPolicy()},
			want: Decision{Reason: ReasonNotRunning},
		},
		{
			name: "recently accessed",
			in:   SleepInput{State: api.StateRunning, LastAccessed: now.Add(-30 * time.Second), Policy: enabledPolicy()},
			want: Decision{Reason: ReasonMinSleepTime},
		},
		{
			name: "high memory pressure",
			in:   SleepInput{State: api.StateRunning, LastAccessed: idle, Policy: enabledPolicy(), Snapshot: snap(92)},
			want: Decision{Reason: ReasonPressure},
		},
		{
			name: "unknown snapshot skips pressure gate",
			in:   SleepInput{State: api.StateRunning, LastAccessed: idle, Policy: enabledPolicy()},
			want: Decision{Sleep: true, Reason: ReasonEligible},
		},
		{
			name:     "sleeping limit reached",
			in:       SleepInput{State: api.StateRunning, LastAccessed: idle, Policy: enabledPolicy(), Sleeping: 2},
			settings: func(s *config.GlobalSleepSettings) { s.MaxSleepingServices = 2 },
			want:     Decision{Reason: ReasonSleepLimit},
		},
		{
			name: "zero limit is unlimited",
			in:   SleepInput{State: api.StateRunning, LastAccessed: idle, Policy: enabledPolicy(), Sleeping: 50},
			want: Decision{Sleep: true, Reason: ReasonEligible},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings
			if tt.settings != nil {
				tt.settings(&s)
			}
			tt.in.Now = now
			assert.Equal(t, tt.want, EvaluateSleep(tt.in, s))
		})
	}
}

func TestGetPriority(t *testing.T) {
	tiers := config.WakePriorities{
		High:   []string{"translate"},
		Normal: []string{"search", "docs"},
		Low:    []string{"archive"},
	}
	assert.Equal(t, api.PriorityHigh, GetPriority("translate", tiers))
	assert.Equal(t, api.PriorityNormal, GetPriority("docs", tiers))
	assert.Equal(t, api.PriorityLow, GetPriority("archive", tiers))
	assert.Equal(t, api.PriorityLow, GetPriority("unlisted", tiers))
}
