package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"drowse/internal/metrics"
)

func TestPredictor_Unknown(t *testing.T) {
	assert.Equal(t, NeutralProbability, NewPredictor().Predict(nil, now))
}

func TestPredictor_NoHistory(t *testing.T) {
	m := metrics.NewPerformanceMetrics("idle")
	assert.Equal(t, 0.0, NewPredictor().Predict(m, now))
}

func TestPredictor_DemandRaisesProbability(t *testing.T) {
	p := NewPredictor()

	quiet := metrics.NewPerformanceMetrics("quiet")
	quiet.RecordRequest()
	quiet.RecordWake(50*time.Millisecond, now.Add(-3*time.Hour))

	busy := metrics.NewPerformanceMetrics("busy")
	for i := 0; i < 80; i++ {
		busy.RecordRequest()
	}
	for i := 0; i < 5; i++ {
		busy.RecordWake(50*time.Millisecond, now.Add(-time.Duration(i)*time.Minute))
	}

	assert.Greater(t, p.Predict(busy, now), p.Predict(quiet, now))
}

func TestPredictor_Bounded(t *testing.T) {
	m := metrics.NewPerformanceMetrics("hot")
	for i := 0; i < 1000; i++ {
		m.RecordRequest()
	}
	for i := 0; i < 50; i++ {
		m.RecordWake(time.Millisecond, now)
	}

	got := NewPredictor().Predict(m, now)
	assert.InDelta(t, 1.0, got, 1e-9)
	assert.LessOrEqual(t, got, 1.0)
}

func TestPredictor_RecencyDecays(t *testing.T) {
	p := NewPredictor()
	m := metrics.NewPerformanceMetrics("x")
	m.RecordWake(time.Millisecond, now)

	fresh := p.Predict(m, now)
	later := p.Predict(m, now.Add(3*time.Hour))
	assert.Greater(t, fresh, later)
	assert.GreaterOrEqual(t, later, 0.0)
}
