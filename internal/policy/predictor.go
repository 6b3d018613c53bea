package policy

import (
	"math"
	"time"

	"drowse/internal/metrics"
)

// NeutralProbability is returned for services without history.
const NeutralProbability = 0.5

// Predictor scores how likely a sleeping service is to be needed soon.
//
// The score is a weighted sum of three terms, each saturating at 1:
// request volume, the number of wakes inside Window, and the recency of the
// last wake (exponential decay with time constant RecencyScale).
type Predictor struct {
	Window            time.Duration
	RecencyScale      time.Duration
	RequestSaturation int64
	WakeSaturation    int

	RequestWeight float64
	WakeWeight    float64
	RecencyWeight float64
}

// NewPredictor returns a Predictor with the default weights.
func NewPredictor() *Predictor {
	return &Predictor{
		Window:            time.Hour,
		RecencyScale:      time.Hour,
		RequestSaturation: 100,
		WakeSaturation:    10,
		RequestWeight:     0.5,
		WakeWeight:        0.3,
		RecencyWeight:     0.2,
	}
}

// Predict returns a probability in [0,1]. A nil history yields NeutralProbability.
func (p *Predictor) Predict(m *metrics.PerformanceMetrics, now time.Time) float64 {
	if m == nil {
		return NeutralProbability
	}

	volume := math.Min(float64(m.TotalRequests())/float64(p.RequestSaturation), 1)
	frequency := math.Min(float64(m.WakesSince(now.Add(-p.Window)))/float64(p.WakeSaturation), 1)

	recency := 0.0
	if last, ok := m.LastWake(); ok {
		age := now.Sub(last.At)
		if age < 0 {
			age = 0
		}
		recency = math.Exp(-float64(age) / float64(p.RecencyScale))
	}

	score := p.RequestWeight*volume + p.WakeWeight*frequency + p.RecencyWeight*recency
	return math.Max(0, math.Min(1, score))
}
