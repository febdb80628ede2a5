package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu          sync.Mutex
	predictions int
	failures    int
	fallbackUse int
	latencies   []float64
	scores      []float64
	modelAge    float64
}

func (m *MockMetrics) PredictionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *MockMetrics) PredictionFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) FallbackUseInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbackUse++
}

func (m *MockMetrics) LatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies = append(m.latencies, v)
}

func (m *MockMetrics) RiskScoreObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, v)
}

func (m *MockMetrics) ModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}

// Predictions returns the number of successful predictions recorded.
func (m *MockMetrics) Predictions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions
}

// FallbackUse returns the number of fallback predictions recorded.
func (m *MockMetrics) FallbackUse() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fallbackUse
}

// Failures returns the number of failed predictions recorded.
func (m *MockMetrics) Failures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures
}
