package metrics

// Recorder adapts Metrics to the narrow interfaces consumed by other
// packages, avoiding circular imports.
type Recorder struct {
	m *Metrics
}

func NewRecorder(m *Metrics) *Recorder {
	return &Recorder{m: m}
}

func (r *Recorder) PredictionsInc() {
	r.m.PredictionsTotal.Inc()
}

func (r *Recorder) PredictionFailuresInc() {
	r.m.PredictionFailures.Inc()
	r.m.ErrorsTotal.Inc()
}

func (r *Recorder) FallbackUseInc() {
	r.m.FallbackUse.Inc()
}

func (r *Recorder) LatencyObserve(seconds float64) {
	r.m.PredictionLatency.Observe(seconds)
}

func (r *Recorder) RiskScoreObserve(score float64) {
	r.m.RiskScores.Observe(score)
}

func (r *Recorder) ModelAgeSet(seconds float64) {
	r.m.ModelAge.Set(seconds)
}

func (r *Recorder) ValidationFailuresInc() {
	r.m.ValidationFailures.Inc()
}

func (r *Recorder) RequestsInc() {
	r.m.RequestsTotal.Inc()
}

func (r *Recorder) HistoryWritesInc() {
	r.m.HistoryWrites.Inc()
}
