package recorder

var (
	_ Recorder = (*NoopRecorder)(nil)
	_ Recorder = (*SQLiteRecorder)(nil)
)

// NoopRecorder discards snapshots. It stands in when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (NoopRecorder) RecordForecast(*ForecastSnapshot) error { return nil }
func (NoopRecorder) Close() error                           { return nil }
