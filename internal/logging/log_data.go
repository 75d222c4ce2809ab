package logging

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogData gathers the fields of one request log line. Handlers record the ledger size and the
// chosen model with AddData and time the forecast with AddTiming; the wrapper emits it once.
type LogData struct {
	mu      sync.Mutex
	timings map[string]int64
	fields  logrus.Fields
	logger  *logrus.Logger
}

func NewLogData(logger *logrus.Logger) *LogData {
	return &LogData{
		timings: make(map[string]int64),
		fields:  make(logrus.Fields),
		logger:  logger,
	}
}

// AddTiming starts a stopwatch and returns its stop func, which stores the elapsed
// milliseconds under name (for example "forecastMs"). Stopping again overwrites the value.
func (l *LogData) AddTiming(name string) func() {
	start := time.Now()

	return func() {
		elapsed := time.Since(start).Milliseconds()
		l.mu.Lock()
		defer l.mu.Unlock()
		l.timings[name] = elapsed
	}
}

// AddData sets one field, such as "entryCount" or "modelType", on the request log line.
func (l *LogData) AddData(key string, value any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fields[key] = value
}

// Log returns an entry carrying every recorded field and timing. Timings win on key clashes.
func (l *LogData) Log() *logrus.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	fields := make(logrus.Fields, len(l.fields)+len(l.timings))
	for key, value := range l.fields {
		fields[key] = value
	}
	for key, ms := range l.timings {
		fields[key] = ms
	}
	return logrus.NewEntry(l.logger).WithFields(fields)
}
