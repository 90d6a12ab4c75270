package analytics

import (
	"go.uber.org/zap"
)

// LoadStatus is the outcome of a feed load as seen by analytics
type LoadStatus string

const (
	LoadSuccess LoadStatus = "success"
	LoadError   LoadStatus = "error"
)

// LoadEvent describes one finished load
type LoadEvent struct {
	Account   string
	Status    LoadStatus
	RepoCount int
	Source    string
	Attempts  int
	Error     string
}

// ViewEvent describes one rendering of the feed as cards
type ViewEvent struct {
	Account string
	Count   int
}

// Tracker receives feed analytics events
type Tracker interface {
	TrackLoad(event LoadEvent)
	TrackView(event ViewEvent)
}

// logTracker records events as structured log lines
type logTracker struct {
	logger *zap.Logger
}

// NewLogTracker returns a Tracker that writes events to logger
func NewLogTracker(logger *zap.Logger) Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logTracker{logger: logger.Named("analytics")}
}

func (t *logTracker) TrackLoad(event LoadEvent) {
	fields := []zap.Field{
		zap.String("account", event.Account),
		zap.String("status", string(event.Status)),
		zap.Int("repo_count", event.RepoCount),
		zap.String("source", event.Source),
		zap.Int("attempts", event.Attempts),
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	t.logger.Info("feed load", fields...)
}

func (t *logTracker) TrackView(event ViewEvent) {
	t.logger.Info("feed view",
		zap.String("account", event.Account),
		zap.Int("count", event.Count))
}

// Nop discards all events
type Nop struct{}

func (Nop) TrackLoad(LoadEvent) {}

func (Nop) TrackView(ViewEvent) {}
