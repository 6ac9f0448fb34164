package audit

import (
	"context"
	"time"
)

// writeTimeout bounds one audit insert. Entries are written on a context
// detached from the request so a cancelled client does not lose them.
const writeTimeout = 5 * time.Second

// Logger is the logging surface used by Recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Recorder writes entries and logs failures instead of returning them.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	repo   Repository
	logger Logger
}

// NewRecorder creates a Recorder over repo.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{repo: repo, logger: logger}
}

// Record stores e.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := r.repo.Create(ctx, &e); err != nil {
		r.logger.Warn("failed to record audit entry",
			"action", e.Action,
			"device_id", e.DeviceID,
			"error", err)
	}
}

// List returns entries matching filter.
func (r *Recorder) List(ctx context.Context, filter Filter) (*ListResult, error) {
	return r.repo.List(ctx, filter)
}
