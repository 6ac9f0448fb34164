package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type memRepo struct {
	mu      sync.Mutex
	entries []Entry
	err     error
	ctxErr  error
}

func (m *memRepo) Create(ctx context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctxErr = ctx.Err()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memRepo) List(context.Context, Filter) (*ListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &ListResult{Entries: append([]Entry(nil), m.entries...), Total: len(m.entries)}, nil
}

type warnCounter struct {
	mu    sync.Mutex
	warns int
}

func (w *warnCounter) Warn(string, ...any) {
	w.mu.Lock()
	w.warns++
	w.mu.Unlock()
}

func TestRecorder_Record(t *testing.T) {
	repo := &memRepo{}
	r := NewRecorder(repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Record(ctx, Entry{Action: ActionDeviceRemove, DeviceID: "sony_1", Source: SourceAPI})

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	if repo.ctxErr != nil {
		t.Errorf("write context error = %v, want detached context", repo.ctxErr)
	}
}

func TestRecorder_LogsFailures(t *testing.T) {
	repo := &memRepo{err: errors.New("disk full")}
	log := &warnCounter{}
	r := NewRecorder(repo, log)

	r.Record(context.Background(), Entry{Action: ActionDeviceAdd, Source: SourceAPI})
	if log.warns != 1 {
		t.Errorf("warns = %d, want 1", log.warns)
	}
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	r.Record(context.Background(), Entry{Action: ActionDeviceAdd, Source: SourceAPI})
}
