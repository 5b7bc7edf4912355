package history

import "sync"

// MemStore is an in-memory Store for tests and dry runs.
type MemStore struct {
	mu    sync.Mutex
	runs  []*Run
	gains map[int64][]GainRecord
	next  int64
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{gains: make(map[int64][]GainRecord), next: 1}
}

func (m *MemStore) RecordRun(run *Run, gains []GainRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := *run
	r.ID = m.next
	m.next++
	if r.StartedAt == "" {
		r.StartedAt = nowUTC()
	}
	m.runs = append(m.runs, &r)
	gs := make([]GainRecord, len(gains))
	copy(gs, gains)
	for i := range gs {
		gs[i].RunID = r.ID
	}
	m.gains[r.ID] = gs
	run.ID = r.ID
	run.StartedAt = r.StartedAt
	return r.ID, nil
}

func (m *MemStore) GetRun(runID int64) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == runID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemStore) ListRuns(limit int) ([]*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Run
	for i := len(m.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		cp := *m.runs[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemStore) ListGains(runID int64) ([]GainRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gs := m.gains[runID]
	out := make([]GainRecord, len(gs))
	copy(out, gs)
	return out, nil
}

func (m *MemStore) Close() error { return nil }
