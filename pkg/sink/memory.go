package sink

import (
	"context"
	"sort"
	"sync"

	"behancesync/pkg/record"
)

// Memory keeps records in a map. Used for dry runs and tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*record.Record
	order   []string
}

// NewMemory creates an empty in-memory sink
func NewMemory() *Memory {
	return &Memory{records: make(map[string]*record.Record)}
}

func (m *Memory) CreateRecord(ctx context.Context, rec *record.Record) (Status, error) {
	if err := validate(rec); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(rec)
	prev, ok := m.records[k]
	m.records[k] = rec
	switch {
	case !ok:
		m.order = append(m.order, k)
		return StatusCreated, nil
	case prev.Internal.ContentDigest == rec.Internal.ContentDigest:
		return StatusUnchanged, nil
	default:
		return StatusUpdated, nil
	}
}

// List returns records of recordType ordered by id; "" lists everything
func (m *Memory) List(ctx context.Context, recordType string) ([]*record.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*record.Record
	for _, rec := range m.records {
		if recordType == "" || rec.Internal.Type == recordType {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out, nil
}

// Records returns every record in the order it was first stored
func (m *Memory) Records() []*record.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*record.Record, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.records[k])
	}
	return out
}

func (m *Memory) Close() error { return nil }

func sortRecords(recs []*record.Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Internal.Type != recs[j].Internal.Type {
			return recs[i].Internal.Type < recs[j].Internal.Type
		}
		return recs[i].ID < recs[j].ID
	})
}
