package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory implements StoreAPI in process for tests and local development.
type Memory struct {
	mu     sync.Mutex
	events map[string][]Event // tenant -> events
}

func NewMemory() *Memory {
	return &Memory{events: make(map[string][]Event)}
}

func (m *Memory) InsertEvent(_ context.Context, tenantID string, evt Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	evt.ID = uuid.NewString()
	evt.CreatedAt = time.Now().UTC()
	m.events[tenantID] = append(m.events[tenantID], evt)
	return nil
}

func (m *Memory) matching(tenantID string, filter Filter) []Event {
	var out []Event
	for _, evt := range m.events[tenantID] {
		if filter.Action != "" && evt.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && evt.EntityType != filter.EntityType {
			continue
		}
		if filter.ActorID != "" && evt.ActorID != filter.ActorID {
			continue
		}
		out = append(out, evt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *Memory) ListEvents(_ context.Context, tenantID string, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.matching(tenantID, filter)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if !includeDetails {
		for i := range out {
			out[i].Before = nil
			out[i].After = nil
		}
	}
	return out, nil
}

func (m *Memory) CountEvents(_ context.Context, tenantID string, filter Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matching(tenantID, filter)), nil
}

var _ StoreAPI = (*Memory)(nil)
