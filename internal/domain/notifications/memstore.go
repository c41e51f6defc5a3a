package notifications

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory implements StoreAPI in process for tests and local development.
type Memory struct {
	mu    sync.Mutex
	byKey map[string][]Notification // tenant/user -> notifications
}

func NewMemory() *Memory {
	return &Memory{byKey: make(map[string][]Notification)}
}

func key(tenantID, userID string) string {
	return tenantID + "/" + userID
}

func (m *Memory) CreateNotification(_ context.Context, tenantID, userID, ntype, title, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(tenantID, userID)
	m.byKey[k] = append(m.byKey[k], Notification{
		ID:        uuid.NewString(),
		Type:      ntype,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (m *Memory) ListNotifications(_ context.Context, tenantID, userID string, limit, offset int) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.byKey[key(tenantID, userID)]
	out := make([]Notification, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) CountNotifications(_ context.Context, tenantID, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byKey[key(tenantID, userID)]), nil
}

func (m *Memory) MarkRead(_ context.Context, tenantID, userID, notificationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(tenantID, userID)
	for i, n := range m.byKey[k] {
		if n.ID == notificationID {
			now := time.Now().UTC()
			m.byKey[k][i].ReadAt = &now
			return nil
		}
	}
	return nil
}

var _ StoreAPI = (*Memory)(nil)
