package directory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory StoreAPI used by tests and local development.
type Memory struct {
	mu        sync.Mutex
	tenants   []string
	employees map[string]map[string]Employee
}

func NewMemory() *Memory {
	return &Memory{employees: make(map[string]map[string]Employee)}
}

func (m *Memory) AddTenant(tenantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants = append(m.tenants, tenantID)
	if m.employees[tenantID] == nil {
		m.employees[tenantID] = make(map[string]Employee)
	}
}

func (m *Memory) GetEmployee(_ context.Context, tenantID, employeeID string) (*Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	emp, ok := m.employees[tenantID][employeeID]
	if !ok {
		return nil, ErrNotFound
	}
	out := emp
	return &out, nil
}

func (m *Memory) ListEmployees(_ context.Context, tenantID string, limit, offset int) ([]Employee, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sortedLocked(tenantID)
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *Memory) ListActiveEmployees(_ context.Context, tenantID string) ([]Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Employee
	for _, emp := range m.sortedLocked(tenantID) {
		if emp.Active() {
			out = append(out, emp)
		}
	}
	return out, nil
}

func (m *Memory) CreateEmployee(_ context.Context, tenantID string, emp Employee) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.employees[tenantID] == nil {
		m.employees[tenantID] = make(map[string]Employee)
	}
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = time.Now().UTC()
	}
	m.employees[tenantID][emp.ID] = emp
	return emp.ID, nil
}

func (m *Memory) SetEmployeeStatus(_ context.Context, tenantID, employeeID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	emp, ok := m.employees[tenantID][employeeID]
	if !ok {
		return ErrNotFound
	}
	emp.Status = status
	m.employees[tenantID][employeeID] = emp
	return nil
}

func (m *Memory) UserIDForEmployee(_ context.Context, tenantID, employeeID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	emp, ok := m.employees[tenantID][employeeID]
	if !ok {
		return "", ErrNotFound
	}
	return emp.UserID, nil
}

func (m *Memory) ManagerUserID(_ context.Context, tenantID, employeeID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	emp, ok := m.employees[tenantID][employeeID]
	if !ok || emp.ManagerID == nil {
		return "", nil
	}
	manager, ok := m.employees[tenantID][*emp.ManagerID]
	if !ok {
		return "", nil
	}
	return manager.UserID, nil
}

func (m *Memory) ListTenants(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.tenants))
	copy(out, m.tenants)
	return out, nil
}

func (m *Memory) sortedLocked(tenantID string) []Employee {
	var out []Employee
	for _, emp := range m.employees[tenantID] {
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
