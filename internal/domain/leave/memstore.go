package leave

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Memory implements the leave store interfaces in process. It backs unit
// tests and local development where no database is available.
type Memory struct {
	mu          sync.Mutex
	types       map[string]map[string]LeaveType      // tenant -> id -> type
	balances    map[string]map[string]LeaveBalance   // tenant -> pairKey -> balance
	requests    map[string]map[string]LeaveRequest   // tenant -> id -> request
	adjustments map[string]map[string]LeaveAdjustment // tenant -> id -> adjustment
}

func NewMemory() *Memory {
	return &Memory{
		types:       make(map[string]map[string]LeaveType),
		balances:    make(map[string]map[string]LeaveBalance),
		requests:    make(map[string]map[string]LeaveRequest),
		adjustments: make(map[string]map[string]LeaveAdjustment),
	}
}

func pairKey(employeeID, leaveTypeID string) string {
	return employeeID + "/" + leaveTypeID
}

func (m *Memory) GetLeaveType(_ context.Context, tenantID, id string) (*LeaveType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lt, ok := m.types[tenantID][id]
	if !ok {
		return nil, ErrLeaveTypeNotFound
	}
	return &lt, nil
}

func (m *Memory) ListLeaveTypes(_ context.Context, tenantID string) ([]LeaveType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LeaveType
	for _, lt := range m.types[tenantID] {
		out = append(out, lt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) ListActiveForEmploymentType(_ context.Context, tenantID, employmentType string) ([]LeaveType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LeaveType
	for _, lt := range m.types[tenantID] {
		if lt.Active && lt.AppliesTo(employmentType) {
			out = append(out, lt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) CreateLeaveType(_ context.Context, tenantID string, lt LeaveType) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.types[tenantID] == nil {
		m.types[tenantID] = make(map[string]LeaveType)
	}
	lt.ID = uuid.NewString()
	lt.CreatedAt = time.Now().UTC()
	m.types[tenantID][lt.ID] = lt
	return lt.ID, nil
}

func (m *Memory) DeactivateLeaveType(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lt, ok := m.types[tenantID][id]
	if !ok {
		return ErrLeaveTypeNotFound
	}
	lt.Active = false
	m.types[tenantID][id] = lt
	return nil
}

func (m *Memory) GetBalance(_ context.Context, tenantID, employeeID, leaveTypeID string) (*LeaveBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[tenantID][pairKey(employeeID, leaveTypeID)]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *Memory) EnsureBalance(_ context.Context, tenantID, employeeID, leaveTypeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[tenantID] == nil {
		m.balances[tenantID] = make(map[string]LeaveBalance)
	}
	key := pairKey(employeeID, leaveTypeID)
	if _, ok := m.balances[tenantID][key]; ok {
		return nil
	}
	m.balances[tenantID][key] = LeaveBalance{
		ID:          uuid.NewString(),
		EmployeeID:  employeeID,
		LeaveTypeID: leaveTypeID,
		Hours:       decimal.Zero,
		Version:     1,
		UpdatedAt:   time.Now().UTC(),
	}
	return nil
}

func (m *Memory) SwapBalance(_ context.Context, tenantID, employeeID, leaveTypeID string,
	expectVersion int64, newHours decimal.Decimal, causeRef string, lastAccrualAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(employeeID, leaveTypeID)
	b, ok := m.balances[tenantID][key]
	if !ok || b.Version != expectVersion {
		return false, nil
	}
	b.Hours = newHours
	b.Version++
	b.LastCauseRef = causeRef
	if lastAccrualAt != nil {
		t := *lastAccrualAt
		b.LastAccrualAt = &t
	}
	b.UpdatedAt = time.Now().UTC()
	m.balances[tenantID][key] = b
	return true, nil
}

func (m *Memory) ListBalances(_ context.Context, tenantID, employeeID string) ([]LeaveBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LeaveBalance
	for _, b := range m.balances[tenantID] {
		if b.EmployeeID == employeeID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeaveTypeID < out[j].LeaveTypeID })
	return out, nil
}

func (m *Memory) CreateRequest(_ context.Context, tenantID string, req *LeaveRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.requests[tenantID] == nil {
		m.requests[tenantID] = make(map[string]LeaveRequest)
	}
	r := *req
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now().UTC()
	m.requests[tenantID][r.ID] = r
	return r.ID, nil
}

func (m *Memory) GetRequest(_ context.Context, tenantID, id string) (*LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[tenantID][id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	return &r, nil
}

func (m *Memory) ListRequests(_ context.Context, tenantID string, f RequestFilter) ([]LeaveRequest, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []LeaveRequest
	for _, r := range m.requests[tenantID] {
		if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if f.Offset >= len(all) {
		return nil, total, nil
	}
	all = all[f.Offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *Memory) transition(tenantID, id, fromStatus string, mut func(*LeaveRequest)) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[tenantID][id]
	if !ok || r.Status != fromStatus {
		return false, nil
	}
	mut(&r)
	m.requests[tenantID][id] = r
	return true, nil
}

func (m *Memory) MarkApproved(_ context.Context, tenantID, id, decidedBy string, decidedAt time.Time, reason, overrideReason string) (bool, error) {
	return m.transition(tenantID, id, StatusPending, func(r *LeaveRequest) {
		r.Status = StatusApproved
		r.DecidedBy = &decidedBy
		t := decidedAt
		r.DecidedAt = &t
		r.DecisionReason = reason
		r.OverrideReason = overrideReason
	})
}

func (m *Memory) MarkRejected(_ context.Context, tenantID, id, decidedBy string, decidedAt time.Time, reason string) (bool, error) {
	return m.transition(tenantID, id, StatusPending, func(r *LeaveRequest) {
		r.Status = StatusRejected
		r.DecidedBy = &decidedBy
		t := decidedAt
		r.DecidedAt = &t
		r.DecisionReason = reason
	})
}

func (m *Memory) MarkCancelled(_ context.Context, tenantID, id, cancelledBy string, cancelledAt time.Time, reason string) (bool, error) {
	return m.transition(tenantID, id, StatusApproved, func(r *LeaveRequest) {
		r.Status = StatusCancelled
		r.CancelledBy = &cancelledBy
		t := cancelledAt
		r.CancelledAt = &t
		r.CancelReason = reason
	})
}

func (m *Memory) RevertToPending(_ context.Context, tenantID, id string) (bool, error) {
	return m.transition(tenantID, id, StatusApproved, func(r *LeaveRequest) {
		r.Status = StatusPending
		r.DecidedBy = nil
		r.DecidedAt = nil
		r.DecisionReason = ""
		r.OverrideReason = ""
	})
}

func (m *Memory) RevertToApproved(_ context.Context, tenantID, id string) (bool, error) {
	return m.transition(tenantID, id, StatusCancelled, func(r *LeaveRequest) {
		r.Status = StatusApproved
		r.CancelledBy = nil
		r.CancelledAt = nil
		r.CancelReason = ""
	})
}

func (m *Memory) SetBalanceDeducted(_ context.Context, tenantID, id string, deducted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[tenantID][id]
	if !ok {
		return ErrRequestNotFound
	}
	r.BalanceDeducted = deducted
	m.requests[tenantID][id] = r
	return nil
}

func (m *Memory) InsertAdjustment(_ context.Context, tenantID string, adj *LeaveAdjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.adjustments[tenantID] == nil {
		m.adjustments[tenantID] = make(map[string]LeaveAdjustment)
	}
	m.adjustments[tenantID][adj.ID] = *adj
	return nil
}

func (m *Memory) ListAdjustments(_ context.Context, tenantID, employeeID string, limit, offset int) ([]LeaveAdjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LeaveAdjustment
	for _, a := range m.adjustments[tenantID] {
		if employeeID != "" && a.EmployeeID != employeeID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit <= 0 {
		limit = 50
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var (
	_ RegistryStore   = (*Memory)(nil)
	_ BalanceStore    = (*Memory)(nil)
	_ RequestStore    = (*Memory)(nil)
	_ AdjustmentStore = (*Memory)(nil)
)
