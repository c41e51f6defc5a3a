package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"leavedesk/internal/domain/directory"
)

type RegistryStore interface {
	GetLeaveType(ctx context.Context, tenantID, id string) (*LeaveType, error)
	ListLeaveTypes(ctx context.Context, tenantID string) ([]LeaveType, error)
	ListActiveForEmploymentType(ctx context.Context, tenantID, employmentType string) ([]LeaveType, error)
	CreateLeaveType(ctx context.Context, tenantID string, lt LeaveType) (string, error)
	DeactivateLeaveType(ctx context.Context, tenantID, id string) error
}

// BalanceStore persists one row per (employee, leave type) pair. The engine's
// serialization point is SwapBalance: it must apply the new value only when
// the stored version still matches, atomically, scoped to the single pair.
type BalanceStore interface {
	// GetBalance returns nil (not an error) when no row exists yet.
	GetBalance(ctx context.Context, tenantID, employeeID, leaveTypeID string) (*LeaveBalance, error)
	// EnsureBalance creates the row with balance 0 and version 1 if missing.
	EnsureBalance(ctx context.Context, tenantID, employeeID, leaveTypeID string) error
	// SwapBalance writes newHours and causeRef, bumps the version, and
	// optionally advances the accrual marker. Returns false when the version
	// check fails; nothing is written in that case.
	SwapBalance(ctx context.Context, tenantID, employeeID, leaveTypeID string,
		expectVersion int64, newHours decimal.Decimal, causeRef string, lastAccrualAt *time.Time) (bool, error)
	ListBalances(ctx context.Context, tenantID, employeeID string) ([]LeaveBalance, error)
}

type RequestStore interface {
	CreateRequest(ctx context.Context, tenantID string, req *LeaveRequest) (string, error)
	GetRequest(ctx context.Context, tenantID, id string) (*LeaveRequest, error)
	ListRequests(ctx context.Context, tenantID string, f RequestFilter) ([]LeaveRequest, int, error)

	// The Mark* methods transition a request only when it is still in the
	// expected prior state; they return false when another decision won.
	MarkApproved(ctx context.Context, tenantID, id, decidedBy string, decidedAt time.Time, reason, overrideReason string) (bool, error)
	MarkRejected(ctx context.Context, tenantID, id, decidedBy string, decidedAt time.Time, reason string) (bool, error)
	MarkCancelled(ctx context.Context, tenantID, id, cancelledBy string, cancelledAt time.Time, reason string) (bool, error)
	// RevertToPending / RevertToApproved undo a transition whose follow-up
	// ledger write failed, clearing the metadata the transition recorded.
	RevertToPending(ctx context.Context, tenantID, id string) (bool, error)
	RevertToApproved(ctx context.Context, tenantID, id string) (bool, error)
	SetBalanceDeducted(ctx context.Context, tenantID, id string, deducted bool) error
}

type RequestFilter struct {
	EmployeeID string
	Status     string
	Limit      int
	Offset     int
}

type AdjustmentStore interface {
	// InsertAdjustment persists the row exactly as given, id included.
	// Adjustments are immutable; corrections are new offsetting rows.
	InsertAdjustment(ctx context.Context, tenantID string, adj *LeaveAdjustment) error
	ListAdjustments(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]LeaveAdjustment, error)
}

// EmployeeDirectory is the slice of the employee directory this engine reads.
type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, tenantID, employeeID string) (*directory.Employee, error)
	ListActiveEmployees(ctx context.Context, tenantID string) ([]directory.Employee, error)
}
