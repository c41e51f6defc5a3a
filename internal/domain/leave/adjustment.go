package leave

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMinReasonLength is the fallback audit-justification minimum when
// configuration does not set one.
const DefaultMinReasonLength = 10

// AdjustmentRecorder applies manual balance corrections. Every adjustment
// requires a non-trivial reason and produces an immutable audit row tied to
// the ledger delta it caused.
type AdjustmentRecorder struct {
	Adjustments  AdjustmentStore
	Ledger       *Ledger
	MinReasonLen int

	now func() time.Time
}

func NewAdjustmentRecorder(adjustments AdjustmentStore, ledger *Ledger, minReasonLen int) *AdjustmentRecorder {
	if minReasonLen <= 0 {
		minReasonLen = DefaultMinReasonLength
	}
	return &AdjustmentRecorder{
		Adjustments:  adjustments,
		Ledger:       ledger,
		MinReasonLen: minReasonLen,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type AdjustmentParams struct {
	EmployeeID  string
	LeaveTypeID string
	DeltaHours  decimal.Decimal
	Reason      string
	ActorID     string
}

func (a *AdjustmentRecorder) Record(ctx context.Context, tenantID string, p AdjustmentParams) (*LeaveAdjustment, error) {
	reason := strings.TrimSpace(p.Reason)
	if p.DeltaHours.IsZero() {
		return nil, invalidField("deltaHours", "must not be zero")
	}
	if utf8.RuneCountInString(reason) < a.MinReasonLen {
		return nil, invalidField("reason", fmt.Sprintf("must be at least %d characters", a.MinReasonLen))
	}
	if strings.TrimSpace(p.ActorID) == "" {
		return nil, invalidField("actorId", "required")
	}

	// The id is minted up front so the ledger delta can reference the
	// adjustment that caused it.
	id := uuid.NewString()

	newBalance, err := a.Ledger.ApplyDelta(ctx, tenantID, p.EmployeeID, p.LeaveTypeID, p.DeltaHours, "adjustment:"+id)
	if err != nil {
		return nil, err
	}

	adj := &LeaveAdjustment{
		ID:           id,
		EmployeeID:   p.EmployeeID,
		LeaveTypeID:  p.LeaveTypeID,
		DeltaHours:   p.DeltaHours,
		Reason:       reason,
		ActorID:      p.ActorID,
		BalanceAfter: newBalance,
		CreatedAt:    a.now(),
	}
	if err := a.Adjustments.InsertAdjustment(ctx, tenantID, adj); err != nil {
		// The delta landed but the audit row did not; undo the delta so the
		// balance stays consistent with the recorded trail.
		if _, undoErr := a.Ledger.ApplyDelta(ctx, tenantID, p.EmployeeID, p.LeaveTypeID, p.DeltaHours.Neg(), "adjustment-undo:"+id); undoErr != nil {
			slog.Error("adjustment undo failed", "adjustmentId", id, "err", undoErr)
		}
		return nil, err
	}
	return adj, nil
}

func (a *AdjustmentRecorder) List(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]LeaveAdjustment, error) {
	return a.Adjustments.ListAdjustments(ctx, tenantID, employeeID, limit, offset)
}
