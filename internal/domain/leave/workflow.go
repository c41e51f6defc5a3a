package leave

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Workflow drives a leave request through its lifecycle:
//
//	pending → approved | rejected
//	approved → cancelled
//
// rejected and cancelled are terminal. Balance effects happen only on
// approval (deduction) and cancellation (restoration), always through the
// Ledger and always for the hours stored on the request. Later changes to
// accrual rates or calendars never alter a request's cost.
type Workflow struct {
	Requests    RequestStore
	Registry    *Registry
	Ledger      *Ledger
	Directory   EmployeeDirectory
	HoursPerDay decimal.Decimal

	now func() time.Time
}

func NewWorkflow(requests RequestStore, registry *Registry, ledger *Ledger, dir EmployeeDirectory, hoursPerDay decimal.Decimal) *Workflow {
	return &Workflow{
		Requests:    requests,
		Registry:    registry,
		Ledger:      ledger,
		Directory:   dir,
		HoursPerDay: hoursPerDay,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type CreateRequestParams struct {
	EmployeeID  string
	LeaveTypeID string
	StartDate   time.Time
	EndDate     time.Time
	// Hours zero means: derive from the inclusive date range.
	Hours  decimal.Decimal
	Reason string
}

func (w *Workflow) Create(ctx context.Context, tenantID string, p CreateRequestParams) (*LeaveRequest, error) {
	emp, err := w.Directory.GetEmployee(ctx, tenantID, p.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !emp.Active() {
		return nil, fmt.Errorf("%w: %s", ErrEmployeeInactive, p.EmployeeID)
	}

	lt, err := w.Registry.Get(ctx, tenantID, p.LeaveTypeID)
	if err != nil {
		return nil, err
	}
	if !lt.Active {
		return nil, invalidField("leaveTypeId", "leave type is not active")
	}
	if !lt.AppliesTo(emp.EmploymentType) {
		return nil, invalidField("leaveTypeId", "leave type does not apply to employment type "+emp.EmploymentType)
	}
	if p.EndDate.Before(p.StartDate) {
		return nil, invalidField("endDate", "must be on or after startDate")
	}

	hours := p.Hours
	if hours.IsZero() {
		hours, err = RequestHours(p.StartDate, p.EndDate, w.HoursPerDay)
		if err != nil {
			return nil, err
		}
	}
	if hours.Sign() <= 0 {
		return nil, invalidField("hours", "must be greater than zero")
	}

	leaveTypeID := p.LeaveTypeID
	req := &LeaveRequest{
		EmployeeID:  p.EmployeeID,
		LeaveTypeID: &leaveTypeID,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Hours:       hours,
		Reason:      strings.TrimSpace(p.Reason),
		Status:      StatusPending,
		CreatedAt:   w.now(),
	}
	id, err := w.Requests.CreateRequest(ctx, tenantID, req)
	if err != nil {
		return nil, err
	}
	req.ID = id
	return req, nil
}

type ApproveParams struct {
	ActorID string
	Reason  string
	// Override approves despite insufficient balance; OverrideReason is then
	// mandatory and recorded on the request.
	Override       bool
	OverrideReason string
}

func (w *Workflow) Approve(ctx context.Context, tenantID, requestID string, p ApproveParams) (*LeaveRequest, error) {
	req, err := w.Requests.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: cannot approve a %s request", ErrInvalidTransition, req.Status)
	}
	if req.LeaveTypeID == nil {
		return nil, fmt.Errorf("%w: request has no leave type", ErrUnknownLeaveType)
	}

	available, err := w.Ledger.Balance(ctx, tenantID, req.EmployeeID, *req.LeaveTypeID)
	if err != nil {
		return nil, err
	}

	overrideReason := ""
	if available.LessThan(req.Hours) {
		if !p.Override {
			return nil, &InsufficientBalanceError{
				EmployeeID:  req.EmployeeID,
				LeaveTypeID: *req.LeaveTypeID,
				Available:   available,
				Requested:   req.Hours,
			}
		}
		overrideReason = strings.TrimSpace(p.OverrideReason)
		if overrideReason == "" {
			return nil, invalidField("overrideReason", "required when approving despite insufficient balance")
		}
	}

	decidedAt := w.now()
	won, err := w.Requests.MarkApproved(ctx, tenantID, requestID, p.ActorID, decidedAt, strings.TrimSpace(p.Reason), overrideReason)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, fmt.Errorf("%w: request was decided concurrently", ErrInvalidTransition)
	}

	if _, err := w.Ledger.ApplyDelta(ctx, tenantID, req.EmployeeID, *req.LeaveTypeID, req.Hours.Neg(), requestCauseRef(requestID)); err != nil {
		// Deduction did not happen; put the request back so the approval can
		// be retried cleanly.
		if _, revertErr := w.Requests.RevertToPending(ctx, tenantID, requestID); revertErr != nil {
			slog.Error("approve revert failed", "requestId", requestID, "err", revertErr)
		}
		return nil, err
	}
	if err := w.Requests.SetBalanceDeducted(ctx, tenantID, requestID, true); err != nil {
		return nil, err
	}

	return w.Requests.GetRequest(ctx, tenantID, requestID)
}

func (w *Workflow) Reject(ctx context.Context, tenantID, requestID, actorID, reason string) (*LeaveRequest, error) {
	req, err := w.Requests.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: cannot reject a %s request", ErrInvalidTransition, req.Status)
	}

	// A pending request never held a deduction, so rejection is pure state.
	won, err := w.Requests.MarkRejected(ctx, tenantID, requestID, actorID, w.now(), strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, fmt.Errorf("%w: request was decided concurrently", ErrInvalidTransition)
	}
	return w.Requests.GetRequest(ctx, tenantID, requestID)
}

// Cancel is legal only from approved: only approved requests ever held a
// deduction, and cancelling restores it.
func (w *Workflow) Cancel(ctx context.Context, tenantID, requestID, actorID, reason string) (*LeaveRequest, error) {
	req, err := w.Requests.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusApproved {
		return nil, fmt.Errorf("%w: cannot cancel a %s request", ErrInvalidTransition, req.Status)
	}

	won, err := w.Requests.MarkCancelled(ctx, tenantID, requestID, actorID, w.now(), strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, fmt.Errorf("%w: request was decided concurrently", ErrInvalidTransition)
	}

	if req.BalanceDeducted && req.LeaveTypeID != nil {
		if _, err := w.Ledger.ApplyDelta(ctx, tenantID, req.EmployeeID, *req.LeaveTypeID, req.Hours, requestCauseRef(requestID)); err != nil {
			if _, revertErr := w.Requests.RevertToApproved(ctx, tenantID, requestID); revertErr != nil {
				slog.Error("cancel revert failed", "requestId", requestID, "err", revertErr)
			}
			return nil, err
		}
		if err := w.Requests.SetBalanceDeducted(ctx, tenantID, requestID, false); err != nil {
			return nil, err
		}
	}

	return w.Requests.GetRequest(ctx, tenantID, requestID)
}

func (w *Workflow) Get(ctx context.Context, tenantID, requestID string) (*LeaveRequest, error) {
	return w.Requests.GetRequest(ctx, tenantID, requestID)
}

func (w *Workflow) List(ctx context.Context, tenantID string, f RequestFilter) ([]LeaveRequest, int, error) {
	return w.Requests.ListRequests(ctx, tenantID, f)
}

func requestCauseRef(requestID string) string {
	return "request:" + requestID
}
