package leave

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"leavedesk/internal/domain/directory"
)

type workflowEnv struct {
	store    *Memory
	dir      *directory.Memory
	registry *Registry
	ledger   *Ledger
	workflow *Workflow
	typeID   string
	empID    string
}

func newWorkflowEnv(t *testing.T) *workflowEnv {
	t.Helper()
	ctx := context.Background()

	store := NewMemory()
	dir := directory.NewMemory()
	dir.AddTenant("t1")

	empID, err := dir.CreateEmployee(ctx, "t1", directory.Employee{
		FirstName:      "Ada",
		LastName:       "Nguyen",
		EmploymentType: directory.EmploymentFullTime,
		Status:         directory.StatusActive,
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}

	registry := NewRegistry(store)
	typeID, err := registry.Create(ctx, "t1", LeaveType{
		Name:             "Annual Leave",
		Paid:             true,
		Accrues:          true,
		AccrualRateHours: decimal.NewFromFloat(2.92),
		AccrualFrequency: FreqFortnightly,
	})
	if err != nil {
		t.Fatalf("create leave type: %v", err)
	}

	ledger := NewLedger(store, store)
	workflow := NewWorkflow(store, registry, ledger, dir, decimal.NewFromInt(8))

	return &workflowEnv{
		store:    store,
		dir:      dir,
		registry: registry,
		ledger:   ledger,
		workflow: workflow,
		typeID:   typeID,
		empID:    empID,
	}
}

func (e *workflowEnv) fund(t *testing.T, hours int64) {
	t.Helper()
	if _, err := e.ledger.ApplyDelta(context.Background(), "t1", e.empID, e.typeID, decimal.NewFromInt(hours), "adjustment:seed"); err != nil {
		t.Fatalf("fund balance: %v", err)
	}
}

func (e *workflowEnv) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	bal, err := e.ledger.Balance(context.Background(), "t1", e.empID, e.typeID)
	if err != nil {
		t.Fatalf("read balance: %v", err)
	}
	return bal
}

func (e *workflowEnv) file(t *testing.T, days int) *LeaveRequest {
	t.Helper()
	start := time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)
	req, err := e.workflow.Create(context.Background(), "t1", CreateRequestParams{
		EmployeeID:  e.empID,
		LeaveTypeID: e.typeID,
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, days-1),
		Reason:      "family trip",
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return req
}

func TestCreateDerivesHoursFromRange(t *testing.T) {
	env := newWorkflowEnv(t)

	req := env.file(t, 3)
	if req.Status != StatusPending {
		t.Fatalf("expected pending, got %s", req.Status)
	}
	if !req.Hours.Equal(decimal.NewFromInt(24)) {
		t.Fatalf("expected 24 hours for three days at 8h, got %s", req.Hours)
	}
	if !env.balance(t).IsZero() {
		t.Fatal("filing a request must not touch the balance")
	}
}

func TestCreateRejectsInactiveEmployee(t *testing.T) {
	env := newWorkflowEnv(t)
	ctx := context.Background()

	if err := env.dir.SetEmployeeStatus(ctx, "t1", env.empID, directory.StatusInactive); err != nil {
		t.Fatalf("set status: %v", err)
	}
	_, err := env.workflow.Create(ctx, "t1", CreateRequestParams{
		EmployeeID:  env.empID,
		LeaveTypeID: env.typeID,
		StartDate:   time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrEmployeeInactive) {
		t.Fatalf("expected ErrEmployeeInactive, got %v", err)
	}
}

func TestCreateRejectsInapplicableType(t *testing.T) {
	env := newWorkflowEnv(t)
	ctx := context.Background()

	restrictedID, err := env.registry.Create(ctx, "t1", LeaveType{
		Name:            "Casual Loading Leave",
		EmploymentTypes: []string{directory.EmploymentCasual},
	})
	if err != nil {
		t.Fatalf("create leave type: %v", err)
	}

	_, err = env.workflow.Create(ctx, "t1", CreateRequestParams{
		EmployeeID:  env.empID,
		LeaveTypeID: restrictedID,
		StartDate:   time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for full_time employee, got %v", err)
	}
}

func TestApproveDeductsExactHours(t *testing.T) {
	env := newWorkflowEnv(t)
	env.fund(t, 40)
	req := env.file(t, 2)

	approved, err := env.workflow.Approve(context.Background(), "t1", req.ID, ApproveParams{ActorID: "mgr-1"})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if !approved.BalanceDeducted {
		t.Fatal("expected balanceDeducted true")
	}
	if got := env.balance(t); !got.Equal(decimal.NewFromInt(24)) {
		t.Fatalf("expected 40-16=24, got %s", got)
	}
}

func TestApproveInsufficientBalanceWithoutOverride(t *testing.T) {
	env := newWorkflowEnv(t)
	env.fund(t, 40)
	req := env.file(t, 7) // 56 hours

	_, err := env.workflow.Approve(context.Background(), "t1", req.ID, ApproveParams{ActorID: "mgr-1"})
	var insufficient *InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}
	if !insufficient.Available.Equal(decimal.NewFromInt(40)) || !insufficient.Requested.Equal(decimal.NewFromInt(56)) {
		t.Fatalf("expected available 40 requested 56, got %s / %s", insufficient.Available, insufficient.Requested)
	}
	if !insufficient.Shortfall().Equal(decimal.NewFromInt(16)) {
		t.Fatalf("expected shortfall 16, got %s", insufficient.Shortfall())
	}

	// Nothing moved: balance intact, request still pending.
	if got := env.balance(t); !got.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected balance untouched at 40, got %s", got)
	}
	cur, _ := env.workflow.Get(context.Background(), "t1", req.ID)
	if cur.Status != StatusPending {
		t.Fatalf("expected request still pending, got %s", cur.Status)
	}
}

func TestApproveOverrideGoesNegative(t *testing.T) {
	env := newWorkflowEnv(t)
	env.fund(t, 40)
	req := env.file(t, 7) // 56 hours

	approved, err := env.workflow.Approve(context.Background(), "t1", req.ID, ApproveParams{
		ActorID:        "mgr-1",
		Override:       true,
		OverrideReason: "negotiated unpaid top-up",
	})
	if err != nil {
		t.Fatalf("approve with override: %v", err)
	}
	if approved.OverrideReason != "negotiated unpaid top-up" {
		t.Fatalf("expected override reason stored, got %q", approved.OverrideReason)
	}
	if got := env.balance(t); !got.Equal(decimal.NewFromInt(-16)) {
		t.Fatalf("expected balance -16 after override, got %s", got)
	}
}

func TestApproveOverrideRequiresReason(t *testing.T) {
	env := newWorkflowEnv(t)
	env.fund(t, 8)
	req := env.file(t, 2)

	_, err := env.workflow.Approve(context.Background(), "t1", req.ID, ApproveParams{
		ActorID:  "mgr-1",
		Override: true,
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing override reason, got %v", err)
	}
	if got := env.balance(t); !got.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("expected balance untouched, got %s", got)
	}
}

func TestOverrideReasonNotStoredWhenBalanceSufficient(t *testing.T) {
	env := newWorkflowEnv(t)
	env.fund(t, 40)
	req := env.file(t, 2)

	approved, err := env.workflow.Approve(context.Background(), "t1", req.ID, ApproveParams{
		ActorID:        "mgr-1",
		Override:       true,
		OverrideReason: "not needed",
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.OverrideReason != "" {
		t.Fatalf("override reason recorded without a shortfall: %q", approved.OverrideReason)
	}
}

func TestRejectLeavesBalanceUntouched(t *testing.T) {
	env := newWorkflowEnv(t)
	env.fund(t, 40)
	req := env.file(t, 2)

	rejected, err := env.workflow.Reject(context.Background(), "t1", req.ID, "mgr-1", "coverage gap")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if got := env.balance(t); !got.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected balance untouched at 40, got %s", got)
	}
}

func TestCancelRestoresDeduction(t *testing.T) {
	env := newWorkflowEnv(t)
	env.fund(t, 40)
	req := env.file(t, 2)
	ctx := context.Background()

	if _, err := env.workflow.Approve(ctx, "t1", req.ID, ApproveParams{ActorID: "mgr-1"}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	cancelled, err := env.workflow.Cancel(ctx, "t1", req.ID, "mgr-1", "plans changed")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.BalanceDeducted {
		t.Fatal("expected balanceDeducted cleared after restoration")
	}
	if got := env.balance(t); !got.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected full restoration to 40, got %s", got)
	}
}

func TestIllegalTransitions(t *testing.T) {
	env := newWorkflowEnv(t)
	env.fund(t, 80)
	ctx := context.Background()

	pending := env.file(t, 1)

	// Cancel from pending is not a legal move.
	if _, err := env.workflow.Cancel(ctx, "t1", pending.ID, "mgr-1", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition cancelling pending, got %v", err)
	}

	if _, err := env.workflow.Approve(ctx, "t1", pending.ID, ApproveParams{ActorID: "mgr-1"}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// Approved requests cannot be approved or rejected again.
	if _, err := env.workflow.Approve(ctx, "t1", pending.ID, ApproveParams{ActorID: "mgr-2"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition re-approving, got %v", err)
	}
	if _, err := env.workflow.Reject(ctx, "t1", pending.ID, "mgr-2", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition rejecting approved, got %v", err)
	}

	if _, err := env.workflow.Cancel(ctx, "t1", pending.ID, "mgr-1", ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// Cancelled is terminal.
	if _, err := env.workflow.Cancel(ctx, "t1", pending.ID, "mgr-1", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition re-cancelling, got %v", err)
	}
}

func TestRequestCostPinnedAtFiling(t *testing.T) {
	env := newWorkflowEnv(t)
	env.fund(t, 40)
	req := env.file(t, 2) // 16 hours at 8h/day

	// Changing the workflow's working day after filing must not change what
	// an approval deducts.
	env.workflow.HoursPerDay = decimal.NewFromInt(10)

	if _, err := env.workflow.Approve(context.Background(), "t1", req.ID, ApproveParams{ActorID: "mgr-1"}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := env.balance(t); !got.Equal(decimal.NewFromInt(24)) {
		t.Fatalf("expected deduction of the filed 16 hours, got balance %s", got)
	}
}
