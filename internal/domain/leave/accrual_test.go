package leave

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"leavedesk/internal/domain/directory"
)

type accrualEnv struct {
	store    *Memory
	dir      *directory.Memory
	registry *Registry
	ledger   *Ledger
	engine   *AccrualEngine
}

func newAccrualEnv(t *testing.T) *accrualEnv {
	t.Helper()
	store := NewMemory()
	dir := directory.NewMemory()
	dir.AddTenant("t1")
	registry := NewRegistry(store)
	ledger := NewLedger(store, store)
	return &accrualEnv{
		store:    store,
		dir:      dir,
		registry: registry,
		ledger:   ledger,
		engine:   NewAccrualEngine(registry, dir, ledger, store),
	}
}

func (e *accrualEnv) addEmployee(t *testing.T, employmentType, status string, start time.Time) string {
	t.Helper()
	id, err := e.dir.CreateEmployee(context.Background(), "t1", directory.Employee{
		FirstName:      "Sam",
		LastName:       "Okafor",
		EmploymentType: employmentType,
		Status:         status,
		StartDate:      start,
	})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	return id
}

func (e *accrualEnv) addType(t *testing.T, lt LeaveType) string {
	t.Helper()
	id, err := e.registry.Create(context.Background(), "t1", lt)
	if err != nil {
		t.Fatalf("create leave type: %v", err)
	}
	return id
}

func TestAccrualAnchorsOnStartDate(t *testing.T) {
	env := newAccrualEnv(t)
	ctx := context.Background()

	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	empID := env.addEmployee(t, directory.EmploymentFullTime, directory.StatusActive, start)
	typeID := env.addType(t, LeaveType{
		Name:             "Annual Leave",
		Paid:             true,
		Accrues:          true,
		AccrualRateHours: decimal.NewFromFloat(2.92),
		AccrualFrequency: FreqFortnightly,
	})

	// Exactly three fortnights after the start date.
	now := start.AddDate(0, 0, 42)
	summary, err := env.engine.Run(ctx, "t1", now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.EmployeesCredited != 1 || summary.PairsProcessed != 1 {
		t.Fatalf("expected 1 employee / 1 pair, got %d / %d", summary.EmployeesCredited, summary.PairsProcessed)
	}
	want := decimal.NewFromFloat(2.92).Mul(decimal.NewFromInt(3))
	if !summary.TotalHoursCredited.Equal(want) {
		t.Fatalf("expected %s credited, got %s", want, summary.TotalHoursCredited)
	}

	bal, err := env.ledger.Balance(ctx, "t1", empID, typeID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !bal.Equal(want) {
		t.Fatalf("expected balance %s, got %s", want, bal)
	}
}

func TestAccrualRunIsRerunnable(t *testing.T) {
	env := newAccrualEnv(t)
	ctx := context.Background()

	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	env.addEmployee(t, directory.EmploymentFullTime, directory.StatusActive, start)
	env.addType(t, LeaveType{
		Name:             "Annual Leave",
		Accrues:          true,
		AccrualRateHours: decimal.NewFromFloat(2.92),
		AccrualFrequency: FreqFortnightly,
	})

	now := start.AddDate(0, 0, 15)
	first, err := env.engine.Run(ctx, "t1", now)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !first.TotalHoursCredited.Equal(decimal.NewFromFloat(2.92)) {
		t.Fatalf("expected one fortnight credited, got %s", first.TotalHoursCredited)
	}

	// Same period again: the marker has advanced, nothing more is owed.
	second, err := env.engine.Run(ctx, "t1", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.TotalHoursCredited.IsZero() {
		t.Fatalf("expected zero on re-run, got %s", second.TotalHoursCredited)
	}
	if second.EmployeesCredited != 0 {
		t.Fatalf("expected no employees credited on re-run, got %d", second.EmployeesCredited)
	}
}

func TestAccrualClampsAtCap(t *testing.T) {
	env := newAccrualEnv(t)
	ctx := context.Background()

	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	empID := env.addEmployee(t, directory.EmploymentFullTime, directory.StatusActive, start)
	capHours := decimal.NewFromInt(10)
	typeID := env.addType(t, LeaveType{
		Name:             "Annual Leave",
		Accrues:          true,
		AccrualRateHours: decimal.NewFromInt(4),
		AccrualFrequency: FreqWeekly,
		MaxBalanceHours:  &capHours,
	})

	// Four weeks would credit 16 hours uncapped.
	summary, err := env.engine.Run(ctx, "t1", start.AddDate(0, 0, 28))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !summary.TotalHoursCredited.Equal(capHours) {
		t.Fatalf("expected credit clamped to %s, got %s", capHours, summary.TotalHoursCredited)
	}

	bal, err := env.ledger.Balance(ctx, "t1", empID, typeID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !bal.Equal(capHours) {
		t.Fatalf("expected balance at cap, got %s", bal)
	}

	// The marker still advanced, so the next run inside the same window owes
	// nothing even though the pair was clamped.
	again, err := env.engine.Run(ctx, "t1", start.AddDate(0, 0, 28))
	if err != nil {
		t.Fatalf("re-run: %v", err)
	}
	if !again.TotalHoursCredited.IsZero() {
		t.Fatalf("expected zero after clamped run, got %s", again.TotalHoursCredited)
	}
}

func TestAccrualSkipsNonAccruingAndInapplicableTypes(t *testing.T) {
	env := newAccrualEnv(t)
	ctx := context.Background()

	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	env.addEmployee(t, directory.EmploymentFullTime, directory.StatusActive, start)
	env.addType(t, LeaveType{Name: "Unpaid Leave"})
	env.addType(t, LeaveType{
		Name:             "Casual Loading Leave",
		Accrues:          true,
		AccrualRateHours: decimal.NewFromInt(2),
		AccrualFrequency: FreqWeekly,
		EmploymentTypes:  []string{directory.EmploymentCasual},
	})

	summary, err := env.engine.Run(ctx, "t1", start.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.PairsProcessed != 0 {
		t.Fatalf("expected no pairs processed, got %d", summary.PairsProcessed)
	}
	if !summary.TotalHoursCredited.IsZero() {
		t.Fatalf("expected zero credited, got %s", summary.TotalHoursCredited)
	}
}

func TestAccrualSkipsInactiveEmployees(t *testing.T) {
	env := newAccrualEnv(t)
	ctx := context.Background()

	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	env.addEmployee(t, directory.EmploymentFullTime, directory.StatusInactive, start)
	env.addType(t, LeaveType{
		Name:             "Annual Leave",
		Accrues:          true,
		AccrualRateHours: decimal.NewFromFloat(2.92),
		AccrualFrequency: FreqFortnightly,
	})

	summary, err := env.engine.Run(ctx, "t1", start.AddDate(1, 0, 0))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.EmployeesCredited != 0 || summary.PairsProcessed != 0 {
		t.Fatalf("expected inactive employee skipped, got %d employees / %d pairs",
			summary.EmployeesCredited, summary.PairsProcessed)
	}
}

func TestAccrualCountsEmployeeOncePerRun(t *testing.T) {
	env := newAccrualEnv(t)
	ctx := context.Background()

	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	env.addEmployee(t, directory.EmploymentFullTime, directory.StatusActive, start)
	env.addType(t, LeaveType{
		Name:             "Annual Leave",
		Accrues:          true,
		AccrualRateHours: decimal.NewFromFloat(2.92),
		AccrualFrequency: FreqFortnightly,
	})
	env.addType(t, LeaveType{
		Name:             "Sick Leave",
		Accrues:          true,
		AccrualRateHours: decimal.NewFromFloat(1.46),
		AccrualFrequency: FreqFortnightly,
	})

	summary, err := env.engine.Run(ctx, "t1", start.AddDate(0, 0, 14))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.PairsProcessed != 2 {
		t.Fatalf("expected 2 pairs, got %d", summary.PairsProcessed)
	}
	if summary.EmployeesCredited != 1 {
		t.Fatalf("expected employee counted once, got %d", summary.EmployeesCredited)
	}
	want := decimal.NewFromFloat(2.92).Add(decimal.NewFromFloat(1.46))
	if !summary.TotalHoursCredited.Equal(want) {
		t.Fatalf("expected %s credited, got %s", want, summary.TotalHoursCredited)
	}
}
