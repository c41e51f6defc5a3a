package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// AccrualEngine periodically credits balance per the registry's accrual
// rules. A run is re-runnable: it credits only whole elapsed periods and
// advances each pair's marker by exactly the periods it consumed, so a
// second run in the same period credits nothing.
type AccrualEngine struct {
	Registry  *Registry
	Directory EmployeeDirectory
	Ledger    *Ledger
	Balances  BalanceStore
}

func NewAccrualEngine(registry *Registry, dir EmployeeDirectory, ledger *Ledger, balances BalanceStore) *AccrualEngine {
	return &AccrualEngine{Registry: registry, Directory: dir, Ledger: ledger, Balances: balances}
}

type AccrualFailure struct {
	EmployeeID  string `json:"employeeId"`
	LeaveTypeID string `json:"leaveTypeId"`
	Error       string `json:"error"`
}

type AccrualSummary struct {
	EmployeesCredited  int              `json:"employeesCredited"`
	TotalHoursCredited decimal.Decimal  `json:"totalHoursCredited"`
	PairsProcessed     int              `json:"pairsProcessed"`
	Failures           []AccrualFailure `json:"failures,omitempty"`
}

// Run accrues every active employee against every active accruing leave type
// applicable to their employment type. A failing pair is recorded and the
// run continues; only an unreadable directory or registry aborts the run.
func (e *AccrualEngine) Run(ctx context.Context, tenantID string, now time.Time) (AccrualSummary, error) {
	summary := AccrualSummary{TotalHoursCredited: decimal.Zero}

	employees, err := e.Directory.ListActiveEmployees(ctx, tenantID)
	if err != nil {
		return summary, fmt.Errorf("list active employees: %w", err)
	}

	for _, emp := range employees {
		types, err := e.Registry.ListActiveForEmploymentType(ctx, tenantID, emp.EmploymentType)
		if err != nil {
			return summary, fmt.Errorf("list leave types: %w", err)
		}

		employeeCredited := false
		for _, lt := range types {
			if !lt.Accrues || lt.AccrualRateHours.Sign() <= 0 {
				continue
			}
			summary.PairsProcessed++

			credited, err := e.accruePair(ctx, tenantID, emp.ID, emp.StartDate, lt, now)
			if err != nil {
				slog.Warn("accrual pair failed", "tenantId", tenantID,
					"employeeId", emp.ID, "leaveTypeId", lt.ID, "err", err)
				summary.Failures = append(summary.Failures, AccrualFailure{
					EmployeeID:  emp.ID,
					LeaveTypeID: lt.ID,
					Error:       err.Error(),
				})
				continue
			}
			if credited.Sign() > 0 {
				summary.TotalHoursCredited = summary.TotalHoursCredited.Add(credited)
				employeeCredited = true
			}
		}
		if employeeCredited {
			summary.EmployeesCredited++
		}
	}

	return summary, nil
}

func (e *AccrualEngine) accruePair(ctx context.Context, tenantID, employeeID string, startDate time.Time, lt LeaveType, now time.Time) (decimal.Decimal, error) {
	bal, err := e.Balances.GetBalance(ctx, tenantID, employeeID, lt.ID)
	if err != nil {
		return decimal.Zero, err
	}

	// Accrue from the last applied marker, or from the employee's start date
	// on their very first accrual.
	anchor := startDate
	if bal != nil && bal.LastAccrualAt != nil {
		anchor = *bal.LastAccrualAt
	}

	periods := PeriodsElapsed(lt.AccrualFrequency, anchor, now)
	if periods == 0 {
		return decimal.Zero, nil
	}

	amount := lt.AccrualRateHours.Mul(decimal.NewFromInt(int64(periods)))
	accruedThrough := AdvancePeriods(lt.AccrualFrequency, anchor, periods)
	causeRef := fmt.Sprintf("accrual:%s:%s", lt.ID, accruedThrough.Format("2006-01-02"))

	return e.Ledger.Credit(ctx, tenantID, employeeID, lt.ID, amount, lt.MaxBalanceHours, causeRef, accruedThrough)
}
