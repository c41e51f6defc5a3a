package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// casAttempts bounds the internal retry loop around the version-checked
// write. Contention on a single (employee, leave type) pair is rare enough
// that exhausting this surfaces ErrConcurrentModification to the caller.
const casAttempts = 5

// Ledger is the only writer of leave balances. Every mutation (request
// deduction, restoration, manual adjustment, accrual credit) goes through
// ApplyDelta or Credit, so the balance always equals the sum of applied
// deltas for the pair.
//
// Ledger records the causeRef on the balance row but writes no audit record
// of its own; callers persist the why (request row, adjustment row, accrual
// summary).
type Ledger struct {
	Types    RegistryStore
	Balances BalanceStore
	Metrics  LedgerMetrics
}

// LedgerMetrics receives counters for applied deltas and version conflicts.
type LedgerMetrics interface {
	LedgerApplied()
	LedgerConflict()
}

func NewLedger(types RegistryStore, balances BalanceStore) *Ledger {
	return &Ledger{Types: types, Balances: balances}
}

// ApplyDelta atomically adds deltaHours to the pair's balance and returns
// the new value. A missing balance row is created at zero first. Two
// concurrent callers on the same pair serialize; callers on different pairs
// do not contend.
func (l *Ledger) ApplyDelta(ctx context.Context, tenantID, employeeID, leaveTypeID string, deltaHours decimal.Decimal, causeRef string) (decimal.Decimal, error) {
	if err := l.checkLeaveType(ctx, tenantID, leaveTypeID); err != nil {
		return decimal.Zero, err
	}
	return l.apply(ctx, tenantID, employeeID, leaveTypeID, causeRef, nil,
		func(current decimal.Decimal) decimal.Decimal {
			return current.Add(deltaHours)
		})
}

// Credit applies a non-negative accrual amount, clamping the resulting
// balance to maxBalance when set (the excess is simply not credited), and
// advances the pair's accrual marker in the same atomic write. Returns the
// hours actually credited.
func (l *Ledger) Credit(ctx context.Context, tenantID, employeeID, leaveTypeID string, amount decimal.Decimal, maxBalance *decimal.Decimal, causeRef string, accruedThrough time.Time) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, invalidField("amount", "accrual credit must not be negative")
	}
	if err := l.checkLeaveType(ctx, tenantID, leaveTypeID); err != nil {
		return decimal.Zero, err
	}

	var credited decimal.Decimal
	_, err := l.apply(ctx, tenantID, employeeID, leaveTypeID, causeRef, &accruedThrough,
		func(current decimal.Decimal) decimal.Decimal {
			credited = amount
			if maxBalance != nil {
				headroom := maxBalance.Sub(current)
				if headroom.IsNegative() {
					headroom = decimal.Zero
				}
				if credited.GreaterThan(headroom) {
					credited = headroom
				}
			}
			return current.Add(credited)
		})
	if err != nil {
		return decimal.Zero, err
	}
	return credited, nil
}

// Balance reads the current balance; a pair with no row yet reads as zero.
func (l *Ledger) Balance(ctx context.Context, tenantID, employeeID, leaveTypeID string) (decimal.Decimal, error) {
	bal, err := l.Balances.GetBalance(ctx, tenantID, employeeID, leaveTypeID)
	if err != nil {
		return decimal.Zero, err
	}
	if bal == nil {
		return decimal.Zero, nil
	}
	return bal.Hours, nil
}

func (l *Ledger) checkLeaveType(ctx context.Context, tenantID, leaveTypeID string) error {
	_, err := l.Types.GetLeaveType(ctx, tenantID, leaveTypeID)
	if errors.Is(err, ErrLeaveTypeNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownLeaveType, leaveTypeID)
	}
	return err
}

// apply runs the read-compute-swap loop. next is re-evaluated against the
// freshly read balance on every attempt, so callers may derive the new value
// from the current one (e.g. cap clamping).
func (l *Ledger) apply(ctx context.Context, tenantID, employeeID, leaveTypeID, causeRef string, lastAccrualAt *time.Time, next func(decimal.Decimal) decimal.Decimal) (decimal.Decimal, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		bal, err := l.Balances.GetBalance(ctx, tenantID, employeeID, leaveTypeID)
		if err != nil {
			return decimal.Zero, err
		}
		if bal == nil {
			if err := l.Balances.EnsureBalance(ctx, tenantID, employeeID, leaveTypeID); err != nil {
				return decimal.Zero, err
			}
			continue
		}

		newHours := next(bal.Hours)
		swapped, err := l.Balances.SwapBalance(ctx, tenantID, employeeID, leaveTypeID,
			bal.Version, newHours, causeRef, lastAccrualAt)
		if err != nil {
			return decimal.Zero, err
		}
		if swapped {
			if l.Metrics != nil {
				l.Metrics.LedgerApplied()
			}
			return newHours, nil
		}
		if l.Metrics != nil {
			l.Metrics.LedgerConflict()
		}
	}
	return decimal.Zero, ErrConcurrentModification
}
