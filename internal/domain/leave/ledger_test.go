package leave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestLedger(t *testing.T) (*Ledger, *Memory, string) {
	t.Helper()
	store := NewMemory()
	ledger := NewLedger(store, store)
	typeID, err := NewRegistry(store).Create(context.Background(), "t1", LeaveType{
		Name:             "Annual Leave",
		Paid:             true,
		Accrues:          true,
		AccrualRateHours: decimal.NewFromFloat(2.92),
		AccrualFrequency: FreqFortnightly,
	})
	if err != nil {
		t.Fatalf("create leave type: %v", err)
	}
	return ledger, store, typeID
}

func TestApplyDeltaCreatesRowLazily(t *testing.T) {
	ledger, store, typeID := newTestLedger(t)
	ctx := context.Background()

	got, err := ledger.ApplyDelta(ctx, "t1", "e1", typeID, decimal.NewFromInt(10), "adjustment:a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected balance 10, got %s", got)
	}

	bal, err := store.GetBalance(ctx, "t1", "e1", typeID)
	if err != nil || bal == nil {
		t.Fatalf("expected balance row, got %v / %v", bal, err)
	}
	if bal.Version != 2 {
		t.Fatalf("expected version 2 after one applied delta, got %d", bal.Version)
	}
	if bal.LastCauseRef != "adjustment:a1" {
		t.Fatalf("expected cause ref recorded, got %q", bal.LastCauseRef)
	}
}

func TestApplyDeltaSumsSequentially(t *testing.T) {
	ledger, _, typeID := newTestLedger(t)
	ctx := context.Background()

	deltas := []int64{10, -3, 5, -7}
	var want int64
	var got decimal.Decimal
	var err error
	for _, d := range deltas {
		want += d
		got, err = ledger.ApplyDelta(ctx, "t1", "e1", typeID, decimal.NewFromInt(d), "test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Fatalf("expected balance %d, got %s", want, got)
	}
}

func TestApplyDeltaUnknownLeaveType(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	_, err := ledger.ApplyDelta(context.Background(), "t1", "e1", "nope", decimal.NewFromInt(1), "test")
	if !errors.Is(err, ErrUnknownLeaveType) {
		t.Fatalf("expected ErrUnknownLeaveType, got %v", err)
	}
}

func TestBalanceZeroWithoutRow(t *testing.T) {
	ledger, _, typeID := newTestLedger(t)

	got, err := ledger.Balance(context.Background(), "t1", "e1", typeID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected zero balance for missing row, got %s", got)
	}
}

func TestConcurrentDeltasAllApply(t *testing.T) {
	ledger, _, typeID := newTestLedger(t)
	ctx := context.Background()

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				for {
					_, err := ledger.ApplyDelta(ctx, "t1", "e1", typeID, decimal.NewFromInt(1), "test")
					if err == nil {
						break
					}
					if !errors.Is(err, ErrConcurrentModification) {
						t.Errorf("unexpected error: %v", err)
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	got, err := ledger.Balance(ctx, "t1", "e1", typeID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(workers * perWorker)) {
		t.Fatalf("expected all %d deltas applied, got balance %s", workers*perWorker, got)
	}
}

func TestCreditClampsToCap(t *testing.T) {
	ledger, store, typeID := newTestLedger(t)
	ctx := context.Background()

	capHours := decimal.NewFromInt(20)
	through := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	credited, err := ledger.Credit(ctx, "t1", "e1", typeID, decimal.NewFromInt(15), &capHours, "accrual:x", through)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !credited.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected full credit of 15, got %s", credited)
	}

	credited, err = ledger.Credit(ctx, "t1", "e1", typeID, decimal.NewFromInt(15), &capHours, "accrual:y", through.AddDate(0, 0, 14))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !credited.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected clamped credit of 5, got %s", credited)
	}

	bal, _ := store.GetBalance(ctx, "t1", "e1", typeID)
	if !bal.Hours.Equal(capHours) {
		t.Fatalf("expected balance at cap %s, got %s", capHours, bal.Hours)
	}
	if bal.LastAccrualAt == nil || !bal.LastAccrualAt.Equal(through.AddDate(0, 0, 14)) {
		t.Fatalf("expected accrual marker advanced even when clamped, got %v", bal.LastAccrualAt)
	}
}

func TestCreditRejectsNegative(t *testing.T) {
	ledger, _, typeID := newTestLedger(t)

	_, err := ledger.Credit(context.Background(), "t1", "e1", typeID, decimal.NewFromInt(-1), nil, "accrual:x", time.Now())
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
