package leave

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestRecorder(t *testing.T) (*AdjustmentRecorder, *Ledger, string) {
	t.Helper()
	store := NewMemory()
	ledger := NewLedger(store, store)
	typeID, err := NewRegistry(store).Create(context.Background(), "t1", LeaveType{
		Name:             "Annual Leave",
		Accrues:          true,
		AccrualRateHours: decimal.NewFromFloat(2.92),
		AccrualFrequency: FreqFortnightly,
	})
	if err != nil {
		t.Fatalf("create leave type: %v", err)
	}
	return NewAdjustmentRecorder(store, ledger, 10), ledger, typeID
}

func TestRecordAppliesDelta(t *testing.T) {
	recorder, ledger, typeID := newTestRecorder(t)
	ctx := context.Background()

	adj, err := recorder.Record(ctx, "t1", AdjustmentParams{
		EmployeeID:  "emp-1",
		LeaveTypeID: typeID,
		DeltaHours:  decimal.NewFromInt(12),
		Reason:      "migration from the previous payroll system",
		ActorID:     "hr-1",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if adj.ID == "" {
		t.Fatal("expected a minted adjustment id")
	}
	if !adj.BalanceAfter.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("expected balanceAfter 12, got %s", adj.BalanceAfter)
	}

	bal, err := ledger.Balance(ctx, "t1", "emp-1", typeID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !bal.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("expected balance 12, got %s", bal)
	}

	rows, err := recorder.List(ctx, "t1", "emp-1", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one adjustment, got %d", len(rows))
	}
	if rows[0].ActorID != "hr-1" || rows[0].Reason != "migration from the previous payroll system" {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
}

func TestRecordNegativeDelta(t *testing.T) {
	recorder, ledger, typeID := newTestRecorder(t)
	ctx := context.Background()

	if _, err := recorder.Record(ctx, "t1", AdjustmentParams{
		EmployeeID:  "emp-1",
		LeaveTypeID: typeID,
		DeltaHours:  decimal.NewFromInt(20),
		Reason:      "opening balance from onboarding",
		ActorID:     "hr-1",
	}); err != nil {
		t.Fatalf("credit: %v", err)
	}

	adj, err := recorder.Record(ctx, "t1", AdjustmentParams{
		EmployeeID:  "emp-1",
		LeaveTypeID: typeID,
		DeltaHours:  decimal.NewFromInt(-5),
		Reason:      "correcting a double-counted public holiday",
		ActorID:     "hr-1",
	})
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !adj.BalanceAfter.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected balanceAfter 15, got %s", adj.BalanceAfter)
	}

	bal, _ := ledger.Balance(ctx, "t1", "emp-1", typeID)
	if !bal.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected balance 15, got %s", bal)
	}
}

func TestRecordValidation(t *testing.T) {
	recorder, _, typeID := newTestRecorder(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		params AdjustmentParams
	}{
		{"zero delta", AdjustmentParams{
			EmployeeID: "emp-1", LeaveTypeID: typeID,
			Reason: "a perfectly fine reason", ActorID: "hr-1",
		}},
		{"short reason", AdjustmentParams{
			EmployeeID: "emp-1", LeaveTypeID: typeID,
			DeltaHours: decimal.NewFromInt(1), Reason: "oops", ActorID: "hr-1",
		}},
		{"whitespace padded reason", AdjustmentParams{
			EmployeeID: "emp-1", LeaveTypeID: typeID,
			DeltaHours: decimal.NewFromInt(1),
			Reason:     "   short   " + strings.Repeat(" ", 20), ActorID: "hr-1",
		}},
		{"missing actor", AdjustmentParams{
			EmployeeID: "emp-1", LeaveTypeID: typeID,
			DeltaHours: decimal.NewFromInt(1), Reason: "a perfectly fine reason",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := recorder.Record(ctx, "t1", tc.params)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRecordUnknownLeaveType(t *testing.T) {
	recorder, _, _ := newTestRecorder(t)

	_, err := recorder.Record(context.Background(), "t1", AdjustmentParams{
		EmployeeID:  "emp-1",
		LeaveTypeID: "missing",
		DeltaHours:  decimal.NewFromInt(1),
		Reason:      "a perfectly fine reason",
		ActorID:     "hr-1",
	})
	if err == nil {
		t.Fatal("expected an error for an unregistered leave type")
	}
}

func TestRecordDefaultsMinReasonLength(t *testing.T) {
	recorder := NewAdjustmentRecorder(NewMemory(), nil, 0)
	if recorder.MinReasonLen != DefaultMinReasonLength {
		t.Fatalf("expected default %d, got %d", DefaultMinReasonLength, recorder.MinReasonLen)
	}
}
