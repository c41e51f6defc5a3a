package leave

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRegistryCreateValidation(t *testing.T) {
	registry := NewRegistry(NewMemory())
	ctx := context.Background()

	cases := []struct {
		name string
		lt   LeaveType
	}{
		{"missing name", LeaveType{
			Accrues:          true,
			AccrualRateHours: decimal.NewFromInt(1),
			AccrualFrequency: FreqWeekly,
		}},
		{"accruing without rate", LeaveType{
			Name:             "Annual Leave",
			Accrues:          true,
			AccrualFrequency: FreqWeekly,
		}},
		{"accruing with bad frequency", LeaveType{
			Name:             "Annual Leave",
			Accrues:          true,
			AccrualRateHours: decimal.NewFromInt(1),
			AccrualFrequency: AccrualFrequency("quarterly"),
		}},
		{"non-accruing with rate", LeaveType{
			Name:             "Unpaid Leave",
			AccrualRateHours: decimal.NewFromInt(1),
		}},
		{"negative cap", func() LeaveType {
			capHours := decimal.NewFromInt(-1)
			return LeaveType{Name: "Annual Leave", MaxBalanceHours: &capHours}
		}()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := registry.Create(ctx, "t1", tc.lt)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegistryCreateActivates(t *testing.T) {
	registry := NewRegistry(NewMemory())
	ctx := context.Background()

	id, err := registry.Create(ctx, "t1", LeaveType{Name: "Unpaid Leave", Active: false})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	lt, err := registry.Get(ctx, "t1", id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !lt.Active {
		t.Fatal("new leave types start active")
	}
}

func TestRegistryDeactivateHidesFromAccrual(t *testing.T) {
	registry := NewRegistry(NewMemory())
	ctx := context.Background()

	id, err := registry.Create(ctx, "t1", LeaveType{
		Name:             "Annual Leave",
		Accrues:          true,
		AccrualRateHours: decimal.NewFromFloat(2.92),
		AccrualFrequency: FreqFortnightly,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := registry.Deactivate(ctx, "t1", id); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, err := registry.ListActiveForEmploymentType(ctx, "t1", "full_time")
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active types, got %d", len(active))
	}

	// History survives deactivation.
	lt, err := registry.Get(ctx, "t1", id)
	if err != nil {
		t.Fatalf("get after deactivate: %v", err)
	}
	if lt.Active {
		t.Fatal("expected type inactive")
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	registry := NewRegistry(NewMemory())
	if _, err := registry.Get(context.Background(), "t1", "missing"); !errors.Is(err, ErrLeaveTypeNotFound) {
		t.Fatalf("expected ErrLeaveTypeNotFound, got %v", err)
	}
}

func TestRegistryEmploymentTypeScoping(t *testing.T) {
	registry := NewRegistry(NewMemory())
	ctx := context.Background()

	if _, err := registry.Create(ctx, "t1", LeaveType{Name: "Everyone Leave"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := registry.Create(ctx, "t1", LeaveType{
		Name:            "Casual Only",
		EmploymentTypes: []string{"casual"},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	forFullTime, err := registry.ListActiveForEmploymentType(ctx, "t1", "full_time")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(forFullTime) != 1 || forFullTime[0].Name != "Everyone Leave" {
		t.Fatalf("expected only the unrestricted type for full_time, got %+v", forFullTime)
	}

	forCasual, err := registry.ListActiveForEmploymentType(ctx, "t1", "casual")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(forCasual) != 2 {
		t.Fatalf("expected both types for casual, got %d", len(forCasual))
	}
}
