package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccrualFrequency is how often an accruing leave type credits new hours.
type AccrualFrequency string

const (
	FreqWeekly      AccrualFrequency = "weekly"
	FreqFortnightly AccrualFrequency = "fortnightly"
	FreqMonthly     AccrualFrequency = "monthly"
	FreqAnnually    AccrualFrequency = "annually"
)

func (f AccrualFrequency) Valid() bool {
	switch f {
	case FreqWeekly, FreqFortnightly, FreqMonthly, FreqAnnually:
		return true
	}
	return false
}

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

type LeaveType struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Paid             bool             `json:"paid"`
	Accrues          bool             `json:"accrues"`
	AccrualRateHours decimal.Decimal  `json:"accrualRateHours"`
	AccrualFrequency AccrualFrequency `json:"accrualFrequency,omitempty"`
	MaxBalanceHours  *decimal.Decimal `json:"maxBalanceHours,omitempty"`
	EmploymentTypes  []string         `json:"employmentTypes"`
	Active           bool             `json:"active"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// AppliesTo reports whether the type is usable by the given employment type.
// An empty EmploymentTypes list means the type applies to everyone.
func (t LeaveType) AppliesTo(employmentType string) bool {
	if len(t.EmploymentTypes) == 0 {
		return true
	}
	for _, et := range t.EmploymentTypes {
		if et == employmentType {
			return true
		}
	}
	return false
}

// LeaveBalance is the single balance row per (employee, leave type) pair.
// It is written exclusively through the Ledger; Version increments on every
// applied delta and LastCauseRef identifies the event that produced the
// current value.
type LeaveBalance struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employeeId"`
	LeaveTypeID   string          `json:"leaveTypeId"`
	Hours         decimal.Decimal `json:"hours"`
	Version       int64           `json:"version"`
	LastCauseRef  string          `json:"lastCauseRef,omitempty"`
	LastAccrualAt *time.Time      `json:"lastAccrualAt,omitempty"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type LeaveRequest struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	// nil when the leave type was deleted after the request was filed.
	LeaveTypeID    *string         `json:"leaveTypeId"`
	StartDate      time.Time       `json:"startDate"`
	EndDate        time.Time       `json:"endDate"`
	Hours          decimal.Decimal `json:"hours"`
	Reason         string          `json:"reason,omitempty"`
	Status         string          `json:"status"`
	DecidedBy      *string         `json:"decidedBy,omitempty"`
	DecidedAt      *time.Time      `json:"decidedAt,omitempty"`
	DecisionReason string          `json:"decisionReason,omitempty"`
	OverrideReason string          `json:"overrideReason,omitempty"`
	CancelledBy    *string         `json:"cancelledBy,omitempty"`
	CancelledAt    *time.Time      `json:"cancelledAt,omitempty"`
	CancelReason   string          `json:"cancelReason,omitempty"`
	// balanceDeducted is true iff a deduction ledger delta has been applied
	// for this request and not yet reversed.
	BalanceDeducted bool      `json:"balanceDeducted"`
	CreatedAt       time.Time `json:"createdAt"`
}

// LeaveAdjustment is an immutable manual balance correction. Mistakes are
// corrected with a new offsetting adjustment, never by editing this row.
type LeaveAdjustment struct {
	ID           string          `json:"id"`
	EmployeeID   string          `json:"employeeId"`
	LeaveTypeID  string          `json:"leaveTypeId"`
	DeltaHours   decimal.Decimal `json:"deltaHours"`
	Reason       string          `json:"reason"`
	ActorID      string          `json:"actorId"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	CreatedAt    time.Time       `json:"createdAt"`
}
