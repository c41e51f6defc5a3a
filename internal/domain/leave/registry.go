package leave

import (
	"context"
	"strings"
)

// Registry is the read-mostly catalog of leave types per tenant.
type Registry struct {
	Store RegistryStore
}

func NewRegistry(store RegistryStore) *Registry {
	return &Registry{Store: store}
}

func (r *Registry) Get(ctx context.Context, tenantID, id string) (*LeaveType, error) {
	return r.Store.GetLeaveType(ctx, tenantID, id)
}

func (r *Registry) List(ctx context.Context, tenantID string) ([]LeaveType, error) {
	return r.Store.ListLeaveTypes(ctx, tenantID)
}

func (r *Registry) ListActiveForEmploymentType(ctx context.Context, tenantID, employmentType string) ([]LeaveType, error) {
	return r.Store.ListActiveForEmploymentType(ctx, tenantID, employmentType)
}

func (r *Registry) Create(ctx context.Context, tenantID string, lt LeaveType) (string, error) {
	if strings.TrimSpace(lt.Name) == "" {
		return "", invalidField("name", "required")
	}
	if lt.Accrues {
		if lt.AccrualRateHours.Sign() <= 0 {
			return "", invalidField("accrualRateHours", "must be greater than zero for an accruing type")
		}
		if !lt.AccrualFrequency.Valid() {
			return "", invalidField("accrualFrequency", "must be weekly, fortnightly, monthly or annually")
		}
	} else if !lt.AccrualRateHours.IsZero() {
		return "", invalidField("accrualRateHours", "only meaningful for an accruing type")
	}
	if lt.MaxBalanceHours != nil && lt.MaxBalanceHours.IsNegative() {
		return "", invalidField("maxBalanceHours", "must not be negative")
	}
	lt.Active = true
	return r.Store.CreateLeaveType(ctx, tenantID, lt)
}

func (r *Registry) Deactivate(ctx context.Context, tenantID, id string) error {
	return r.Store.DeactivateLeaveType(ctx, tenantID, id)
}
