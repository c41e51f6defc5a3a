package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"leavedesk/internal/platform/config"
)

// Seed provisions a tenant with a handful of employees and the standard
// leave types so a fresh environment is immediately usable.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	tenantID, err := ensureTenant(ctx, pool, cfg.SeedTenantName)
	if err != nil {
		return err
	}
	if err := ensureLeaveTypes(ctx, pool, tenantID); err != nil {
		return err
	}
	return ensureEmployees(ctx, pool, tenantID)
}

func ensureTenant(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	err = pool.QueryRow(ctx, "INSERT INTO tenants (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func ensureLeaveTypes(ctx context.Context, pool *pgxpool.Pool, tenantID string) error {
	seed := []struct {
		name  string
		paid  bool
		rate  string
		freq  string
		cap   string
		types []string
	}{
		{"Annual Leave", true, "2.92", "fortnightly", "304", []string{"full_time", "part_time"}},
		{"Sick Leave", true, "1.46", "fortnightly", "", []string{"full_time", "part_time"}},
		{"Unpaid Leave", false, "0", "", "", nil},
	}
	for _, lt := range seed {
		var count int
		if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM leave_types WHERE tenant_id = $1 AND name = $2", tenantID, lt.name).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		employmentTypes := lt.types
		if employmentTypes == nil {
			employmentTypes = []string{}
		}
		var capVal *string
		if lt.cap != "" {
			v := lt.cap
			capVal = &v
		}
		if _, err := pool.Exec(ctx, `
      INSERT INTO leave_types (tenant_id, name, paid, accrues, accrual_rate_hours, accrual_frequency, max_balance_hours, employment_types, active)
      VALUES ($1, $2, $3, $4, $5::numeric, NULLIF($6,''), $7::numeric, $8, true)
    `, tenantID, lt.name, lt.paid, lt.rate != "0", lt.rate, lt.freq, capVal, employmentTypes); err != nil {
			return err
		}
	}
	return nil
}

func ensureEmployees(ctx context.Context, pool *pgxpool.Pool, tenantID string) error {
	seed := []struct {
		first, last, email, employment string
	}{
		{"Ada", "Nguyen", "ada.nguyen@example.com", "full_time"},
		{"Tom", "Reilly", "tom.reilly@example.com", "part_time"},
	}
	for _, e := range seed {
		var count int
		if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE tenant_id = $1 AND email = $2", tenantID, e.email).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if _, err := pool.Exec(ctx, `
      INSERT INTO employees (tenant_id, first_name, last_name, email, employment_type, status, start_date)
      VALUES ($1, $2, $3, $4, $5, 'active', now())
    `, tenantID, e.first, e.last, e.email, e.employment); err != nil {
			return err
		}
	}
	return nil
}
