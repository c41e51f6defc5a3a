package leave

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const leaveTypeColumns = `id, name, paid, accrues, accrual_rate_hours::text, COALESCE(accrual_frequency,''), max_balance_hours::text, employment_types, active, created_at`

func scanLeaveType(row pgx.Row) (*LeaveType, error) {
	var (
		lt       LeaveType
		rate     string
		freq     string
		capHours *string
	)
	if err := row.Scan(&lt.ID, &lt.Name, &lt.Paid, &lt.Accrues, &rate, &freq,
		&capHours, &lt.EmploymentTypes, &lt.Active, &lt.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if lt.AccrualRateHours, err = decimal.NewFromString(rate); err != nil {
		return nil, err
	}
	lt.AccrualFrequency = AccrualFrequency(freq)
	if capHours != nil {
		parsed, err := decimal.NewFromString(*capHours)
		if err != nil {
			return nil, err
		}
		lt.MaxBalanceHours = &parsed
	}
	return &lt, nil
}

func (s *Store) GetLeaveType(ctx context.Context, tenantID, id string) (*LeaveType, error) {
	lt, err := scanLeaveType(s.DB.QueryRow(ctx, `
    SELECT `+leaveTypeColumns+`
    FROM leave_types
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLeaveTypeNotFound
	}
	return lt, err
}

func (s *Store) ListLeaveTypes(ctx context.Context, tenantID string) ([]LeaveType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+leaveTypeColumns+`
    FROM leave_types
    WHERE tenant_id = $1
    ORDER BY name
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		lt, err := scanLeaveType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, *lt)
	}
	return types, rows.Err()
}

func (s *Store) ListActiveForEmploymentType(ctx context.Context, tenantID, employmentType string) ([]LeaveType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+leaveTypeColumns+`
    FROM leave_types
    WHERE tenant_id = $1 AND active
      AND (cardinality(employment_types) = 0 OR $2 = ANY(employment_types))
    ORDER BY name
  `, tenantID, employmentType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		lt, err := scanLeaveType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, *lt)
	}
	return types, rows.Err()
}

func (s *Store) CreateLeaveType(ctx context.Context, tenantID string, lt LeaveType) (string, error) {
	var capHours *string
	if lt.MaxBalanceHours != nil {
		v := lt.MaxBalanceHours.String()
		capHours = &v
	}
	employmentTypes := lt.EmploymentTypes
	if employmentTypes == nil {
		employmentTypes = []string{}
	}

	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_types (tenant_id, name, paid, accrues, accrual_rate_hours, accrual_frequency, max_balance_hours, employment_types, active)
    VALUES ($1, $2, $3, $4, $5::numeric, NULLIF($6,''), $7::numeric, $8, $9)
    RETURNING id
  `, tenantID, lt.Name, lt.Paid, lt.Accrues, lt.AccrualRateHours.String(),
		string(lt.AccrualFrequency), capHours, employmentTypes, lt.Active).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) DeactivateLeaveType(ctx context.Context, tenantID, id string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_types SET active = false WHERE tenant_id = $1 AND id = $2
  `, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLeaveTypeNotFound
	}
	return nil
}
