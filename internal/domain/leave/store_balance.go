package leave

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const balanceColumns = `id, employee_id, leave_type_id, balance_hours::text, version, COALESCE(last_cause_ref,''), last_accrual_at, updated_at`

func scanBalance(row pgx.Row) (*LeaveBalance, error) {
	var (
		b     LeaveBalance
		hours string
	)
	if err := row.Scan(&b.ID, &b.EmployeeID, &b.LeaveTypeID, &hours,
		&b.Version, &b.LastCauseRef, &b.LastAccrualAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if b.Hours, err = decimal.NewFromString(hours); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) GetBalance(ctx context.Context, tenantID, employeeID, leaveTypeID string) (*LeaveBalance, error) {
	b, err := scanBalance(s.DB.QueryRow(ctx, `
    SELECT `+balanceColumns+`
    FROM leave_balances
    WHERE tenant_id = $1 AND employee_id = $2 AND leave_type_id = $3
  `, tenantID, employeeID, leaveTypeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (s *Store) EnsureBalance(ctx context.Context, tenantID, employeeID, leaveTypeID string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO leave_balances (tenant_id, employee_id, leave_type_id, balance_hours, version)
    VALUES ($1, $2, $3, 0, 1)
    ON CONFLICT (tenant_id, employee_id, leave_type_id) DO NOTHING
  `, tenantID, employeeID, leaveTypeID)
	return err
}

// SwapBalance is the only write path for balance values. The version predicate
// makes the update a compare-and-swap on the single pair row; a concurrent
// writer that got there first leaves RowsAffected at zero and we report false.
func (s *Store) SwapBalance(ctx context.Context, tenantID, employeeID, leaveTypeID string,
	expectVersion int64, newHours decimal.Decimal, causeRef string, lastAccrualAt *time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_balances
    SET balance_hours = $1::numeric,
        version = version + 1,
        last_cause_ref = $2,
        last_accrual_at = COALESCE($3, last_accrual_at),
        updated_at = now()
    WHERE tenant_id = $4 AND employee_id = $5 AND leave_type_id = $6 AND version = $7
  `, newHours.String(), causeRef, lastAccrualAt, tenantID, employeeID, leaveTypeID, expectVersion)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListBalances(ctx context.Context, tenantID, employeeID string) ([]LeaveBalance, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+balanceColumns+`
    FROM leave_balances
    WHERE tenant_id = $1 AND employee_id = $2
    ORDER BY leave_type_id
  `, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []LeaveBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, *b)
	}
	return balances, rows.Err()
}
