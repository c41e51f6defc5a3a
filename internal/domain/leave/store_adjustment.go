package leave

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func scanAdjustment(row pgx.Row) (*LeaveAdjustment, error) {
	var (
		a            LeaveAdjustment
		delta        string
		balanceAfter string
	)
	if err := row.Scan(&a.ID, &a.EmployeeID, &a.LeaveTypeID, &delta, &a.Reason,
		&a.ActorID, &balanceAfter, &a.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if a.DeltaHours, err = decimal.NewFromString(delta); err != nil {
		return nil, err
	}
	if a.BalanceAfter, err = decimal.NewFromString(balanceAfter); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) InsertAdjustment(ctx context.Context, tenantID string, adj *LeaveAdjustment) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO leave_adjustments (id, tenant_id, employee_id, leave_type_id, delta_hours, reason, actor_id, balance_after, created_at)
    VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8::numeric, $9)
  `, adj.ID, tenantID, adj.EmployeeID, adj.LeaveTypeID, adj.DeltaHours.String(),
		adj.Reason, adj.ActorID, adj.BalanceAfter.String(), adj.CreatedAt)
	return err
}

func (s *Store) ListAdjustments(ctx context.Context, tenantID, employeeID string, limit, offset int) ([]LeaveAdjustment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, leave_type_id, delta_hours::text, reason, actor_id, balance_after::text, created_at
    FROM leave_adjustments
    WHERE tenant_id = $1 AND ($2 = '' OR employee_id = $2)
    ORDER BY created_at DESC, id
    LIMIT $3 OFFSET $4
  `, tenantID, employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var adjustments []LeaveAdjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		adjustments = append(adjustments, *a)
	}
	return adjustments, rows.Err()
}
