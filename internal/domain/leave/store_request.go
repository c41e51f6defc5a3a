package leave

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const requestColumns = `id, employee_id, leave_type_id, start_date, end_date, hours::text,
  COALESCE(reason,''), status, decided_by, decided_at, COALESCE(decision_reason,''),
  COALESCE(override_reason,''), cancelled_by, cancelled_at, COALESCE(cancel_reason,''),
  balance_deducted, created_at`

func scanRequest(row pgx.Row) (*LeaveRequest, error) {
	var (
		r     LeaveRequest
		hours string
	)
	if err := row.Scan(&r.ID, &r.EmployeeID, &r.LeaveTypeID, &r.StartDate, &r.EndDate, &hours,
		&r.Reason, &r.Status, &r.DecidedBy, &r.DecidedAt, &r.DecisionReason,
		&r.OverrideReason, &r.CancelledBy, &r.CancelledAt, &r.CancelReason,
		&r.BalanceDeducted, &r.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if r.Hours, err = decimal.NewFromString(hours); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) CreateRequest(ctx context.Context, tenantID string, req *LeaveRequest) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (tenant_id, employee_id, leave_type_id, start_date, end_date, hours, reason, status)
    VALUES ($1, $2, $3, $4, $5, $6::numeric, NULLIF($7,''), $8)
    RETURNING id
  `, tenantID, req.EmployeeID, req.LeaveTypeID, req.StartDate, req.EndDate,
		req.Hours.String(), req.Reason, req.Status).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetRequest(ctx context.Context, tenantID, id string) (*LeaveRequest, error) {
	r, err := scanRequest(s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	return r, err
}

func (s *Store) ListRequests(ctx context.Context, tenantID string, f RequestFilter) ([]LeaveRequest, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE tenant_id = $1
      AND ($2 = '' OR employee_id = $2)
      AND ($3 = '' OR status = $3)
    ORDER BY created_at DESC, id
    LIMIT $4 OFFSET $5
  `, tenantID, f.EmployeeID, f.Status, limit, f.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var requests []LeaveRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT count(*)
    FROM leave_requests
    WHERE tenant_id = $1
      AND ($2 = '' OR employee_id = $2)
      AND ($3 = '' OR status = $3)
  `, tenantID, f.EmployeeID, f.Status).Scan(&total); err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (s *Store) MarkApproved(ctx context.Context, tenantID, id, decidedBy string, decidedAt time.Time, reason, overrideReason string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET status = 'approved',
        decided_by = $1,
        decided_at = $2,
        decision_reason = NULLIF($3,''),
        override_reason = NULLIF($4,'')
    WHERE tenant_id = $5 AND id = $6 AND status = 'pending'
  `, decidedBy, decidedAt, reason, overrideReason, tenantID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) MarkRejected(ctx context.Context, tenantID, id, decidedBy string, decidedAt time.Time, reason string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET status = 'rejected',
        decided_by = $1,
        decided_at = $2,
        decision_reason = NULLIF($3,'')
    WHERE tenant_id = $4 AND id = $5 AND status = 'pending'
  `, decidedBy, decidedAt, reason, tenantID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) MarkCancelled(ctx context.Context, tenantID, id, cancelledBy string, cancelledAt time.Time, reason string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET status = 'cancelled',
        cancelled_by = $1,
        cancelled_at = $2,
        cancel_reason = NULLIF($3,'')
    WHERE tenant_id = $4 AND id = $5 AND status = 'approved'
  `, cancelledBy, cancelledAt, reason, tenantID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) RevertToPending(ctx context.Context, tenantID, id string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET status = 'pending',
        decided_by = NULL,
        decided_at = NULL,
        decision_reason = NULL,
        override_reason = NULL
    WHERE tenant_id = $1 AND id = $2 AND status = 'approved'
  `, tenantID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) RevertToApproved(ctx context.Context, tenantID, id string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET status = 'approved',
        cancelled_by = NULL,
        cancelled_at = NULL,
        cancel_reason = NULL
    WHERE tenant_id = $1 AND id = $2 AND status = 'cancelled'
  `, tenantID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) SetBalanceDeducted(ctx context.Context, tenantID, id string, deducted bool) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE leave_requests SET balance_deducted = $1 WHERE tenant_id = $2 AND id = $3
  `, deducted, tenantID, id)
	return err
}
