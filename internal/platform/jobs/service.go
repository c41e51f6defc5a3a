package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"leavedesk/internal/domain/leave"
	"leavedesk/internal/platform/querier"
)

const JobLeaveAccrual = "leave_accrual"

// TenantLister enumerates the tenants the scheduler fans accrual runs over.
type TenantLister interface {
	ListTenants(ctx context.Context) ([]string, error)
}

// Service runs background work on a single in-process queue. Job runs are
// recorded in job_runs when a database is attached; with a nil DB the queue
// still works and only the telemetry is skipped.
type Service struct {
	DB       querier.Querier
	Accruals *leave.AccrualEngine
	Tenants  TenantLister

	AccrualInterval time.Duration

	queue chan job
}

type job struct {
	Type     string
	TenantID string
	Run      func(context.Context) (any, error)
}

func New(db querier.Querier, accruals *leave.AccrualEngine, tenants TenantLister, accrualInterval time.Duration) *Service {
	return &Service{
		DB:              db,
		Accruals:        accruals,
		Tenants:         tenants,
		AccrualInterval: accrualInterval,
		queue:           make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.AccrualInterval > 0 {
		go s.scheduleAccruals(ctx, s.AccrualInterval)
	}
}

func (s *Service) Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenantId", j.TenantID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.DB != nil {
		if err := s.DB.QueryRow(ctx, `
      INSERT INTO job_runs (tenant_id, job_type, status)
      VALUES ($1, $2, 'running')
      RETURNING id
    `, j.TenantID, j.Type).Scan(&runID); err != nil {
			slog.Warn("job run insert failed", "err", err)
		}
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	if runID != "" {
		detailsJSON, marshalErr := json.Marshal(details)
		if marshalErr != nil {
			slog.Warn("job details marshal failed", "err", marshalErr)
			detailsJSON = []byte("{}")
		}
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) scheduleAccruals(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tenants, err := s.Tenants.ListTenants(ctx)
			if err != nil {
				slog.Warn("accrual scheduler tenant lookup failed", "err", err)
				continue
			}
			for _, tenantID := range tenants {
				tenant := tenantID
				s.Enqueue(JobLeaveAccrual, tenant, func(ctx context.Context) (any, error) {
					return s.Accruals.Run(ctx, tenant, time.Now().UTC())
				})
			}
		}
	}
}
