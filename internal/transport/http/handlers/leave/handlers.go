package leavehandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"leavedesk/internal/auth"
	"leavedesk/internal/domain/audit"
	"leavedesk/internal/domain/directory"
	"leavedesk/internal/domain/leave"
	"leavedesk/internal/domain/notifications"
	"leavedesk/internal/platform/jobs"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
	"leavedesk/internal/transport/http/shared"
)

type Handler struct {
	Registry    *leave.Registry
	Workflow    *leave.Workflow
	Accruals    *leave.AccrualEngine
	Adjustments *leave.AdjustmentRecorder
	Balances    leave.BalanceStore
	Directory   directory.StoreAPI
	Notify      *notifications.Service
	Audit       *audit.Service
	Jobs        *jobs.Service
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/types", h.handleListTypes)
		r.With(middleware.RequirePermission(auth.PermLeaveAdjust)).Post("/types", h.handleCreateType)
		r.With(middleware.RequirePermission(auth.PermLeaveAdjust)).Delete("/types/{typeID}", h.handleDeactivateType)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/balances", h.handleListBalances)
		r.With(middleware.RequirePermission(auth.PermLeaveAdjust)).Post("/balances/adjust", h.handleAdjustBalance)
		r.With(middleware.RequirePermission(auth.PermLeaveAdjust)).Get("/adjustments", h.handleListAdjustments)
		r.With(middleware.RequirePermission(auth.PermLeaveAccrue)).Post("/accrual/run", h.handleRunAccruals)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/requests", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/requests", h.handleCreateRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/requests/{requestID}", h.handleGetRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/requests/{requestID}/approve", h.handleApproveRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/requests/{requestID}/reject", h.handleRejectRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/requests/{requestID}/cancel", h.handleCancelRequest)
	})
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	types, err := h.Registry.List(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_types_failed", "failed to list leave types", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, types, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateType(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload leave.LeaveType
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Registry.Create(r.Context(), user.TenantID, payload)
	if err != nil {
		h.failLeaveError(w, r, err, "leave_type_create_failed", "failed to create leave type")
		return
	}
	h.Audit.Record(r.Context(), user.TenantID, user.UserID, "leave.type.create", "leave_type", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivateType(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	typeID := chi.URLParam(r, "typeID")
	if err := h.Registry.Deactivate(r.Context(), user.TenantID, typeID); err != nil {
		h.failLeaveError(w, r, err, "leave_type_deactivate_failed", "failed to deactivate leave type")
		return
	}
	h.Audit.Record(r.Context(), user.TenantID, user.UserID, "leave.type.deactivate", "leave_type", typeID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil)
	api.Success(w, map[string]string{"id": typeID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListBalances(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID := r.URL.Query().Get("employeeId")
	if employeeID == "" {
		employeeID = user.EmployeeID
	}
	if employeeID != user.EmployeeID && !auth.RoleHasPermission(user.Role, auth.PermDirectoryRead) {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another employee's balances", middleware.GetRequestID(r.Context()))
		return
	}

	balances, err := h.Balances.ListBalances(r.Context(), user.TenantID, employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_balances_failed", "failed to list balances", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, balances, middleware.GetRequestID(r.Context()))
}

type adjustPayload struct {
	EmployeeID  string          `json:"employeeId"`
	LeaveTypeID string          `json:"leaveTypeId"`
	DeltaHours  decimal.Decimal `json:"deltaHours"`
	Reason      string          `json:"reason"`
}

func (h *Handler) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload adjustPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "required")
	v.Required("leaveTypeId", payload.LeaveTypeID, "required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	adj, err := h.Adjustments.Record(r.Context(), user.TenantID, leave.AdjustmentParams{
		EmployeeID:  payload.EmployeeID,
		LeaveTypeID: payload.LeaveTypeID,
		DeltaHours:  payload.DeltaHours,
		Reason:      payload.Reason,
		ActorID:     user.UserID,
	})
	if err != nil {
		h.failLeaveError(w, r, err, "balance_adjust_failed", "failed to adjust balance")
		return
	}

	h.Audit.Record(r.Context(), user.TenantID, user.UserID, "leave.balance.adjust", "leave_adjustment", adj.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, adj)
	h.notifyEmployee(r, user.TenantID, payload.EmployeeID, notifications.TypeBalanceAdjusted,
		"Leave balance adjusted",
		fmt.Sprintf("Your leave balance was adjusted by %s hours.", adj.DeltaHours.String()))
	api.Created(w, adj, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAdjustments(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	adjustments, err := h.Adjustments.List(r.Context(), user.TenantID, r.URL.Query().Get("employeeId"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "adjustments_failed", "failed to list adjustments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, adjustments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunAccruals(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	summary, err := h.Jobs.RunNow(r.Context(), jobs.JobLeaveAccrual, user.TenantID, func(ctx context.Context) (any, error) {
		return h.Accruals.Run(ctx, user.TenantID, time.Now().UTC())
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "accrual_run_failed", "accrual run failed", middleware.GetRequestID(r.Context()))
		return
	}

	h.Audit.Record(r.Context(), user.TenantID, user.UserID, "leave.accrual.run", "leave_balance", "", middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, summary)
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	filter := leave.RequestFilter{
		EmployeeID: r.URL.Query().Get("employeeId"),
		Status:     r.URL.Query().Get("status"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	// Without approve rights a caller only ever sees their own requests.
	if !auth.RoleHasPermission(user.Role, auth.PermLeaveApprove) {
		filter.EmployeeID = user.EmployeeID
	}

	requests, total, err := h.Workflow.List(r.Context(), user.TenantID, filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_requests_failed", "failed to list leave requests", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"items": requests, "total": total}, middleware.GetRequestID(r.Context()))
}

type createRequestPayload struct {
	EmployeeID  string          `json:"employeeId"`
	LeaveTypeID string          `json:"leaveTypeId"`
	StartDate   string          `json:"startDate"`
	EndDate     string          `json:"endDate"`
	Hours       decimal.Decimal `json:"hours"`
	Reason      string          `json:"reason"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID := payload.EmployeeID
	if employeeID == "" {
		employeeID = user.EmployeeID
	}
	if employeeID != user.EmployeeID && !auth.RoleHasPermission(user.Role, auth.PermLeaveAdjust) {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot file leave for another employee", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("leaveTypeId", payload.LeaveTypeID, "required")
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	req, err := h.Workflow.Create(r.Context(), user.TenantID, leave.CreateRequestParams{
		EmployeeID:  employeeID,
		LeaveTypeID: payload.LeaveTypeID,
		StartDate:   start,
		EndDate:     end,
		Hours:       payload.Hours,
		Reason:      payload.Reason,
	})
	if err != nil {
		h.failLeaveError(w, r, err, "leave_request_create_failed", "failed to create leave request")
		return
	}

	h.Audit.Record(r.Context(), user.TenantID, user.UserID, "leave.request.create", "leave_request", req.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, req)
	h.notifyManager(r, user.TenantID, employeeID, notifications.TypeLeaveSubmitted,
		"Leave request submitted",
		fmt.Sprintf("A leave request for %s hours is awaiting a decision.", req.Hours.String()))
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Workflow.Get(r.Context(), user.TenantID, chi.URLParam(r, "requestID"))
	if err != nil {
		h.failLeaveError(w, r, err, "leave_request_failed", "failed to load leave request")
		return
	}
	if req.EmployeeID != user.EmployeeID && !auth.RoleHasPermission(user.Role, auth.PermLeaveApprove) {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another employee's request", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

type decisionPayload struct {
	Reason         string `json:"reason"`
	Override       bool   `json:"override"`
	OverrideReason string `json:"overrideReason"`
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload decisionPayload
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	requestID := chi.URLParam(r, "requestID")
	req, err := h.Workflow.Approve(r.Context(), user.TenantID, requestID, leave.ApproveParams{
		ActorID:        user.UserID,
		Reason:         payload.Reason,
		Override:       payload.Override,
		OverrideReason: payload.OverrideReason,
	})
	if err != nil {
		h.failLeaveError(w, r, err, "leave_request_approve_failed", "failed to approve leave request")
		return
	}

	h.Audit.Record(r.Context(), user.TenantID, user.UserID, "leave.request.approve", "leave_request", requestID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, req)
	h.notifyEmployee(r, user.TenantID, req.EmployeeID, notifications.TypeLeaveApproved,
		"Leave approved", "Your leave request was approved.")
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload decisionPayload
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	requestID := chi.URLParam(r, "requestID")
	req, err := h.Workflow.Reject(r.Context(), user.TenantID, requestID, user.UserID, payload.Reason)
	if err != nil {
		h.failLeaveError(w, r, err, "leave_request_reject_failed", "failed to reject leave request")
		return
	}

	h.Audit.Record(r.Context(), user.TenantID, user.UserID, "leave.request.reject", "leave_request", requestID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, req)
	h.notifyEmployee(r, user.TenantID, req.EmployeeID, notifications.TypeLeaveRejected,
		"Leave rejected", "Your leave request was rejected.")
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	requestID := chi.URLParam(r, "requestID")
	existing, err := h.Workflow.Get(r.Context(), user.TenantID, requestID)
	if err != nil {
		h.failLeaveError(w, r, err, "leave_request_cancel_failed", "failed to cancel leave request")
		return
	}
	if existing.EmployeeID != user.EmployeeID && !auth.RoleHasPermission(user.Role, auth.PermLeaveApprove) {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot cancel another employee's request", middleware.GetRequestID(r.Context()))
		return
	}

	var payload decisionPayload
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	req, err := h.Workflow.Cancel(r.Context(), user.TenantID, requestID, user.UserID, payload.Reason)
	if err != nil {
		h.failLeaveError(w, r, err, "leave_request_cancel_failed", "failed to cancel leave request")
		return
	}

	h.Audit.Record(r.Context(), user.TenantID, user.UserID, "leave.request.cancel", "leave_request", requestID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, req)
	h.notifyEmployee(r, user.TenantID, req.EmployeeID, notifications.TypeLeaveCancelled,
		"Leave cancelled", "Your approved leave request was cancelled and the hours restored.")
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

// failLeaveError translates domain errors into response codes. Validation is
// 400, missing entities 404, state races 409 and an overdraw without an
// override 422 so clients can distinguish the retryable override path.
func (h *Handler) failLeaveError(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	requestID := middleware.GetRequestID(r.Context())

	var fieldErr *leave.FieldError
	if errors.As(err, &fieldErr) {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: fieldErr.Field, Reason: fieldErr.Reason}})
		return
	}

	var insufficient *leave.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		api.FailWithDetails(w, http.StatusUnprocessableEntity, "insufficient_balance", "insufficient leave balance", map[string]any{
			"available": insufficient.Available,
			"requested": insufficient.Requested,
			"shortfall": insufficient.Shortfall(),
		}, requestID)
		return
	}

	switch {
	case errors.Is(err, leave.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, leave.ErrLeaveTypeNotFound),
		errors.Is(err, leave.ErrUnknownLeaveType),
		errors.Is(err, leave.ErrRequestNotFound),
		errors.Is(err, directory.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, leave.ErrEmployeeInactive):
		api.Fail(w, http.StatusUnprocessableEntity, "employee_inactive", err.Error(), requestID)
	case errors.Is(err, leave.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_transition", err.Error(), requestID)
	case errors.Is(err, leave.ErrConcurrentModification):
		api.Fail(w, http.StatusConflict, "concurrent_modification", err.Error(), requestID)
	default:
		slog.Error("leave handler error", "err", err, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}

func (h *Handler) notifyEmployee(r *http.Request, tenantID, employeeID, ntype, title, body string) {
	if h.Notify == nil || h.Directory == nil {
		return
	}
	userID, err := h.Directory.UserIDForEmployee(r.Context(), tenantID, employeeID)
	if err != nil || userID == "" {
		return
	}
	h.Notify.Notify(r.Context(), tenantID, userID, ntype, title, body)
}

func (h *Handler) notifyManager(r *http.Request, tenantID, employeeID, ntype, title, body string) {
	if h.Notify == nil || h.Directory == nil {
		return
	}
	managerUserID, err := h.Directory.ManagerUserID(r.Context(), tenantID, employeeID)
	if err != nil || managerUserID == "" {
		return
	}
	h.Notify.Notify(r.Context(), tenantID, managerUserID, ntype, title, body)
}
