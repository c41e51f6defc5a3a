package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	ActorID    string
}

type StoreAPI interface {
	InsertEvent(ctx context.Context, tenantID string, evt Event) error
	ListEvents(ctx context.Context, tenantID string, filter Filter, includeDetails bool, limit, offset int) ([]Event, error)
	CountEvents(ctx context.Context, tenantID string, filter Filter) (int, error)
}

type Service struct {
	Store StoreAPI
}

func New(store StoreAPI) *Service {
	return &Service{Store: store}
}

// Record writes one audit event. Auditing never fails the operation it
// describes; write errors are logged and swallowed.
func (s *Service) Record(ctx context.Context, tenantID, actorID, action, entityType, entityID, requestID, ip string, before, after any) {
	evt := Event{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestID,
		IP:         ip,
	}
	var err error
	if before != nil {
		if evt.Before, err = json.Marshal(before); err != nil {
			slog.Error("audit marshal before", "action", action, "error", err)
			return
		}
	}
	if after != nil {
		if evt.After, err = json.Marshal(after); err != nil {
			slog.Error("audit marshal after", "action", action, "error", err)
			return
		}
	}
	if err := s.Store.InsertEvent(ctx, tenantID, evt); err != nil {
		slog.Error("audit insert", "action", action, "entityType", entityType, "error", err)
	}
}

func (s *Service) List(ctx context.Context, tenantID string, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	return s.Store.ListEvents(ctx, tenantID, filter, includeDetails, limit, offset)
}

func (s *Service) Count(ctx context.Context, tenantID string, filter Filter) (int, error) {
	return s.Store.CountEvents(ctx, tenantID, filter)
}
