package clients

import (
	"context"
	"strconv"

	"github.com/taller-erp/taller-erp/internal/shared"
)

// Service wraps the client directory rules.
type Service struct {
	repo  Repository
	audit shared.AuditPort
}

// NewService constructs a clients Service.
func NewService(repo Repository, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreateClientRequest, actorID int64) (*Client, error) {
	id, err := s.repo.Create(ctx, Client{
		Name:     req.Name,
		Document: req.Document,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "CLIENT_CREATE", id)
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateClientRequest, actorID int64) (*Client, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
		s.recordAudit(ctx, actorID, "CLIENT_UPDATE", id)
	}
	return s.repo.Get(ctx, id)
}

// Deactivate soft-deletes a client; rows are never removed.
func (s *Service) Deactivate(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "CLIENT_DEACTIVATE", id)
	return nil
}

func (s *Service) Reactivate(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "CLIENT_REACTIVATE", id)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "client",
		EntityID: strconv.FormatInt(entityID, 10),
	})
}
