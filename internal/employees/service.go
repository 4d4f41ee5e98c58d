package employees

import (
	"context"
	"strconv"

	"github.com/taller-erp/taller-erp/internal/shared"
)

// Service wraps the staff directory rules.
type Service struct {
	repo  Repository
	audit shared.AuditPort
}

// NewService constructs an employees Service.
func NewService(repo Repository, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) Get(ctx context.Context, id int64) (*Employee, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListEmployeesRequest) ([]Employee, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreateEmployeeRequest, actorID int64) (*Employee, error) {
	id, err := s.repo.Create(ctx, Employee{
		FullName: req.FullName,
		Document: req.Document,
		Position: req.Position,
		Phone:    req.Phone,
		HiredAt:  req.HiredAt,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "EMPLOYEE_CREATE", id)
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateEmployeeRequest, actorID int64) (*Employee, error) {
	updates := make(map[string]any)
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.HiredAt != nil {
		updates["hired_at"] = *req.HiredAt
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
		s.recordAudit(ctx, actorID, "EMPLOYEE_UPDATE", id)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Deactivate(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "EMPLOYEE_DEACTIVATE", id)
	return nil
}

func (s *Service) Reactivate(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "EMPLOYEE_REACTIVATE", id)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "employee",
		EntityID: strconv.FormatInt(entityID, 10),
	})
}
