package suppliers

import (
	"context"
	"strconv"

	"github.com/taller-erp/taller-erp/internal/shared"
)

// CreateSupplierRequest registers a vendor.
type CreateSupplierRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	RUC         string `json:"ruc" validate:"required,min=11,max=13"`
	ContactName string `json:"contact_name" validate:"omitempty,max=120"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"omitempty,max=20"`
	Address     string `json:"address" validate:"omitempty,max=200"`
}

// UpdateSupplierRequest patches vendor fields.
type UpdateSupplierRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=120"`
	ContactName *string `json:"contact_name,omitempty" validate:"omitempty,max=120"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=200"`
}

// ListSuppliersRequest filters the listing.
type ListSuppliersRequest struct {
	IsActive *bool
	Search   string
	Limit    int
	Offset   int
}

// Service wraps the supplier directory rules.
type Service struct {
	repo  Repository
	audit shared.AuditPort
}

// NewService constructs a suppliers Service.
func NewService(repo Repository, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) Get(ctx context.Context, id int64) (*Supplier, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListSuppliersRequest) ([]Supplier, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreateSupplierRequest, actorID int64) (*Supplier, error) {
	id, err := s.repo.Create(ctx, Supplier{
		Name:        req.Name,
		RUC:         req.RUC,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "SUPPLIER_CREATE", id)
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateSupplierRequest, actorID int64) (*Supplier, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.ContactName != nil {
		updates["contact_name"] = *req.ContactName
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
		s.recordAudit(ctx, actorID, "SUPPLIER_UPDATE", id)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Deactivate(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "SUPPLIER_DEACTIVATE", id)
	return nil
}

func (s *Service) Reactivate(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "SUPPLIER_REACTIVATE", id)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "supplier",
		EntityID: strconv.FormatInt(entityID, 10),
	})
}
