package materials

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/taller-erp/taller-erp/internal/platform/httpx"
	"github.com/taller-erp/taller-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Material, error)
	List(ctx context.Context, req ListMaterialsRequest) ([]Material, int, error)
	Create(ctx context.Context, m Material) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	SetActive(ctx context.Context, id int64, active bool) error
	ListMovements(ctx context.Context, req ListMovementsRequest) ([]Movement, int, error)
}

// Service coordinates the catalog and movement operations.
type Service struct {
	repo  RepositoryPort
	audit shared.AuditPort
}

// NewService builds a materials Service.
func NewService(repo RepositoryPort, audit shared.AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) Get(ctx context.Context, id int64) (*Material, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListMaterialsRequest) ([]Material, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreateMaterialRequest, actorID int64) (*Material, error) {
	if req.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("%w: unit_price must not be negative", httpx.ErrValidation)
	}
	if req.MinimumStock.IsNegative() {
		return nil, fmt.Errorf("%w: minimum_stock must not be negative", httpx.ErrValidation)
	}
	id, err := s.repo.Create(ctx, Material{
		Code:         req.Code,
		Name:         req.Name,
		Unit:         req.Unit,
		UnitPrice:    req.UnitPrice,
		MinimumStock: req.MinimumStock,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "MATERIAL_CREATE", "material", id)
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateMaterialRequest, actorID int64) (*Material, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Unit != nil {
		updates["unit"] = *req.Unit
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: unit_price must not be negative", httpx.ErrValidation)
		}
		updates["unit_price"] = *req.UnitPrice
	}
	if req.MinimumStock != nil {
		if req.MinimumStock.IsNegative() {
			return nil, fmt.Errorf("%w: minimum_stock must not be negative", httpx.ErrValidation)
		}
		updates["minimum_stock"] = *req.MinimumStock
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
		s.recordAudit(ctx, actorID, "MATERIAL_UPDATE", "material", id)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Deactivate(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "MATERIAL_DEACTIVATE", "material", id)
	return nil
}

func (s *Service) Reactivate(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "MATERIAL_REACTIVATE", "material", id)
	return nil
}

// RegisterMovement posts an inventory movement. ENTRADA increments
// stock, SALIDA decrements it and never below zero, SOLICITUD only
// records the request.
func (s *Service) RegisterMovement(ctx context.Context, req CreateMovementRequest, actorID int64) (*Movement, error) {
	if !ValidMovementType(req.Type) {
		return nil, fmt.Errorf("%w: unknown movement type %q", httpx.ErrValidation, req.Type)
	}
	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive", httpx.ErrValidation)
	}

	movement := Movement{
		MaterialID: req.MaterialID,
		EmployeeID: req.EmployeeID,
		Type:       req.Type,
		Quantity:   req.Quantity,
		Note:       req.Note,
		CreatedBy:  actorID,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		material, err := tx.GetMaterialForUpdate(ctx, req.MaterialID)
		if err != nil {
			return err
		}
		if !material.IsActive {
			return fmt.Errorf("%w: material is inactive", httpx.ErrValidation)
		}

		switch req.Type {
		case MovementIn:
			if err := tx.AdjustStock(ctx, material.ID, material.Stock.Add(req.Quantity)); err != nil {
				return err
			}
		case MovementOut:
			newStock := material.Stock.Sub(req.Quantity)
			if newStock.IsNegative() {
				return fmt.Errorf("%w: %s requested, %s available", ErrNegativeStock, req.Quantity, material.Stock)
			}
			if err := tx.AdjustStock(ctx, material.ID, newStock); err != nil {
				return err
			}
		case MovementRequest:
			// no stock effect
		}

		id, err := tx.InsertMovement(ctx, movement)
		if err != nil {
			return err
		}
		movement.ID = id
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNegativeStock) {
			return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
		}
		return nil, err
	}

	s.recordAudit(ctx, actorID, "MOVEMENT_"+string(req.Type), "movement", movement.ID)
	return &movement, nil
}

func (s *Service) ListMovements(ctx context.Context, req ListMovementsRequest) ([]Movement, int, error) {
	return s.repo.ListMovements(ctx, req)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entity string, entityID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(entityID, 10),
	})
}
