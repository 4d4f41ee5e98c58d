package quotations

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taller-erp/taller-erp/internal/platform/httpx"
	"github.com/taller-erp/taller-erp/internal/pricing"
	"github.com/taller-erp/taller-erp/internal/shared"
	"github.com/taller-erp/taller-erp/internal/status"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error)
	SetState(ctx context.Context, id int64, state status.QuotationState) error
}

// SaleConverter creates the sale that results from accepting a
// quotation, and voids it again when the conversion cannot be
// recorded. Implemented by the sales service.
type SaleConverter interface {
	CreateFromQuotation(ctx context.Context, q *Quotation, actorID int64) (int64, error)
	VoidConvertedSale(ctx context.Context, saleID int64, actorID int64) error
}

// Service coordinates quotation operations.
type Service struct {
	repo      RepositoryPort
	converter SaleConverter
	audit     shared.AuditPort
	now       func() time.Time
}

// NewService builds a quotations Service.
func NewService(repo RepositoryPort, converter SaleConverter, audit shared.AuditPort) *Service {
	return &Service{repo: repo, converter: converter, audit: audit, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(q)
	return q, nil
}

func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		s.decorate(&items[i])
	}
	return items, total, nil
}

func (s *Service) Create(ctx context.Context, req CreateQuotationRequest, actorID int64) (*Quotation, error) {
	items, totals, err := s.priceItems(req.Items, req.LaborCost, req.GlobalDiscountPercent)
	if err != nil {
		return nil, err
	}

	q := Quotation{
		ClientID:              req.ClientID,
		VehicleDetail:         req.VehicleDetail,
		Notes:                 req.Notes,
		ValidUntil:            req.ValidUntil,
		GlobalDiscountPercent: req.GlobalDiscountPercent,
		LaborCost:             totals.LaborCost,
		Subtotal:              totals.Subtotal,
		DiscountAmount:        totals.DiscountAmount,
		TaxAmount:             totals.TaxAmount,
		Total:                 totals.Total,
		State:                 status.QuotationActivo,
		CreatedBy:             actorID,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, s.now())
		if err != nil {
			return err
		}
		q.Number = number

		id, err := tx.InsertQuotation(ctx, q)
		if err != nil {
			return err
		}
		q.ID = id
		return tx.ReplaceItems(ctx, id, items)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actorID, "QUOTATION_CREATE", q.ID)
	return s.Get(ctx, q.ID)
}

// Update modifies an estimate. Converted or deactivated quotations are
// frozen.
func (s *Service) Update(ctx context.Context, id int64, req UpdateQuotationRequest, actorID int64) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Converted() {
		return nil, fmt.Errorf("%w: quotation was already converted to a sale", httpx.ErrInvalidTransition)
	}
	if existing.State != status.QuotationActivo {
		return nil, fmt.Errorf("%w: quotation is inactive", httpx.ErrInvalidTransition)
	}

	if req.VehicleDetail != nil {
		existing.VehicleDetail = *req.VehicleDetail
	}
	if req.Notes != nil {
		existing.Notes = *req.Notes
	}
	if req.ValidUntil != nil {
		existing.ValidUntil = req.ValidUntil
	}
	if req.GlobalDiscountPercent != nil {
		existing.GlobalDiscountPercent = *req.GlobalDiscountPercent
	}
	if req.LaborCost != nil {
		existing.LaborCost = *req.LaborCost
	}

	itemReqs := make([]QuotationItemRequest, 0, len(existing.Items))
	if req.Items != nil {
		itemReqs = *req.Items
	} else {
		for _, item := range existing.Items {
			itemReqs = append(itemReqs, QuotationItemRequest{
				MaterialID:  item.MaterialID,
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
			})
		}
	}

	items, totals, err := s.priceItems(itemReqs, existing.LaborCost, existing.GlobalDiscountPercent)
	if err != nil {
		return nil, err
	}
	existing.Subtotal = totals.Subtotal
	existing.DiscountAmount = totals.DiscountAmount
	existing.TaxAmount = totals.TaxAmount
	existing.Total = totals.Total

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateHeader(ctx, *existing); err != nil {
			return err
		}
		return tx.ReplaceItems(ctx, id, items)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actorID, "QUOTATION_UPDATE", id)
	return s.Get(ctx, id)
}

func (s *Service) Deactivate(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.SetState(ctx, id, status.QuotationInactivo); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "QUOTATION_DEACTIVATE", id)
	return nil
}

func (s *Service) Reactivate(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.SetState(ctx, id, status.QuotationActivo); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "QUOTATION_REACTIVATE", id)
	return nil
}

// Convert turns an accepted quotation into a pending sale. A quotation
// converts at most once: the row lock serializes concurrent converts,
// so the second caller sees the recorded sale before creating its own.
func (s *Service) Convert(ctx context.Context, id int64, actorID int64) (*Quotation, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		q, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if q.Converted() {
			return fmt.Errorf("%w: quotation was already converted", httpx.ErrDuplicate)
		}
		if q.State != status.QuotationActivo {
			return fmt.Errorf("%w: inactive quotation cannot be converted", httpx.ErrInvalidTransition)
		}

		saleID, err := s.converter.CreateFromQuotation(ctx, q, actorID)
		if err != nil {
			return err
		}
		if err := tx.MarkConverted(ctx, id, saleID); err != nil {
			// The sale committed in its own transaction; void it so a
			// failed conversion leaves no live sale behind.
			if verr := s.converter.VoidConvertedSale(ctx, saleID, actorID); verr != nil {
				s.recordAudit(ctx, actorID, "QUOTATION_CONVERT_VOID_FAILED", id)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actorID, "QUOTATION_CONVERT", id)
	return s.Get(ctx, id)
}

func (s *Service) priceItems(reqs []QuotationItemRequest, laborCost, globalDiscount decimal.Decimal) ([]QuotationItem, pricing.DocumentTotals, error) {
	lines := make([]pricing.LineItem, 0, len(reqs))
	items := make([]QuotationItem, 0, len(reqs))
	for _, req := range reqs {
		line := pricing.LineItem{Quantity: req.Quantity, UnitPrice: req.UnitPrice}
		lt, err := pricing.ComputeLineTotals(line)
		if err != nil {
			return nil, pricing.DocumentTotals{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
		}
		lines = append(lines, line)
		items = append(items, QuotationItem{
			MaterialID:  req.MaterialID,
			Description: req.Description,
			Quantity:    req.Quantity,
			UnitPrice:   req.UnitPrice,
			Subtotal:    lt.Subtotal,
		})
	}

	totals, err := pricing.ComputeQuotationTotals(lines, laborCost, globalDiscount)
	if err != nil {
		return nil, pricing.DocumentTotals{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	return items, totals, nil
}

func (s *Service) decorate(q *Quotation) {
	validUntil := time.Time{}
	if q.ValidUntil != nil {
		validUntil = *q.ValidUntil
	}
	q.DisplayStatus = status.DeriveQuotationDisplay(q.Converted(), validUntil, s.now())
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "quotation",
		EntityID: strconv.FormatInt(entityID, 10),
	})
}
