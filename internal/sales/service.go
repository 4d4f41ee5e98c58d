package sales

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taller-erp/taller-erp/internal/platform/httpx"
	"github.com/taller-erp/taller-erp/internal/pricing"
	"github.com/taller-erp/taller-erp/internal/quotations"
	"github.com/taller-erp/taller-erp/internal/shared"
	"github.com/taller-erp/taller-erp/internal/status"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Sale, error)
	List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error)
}

// StockEnqueuer queues the inventory posting of a paid sale.
// Implemented by jobs.Client.
type StockEnqueuer interface {
	EnqueueStockPost(ctx context.Context, docType string, docID int64) error
}

// Service coordinates sale operations.
type Service struct {
	repo    RepositoryPort
	stock   StockEnqueuer
	audit   shared.AuditPort
	docType string
	now     func() time.Time
}

// NewService builds a sales Service.
func NewService(repo RepositoryPort, stock StockEnqueuer, audit shared.AuditPort) *Service {
	return &Service{repo: repo, stock: stock, audit: audit, docType: "venta", now: time.Now}
}

func (s *Service) Get(ctx context.Context, id int64) (*Sale, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreateSaleRequest, actorID int64) (*Sale, error) {
	lines, totals, err := priceLines(req.Lines, req.LaborCost)
	if err != nil {
		return nil, err
	}

	sale := Sale{
		ClientID:       req.ClientID,
		Status:         status.SalePendiente,
		Notes:          req.Notes,
		LaborCost:      totals.LaborCost,
		Subtotal:       totals.Subtotal,
		DiscountAmount: totals.DiscountAmount,
		TaxAmount:      totals.TaxAmount,
		Total:          totals.Total,
		CreatedBy:      actorID,
	}

	if err := s.insert(ctx, &sale, lines); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actorID, "SALE_CREATE", sale.ID)
	return s.repo.Get(ctx, sale.ID)
}

// CreateFromQuotation opens a pending sale from an accepted quotation.
// The quotation's agreed amounts are carried over untouched, including
// the global discount and the flat quotation tax.
func (s *Service) CreateFromQuotation(ctx context.Context, q *quotations.Quotation, actorID int64) (int64, error) {
	lines := make([]SaleLine, 0, len(q.Items))
	for _, item := range q.Items {
		lines = append(lines, SaleLine{
			MaterialID:  item.MaterialID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.Subtotal,
		})
	}

	quotationID := q.ID
	sale := Sale{
		ClientID:       q.ClientID,
		QuotationID:    &quotationID,
		Status:         status.SalePendiente,
		Notes:          q.Notes,
		LaborCost:      q.LaborCost,
		Subtotal:       q.Subtotal,
		DiscountAmount: q.DiscountAmount,
		TaxAmount:      q.TaxAmount,
		Total:          q.Total,
		CreatedBy:      actorID,
	}

	if err := s.insert(ctx, &sale, lines); err != nil {
		return 0, err
	}

	s.recordAudit(ctx, actorID, "SALE_FROM_QUOTATION", sale.ID)
	return sale.ID, nil
}

// VoidConvertedSale annuls a sale whose source quotation could not be
// marked converted, so a failed conversion leaves no live sale behind.
func (s *Service) VoidConvertedSale(ctx context.Context, saleID int64, actorID int64) error {
	_, err := s.Annul(ctx, saleID, actorID)
	return err
}

// ChangeStatus moves a sale along its workflow. Marking it paid queues
// the outbound inventory posting.
func (s *Service) ChangeStatus(ctx context.Context, id int64, to status.SaleStatus, actorID int64) (*Sale, error) {
	var paid bool
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := status.TransitionSale(sale.Status, to); err != nil {
			return fmt.Errorf("%w: %s", httpx.ErrInvalidTransition, err)
		}
		paid = to == status.SalePagado
		return tx.UpdateStatus(ctx, id, to)
	})
	if err != nil {
		return nil, err
	}

	if paid && s.stock != nil {
		if err := s.stock.EnqueueStockPost(ctx, s.docType, id); err != nil {
			s.recordAudit(ctx, actorID, "SALE_STOCK_ENQUEUE_FAILED", id)
		}
	}

	s.recordAudit(ctx, actorID, "SALE_STATUS_"+string(to), id)
	return s.repo.Get(ctx, id)
}

// Annul cancels a pending sale.
func (s *Service) Annul(ctx context.Context, id int64, actorID int64) (*Sale, error) {
	return s.ChangeStatus(ctx, id, status.SaleAnulado, actorID)
}

// Reactivate brings an annulled sale back to pending so it shows in the
// working view again.
func (s *Service) Reactivate(ctx context.Context, id int64, actorID int64) (*Sale, error) {
	return s.ChangeStatus(ctx, id, status.SalePendiente, actorID)
}

func (s *Service) insert(ctx context.Context, sale *Sale, lines []SaleLine) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, s.now())
		if err != nil {
			return err
		}
		sale.Number = number

		id, err := tx.InsertSale(ctx, *sale)
		if err != nil {
			return err
		}
		sale.ID = id
		return tx.InsertLines(ctx, id, lines)
	})
}

func priceLines(reqs []SaleLineRequest, laborCost decimal.Decimal) ([]SaleLine, pricing.DocumentTotals, error) {
	items := make([]pricing.LineItem, 0, len(reqs))
	lines := make([]SaleLine, 0, len(reqs))
	for _, req := range reqs {
		item := pricing.LineItem{
			Quantity:        req.Quantity,
			UnitPrice:       req.UnitPrice,
			DiscountPercent: req.DiscountPercent,
			TaxPercent:      req.TaxPercent,
		}
		lt, err := pricing.ComputeLineTotals(item)
		if err != nil {
			return nil, pricing.DocumentTotals{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
		}
		items = append(items, item)
		lines = append(lines, SaleLine{
			MaterialID:      req.MaterialID,
			Description:     req.Description,
			Quantity:        req.Quantity,
			UnitPrice:       req.UnitPrice,
			DiscountPercent: req.DiscountPercent,
			TaxPercent:      req.TaxPercent,
			DiscountAmount:  lt.DiscountAmount,
			TaxAmount:       lt.TaxAmount,
			LineTotal:       lt.Total,
		})
	}

	totals, err := pricing.ComputeTradeTotals(items, laborCost)
	if err != nil {
		return nil, pricing.DocumentTotals{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	return lines, totals, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "sale",
		EntityID: strconv.FormatInt(entityID, 10),
	})
}
