package purchases

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
	Get(ctx context.Context, id int64) (*Purchase, error)
	List(ctx context.Context, req ListPurchasesRequest) ([]Purchase, int, error)
	ListPayments(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error)
}

// StockEnqueuer queues the inventory posting of an approved purchase
// and its reversal on annulment. Implemented by jobs.Client.
type StockEnqueuer interface {
	EnqueueStockPost(ctx context.Context, docType string, docID int64) error
	EnqueueStockReversal(ctx context.Context, docType string, docID int64) error
}

// Service coordinates purchase operations.
type Service struct {
	repo    RepositoryPort
	stock   StockEnqueuer
	audit   shared.AuditPort
	docType string
	now     func() time.Time
}

// NewService builds a purchases Service.
func NewService(repo RepositoryPort, stock StockEnqueuer, audit shared.AuditPort) *Service {
	return &Service{repo: repo, stock: stock, audit: audit, docType: "compra", now: time.Now}
}

func (s *Service) Get(ctx context.Context, id int64) (*Purchase, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListPurchasesRequest) ([]Purchase, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreatePurchaseRequest, actorID int64) (*Purchase, error) {
	lines, totals, err := priceLines(req.Lines, req.LaborCost)
	if err != nil {
		return nil, err
	}

	p := Purchase{
		SupplierID:     req.SupplierID,
		Status:         status.PurchasePendiente,
		PaymentStatus:  PaymentPendiente,
		Notes:          req.Notes,
		LaborCost:      totals.LaborCost,
		Subtotal:       totals.Subtotal,
		DiscountAmount: totals.DiscountAmount,
		TaxAmount:      totals.TaxAmount,
		Total:          totals.Total,
		PaidAmount:     decimal.Zero,
		CreatedBy:      actorID,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, s.now())
		if err != nil {
			return err
		}
		p.Number = number

		id, err := tx.InsertPurchase(ctx, p)
		if err != nil {
			return err
		}
		p.ID = id
		return tx.InsertLines(ctx, id, lines)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actorID, "PURCHASE_CREATE", "purchase", p.ID)
	return s.repo.Get(ctx, p.ID)
}

// ChangeStatus moves a purchase along the approval workflow. Approval
// queues the inventory posting; annulling an approved purchase queues
// the reversal that backs the posting out.
func (s *Service) ChangeStatus(ctx context.Context, id int64, to status.PurchaseStatus, actorID int64) (*Purchase, error) {
	var approved, annulled bool
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetPurchaseForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := status.TransitionPurchase(p.Status, to); err != nil {
			return fmt.Errorf("%w: %s", httpx.ErrInvalidTransition, err)
		}
		approved = to == status.PurchaseAprobado
		annulled = to == status.PurchaseAnulado && p.Status == status.PurchaseAprobado
		return tx.UpdateStatus(ctx, id, to)
	})
	if err != nil {
		return nil, err
	}

	if s.stock != nil {
		// The status change already committed; the integrity scan catches
		// postings and reversals that never ran.
		if approved {
			if err := s.stock.EnqueueStockPost(ctx, s.docType, id); err != nil {
				s.recordAudit(ctx, actorID, "PURCHASE_STOCK_ENQUEUE_FAILED", "purchase", id)
			}
		}
		if annulled {
			if err := s.stock.EnqueueStockReversal(ctx, s.docType, id); err != nil {
				s.recordAudit(ctx, actorID, "PURCHASE_STOCK_ENQUEUE_FAILED", "purchase", id)
			}
		}
	}

	s.recordAudit(ctx, actorID, "PURCHASE_STATUS_"+string(to), "purchase", id)
	return s.repo.Get(ctx, id)
}

// RegisterPayment records money against an approved purchase. The
// purchase's paid total and payment status move in the same transaction
// as the payment row.
func (s *Service) RegisterPayment(ctx context.Context, req CreatePaymentRequest, actorID int64) (*Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", httpx.ErrValidation)
	}

	payment := Payment{
		PurchaseID: req.PurchaseID,
		Amount:     req.Amount,
		Method:     req.Method,
		Reference:  req.Reference,
		Note:       req.Note,
		CreatedBy:  actorID,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetPurchaseForUpdate(ctx, req.PurchaseID)
		if err != nil {
			return err
		}
		if p.Status != status.PurchaseAprobado {
			return fmt.Errorf("%w: only approved purchases accept payments", httpx.ErrInvalidTransition)
		}
		if req.Amount.GreaterThan(p.Balance()) {
			return fmt.Errorf("%w: amount %s exceeds outstanding balance %s", httpx.ErrValidation, req.Amount, p.Balance())
		}

		id, err := tx.InsertPayment(ctx, payment)
		if err != nil {
			return err
		}
		payment.ID = id

		newPaid := p.PaidAmount.Add(req.Amount)
		ps := PaymentParcial
		if newPaid.Equal(p.Total) {
			ps = PaymentPagado
		}
		return tx.UpdatePaymentTotals(ctx, p.ID, newPaid, ps)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actorID, "PURCHASE_PAYMENT", "purchase_payment", payment.ID)
	return &payment, nil
}

func (s *Service) ListPayments(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error) {
	return s.repo.ListPayments(ctx, req)
}

func priceLines(reqs []PurchaseLineRequest, laborCost decimal.Decimal) ([]PurchaseLine, pricing.DocumentTotals, error) {
	items := make([]pricing.LineItem, 0, len(reqs))
	lines := make([]PurchaseLine, 0, len(reqs))
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
		lines = append(lines, PurchaseLine{
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
